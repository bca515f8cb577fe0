package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/contracts"
)

var TokenCmd = &cli.Command{
	Name:  "token",
	Usage: "MITCoin ERC-20 operations",
	Subcommands: []*cli.Command{
		{
			Name:   "info",
			Usage:  "Show token name, symbol, decimals, supply and owner",
			Flags:  []cli.Flag{addressFlag(contracts.KindToken)},
			Action: tokenInfo,
		},
		{
			Name:      "balance",
			Usage:     "Show the token balance of an account",
			ArgsUsage: "<account>",
			Flags:     []cli.Flag{addressFlag(contracts.KindToken)},
			Action:    tokenBalance,
		},
		{
			Name:      "allowance",
			Usage:     "Show how much a spender may transfer for an owner",
			ArgsUsage: "<owner> <spender>",
			Flags:     []cli.Flag{addressFlag(contracts.KindToken)},
			Action:    tokenAllowance,
		},
		{
			Name:      "mint",
			Usage:     "Mint tokens to an account (token owner only)",
			ArgsUsage: "<to> <amount>",
			Flags:     []cli.Flag{addressFlag(contracts.KindToken), signerFlag(), unitsFlag()},
			Action: tokenTx(func(t *contracts.Token, opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error) {
				return t.Mint(opts, to, amount)
			}),
		},
		{
			Name:      "transfer",
			Usage:     "Transfer tokens from the signer",
			ArgsUsage: "<to> <amount>",
			Flags:     []cli.Flag{addressFlag(contracts.KindToken), signerFlag(), unitsFlag()},
			Action: tokenTx(func(t *contracts.Token, opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error) {
				return t.Transfer(opts, to, amount)
			}),
		},
		{
			Name:      "approve",
			Usage:     "Approve a spender, usually the Flow contract, for the signer's tokens",
			ArgsUsage: "<spender> <amount>",
			Flags:     []cli.Flag{addressFlag(contracts.KindToken), signerFlag(), unitsFlag()},
			Action: tokenTx(func(t *contracts.Token, opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error) {
				return t.Approve(opts, to, amount)
			}),
		},
	},
}

func attachToken(c *cli.Context) (*client.Client, *contracts.Token, error) {
	cl, err := connect(c)
	if err != nil {
		return nil, nil, err
	}
	addr, err := contractAddress(c, cl, contracts.KindToken)
	if err != nil {
		return nil, nil, err
	}
	token, err := contracts.NewToken(addr, cl.Backend())
	if err != nil {
		return nil, nil, err
	}
	return cl, token, nil
}

func tokenInfo(c *cli.Context) error {
	_, token, err := attachToken(c)
	if err != nil {
		return err
	}
	info, err := token.Info(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read token info: %w", err)
	}
	owner, err := token.Owner(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read owner: %w", err)
	}

	fmt.Printf("Token:        %s\n", token.Address().Hex())
	fmt.Printf("Name:         %s\n", info.Name)
	fmt.Printf("Symbol:       %s\n", info.Symbol)
	fmt.Printf("Decimals:     %d\n", info.Decimals)
	printAmount("Total supply:", info.TotalSupply, info.Decimals, info.Symbol)
	fmt.Printf("Owner:        %s\n", owner.Hex())
	return nil
}

func tokenBalance(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	cl, token, err := attachToken(c)
	if err != nil {
		return err
	}
	account, err := parseAddress(cl, c.Args().Get(0))
	if err != nil {
		return err
	}
	info, err := token.Info(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read token info: %w", err)
	}
	balance, err := token.BalanceOf(c.Context, account)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}

	fmt.Printf("Account: %s\n", account.Hex())
	printAmount("Balance:", balance, info.Decimals, info.Symbol)
	return nil
}

func tokenAllowance(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	cl, token, err := attachToken(c)
	if err != nil {
		return err
	}
	owner, err := parseAddress(cl, c.Args().Get(0))
	if err != nil {
		return err
	}
	spender, err := parseAddress(cl, c.Args().Get(1))
	if err != nil {
		return err
	}
	info, err := token.Info(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read token info: %w", err)
	}
	allowance, err := token.Allowance(c.Context, owner, spender)
	if err != nil {
		return fmt.Errorf("failed to get allowance: %w", err)
	}
	printAmount("Allowance:", allowance, info.Decimals, info.Symbol)
	return nil
}

// tokenTx builds the action of the <address> <amount> token transactions.
func tokenTx(send func(*contracts.Token, *bind.TransactOpts, common.Address, *big.Int) (*types.Transaction, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := requireArgs(c, 2); err != nil {
			return err
		}
		cl, token, err := attachToken(c)
		if err != nil {
			return err
		}
		target, err := parseAddress(cl, c.Args().Get(0))
		if err != nil {
			return err
		}
		amount, err := parseAmount(c, c.Args().Get(1), func() (uint8, error) { return token.Decimals(c.Context) })
		if err != nil {
			return err
		}

		fmt.Printf("%s %s -> %s\n", c.Command.Name, amount.String(), target.Hex())
		_, err = transact(c, cl, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return send(token, opts, target, amount)
		})
		return err
	}
}
