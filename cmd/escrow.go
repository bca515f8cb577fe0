package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/contracts"
)

var EscrowCmd = &cli.Command{
	Name:  "escrow",
	Usage: "MyEscrow operations",
	Subcommands: []*cli.Command{
		{
			Name:   "info",
			Usage:  "Show the escrow parties, state and balance",
			Flags:  []cli.Flag{addressFlag(contracts.KindEscrow)},
			Action: escrowInfo,
		},
		{
			Name:      "deposit",
			Usage:     "Deposit native currency into escrow (buyer)",
			ArgsUsage: "<amount>",
			Flags: []cli.Flag{addressFlag(contracts.KindEscrow), signerFlag(), &cli.BoolFlag{
				Name:  "units",
				Usage: "Read the amount in ether instead of wei",
			}},
			Action: escrowDeposit,
		},
		{
			Name:   "approve",
			Usage:  "Release the escrow to the seller (arbiter)",
			Flags:  []cli.Flag{addressFlag(contracts.KindEscrow), &cli.IntFlag{Name: "signer", Usage: "Index of the signing account", Value: 1}},
			Action: escrowApprove,
		},
	},
}

func attachEscrow(c *cli.Context) (*client.Client, *contracts.Escrow, error) {
	cl, err := connect(c)
	if err != nil {
		return nil, nil, err
	}
	addr, err := contractAddress(c, cl, contracts.KindEscrow)
	if err != nil {
		return nil, nil, err
	}
	e, err := contracts.NewEscrow(addr, cl.Backend())
	if err != nil {
		return nil, nil, err
	}
	return cl, e, nil
}

func escrowInfo(c *cli.Context) error {
	cl, e, err := attachEscrow(c)
	if err != nil {
		return err
	}
	info, err := e.Info(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read escrow: %w", err)
	}
	balance, err := cl.Balance(c.Context, e.Address())
	if err != nil {
		return err
	}

	fmt.Printf("Escrow:       %s\n", e.Address().Hex())
	fmt.Printf("Buyer addr:   %s\n", info.Buyer.Hex())
	fmt.Printf("Seller addr:  %s\n", info.Seller.Hex())
	fmt.Printf("Arbiter addr: %s\n", info.Arbiter.Hex())
	fmt.Printf("Approved:     %t\n", info.Approved)
	printAmount("Balance:     ", balance, 18, "ETH")
	return nil
}

func escrowDeposit(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	cl, e, err := attachEscrow(c)
	if err != nil {
		return err
	}
	value, err := parseAmount(c, c.Args().First(), func() (uint8, error) { return 18, nil })
	if err != nil {
		return err
	}
	if value.Sign() == 0 {
		return fmt.Errorf("deposit must be positive")
	}

	fmt.Printf("Depositing %s wei (%s ETH) into %s\n", value, contracts.FormatUnits(value, 18), e.Address().Hex())
	_, err = transact(c, cl, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return e.Deposit(opts, value)
	})
	return err
}

func escrowApprove(c *cli.Context) error {
	cl, e, err := attachEscrow(c)
	if err != nil {
		return err
	}
	info, err := e.Info(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read escrow: %w", err)
	}
	signer, err := cl.Signer(c.Int("signer"))
	if err != nil {
		return err
	}
	if signer != info.Arbiter {
		return fmt.Errorf("signer%d %s is not the arbiter %s", c.Int("signer"), signer.Hex(), info.Arbiter.Hex())
	}
	balance, err := cl.Balance(c.Context, e.Address())
	if err != nil {
		return err
	}

	fmt.Printf("Approving release of %s wei to %s\n", balance, info.Seller.Hex())
	_, err = transact(c, cl, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return e.Approve(opts)
	})
	return err
}
