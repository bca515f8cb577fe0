package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/contracts"
)

var AccountsCmd = &cli.Command{
	Name:  "accounts",
	Usage: "Signer accounts of the selected network",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List signers with their native and MITCoin balances",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "tokens",
					Usage: "Also show MITCoin balances",
				},
			},
			Action: listAccounts,
		},
	},
}

func listAccounts(c *cli.Context) error {
	cl, err := connect(c)
	if err != nil {
		return err
	}
	signers := cl.Signers()
	if len(signers) == 0 {
		fmt.Printf("No accounts configured for %s.\n", network)
		return nil
	}

	var token *contracts.Token
	var info *contracts.TokenInfo
	if c.Bool("tokens") {
		addr, err := lookupContract(string(contracts.KindToken))
		if err != nil {
			return err
		}
		if token, err = contracts.NewToken(addr, cl.Backend()); err != nil {
			return err
		}
		if info, err = token.Info(c.Context); err != nil {
			return fmt.Errorf("failed to read token info: %w", err)
		}
	}

	for i, addr := range signers {
		balance, err := cl.Balance(c.Context, addr)
		if err != nil {
			return err
		}
		fmt.Printf("signer%d:\n", i)
		fmt.Printf("  Address: %s\n", addr.Hex())
		printAmount("  Balance:", balance, 18, "ETH")
		if token != nil {
			tb, err := token.BalanceOf(c.Context, addr)
			if err != nil {
				return fmt.Errorf("failed to get token balance: %w", err)
			}
			printAmount("  Tokens: ", tb, info.Decimals, info.Symbol)
		}
		fmt.Println()
	}
	return nil
}
