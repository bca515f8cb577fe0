package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/contracts"
)

func creatorFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{addressFlag(contracts.KindStreamCreator), signerFlag()}, extra...)
}

var CreatorCmd = &cli.Command{
	Name:  "creator",
	Usage: "FlowStreamCreator operations: streams from the creator to its fixed recipient",
	Subcommands: []*cli.Command{
		{
			Name:   "info",
			Usage:  "Show the Flow contract, token and recipient the creator uses",
			Flags:  []cli.Flag{addressFlag(contracts.KindStreamCreator)},
			Action: creatorInfo,
		},
		{
			Name:   "version",
			Usage:  "Print the FlowStreamCreator version string",
			Flags:  []cli.Flag{addressFlag(contracts.KindStreamCreator)},
			Action: versionAction(contracts.KindStreamCreator),
		},
		{
			Name:  "create",
			Usage: "Create a stream to the creator's recipient, optionally funding it",
			Flags: creatorFlags(append(rateFlags(), unitsFlag(), &cli.StringFlag{
				Name:  "amount",
				Usage: "Deposit this amount in the same transaction",
			})...),
			Action: creatorCreate,
		},
		{
			Name:      "deposit",
			Usage:     "Deposit tokens held by the creator into a stream",
			ArgsUsage: "<stream-id> <amount>",
			Flags:     creatorFlags(unitsFlag()),
			Action: creatorTx(2, func(cr *contracts.StreamCreator, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				amount, err := parseAmount(c, c.Args().Get(1), creatorDecimals(c, cr))
				if err != nil {
					return nil, err
				}
				return cr.DepositFlowStream(opts, id, amount)
			}),
		},
		{
			Name:      "pause",
			Usage:     "Pause a creator stream",
			ArgsUsage: "<stream-id>",
			Flags:     creatorFlags(),
			Action: creatorTx(1, func(cr *contracts.StreamCreator, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				return cr.PauseFlowStream(opts, id)
			}),
		},
		{
			Name:      "restart",
			Usage:     "Restart a paused creator stream",
			ArgsUsage: "<stream-id>",
			Flags:     creatorFlags(append(rateFlags(), unitsFlag())...),
			Action: creatorTx(1, func(cr *contracts.StreamCreator, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				rate, err := parseRate(c, creatorDecimals(c, cr))
				if err != nil {
					return nil, err
				}
				return cr.RestartFlowStream(opts, id, rate)
			}),
		},
		{
			Name:      "withdraw",
			Usage:     "Withdraw from a creator stream to its recipient",
			ArgsUsage: "<stream-id> <amount>",
			Flags:     creatorFlags(unitsFlag()),
			Action: creatorTx(2, func(cr *contracts.StreamCreator, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				amount, err := parseAmount(c, c.Args().Get(1), creatorDecimals(c, cr))
				if err != nil {
					return nil, err
				}
				return cr.WithdrawFlowStream(opts, id, amount)
			}),
		},
		{
			Name:      "void",
			Usage:     "Void a creator stream",
			ArgsUsage: "<stream-id>",
			Flags:     creatorFlags(),
			Action: creatorTx(1, func(cr *contracts.StreamCreator, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				return cr.VoidFlowStream(opts, id)
			}),
		},
	},
}

func attachCreator(c *cli.Context) (*client.Client, *contracts.StreamCreator, error) {
	cl, err := connect(c)
	if err != nil {
		return nil, nil, err
	}
	addr, err := contractAddress(c, cl, contracts.KindStreamCreator)
	if err != nil {
		return nil, nil, err
	}
	cr, err := contracts.NewStreamCreator(addr, cl.Backend())
	if err != nil {
		return nil, nil, err
	}
	return cl, cr, nil
}

// creatorDecimals reads the decimals of the creator's token.
func creatorDecimals(c *cli.Context, cr *contracts.StreamCreator) func() (uint8, error) {
	return func() (uint8, error) {
		addr, err := cr.Token(c.Context)
		if err != nil {
			return 0, err
		}
		token, err := contracts.NewToken(addr, cr.Backend())
		if err != nil {
			return 0, err
		}
		return token.Decimals(c.Context)
	}
}

func creatorInfo(c *cli.Context) error {
	_, cr, err := attachCreator(c)
	if err != nil {
		return err
	}
	flow, err := cr.Flow(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read FLOW: %w", err)
	}
	token, err := cr.Token(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read TOKEN: %w", err)
	}
	recipient, err := cr.Recipient(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read recipient: %w", err)
	}

	fmt.Printf("StreamCreator: %s\n", cr.Address().Hex())
	fmt.Printf("Flow:          %s\n", flow.Hex())
	fmt.Printf("Token:         %s\n", token.Hex())
	fmt.Printf("Recipient:     %s\n", recipient.Hex())
	return nil
}

func creatorCreate(c *cli.Context) error {
	cl, cr, err := attachCreator(c)
	if err != nil {
		return err
	}
	decimals := creatorDecimals(c, cr)
	rate, err := parseRate(c, decimals)
	if err != nil {
		return err
	}
	var deposit *big.Int
	if s := c.String("amount"); s != "" {
		if deposit, err = parseAmount(c, s, decimals); err != nil {
			return err
		}
	}

	fmt.Printf("Creating stream at %s/s\n", rate)
	receipt, err := transact(c, cl, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		if deposit != nil {
			return cr.CreateAndDepositFlowStream(opts, rate, deposit)
		}
		return cr.CreateFlowStream(opts, rate)
	})
	if err != nil {
		return err
	}
	id, err := cr.StreamIDFromReceipt(receipt)
	if err != nil {
		return err
	}
	fmt.Printf("Stream id: %s\n", id)
	return nil
}

// creatorTx builds the action of a creator transaction taking a stream id
// followed by nargs-1 more arguments.
func creatorTx(nargs int, send func(*contracts.StreamCreator, *bind.TransactOpts, *cli.Context, *big.Int) (*types.Transaction, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		id, err := streamIDArg(c, nargs)
		if err != nil {
			return err
		}
		cl, cr, err := attachCreator(c)
		if err != nil {
			return err
		}
		fmt.Printf("%s stream %s via creator %s\n", c.Command.Name, id, cr.Address().Hex())
		_, err = transact(c, cl, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return send(cr, opts, c, id)
		})
		return err
	}
}
