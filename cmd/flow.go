package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/contracts"
)

func streamArgFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{addressFlag(contracts.KindFlow), signerFlag()}, extra...)
}

func createFlags() []cli.Flag {
	flags := []cli.Flag{
		addressFlag(contracts.KindFlow),
		signerFlag(),
		unitsFlag(),
		&cli.StringFlag{
			Name:  "sender",
			Usage: "Stream sender (default: the signer)",
		},
		&cli.StringFlag{
			Name:  "recipient",
			Usage: "Stream recipient",
			Value: "signer1",
		},
		&cli.StringFlag{
			Name:  "token",
			Usage: "Streamed ERC-20 (default: MITCoin)",
		},
		&cli.BoolFlag{
			Name:  "transferable",
			Usage: "Allow the stream NFT to be transferred",
			Value: true,
		},
	}
	return append(flags, rateFlags()...)
}

var FlowCmd = &cli.Command{
	Name:  "flow",
	Usage: "Sablier Flow stream operations",
	Subcommands: []*cli.Command{
		{
			Name:      "status",
			Usage:     "Print a stream's status",
			ArgsUsage: "<stream-id>",
			Flags:     []cli.Flag{addressFlag(contracts.KindFlow)},
			Action:    flowStatus,
		},
		{
			Name:      "balance",
			Usage:     "Prints a stream's balance",
			ArgsUsage: "<stream-id>",
			Flags:     []cli.Flag{addressFlag(contracts.KindFlow)},
			Action:    flowBalance,
		},
		{
			Name:      "info",
			Usage:     "Print everything known about a stream",
			ArgsUsage: "<stream-id>",
			Flags:     []cli.Flag{addressFlag(contracts.KindFlow)},
			Action:    flowInfo,
		},
		{
			Name:   "next-id",
			Usage:  "Print the id the next stream will get",
			Flags:  []cli.Flag{addressFlag(contracts.KindFlow)},
			Action: flowNextID,
		},
		{
			Name:   "version",
			Usage:  "Print the MySablierFlow version string",
			Flags:  []cli.Flag{addressFlag(contracts.KindFlow)},
			Action: versionAction(contracts.KindFlow),
		},
		{
			Name:   "create",
			Usage:  "Create a stream",
			Flags:  createFlags(),
			Action: flowCreate,
		},
		{
			Name:  "create-and-deposit",
			Usage: "Create a stream and fund it in one transaction",
			Flags: append(createFlags(), &cli.StringFlag{
				Name:     "amount",
				Usage:    "Amount to deposit",
				Required: true,
			}),
			Action: flowCreate,
		},
		{
			Name:      "deposit",
			Usage:     "Deposit tokens into a stream",
			ArgsUsage: "<stream-id> <amount>",
			Flags:     streamArgFlags(unitsFlag()),
			Action:    flowDeposit,
		},
		{
			Name:      "pause",
			Usage:     "Pause a stream",
			ArgsUsage: "<stream-id>",
			Flags:     streamArgFlags(),
			Action: streamTx(1, func(f *contracts.Flow, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				return f.Pause(opts, id)
			}),
		},
		{
			Name:      "restart",
			Usage:     "Restart a paused stream with a new rate",
			ArgsUsage: "<stream-id>",
			Flags:     streamArgFlags(append(rateFlags(), unitsFlag())...),
			Action: streamTx(1, func(f *contracts.Flow, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				rate, err := parseRate(c, func() (uint8, error) { return streamDecimals(c.Context, f, id) })
				if err != nil {
					return nil, err
				}
				return f.Restart(opts, id, rate)
			}),
		},
		{
			Name:      "adjust-rate",
			Usage:     "Change the rate of a streaming stream",
			ArgsUsage: "<stream-id>",
			Flags:     streamArgFlags(append(rateFlags(), unitsFlag())...),
			Action: streamTx(1, func(f *contracts.Flow, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				rate, err := parseRate(c, func() (uint8, error) { return streamDecimals(c.Context, f, id) })
				if err != nil {
					return nil, err
				}
				return f.AdjustRatePerSecond(opts, id, rate)
			}),
		},
		{
			Name:      "withdraw",
			Usage:     "Withdraw an amount from a stream",
			ArgsUsage: "<stream-id> <amount>",
			Flags: streamArgFlags(unitsFlag(), &cli.StringFlag{
				Name:  "to",
				Usage: "Receiver of the withdrawal (default: stream recipient)",
			}),
			Action: streamTx(2, func(f *contracts.Flow, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				to, err := withdrawTo(c, f, id)
				if err != nil {
					return nil, err
				}
				amount, err := parseAmount(c, c.Args().Get(1), func() (uint8, error) { return streamDecimals(c.Context, f, id) })
				if err != nil {
					return nil, err
				}
				return f.Withdraw(opts, id, to, amount)
			}),
		},
		{
			Name:      "withdraw-max",
			Usage:     "Withdraw everything withdrawable from a stream",
			ArgsUsage: "<stream-id>",
			Flags: streamArgFlags(&cli.StringFlag{
				Name:  "to",
				Usage: "Receiver of the withdrawal (default: stream recipient)",
			}),
			Action: streamTx(1, func(f *contracts.Flow, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				to, err := withdrawTo(c, f, id)
				if err != nil {
					return nil, err
				}
				return f.WithdrawMax(opts, id, to)
			}),
		},
		{
			Name:      "refund",
			Usage:     "Refund unstreamed tokens to the sender",
			ArgsUsage: "<stream-id> <amount>",
			Flags:     streamArgFlags(unitsFlag()),
			Action: streamTx(2, func(f *contracts.Flow, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				amount, err := parseAmount(c, c.Args().Get(1), func() (uint8, error) { return streamDecimals(c.Context, f, id) })
				if err != nil {
					return nil, err
				}
				return f.Refund(opts, id, amount)
			}),
		},
		{
			Name:      "refund-max",
			Usage:     "Refund the whole refundable amount to the sender",
			ArgsUsage: "<stream-id>",
			Flags:     streamArgFlags(),
			Action: streamTx(1, func(f *contracts.Flow, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				return f.RefundMax(opts, id)
			}),
		},
		{
			Name:      "void",
			Usage:     "Void a stream, writing off uncovered debt",
			ArgsUsage: "<stream-id>",
			Flags:     streamArgFlags(),
			Action: streamTx(1, func(f *contracts.Flow, opts *bind.TransactOpts, c *cli.Context, id *big.Int) (*types.Transaction, error) {
				return f.Void(opts, id)
			}),
		},
		WatchCmd,
		EventsCmd,
	},
}

func attachFlow(c *cli.Context) (*client.Client, *contracts.Flow, error) {
	cl, err := connect(c)
	if err != nil {
		return nil, nil, err
	}
	addr, err := contractAddress(c, cl, contracts.KindFlow)
	if err != nil {
		return nil, nil, err
	}
	flow, err := contracts.NewFlow(addr, cl.Backend())
	if err != nil {
		return nil, nil, err
	}
	return cl, flow, nil
}

// streamDecimals reads the decimals of the token a stream pays in.
func streamDecimals(ctx context.Context, f *contracts.Flow, id *big.Int) (uint8, error) {
	_, info, err := streamToken(ctx, f, id)
	if err != nil {
		return 0, err
	}
	return info.Decimals, nil
}

func streamToken(ctx context.Context, f *contracts.Flow, id *big.Int) (common.Address, *contracts.TokenInfo, error) {
	addr, err := f.GetToken(ctx, id)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to get stream token: %w", err)
	}
	token, err := contracts.NewToken(addr, f.Backend())
	if err != nil {
		return common.Address{}, nil, err
	}
	info, err := token.Info(ctx)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to read token %s: %w", addr.Hex(), err)
	}
	return addr, info, nil
}

func withdrawTo(c *cli.Context, f *contracts.Flow, id *big.Int) (common.Address, error) {
	if s := c.String("to"); s != "" {
		return parseAddress(clientt, s)
	}
	return f.GetRecipient(c.Context, id)
}

func streamIDArg(c *cli.Context, n int) (*big.Int, error) {
	if err := requireArgs(c, n); err != nil {
		return nil, err
	}
	return parseStreamID(c.Args().Get(0))
}

func flowStatus(c *cli.Context) error {
	id, err := streamIDArg(c, 1)
	if err != nil {
		return err
	}
	_, flow, err := attachFlow(c)
	if err != nil {
		return err
	}
	status, err := flow.StatusOf(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to get status of stream %s: %w", id, err)
	}
	fmt.Printf("Stream %s status: %s\n", id, status)
	return nil
}

func flowBalance(c *cli.Context) error {
	id, err := streamIDArg(c, 1)
	if err != nil {
		return err
	}
	_, flow, err := attachFlow(c)
	if err != nil {
		return err
	}
	balance, err := flow.GetBalance(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to get balance of stream %s: %w", id, err)
	}
	_, info, err := streamToken(c.Context, flow, id)
	if err != nil {
		return err
	}
	printAmount(fmt.Sprintf("Stream %s balance:", id), balance, info.Decimals, info.Symbol)
	return nil
}

func flowInfo(c *cli.Context) error {
	id, err := streamIDArg(c, 1)
	if err != nil {
		return err
	}
	_, flow, err := attachFlow(c)
	if err != nil {
		return err
	}
	s, err := flow.Stream(c.Context, id)
	if err != nil {
		return err
	}
	_, info, err := streamToken(c.Context, flow, id)
	if err != nil {
		return err
	}

	fmt.Printf("Stream:            %s\n", s.ID)
	fmt.Printf("Status:            %s\n", s.Status)
	fmt.Printf("Sender:            %s\n", s.Sender.Hex())
	fmt.Printf("Recipient:         %s\n", s.Recipient.Hex())
	fmt.Printf("Token:             %s (%s)\n", s.Token.Hex(), info.Symbol)
	fmt.Printf("Rate per second:   %s (%s %s/s)\n", s.RatePerSecond, contracts.FormatUnits(s.RatePerSecond, contracts.RateDecimals), info.Symbol)
	printAmount("Balance:          ", s.Balance, info.Decimals, info.Symbol)
	printAmount("Total debt:       ", s.TotalDebt, info.Decimals, info.Symbol)
	printAmount("Covered debt:     ", s.CoveredDebt, info.Decimals, info.Symbol)
	printAmount("Uncovered debt:   ", s.UncoveredDebt, info.Decimals, info.Symbol)
	printAmount("Withdrawable:     ", s.WithdrawableAmount, info.Decimals, info.Symbol)
	printAmount("Refundable:       ", s.RefundableAmount, info.Decimals, info.Symbol)
	if s.DepletionTime != nil && s.DepletionTime.Sign() > 0 {
		fmt.Printf("Depletion time:    %s\n", time.Unix(s.DepletionTime.Int64(), 0).UTC().Format(time.RFC3339))
	}
	return nil
}

func flowNextID(c *cli.Context) error {
	_, flow, err := attachFlow(c)
	if err != nil {
		return err
	}
	id, err := flow.NextStreamID(c.Context)
	if err != nil {
		return fmt.Errorf("failed to get next stream id: %w", err)
	}
	fmt.Printf("Next stream id: %s\n", id)
	return nil
}

func flowCreate(c *cli.Context) error {
	cl, flow, err := attachFlow(c)
	if err != nil {
		return err
	}

	sender, err := cl.Signer(c.Int("signer"))
	if err != nil {
		return err
	}
	if s := c.String("sender"); s != "" {
		if sender, err = parseAddress(cl, s); err != nil {
			return err
		}
	}
	recipient, err := parseAddress(cl, c.String("recipient"))
	if err != nil {
		return err
	}

	var tokenAddr common.Address
	if s := c.String("token"); s != "" {
		tokenAddr, err = parseAddress(cl, s)
	} else {
		tokenAddr, err = lookupContract(string(contracts.KindToken))
	}
	if err != nil {
		return err
	}
	token, err := contracts.NewToken(tokenAddr, cl.Backend())
	if err != nil {
		return err
	}
	decimals := func() (uint8, error) { return token.Decimals(c.Context) }

	rate, err := parseRate(c, decimals)
	if err != nil {
		return err
	}

	var deposit *big.Int
	if c.Command.Name == "create-and-deposit" {
		if deposit, err = parseAmount(c, c.String("amount"), decimals); err != nil {
			return err
		}
	}

	fmt.Printf("Creating stream %s -> %s at %s/s\n", sender.Hex(), recipient.Hex(), rate)
	receipt, err := transact(c, cl, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		if deposit != nil {
			return flow.CreateAndDeposit(opts, sender, recipient, rate, tokenAddr, c.Bool("transferable"), deposit)
		}
		return flow.Create(opts, sender, recipient, rate, tokenAddr, c.Bool("transferable"))
	})
	if err != nil {
		return err
	}
	id, err := flow.StreamIDFromReceipt(receipt)
	if err != nil {
		return err
	}
	fmt.Printf("Stream id: %s\n", id)
	return nil
}

func flowDeposit(c *cli.Context) error {
	id, err := streamIDArg(c, 2)
	if err != nil {
		return err
	}
	cl, flow, err := attachFlow(c)
	if err != nil {
		return err
	}
	amount, err := parseAmount(c, c.Args().Get(1), func() (uint8, error) { return streamDecimals(c.Context, flow, id) })
	if err != nil {
		return err
	}
	sender, err := flow.GetSender(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to get stream sender: %w", err)
	}
	recipient, err := flow.GetRecipient(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to get stream recipient: %w", err)
	}

	fmt.Printf("Depositing %s into stream %s\n", amount, id)
	_, err = transact(c, cl, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return flow.Deposit(opts, id, amount, sender, recipient)
	})
	return err
}

// streamTx builds the action of a transaction taking a stream id followed by
// nargs-1 more arguments.
func streamTx(nargs int, send func(*contracts.Flow, *bind.TransactOpts, *cli.Context, *big.Int) (*types.Transaction, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		id, err := streamIDArg(c, nargs)
		if err != nil {
			return err
		}
		cl, flow, err := attachFlow(c)
		if err != nil {
			return err
		}
		fmt.Printf("%s stream %s\n", c.Command.Name, id)
		_, err = transact(c, cl, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return send(flow, opts, c, id)
		})
		if err != nil {
			return err
		}
		status, err := flow.StatusOf(c.Context, id)
		if err != nil {
			return fmt.Errorf("failed to get status of stream %s: %w", id, err)
		}
		fmt.Printf("Stream %s status: %s\n", id, status)
		return nil
	}
}

// versionAction prints myver() of the contract of kind.
func versionAction(kind contracts.Kind) cli.ActionFunc {
	return func(c *cli.Context) error {
		cl, err := connect(c)
		if err != nil {
			return err
		}
		addr, err := contractAddress(c, cl, kind)
		if err != nil {
			return err
		}
		parsed, err := contracts.ABI(kind)
		if err != nil {
			return err
		}
		ver, err := contracts.NewBound(addr, parsed, cl.Backend()).Version(c.Context)
		if err != nil {
			return fmt.Errorf("failed to read %s version: %w", kind, err)
		}
		fmt.Printf("%s %s\n", kind, addr.Hex())
		fmt.Printf("--> ver: %s\n", ver)
		return nil
	}
}
