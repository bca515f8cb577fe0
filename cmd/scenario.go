package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/contracts"
	"github.com/parthshah1/flowctl/orchestrator"
)

var RunCmd = &cli.Command{
	Name:      "run",
	Usage:     "Run a YAML scenario of token, flow, creator and escrow tasks",
	ArgsUsage: "<scenario.yaml>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "list-types",
			Usage: "List the task types a scenario may use and exit",
		},
	},
	Action: runScenario,
}

func runScenario(c *cli.Context) error {
	if c.Bool("list-types") {
		o := orchestrator.New(logger)
		registerHandlers(o, nil)
		for _, t := range o.Types() {
			fmt.Println(t)
		}
		return nil
	}
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	scenario, err := orchestrator.LoadScenario(c.Args().First())
	if err != nil {
		return err
	}
	cl, err := connect(c)
	if err != nil {
		return err
	}

	o := orchestrator.New(logger)
	registerHandlers(o, cl)

	fmt.Printf("Running scenario %s (%d tasks)\n", scenario.Name, len(scenario.Tasks))
	results, err := o.Run(c.Context, scenario)
	for _, r := range results {
		state := "ok"
		if r.Error != nil {
			state = "FAILED: " + r.Error.Error()
		}
		fmt.Printf("  %-24s %-8s %v\n", r.TaskName, r.Duration.Round(1e6), state)
		for k, v := range r.Output {
			fmt.Printf("      %s = %v\n", k, v)
		}
	}
	return err
}

// taskRunner adapts the CLI building blocks to scenario task handlers.
type taskRunner struct {
	cl *client.Client
}

func registerHandlers(o *orchestrator.Orchestrator, cl *client.Client) {
	r := &taskRunner{cl: cl}
	o.Register("token.mint", orchestrator.HandlerFunc(r.tokenMint))
	o.Register("token.approve", orchestrator.HandlerFunc(r.tokenApprove))
	o.Register("flow.create", orchestrator.HandlerFunc(r.flowCreate))
	o.Register("flow.deposit", orchestrator.HandlerFunc(r.flowDeposit))
	o.Register("flow.pause", orchestrator.HandlerFunc(r.flowPause))
	o.Register("flow.restart", orchestrator.HandlerFunc(r.flowRestart))
	o.Register("flow.withdraw-max", orchestrator.HandlerFunc(r.flowWithdrawMax))
	o.Register("flow.status", orchestrator.HandlerFunc(r.flowStatus))
	o.Register("creator.create", orchestrator.HandlerFunc(r.creatorCreate))
	o.Register("escrow.approve", orchestrator.HandlerFunc(r.escrowApprove))
}

func paramString(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

func requireParam(params map[string]interface{}, key string) (string, error) {
	s, ok := paramString(params, key)
	if !ok || s == "" {
		return "", fmt.Errorf("missing param %s", key)
	}
	return s, nil
}

func paramInt(params map[string]interface{}, key string, def int) (int, error) {
	s, ok := paramString(params, key)
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return i, nil
}

func (r *taskRunner) address(params map[string]interface{}, key string, def func() (common.Address, error)) (common.Address, error) {
	s, ok := paramString(params, key)
	if !ok || s == "" {
		if def == nil {
			return common.Address{}, fmt.Errorf("missing param %s", key)
		}
		return def()
	}
	return parseAddress(r.cl, s)
}

func (r *taskRunner) bigParam(params map[string]interface{}, key string) (*big.Int, error) {
	s, err := requireParam(params, key)
	if err != nil {
		return nil, err
	}
	return parseBigInt(s)
}

// send signs with the task's signer param and waits for the receipt.
func (r *taskRunner) send(ctx context.Context, params map[string]interface{}, defSigner int, build func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	signer, err := paramInt(params, "signer", defSigner)
	if err != nil {
		return nil, err
	}
	opts, err := r.cl.TransactOpts(ctx, signer, nil)
	if err != nil {
		return nil, err
	}
	tx, err := build(opts)
	if err != nil {
		return nil, err
	}
	return r.cl.WaitMined(ctx, tx)
}

func txOutput(receipt *types.Receipt) map[string]interface{} {
	return map[string]interface{}{
		"tx":    receipt.TxHash.Hex(),
		"block": receipt.BlockNumber.Uint64(),
	}
}

func (r *taskRunner) token() (*contracts.Token, error) {
	addr, err := lookupContract(string(contracts.KindToken))
	if err != nil {
		return nil, err
	}
	return contracts.NewToken(addr, r.cl.Backend())
}

func (r *taskRunner) flow() (*contracts.Flow, error) {
	addr, err := lookupContract(string(contracts.KindFlow))
	if err != nil {
		return nil, err
	}
	return contracts.NewFlow(addr, r.cl.Backend())
}

func (r *taskRunner) tokenMint(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	token, err := r.token()
	if err != nil {
		return nil, err
	}
	to, err := r.address(params, "to", nil)
	if err != nil {
		return nil, err
	}
	amount, err := r.bigParam(params, "amount")
	if err != nil {
		return nil, err
	}
	receipt, err := r.send(ctx, params, 0, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return token.Mint(opts, to, amount)
	})
	if err != nil {
		return nil, err
	}
	return txOutput(receipt), nil
}

func (r *taskRunner) tokenApprove(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	token, err := r.token()
	if err != nil {
		return nil, err
	}
	spender, err := r.address(params, "spender", func() (common.Address, error) {
		return lookupContract(string(contracts.KindFlow))
	})
	if err != nil {
		return nil, err
	}
	amount, err := r.bigParam(params, "amount")
	if err != nil {
		return nil, err
	}
	receipt, err := r.send(ctx, params, 0, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return token.Approve(opts, spender, amount)
	})
	if err != nil {
		return nil, err
	}
	return txOutput(receipt), nil
}

func (r *taskRunner) flowCreate(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	flow, err := r.flow()
	if err != nil {
		return nil, err
	}
	signerIdx, err := paramInt(params, "signer", 0)
	if err != nil {
		return nil, err
	}
	sender, err := r.address(params, "sender", func() (common.Address, error) { return r.cl.Signer(signerIdx) })
	if err != nil {
		return nil, err
	}
	recipient, err := r.address(params, "recipient", func() (common.Address, error) { return r.cl.Signer(1) })
	if err != nil {
		return nil, err
	}
	token, err := r.address(params, "token", func() (common.Address, error) {
		return lookupContract(string(contracts.KindToken))
	})
	if err != nil {
		return nil, err
	}
	rate, err := r.bigParam(params, "rate")
	if err != nil {
		return nil, err
	}
	transferable := true
	if s, ok := paramString(params, "transferable"); ok {
		if transferable, err = strconv.ParseBool(s); err != nil {
			return nil, fmt.Errorf("param transferable: %w", err)
		}
	}
	var deposit *big.Int
	if _, ok := params["amount"]; ok {
		if deposit, err = r.bigParam(params, "amount"); err != nil {
			return nil, err
		}
	}

	receipt, err := r.send(ctx, params, 0, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		if deposit != nil {
			return flow.CreateAndDeposit(opts, sender, recipient, rate, token, transferable, deposit)
		}
		return flow.Create(opts, sender, recipient, rate, token, transferable)
	})
	if err != nil {
		return nil, err
	}
	id, err := flow.StreamIDFromReceipt(receipt)
	if err != nil {
		return nil, err
	}
	out := txOutput(receipt)
	out["streamId"] = id.String()
	return out, nil
}

func (r *taskRunner) streamParam(params map[string]interface{}) (*big.Int, error) {
	s, err := requireParam(params, "streamId")
	if err != nil {
		return nil, err
	}
	return parseStreamID(s)
}

func (r *taskRunner) flowDeposit(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	flow, err := r.flow()
	if err != nil {
		return nil, err
	}
	id, err := r.streamParam(params)
	if err != nil {
		return nil, err
	}
	amount, err := r.bigParam(params, "amount")
	if err != nil {
		return nil, err
	}
	sender, err := flow.GetSender(ctx, id)
	if err != nil {
		return nil, err
	}
	recipient, err := flow.GetRecipient(ctx, id)
	if err != nil {
		return nil, err
	}
	receipt, err := r.send(ctx, params, 0, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return flow.Deposit(opts, id, amount, sender, recipient)
	})
	if err != nil {
		return nil, err
	}
	return txOutput(receipt), nil
}

func (r *taskRunner) flowPause(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	flow, err := r.flow()
	if err != nil {
		return nil, err
	}
	id, err := r.streamParam(params)
	if err != nil {
		return nil, err
	}
	receipt, err := r.send(ctx, params, 0, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return flow.Pause(opts, id)
	})
	if err != nil {
		return nil, err
	}
	return txOutput(receipt), nil
}

func (r *taskRunner) flowRestart(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	flow, err := r.flow()
	if err != nil {
		return nil, err
	}
	id, err := r.streamParam(params)
	if err != nil {
		return nil, err
	}
	rate, err := r.bigParam(params, "rate")
	if err != nil {
		return nil, err
	}
	receipt, err := r.send(ctx, params, 0, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return flow.Restart(opts, id, rate)
	})
	if err != nil {
		return nil, err
	}
	return txOutput(receipt), nil
}

func (r *taskRunner) flowWithdrawMax(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	flow, err := r.flow()
	if err != nil {
		return nil, err
	}
	id, err := r.streamParam(params)
	if err != nil {
		return nil, err
	}
	to, err := r.address(params, "to", func() (common.Address, error) { return flow.GetRecipient(ctx, id) })
	if err != nil {
		return nil, err
	}
	receipt, err := r.send(ctx, params, 0, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return flow.WithdrawMax(opts, id, to)
	})
	if err != nil {
		return nil, err
	}
	return txOutput(receipt), nil
}

func (r *taskRunner) flowStatus(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	flow, err := r.flow()
	if err != nil {
		return nil, err
	}
	id, err := r.streamParam(params)
	if err != nil {
		return nil, err
	}
	status, err := flow.StatusOf(ctx, id)
	if err != nil {
		return nil, err
	}
	balance, err := flow.GetBalance(ctx, id)
	if err != nil {
		return nil, err
	}
	if want, ok := paramString(params, "expect"); ok && want != status.String() {
		return nil, fmt.Errorf("stream %s is %s, expected %s", id, status, want)
	}
	return map[string]interface{}{
		"status":  status.String(),
		"balance": balance.String(),
	}, nil
}

func (r *taskRunner) creatorCreate(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	addr, err := lookupContract(string(contracts.KindStreamCreator))
	if err != nil {
		return nil, err
	}
	cr, err := contracts.NewStreamCreator(addr, r.cl.Backend())
	if err != nil {
		return nil, err
	}
	rate, err := r.bigParam(params, "rate")
	if err != nil {
		return nil, err
	}
	var deposit *big.Int
	if _, ok := params["amount"]; ok {
		if deposit, err = r.bigParam(params, "amount"); err != nil {
			return nil, err
		}
	}
	receipt, err := r.send(ctx, params, 0, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		if deposit != nil {
			return cr.CreateAndDepositFlowStream(opts, rate, deposit)
		}
		return cr.CreateFlowStream(opts, rate)
	})
	if err != nil {
		return nil, err
	}
	id, err := cr.StreamIDFromReceipt(receipt)
	if err != nil {
		return nil, err
	}
	out := txOutput(receipt)
	out["streamId"] = id.String()
	return out, nil
}

func (r *taskRunner) escrowApprove(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	addr, err := r.address(params, "escrow", func() (common.Address, error) {
		return lookupContract(string(contracts.KindEscrow))
	})
	if err != nil {
		return nil, err
	}
	e, err := contracts.NewEscrow(addr, r.cl.Backend())
	if err != nil {
		return nil, err
	}
	receipt, err := r.send(ctx, params, 1, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return e.Approve(opts)
	})
	if err != nil {
		return nil, err
	}
	return txOutput(receipt), nil
}
