package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/config"
	"github.com/parthshah1/flowctl/contracts"
)

var ContractCmd = &cli.Command{
	Name:  "contract",
	Usage: "Inspect recorded deployments and call arbitrary contract methods",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List recorded deployments",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "all",
					Usage: "Include deployments on other networks",
				},
			},
			Action: listDeployments,
		},
		{
			Name:      "info",
			Usage:     "Show the deployment record of a contract",
			ArgsUsage: "<name>",
			Action:    getDeploymentInfo,
		},
		{
			Name:      "version",
			Usage:     "Print myver() of a contract",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "address",
					Usage: "Contract address (default: configured or recorded)",
				},
			},
			Action: contractVersion,
		},
		{
			Name:      "call",
			Usage:     "Call a contract method",
			ArgsUsage: "<contract> <method> [args...]",
			Description: "<contract> is a known contract name (MITCoin, MySablierFlow, ...) or an address.\n" +
				"Known contracts are called through their ABI; plain addresses need --types.",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "types",
					Usage: "Argument types for ABI-less calls (comma-separated: address,uint256,bool,string)",
				},
				&cli.BoolFlag{
					Name:  "transaction",
					Usage: "Send as transaction (for state-changing functions)",
				},
				&cli.StringFlag{
					Name:  "value",
					Usage: "Wei to send with the transaction",
				},
				signerFlag(),
			},
			Action: callContractMethod,
		},
	},
}

func listDeployments(c *cli.Context) error {
	records, err := config.LoadDeploymentRecords(config.DeploymentsPath(cfg.Workspace))
	if err != nil {
		return fmt.Errorf("failed to load deployments: %w", err)
	}

	var shown []config.DeploymentRecord
	for _, r := range records {
		if c.Bool("all") || r.Network == network {
			shown = append(shown, r)
		}
	}
	if len(shown) == 0 {
		fmt.Printf("No deployments found on %s.\n", network)
		return nil
	}

	fmt.Printf("Found %d deployed contracts:\n\n", len(shown))
	for i, d := range shown {
		fmt.Printf("%d. %s\n", i+1, d.Name)
		fmt.Printf("   Address:  %s\n", d.Address)
		fmt.Printf("   Network:  %s (chain %d)\n", d.Network, d.ChainID)
		fmt.Printf("   TX Hash:  %s\n", d.TxHash)
		fmt.Printf("   Deployer: %s\n", d.Deployer)
		if d.Version != "" {
			fmt.Printf("   Version:  %s\n", d.Version)
		}
		fmt.Println()
	}
	return nil
}

func getDeploymentInfo(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	records, err := config.LoadDeploymentRecords(config.DeploymentsPath(cfg.Workspace))
	if err != nil {
		return fmt.Errorf("failed to load deployments: %w", err)
	}
	d, err := config.FindDeployment(records, c.Args().First(), network)
	if err != nil {
		return fmt.Errorf("failed to get deployment info: %w", err)
	}

	fmt.Printf("Contract: %s\n", d.Name)
	fmt.Printf("Address: %s\n", d.Address)
	fmt.Printf("Network: %s (chain %d)\n", d.Network, d.ChainID)
	fmt.Printf("Transaction Hash: %s\n", d.TxHash)
	fmt.Printf("Deployer Address: %s\n", d.Deployer)
	if d.Version != "" {
		fmt.Printf("Version: %s\n", d.Version)
	}
	fmt.Printf("Deployed At: %s\n", d.DeployedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func contractVersion(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	kind, err := contracts.ParseKind(c.Args().First())
	if err != nil {
		return err
	}
	return versionAction(kind)(c)
}

// contractABI returns the ABI and address for a contract reference, or ok=false
// when the reference is a bare address with no known ABI.
func contractABI(ref string) (common.Address, abi.ABI, bool, error) {
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), abi.ABI{}, false, nil
	}
	kind, err := contracts.ParseKind(ref)
	if err != nil {
		return common.Address{}, abi.ABI{}, false, fmt.Errorf("%s is neither an address nor a known contract", ref)
	}
	addr, err := lookupContract(string(kind))
	if err != nil {
		return common.Address{}, abi.ABI{}, false, err
	}
	parsed, err := contracts.ABI(kind)
	if err != nil {
		return common.Address{}, abi.ABI{}, false, err
	}
	return addr, parsed, true, nil
}

func callContractMethod(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: %s %s", c.Command.HelpName, c.Command.ArgsUsage)
	}
	cl, err := connect(c)
	if err != nil {
		return err
	}
	addr, parsed, hasABI, err := contractABI(c.Args().Get(0))
	if err != nil {
		return err
	}
	methodName := c.Args().Get(1)
	args := c.Args().Slice()[2:]
	for i, a := range args {
		if idx, ok := config.SignerIndex(a); ok {
			signer, err := cl.Signer(idx)
			if err != nil {
				return err
			}
			args[i] = signer.Hex()
		}
	}

	if hasABI {
		return callWithABI(c, addr, parsed, methodName, args)
	}

	var typeNames []string
	if s := c.String("types"); s != "" {
		typeNames = strings.Split(s, ",")
		for i, t := range typeNames {
			typeNames[i] = strings.TrimSpace(t)
		}
	}
	converted, err := contracts.ConvertRawArguments(args, typeNames)
	if err != nil {
		return fmt.Errorf("failed to convert arguments: %w", err)
	}

	raw := contracts.NewRawCaller(cl.Backend(), addr, cl.ChainID())
	if c.Bool("transaction") {
		key, err := cl.PrivateKey(c.Int("signer"))
		if err != nil {
			return err
		}
		tx, err := raw.SendTransaction(c.Context, methodName, converted, key, cfg.GasLimit)
		if err != nil {
			return fmt.Errorf("failed to send transaction: %w", err)
		}

		fmt.Printf("Transaction sent successfully!\n")
		fmt.Printf("Method: %s(%s)\n", methodName, contracts.MethodSignature(converted))
		fmt.Printf("Transaction Hash: %s\n", tx.Hash().Hex())
		fmt.Printf("Gas Limit: %d\n", tx.Gas())
		fmt.Printf("Gas Price: %s\n", tx.GasPrice().String())
		receipt, err := cl.WaitMined(c.Context, tx)
		if err != nil {
			return err
		}
		fmt.Printf("Mined in block %d (gas used %d)\n", receipt.BlockNumber.Uint64(), receipt.GasUsed)
		return nil
	}

	result, err := raw.CallMethod(c.Context, methodName, converted)
	if err != nil {
		return fmt.Errorf("failed to call contract method: %w", err)
	}
	fmt.Printf("Method: %s(%s)\n", methodName, contracts.MethodSignature(converted))
	fmt.Printf("Result: 0x%x\n", result)
	return nil
}

func callWithABI(c *cli.Context, addr common.Address, parsed abi.ABI, methodName string, args []string) error {
	method, ok := parsed.Methods[methodName]
	if !ok {
		return fmt.Errorf("%w: %s", contracts.ErrUnknownMethod, methodName)
	}
	converted, err := config.ConvertArguments(args, method.Inputs)
	if err != nil {
		return fmt.Errorf("failed to convert arguments: %w", err)
	}
	bound := contracts.NewBound(addr, parsed, clientt.Backend())

	if method.IsConstant() && !c.Bool("transaction") {
		out, err := bound.Call(c.Context, methodName, converted...)
		if err != nil {
			return fmt.Errorf("failed to call contract method: %w", err)
		}
		fmt.Printf("Method: %s\n", method.Sig)
		for i, v := range out {
			name := method.Outputs[i].Name
			if name == "" {
				name = fmt.Sprintf("out%d", i)
			}
			fmt.Printf("  %s: %v\n", name, v)
		}
		return nil
	}

	var value *big.Int
	if s := c.String("value"); s != "" {
		if value, err = parseBigInt(s); err != nil {
			return err
		}
	}
	fmt.Printf("Method: %s\n", method.Sig)
	_, err = transact(c, clientt, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		if value != nil {
			opts.Value = value
		}
		return bound.Transact(opts, methodName, converted...)
	})
	return err
}
