package cmd

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/config"
	"github.com/parthshah1/flowctl/contracts"
)

const separator = "-------------------------------------------------------------------"

func signerFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "signer",
		Usage: "Index of the signing account",
		Value: 0,
	}
}

func addressFlag(kind contracts.Kind) cli.Flag {
	return &cli.StringFlag{
		Name:  "address",
		Usage: fmt.Sprintf("%s address (default: configured or recorded deployment)", kind),
	}
}

func unitsFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "units",
		Usage: "Read amounts as decimal token amounts (e.g. 1.5) instead of base units",
	}
}

// contractAddress resolves a contract from the --address flag, the config
// contracts map or the deployment records, in that order.
func contractAddress(c *cli.Context, cl *client.Client, kind contracts.Kind) (common.Address, error) {
	if s := c.String("address"); s != "" {
		return parseAddress(cl, s)
	}
	return lookupContract(string(kind))
}

func lookupContract(name string) (common.Address, error) {
	if addr, ok := cfg.ContractAddress(name); ok {
		return addr, nil
	}
	records, err := config.LoadDeploymentRecords(config.DeploymentsPath(cfg.Workspace))
	if err != nil {
		return common.Address{}, err
	}
	record, err := config.FindDeployment(records, name, network)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w (pass --address, set contracts.%s in config or deploy it first)", err, strings.ToLower(name))
	}
	return common.HexToAddress(record.Address), nil
}

// parseAddress accepts a hex address or a signerN alias.
func parseAddress(cl *client.Client, s string) (common.Address, error) {
	if idx, ok := config.SignerIndex(s); ok {
		if cl == nil {
			return common.Address{}, fmt.Errorf("%s needs a network connection", s)
		}
		return cl.Signer(idx)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %s", s)
	}
	return common.HexToAddress(s), nil
}

func parseStreamID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.Sign() <= 0 {
		return nil, fmt.Errorf("invalid stream id: %s", s)
	}
	return id, nil
}

func parseBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid number: %s", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %s", s)
	}
	return v, nil
}

// parseAmount reads base units, or a decimal amount scaled by decimals when
// --units is set.
func parseAmount(c *cli.Context, s string, decimals func() (uint8, error)) (*big.Int, error) {
	if !c.Bool("units") {
		return parseBigInt(s)
	}
	d, err := decimals()
	if err != nil {
		return nil, fmt.Errorf("failed to read token decimals: %w", err)
	}
	return contracts.ParseUnits(s, d)
}

// parseRate reads --rate as a raw UD21x18 value, or --amount per --period.
func parseRate(c *cli.Context, tokenDecimals func() (uint8, error)) (*big.Int, error) {
	if s := c.String("rate"); s != "" {
		rate, err := parseBigInt(s)
		if err != nil {
			return nil, err
		}
		if rate.Sign() == 0 {
			return nil, fmt.Errorf("rate must be positive")
		}
		return rate, nil
	}
	if c.String("per-period") == "" {
		return nil, fmt.Errorf("either --rate or --per-period is required")
	}
	amount, err := parseAmount(c, c.String("per-period"), tokenDecimals)
	if err != nil {
		return nil, err
	}
	d, err := tokenDecimals()
	if err != nil {
		return nil, fmt.Errorf("failed to read token decimals: %w", err)
	}
	return contracts.RatePerSecond(amount, d, c.Duration("period"))
}

func rateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "rate",
			Usage: "Rate per second as an 18-decimal fixed point integer",
		},
		&cli.StringFlag{
			Name:  "per-period",
			Usage: "Amount streamed every --period, converted to a per-second rate",
		},
		&cli.DurationFlag{
			Name:  "period",
			Usage: "Period for --per-period",
			Value: 30 * 24 * time.Hour,
		},
	}
}

// transact signs with --signer, sends the transaction built by send and waits
// for its receipt.
func transact(c *cli.Context, cl *client.Client, send func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	opts, err := cl.TransactOpts(c.Context, c.Int("signer"), nil)
	if err != nil {
		return nil, err
	}
	tx, err := send(opts)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Tx: %s\n", tx.Hash().Hex())
	receipt, err := cl.WaitMined(c.Context, tx)
	if err != nil {
		if errors.Is(err, contracts.ErrTxReverted) {
			logger.Warn("transaction reverted", zap.String("tx", tx.Hash().Hex()))
		}
		return receipt, err
	}
	fmt.Printf("Mined in block %d (gas used %d)\n", receipt.BlockNumber.Uint64(), receipt.GasUsed)
	return receipt, nil
}

func printAmount(label string, v *big.Int, decimals uint8, symbol string) {
	fmt.Printf("%s %s (%s %s)\n", label, v.String(), contracts.FormatUnits(v, decimals), symbol)
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("expected %d argument(s), got %d; usage: %s %s", n, c.NArg(), c.Command.HelpName, c.Command.ArgsUsage)
	}
	return nil
}
