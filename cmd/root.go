package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/config"
	"github.com/parthshah1/flowctl/contracts"
	"github.com/parthshah1/flowctl/logging"
)

var (
	cfg     *config.Config
	network string
	logger  = zap.NewNop()
	clientt *client.Client
)

// NewApp creates a new CLI app
func NewApp() *cli.App {
	app := &cli.App{
		Name:  "flowctl",
		Usage: "Deploy and drive Sablier Flow, MITCoin and escrow contracts over JSON-RPC",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Config file (default: ./flowctl.yaml or ~/.flowctl/flowctl.yaml)",
				EnvVars: []string{"FLOWCTL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: "Network to use (hardhat, localhost, opencbdc or any configured name)",
			},
			&cli.StringFlag{
				Name:  "rpc",
				Usage: "JSON-RPC URL, overrides the network url",
			},
			&cli.StringFlag{
				Name:  "workspace",
				Usage: "Workspace directory holding deployments.json",
			},
			&cli.Uint64Flag{
				Name:  "gas-limit",
				Usage: "Gas limit for transactions and deployments (0 = estimate)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Verbose output",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load(c.String("config"))
			if err != nil {
				return err
			}

			if c.IsSet("rpc") {
				cfg.RPC = c.String("rpc")
			}
			if c.IsSet("workspace") {
				cfg.Workspace = c.String("workspace")
			}
			if c.IsSet("gas-limit") {
				cfg.GasLimit = c.Uint64("gas-limit")
			}
			if c.IsSet("verbose") {
				cfg.Verbose = c.Bool("verbose")
			}
			// config keys are case-insensitive; records store the lowercase name
			network = strings.ToLower(cfg.DefaultNetwork)
			if c.IsSet("network") {
				network = strings.ToLower(c.String("network"))
			}

			logger, err = logging.New(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			loadArtifactABIs()
			checkBuildInfo()
			return nil
		},
		After: func(c *cli.Context) error {
			if clientt != nil {
				clientt.Close()
			}
			_ = logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			TokenCmd,
			FlowCmd,
			CreatorCmd,
			EscrowCmd,
			DeployCmd,
			ContractCmd,
			AccountsCmd,
			NetworkCmd,
			RunCmd,
		},
	}
	return app
}

func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect dials the selected network once per invocation.
func connect(c *cli.Context) (*client.Client, error) {
	if clientt != nil {
		return clientt, nil
	}
	cl, err := client.New(c.Context, cfg, network, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", network, err)
	}
	clientt = cl
	return clientt, nil
}

// loadArtifactABIs prefers the ABIs of compiled artifacts over the built-in ones.
func loadArtifactABIs() {
	if _, err := os.Stat(cfg.ArtifactsDir); err != nil {
		return
	}
	for _, kind := range contracts.Kinds() {
		art, err := config.LoadArtifact(cfg.ArtifactsDir, string(kind))
		if err != nil {
			logger.Debug("no artifact, using built-in ABI", zap.String("contract", string(kind)))
			continue
		}
		contracts.SetABI(kind, art.ABI)
		logger.Debug("loaded artifact ABI", zap.String("contract", string(kind)), zap.String("path", art.Path))
	}
}

// checkBuildInfo warns when the artifacts were compiled with other settings
// than the configured solidity block.
func checkBuildInfo() {
	mismatches, err := config.CheckBuildInfo(cfg.ArtifactsDir, cfg.Solidity)
	if err != nil {
		logger.Warn("failed to read build info", zap.Error(err))
		return
	}
	for _, m := range mismatches {
		logger.Warn("artifact compiler settings differ from config", zap.String("mismatch", m))
	}
}
