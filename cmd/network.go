package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/config"
)

var NetworkCmd = &cli.Command{
	Name:  "network",
	Usage: "Network and compiler configuration",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List configured networks",
			Action: listNetworks,
		},
		{
			Name:   "show",
			Usage:  "Show the selected network, its chain id and latest block",
			Action: showNetwork,
		},
	},
}

func listNetworks(c *cli.Context) error {
	for _, name := range cfg.NetworkNames() {
		n, err := cfg.Network(name)
		if err != nil {
			return err
		}
		marker := " "
		if name == network {
			marker = "*"
		}
		url := n.URL
		if url == "" {
			url = "(in-process)"
		}
		fmt.Printf("%s %-12s %s  accounts=%d\n", marker, name, url, len(n.Accounts))
	}
	return nil
}

func showNetwork(c *cli.Context) error {
	cl, err := connect(c)
	if err != nil {
		return err
	}
	n, err := cfg.Network(network)
	if err != nil {
		return err
	}
	head, err := cl.Backend().BlockNumber(c.Context)
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}

	fmt.Printf("Network:        %s\n", network)
	fmt.Printf("URL:            %s\n", n.URL)
	fmt.Printf("Chain ID:       %s\n", cl.ChainID())
	fmt.Printf("Latest block:   %d\n", head)
	fmt.Printf("Signers:        %d\n", len(cl.Signers()))
	fmt.Printf("Gas limit:      %d\n", cfg.GasLimit)
	fmt.Printf("Unlimited size: %t\n", n.AllowUnlimitedContractSize)
	fmt.Printf("Solidity:       %s (optimizer %t, runs %d)\n", cfg.Solidity.Version, cfg.Solidity.Optimizer.Enabled, cfg.Solidity.Optimizer.Runs)
	if mismatches, err := config.CheckBuildInfo(cfg.ArtifactsDir, cfg.Solidity); err != nil {
		fmt.Printf("Build info:     unreadable (%v)\n", err)
	} else {
		for _, m := range mismatches {
			fmt.Printf("Build info:     %s\n", m)
		}
	}
	fmt.Printf("Artifacts:      %s\n", cfg.ArtifactsDir)
	fmt.Printf("Workspace:      %s\n", cfg.Workspace)
	return nil
}
