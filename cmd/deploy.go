package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/parthshah1/flowctl/config"
	"github.com/parthshah1/flowctl/contracts"
	"github.com/parthshah1/flowctl/deploy"
)

var DeployCmd = &cli.Command{
	Name:  "deploy",
	Usage: "One-shot deployment scripts; addresses are recorded in <workspace>/deployments.json",
	Subcommands: []*cli.Command{
		{
			Name:   "mitcoin",
			Usage:  "Deploy the MITCoin token",
			Action: deployMITCoin,
		},
		{
			Name:   "flow",
			Usage:  "Deploy MITCoin, MyFlowNFTDesc, MySablierFlow and FlowStreamCreator",
			Action: deployFlow,
		},
		{
			Name:  "creator",
			Usage: "Deploy FlowStreamCreator only, reusing MySablierFlow and MITCoin",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "flow",
					Usage:   "MySablierFlow address (default: configured or recorded)",
					EnvVars: []string{"MYSABLIERFLOW_CONTRACT_ADDR"},
				},
				&cli.StringFlag{
					Name:    "token",
					Usage:   "MITCoin address (default: configured or recorded)",
					EnvVars: []string{"MITCOIN_CONTRACT_ADDR"},
				},
				&cli.StringFlag{
					Name:  "recipient",
					Usage: "Stream recipient when the creator takes one",
					Value: "signer1",
				},
			},
			Action: deployCreator,
		},
		{
			Name:  "escrow",
			Usage: "Deploy MyEscrow with signer0 as buyer and signer1 as arbiter",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "seller",
					Usage: "Seller address",
					Value: deploy.DefaultSeller.Hex(),
				},
			},
			Action: deployEscrow,
		},
		{
			Name:      "plan",
			Usage:     "Deploy the contracts of a JSON plan in dependency order",
			ArgsUsage: "<plan.json>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "skip-existing",
					Usage: "Skip contracts already recorded on this network",
				},
			},
			Action: deployPlan,
		},
	},
}

func newManager(c *cli.Context) (*deploy.Manager, error) {
	cl, err := connect(c)
	if err != nil {
		return nil, err
	}
	return deploy.NewManager(cl, logger), nil
}

func deployMITCoin(c *cli.Context) error {
	m, err := newManager(c)
	if err != nil {
		return err
	}
	_, err = m.MITCoin(c.Context)
	return err
}

func deployFlow(c *cli.Context) error {
	m, err := newManager(c)
	if err != nil {
		return err
	}
	_, err = m.Flow(c.Context)
	return err
}

func deployCreator(c *cli.Context) error {
	m, err := newManager(c)
	if err != nil {
		return err
	}

	resolve := func(flag string, kind contracts.Kind) (common.Address, error) {
		if s := c.String(flag); s != "" {
			return parseAddress(clientt, s)
		}
		return lookupContract(string(kind))
	}
	flow, err := resolve("flow", contracts.KindFlow)
	if err != nil {
		return err
	}
	token, err := resolve("token", contracts.KindToken)
	if err != nil {
		return err
	}
	recipient, err := parseAddress(clientt, c.String("recipient"))
	if err != nil {
		return err
	}
	signer, err := clientt.Signer(0)
	if err != nil {
		return err
	}

	fmt.Printf("--> Deploying with signer0: %s\n", signer.Hex())
	fmt.Printf("--> Flow stream receiver: %s\n", recipient.Hex())
	_, err = m.Creator(c.Context, flow, token, recipient)
	return err
}

func deployEscrow(c *cli.Context) error {
	m, err := newManager(c)
	if err != nil {
		return err
	}
	seller, err := parseAddress(clientt, c.String("seller"))
	if err != nil {
		return err
	}
	_, err = m.Escrow(c.Context, seller)
	return err
}

func deployPlan(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	plan, err := config.LoadDeploymentPlan(c.Args().First())
	if err != nil {
		return err
	}
	m, err := newManager(c)
	if err != nil {
		return err
	}
	deployed, err := m.RunPlan(c.Context, plan, c.Bool("skip-existing"))
	if err != nil {
		return err
	}

	fmt.Println(separator)
	for _, dc := range deployed {
		fmt.Printf("%-20s %s\n", dc.Name, dc.Address.Hex())
	}
	fmt.Println(separator)
	return nil
}
