package deploy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/parthshah1/flowctl/contracts"
)

// DefaultSeller is the escrow seller used when none is given.
var DefaultSeller = common.HexToAddress("0xE74D3B7eC9Ad1E2341abc69D22F2820B88d4D62b")

// FlowDeployment holds the four contracts of a Sablier Flow setup.
type FlowDeployment struct {
	Token         *DeployedContract
	NFTDescriptor *DeployedContract
	Flow          *DeployedContract
	Creator       *DeployedContract
	Recipient     common.Address
}

func (m *Manager) banner(label string, dc *DeployedContract) {
	m.printf("%s\n", separator)
	m.printf("%s %s\n", label, dc.Address.Hex())
	if dc.Version != "" {
		m.printf("--> ver: %s\n", dc.Version)
	}
	m.printf("%s\n", separator)
}

// MITCoin deploys the MITCoin token from signer0.
func (m *Manager) MITCoin(ctx context.Context) (*DeployedContract, error) {
	signer, err := m.client.Signer(0)
	if err != nil {
		return nil, err
	}
	m.printf("Deploying with account: %s\n", signer.Hex())

	dc, err := m.Deploy(ctx, string(contracts.KindToken), Options{})
	if err != nil {
		return nil, err
	}
	m.printf("MITCoin contract: %s\n", dc.Address.Hex())
	return dc, nil
}

// Flow deploys MITCoin, MyFlowNFTDesc, MySablierFlow and FlowStreamCreator in
// that order. Each contract's address feeds the constructors that follow.
func (m *Manager) Flow(ctx context.Context) (*FlowDeployment, error) {
	admin, err := m.client.Signer(0)
	if err != nil {
		return nil, err
	}
	recipient, err := m.client.Signer(1)
	if err != nil {
		return nil, fmt.Errorf("the flow deployment needs two signers: %w", err)
	}

	m.printf("--> Deploying with signer0: %s\n", admin.Hex())
	m.printf("--> Flow stream receiver is signer1: %s\n\n", recipient.Hex())

	out := &FlowDeployment{Recipient: recipient}

	m.printf("--> Deploying MITCoin ...\n")
	if out.Token, err = m.Deploy(ctx, string(contracts.KindToken), Options{}); err != nil {
		return nil, err
	}
	m.banner("MITCoin address:", out.Token)

	m.printf("\n--> Deploying MyFlowNFTDesc ...\n")
	if out.NFTDescriptor, err = m.Deploy(ctx, string(contracts.KindNFTDescriptor), Options{}); err != nil {
		return nil, err
	}
	m.banner("MyFlowNFTDesc contract:", out.NFTDescriptor)

	m.printf("\n--> Deploying MySablierFlow ...\n")
	if out.Flow, err = m.Deploy(ctx, string(contracts.KindFlow), Options{}, admin, out.NFTDescriptor.Address); err != nil {
		return nil, err
	}
	m.banner("MySablierFlow contract:", out.Flow)

	if out.Creator, err = m.Creator(ctx, out.Flow.Address, out.Token.Address, recipient); err != nil {
		return nil, err
	}
	return out, nil
}

// Creator deploys FlowStreamCreator against existing Flow and token contracts.
// Builds whose constructor also takes the stream recipient get recipient.
func (m *Manager) Creator(ctx context.Context, flow, token, recipient common.Address) (*DeployedContract, error) {
	name := string(contracts.KindStreamCreator)
	art, err := m.Artifact(name)
	if err != nil {
		return nil, err
	}

	args := []interface{}{flow, token}
	switch n := len(art.ABI.Constructor.Inputs); n {
	case 2:
	case 3:
		args = append(args, recipient)
	default:
		return nil, fmt.Errorf("unexpected %s constructor with %d inputs", name, n)
	}

	m.printf("\n--> Deploying FlowStreamCreator ...\n")
	dc, err := m.Deploy(ctx, name, Options{}, args...)
	if err != nil {
		return nil, err
	}
	m.banner("StreamCreator contract:", dc)
	return dc, nil
}

// Escrow deploys MyEscrow with signer0 as buyer and signer1 as arbiter.
func (m *Manager) Escrow(ctx context.Context, seller common.Address) (*DeployedContract, error) {
	buyer, err := m.client.Signer(0)
	if err != nil {
		return nil, err
	}
	arbiter, err := m.client.Signer(1)
	if err != nil {
		return nil, fmt.Errorf("the escrow deployment needs two signers: %w", err)
	}

	m.printf("Buyer addr:    %s\n", buyer.Hex())
	m.printf("Seller addr:   %s\n", seller.Hex())
	m.printf("Arbiter addr:  %s\n", arbiter.Hex())
	m.printf("Deploying Escrow contract with buyer signer: %s\n", buyer.Hex())

	dc, err := m.Deploy(ctx, string(contracts.KindEscrow), Options{}, buyer, seller, arbiter)
	if err != nil {
		return nil, err
	}
	m.printf("MyEscrow Contract Address: %s\n", dc.Address.Hex())
	return dc, nil
}
