package deploy

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/config"
	"github.com/parthshah1/flowctl/contracts"
)

const separator = "-------------------------------------------------------------------"

// Manager deploys Hardhat artifacts and records the results in the workspace.
type Manager struct {
	client       *client.Client
	artifactsDir string
	recordsPath  string
	log          *zap.Logger

	// Out receives the progress lines the deployment scripts print.
	Out io.Writer
}

// Options tune a single deployment.
type Options struct {
	// Artifact overrides the artifact name; defaults to the contract name.
	Artifact string
	Signer   int
	GasLimit *uint64
	Value    *big.Int
}

// DeployedContract is the outcome of one deployment.
type DeployedContract struct {
	Name     string
	Address  common.Address
	TxHash   common.Hash
	Deployer common.Address
	Version  string
	ABI      abi.ABI
	Receipt  *types.Receipt
}

func NewManager(cl *client.Client, log *zap.Logger) *Manager {
	cfg := cl.Config()
	return &Manager{
		client:       cl,
		artifactsDir: cfg.ArtifactsDir,
		recordsPath:  config.DeploymentsPath(cfg.Workspace),
		log:          log,
		Out:          os.Stdout,
	}
}

func (m *Manager) printf(format string, args ...interface{}) {
	fmt.Fprintf(m.Out, format, args...)
}

// Artifact loads the compiled artifact of a contract.
func (m *Manager) Artifact(name string) (*config.Artifact, error) {
	art, err := config.LoadArtifact(m.artifactsDir, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %s: %w", name, err)
	}
	return art, nil
}

// Deploy deploys contract name with constructor args, waits for the receipt,
// reads myver() when the contract has it and records the deployment.
func (m *Manager) Deploy(ctx context.Context, name string, opts Options, args ...interface{}) (*DeployedContract, error) {
	artifactName := opts.Artifact
	if artifactName == "" {
		artifactName = name
	}
	art, err := m.Artifact(artifactName)
	if err != nil {
		return nil, err
	}
	code, err := art.Code()
	if err != nil {
		return nil, err
	}
	if len(args) != len(art.ABI.Constructor.Inputs) {
		return nil, fmt.Errorf("%s constructor takes %d argument(s), got %d", name, len(art.ABI.Constructor.Inputs), len(args))
	}

	auth, err := m.client.TransactOpts(ctx, opts.Signer, opts.GasLimit)
	if err != nil {
		return nil, err
	}
	if opts.Value != nil {
		auth.Value = opts.Value
	}

	m.log.Debug("deploying",
		zap.String("contract", name),
		zap.String("artifact", art.Path),
		zap.Uint64("gasLimit", auth.GasLimit),
		zap.Int("args", len(args)))

	addr, tx, bound, err := contracts.Deploy(auth, m.client.Backend(), art.ABI, code, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy %s: %w", name, err)
	}
	receipt, err := m.client.WaitDeployed(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%s deployment: %w", name, err)
	}

	dc := &DeployedContract{
		Name:     name,
		Address:  addr,
		TxHash:   tx.Hash(),
		Deployer: auth.From,
		ABI:      art.ABI,
		Receipt:  receipt,
	}
	if _, ok := art.ABI.Methods["myver"]; ok {
		ver, err := bound.Version(ctx)
		if err != nil {
			m.log.Warn("failed to read version", zap.String("contract", name), zap.Error(err))
		}
		dc.Version = ver
	}

	if err := m.record(dc); err != nil {
		m.printf("Warning: failed to save deployment record: %v\n", err)
	}
	return dc, nil
}

func (m *Manager) record(dc *DeployedContract) error {
	return config.SaveDeploymentRecord(m.recordsPath, config.DeploymentRecord{
		Name:       dc.Name,
		Address:    dc.Address.Hex(),
		Network:    m.client.Network(),
		ChainID:    m.client.ChainID().Int64(),
		Deployer:   dc.Deployer.Hex(),
		TxHash:     dc.TxHash.Hex(),
		Version:    dc.Version,
		DeployedAt: time.Now().UTC(),
	})
}

// Records returns the deployment records of the workspace.
func (m *Manager) Records() ([]config.DeploymentRecord, error) {
	return config.LoadDeploymentRecords(m.recordsPath)
}

// RunPlan deploys a plan in dependency order and runs each contract's
// post-deployment actions. Contracts already recorded on the network are
// skipped when skipExisting is set.
func (m *Manager) RunPlan(ctx context.Context, plan *config.DeploymentPlan, skipExisting bool) ([]*DeployedContract, error) {
	order, err := config.GetDeploymentOrder(plan.Contracts)
	if err != nil {
		return nil, err
	}

	var deployed []*DeployedContract
	for i, cc := range order {
		records, err := m.Records()
		if err != nil {
			return deployed, err
		}
		if skipExisting {
			if rec, err := config.FindDeployment(records, cc.Name, m.client.Network()); err == nil {
				m.printf("[%d/%d] %s already deployed at %s, skipping\n", i+1, len(order), cc.Name, rec.Address)
				continue
			}
		}
		if err := config.ValidateDependencies(cc, records, m.client.Network()); err != nil {
			return deployed, fmt.Errorf("%s: %w", cc.Name, err)
		}

		m.printf("[%d/%d] Deploying %s ...\n", i+1, len(order), cc.Name)
		dc, err := m.deployPlanned(ctx, cc, records)
		if err != nil {
			return deployed, err
		}
		m.printf("%s address: %s\n", cc.Name, dc.Address.Hex())
		if dc.Version != "" {
			m.printf("--> ver: %s\n", dc.Version)
		}

		if err := m.runPostDeployment(ctx, cc, dc); err != nil {
			return deployed, err
		}
		deployed = append(deployed, dc)
	}
	return deployed, nil
}

func (m *Manager) deployPlanned(ctx context.Context, cc config.ContractConfig, records []config.DeploymentRecord) (*DeployedContract, error) {
	art, err := m.Artifact(cc.ArtifactName())
	if err != nil {
		return nil, err
	}
	resolved, err := config.ResolveDependencies(cc.ConstructorArgs, records, m.client.Network(), m.client.Signers())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cc.Name, err)
	}
	args, err := config.ConvertArguments(resolved, art.ABI.Constructor.Inputs)
	if err != nil {
		return nil, fmt.Errorf("%s constructor: %w", cc.Name, err)
	}

	opts := Options{Artifact: cc.ArtifactName(), Signer: cc.Signer, GasLimit: cc.GasLimit}
	if cc.Value != "" {
		v, ok := new(big.Int).SetString(cc.Value, 10)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("%s: invalid value %q", cc.Name, cc.Value)
		}
		opts.Value = v
	}
	return m.Deploy(ctx, cc.Name, opts, args...)
}

func (m *Manager) runPostDeployment(ctx context.Context, cc config.ContractConfig, dc *DeployedContract) error {
	if len(cc.PostDeployment) == 0 {
		return nil
	}
	bound := contracts.NewBound(dc.Address, dc.ABI, m.client.Backend())

	for _, action := range cc.PostDeployment {
		method, ok := dc.ABI.Methods[action.Method]
		if !ok {
			return fmt.Errorf("%s post-deployment: %w: %s", cc.Name, contracts.ErrUnknownMethod, action.Method)
		}
		records, err := m.Records()
		if err != nil {
			return err
		}
		resolved, err := config.ResolveDependencies(action.Args, records, m.client.Network(), m.client.Signers())
		if err != nil {
			return fmt.Errorf("%s.%s: %w", cc.Name, action.Method, err)
		}
		args, err := config.ConvertArguments(resolved, method.Inputs)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", cc.Name, action.Method, err)
		}

		desc := action.Description
		if desc == "" {
			desc = action.Method
		}
		m.printf("  -> %s\n", desc)

		auth, err := m.client.TransactOpts(ctx, cc.Signer, cc.GasLimit)
		if err != nil {
			return err
		}
		tx, err := bound.Transact(auth, action.Method, args...)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", cc.Name, action.Method, err)
		}
		if _, err := m.client.WaitMined(ctx, tx); err != nil {
			return fmt.Errorf("%s.%s: %w", cc.Name, action.Method, err)
		}
		m.log.Debug("post-deployment action done", zap.String("contract", cc.Name), zap.String("method", action.Method), zap.String("tx", tx.Hash().Hex()))
	}
	return nil
}
