// Package clienttest builds clients on an in-memory chain.
package clienttest

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/config"
)

// Network is the name simulated clients report.
const Network = "simulated"

// Keys are the first Hardhat development accounts, funded at genesis.
var Keys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
}

// autoCommit mines a block after every sent transaction so receipts are
// available on the first poll.
type autoCommit struct {
	simulated.Client
	sim *simulated.Backend
}

func (a *autoCommit) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := a.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	a.sim.Commit()
	return nil
}

// Config returns settings suitable for the simulated chain, with artifacts
// and deployment records under dir.
func Config(dir string) *config.Config {
	return &config.Config{
		GasLimit:       3_000_000,
		Timeout:        5 * time.Second,
		ReceiptTimeout: 10 * time.Second,
		PollInterval:   10 * time.Millisecond,
		ArtifactsDir:   dir,
		Workspace:      dir,
	}
}

// New starts a simulated chain with Keys funded and returns a client signing
// with them. A nil cfg uses Config(t.TempDir()).
func New(t testing.TB, cfg *config.Config) (*client.Client, *simulated.Backend) {
	t.Helper()

	balance := new(big.Int).Mul(big.NewInt(1000), big.NewInt(params.Ether))
	alloc := types.GenesisAlloc{}
	for _, k := range Keys {
		key, err := config.ParsePrivateKey(k)
		require.NoError(t, err)
		alloc[crypto.PubkeyToAddress(key.PublicKey)] = types.Account{Balance: balance}
	}

	sim := simulated.NewBackend(alloc, simulated.WithBlockGasLimit(30_000_000))
	t.Cleanup(func() { sim.Close() })

	if cfg == nil {
		cfg = Config(t.TempDir())
	}
	cl, err := client.NewWithBackend(context.Background(), &autoCommit{Client: sim.Client(), sim: sim}, cfg, Network, Keys, nil, zap.NewNop())
	require.NoError(t, err)
	return cl, sim
}
