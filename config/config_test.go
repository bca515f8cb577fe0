package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hardhatKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "opencbdc", cfg.DefaultNetwork)
	assert.Equal(t, DefaultGasLimit, cfg.GasLimit)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.ReceiptTimeout)
	assert.Equal(t, "0.8.24", cfg.Solidity.Version)
	assert.True(t, cfg.Solidity.Optimizer.Enabled)
	assert.Equal(t, 200, cfg.Solidity.Optimizer.Runs)
	assert.Equal(t, []string{"hardhat", "localhost", "opencbdc"}, cfg.NetworkNames())

	n, err := cfg.Network("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8888/", n.URL)
	assert.Len(t, n.Accounts, 2)

	local, err := cfg.Network("localhost")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", local.URL)
	assert.True(t, local.AllowUnlimitedContractSize)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flowctl.yaml", `
default_network: anvil
networks:
  anvil:
    url: http://127.0.0.1:8545
    chain_id: 31337
    accounts:
      - `+hardhatKey0+`
gas_limit: 5000000
receipt_timeout: 45s
contracts:
  MITCoin: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anvil", cfg.DefaultNetwork)
	assert.Equal(t, uint64(5000000), cfg.GasLimit)
	assert.Equal(t, 45*time.Second, cfg.ReceiptTimeout)

	n, err := cfg.Network("anvil")
	require.NoError(t, err)
	assert.Equal(t, int64(31337), n.ChainID)
	assert.Equal(t, []string{hardhatKey0}, n.Accounts)

	addr, ok := cfg.ContractAddress("mitcoin")
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), addr)

	_, ok = cfg.ContractAddress("MyEscrow")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RPC_URL", "http://10.0.0.1:8545")
	t.Setenv("DEFAULT_GAS_LIMIT", "1000000")
	t.Setenv("MITCOIN_CONTRACT_ADDR", "0x5FbDB2315678afecb367f032d93F642f64180aa3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, uint64(1000000), cfg.GasLimit)
	n, err := cfg.Network("localhost")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8545", n.URL)

	_, ok := cfg.ContractAddress("MITCoin")
	assert.True(t, ok)
}

func TestNetworkUnknown(t *testing.T) {
	cfg := &Config{Networks: map[string]Network{"localhost": {URL: "http://x"}}}
	_, err := cfg.Network("mainnet")
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Networks: map[string]Network{
				"hardhat":   {},
				"localhost": {URL: "http://127.0.0.1:8545", Accounts: []string{hardhatKey0}},
				"broken":    {URL: "http://127.0.0.1:8545", Accounts: []string{"0x1234"}},
			},
			Timeout:        time.Second,
			ReceiptTimeout: time.Second,
		}
	}

	assert.NoError(t, base().Validate("localhost"))
	assert.Error(t, base().Validate("hardhat"), "in-process network has no url")
	assert.Error(t, base().Validate("broken"))
	assert.ErrorIs(t, base().Validate("nope"), ErrUnknownNetwork)

	cfg := base()
	cfg.ReceiptTimeout = 0
	assert.Error(t, cfg.Validate("localhost"))
}

func TestParsePrivateKey(t *testing.T) {
	key, err := ParsePrivateKey("0x" + hardhatKey0)
	require.NoError(t, err)
	assert.NotNil(t, key)

	_, err = ParsePrivateKey("zz")
	assert.Error(t, err)
	_, err = ParsePrivateKey("abcd")
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
