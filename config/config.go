package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// DefaultGasLimit is the gas limit the deployment scripts have always passed to
// every deployment and transaction. A zero limit asks the node to estimate.
const DefaultGasLimit uint64 = 29888000

var (
	ErrUnknownNetwork   = errors.New("unknown network")
	ErrContractNotFound = errors.New("contract not found")
)

// Config holds all configuration for flowctl
type Config struct {
	DefaultNetwork string             `mapstructure:"default_network"`
	Networks       map[string]Network `mapstructure:"networks"`
	Solidity       SolidityConfig     `mapstructure:"solidity"`

	// Contracts maps contract names to addresses and wins over deployment records.
	Contracts map[string]string `mapstructure:"contracts"`

	// Overrides applied to whichever network is selected
	RPC      string   `mapstructure:"rpc_url"`
	Accounts []string `mapstructure:"accounts"`

	GasLimit       uint64        `mapstructure:"gas_limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`

	ArtifactsDir string `mapstructure:"artifacts_dir"`
	Workspace    string `mapstructure:"workspace"`

	Verbose bool `mapstructure:"verbose"`
}

// Network describes one JSON-RPC endpoint and the signers used against it.
type Network struct {
	URL                        string   `mapstructure:"url"`
	ChainID                    int64    `mapstructure:"chain_id"`
	Accounts                   []string `mapstructure:"accounts"`
	AllowUnlimitedContractSize bool     `mapstructure:"allow_unlimited_contract_size"`
}

// SolidityConfig mirrors the compiler settings the artifacts were built with.
type SolidityConfig struct {
	Version   string          `mapstructure:"version"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
}

type OptimizerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Runs    int  `mapstructure:"runs"`
}

// Pre-minted PArSEC accounts. The second key signs for escrow arbiters and
// stream receivers.
var opencbdcAccounts = []string{
	"32a49a8408806e7a2862bca482c7aabd27e846f673edc8fb0000000000000000",
	"be2f701456a4254d517a8898c3ab9c56ddecee892b418c3b1be384d405d155b4",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_network", "opencbdc")
	v.SetDefault("networks", map[string]any{
		"hardhat": map[string]any{
			"allow_unlimited_contract_size": true,
		},
		"localhost": map[string]any{
			"url":                           "http://127.0.0.1:8545",
			"allow_unlimited_contract_size": true,
		},
		"opencbdc": map[string]any{
			// PArSEC agent node endpoint
			"url":      "http://127.0.0.1:8888/",
			"accounts": opencbdcAccounts,
		},
	})
	v.SetDefault("solidity.version", "0.8.24")
	v.SetDefault("solidity.optimizer.enabled", true)
	v.SetDefault("solidity.optimizer.runs", 200)
	v.SetDefault("gas_limit", DefaultGasLimit)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("receipt_timeout", 5*time.Minute)
	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("artifacts_dir", "./artifacts")
	v.SetDefault("workspace", "./workspace")
	v.SetDefault("verbose", false)
}

// Load builds the configuration from defaults, an optional config file and the
// environment. An empty path searches for flowctl.yaml in the usual places.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("flowctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".flowctl"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("FLOWCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"default_network": {"FLOWCTL_NETWORK"},
		"rpc_url":         {"FLOWCTL_RPC_URL", "RPC_URL"},
		"accounts":        {"FLOWCTL_ACCOUNTS", "PRIVATE_KEYS"},
		"gas_limit":       {"FLOWCTL_GAS_LIMIT", "DEFAULT_GAS_LIMIT"},
		"receipt_timeout": {"FLOWCTL_RECEIPT_TIMEOUT", "CONTRACT_TIMEOUT"},
		"verbose":         {"FLOWCTL_VERBOSE", "VERBOSE"},
		// Hardhat config vars used by the creator-only deployment
		"contracts.mitcoin":       {"MITCOIN_CONTRACT_ADDR"},
		"contracts.mysablierflow": {"MYSABLIERFLOW_CONTRACT_ADDR"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// NetworkNames returns the configured network names, sorted.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Network returns the named network with the RPC and account overrides applied.
// An empty name selects the default network.
func (c *Config) Network(name string) (Network, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	n, ok := c.Networks[strings.ToLower(name)]
	if !ok {
		return Network{}, fmt.Errorf("%w: %s (configured: %s)", ErrUnknownNetwork, name, strings.Join(c.NetworkNames(), ", "))
	}
	if c.RPC != "" {
		n.URL = c.RPC
	}
	if len(c.Accounts) > 0 {
		n.Accounts = c.Accounts
	}
	return n, nil
}

// Validate checks that the named network can be dialed and its keys parse.
func (c *Config) Validate(name string) error {
	n, err := c.Network(name)
	if err != nil {
		return err
	}
	if n.URL == "" {
		return fmt.Errorf("network %s has no url; the in-process hardhat network cannot be reached over RPC", name)
	}
	for i, k := range n.Accounts {
		if _, err := ParsePrivateKey(k); err != nil {
			return fmt.Errorf("network %s account %d: %w", name, i, err)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ReceiptTimeout <= 0 {
		return fmt.Errorf("receipt_timeout must be positive")
	}
	return nil
}

// ContractAddress looks up a configured contract address by name.
func (c *Config) ContractAddress(name string) (common.Address, bool) {
	for k, addr := range c.Contracts {
		if strings.EqualFold(k, name) && common.IsHexAddress(addr) {
			return common.HexToAddress(addr), true
		}
	}
	return common.Address{}, false
}
