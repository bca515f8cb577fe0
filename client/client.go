package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/parthshah1/flowctl/config"
	"github.com/parthshah1/flowctl/contracts"
)

// Backend is the part of an Ethereum node the client needs. *ethclient.Client
// and the simulated backend's client both satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Client wraps a JSON-RPC connection and the signers of one network
type Client struct {
	backend Backend
	cfg     *config.Config
	network string
	chainID *big.Int
	keys    []*ecdsa.PrivateKey
	signers []common.Address
	log     *zap.Logger
	closer  func()
}

// New dials the named network
func New(ctx context.Context, cfg *config.Config, network string, log *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if network == "" {
		network = cfg.DefaultNetwork
	}
	network = strings.ToLower(network)
	if err := cfg.Validate(network); err != nil {
		return nil, err
	}
	n, err := cfg.Network(network)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	log.Debug("dialing network", zap.String("network", network), zap.String("url", n.URL))
	eth, err := ethclient.DialContext(dialCtx, n.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s at %s: %w", network, n.URL, err)
	}

	var chainID *big.Int
	if n.ChainID != 0 {
		chainID = big.NewInt(n.ChainID)
	}

	c, err := NewWithBackend(dialCtx, eth, cfg, network, n.Accounts, chainID, log)
	if err != nil {
		eth.Close()
		return nil, err
	}
	c.closer = eth.Close
	return c, nil
}

// NewWithBackend builds a client on an existing backend. A nil chainID is
// fetched from the node.
func NewWithBackend(ctx context.Context, backend Backend, cfg *config.Config, network string, accounts []string, chainID *big.Int, log *zap.Logger) (*Client, error) {
	if chainID == nil {
		id, err := backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain ID: %w", err)
		}
		chainID = id
	}

	c := &Client{
		backend: backend,
		cfg:     cfg,
		network: network,
		chainID: chainID,
		log:     log,
	}
	for i, k := range accounts {
		key, err := config.ParsePrivateKey(k)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		c.keys = append(c.keys, key)
		c.signers = append(c.signers, crypto.PubkeyToAddress(key.PublicKey))
	}

	log.Debug("client ready",
		zap.String("network", network),
		zap.Stringer("chainId", chainID),
		zap.Int("signers", len(c.signers)))
	return c, nil
}

// Close closes the client connection
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Backend returns the node connection for binding contracts.
func (c *Client) Backend() Backend { return c.backend }

// Config returns the client configuration
func (c *Client) Config() *config.Config { return c.cfg }

// Network returns the selected network name.
func (c *Client) Network() string { return c.network }

// ChainID returns the chain id transactions are signed for.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Logger returns the client logger.
func (c *Client) Logger() *zap.Logger { return c.log }

// Signers returns the addresses of the configured accounts, signer0 first.
func (c *Client) Signers() []common.Address {
	out := make([]common.Address, len(c.signers))
	copy(out, c.signers)
	return out
}

// Signer returns the address of signer i.
func (c *Client) Signer(i int) (common.Address, error) {
	if i < 0 || i >= len(c.signers) {
		return common.Address{}, fmt.Errorf("signer%d not configured: network %s has %d account(s)", i, c.network, len(c.signers))
	}
	return c.signers[i], nil
}

// PrivateKey returns the key of signer i.
func (c *Client) PrivateKey(i int) (*ecdsa.PrivateKey, error) {
	if _, err := c.Signer(i); err != nil {
		return nil, err
	}
	return c.keys[i], nil
}

// TransactOpts builds signing options for signer i. A nil gasLimit uses the
// configured limit; zero lets the node estimate.
func (c *Client) TransactOpts(ctx context.Context, i int, gasLimit *uint64) (*bind.TransactOpts, error) {
	key, err := c.PrivateKey(i)
	if err != nil {
		return nil, err
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx
	auth.GasLimit = c.cfg.GasLimit
	if gasLimit != nil {
		auth.GasLimit = *gasLimit
	}
	return auth, nil
}

// WaitMined blocks until tx is mined or the receipt timeout passes.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReceiptTimeout)
	defer cancel()

	c.log.Debug("waiting for receipt", zap.String("tx", tx.Hash().Hex()))
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("no receipt for %s after %s: %w", tx.Hash().Hex(), c.cfg.ReceiptTimeout, err)
		}
		return nil, fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, fmt.Errorf("%w: %s (gas used %d)", contracts.ErrTxReverted, tx.Hash().Hex(), receipt.GasUsed)
	}
	c.log.Debug("transaction mined",
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
		zap.Uint64("gasUsed", receipt.GasUsed))
	return receipt, nil
}

// WaitDeployed waits for a contract creation and checks code landed at the address.
func (c *Client) WaitDeployed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := c.WaitMined(ctx, tx)
	if err != nil {
		return receipt, err
	}
	if receipt.ContractAddress == (common.Address{}) {
		return receipt, fmt.Errorf("tx %s is not a contract creation", tx.Hash().Hex())
	}
	code, err := c.backend.CodeAt(ctx, receipt.ContractAddress, nil)
	if err != nil {
		return receipt, fmt.Errorf("failed to read code at %s: %w", receipt.ContractAddress.Hex(), err)
	}
	if len(code) == 0 {
		return receipt, fmt.Errorf("no code at %s after deployment", receipt.ContractAddress.Hex())
	}
	return receipt, nil
}

// Balance returns the native balance of addr.
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := c.backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", addr.Hex(), err)
	}
	return bal, nil
}
