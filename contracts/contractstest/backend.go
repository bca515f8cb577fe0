// Package contractstest provides an in-memory contract backend for tests that
// need canned view results and a record of sent transactions.
package contractstest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Call is a decoded contract call or transaction.
type Call struct {
	To     common.Address
	Method string
	Args   []interface{}
	Value  *big.Int
}

// Backend answers CallContract from canned outputs keyed by method name and
// records every transaction sent through it.
type Backend struct {
	mu      sync.Mutex
	abis    []abi.ABI
	returns map[string][]interface{}
	errs    map[string]error

	Calls []Call
	Sent  []*types.Transaction
	Logs  []types.Log
	Head  uint64
	Code  []byte
}

// NewBackend decodes selectors with the given ABIs.
func NewBackend(abis ...abi.ABI) *Backend {
	return &Backend{
		abis:    abis,
		returns: make(map[string][]interface{}),
		errs:    make(map[string]error),
		Code:    []byte{0x60, 0x00},
		Head:    1,
	}
}

// Return sets the outputs of view method.
func (b *Backend) Return(method string, values ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.returns[method] = values
	delete(b.errs, method)
}

// Fail makes calls to method return err.
func (b *Backend) Fail(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[method] = err
}

func (b *Backend) method(data []byte) (*abi.Method, error) {
	if len(data) < 4 {
		return nil, errors.New("call data shorter than a selector")
	}
	for _, a := range b.abis {
		if m, err := a.MethodById(data[:4]); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown selector %x", data[:4])
}

// Decode unpacks call data into a Call.
func (b *Backend) Decode(to common.Address, data []byte) (Call, error) {
	m, err := b.method(data)
	if err != nil {
		return Call{}, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return Call{}, fmt.Errorf("unpack %s: %w", m.Name, err)
	}
	return Call{To: to, Method: m.Name, Args: args}, nil
}

// SentCall decodes the i-th sent transaction.
func (b *Backend) SentCall(i int) (Call, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= len(b.Sent) {
		return Call{}, fmt.Errorf("only %d transactions sent", len(b.Sent))
	}
	tx := b.Sent[i]
	var to common.Address
	if tx.To() != nil {
		to = *tx.To()
	}
	c, err := b.Decode(to, tx.Data())
	if err != nil {
		return Call{}, err
	}
	c.Value = tx.Value()
	return c, nil
}

func (b *Backend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return b.Code, nil
}

func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var to common.Address
	if call.To != nil {
		to = *call.To
	}
	c, err := b.Decode(to, call.Data)
	if err != nil {
		return nil, err
	}
	b.Calls = append(b.Calls, c)

	if err := b.errs[c.Method]; err != nil {
		return nil, err
	}
	values, ok := b.returns[c.Method]
	if !ok {
		return nil, fmt.Errorf("no result configured for %s", c.Method)
	}
	m, _ := b.method(call.Data)
	return m.Outputs.Pack(values...)
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: new(big.Int).SetUint64(b.Head)}, nil
}

func (b *Backend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.Code, nil
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.Sent)), nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Sent = append(b.Sent, tx)
	return nil
}

// FilterLogs returns the stored logs inside the query's block range and
// address set.
func (b *Backend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []types.Log
	for _, l := range b.Logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, l.Address) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func containsAddress(list []common.Address, a common.Address) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func (b *Backend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions not supported")
}

func (b *Backend) BlockNumber(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Head, nil
}
