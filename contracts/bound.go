package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrTxReverted    = errors.New("transaction reverted")
	ErrUnknownMethod = errors.New("unknown contract method")
)

// Kind names one of the contract interfaces flowctl knows.
type Kind string

const (
	KindToken         Kind = "MITCoin"
	KindFlow          Kind = "MySablierFlow"
	KindNFTDescriptor Kind = "MyFlowNFTDesc"
	KindStreamCreator Kind = "FlowStreamCreator"
	KindEscrow        Kind = "MyEscrow"
)

var builtinABIs = map[Kind]string{
	KindToken:         MITCoinABI,
	KindFlow:          MySablierFlowABI,
	KindNFTDescriptor: MyFlowNFTDescABI,
	KindStreamCreator: FlowStreamCreatorABI,
	KindEscrow:        MyEscrowABI,
}

var (
	parsedMu sync.Mutex
	parsed   = map[Kind]abi.ABI{}
)

// Kinds lists the built-in contract kinds in deployment order.
func Kinds() []Kind {
	return []Kind{KindToken, KindNFTDescriptor, KindFlow, KindStreamCreator, KindEscrow}
}

// ParseKind matches a contract name case-insensitively.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(string(k), name) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown contract %q", name)
}

// ABI returns the parsed built-in ABI for kind.
func ABI(kind Kind) (abi.ABI, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()

	if a, ok := parsed[kind]; ok {
		return a, nil
	}
	raw, ok := builtinABIs[kind]
	if !ok {
		return abi.ABI{}, fmt.Errorf("no built-in ABI for %s", kind)
	}
	a, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse %s ABI: %w", kind, err)
	}
	parsed[kind] = a
	return a, nil
}

// SetABI replaces the ABI used for kind, typically with the one from a
// compiled artifact.
func SetABI(kind Kind, a abi.ABI) {
	parsedMu.Lock()
	defer parsedMu.Unlock()
	parsed[kind] = a
}

// Bound is a contract attached at an address through an ABI.
type Bound struct {
	address  common.Address
	abi      abi.ABI
	backend  bind.ContractBackend
	contract *bind.BoundContract
}

// NewBound attaches parsedABI at address.
func NewBound(address common.Address, parsedABI abi.ABI, backend bind.ContractBackend) *Bound {
	return &Bound{
		address:  address,
		abi:      parsedABI,
		backend:  backend,
		contract: bind.NewBoundContract(address, parsedABI, backend, backend, backend),
	}
}

// Address returns the contract address.
func (b *Bound) Address() common.Address { return b.address }

// Backend returns the backend the contract is attached through.
func (b *Bound) Backend() bind.ContractBackend { return b.backend }

// ABI returns the ABI the contract was attached with.
func (b *Bound) ABI() abi.ABI { return b.abi }

// Call invokes a constant method and returns its decoded outputs.
func (b *Bound) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if _, ok := b.abi.Methods[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

// Transact sends a transaction invoking method.
func (b *Bound) Transact(opts *bind.TransactOpts, method string, args ...interface{}) (*types.Transaction, error) {
	if _, ok := b.abi.Methods[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	tx, err := b.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return tx, nil
}

// Version calls myver(), which every custom contract exposes to identify its build.
func (b *Bound) Version(ctx context.Context) (string, error) {
	return b.callString(ctx, "myver")
}

func (b *Bound) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := b.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (b *Bound) callAddress(ctx context.Context, method string, args ...interface{}) (common.Address, error) {
	out, err := b.Call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (b *Bound) callBool(ctx context.Context, method string, args ...interface{}) (bool, error) {
	out, err := b.Call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (b *Bound) callString(ctx context.Context, method string, args ...interface{}) (string, error) {
	out, err := b.Call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (b *Bound) callUint8(ctx context.Context, method string, args ...interface{}) (uint8, error) {
	out, err := b.Call(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// Deploy creates a new contract from bytecode and constructor args.
func Deploy(opts *bind.TransactOpts, backend bind.ContractBackend, parsedABI abi.ABI, bytecode []byte, args ...interface{}) (common.Address, *types.Transaction, *Bound, error) {
	addr, tx, _, err := bind.DeployContract(opts, parsedABI, bytecode, backend, args...)
	if err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("deploy: %w", err)
	}
	return addr, tx, NewBound(addr, parsedABI, backend), nil
}
