package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Token is the MITCoin ERC-20 used as the streamed currency.
type Token struct {
	*Bound
}

// TokenInfo is the static description of a token.
type TokenInfo struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

func NewToken(address common.Address, backend bind.ContractBackend) (*Token, error) {
	parsedABI, err := ABI(KindToken)
	if err != nil {
		return nil, err
	}
	return &Token{Bound: NewBound(address, parsedABI, backend)}, nil
}

func (t *Token) Name(ctx context.Context) (string, error) {
	return t.callString(ctx, "name")
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	return t.callString(ctx, "symbol")
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	return t.callUint8(ctx, "decimals")
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "totalSupply")
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", account)
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callBig(ctx, "allowance", owner, spender)
}

func (t *Token) Owner(ctx context.Context) (common.Address, error) {
	return t.callAddress(ctx, "owner")
}

// Info reads name, symbol, decimals and total supply.
func (t *Token) Info(ctx context.Context) (*TokenInfo, error) {
	var (
		info TokenInfo
		err  error
	)
	if info.Name, err = t.Name(ctx); err != nil {
		return nil, err
	}
	if info.Symbol, err = t.Symbol(ctx); err != nil {
		return nil, err
	}
	if info.Decimals, err = t.Decimals(ctx); err != nil {
		return nil, err
	}
	if info.TotalSupply, err = t.TotalSupply(ctx); err != nil {
		return nil, err
	}
	return &info, nil
}

// Mint creates amount tokens for to. Only the token owner may mint.
func (t *Token) Mint(opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("mint amount must be positive")
	}
	return t.Transact(opts, "mint", to, amount)
}

func (t *Token) Transfer(opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.Transact(opts, "transfer", to, amount)
}

func (t *Token) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return t.Transact(opts, "approve", spender, amount)
}
