package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Escrow is the three-party MyEscrow contract: the buyer deposits, the arbiter
// approves, and approval releases the balance to the seller.
type Escrow struct {
	*Bound
}

// EscrowInfo describes the parties and state of an escrow.
type EscrowInfo struct {
	Buyer    common.Address
	Seller   common.Address
	Arbiter  common.Address
	Approved bool
}

func NewEscrow(address common.Address, backend bind.ContractBackend) (*Escrow, error) {
	parsedABI, err := ABI(KindEscrow)
	if err != nil {
		return nil, err
	}
	return &Escrow{Bound: NewBound(address, parsedABI, backend)}, nil
}

func (e *Escrow) Info(ctx context.Context) (*EscrowInfo, error) {
	var (
		info EscrowInfo
		err  error
	)
	if info.Buyer, err = e.callAddress(ctx, "buyer"); err != nil {
		return nil, err
	}
	if info.Seller, err = e.callAddress(ctx, "seller"); err != nil {
		return nil, err
	}
	if info.Arbiter, err = e.callAddress(ctx, "arbiter"); err != nil {
		return nil, err
	}
	if info.Approved, err = e.callBool(ctx, "isApproved"); err != nil {
		return nil, err
	}
	return &info, nil
}

// Deposit sends value wei into escrow; opts.Value is overwritten.
func (e *Escrow) Deposit(opts *bind.TransactOpts, value *big.Int) (*types.Transaction, error) {
	o := *opts
	o.Value = value
	return e.Transact(&o, "deposit")
}

// Approve releases the escrowed balance to the seller. Arbiter only.
func (e *Escrow) Approve(opts *bind.TransactOpts) (*types.Transaction, error) {
	return e.Transact(opts, "approve")
}
