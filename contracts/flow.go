package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FlowStatus mirrors Flow.Status in the Sablier Flow contract (same ordinals).
type FlowStatus uint8

const (
	StatusPending FlowStatus = iota
	StatusStreamingSolvent
	StatusStreamingInsolvent
	StatusPausedSolvent
	StatusPausedInsolvent
	StatusVoided
)

func (s FlowStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusStreamingSolvent:
		return "STREAMING_SOLVENT"
	case StatusStreamingInsolvent:
		return "STREAMING_INSOLVENT"
	case StatusPausedSolvent:
		return "PAUSED_SOLVENT"
	case StatusPausedInsolvent:
		return "PAUSED_INSOLVENT"
	case StatusVoided:
		return "VOIDED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// Flow is the MySablierFlow contract holding every stream.
type Flow struct {
	*Bound
}

// Stream is a snapshot of everything the Flow contract reports about one stream.
type Stream struct {
	ID                 *big.Int
	Status             FlowStatus
	Sender             common.Address
	Recipient          common.Address
	Token              common.Address
	RatePerSecond      *big.Int
	Balance            *big.Int
	TotalDebt          *big.Int
	CoveredDebt        *big.Int
	UncoveredDebt      *big.Int
	WithdrawableAmount *big.Int
	RefundableAmount   *big.Int
	// DepletionTime is zero when the stream is paused or already insolvent.
	DepletionTime *big.Int
}

func NewFlow(address common.Address, backend bind.ContractBackend) (*Flow, error) {
	parsedABI, err := ABI(KindFlow)
	if err != nil {
		return nil, err
	}
	return &Flow{Bound: NewBound(address, parsedABI, backend)}, nil
}

func (f *Flow) NextStreamID(ctx context.Context) (*big.Int, error) {
	return f.callBig(ctx, "nextStreamId")
}

func (f *Flow) StatusOf(ctx context.Context, streamID *big.Int) (FlowStatus, error) {
	s, err := f.callUint8(ctx, "statusOf", streamID)
	return FlowStatus(s), err
}

func (f *Flow) GetBalance(ctx context.Context, streamID *big.Int) (*big.Int, error) {
	return f.callBig(ctx, "getBalance", streamID)
}

func (f *Flow) GetRatePerSecond(ctx context.Context, streamID *big.Int) (*big.Int, error) {
	return f.callBig(ctx, "getRatePerSecond", streamID)
}

func (f *Flow) GetRecipient(ctx context.Context, streamID *big.Int) (common.Address, error) {
	return f.callAddress(ctx, "getRecipient", streamID)
}

func (f *Flow) GetSender(ctx context.Context, streamID *big.Int) (common.Address, error) {
	return f.callAddress(ctx, "getSender", streamID)
}

func (f *Flow) GetToken(ctx context.Context, streamID *big.Int) (common.Address, error) {
	return f.callAddress(ctx, "getToken", streamID)
}

func (f *Flow) TotalDebtOf(ctx context.Context, streamID *big.Int) (*big.Int, error) {
	return f.callBig(ctx, "totalDebtOf", streamID)
}

func (f *Flow) CoveredDebtOf(ctx context.Context, streamID *big.Int) (*big.Int, error) {
	return f.callBig(ctx, "coveredDebtOf", streamID)
}

func (f *Flow) UncoveredDebtOf(ctx context.Context, streamID *big.Int) (*big.Int, error) {
	return f.callBig(ctx, "uncoveredDebtOf", streamID)
}

func (f *Flow) WithdrawableAmountOf(ctx context.Context, streamID *big.Int) (*big.Int, error) {
	return f.callBig(ctx, "withdrawableAmountOf", streamID)
}

func (f *Flow) RefundableAmountOf(ctx context.Context, streamID *big.Int) (*big.Int, error) {
	return f.callBig(ctx, "refundableAmountOf", streamID)
}

func (f *Flow) DepletionTimeOf(ctx context.Context, streamID *big.Int) (*big.Int, error) {
	return f.callBig(ctx, "depletionTimeOf", streamID)
}

func (f *Flow) IsPaused(ctx context.Context, streamID *big.Int) (bool, error) {
	return f.callBool(ctx, "isPaused", streamID)
}

func (f *Flow) IsVoided(ctx context.Context, streamID *big.Int) (bool, error) {
	return f.callBool(ctx, "isVoided", streamID)
}

func (f *Flow) IsStream(ctx context.Context, streamID *big.Int) (bool, error) {
	return f.callBool(ctx, "isStream", streamID)
}

// Stream collects the full view of a stream. depletionTimeOf reverts for
// paused streams in some Flow releases, so its failure leaves DepletionTime zero.
func (f *Flow) Stream(ctx context.Context, streamID *big.Int) (*Stream, error) {
	ok, err := f.IsStream(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("stream %s does not exist", streamID)
	}

	s := &Stream{ID: new(big.Int).Set(streamID)}
	if s.Status, err = f.StatusOf(ctx, streamID); err != nil {
		return nil, err
	}
	if s.Sender, err = f.GetSender(ctx, streamID); err != nil {
		return nil, err
	}
	if s.Recipient, err = f.GetRecipient(ctx, streamID); err != nil {
		return nil, err
	}
	if s.Token, err = f.GetToken(ctx, streamID); err != nil {
		return nil, err
	}
	if s.RatePerSecond, err = f.GetRatePerSecond(ctx, streamID); err != nil {
		return nil, err
	}
	if s.Balance, err = f.GetBalance(ctx, streamID); err != nil {
		return nil, err
	}
	if s.TotalDebt, err = f.TotalDebtOf(ctx, streamID); err != nil {
		return nil, err
	}
	if s.CoveredDebt, err = f.CoveredDebtOf(ctx, streamID); err != nil {
		return nil, err
	}
	if s.UncoveredDebt, err = f.UncoveredDebtOf(ctx, streamID); err != nil {
		return nil, err
	}
	if s.WithdrawableAmount, err = f.WithdrawableAmountOf(ctx, streamID); err != nil {
		return nil, err
	}
	if s.RefundableAmount, err = f.RefundableAmountOf(ctx, streamID); err != nil {
		return nil, err
	}
	if s.DepletionTime, err = f.DepletionTimeOf(ctx, streamID); err != nil {
		s.DepletionTime = new(big.Int)
	}
	return s, nil
}

func (f *Flow) Create(opts *bind.TransactOpts, sender, recipient common.Address, ratePerSecond *big.Int, token common.Address, transferable bool) (*types.Transaction, error) {
	return f.Transact(opts, "create", sender, recipient, ratePerSecond, token, transferable)
}

func (f *Flow) CreateAndDeposit(opts *bind.TransactOpts, sender, recipient common.Address, ratePerSecond *big.Int, token common.Address, transferable bool, amount *big.Int) (*types.Transaction, error) {
	return f.Transact(opts, "createAndDeposit", sender, recipient, ratePerSecond, token, transferable, amount)
}

func (f *Flow) Deposit(opts *bind.TransactOpts, streamID, amount *big.Int, sender, recipient common.Address) (*types.Transaction, error) {
	return f.Transact(opts, "deposit", streamID, amount, sender, recipient)
}

func (f *Flow) Pause(opts *bind.TransactOpts, streamID *big.Int) (*types.Transaction, error) {
	return f.Transact(opts, "pause", streamID)
}

func (f *Flow) Restart(opts *bind.TransactOpts, streamID, ratePerSecond *big.Int) (*types.Transaction, error) {
	return f.Transact(opts, "restart", streamID, ratePerSecond)
}

func (f *Flow) AdjustRatePerSecond(opts *bind.TransactOpts, streamID, newRatePerSecond *big.Int) (*types.Transaction, error) {
	return f.Transact(opts, "adjustRatePerSecond", streamID, newRatePerSecond)
}

func (f *Flow) Withdraw(opts *bind.TransactOpts, streamID *big.Int, to common.Address, amount *big.Int) (*types.Transaction, error) {
	return f.Transact(opts, "withdraw", streamID, to, amount)
}

func (f *Flow) WithdrawMax(opts *bind.TransactOpts, streamID *big.Int, to common.Address) (*types.Transaction, error) {
	return f.Transact(opts, "withdrawMax", streamID, to)
}

func (f *Flow) Refund(opts *bind.TransactOpts, streamID, amount *big.Int) (*types.Transaction, error) {
	return f.Transact(opts, "refund", streamID, amount)
}

func (f *Flow) RefundMax(opts *bind.TransactOpts, streamID *big.Int) (*types.Transaction, error) {
	return f.Transact(opts, "refundMax", streamID)
}

func (f *Flow) Void(opts *bind.TransactOpts, streamID *big.Int) (*types.Transaction, error) {
	return f.Transact(opts, "void", streamID)
}

// StreamIDFromReceipt returns the id of the stream created in receipt.
func (f *Flow) StreamIDFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	return streamIDFromLogs(receipt, f.abi.Events["CreateFlowStream"].ID, &f.address)
}

// streamIDFromLogs finds the first CreateFlowStream log, optionally restricted
// to one emitter. streamId is the first, non-indexed, data word.
func streamIDFromLogs(receipt *types.Receipt, topic common.Hash, emitter *common.Address) (*big.Int, error) {
	if receipt == nil {
		return nil, fmt.Errorf("nil receipt")
	}
	for _, l := range receipt.Logs {
		if len(l.Topics) == 0 || l.Topics[0] != topic {
			continue
		}
		if emitter != nil && l.Address != *emitter {
			continue
		}
		if len(l.Data) < 32 {
			return nil, fmt.Errorf("malformed CreateFlowStream log in tx %s", receipt.TxHash.Hex())
		}
		return new(big.Int).SetBytes(l.Data[:32]), nil
	}
	return nil, fmt.Errorf("no CreateFlowStream event in tx %s", receipt.TxHash.Hex())
}
