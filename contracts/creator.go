package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StreamCreator is the FlowStreamCreator wrapper contract. It owns the streams
// it creates on Flow, always paying in its configured token to its configured
// recipient.
type StreamCreator struct {
	*Bound
}

func NewStreamCreator(address common.Address, backend bind.ContractBackend) (*StreamCreator, error) {
	parsedABI, err := ABI(KindStreamCreator)
	if err != nil {
		return nil, err
	}
	return &StreamCreator{Bound: NewBound(address, parsedABI, backend)}, nil
}

func (c *StreamCreator) Flow(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "FLOW")
}

func (c *StreamCreator) Token(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "TOKEN")
}

func (c *StreamCreator) Recipient(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "recipient")
}

func (c *StreamCreator) CreateFlowStream(opts *bind.TransactOpts, ratePerSecond *big.Int) (*types.Transaction, error) {
	return c.Transact(opts, "createFlowStream", ratePerSecond)
}

func (c *StreamCreator) CreateAndDepositFlowStream(opts *bind.TransactOpts, ratePerSecond, amount *big.Int) (*types.Transaction, error) {
	return c.Transact(opts, "createAndDepositFlowStream", ratePerSecond, amount)
}

func (c *StreamCreator) DepositFlowStream(opts *bind.TransactOpts, streamID, amount *big.Int) (*types.Transaction, error) {
	return c.Transact(opts, "depositFlowStream", streamID, amount)
}

func (c *StreamCreator) PauseFlowStream(opts *bind.TransactOpts, streamID *big.Int) (*types.Transaction, error) {
	return c.Transact(opts, "pauseFlowStream", streamID)
}

func (c *StreamCreator) RestartFlowStream(opts *bind.TransactOpts, streamID, ratePerSecond *big.Int) (*types.Transaction, error) {
	return c.Transact(opts, "restartFlowStream", streamID, ratePerSecond)
}

func (c *StreamCreator) WithdrawFlowStream(opts *bind.TransactOpts, streamID, amount *big.Int) (*types.Transaction, error) {
	return c.Transact(opts, "withdrawFlowStream", streamID, amount)
}

func (c *StreamCreator) VoidFlowStream(opts *bind.TransactOpts, streamID *big.Int) (*types.Transaction, error) {
	return c.Transact(opts, "voidFlowStream", streamID)
}

// StreamIDFromReceipt reads the stream id from the creator's FlowStreamCreated
// event, falling back to the CreateFlowStream event Flow emits in the same tx.
func (c *StreamCreator) StreamIDFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	created := c.abi.Events["FlowStreamCreated"].ID
	if receipt != nil {
		for _, l := range receipt.Logs {
			if l.Address == c.address && len(l.Topics) > 1 && l.Topics[0] == created {
				return new(big.Int).SetBytes(l.Topics[1].Bytes()), nil
			}
		}
	}
	flowABI, err := ABI(KindFlow)
	if err != nil {
		return nil, err
	}
	return streamIDFromLogs(receipt, flowABI.Events["CreateFlowStream"].ID, nil)
}
