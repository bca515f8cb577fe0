package monitor

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/parthshah1/flowctl/contracts"
)

// Flow events followed by a watch
const (
	EventCreate   = "CreateFlowStream"
	EventDeposit  = "DepositFlowStream"
	EventPause    = "PauseFlowStream"
	EventRestart  = "RestartFlowStream"
	EventAdjust   = "AdjustFlowStream"
	EventWithdraw = "WithdrawFromFlowStream"
	EventRefund   = "RefundFromFlowStream"
	EventVoid     = "VoidFlowStream"
)

var watchedEvents = []string{
	EventCreate, EventDeposit, EventPause, EventRestart,
	EventAdjust, EventWithdraw, EventRefund, EventVoid,
}

// Backend is what a watch needs from the node.
type Backend interface {
	bind.ContractBackend
	BlockNumber(ctx context.Context) (uint64, error)
}

// Monitor polls a MySablierFlow contract for stream events
type Monitor struct {
	backend Backend
	flow    *contracts.Flow
	abi     abi.ABI
	topics  []common.Hash
	log     *zap.Logger
	events  *EventLog

	// OnEvent, if set, is called for every decoded event in block order.
	OnEvent func(StreamEvent)
}

// New creates a monitor for the Flow contract at address.
func New(backend Backend, address common.Address, log *zap.Logger) (*Monitor, error) {
	flow, err := contracts.NewFlow(address, backend)
	if err != nil {
		return nil, err
	}
	m := &Monitor{
		backend: backend,
		flow:    flow,
		abi:     flow.ABI(),
		log:     log,
		events:  NewEventLog(),
	}
	for _, name := range watchedEvents {
		ev, ok := m.abi.Events[name]
		if !ok {
			return nil, fmt.Errorf("flow ABI has no %s event", name)
		}
		m.topics = append(m.topics, ev.ID)
	}
	return m, nil
}

// Events returns the collected event log.
func (m *Monitor) Events() *EventLog {
	return m.events
}

// Start polls every pollInterval until ctx is done. fromBlock 0 starts at
// the current head.
func (m *Monitor) Start(ctx context.Context, pollInterval time.Duration, fromBlock uint64) error {
	if pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	next := fromBlock
	if next == 0 {
		head, err := m.backend.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to get latest block: %w", err)
		}
		next = head + 1
	}
	m.log.Info("watching flow contract",
		zap.String("flow", m.flow.Address().Hex()),
		zap.Uint64("fromBlock", next))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("stopping watch", zap.Int("events", len(m.events.Events)))
			m.events.EmitFinalAssertions()
			return nil
		case <-ticker.C:
			head, err := m.backend.BlockNumber(ctx)
			if err != nil {
				m.log.Warn("error getting block number", zap.Error(err))
				continue
			}
			if head < next {
				continue
			}
			if _, err := m.Poll(ctx, next, head); err != nil {
				m.log.Warn("error polling logs", zap.Error(err))
				continue
			}
			next = head + 1
		}
	}
}

// Poll fetches, decodes and records the Flow events in [from, to].
func (m *Monitor) Poll(ctx context.Context, from, to uint64) ([]StreamEvent, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{m.flow.Address()},
		Topics:    [][]common.Hash{m.topics},
	}
	logs, err := m.backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter logs %d-%d: %w", from, to, err)
	}
	m.log.Debug("polled", zap.Uint64("from", from), zap.Uint64("to", to), zap.Int("logs", len(logs)))

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	var out []StreamEvent
	for _, l := range logs {
		ev, err := m.Decode(l)
		if err != nil {
			m.log.Warn("undecodable flow log", zap.String("tx", l.TxHash.Hex()), zap.Error(err))
			m.events.RecordDecodeFailure(DecodeFailure{
				BlockNumber: l.BlockNumber,
				TxHash:      l.TxHash.Hex(),
				Error:       err.Error(),
			})
			continue
		}
		m.events.Record(ev, m.streamExists(ctx, ev))
		if m.OnEvent != nil {
			m.OnEvent(ev)
		}
		out = append(out, ev)
	}
	return out, nil
}

// streamExists checks the log first and falls back to isStream for streams
// created before the watch started.
func (m *Monitor) streamExists(ctx context.Context, ev StreamEvent) bool {
	if ev.Name == EventCreate || m.events.Known(ev.StreamID) {
		return true
	}
	id, ok := new(big.Int).SetString(ev.StreamID, 10)
	if !ok {
		return false
	}
	exists, err := m.flow.IsStream(ctx, id)
	if err != nil {
		m.log.Debug("isStream failed", zap.String("streamId", ev.StreamID), zap.Error(err))
		return false
	}
	if exists {
		m.events.MarkKnown(ev.StreamID)
	}
	return exists
}

// Decode turns a Flow log into a StreamEvent.
func (m *Monitor) Decode(l types.Log) (StreamEvent, error) {
	if len(l.Topics) == 0 {
		return StreamEvent{}, fmt.Errorf("log has no topics")
	}
	event, err := m.abi.EventByID(l.Topics[0])
	if err != nil {
		return StreamEvent{}, err
	}

	values := make(map[string]interface{})
	if len(l.Data) > 0 {
		if err := m.abi.UnpackIntoMap(values, event.Name, l.Data); err != nil {
			return StreamEvent{}, fmt.Errorf("unpack %s: %w", event.Name, err)
		}
	}
	var indexed abi.Arguments
	for _, in := range event.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
		return StreamEvent{}, fmt.Errorf("parse %s topics: %w", event.Name, err)
	}

	id, ok := values["streamId"].(*big.Int)
	if !ok {
		return StreamEvent{}, fmt.Errorf("%s has no streamId", event.Name)
	}

	ev := StreamEvent{
		Name:        event.Name,
		StreamID:    id.String(),
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash.Hex(),
		LogIndex:    l.Index,
		Fields:      make(map[string]string, len(values)),
	}
	for k, v := range values {
		if k == "streamId" {
			continue
		}
		ev.Fields[k] = formatValue(v)
	}
	return ev, nil
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case *big.Int:
		return x.String()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	default:
		return fmt.Sprint(x)
	}
}
