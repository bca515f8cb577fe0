package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/antithesishq/antithesis-sdk-go/assert"
)

var antithesisEnabled bool

// SetAntithesisMode turns the antithesis assertions on or off.
func SetAntithesisMode(enabled bool) {
	antithesisEnabled = enabled
}

func IsAntithesisEnabled() bool {
	return antithesisEnabled
}

func assertAlways(condition bool, message string, details map[string]any) {
	if antithesisEnabled {
		assert.Always(condition, message, details)
	}
}

func assertSometimes(condition bool, message string, details map[string]any) {
	if antithesisEnabled {
		assert.Sometimes(condition, message, details)
	}
}

func assertUnreachable(message string, details map[string]any) {
	if antithesisEnabled {
		assert.Unreachable(message, details)
	}
}

// StreamEvent is one decoded Flow event.
type StreamEvent struct {
	Name        string            `json:"name"`
	StreamID    string            `json:"streamId"`
	BlockNumber uint64            `json:"blockNumber"`
	TxHash      string            `json:"txHash"`
	LogIndex    uint              `json:"logIndex"`
	Fields      map[string]string `json:"fields"`
}

// DecodeFailure records a log that matched a Flow topic but did not decode.
type DecodeFailure struct {
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"txHash"`
	Error       string `json:"error"`
}

// EventLog collects the events seen by a watch and the streams they touch.
type EventLog struct {
	mu sync.RWMutex

	Events   []StreamEvent
	Failures []DecodeFailure

	// stream ids created during the watch or confirmed on chain
	known   map[string]bool
	orphans int

	StartTime   time.Time
	LastEventAt time.Time
}

func NewEventLog() *EventLog {
	return &EventLog{
		Events:    make([]StreamEvent, 0),
		Failures:  make([]DecodeFailure, 0),
		known:     make(map[string]bool),
		StartTime: time.Now(),
	}
}

// Known reports whether streamID was created or confirmed during the watch.
func (l *EventLog) Known(streamID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.known[streamID]
}

// MarkKnown records that streamID exists on chain.
func (l *EventLog) MarkKnown(streamID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.known[streamID] = true
}

// Record appends ev. exists says whether the stream was known to exist before
// this event; create events always make their stream known.
func (l *EventLog) Record(ev StreamEvent, exists bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ev.Name == EventCreate {
		exists = true
	}
	if exists {
		l.known[ev.StreamID] = true
	} else {
		l.orphans++
	}
	l.Events = append(l.Events, ev)
	l.LastEventAt = time.Now()

	assertAlways(exists, "flow_event_references_existing_stream", map[string]any{
		"event":       ev.Name,
		"streamId":    ev.StreamID,
		"blockNumber": ev.BlockNumber,
		"txHash":      ev.TxHash,
	})
}

// RecordDecodeFailure stores a log that could not be decoded.
func (l *EventLog) RecordDecodeFailure(f DecodeFailure) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Failures = append(l.Failures, f)
	assertUnreachable("flow_event_decodes", map[string]any{
		"blockNumber": f.BlockNumber,
		"txHash":      f.TxHash,
		"error":       f.Error,
	})
}

// Counts returns the number of events per event name.
func (l *EventLog) Counts() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int)
	for _, ev := range l.Events {
		counts[ev.Name]++
	}
	return counts
}

// Orphans is the number of events whose stream was not known to exist.
func (l *EventLog) Orphans() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.orphans
}

// EmitFinalAssertions emits the end-of-watch assertions.
func (l *EventLog) EmitFinalAssertions() {
	counts := l.Counts()

	l.mu.RLock()
	defer l.mu.RUnlock()

	assertSometimes(counts[EventCreate] > 0, "flow_stream_created", map[string]any{
		"message":      fmt.Sprintf("%d streams created during watch", counts[EventCreate]),
		"createCount":  counts[EventCreate],
		"testDuration": time.Since(l.StartTime).String(),
	})
	assertAlways(l.orphans == 0, "flow_events_reference_known_streams", map[string]any{
		"orphanCount": l.orphans,
		"eventCount":  len(l.Events),
	})
}

// Summary returns event totals for printing.
func (l *EventLog) Summary() map[string]any {
	counts := l.Counts()

	l.mu.RLock()
	defer l.mu.RUnlock()
	return map[string]any{
		"eventCount":   len(l.Events),
		"failureCount": len(l.Failures),
		"orphanCount":  l.orphans,
		"streamCount":  len(l.known),
		"counts":       counts,
		"duration":     time.Since(l.StartTime).String(),
		"lastEventAt":  l.LastEventAt,
	}
}

type eventLogFile struct {
	StartTime   time.Time       `json:"startTime"`
	LastEventAt time.Time       `json:"lastEventAt"`
	Events      []StreamEvent   `json:"events"`
	Failures    []DecodeFailure `json:"failures"`
	Streams     []string        `json:"streams"`
	Orphans     int             `json:"orphans"`
}

// SaveToFile writes the log as JSON.
func (l *EventLog) SaveToFile(path string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	streams := make([]string, 0, len(l.known))
	for id := range l.known {
		streams = append(streams, id)
	}
	sort.Strings(streams)

	data, err := json.MarshalIndent(eventLogFile{
		StartTime:   l.StartTime,
		LastEventAt: l.LastEventAt,
		Events:      l.Events,
		Failures:    l.Failures,
		Streams:     streams,
		Orphans:     l.orphans,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEventLog reads a log written by SaveToFile.
func LoadEventLog(path string) (*EventLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f eventLogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	l := &EventLog{
		Events:      f.Events,
		Failures:    f.Failures,
		known:       make(map[string]bool, len(f.Streams)),
		orphans:     f.Orphans,
		StartTime:   f.StartTime,
		LastEventAt: f.LastEventAt,
	}
	if l.Events == nil {
		l.Events = make([]StreamEvent, 0)
	}
	if l.Failures == nil {
		l.Failures = make([]DecodeFailure, 0)
	}
	for _, id := range f.Streams {
		l.known[id] = true
	}
	return l, nil
}
