package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const scenarioYAML = `
name: stream-lifecycle
description: mint, approve and open a stream
variables:
  recipient: signer1
  amount: "1000"
tasks:
  - name: open
    type: flow.create
    depends_on: [approve]
    params:
      recipient: ${recipient}
      amount: ${amount}
    timeout: 30s
  - name: mint
    type: token.mint
    params:
      to: signer0
      amount: ${amount}
  - name: approve
    type: token.approve
    depends_on: [mint]
    params:
      amount: ${amount}
      note: "after ${mint.tx}"
  - name: check
    type: flow.status
    depends_on: [open]
    params:
      streamId: ${open.streamId}
`

func taskNames(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name
	}
	return out
}

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "stream-lifecycle", s.Name)
	assert.Equal(t, "signer1", s.Variables["recipient"])
	require.Len(t, s.Tasks, 4)
	assert.Equal(t, 30*time.Second, s.Tasks[0].Timeout)
	assert.Equal(t, []string{"approve"}, s.Tasks[0].DependsOn)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, s.Tasks, 4)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScenarioValidate(t *testing.T) {
	cases := map[string]Scenario{
		"no tasks":       {Name: "empty"},
		"missing name":   {Tasks: []Task{{Type: "a"}}},
		"missing type":   {Tasks: []Task{{Name: "a"}}},
		"duplicate":      {Tasks: []Task{{Name: "a", Type: "x"}, {Name: "a", Type: "x"}}},
		"unknown parent": {Tasks: []Task{{Name: "a", Type: "x", DependsOn: []string{"b"}}}},
	}
	for name, s := range cases {
		s := s
		assert.Error(t, s.Validate(), name)
	}
}

func TestOrder(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	order, err := Order(s.Tasks)
	require.NoError(t, err)
	assert.Equal(t, []string{"mint", "approve", "open", "check"}, taskNames(order))

	_, err = Order([]Task{
		{Name: "a", Type: "x", DependsOn: []string{"b"}},
		{Name: "b", Type: "x", DependsOn: []string{"a"}},
	})
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestSubstitute(t *testing.T) {
	vars := map[string]string{"amount": "1000", "who": "signer1"}
	outputs := map[string]map[string]interface{}{
		"open": {"streamId": "7", "block": uint64(12)},
	}

	got, err := Substitute(map[string]interface{}{
		"amount": "${amount}",
		"block":  "${open.block}",
		"memo":   "stream ${open.streamId} for ${who}",
		"list":   []interface{}{"${who}", 3},
		"nested": map[string]interface{}{"id": "${open.streamId}"},
		"plain":  42,
	}, vars, outputs)
	require.NoError(t, err)

	assert.Equal(t, "1000", got["amount"])
	assert.Equal(t, uint64(12), got["block"], "a lone placeholder keeps the output type")
	assert.Equal(t, "stream 7 for signer1", got["memo"])
	assert.Equal(t, []interface{}{"signer1", 3}, got["list"])
	assert.Equal(t, map[string]interface{}{"id": "7"}, got["nested"])
	assert.Equal(t, 42, got["plain"])

	_, err = Substitute(map[string]interface{}{"x": "${nope}"}, vars, outputs)
	assert.Error(t, err)
	_, err = Substitute(map[string]interface{}{"x": "${later.id}"}, vars, outputs)
	assert.ErrorContains(t, err, "has not run")
	_, err = Substitute(map[string]interface{}{"x": "id ${open.missing}"}, vars, outputs)
	assert.ErrorContains(t, err, "has no output")
}

type recorder struct {
	calls []map[string]interface{}
	out   map[string]interface{}
	err   error
}

func (r *recorder) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	r.calls = append(r.calls, params)
	return r.out, r.err
}

func TestRun(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	mint := &recorder{out: map[string]interface{}{"tx": "0xabc"}}
	approve := &recorder{}
	open := &recorder{out: map[string]interface{}{"streamId": "5"}}
	status := &recorder{out: map[string]interface{}{"status": "STREAMING_SOLVENT"}}

	o := New(zap.NewNop())
	o.Register("token.mint", mint)
	o.Register("token.approve", approve)
	o.Register("flow.create", open)
	o.Register("flow.status", status)
	assert.Equal(t, []string{"flow.create", "flow.status", "token.approve", "token.mint"}, o.Types())

	results, err := o.Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "mint", results[0].TaskName)
	assert.Equal(t, map[string]interface{}{}, results[1].Output)

	require.Len(t, approve.calls, 1)
	assert.Equal(t, "after 0xabc", approve.calls[0]["note"])
	require.Len(t, open.calls, 1)
	assert.Equal(t, "signer1", open.calls[0]["recipient"])
	require.Len(t, status.calls, 1)
	assert.Equal(t, "5", status.calls[0]["streamId"])
}

func TestRunStopsOnFailure(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	boom := errors.New("insufficient allowance")
	open := &recorder{}
	o := New(zap.NewNop())
	o.Register("token.mint", &recorder{out: map[string]interface{}{"tx": "0x1"}})
	o.Register("token.approve", &recorder{err: boom})
	o.Register("flow.create", open)
	o.Register("flow.status", &recorder{})

	results, err := o.Run(context.Background(), s)
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "task approve failed")
	assert.Len(t, results, 2)
	assert.Empty(t, open.calls)
}

func TestRunUnknownHandler(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	o := New(zap.NewNop())
	o.Register("token.mint", &recorder{})

	results, err := o.Run(context.Background(), s)
	assert.Error(t, err)
	assert.Nil(t, results)
}

func TestRunTaskTimeout(t *testing.T) {
	s := &Scenario{
		Name:  "slow",
		Tasks: []Task{{Name: "wait", Type: "sleep", Timeout: 20 * time.Millisecond}},
	}

	o := New(zap.NewNop())
	o.Register("sleep", HandlerFunc(func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, nil
		}
	}))

	_, err := o.Run(context.Background(), s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunCancelled(t *testing.T) {
	s := &Scenario{Name: "x", Tasks: []Task{{Name: "a", Type: "noop"}}}
	o := New(zap.NewNop())
	o.Register("noop", HandlerFunc(func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
		return nil, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := o.Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
