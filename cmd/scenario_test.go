package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/client/clienttest"
	"github.com/parthshah1/flowctl/contracts"
	"github.com/parthshah1/flowctl/orchestrator"
)

// echoContract returns the word 42 for every call and never reverts, which is
// enough to drive the task handlers' transaction paths.
var echoContract = common.FromHex("600a600c600039600a6000f3602a60005260206000f3")

func deployEcho(t *testing.T, cl *client.Client) common.Address {
	t.Helper()
	ctx := context.Background()
	opts, err := cl.TransactOpts(ctx, 0, nil)
	require.NoError(t, err)
	empty, err := abi.JSON(strings.NewReader(`[]`))
	require.NoError(t, err)
	addr, tx, _, err := contracts.Deploy(opts, cl.Backend(), empty, echoContract)
	require.NoError(t, err)
	_, err = cl.WaitDeployed(ctx, tx)
	require.NoError(t, err)
	return addr
}

func setupScenario(t *testing.T) (*client.Client, *orchestrator.Orchestrator) {
	t.Helper()
	dir := t.TempDir()
	c := clienttest.Config(dir)
	cl, _ := clienttest.New(t, c)

	c.Contracts = map[string]string{}
	for _, kind := range []contracts.Kind{contracts.KindToken, contracts.KindFlow, contracts.KindEscrow} {
		c.Contracts[string(kind)] = deployEcho(t, cl).Hex()
	}

	prevCfg, prevNetwork := cfg, network
	cfg, network = c, clienttest.Network
	t.Cleanup(func() { cfg, network = prevCfg, prevNetwork })

	o := orchestrator.New(zap.NewNop())
	registerHandlers(o, cl)
	return cl, o
}

func TestScenarioHandlers(t *testing.T) {
	cl, o := setupScenario(t)

	s, err := orchestrator.ParseScenario([]byte(`
name: handlers
variables:
  amount: "1000"
tasks:
  - name: mint
    type: token.mint
    params:
      to: signer1
      amount: ${amount}
  - name: approve
    type: token.approve
    depends_on: [mint]
    params:
      amount: ${amount}
      signer: 1
  - name: pause
    type: flow.pause
    params:
      streamId: 3
  - name: status
    type: flow.status
    depends_on: [pause]
    params:
      streamId: 3
  - name: release
    type: escrow.approve
`))
	require.NoError(t, err)

	results, err := o.Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, results, 5)

	byName := map[string]orchestrator.TaskResult{}
	for _, r := range results {
		byName[r.TaskName] = r
	}
	assert.NotEmpty(t, byName["mint"].Output["tx"])
	assert.Equal(t, "42", byName["status"].Output["balance"])
	assert.Equal(t, "UNKNOWN(42)", byName["status"].Output["status"])

	// escrow.approve signs as the arbiter, signer1, by default.
	receipt, err := cl.Backend().TransactionReceipt(context.Background(), common.HexToHash(byName["release"].Output["tx"].(string)))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Status)
}

func TestScenarioHandlerErrors(t *testing.T) {
	_, o := setupScenario(t)

	cases := map[string]string{
		"missing amount": `{name: x, tasks: [{name: a, type: token.mint, params: {to: signer0}}]}`,
		"bad stream":     `{name: x, tasks: [{name: a, type: flow.pause, params: {streamId: abc}}]}`,
		"bad signer":     `{name: x, tasks: [{name: a, type: flow.pause, params: {streamId: 1, signer: 9}}]}`,
		"no create log":  `{name: x, tasks: [{name: a, type: flow.create, params: {rate: 1000}}]}`,
		"wrong status":   `{name: x, tasks: [{name: a, type: flow.status, params: {streamId: 1, expect: VOIDED}}]}`,
	}
	for name, src := range cases {
		s, err := orchestrator.ParseScenario([]byte(src))
		require.NoError(t, err, name)
		_, err = o.Run(context.Background(), s)
		assert.Error(t, err, name)
	}
}

func TestRegisteredTaskTypes(t *testing.T) {
	o := orchestrator.New(zap.NewNop())
	registerHandlers(o, nil)
	assert.Equal(t, []string{
		"creator.create",
		"escrow.approve",
		"flow.create",
		"flow.deposit",
		"flow.pause",
		"flow.restart",
		"flow.status",
		"flow.withdraw-max",
		"token.approve",
		"token.mint",
	}, o.Types())
}

func TestParseHelpers(t *testing.T) {
	v, err := parseBigInt("0x10")
	require.NoError(t, err)
	assert.Equal(t, int64(16), v.Int64())
	_, err = parseBigInt("-1")
	assert.Error(t, err)
	_, err = parseBigInt("ten")
	assert.Error(t, err)

	id, err := parseStreamID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id.Int64())
	for _, bad := range []string{"0", "-2", "0x1", ""} {
		_, err := parseStreamID(bad)
		assert.Error(t, err, bad)
	}

	addr, err := parseAddress(nil, "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), addr)
	_, err = parseAddress(nil, "signer0")
	assert.Error(t, err)
	_, err = parseAddress(nil, "nope")
	assert.Error(t, err)

	cl, _ := clienttest.New(t, nil)
	addr, err = parseAddress(cl, "signer2")
	require.NoError(t, err)
	assert.Equal(t, cl.Signers()[2], addr)
}

func TestParamHelpers(t *testing.T) {
	params := map[string]interface{}{"n": 3, "s": "7", "bad": "x", "nil": nil}

	n, err := paramInt(params, "n", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = paramInt(params, "missing", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	_, err = paramInt(params, "bad", 0)
	assert.Error(t, err)

	s, err := requireParam(params, "s")
	require.NoError(t, err)
	assert.Equal(t, "7", s)
	_, err = requireParam(params, "nil")
	assert.Error(t, err)
}
