package cmd

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parthshah1/flowctl/client"
	"github.com/parthshah1/flowctl/client/clienttest"
	"github.com/parthshah1/flowctl/config"
	"github.com/parthshah1/flowctl/contracts"
	"github.com/parthshah1/flowctl/monitor"
)

// returnWord answers every call with the word 42.
var returnWord = []byte{0x60, 0x2a, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3}

// createEmitter logs CreateFlowStream(id, 0, false) on every call, then
// returns 42.
func createEmitter(t *testing.T, id byte) []byte {
	t.Helper()
	flowABI, err := contracts.ABI(contracts.KindFlow)
	require.NoError(t, err)

	code := []byte{0x60, id, 0x60, 0x00, 0x52, 0x7f}
	code = append(code, flowABI.Events["CreateFlowStream"].ID.Bytes()...)
	code = append(code, 0x60, 0x60, 0x60, 0x00, 0xa1)
	return append(code, returnWord...)
}

// escrowRuntime returns false for isApproved() and arbiter for any other call,
// so buyer, seller and arbiter all read as arbiter.
func escrowRuntime(arbiter common.Address) []byte {
	code := []byte{0x60, 0x00, 0x35, 0x60, 0xe0, 0x1c, 0x63}
	code = append(code, crypto.Keccak256([]byte("isApproved()"))[:4]...)
	code = append(code, 0x14, 0x60, 0x2c, 0x57, 0x73)
	code = append(code, arbiter.Bytes()...)
	code = append(code, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3)
	return append(code, 0x5b, 0x60, 0x20, 0x60, 0x00, 0xf3)
}

func deployRuntime(t *testing.T, cl *client.Client, runtime []byte) common.Address {
	t.Helper()
	require.Less(t, len(runtime), 256)
	n := byte(len(runtime))
	initCode := append([]byte{0x60, n, 0x60, 0x0c, 0x60, 0x00, 0x39, 0x60, n, 0x60, 0x00, 0xf3}, runtime...)

	ctx := context.Background()
	opts, err := cl.TransactOpts(ctx, 0, nil)
	require.NoError(t, err)
	empty, err := abi.JSON(strings.NewReader(`[]`))
	require.NoError(t, err)
	addr, tx, _, err := contracts.Deploy(opts, cl.Backend(), empty, initCode)
	require.NoError(t, err)
	_, err = cl.WaitDeployed(ctx, tx)
	require.NoError(t, err)
	return addr
}

type cliEnv struct {
	cl         *client.Client
	sim        *simulated.Backend
	dir        string
	configPath string
}

// newCLI points the command globals at a simulated chain and an empty
// flowctl.yaml in a fresh directory.
func newCLI(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	cl, sim := clienttest.New(t, clienttest.Config(dir))

	prevCfg, prevNetwork, prevClient, prevLogger := cfg, network, clientt, logger
	t.Cleanup(func() { cfg, network, clientt, logger = prevCfg, prevNetwork, prevClient, prevLogger })
	clientt = cl

	e := &cliEnv{cl: cl, sim: sim, dir: dir, configPath: filepath.Join(dir, "flowctl.yaml")}
	e.writeConfig(t, nil)
	return e
}

func (e *cliEnv) writeConfig(t *testing.T, addrs map[contracts.Kind]common.Address) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "default_network: %s\n", clienttest.Network)
	fmt.Fprintf(&b, "networks:\n  %s:\n    url: http://127.0.0.1:8545\n", clienttest.Network)
	fmt.Fprintf(&b, "gas_limit: 3000000\nreceipt_timeout: 10s\n")
	fmt.Fprintf(&b, "workspace: %q\nartifacts_dir: %q\n", e.dir, filepath.Join(e.dir, "artifacts"))
	if len(addrs) > 0 {
		b.WriteString("contracts:\n")
		for kind, addr := range addrs {
			fmt.Fprintf(&b, "  %s: %q\n", kind, addr.Hex())
		}
	}
	require.NoError(t, os.WriteFile(e.configPath, []byte(b.String()), 0644))
}

func (e *cliEnv) record(t *testing.T, kind contracts.Kind, addr common.Address, net string) {
	t.Helper()
	require.NoError(t, config.SaveDeploymentRecord(config.DeploymentsPath(e.dir), config.DeploymentRecord{
		Name:    string(kind),
		Address: addr.Hex(),
		Network: net,
	}))
}

// run executes the app with args after the global --config flag and returns
// what it printed to stdout.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	done := make(chan string)
	go func() {
		out, _ := io.ReadAll(r)
		done <- string(out)
	}()

	runErr := NewApp().Run(append([]string{"flowctl", "--config", e.configPath}, args...))

	w.Close()
	os.Stdout = stdout
	return <-done, runErr
}

func (e *cliEnv) lastTx(t *testing.T) *types.Transaction {
	t.Helper()
	block, err := e.sim.Client().BlockByNumber(context.Background(), nil)
	require.NoError(t, err)
	txs := block.Transactions()
	require.NotEmpty(t, txs)
	return txs[len(txs)-1]
}

func (e *cliEnv) sender(t *testing.T, tx *types.Transaction) common.Address {
	t.Helper()
	from, err := types.Sender(types.LatestSignerForChainID(e.cl.ChainID()), tx)
	require.NoError(t, err)
	return from
}

func pack(t *testing.T, kind contracts.Kind, method string, args ...interface{}) []byte {
	t.Helper()
	a, err := contracts.ABI(kind)
	require.NoError(t, err)
	data, err := a.Pack(method, args...)
	require.NoError(t, err)
	return data
}

func TestContractAddressResolution(t *testing.T) {
	e := newCLI(t)
	flag, configured, recorded := deployRuntime(t, e.cl, returnWord), deployRuntime(t, e.cl, returnWord), deployRuntime(t, e.cl, returnWord)

	e.record(t, contracts.KindFlow, recorded, clienttest.Network)
	e.writeConfig(t, map[contracts.Kind]common.Address{contracts.KindFlow: configured})

	_, err := e.run(t, "flow", "pause", "--address", flag.Hex(), "1")
	require.NoError(t, err)
	assert.Equal(t, flag, *e.lastTx(t).To(), "--address wins")

	_, err = e.run(t, "flow", "pause", "1")
	require.NoError(t, err)
	assert.Equal(t, configured, *e.lastTx(t).To(), "config contracts win over records")

	e.writeConfig(t, nil)
	_, err = e.run(t, "flow", "pause", "1")
	require.NoError(t, err)
	assert.Equal(t, recorded, *e.lastTx(t).To(), "deployment record")

	_, err = e.run(t, "--network", "elsewhere", "flow", "pause", "1")
	assert.ErrorIs(t, err, config.ErrContractNotFound)
}

func TestNetworkNameIsCaseInsensitive(t *testing.T) {
	e := newCLI(t)
	recorded := deployRuntime(t, e.cl, returnWord)
	e.record(t, contracts.KindFlow, recorded, clienttest.Network)

	out, err := e.run(t, "--network", strings.ToUpper(clienttest.Network), "network", "list")
	require.NoError(t, err)
	assert.Equal(t, clienttest.Network, network)
	assert.Contains(t, out, "* "+clienttest.Network)

	_, err = e.run(t, "--network", "Simulated", "flow", "pause", "1")
	require.NoError(t, err)
	assert.Equal(t, recorded, *e.lastTx(t).To())
}

func TestNetworkShowReportsBuildInfo(t *testing.T) {
	e := newCLI(t)
	path := filepath.Join(e.dir, "artifacts", "build-info", "old.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"solcVersion":"0.8.20","input":{"settings":{"optimizer":{"enabled":true,"runs":200}}}}`), 0644))

	out, err := e.run(t, "network", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Chain ID:       1337")
	assert.Contains(t, out, "Build info:     old.json: solc 0.8.20, configured 0.8.24")
}

func TestTokenCommands(t *testing.T) {
	e := newCLI(t)
	token := deployRuntime(t, e.cl, returnWord)
	e.writeConfig(t, map[contracts.Kind]common.Address{contracts.KindToken: token})
	signers := e.cl.Signers()

	out, err := e.run(t, "token", "mint", "signer1", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "mint 1000 -> "+signers[1].Hex())
	tx := e.lastTx(t)
	assert.Equal(t, token, *tx.To())
	assert.Equal(t, pack(t, contracts.KindToken, "mint", signers[1], big.NewInt(1000)), tx.Data())

	_, err = e.run(t, "token", "approve", "--signer", "1", "signer2", "5")
	require.NoError(t, err)
	tx = e.lastTx(t)
	assert.Equal(t, signers[1], e.sender(t, tx))
	assert.Equal(t, pack(t, contracts.KindToken, "approve", signers[2], big.NewInt(5)), tx.Data())

	// the echo token reports 42 decimals
	_, err = e.run(t, "token", "transfer", "--units", "signer2", "1.5")
	require.NoError(t, err)
	want := new(big.Int).Mul(big.NewInt(15), new(big.Int).Exp(big.NewInt(10), big.NewInt(41), nil))
	assert.Equal(t, pack(t, contracts.KindToken, "transfer", signers[2], want), e.lastTx(t).Data())

	_, err = e.run(t, "token", "mint", "signer1")
	assert.ErrorContains(t, err, "expected 2 argument(s), got 1")
	_, err = e.run(t, "token", "mint", "nobody", "1")
	assert.ErrorContains(t, err, "invalid address")
}

func TestFlowStreamTransactions(t *testing.T) {
	e := newCLI(t)
	flow := deployRuntime(t, e.cl, returnWord)
	e.writeConfig(t, map[contracts.Kind]common.Address{contracts.KindFlow: flow})

	out, err := e.run(t, "flow", "withdraw", "3", "250")
	require.NoError(t, err)
	assert.Contains(t, out, "Stream 3 status: UNKNOWN(42)")
	// without --to the stream recipient, here the echoed word, receives the withdrawal
	recipient := common.BigToAddress(big.NewInt(42))
	assert.Equal(t, pack(t, contracts.KindFlow, "withdraw", big.NewInt(3), recipient, big.NewInt(250)), e.lastTx(t).Data())

	_, err = e.run(t, "flow", "restart", "--rate", "77", "2")
	require.NoError(t, err)
	assert.Equal(t, pack(t, contracts.KindFlow, "restart", big.NewInt(2), big.NewInt(77)), e.lastTx(t).Data())

	for _, args := range [][]string{{"flow", "withdraw", "1"}, {"flow", "refund", "1"}} {
		_, err = e.run(t, args...)
		assert.ErrorContains(t, err, "expected 2 argument(s), got 1", args[1])
	}
	_, err = e.run(t, "flow", "pause")
	assert.ErrorContains(t, err, "expected 1 argument(s), got 0")
	_, err = e.run(t, "flow", "pause", "0")
	assert.ErrorContains(t, err, "invalid stream id")
}

func TestFlowCreate(t *testing.T) {
	e := newCLI(t)
	flow := deployRuntime(t, e.cl, createEmitter(t, 7))
	token := deployRuntime(t, e.cl, returnWord)
	e.writeConfig(t, map[contracts.Kind]common.Address{contracts.KindFlow: flow, contracts.KindToken: token})
	signers := e.cl.Signers()

	out, err := e.run(t, "flow", "create", "--rate", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "Stream id: 7")
	assert.Equal(t,
		pack(t, contracts.KindFlow, "create", signers[0], signers[1], big.NewInt(1000), token, true),
		e.lastTx(t).Data())

	out, err = e.run(t, "flow", "create-and-deposit", "--rate", "5", "--amount", "9", "--recipient", "signer2", "--transferable=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Stream id: 7")
	assert.Equal(t,
		pack(t, contracts.KindFlow, "createAndDeposit", signers[0], signers[2], big.NewInt(5), token, false, big.NewInt(9)),
		e.lastTx(t).Data())

	_, err = e.run(t, "flow", "create")
	assert.ErrorContains(t, err, "either --rate or --per-period is required")
}

func TestFlowCreateWithoutEvent(t *testing.T) {
	e := newCLI(t)
	flow := deployRuntime(t, e.cl, returnWord)
	e.writeConfig(t, map[contracts.Kind]common.Address{contracts.KindFlow: flow, contracts.KindToken: flow})

	_, err := e.run(t, "flow", "create", "--rate", "1")
	assert.ErrorContains(t, err, "no CreateFlowStream event")
}

func TestCreatorCommands(t *testing.T) {
	e := newCLI(t)
	creator := deployRuntime(t, e.cl, createEmitter(t, 9))
	e.writeConfig(t, map[contracts.Kind]common.Address{contracts.KindStreamCreator: creator})

	out, err := e.run(t, "creator", "create", "--rate", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Stream id: 9")
	assert.Equal(t, pack(t, contracts.KindStreamCreator, "createFlowStream", big.NewInt(10)), e.lastTx(t).Data())

	_, err = e.run(t, "creator", "pause", "4")
	require.NoError(t, err)
	assert.Equal(t, creator, *e.lastTx(t).To())
	assert.Equal(t, pack(t, contracts.KindStreamCreator, "pauseFlowStream", big.NewInt(4)), e.lastTx(t).Data())

	_, err = e.run(t, "creator", "deposit", "4")
	assert.ErrorContains(t, err, "expected 2 argument(s), got 1")
}

func TestEscrowApproveChecksArbiter(t *testing.T) {
	e := newCLI(t)
	arbiter := e.cl.Signers()[1]
	escrow := deployRuntime(t, e.cl, escrowRuntime(arbiter))
	e.writeConfig(t, map[contracts.Kind]common.Address{contracts.KindEscrow: escrow})

	_, err := e.run(t, "escrow", "approve", "--signer", "0")
	assert.ErrorContains(t, err, "is not the arbiter "+arbiter.Hex())

	out, err := e.run(t, "escrow", "approve")
	require.NoError(t, err)
	assert.Contains(t, out, "Approving release of 0 wei to "+arbiter.Hex())
	tx := e.lastTx(t)
	assert.Equal(t, escrow, *tx.To())
	assert.Equal(t, arbiter, e.sender(t, tx))
	assert.Equal(t, pack(t, contracts.KindEscrow, "approve"), tx.Data())
}

func TestContractCall(t *testing.T) {
	e := newCLI(t)
	token := deployRuntime(t, e.cl, returnWord)
	e.writeConfig(t, map[contracts.Kind]common.Address{contracts.KindToken: token})
	signers := e.cl.Signers()

	out, err := e.run(t, "contract", "call", "MITCoin", "balanceOf", "signer1")
	require.NoError(t, err)
	assert.Contains(t, out, "Method: balanceOf(address)")
	assert.Contains(t, out, "out0: 42")

	_, err = e.run(t, "contract", "call", "--transaction", "MITCoin", "mint", "signer2", "5")
	require.NoError(t, err)
	assert.Equal(t, pack(t, contracts.KindToken, "mint", signers[2], big.NewInt(5)), e.lastTx(t).Data())

	out, err = e.run(t, "contract", "call", "--types", "address", token.Hex(), "balanceOf", "signer1")
	require.NoError(t, err)
	assert.Contains(t, out, "Method: balanceOf(address)")
	assert.Contains(t, out, fmt.Sprintf("Result: 0x%064x", 42))

	_, err = e.run(t, "contract", "call", "--transaction", "--types", "uint256", token.Hex(), "setValue", "9")
	require.NoError(t, err)
	tx := e.lastTx(t)
	assert.Equal(t, token, *tx.To())
	assert.Equal(t, crypto.Keccak256([]byte("setValue(uint256)"))[:4], tx.Data()[:4])

	_, err = e.run(t, "contract", "call", "--types", "bool", token.Hex(), "setFlag", "maybe")
	assert.ErrorContains(t, err, "invalid bool value maybe")
	_, err = e.run(t, "contract", "call", "MITCoin", "burn", "1")
	assert.ErrorIs(t, err, contracts.ErrUnknownMethod)
	_, err = e.run(t, "contract", "call", "Nope", "f")
	assert.ErrorContains(t, err, "neither an address nor a known contract")
}

func TestFlowEvents(t *testing.T) {
	e := newCLI(t)
	t.Cleanup(func() { monitor.SetAntithesisMode(false) })

	clean := monitor.NewEventLog()
	clean.Record(monitor.StreamEvent{Name: monitor.EventCreate, StreamID: "1", BlockNumber: 2}, false)
	clean.Record(monitor.StreamEvent{Name: monitor.EventDeposit, StreamID: "1", BlockNumber: 3}, true)
	cleanPath := filepath.Join(e.dir, "clean.json")
	require.NoError(t, clean.SaveToFile(cleanPath))

	dirty := monitor.NewEventLog()
	dirty.Record(monitor.StreamEvent{Name: monitor.EventPause, StreamID: "5", BlockNumber: 4}, false)
	dirty.RecordDecodeFailure(monitor.DecodeFailure{BlockNumber: 6, Error: "bad data"})
	dirtyPath := filepath.Join(e.dir, "dirty.json")
	require.NoError(t, dirty.SaveToFile(dirtyPath))

	out, err := e.run(t, "flow", "events", "--assert", cleanPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Assertions emitted")

	out, err = e.run(t, "flow", "events", dirtyPath)
	require.NoError(t, err, "summaries never fail without --assert")
	assert.Contains(t, out, "Unknown streams: 1")

	_, err = e.run(t, "flow", "events", "--assert", dirtyPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 event(s) for unknown streams, 1 decode failure(s)")
}

func TestAccountsList(t *testing.T) {
	e := newCLI(t)

	out, err := e.run(t, "accounts", "list")
	require.NoError(t, err)
	for i, addr := range e.cl.Signers() {
		assert.Contains(t, out, fmt.Sprintf("signer%d:\n  Address: %s", i, addr.Hex()))
	}
	assert.Contains(t, out, "ETH")
}
