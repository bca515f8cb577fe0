package contracts_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parthshah1/flowctl/contracts"
	"github.com/parthshah1/flowctl/contracts/contractstest"
)

var (
	flowAddr    = common.HexToAddress("0x00000000000000000000000000000000000f1001")
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000c0111")
	creatorAddr = common.HexToAddress("0x0000000000000000000000000000000000c4ea70")
	alice       = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob         = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newBackend(t *testing.T) *contractstest.Backend {
	t.Helper()
	var abis []abi.ABI
	for _, k := range contracts.Kinds() {
		a, err := contracts.ABI(k)
		require.NoError(t, err)
		abis = append(abis, a)
	}
	return contractstest.NewBackend(abis...)
}

func transactOpts(t *testing.T) *bind.TransactOpts {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(1337))
	require.NoError(t, err)
	opts.GasLimit = 300_000
	return opts
}

func TestParseKind(t *testing.T) {
	k, err := contracts.ParseKind("mysablierflow")
	require.NoError(t, err)
	assert.Equal(t, contracts.KindFlow, k)

	_, err = contracts.ParseKind("Unknown")
	assert.Error(t, err)

	for _, k := range contracts.Kinds() {
		_, err := contracts.ABI(k)
		assert.NoError(t, err, k)
	}
}

func TestSetABI(t *testing.T) {
	original, err := contracts.ABI(contracts.KindNFTDescriptor)
	require.NoError(t, err)
	t.Cleanup(func() { contracts.SetABI(contracts.KindNFTDescriptor, original) })

	custom, err := abi.JSON(strings.NewReader(`[{"type":"function","name":"tokenURI","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"}]`))
	require.NoError(t, err)
	contracts.SetABI(contracts.KindNFTDescriptor, custom)

	got, err := contracts.ABI(contracts.KindNFTDescriptor)
	require.NoError(t, err)
	assert.Contains(t, got.Methods, "tokenURI")
	assert.NotContains(t, got.Methods, "myver")
}

func TestTokenInfo(t *testing.T) {
	b := newBackend(t)
	supply := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	b.Return("name", "MITCoin")
	b.Return("symbol", "MIT")
	b.Return("decimals", uint8(18))
	b.Return("totalSupply", supply)
	b.Return("balanceOf", big.NewInt(42))

	token, err := contracts.NewToken(tokenAddr, b)
	require.NoError(t, err)

	info, err := token.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MITCoin", info.Name)
	assert.Equal(t, "MIT", info.Symbol)
	assert.Equal(t, uint8(18), info.Decimals)
	assert.Equal(t, 0, supply.Cmp(info.TotalSupply))

	bal, err := token.BalanceOf(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())

	last := b.Calls[len(b.Calls)-1]
	assert.Equal(t, "balanceOf", last.Method)
	assert.Equal(t, tokenAddr, last.To)
	assert.Equal(t, alice, last.Args[0])
}

func TestTokenMint(t *testing.T) {
	b := newBackend(t)
	token, err := contracts.NewToken(tokenAddr, b)
	require.NoError(t, err)

	_, err = token.Mint(transactOpts(t), alice, big.NewInt(0))
	assert.Error(t, err)
	assert.Empty(t, b.Sent)

	tx, err := token.Mint(transactOpts(t), alice, big.NewInt(500))
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, *tx.To())

	call, err := b.SentCall(0)
	require.NoError(t, err)
	assert.Equal(t, "mint", call.Method)
	assert.Equal(t, alice, call.Args[0])
	assert.Equal(t, int64(500), call.Args[1].(*big.Int).Int64())
}

func TestFlowStream(t *testing.T) {
	b := newBackend(t)
	b.Return("isStream", true)
	b.Return("statusOf", uint8(contracts.StatusStreamingSolvent))
	b.Return("getSender", alice)
	b.Return("getRecipient", bob)
	b.Return("getToken", tokenAddr)
	b.Return("getRatePerSecond", big.NewInt(1000))
	b.Return("getBalance", big.NewInt(5000))
	b.Return("totalDebtOf", big.NewInt(3000))
	b.Return("coveredDebtOf", big.NewInt(3000))
	b.Return("uncoveredDebtOf", big.NewInt(0))
	b.Return("withdrawableAmountOf", big.NewInt(3000))
	b.Return("refundableAmountOf", big.NewInt(2000))
	b.Fail("depletionTimeOf", errors.New("execution reverted"))

	flow, err := contracts.NewFlow(flowAddr, b)
	require.NoError(t, err)

	s, err := flow.Stream(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusStreamingSolvent, s.Status)
	assert.Equal(t, alice, s.Sender)
	assert.Equal(t, bob, s.Recipient)
	assert.Equal(t, tokenAddr, s.Token)
	assert.Equal(t, int64(1000), s.RatePerSecond.Int64())
	assert.Equal(t, int64(5000), s.Balance.Int64())
	assert.Equal(t, int64(2000), s.RefundableAmount.Int64())
	assert.Equal(t, 0, s.DepletionTime.Sign())

	b.Return("isStream", false)
	_, err = flow.Stream(context.Background(), big.NewInt(9))
	assert.Error(t, err)
}

func TestFlowStatusString(t *testing.T) {
	assert.Equal(t, "PENDING", contracts.StatusPending.String())
	assert.Equal(t, "PAUSED_INSOLVENT", contracts.StatusPausedInsolvent.String())
	assert.Equal(t, "VOIDED", contracts.StatusVoided.String())
	assert.Equal(t, "UNKNOWN(9)", contracts.FlowStatus(9).String())
}

func TestFlowTransactions(t *testing.T) {
	b := newBackend(t)
	flow, err := contracts.NewFlow(flowAddr, b)
	require.NoError(t, err)

	_, err = flow.CreateAndDeposit(transactOpts(t), alice, bob, big.NewInt(1e15), tokenAddr, true, big.NewInt(1e18))
	require.NoError(t, err)
	_, err = flow.Deposit(transactOpts(t), big.NewInt(3), big.NewInt(10), alice, bob)
	require.NoError(t, err)
	_, err = flow.WithdrawMax(transactOpts(t), big.NewInt(3), bob)
	require.NoError(t, err)

	call, err := b.SentCall(0)
	require.NoError(t, err)
	assert.Equal(t, "createAndDeposit", call.Method)
	assert.Equal(t, []interface{}{alice, bob, big.NewInt(1e15), tokenAddr, true, big.NewInt(1e18)}, call.Args)

	call, err = b.SentCall(1)
	require.NoError(t, err)
	assert.Equal(t, "deposit", call.Method)
	assert.Equal(t, []interface{}{big.NewInt(3), big.NewInt(10), alice, bob}, call.Args)

	call, err = b.SentCall(2)
	require.NoError(t, err)
	assert.Equal(t, "withdrawMax", call.Method)

	_, err = flow.Transact(transactOpts(t), "nope")
	assert.ErrorIs(t, err, contracts.ErrUnknownMethod)
}

func createLog(t *testing.T, emitter common.Address, streamID int64) *types.Log {
	t.Helper()
	flowABI, err := contracts.ABI(contracts.KindFlow)
	require.NoError(t, err)
	ev := flowABI.Events["CreateFlowStream"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(streamID), big.NewInt(1000), true)
	require.NoError(t, err)
	return &types.Log{
		Address: emitter,
		Topics: []common.Hash{
			ev.ID,
			common.BytesToHash(alice.Bytes()),
			common.BytesToHash(bob.Bytes()),
			common.BytesToHash(tokenAddr.Bytes()),
		},
		Data: data,
	}
}

func TestFlowStreamIDFromReceipt(t *testing.T) {
	flow, err := contracts.NewFlow(flowAddr, newBackend(t))
	require.NoError(t, err)

	receipt := &types.Receipt{Logs: []*types.Log{
		createLog(t, bob, 99),
		createLog(t, flowAddr, 7),
	}}
	id, err := flow.StreamIDFromReceipt(receipt)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.Int64())

	_, err = flow.StreamIDFromReceipt(&types.Receipt{})
	assert.Error(t, err)
	_, err = flow.StreamIDFromReceipt(nil)
	assert.Error(t, err)
}

func TestCreatorStreamIDFromReceipt(t *testing.T) {
	creator, err := contracts.NewStreamCreator(creatorAddr, newBackend(t))
	require.NoError(t, err)
	creatorABI, err := contracts.ABI(contracts.KindStreamCreator)
	require.NoError(t, err)
	ev := creatorABI.Events["FlowStreamCreated"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(1000))
	require.NoError(t, err)

	receipt := &types.Receipt{Logs: []*types.Log{
		createLog(t, flowAddr, 11),
		{
			Address: creatorAddr,
			Topics:  []common.Hash{ev.ID, common.BigToHash(big.NewInt(11)), common.BytesToHash(bob.Bytes())},
			Data:    data,
		},
	}}
	id, err := creator.StreamIDFromReceipt(receipt)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id.Int64())

	// Without the creator event the Flow event is used.
	id, err = creator.StreamIDFromReceipt(&types.Receipt{Logs: []*types.Log{createLog(t, flowAddr, 12)}})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id.Int64())
}

func TestCreatorTransactions(t *testing.T) {
	b := newBackend(t)
	b.Return("FLOW", flowAddr)
	b.Return("TOKEN", tokenAddr)
	creator, err := contracts.NewStreamCreator(creatorAddr, b)
	require.NoError(t, err)

	flow, err := creator.Flow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, flowAddr, flow)
	token, err := creator.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, token)

	_, err = creator.CreateAndDepositFlowStream(transactOpts(t), big.NewInt(100), big.NewInt(1000))
	require.NoError(t, err)
	_, err = creator.RestartFlowStream(transactOpts(t), big.NewInt(4), big.NewInt(200))
	require.NoError(t, err)

	call, err := b.SentCall(0)
	require.NoError(t, err)
	assert.Equal(t, "createAndDepositFlowStream", call.Method)
	assert.Equal(t, []interface{}{big.NewInt(100), big.NewInt(1000)}, call.Args)

	call, err = b.SentCall(1)
	require.NoError(t, err)
	assert.Equal(t, "restartFlowStream", call.Method)
	assert.Equal(t, []interface{}{big.NewInt(4), big.NewInt(200)}, call.Args)
}

func TestEscrow(t *testing.T) {
	b := newBackend(t)
	b.Return("buyer", alice)
	b.Return("seller", bob)
	b.Return("arbiter", tokenAddr)
	b.Return("isApproved", false)

	escrow, err := contracts.NewEscrow(creatorAddr, b)
	require.NoError(t, err)

	info, err := escrow.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, alice, info.Buyer)
	assert.Equal(t, bob, info.Seller)
	assert.Equal(t, tokenAddr, info.Arbiter)
	assert.False(t, info.Approved)

	opts := transactOpts(t)
	_, err = escrow.Deposit(opts, big.NewInt(1e18))
	require.NoError(t, err)
	assert.Nil(t, opts.Value, "caller options are left untouched")

	_, err = escrow.Approve(transactOpts(t))
	require.NoError(t, err)

	call, err := b.SentCall(0)
	require.NoError(t, err)
	assert.Equal(t, "deposit", call.Method)
	assert.Equal(t, int64(1e18), call.Value.Int64())

	call, err = b.SentCall(1)
	require.NoError(t, err)
	assert.Equal(t, "approve", call.Method)
	assert.Equal(t, 0, call.Value.Sign())
}

func TestVersion(t *testing.T) {
	b := newBackend(t)
	b.Return("myver", "flow-1.2")
	flow, err := contracts.NewFlow(flowAddr, b)
	require.NoError(t, err)

	v, err := flow.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "flow-1.2", v)
}
