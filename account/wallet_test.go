package account

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/starkhash"
)

type fakeSWO struct {
	onRequest func(req SWORequest) (json.RawMessage, error)
	handlers  map[string]func(json.RawMessage)
}

func newFakeSWO() *fakeSWO {
	return &fakeSWO{handlers: make(map[string]func(json.RawMessage))}
}

func (f *fakeSWO) Request(ctx context.Context, req SWORequest) (json.RawMessage, error) {
	return f.onRequest(req)
}

func (f *fakeSWO) On(event string, handler func(json.RawMessage)) {
	f.handlers[event] = handler
}

func (f *fakeSWO) Off(event string) {
	delete(f.handlers, event)
}

func (f *fakeSWO) emit(event string, payload json.RawMessage) {
	if h, ok := f.handlers[event]; ok {
		h(payload)
	}
}

func TestWalletAccountExecuteTranslatesCallsToSnakeCase(t *testing.T) {
	wallet := newFakeSWO()
	var captured SWORequest
	wallet.onRequest = func(req SWORequest) (json.RawMessage, error) {
		captured = req
		return json.Marshal(map[string]string{"transaction_hash": "0x42"})
	}

	base := &Account{Address: mustAddr(t, "0xabc")}
	wa := NewWalletAccount(base, wallet)

	to := mustAddr(t, "0xdef")
	calls := []starkhash.Call{{To: to, Selector: felt.FromUint64(9), Calldata: []felt.Felt252{felt.FromUint64(1)}}}

	result, err := wa.Execute(context.Background(), calls)
	require.NoError(t, err)
	assert.Equal(t, "0x42", result.TransactionHash.ToHex())
	assert.Equal(t, "wallet_addInvokeTransaction", captured.Type)

	params, ok := captured.Params.(map[string]any)
	require.True(t, ok)
	rendered, ok := params["calls"].([]walletCall)
	require.True(t, ok)
	require.Len(t, rendered, 1)
	assert.Equal(t, to.ToHex(), rendered[0].ContractAddress)
	assert.Equal(t, felt.FromUint64(9).ToHex(), rendered[0].EntryPoint)
	assert.Equal(t, []string{felt.FromUint64(1).ToHex()}, rendered[0].Calldata)
}

func TestWalletAccountDispatchesAccountsChanged(t *testing.T) {
	wallet := newFakeSWO()
	base := &Account{Address: mustAddr(t, "0xabc")}
	wa := NewWalletAccount(base, wallet)

	var received json.RawMessage
	wa.OnAccountsChanged(func(payload json.RawMessage) {
		received = payload
	})

	wallet.emit("accountsChanged", json.RawMessage(`["0x1"]`))
	assert.JSONEq(t, `["0x1"]`, string(received))
}

func mustAddr(t *testing.T, hex string) felt.ContractAddress {
	t.Helper()
	addr, err := felt.ContractAddressFromHex(hex)
	require.NoError(t, err)
	return addr
}
