package txstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/jsonrpc"
	"github.com/NethermindEth/starknet-go-client/provider"
	"github.com/NethermindEth/starknet-go-client/transport"
)

func newTestProvider(t *testing.T, handle func(method string, params json.RawMessage) (any, *jsonrpc.Error)) *provider.Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		paramsRaw, _ := json.Marshal(req.Params)
		result, rpcErr := handle(req.Method, paramsRaw)
		resp := jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			b, err := json.Marshal(result)
			require.NoError(t, err)
			resp.Result = b
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	tr := transport.NewHTTPTransport(srv.URL, transport.DefaultOptions())
	return provider.New(tr)
}

func pendingBlockFixture() json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"transactions": []map[string]any{
			{"transaction_hash": "0x1", "sender_address": "0xaaa", "type": "INVOKE"},
			{"transaction_hash": "0x2", "sender_address": "0xbbb", "type": "INVOKE"},
		},
	})
	return raw
}

func TestWatchPendingPollEmitsEachNewTransactionOnce(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		if method == "starknet_getBlockWithTxs" {
			return json.RawMessage(pendingBlockFixture()), nil
		}
		t.Fatalf("unexpected method %s", method)
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := WatchPending(ctx, p, PendingOptions{PollInterval: time.Hour})
	defer stream.Close()

	recvCtx, recvCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer recvCancel()

	first, ok := stream.Recv(recvCtx)
	require.True(t, ok)
	second, ok := stream.Recv(recvCtx)
	require.True(t, ok)

	hashes := map[string]bool{first.TransactionHash: true, second.TransactionHash: true}
	assert.True(t, hashes["0x1"])
	assert.True(t, hashes["0x2"])
}

func TestWatchPendingPollFiltersBySender(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		return json.RawMessage(pendingBlockFixture()), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := WatchPending(ctx, p, PendingOptions{
		PollInterval: time.Hour,
		Filter:       Filter{SenderAddress: "0xbbb"},
	})
	defer stream.Close()

	recvCtx, recvCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer recvCancel()
	event, ok := stream.Recv(recvCtx)
	require.True(t, ok)
	assert.Equal(t, "0x2", event.TransactionHash)

	// No second matching transaction should arrive within a short window.
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer shortCancel()
	_, ok = stream.Recv(shortCtx)
	assert.False(t, ok)
}

func TestIgnorableTxCode(t *testing.T) {
	assert.True(t, ignorableTxCode(24))
	assert.True(t, ignorableTxCode(25))
	assert.True(t, ignorableTxCode(29))
	assert.False(t, ignorableTxCode(21))
}
