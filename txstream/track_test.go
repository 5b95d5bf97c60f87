package txstream

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/jsonrpc"
)

func TestTrackPollPendingThenConfirmed(t *testing.T) {
	calls := 0
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		switch method {
		case "starknet_getTransactionReceipt":
			calls++
			if calls <= 2 {
				return nil, &jsonrpc.Error{Code: 29, Message: "Transaction hash not found"}
			}
			return json.RawMessage(`{"block_number":50}`), nil
		case "starknet_blockNumber":
			return 50, nil
		case "starknet_getTransactionStatus":
			return json.RawMessage(`{"finality_status":"RECEIVED"}`), nil
		case "starknet_getTransactionByHash":
			return json.RawMessage(`{"transaction_hash":"0xabc"}`), nil
		}
		t.Fatalf("unexpected method %s", method)
		return nil, nil
	})

	hash, err := felt.FromHex("0xabc")
	require.NoError(t, err)
	opts := TrackOptions{Confirmations: 1}.withDefaults()

	e1, terminal1 := trackPoll(context.Background(), p, hash, opts, 1)
	assert.Equal(t, "pending", e1.Type)
	assert.False(t, terminal1)

	e2, terminal2 := trackPoll(context.Background(), p, hash, opts, 2)
	assert.Equal(t, "pending", e2.Type)
	assert.False(t, terminal2)

	e3, terminal3 := trackPoll(context.Background(), p, hash, opts, 3)
	assert.Equal(t, "confirmed", e3.Type)
	assert.True(t, terminal3)
	assert.Equal(t, uint64(1), e3.Confirmations)
}

func TestTrackPollStaysPendingBelowConfirmationDepth(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		switch method {
		case "starknet_getTransactionReceipt":
			return json.RawMessage(`{"block_number":48}`), nil
		case "starknet_blockNumber":
			return 50, nil
		case "starknet_getTransactionStatus":
			return json.RawMessage(`{"finality_status":"ACCEPTED_ON_L2"}`), nil
		}
		t.Fatalf("unexpected method %s", method)
		return nil, nil
	})

	hash, _ := felt.FromHex("0xabc")
	opts := TrackOptions{Confirmations: 5}.withDefaults()
	event, terminal := trackPoll(context.Background(), p, hash, opts, 1)
	assert.Equal(t, "pending", event.Type)
	assert.False(t, terminal)
}

func TestTrackPollTerminatesOnUnknownError(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		return nil, &jsonrpc.Error{Code: -32603, Message: "internal error"}
	})

	hash, _ := felt.FromHex("0xabc")
	opts := TrackOptions{}.withDefaults()
	event, terminal := trackPoll(context.Background(), p, hash, opts, 1)
	assert.Equal(t, "error", event.Type)
	assert.True(t, terminal)
	require.Error(t, event.Err)
}

func TestTrackEmitsDroppedAfterMaxPendingPolls(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		switch method {
		case "starknet_getTransactionReceipt":
			return nil, &jsonrpc.Error{Code: 29, Message: "not found"}
		case "starknet_getTransactionStatus":
			return json.RawMessage(`null`), nil
		}
		t.Fatalf("unexpected method %s", method)
		return nil, nil
	})

	hash, _ := felt.FromHex("0xabc")
	stream := Track(context.Background(), p, hash, TrackOptions{PollInterval: 1, MaxPendingPolls: 2})
	defer stream.Close()

	ctx := context.Background()
	e1, ok := stream.Recv(ctx)
	require.True(t, ok)
	assert.Equal(t, "pending", e1.Type)

	e2, ok := stream.Recv(ctx)
	require.True(t, ok)
	assert.Equal(t, "dropped", e2.Type)

	_, ok = stream.Recv(ctx)
	assert.False(t, ok)
}
