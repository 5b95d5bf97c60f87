package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/jsonrpc"
	"github.com/NethermindEth/starknet-go-client/transport"
)

var subscribeTestUpgrader = websocket.Upgrader{}

func subscribeTestWSURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

// TestProviderSubscriptionsSurviveWebSocketReconnect drives a live
// websocket subscription through a forced disconnect and asserts that
// the same Subscription keeps delivering notifications afterwards,
// which only happens if the provider replays starknet_subscribeNewHeads
// against the new connection and rebinds its handler to the new
// subscription id.
func TestProviderSubscriptionsSurviveWebSocketReconnect(t *testing.T) {
	var connCount int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := subscribeTestUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		n := atomic.AddInt32(&connCount, 1)

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req jsonrpc.Request
		require.NoError(t, json.Unmarshal(msg, &req))

		subID := "sub-1"
		if n > 1 {
			subID = "sub-2"
		}
		resp := jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID, Result: json.RawMessage(`"` + subID + `"`)}
		body, _ := json.Marshal(resp)
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			return
		}

		notification := map[string]any{
			"jsonrpc": "2.0",
			"method":  "starknet_subscription",
			"params": map[string]any{
				"subscription_id": subID,
				"result":          map[string]any{"block_number": n},
			},
		}
		nbody, _ := json.Marshal(notification)
		time.Sleep(10 * time.Millisecond)
		conn.WriteMessage(websocket.TextMessage, nbody)

		if n == 1 {
			// Drop the connection to force a reconnect.
			return
		}
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	wsOpts := transport.WSOptions{Reconnect: true, ReconnectDelay: 20, MaxReconnectAttempts: 0}
	tr := transport.NewWebSocketTransport(subscribeTestWSURL(srv.URL), transport.DefaultOptions(), wsOpts)
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	p := New(tr)
	sub, err := p.SubscribeNewHeads(context.Background(), BlockLatest())
	require.NoError(t, err)
	defer sub.Close()

	recvCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	first, ok := sub.Recv(recvCtx)
	require.True(t, ok)
	assert.Contains(t, string(first), `"block_number":1`)

	second, ok := sub.Recv(recvCtx)
	require.True(t, ok)
	assert.Contains(t, string(second), `"block_number":2`)
}
