package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/jsonrpc"
)

var upgrader = websocket.Upgrader{}

func newEchoWSServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		handle(conn)
	}))
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestWebSocketTransportRequestResponseCorrelation(t *testing.T) {
	srv := newEchoWSServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req jsonrpc.Request
			require.NoError(t, json.Unmarshal(msg, &req))
			resp := jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID, Result: json.RawMessage(`"0x1"`)}
			body, _ := json.Marshal(resp)
			if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	tr := NewWebSocketTransport(wsURL(srv.URL), DefaultOptions(), WSOptions{Reconnect: false})
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	resp, err := tr.Request(context.Background(), jsonrpc.NewRequest("starknet_chainId", nil))
	require.NoError(t, err)
	assert.Nil(t, resp.Error)
}

func TestWebSocketTransportRoutesSubscriptionNotifications(t *testing.T) {
	srv := newEchoWSServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		notification := map[string]any{
			"jsonrpc": "2.0",
			"method":  "starknet_subscription",
			"params": map[string]any{
				"subscription_id": "sub-1",
				"result":          map[string]any{"block_number": 42},
			},
		}
		body, _ := json.Marshal(notification)
		time.Sleep(10 * time.Millisecond)
		conn.WriteMessage(websocket.TextMessage, body)
		// Keep the connection open briefly so the client's read loop
		// has time to dispatch before the handler returns.
		time.Sleep(50 * time.Millisecond)
	})
	defer srv.Close()

	tr := NewWebSocketTransport(wsURL(srv.URL), DefaultOptions(), WSOptions{Reconnect: false})
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Close()

	received := make(chan json.RawMessage, 1)
	tr.Subscribe("sub-1", func(result json.RawMessage) {
		received <- result
	})

	select {
	case result := <-received:
		assert.Contains(t, string(result), "block_number")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscription notification")
	}
}
