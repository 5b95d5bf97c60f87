package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/jsonrpc"
)

const subscriptionMethod = "starknet_subscription"

// SubscriptionHandler receives one notification payload for a given
// subscription id.
type SubscriptionHandler func(result json.RawMessage)

// WSOptions configures the WebSocket transport's connection lifecycle.
type WSOptions struct {
	Reconnect            bool
	ReconnectDelay       int64 // milliseconds
	MaxReconnectAttempts int   // 0 means infinite
	KeepAlive            int64 // milliseconds; 0 disables keep-alive
}

// DefaultWSOptions mirrors the client-wide WebSocket defaults.
func DefaultWSOptions() WSOptions {
	return WSOptions{
		Reconnect:            true,
		ReconnectDelay:       5_000,
		MaxReconnectAttempts: 0,
		KeepAlive:            30_000,
	}
}

// WebSocketTransport maintains a single persistent connection,
// correlating request/response by id and routing subscription
// notifications to registered handlers.
type WebSocketTransport struct {
	url  string
	opts WSOptions
	log  *logrus.Logger

	onConnect    func()
	onDisconnect func()
	onReconnect  func()

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[int64]chan *jsonrpc.Response
	subs    map[string][]SubscriptionHandler
	lastRX  time.Time
	closed  bool
}

// NewWebSocketTransport builds a WebSocket transport against url. The
// connection is established lazily on the first Connect call.
func NewWebSocketTransport(url string, opts Options, wsOpts WSOptions) *WebSocketTransport {
	return &WebSocketTransport{
		url:     url,
		opts:    wsOpts,
		log:     opts.logger(),
		pending: make(map[int64]chan *jsonrpc.Response),
		subs:    make(map[string][]SubscriptionHandler),
	}
}

// OnConnect registers a hook fired after the initial connection and
// every successful reconnect.
func (t *WebSocketTransport) OnConnect(f func()) { t.onConnect = f }

// OnDisconnect registers a hook fired when the connection drops.
func (t *WebSocketTransport) OnDisconnect(f func()) { t.onDisconnect = f }

// OnReconnect registers a hook fired after a reconnect so the provider
// can resubscribe to anything it had open.
func (t *WebSocketTransport) OnReconnect(f func()) { t.onReconnect = f }

// Connect dials the endpoint and starts the read/keep-alive loops.
func (t *WebSocketTransport) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return apierror.Wrap(apierror.KindNetworkError, "websocket dial failed", err)
	}
	t.mu.Lock()
	t.conn = conn
	t.lastRX = time.Now()
	t.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		t.mu.Lock()
		t.lastRX = time.Now()
		t.mu.Unlock()
		return nil
	})

	go t.readLoop()
	if t.opts.KeepAlive > 0 {
		go t.keepAliveLoop()
	}
	if t.onConnect != nil {
		t.onConnect()
	}
	return nil
}

// Subscribe registers handler to receive notifications addressed to
// subscriptionID.
func (t *WebSocketTransport) Subscribe(subscriptionID string, handler SubscriptionHandler) {
	t.mu.Lock()
	t.subs[subscriptionID] = append(t.subs[subscriptionID], handler)
	t.mu.Unlock()
}

// Unsubscribe drops every handler registered for subscriptionID.
func (t *WebSocketTransport) Unsubscribe(subscriptionID string) {
	t.mu.Lock()
	delete(t.subs, subscriptionID)
	t.mu.Unlock()
}

// Request sends one JSON-RPC request over the socket and waits for its
// matching response by id until ctx is done. The Options.Timeout given
// to NewWebSocketTransport is not applied; only ctx bounds the wait.
func (t *WebSocketTransport) Request(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		return nil, apierror.New(apierror.KindNetworkError, "websocket not connected")
	}
	ch := make(chan *jsonrpc.Response, 1)
	t.pending[req.ID] = ch
	t.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		t.dropPending(req.ID)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		t.dropPending(req.ID)
		return nil, apierror.Wrap(apierror.KindNetworkError, "websocket write failed", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, apierror.New(apierror.KindNetworkError, "websocket connection dropped")
		}
		return resp, nil
	case <-ctx.Done():
		t.dropPending(req.ID)
		return nil, apierror.New(apierror.KindNetworkError, "pending request timed out")
	}
}

// RequestBatch has no native batching over WebSocket; requests are
// issued concurrently and collected in order.
func (t *WebSocketTransport) RequestBatch(ctx context.Context, reqs jsonrpc.Batch) ([]*jsonrpc.Response, error) {
	out := make([]*jsonrpc.Response, len(reqs))
	errs := make([]error, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req *jsonrpc.Request) {
			defer wg.Done()
			resp, err := t.Request(ctx, req)
			out[i] = resp
			errs[i] = err
		}(i, req)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Close tears down the connection and fails every pending request.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (t *WebSocketTransport) dropPending(id int64) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

func (t *WebSocketTransport) readLoop() {
	for {
		t.mu.Lock()
		conn := t.conn
		closed := t.closed
		t.mu.Unlock()
		if closed || conn == nil {
			return
		}

		typ, msg, err := conn.ReadMessage()
		if err != nil {
			t.log.WithError(err).Warn("starknet websocket read failed")
			t.handleDisconnect()
			return
		}
		if typ != websocket.TextMessage {
			continue
		}

		t.mu.Lock()
		t.lastRX = time.Now()
		t.mu.Unlock()

		t.dispatch(msg)
	}
}

func (t *WebSocketTransport) dispatch(msg []byte) {
	var envelope struct {
		Method string `json:"method"`
		Params struct {
			SubscriptionID json.RawMessage `json:"subscription_id"`
			Subscription   json.RawMessage `json:"subscription"`
			Result         json.RawMessage `json:"result"`
		} `json:"params"`
	}
	if err := json.Unmarshal(msg, &envelope); err == nil && envelope.Method == subscriptionMethod {
		id := string(envelope.Params.SubscriptionID)
		if id == "" || id == "null" {
			id = string(envelope.Params.Subscription)
		}
		id = trimQuotes(id)

		t.mu.Lock()
		handlers := append([]SubscriptionHandler(nil), t.subs[id]...)
		t.mu.Unlock()
		for _, h := range handlers {
			h(envelope.Params.Result)
		}
		return
	}

	var resp jsonrpc.Response
	if err := json.Unmarshal(msg, &resp); err != nil {
		t.log.WithError(err).Debug("starknet websocket received unparseable message")
		return
	}
	t.mu.Lock()
	ch, ok := t.pending[resp.ID]
	if ok {
		delete(t.pending, resp.ID)
	}
	t.mu.Unlock()
	if ok {
		ch <- &resp
	}
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func (t *WebSocketTransport) keepAliveLoop() {
	interval := time.Duration(t.opts.KeepAlive) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		t.mu.Lock()
		conn := t.conn
		closed := t.closed
		idle := time.Since(t.lastRX)
		t.mu.Unlock()
		if closed || conn == nil {
			return
		}
		if idle > 2*interval {
			t.log.Warn("starknet websocket keep-alive timeout, reconnecting")
			t.handleDisconnect()
			return
		}
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			t.log.WithError(err).Warn("starknet websocket ping failed")
			t.handleDisconnect()
			return
		}
	}
}

func (t *WebSocketTransport) handleDisconnect() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	pending := t.pending
	t.pending = make(map[int64]chan *jsonrpc.Response)
	closed := t.closed
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	for _, ch := range pending {
		close(ch)
	}

	if t.onDisconnect != nil {
		t.onDisconnect()
	}
	if closed || !t.opts.Reconnect {
		return
	}

	go t.reconnectLoop()
}

func (t *WebSocketTransport) reconnectLoop() {
	attempts := 0
	delay := time.Duration(t.opts.ReconnectDelay) * time.Millisecond
	for {
		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return
		}
		if t.opts.MaxReconnectAttempts > 0 && attempts >= t.opts.MaxReconnectAttempts {
			t.log.Warn("starknet websocket giving up reconnecting")
			return
		}
		attempts++
		time.Sleep(delay)

		if err := t.Connect(context.Background()); err != nil {
			t.log.WithError(err).WithField("attempt", attempts).Warn("starknet websocket reconnect failed")
			continue
		}
		if t.onReconnect != nil {
			t.onReconnect()
		}
		return
	}
}
