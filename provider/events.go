package provider

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/jsonrpc"
	"github.com/NethermindEth/starknet-go-client/transport"
)

// Subscription is a lazy sequence of typed notification payloads
// backed by a WebSocket subscription. Consume via Recv; call Close to
// unsubscribe and stop delivery.
type Subscription struct {
	ch     chan json.RawMessage
	cancel func()
	once   sync.Once
}

// subscriptionEntry is the provider's bookkeeping for one live
// subscription: the call that created it, kept around so it can be
// reissued verbatim against a fresh connection, and the current
// subscription id, which changes on every resubscribe.
type subscriptionEntry struct {
	mu     sync.Mutex
	method string
	params any
	subID  string
	ch     chan json.RawMessage
}

func (e *subscriptionEntry) deliver(result json.RawMessage) {
	select {
	case e.ch <- result:
	default:
		// Same backpressure rule as subscribe's handler: drop rather
		// than block the transport's single read loop.
	}
}

func (e *subscriptionEntry) currentID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subID
}

// Recv blocks for the next notification, or returns ok=false once the
// subscription is closed.
func (s *Subscription) Recv(ctx context.Context) (json.RawMessage, bool) {
	select {
	case msg, ok := <-s.ch:
		return msg, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Close unsubscribes and drops the notification queue.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// subscribe issues a starknet_subscribe* call over a WebSocket
// transport and wires the returned subscription id to a per-call
// queue, matching the provider & RPC methods design's "subscribe,
// push into a per-subscription queue, yield from the queue" shape.
func (p *Provider) subscribe(ctx context.Context, method string, params any) (*Subscription, error) {
	ws, ok := p.t.(*transport.WebSocketTransport)
	if !ok {
		return nil, apierror.New(apierror.KindNetworkError, method+" requires a WebSocket transport")
	}

	var subID string
	if err := p.call(ctx, method, params, &subID); err != nil {
		return nil, err
	}

	ch := make(chan json.RawMessage, 64)
	entry := &subscriptionEntry{method: method, params: params, subID: subID, ch: ch}
	ws.Subscribe(subID, entry.deliver)
	p.trackSubscription(ws, entry)

	sub := &Subscription{ch: ch}
	sub.cancel = func() {
		p.untrackSubscription(entry)
		id := entry.currentID()
		ws.Unsubscribe(id)
		unsubReq := jsonrpc.NewRequest("starknet_unsubscribe", []any{id})
		_, _ = ws.Request(context.Background(), unsubReq)
		close(ch)
	}
	return sub, nil
}

// trackSubscription records entry so a later reconnect can replay its
// starknet_subscribe* call, and registers the provider's single
// resubscribeAll hook with ws the first time any subscription is made
// (transport.WebSocketTransport.OnReconnect keeps only the most recent
// hook, so the provider must own exactly one).
func (p *Provider) trackSubscription(ws *transport.WebSocketTransport, entry *subscriptionEntry) {
	p.subsMu.Lock()
	if p.subs == nil {
		p.subs = make(map[*subscriptionEntry]struct{})
	}
	p.subs[entry] = struct{}{}
	p.subsMu.Unlock()

	p.reconnectHookOnce.Do(func() {
		ws.OnReconnect(func() { p.resubscribeAll(ws) })
	})
}

func (p *Provider) untrackSubscription(entry *subscriptionEntry) {
	p.subsMu.Lock()
	delete(p.subs, entry)
	p.subsMu.Unlock()
}

// resubscribeAll reissues every tracked subscription's starknet_subscribe*
// call over the newly (re)established connection ws and rebinds each
// entry's delivery channel to the fresh subscription id, so a caller
// blocked on Subscription.Recv keeps receiving notifications across a
// reconnect instead of silently stalling.
func (p *Provider) resubscribeAll(ws *transport.WebSocketTransport) {
	p.subsMu.Lock()
	entries := make([]*subscriptionEntry, 0, len(p.subs))
	for e := range p.subs {
		entries = append(entries, e)
	}
	p.subsMu.Unlock()

	for _, entry := range entries {
		entry.mu.Lock()
		oldID := entry.subID
		method := entry.method
		params := entry.params
		entry.mu.Unlock()

		var newID string
		if err := p.call(context.Background(), method, params, &newID); err != nil {
			continue
		}

		ws.Unsubscribe(oldID)
		ws.Subscribe(newID, entry.deliver)

		entry.mu.Lock()
		entry.subID = newID
		entry.mu.Unlock()
	}
}

// SubscribeNewHeads subscribes to new block headers.
func (p *Provider) SubscribeNewHeads(ctx context.Context, block BlockID) (*Subscription, error) {
	return p.subscribe(ctx, "starknet_subscribeNewHeads", []any{block})
}

// SubscribeEvents subscribes to contract events, optionally filtered
// by address and keys.
func (p *Provider) SubscribeEvents(ctx context.Context, address string, keys [][]string) (*Subscription, error) {
	params := map[string]any{}
	if address != "" {
		params["from_address"] = address
	}
	if len(keys) > 0 {
		params["keys"] = keys
	}
	return p.subscribe(ctx, "starknet_subscribeEvents", []any{params})
}

// SubscribeTransactionStatus subscribes to status updates for a single
// transaction hash.
func (p *Provider) SubscribeTransactionStatus(ctx context.Context, txHash string) (*Subscription, error) {
	return p.subscribe(ctx, "starknet_subscribeTransactionStatus", []any{txHash})
}

// SubscribePendingTransactions subscribes to pending transactions,
// optionally constrained to a sender address.
func (p *Provider) SubscribePendingTransactions(ctx context.Context, senderAddress string) (*Subscription, error) {
	params := map[string]any{}
	if senderAddress != "" {
		params["sender_address"] = []string{senderAddress}
	}
	return p.subscribe(ctx, "starknet_subscribePendingTransactions", []any{params})
}

// SubscribeNewTransactionReceipts subscribes to newly produced
// transaction receipts.
func (p *Provider) SubscribeNewTransactionReceipts(ctx context.Context) (*Subscription, error) {
	return p.subscribe(ctx, "starknet_subscribeNewTransactionReceipts", []any{})
}

// IsReorg recognises a reorg notification structurally: it carries
// starting/ending block number and starting block hash fields, with no
// dedicated subscription kind of its own.
func IsReorg(payload json.RawMessage) bool {
	s := string(payload)
	return strings.Contains(s, `"starting_block_number"`) &&
		strings.Contains(s, `"ending_block_number"`) &&
		strings.Contains(s, `"starting_block_hash"`)
}

// ReorgEvent is the structural shape of a reorg notification.
type ReorgEvent struct {
	StartingBlockNumber uint64 `json:"starting_block_number"`
	StartingBlockHash   string `json:"starting_block_hash"`
	EndingBlockNumber   uint64 `json:"ending_block_number"`
	EndingBlockHash     string `json:"ending_block_hash"`
}
