package txstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/provider"
)

// PendingEvent is one new pending transaction observed by WatchPending.
type PendingEvent struct {
	TransactionHash string
	Transaction     json.RawMessage
}

type txMeta struct {
	TransactionHash string `json:"transaction_hash"`
	SenderAddress   string `json:"sender_address"`
	Type            string `json:"type"`
}

// ignorableTxCode reports whether an RPC error code is one watchPending
// treats as "not available yet" rather than a terminal failure:
// BLOCK_NOT_FOUND(24), INVALID_TRANSACTION_HASH(25),
// TRANSACTION_HASH_NOT_FOUND(29).
func ignorableTxCode(code int) bool {
	switch code {
	case 24, 25, 29:
		return true
	}
	return false
}

// WatchPending yields newly seen pending transactions matching opts'
// filter, deduped against a bounded SeenState. In polling mode it
// re-fetches the pending block on PollInterval; in WebSocket mode it
// subscribes to starknet_subscribePendingTransactions and resolves
// hash-only notifications via GetTransactionByHash.
func WatchPending(ctx context.Context, p *provider.Provider, opts PendingOptions) *Stream[PendingEvent] {
	opts = opts.withDefaults()
	if opts.UseWebSocket {
		return watchPendingWS(ctx, p, opts)
	}
	return watchPendingPoll(ctx, p, opts)
}

func watchPendingPoll(ctx context.Context, p *provider.Provider, opts PendingOptions) *Stream[PendingEvent] {
	runCtx, cancel := context.WithCancel(ctx)
	s, ch := newStream[PendingEvent](256, cancel)
	seen := NewSeenState(opts.MaxSeenTransactions)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(opts.PollInterval)
		defer ticker.Stop()
		poll(runCtx, p, opts, seen, ch)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				poll(runCtx, p, opts, seen, ch)
			}
		}
	}()
	return s
}

func poll(ctx context.Context, p *provider.Provider, opts PendingOptions, seen *SeenState, ch chan<- PendingEvent) {
	raw, err := p.GetBlockWithTxs(ctx, provider.BlockPending())
	if err != nil {
		return
	}
	var block struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &block); err != nil {
		return
	}
	for _, txRaw := range block.Transactions {
		var meta txMeta
		if err := json.Unmarshal(txRaw, &meta); err != nil {
			continue
		}
		if !opts.Filter.matches(meta.SenderAddress, meta.Type) {
			continue
		}
		if !seen.Add(meta.TransactionHash) {
			continue
		}
		select {
		case ch <- PendingEvent{TransactionHash: meta.TransactionHash, Transaction: txRaw}:
		case <-ctx.Done():
			return
		}
	}
}

func watchPendingWS(ctx context.Context, p *provider.Provider, opts PendingOptions) *Stream[PendingEvent] {
	runCtx, cancel := context.WithCancel(ctx)
	sub, err := p.SubscribePendingTransactions(runCtx, opts.Filter.SenderAddress)
	s, ch := newStream[PendingEvent](256, func() {
		if sub != nil {
			sub.Close()
		}
		cancel()
	})
	if err != nil {
		close(ch)
		return s
	}

	seen := NewSeenState(opts.MaxSeenTransactions)
	go func() {
		defer close(ch)
		for {
			payload, ok := sub.Recv(runCtx)
			if !ok {
				return
			}
			event, ok := resolvePendingNotification(runCtx, p, payload)
			if !ok {
				continue
			}
			var meta txMeta
			_ = json.Unmarshal(event.Transaction, &meta)
			if !opts.Filter.matches(meta.SenderAddress, meta.Type) {
				continue
			}
			if !seen.Add(event.TransactionHash) {
				continue
			}
			select {
			case ch <- event:
			case <-runCtx.Done():
				return
			}
		}
	}()
	return s
}

// resolvePendingNotification normalises a pendingTransactions
// notification payload: it may be a bare hash string (fetch the full
// transaction) or the full transaction object already.
func resolvePendingNotification(ctx context.Context, p *provider.Provider, payload json.RawMessage) (PendingEvent, bool) {
	var hash string
	if err := json.Unmarshal(payload, &hash); err == nil && hash != "" {
		f, err := felt.FromHex(hash)
		if err != nil {
			return PendingEvent{}, false
		}
		tx, err := p.GetTransactionByHash(ctx, f)
		if err != nil {
			if apiErr, ok := err.(*apierror.Error); ok && ignorableTxCode(apiErr.Code) {
				return PendingEvent{}, false
			}
			return PendingEvent{}, false
		}
		return PendingEvent{TransactionHash: hash, Transaction: tx}, true
	}

	var meta txMeta
	if err := json.Unmarshal(payload, &meta); err != nil || meta.TransactionHash == "" {
		return PendingEvent{}, false
	}
	return PendingEvent{TransactionHash: meta.TransactionHash, Transaction: payload}, true
}
