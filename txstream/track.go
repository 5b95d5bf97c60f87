package txstream

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/provider"
)

// TrackEvent is one observation of Track's polling loop: "pending"
// while the transaction has not reached the requested confirmation
// depth, "confirmed" once it has, "dropped" if it is given up on, or
// "error" when the receipt lookup fails with a non-pending RPC error.
type TrackEvent struct {
	Type          string
	PollCount     int
	Status        json.RawMessage
	Receipt       json.RawMessage
	Transaction   json.RawMessage
	Confirmations uint64
	Reason        string
	Err           error
}

type receiptShape struct {
	BlockNumber *uint64 `json:"block_number"`
}

func isPendingRPCError(err error) bool {
	apiErr, ok := err.(*apierror.Error)
	if !ok {
		return false
	}
	if ignorableTxCode(apiErr.Code) {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not received") || strings.Contains(msg, "pending")
}

// Track polls starknet_getTransactionReceipt for hash until it is
// confirmed to opts.Confirmations depth, dropped, or an "error" event
// is emitted, then terminates.
func Track(ctx context.Context, p *provider.Provider, hash felt.Felt252, opts TrackOptions) *Stream[TrackEvent] {
	opts = opts.withDefaults()
	runCtx, cancel := context.WithCancel(ctx)
	s, ch := newStream[TrackEvent](16, cancel)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(opts.PollInterval)
		defer ticker.Stop()

		pollCount := 0
		for {
			pollCount++
			event, terminal := trackPoll(runCtx, p, hash, opts, pollCount)
			select {
			case ch <- event:
			case <-runCtx.Done():
				return
			}
			if terminal {
				return
			}
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return s
}

func trackPoll(ctx context.Context, p *provider.Provider, hash felt.Felt252, opts TrackOptions, pollCount int) (TrackEvent, bool) {
	event, terminal := classifyTrackPoll(ctx, p, hash, opts, pollCount)
	if event.Type == "pending" && opts.MaxPendingPolls > 0 && pollCount >= opts.MaxPendingPolls {
		return TrackEvent{Type: "dropped", PollCount: pollCount, Reason: "max pending polls exceeded"}, true
	}
	return event, terminal
}

func classifyTrackPoll(ctx context.Context, p *provider.Provider, hash felt.Felt252, opts TrackOptions, pollCount int) (TrackEvent, bool) {
	receipt, err := p.GetTransactionReceipt(ctx, hash)
	if err == nil {
		var shape receiptShape
		if jerr := json.Unmarshal(receipt, &shape); jerr == nil && shape.BlockNumber != nil {
			chainHead, herr := p.BlockNumber(ctx)
			if herr != nil {
				return TrackEvent{Type: "pending", PollCount: pollCount}, false
			}
			observed := uint64(0)
			if chainHead+1 >= *shape.BlockNumber {
				observed = chainHead - *shape.BlockNumber + 1
			}
			if observed < opts.Confirmations {
				status, _ := p.GetTransactionStatus(ctx, hash)
				return TrackEvent{Type: "pending", PollCount: pollCount, Status: status}, false
			}
			tx, _ := p.GetTransactionByHash(ctx, hash)
			return TrackEvent{
				Type:          "confirmed",
				Receipt:       receipt,
				Transaction:   tx,
				Confirmations: observed,
			}, true
		}
	}

	if err != nil && isPendingRPCError(err) {
		status, _ := p.GetTransactionStatus(ctx, hash)
		return TrackEvent{Type: "pending", PollCount: pollCount, Status: status}, false
	}
	if err != nil {
		wrapped := apierror.Wrap(apierror.KindTransactionStream, "transaction receipt lookup failed", err)
		return TrackEvent{Type: "error", PollCount: pollCount, Err: wrapped}, true
	}
	return TrackEvent{Type: "pending", PollCount: pollCount}, false
}
