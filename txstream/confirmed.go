package txstream

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NethermindEth/starknet-go-client/provider"
)

// ConfirmedEvent is one transaction observed in a confirmed block.
type ConfirmedEvent struct {
	Type          string
	Transaction   json.RawMessage
	BlockNumber   uint64
	BlockHash     string
	Confirmations uint64
}

type blockWithTxs struct {
	BlockHash    string            `json:"block_hash"`
	BlockNumber  uint64            `json:"block_number"`
	Transactions []json.RawMessage `json:"transactions"`
}

// WatchConfirmed yields transactions once they reach opts.Confirmations
// block depth, tracking a monotone cursor across polls/notifications.
// In WebSocket mode a reorg notification resets the cursor and clears
// the dedup set; polling mode does not detect reorgs.
func WatchConfirmed(ctx context.Context, p *provider.Provider, opts ConfirmedOptions) *Stream[ConfirmedEvent] {
	opts = opts.withDefaults()
	if opts.UseWebSocket {
		return watchConfirmedWS(ctx, p, opts)
	}
	return watchConfirmedPoll(ctx, p, opts)
}

type confirmedCore struct {
	opts   ConfirmedOptions
	seen   *SeenState
	cursor *int64
}

func newConfirmedCore(opts ConfirmedOptions) *confirmedCore {
	var cursor *int64
	if opts.FromBlock != nil {
		v := int64(*opts.FromBlock)
		cursor = &v
	}
	return &confirmedCore{opts: opts, seen: NewSeenState(opts.MaxSeenTransactions), cursor: cursor}
}

func (c *confirmedCore) reorg(startingBlockNumber uint64) {
	floor := int64(0)
	if c.opts.FromBlock != nil {
		floor = int64(*c.opts.FromBlock)
	}
	reset := floor
	if int64(startingBlockNumber) > reset {
		reset = int64(startingBlockNumber)
	}
	c.cursor = &reset
	c.seen.Clear()
}

func (c *confirmedCore) tick(ctx context.Context, p *provider.Provider, ch chan<- ConfirmedEvent) {
	chainHead, err := p.BlockNumber(ctx)
	if err != nil {
		return
	}
	confirmedHead := int64(chainHead) - int64(c.opts.Confirmations) + 1
	if confirmedHead < 0 {
		return
	}
	startBlock := confirmedHead
	if c.cursor != nil {
		startBlock = *c.cursor
	}
	if startBlock > confirmedHead {
		return
	}

	blocks := make([]*blockWithTxs, confirmedHead-startBlock+1)
	g, gctx := errgroup.WithContext(ctx)
	for i := startBlock; i <= confirmedHead; i++ {
		i := i
		idx := i - startBlock
		g.Go(func() error {
			num := uint64(i)
			raw, err := p.GetBlockWithTxs(gctx, provider.BlockByNumber(num))
			if err != nil {
				return err
			}
			var b blockWithTxs
			if err := json.Unmarshal(raw, &b); err != nil {
				return err
			}
			blocks[idx] = &b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return
	}

	for _, b := range blocks {
		if b == nil {
			continue
		}
		confirmations := uint64(0)
		if chainHead+1 >= b.BlockNumber {
			confirmations = chainHead - b.BlockNumber + 1
		}
		for _, txRaw := range b.Transactions {
			var meta txMeta
			if err := json.Unmarshal(txRaw, &meta); err != nil {
				continue
			}
			if !c.opts.Filter.matches(meta.SenderAddress, meta.Type) {
				continue
			}
			if !c.seen.Add(meta.TransactionHash) {
				continue
			}
			event := ConfirmedEvent{
				Type:          "confirmed",
				Transaction:   txRaw,
				BlockNumber:   b.BlockNumber,
				BlockHash:     b.BlockHash,
				Confirmations: confirmations,
			}
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}

	next := confirmedHead + 1
	c.cursor = &next
}

func watchConfirmedPoll(ctx context.Context, p *provider.Provider, opts ConfirmedOptions) *Stream[ConfirmedEvent] {
	runCtx, cancel := context.WithCancel(ctx)
	s, ch := newStream[ConfirmedEvent](256, cancel)
	core := newConfirmedCore(opts)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(opts.PollInterval)
		defer ticker.Stop()
		core.tick(runCtx, p, ch)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				core.tick(runCtx, p, ch)
			}
		}
	}()
	return s
}

func watchConfirmedWS(ctx context.Context, p *provider.Provider, opts ConfirmedOptions) *Stream[ConfirmedEvent] {
	runCtx, cancel := context.WithCancel(ctx)
	sub, err := p.SubscribeNewHeads(runCtx, provider.BlockLatest())
	s, ch := newStream[ConfirmedEvent](256, func() {
		if sub != nil {
			sub.Close()
		}
		cancel()
	})
	if err != nil {
		close(ch)
		return s
	}

	core := newConfirmedCore(opts)
	go func() {
		defer close(ch)
		for {
			payload, ok := sub.Recv(runCtx)
			if !ok {
				return
			}
			if provider.IsReorg(payload) {
				var reorg provider.ReorgEvent
				if err := json.Unmarshal(payload, &reorg); err == nil {
					core.reorg(reorg.StartingBlockNumber)
				}
				continue
			}
			core.tick(runCtx, p, ch)
		}
	}()
	return s
}
