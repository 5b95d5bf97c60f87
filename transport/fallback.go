package transport

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/jsonrpc"
)

// FallbackOptions configures the Fallback transport's retry-per-
// sub-transport and ranking behaviour.
type FallbackOptions struct {
	RetryCount int
	RetryDelay int64 // milliseconds
	Rank       bool
}

// FallbackTransport wraps an ordered list of sub-transports, trying
// each in turn and, when Rank is enabled, promoting the best
// performer to the head of the list after every call.
type FallbackTransport struct {
	opts FallbackOptions
	log  *logrus.Logger

	mu         sync.Mutex
	transports []*rankedTransport
}

type rankedTransport struct {
	t        Transport
	attempts int
	failures int
}

func (r *rankedTransport) successRate() float64 {
	if r.attempts == 0 {
		return 1
	}
	return float64(r.attempts-r.failures) / float64(r.attempts)
}

// NewFallbackTransport builds a Fallback transport over transports, in
// priority order.
func NewFallbackTransport(transports []Transport, opts FallbackOptions, logger *logrus.Logger) *FallbackTransport {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	ranked := make([]*rankedTransport, len(transports))
	for i, t := range transports {
		ranked[i] = &rankedTransport{t: t}
	}
	return &FallbackTransport{opts: opts, log: logger, transports: ranked}
}

// Request attempts each sub-transport in order, retrying each
// RetryCount times with RetryDelay between attempts, until one
// succeeds.
func (f *FallbackTransport) Request(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	resp, err := doFallback(ctx, f, func(t Transport) (*jsonrpc.Response, error) {
		return t.Request(ctx, req)
	})
	return resp, err
}

// RequestBatch attempts each sub-transport in order for the whole
// batch.
func (f *FallbackTransport) RequestBatch(ctx context.Context, reqs jsonrpc.Batch) ([]*jsonrpc.Response, error) {
	return doFallback(ctx, f, func(t Transport) ([]*jsonrpc.Response, error) {
		return t.RequestBatch(ctx, reqs)
	})
}

// Close closes every sub-transport, returning the first error
// encountered (if any), after attempting all of them.
func (f *FallbackTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var first error
	for _, r := range f.transports {
		if err := r.t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func doFallback[R any](ctx context.Context, f *FallbackTransport, call func(Transport) (R, error)) (R, error) {
	f.mu.Lock()
	ordered := append([]*rankedTransport(nil), f.transports...)
	f.mu.Unlock()

	var zero R
	for _, r := range ordered {
		attempts := f.opts.RetryCount + 1
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				select {
				case <-time.After(time.Duration(f.opts.RetryDelay) * time.Millisecond):
				case <-ctx.Done():
					return zero, ctx.Err()
				}
			}
			result, err := call(r.t)
			f.record(r, err == nil)
			if err == nil {
				if f.opts.Rank {
					f.promote(r)
				}
				return result, nil
			}
			f.log.WithError(err).Debug("starknet fallback transport attempt failed")
		}
	}
	return zero, apierror.New(apierror.KindNetworkError, "All transports failed")
}

func (f *FallbackTransport) record(r *rankedTransport, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.attempts++
	if !ok {
		r.failures++
	}
}

// promote moves r to the front of the list when its success rate is
// the best among the known transports.
func (f *FallbackTransport) promote(r *rankedTransport) {
	f.mu.Lock()
	defer f.mu.Unlock()

	best := r
	for _, other := range f.transports {
		if other.successRate() > best.successRate() {
			best = other
		}
	}
	if best == f.transports[0] {
		return
	}
	reordered := make([]*rankedTransport, 0, len(f.transports))
	reordered = append(reordered, best)
	for _, t := range f.transports {
		if t != best {
			reordered = append(reordered, t)
		}
	}
	f.transports = reordered
}
