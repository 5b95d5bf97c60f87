// Package transport implements the JSON-RPC transport layer: an HTTP
// transport with auto-batching and retry, a WebSocket transport with
// reconnect and subscription routing, and a Fallback transport that
// wraps an ordered list of sub-transports. This is the concurrency
// core of the client; everything above it (provider, account, streams)
// talks to a Transport rather than a socket directly.
package transport

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/NethermindEth/starknet-go-client/jsonrpc"
)

// Transport sends one or many JSON-RPC requests and returns responses.
// Implementations never return a transport-level error for a request
// that reached the node and got an error response: that case is
// carried in Response.Error. The returned error is reserved for
// transport failure (network, timeout, exhausted retries) and is an
// *apierror.Error wrapping NETWORK_ERROR, except that a cancelled
// caller context is returned as ctx.Err() and a request that cannot be
// marshalled is returned as a plain wrapped error.
type Transport interface {
	Request(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)
	RequestBatch(ctx context.Context, reqs jsonrpc.Batch) ([]*jsonrpc.Response, error)
	Close() error
}

// Options configures retry, timeout and batching behaviour shared by
// the HTTP and WebSocket transports.
type Options struct {
	// Timeout bounds a single attempt. Zero means no per-attempt timeout.
	Timeout int64 // milliseconds

	// Retries is the number of additional attempts after the first
	// failure. RetryDelay is the base of the exponential backoff
	// (retryDelay * 2^attempt).
	Retries    int
	RetryDelay int64 // milliseconds

	// Batch, when non-nil, enables HTTP auto-batching.
	Batch *BatchOptions

	// Logger receives structured transport events. A nil Logger is
	// replaced with a logrus.Logger at the warn level so a caller who
	// does not care about transport logging pays nothing.
	Logger *logrus.Logger
}

// BatchOptions configures HTTP auto-batch coalescing.
type BatchOptions struct {
	// BatchWait is the coalescing window in milliseconds. Zero means
	// "flush on next task boundary" (a single scheduler tick).
	BatchWait int64
	// BatchSize is the maximum number of requests per batch.
	BatchSize int
}

// DefaultOptions mirrors the client-wide option defaults: no retry, a
// 30s timeout, batching disabled.
func DefaultOptions() Options {
	return Options{
		Timeout:    30_000,
		Retries:    0,
		RetryDelay: 1_000,
	}
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}
