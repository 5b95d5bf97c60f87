package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/jsonrpc"
)

// HTTPTransport sends JSON-RPC requests over a plain HTTP POST
// endpoint, coalescing concurrent single requests into batches and
// retrying failed attempts with exponential backoff.
type HTTPTransport struct {
	url    string
	client *http.Client
	opts   Options
	log    *logrus.Logger

	mu      sync.Mutex
	pending []*batchEntry
	timer   *time.Timer
}

type batchEntry struct {
	req  *jsonrpc.Request
	done chan batchResult
}

type batchResult struct {
	resp *jsonrpc.Response
	err  error
}

// NewHTTPTransport builds an HTTP transport against url using opts for
// retry, timeout and batching. A zero Options means no retries, no
// per-attempt timeout and no batching.
func NewHTTPTransport(url string, opts Options) *HTTPTransport {
	return &HTTPTransport{
		url:    url,
		client: &http.Client{},
		opts:   opts,
		log:    opts.logger(),
	}
}

// Request sends a single JSON-RPC request, coalescing it into an
// in-flight batch when batching is enabled.
func (t *HTTPTransport) Request(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	if t.opts.Batch == nil {
		return t.requestWithRetry(ctx, req)
	}
	return t.enqueue(ctx, req)
}

// RequestBatch sends reqs as a single JSON array body and reorders the
// responses to match request order, regardless of whether batching is
// enabled for single-request calls.
func (t *HTTPTransport) RequestBatch(ctx context.Context, reqs jsonrpc.Batch) ([]*jsonrpc.Response, error) {
	resp, err := t.sendWithRetry(ctx, reqs)
	if err != nil {
		return nil, err
	}
	return jsonrpc.MatchResponses(reqs, resp), nil
}

// Close is a no-op for the HTTP transport; http.Client has no explicit
// teardown.
func (t *HTTPTransport) Close() error { return nil }

// enqueue adds req to the pending batch, flushing immediately at
// BatchSize and otherwise after BatchWait (or on the next task
// boundary when BatchWait is zero).
func (t *HTTPTransport) enqueue(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	entry := &batchEntry{req: req, done: make(chan batchResult, 1)}

	t.mu.Lock()
	t.pending = append(t.pending, entry)
	flushNow := len(t.pending) >= t.opts.Batch.BatchSize
	if flushNow {
		t.flushLocked()
	} else if t.timer == nil {
		wait := time.Duration(t.opts.Batch.BatchWait) * time.Millisecond
		if wait <= 0 {
			// "flush on next task boundary": schedule on the runtime's
			// next scheduling opportunity rather than synchronously, so
			// other goroutines queued in this tick still join the batch.
			wait = time.Microsecond
		}
		t.timer = time.AfterFunc(wait, t.flush)
	}
	t.mu.Unlock()

	select {
	case r := <-entry.done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *HTTPTransport) flush() {
	t.mu.Lock()
	t.flushLocked()
	t.mu.Unlock()
}

// flushLocked drains the pending queue and resolves it as one batch.
// Must be called with t.mu held.
func (t *HTTPTransport) flushLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	batch := t.pending
	t.pending = nil
	if len(batch) == 0 {
		return
	}
	go t.resolveBatch(batch)
}

func (t *HTTPTransport) resolveBatch(batch []*batchEntry) {
	reqs := make(jsonrpc.Batch, len(batch))
	for i, e := range batch {
		reqs[i] = e.req
	}

	ctx := context.Background()
	resp, err := t.sendWithRetry(ctx, reqs)
	if err != nil {
		for _, e := range batch {
			e.done <- batchResult{err: err}
		}
		return
	}
	matched := jsonrpc.MatchResponses(reqs, resp)
	for i, e := range batch {
		e.done <- batchResult{resp: matched[i]}
	}
}

// requestWithRetry sends a single request (no batching) with retry.
func (t *HTTPTransport) requestWithRetry(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	resp, err := t.sendWithRetry(ctx, jsonrpc.Batch{req})
	if err != nil {
		return nil, err
	}
	matched := jsonrpc.MatchResponses(jsonrpc.Batch{req}, resp)
	return matched[0], nil
}

// sendWithRetry performs the HTTP round trip, retrying up to
// opts.Retries times with exponential backoff. A caller cancellation
// bypasses further retry.
func (t *HTTPTransport) sendWithRetry(ctx context.Context, reqs jsonrpc.Batch) ([]*jsonrpc.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= t.opts.Retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(t.opts.RetryDelay) * time.Millisecond * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			t.log.WithFields(logrus.Fields{"attempt": attempt}).Debug("retrying starknet JSON-RPC request")
		}

		resp, err := t.send(ctx, reqs)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		t.log.WithError(err).Warn("starknet JSON-RPC request failed")
	}
	return nil, apierror.Wrap(apierror.KindNetworkError, "request failed after retries", lastErr)
}

func (t *HTTPTransport) send(ctx context.Context, reqs jsonrpc.Batch) ([]*jsonrpc.Response, error) {
	var body []byte
	var err error
	if len(reqs) == 1 {
		body, err = json.Marshal(reqs[0])
	} else {
		body, err = json.Marshal(reqs)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if t.opts.Timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, time.Duration(t.opts.Timeout)*time.Millisecond)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(respBody))
	}

	if len(reqs) == 1 {
		var single jsonrpc.Response
		if err := json.Unmarshal(respBody, &single); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return []*jsonrpc.Response{&single}, nil
	}

	var batch []*jsonrpc.Response
	if err := json.Unmarshal(respBody, &batch); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	return batch, nil
}
