package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/jsonrpc"
)

type fakeTransport struct {
	name   string
	fail   bool
	calls  int
	closed bool
}

func (f *fakeTransport) Request(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	f.calls++
	if f.fail {
		return nil, errors.New(f.name + " unreachable")
	}
	return &jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID}, nil
}

func (f *fakeTransport) RequestBatch(ctx context.Context, reqs jsonrpc.Batch) ([]*jsonrpc.Response, error) {
	out := make([]*jsonrpc.Response, len(reqs))
	for i, r := range reqs {
		resp, err := f.Request(ctx, r)
		if err != nil {
			return nil, err
		}
		out[i] = resp
	}
	return out, nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func TestFallbackTransportFallsThroughToSecondTransport(t *testing.T) {
	primary := &fakeTransport{name: "primary", fail: true}
	secondary := &fakeTransport{name: "secondary"}

	fb := NewFallbackTransport([]Transport{primary, secondary}, FallbackOptions{RetryCount: 0}, nil)
	resp, err := fb.Request(context.Background(), jsonrpc.NewRequest("starknet_chainId", nil))
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackTransportRetriesEachBeforeMovingOn(t *testing.T) {
	primary := &fakeTransport{name: "primary", fail: true}
	secondary := &fakeTransport{name: "secondary"}

	fb := NewFallbackTransport([]Transport{primary, secondary}, FallbackOptions{RetryCount: 2, RetryDelay: 1}, nil)
	_, err := fb.Request(context.Background(), jsonrpc.NewRequest("starknet_chainId", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, primary.calls) // 1 initial + 2 retries
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackTransportAllFailReturnsTerminalError(t *testing.T) {
	a := &fakeTransport{name: "a", fail: true}
	b := &fakeTransport{name: "b", fail: true}

	fb := NewFallbackTransport([]Transport{a, b}, FallbackOptions{}, nil)
	_, err := fb.Request(context.Background(), jsonrpc.NewRequest("starknet_chainId", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "All transports failed")
}

func TestFallbackTransportPromotesBetterPerformerWhenRanked(t *testing.T) {
	flaky := &fakeTransport{name: "flaky", fail: true}
	reliable := &fakeTransport{name: "reliable"}

	fb := NewFallbackTransport([]Transport{flaky, reliable}, FallbackOptions{Rank: true}, nil)
	for i := 0; i < 3; i++ {
		_, err := fb.Request(context.Background(), jsonrpc.NewRequest("starknet_chainId", nil))
		require.NoError(t, err)
	}

	fb.mu.Lock()
	head := fb.transports[0].t.(*fakeTransport)
	fb.mu.Unlock()
	assert.Equal(t, "reliable", head.name)
}

func TestFallbackTransportCloseClosesAllSubTransports(t *testing.T) {
	a := &fakeTransport{name: "a"}
	b := &fakeTransport{name: "b"}
	fb := NewFallbackTransport([]Transport{a, b}, FallbackOptions{}, nil)
	require.NoError(t, fb.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
