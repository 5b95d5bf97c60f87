package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/jsonrpc"
	"github.com/NethermindEth/starknet-go-client/transport"
)

func newTestProvider(t *testing.T, handle func(method string, params json.RawMessage) (any, *jsonrpc.Error)) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		paramsRaw, _ := json.Marshal(req.Params)
		result, rpcErr := handle(req.Method, paramsRaw)
		resp := jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			b, err := json.Marshal(result)
			require.NoError(t, err)
			resp.Result = b
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	tr := transport.NewHTTPTransport(srv.URL, transport.DefaultOptions())
	return New(tr)
}

func TestProviderChainID(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		assert.Equal(t, "starknet_chainId", method)
		return "0x534e5f5345504f4c4941", nil
	})
	chainID, err := p.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x534e5f5345504f4c4941", chainID)
}

func TestProviderBlockNumber(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		return 12345, nil
	})
	n, err := p.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), n)
}

func TestProviderGetStorageAt(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		assert.Equal(t, "starknet_getStorageAt", method)
		return "0x2a", nil
	})
	addr, _ := felt.ContractAddressFromHex("0x1")
	key := felt.NewStorageKey(felt.FromUint64(5))
	value, err := p.GetStorageAt(context.Background(), addr, key, BlockLatest())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), value.ToBigInt().Uint64())
}

func TestProviderRPCErrorMapsToApiError(t *testing.T) {
	p := newTestProvider(t, func(method string, params json.RawMessage) (any, *jsonrpc.Error) {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeContractNotFound, Message: "Contract not found"}
	})
	_, err := p.ChainID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Contract not found")
}

func TestBlockIDMarshalJSON(t *testing.T) {
	b, err := BlockLatest().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"latest"`, string(b))

	n := uint64(7)
	b, err = BlockID{Number: &n}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"block_number":7}`, string(b))
}
