// Package provider implements the schema-typed Starknet JSON-RPC
// facade: one Go method per starknet_* RPC call, plus the
// WebSocket-only event streams (new heads, events, transaction
// status, pending transactions, new receipts, reorgs).
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/jsonrpc"
	"github.com/NethermindEth/starknet-go-client/transport"
)

// Provider is the typed RPC facade. Every exported method builds one
// JSON-RPC request via a small per-method param builder and unwraps
// the response, mapping a JSON-RPC error object to an *apierror.Error
// tagged RPC_ERROR.
type Provider struct {
	t transport.Transport

	subsMu            sync.Mutex
	subs              map[*subscriptionEntry]struct{}
	reconnectHookOnce sync.Once
}

// New wraps t as a Provider.
func New(t transport.Transport) *Provider {
	return &Provider{t: t}
}

// Close releases the underlying transport.
func (p *Provider) Close() error { return p.t.Close() }

// call sends method with params and unmarshals the result into out.
// out must be a pointer, or nil to discard the result.
func (p *Provider) call(ctx context.Context, method string, params any, out any) error {
	req := jsonrpc.NewRequest(method, params)
	resp, err := p.t.Request(ctx, req)
	if err != nil {
		return err
	}
	if resp == nil {
		return apierror.New(apierror.KindNetworkError, "no response for request id "+fmtInt(req.ID))
	}
	if resp.Error != nil {
		return apierror.New(apierror.KindRPCError, resp.Error.Message).WithCode(resp.Error.Code)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

func fmtInt(v int64) string {
	return fmt.Sprintf("%d", v)
}

// FunctionCall is the parameter shape for starknet_call and the
// read-only path of simulateTransactions/estimateFee call lists.
type FunctionCall struct {
	ContractAddress felt.ContractAddress `json:"contract_address"`
	EntryPointSel   felt.Felt252         `json:"entry_point_selector"`
	Calldata        []felt.Felt252       `json:"calldata"`
}

func (p *Provider) SpecVersion(ctx context.Context) (string, error) {
	var out string
	err := p.call(ctx, "starknet_specVersion", []any{}, &out)
	return out, err
}

func (p *Provider) ChainID(ctx context.Context) (string, error) {
	var out string
	err := p.call(ctx, "starknet_chainId", []any{}, &out)
	return out, err
}

func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	var out uint64
	err := p.call(ctx, "starknet_blockNumber", []any{}, &out)
	return out, err
}

func (p *Provider) BlockHashAndNumber(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_blockHashAndNumber", []any{}, &out)
	return out, err
}

func (p *Provider) Syncing(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_syncing", []any{}, &out)
	return out, err
}

func (p *Provider) GetBlockWithTxHashes(ctx context.Context, block BlockID) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getBlockWithTxHashes", []any{block}, &out)
	return out, err
}

func (p *Provider) GetBlockWithTxs(ctx context.Context, block BlockID) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getBlockWithTxs", []any{block}, &out)
	return out, err
}

func (p *Provider) GetBlockWithReceipts(ctx context.Context, block BlockID) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getBlockWithReceipts", []any{block}, &out)
	return out, err
}

func (p *Provider) GetStateUpdate(ctx context.Context, block BlockID) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getStateUpdate", []any{block}, &out)
	return out, err
}

func (p *Provider) GetStorageAt(ctx context.Context, address felt.ContractAddress, key felt.StorageKey, block BlockID) (felt.Felt252, error) {
	var out string
	err := p.call(ctx, "starknet_getStorageAt", []any{address.ToHex(), key.ToHex(), block}, &out)
	if err != nil {
		return felt.Felt252{}, err
	}
	return felt.FromHex(out)
}

func (p *Provider) GetNonce(ctx context.Context, block BlockID, address felt.ContractAddress) (felt.Felt252, error) {
	var out string
	err := p.call(ctx, "starknet_getNonce", []any{block, address.ToHex()}, &out)
	if err != nil {
		return felt.Felt252{}, err
	}
	return felt.FromHex(out)
}

func (p *Provider) GetClass(ctx context.Context, block BlockID, classHash felt.ClassHash) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getClass", []any{block, classHash.ToHex()}, &out)
	return out, err
}

func (p *Provider) GetClassHashAt(ctx context.Context, block BlockID, address felt.ContractAddress) (felt.ClassHash, error) {
	var out string
	err := p.call(ctx, "starknet_getClassHashAt", []any{block, address.ToHex()}, &out)
	if err != nil {
		return felt.ClassHash{}, err
	}
	f, ferr := felt.FromHex(out)
	if ferr != nil {
		return felt.ClassHash{}, ferr
	}
	return felt.NewClassHash(f), nil
}

func (p *Provider) GetClassAt(ctx context.Context, block BlockID, address felt.ContractAddress) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getClassAt", []any{block, address.ToHex()}, &out)
	return out, err
}

func (p *Provider) GetBlockTransactionCount(ctx context.Context, block BlockID) (uint64, error) {
	var out uint64
	err := p.call(ctx, "starknet_getBlockTransactionCount", []any{block}, &out)
	return out, err
}

func (p *Provider) Call(ctx context.Context, call FunctionCall, block BlockID) ([]felt.Felt252, error) {
	calldata := make([]string, len(call.Calldata))
	for i, f := range call.Calldata {
		calldata[i] = f.ToHex()
	}
	params := map[string]any{
		"contract_address":     call.ContractAddress.ToHex(),
		"entry_point_selector": call.EntryPointSel.ToHex(),
		"calldata":             calldata,
	}
	var out []string
	if err := p.call(ctx, "starknet_call", []any{params, block}, &out); err != nil {
		return nil, err
	}
	return hexSliceToFelts(out)
}

func (p *Provider) EstimateFee(ctx context.Context, txs []json.RawMessage, simulationFlags []string, block BlockID) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_estimateFee", []any{txs, simulationFlags, block}, &out)
	return out, err
}

func (p *Provider) EstimateMessageFee(ctx context.Context, message json.RawMessage, block BlockID) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_estimateMessageFee", []any{message, block}, &out)
	return out, err
}

func (p *Provider) GetTransactionByHash(ctx context.Context, hash felt.Felt252) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getTransactionByHash", []any{hash.ToHex()}, &out)
	return out, err
}

func (p *Provider) GetTransactionByBlockIDAndIndex(ctx context.Context, block BlockID, index uint64) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getTransactionByBlockIdAndIndex", []any{block, index}, &out)
	return out, err
}

func (p *Provider) GetTransactionStatus(ctx context.Context, hash felt.Felt252) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getTransactionStatus", []any{hash.ToHex()}, &out)
	return out, err
}

func (p *Provider) GetMessagesStatus(ctx context.Context, l1TxHash string) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getMessagesStatus", []any{l1TxHash}, &out)
	return out, err
}

func (p *Provider) GetTransactionReceipt(ctx context.Context, hash felt.Felt252) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getTransactionReceipt", []any{hash.ToHex()}, &out)
	return out, err
}

// EventFilter is the object-shaped parameter starknet_getEvents takes,
// the one named RPC method whose params are not positional.
type EventFilter struct {
	FromBlock         *BlockID   `json:"from_block,omitempty"`
	ToBlock           *BlockID   `json:"to_block,omitempty"`
	Address           string     `json:"address,omitempty"`
	Keys              [][]string `json:"keys,omitempty"`
	ChunkSize         int        `json:"chunk_size"`
	ContinuationToken string     `json:"continuation_token,omitempty"`
}

// WithAddress sets Address from a ContractAddress and returns f for
// chaining.
func (f EventFilter) WithAddress(addr felt.ContractAddress) EventFilter {
	f.Address = addr.ToHex()
	return f
}

func (p *Provider) GetEvents(ctx context.Context, filter EventFilter) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getEvents", []any{map[string]any{"filter": filter}}, &out)
	return out, err
}

func (p *Provider) GetStorageProof(ctx context.Context, block BlockID, classHashes, contractAddresses, storageKeys []string) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_getStorageProof", []any{block, classHashes, contractAddresses, storageKeys}, &out)
	return out, err
}

func (p *Provider) AddInvokeTransaction(ctx context.Context, tx json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_addInvokeTransaction", []any{tx}, &out)
	return out, err
}

func (p *Provider) AddDeclareTransaction(ctx context.Context, tx json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_addDeclareTransaction", []any{tx}, &out)
	return out, err
}

func (p *Provider) AddDeployAccountTransaction(ctx context.Context, tx json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_addDeployAccountTransaction", []any{tx}, &out)
	return out, err
}

func (p *Provider) SimulateTransactions(ctx context.Context, block BlockID, txs []json.RawMessage, simulationFlags []string) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_simulateTransactions", []any{block, txs, simulationFlags}, &out)
	return out, err
}

func (p *Provider) TraceTransaction(ctx context.Context, hash felt.Felt252) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_traceTransaction", []any{hash.ToHex()}, &out)
	return out, err
}

func (p *Provider) TraceBlockTransactions(ctx context.Context, block BlockID) (json.RawMessage, error) {
	var out json.RawMessage
	err := p.call(ctx, "starknet_traceBlockTransactions", []any{block}, &out)
	return out, err
}

func hexSliceToFelts(hexes []string) ([]felt.Felt252, error) {
	out := make([]felt.Felt252, len(hexes))
	for i, h := range hexes {
		f, err := felt.FromHex(h)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
