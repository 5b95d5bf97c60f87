package account

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/starkhash"
)

// SWORequest is one call through the injected browser-wallet protocol:
// request({type, params}).
type SWORequest struct {
	Type   string `json:"type"`
	Params any    `json:"params,omitempty"`
}

// SWO is the minimal surface this module consumes from a browser
// wallet's injected Starknet Window Object: a single request method
// plus an event subscription pair.
type SWO interface {
	Request(ctx context.Context, req SWORequest) (json.RawMessage, error)
	On(event string, handler func(payload json.RawMessage))
	Off(event string)
}

// WalletAccount delegates writes to an injected wallet instead of
// signing locally: execute translates dapp-format camelCase calls into
// the wallet's snake_case request shape, and reads still go through the
// RPC provider like a regular Account.
type WalletAccount struct {
	*Account
	wallet SWO

	mu        sync.Mutex
	listeners map[string][]func(json.RawMessage)
}

// NewWalletAccount wraps wallet as the signer/submitter for writes,
// keeping reads on the embedded Account's provider.
func NewWalletAccount(base *Account, wallet SWO) *WalletAccount {
	wa := &WalletAccount{Account: base, wallet: wallet, listeners: make(map[string][]func(json.RawMessage))}
	wallet.On("accountsChanged", wa.dispatch("accountsChanged"))
	wallet.On("networkChanged", wa.dispatch("networkChanged"))
	return wa
}

func (wa *WalletAccount) dispatch(event string) func(json.RawMessage) {
	return func(payload json.RawMessage) {
		wa.mu.Lock()
		handlers := append([]func(json.RawMessage)(nil), wa.listeners[event]...)
		wa.mu.Unlock()
		for _, h := range handlers {
			h(payload)
		}
	}
}

// OnAccountsChanged forwards the wallet's accountsChanged event.
func (wa *WalletAccount) OnAccountsChanged(handler func(payload json.RawMessage)) {
	wa.mu.Lock()
	wa.listeners["accountsChanged"] = append(wa.listeners["accountsChanged"], handler)
	wa.mu.Unlock()
}

// OnNetworkChanged forwards the wallet's networkChanged event.
func (wa *WalletAccount) OnNetworkChanged(handler func(payload json.RawMessage)) {
	wa.mu.Lock()
	wa.listeners["networkChanged"] = append(wa.listeners["networkChanged"], handler)
	wa.mu.Unlock()
}

// walletCall mirrors the wallet's snake_case {contract_address,
// entry_point, calldata} shape wallet_addInvokeTransaction expects, translated from
// this module's starkhash.Call.
type walletCall struct {
	ContractAddress string   `json:"contract_address"`
	EntryPoint      string   `json:"entry_point"`
	Calldata        []string `json:"calldata"`
}

// Execute submits calls through the wallet's wallet_addInvokeTransaction
// method rather than building and signing locally.
func (wa *WalletAccount) Execute(ctx context.Context, calls []starkhash.Call) (ExecuteResult, error) {
	walletCalls := make([]walletCall, len(calls))
	for i, c := range calls {
		walletCalls[i] = walletCall{
			ContractAddress: c.To.ToHex(),
			EntryPoint:      c.Selector.ToHex(),
			Calldata:        feltsToHex(c.Calldata),
		}
	}

	resp, err := wa.wallet.Request(ctx, SWORequest{
		Type:   "wallet_addInvokeTransaction",
		Params: map[string]any{"calls": walletCalls},
	})
	if err != nil {
		return ExecuteResult{}, apierror.Wrap(apierror.KindAccountRequired, "wallet request failed", err)
	}

	var out struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return ExecuteResult{}, fmt.Errorf("decode wallet execute response: %w", err)
	}
	hash, err := felt.FromHex(out.TransactionHash)
	if err != nil {
		return ExecuteResult{}, err
	}
	return ExecuteResult{TransactionHash: hash}, nil
}

// RequestAccounts calls wallet_requestAccounts.
func (wa *WalletAccount) RequestAccounts(ctx context.Context) (json.RawMessage, error) {
	return wa.wallet.Request(ctx, SWORequest{Type: "wallet_requestAccounts"})
}

// RequestChainID calls wallet_requestChainId.
func (wa *WalletAccount) RequestChainID(ctx context.Context) (json.RawMessage, error) {
	return wa.wallet.Request(ctx, SWORequest{Type: "wallet_requestChainId"})
}

// SignTypedData calls wallet_signTypedData with a SNIP-12 typed-data
// document and returns the wallet's raw response.
func (wa *WalletAccount) SignTypedData(ctx context.Context, typedData json.RawMessage) (json.RawMessage, error) {
	return wa.wallet.Request(ctx, SWORequest{Type: "wallet_signTypedData", Params: typedData})
}
