// Package account implements Starknet account execution: building and
// submitting v3 invoke/declare/deploy-account transactions against a
// provider, and the WalletAccount bridge to an injected browser-wallet
// (SWO) signer for dapp use.
package account

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/internal/starkcrypto"
	"github.com/NethermindEth/starknet-go-client/provider"
	"github.com/NethermindEth/starknet-go-client/starkhash"
	"github.com/NethermindEth/starknet-go-client/txstream"
)

// Signer signs a Starknet message hash with the account's private key.
type Signer interface {
	Sign(msgHash felt.Felt252) (r, s felt.Felt252, err error)
	PublicKey() felt.Felt252
}

// KeySigner is a Signer backed by a raw STARK-curve private key, kept
// in memory for the lifetime of the process.
type KeySigner struct {
	privateKey *big.Int
	publicKey  felt.Felt252
}

// NewKeySigner derives the public key for privateKey and returns a
// Signer over it.
func NewKeySigner(privateKey felt.Felt252) *KeySigner {
	bi := privateKey.ToBigInt()
	pub := felt.FromInner(starkcrypto.GetPublicKey(bi))
	return &KeySigner{privateKey: bi, publicKey: pub}
}

func (s *KeySigner) PublicKey() felt.Felt252 { return s.publicKey }

func (s *KeySigner) Sign(msgHash felt.Felt252) (felt.Felt252, felt.Felt252, error) {
	r, sig, err := starkcrypto.Sign(s.privateKey, msgHash.Inner())
	if err != nil {
		return felt.Felt252{}, felt.Felt252{}, err
	}
	return felt.FromInner(r), felt.FromInner(sig), nil
}

// Defaults used when ExecuteDetails/ResourceBounds is left zero-valued.
var (
	DefaultResourceBounds = starkhash.ResourceBoundsV3{}
)

// ExecuteDetails overrides the defaults execute/estimateInvokeFee/
// declare/deployAccount otherwise compute (nonce fetched live,
// resource bounds left to the caller/defaults).
type ExecuteDetails struct {
	Nonce          *felt.Felt252
	ResourceBounds *starkhash.ResourceBoundsV3
	Tip            uint64
	SkipValidate   bool
}

// Account binds an address, a signer and a provider, caching the chain
// id after the first lookup.
type Account struct {
	Address  felt.ContractAddress
	Signer   Signer
	Provider *provider.Provider

	chainID *felt.Felt252
}

// New builds an Account. The chain id is looked up lazily on first use.
func New(address felt.ContractAddress, signer Signer, p *provider.Provider) *Account {
	return &Account{Address: address, Signer: signer, Provider: p}
}

func (a *Account) resolveChainID(ctx context.Context) (felt.Felt252, error) {
	if a.chainID != nil {
		return *a.chainID, nil
	}
	hex, err := a.Provider.ChainID(ctx)
	if err != nil {
		return felt.Felt252{}, err
	}
	f, err := felt.FromHex(hex)
	if err != nil {
		return felt.Felt252{}, err
	}
	a.chainID = &f
	return f, nil
}

func (a *Account) resolveNonce(ctx context.Context, details ExecuteDetails) (felt.Felt252, error) {
	if details.Nonce != nil {
		return *details.Nonce, nil
	}
	return a.Provider.GetNonce(ctx, provider.BlockPending(), a.Address)
}

func (a *Account) resolveResourceBounds(details ExecuteDetails) starkhash.ResourceBoundsV3 {
	if details.ResourceBounds != nil {
		return *details.ResourceBounds
	}
	return DefaultResourceBounds
}

// ExecuteResult is the outcome of a successful execute/declare/deploy.
type ExecuteResult struct {
	TransactionHash felt.Felt252
}

// Execute builds an invoke v3 transaction for calls, signs it, and
// submits it via starknet_addInvokeTransaction.
func (a *Account) Execute(ctx context.Context, calls []starkhash.Call, details ExecuteDetails) (ExecuteResult, error) {
	chainID, err := a.resolveChainID(ctx)
	if err != nil {
		return ExecuteResult{}, err
	}
	nonce, err := a.resolveNonce(ctx, details)
	if err != nil {
		return ExecuteResult{}, err
	}

	tx := starkhash.InvokeV3{
		TxCommon: starkhash.TxCommon{
			Sender:         a.Address,
			Tip:            details.Tip,
			ResourceBounds: a.resolveResourceBounds(details),
			Nonce:          nonce,
		},
		Calldata: starkhash.BuildExecuteCalldata(calls),
	}

	hash := starkhash.HashInvokeV3(tx, chainID)
	r, s, err := a.Signer.Sign(hash)
	if err != nil {
		return ExecuteResult{}, apierror.Wrap(apierror.KindAccountRequired, "failed to sign invoke transaction", err)
	}

	payload := invokeV3Payload(tx, hash, []felt.Felt252{r, s})
	result, err := a.Provider.AddInvokeTransaction(ctx, payload)
	if err != nil {
		return ExecuteResult{}, err
	}

	txHash, err := extractTransactionHash(result)
	if err != nil {
		return ExecuteResult{}, err
	}
	return ExecuteResult{TransactionHash: txHash}, nil
}

// EstimateInvokeFee builds the same invoke v3 transaction as Execute
// but submits it to starknet_estimateFee with an empty signature,
// optionally including SKIP_VALIDATE.
func (a *Account) EstimateInvokeFee(ctx context.Context, calls []starkhash.Call, details ExecuteDetails) (FeeEstimate, error) {
	chainID, err := a.resolveChainID(ctx)
	if err != nil {
		return FeeEstimate{}, err
	}
	nonce, err := a.resolveNonce(ctx, details)
	if err != nil {
		return FeeEstimate{}, err
	}

	tx := starkhash.InvokeV3{
		TxCommon: starkhash.TxCommon{
			Sender:         a.Address,
			Tip:            details.Tip,
			ResourceBounds: a.resolveResourceBounds(details),
			Nonce:          nonce,
			Query:          true,
		},
		Calldata: starkhash.BuildExecuteCalldata(calls),
	}
	hash := starkhash.HashInvokeV3(tx, chainID)
	payload := invokeV3Payload(tx, hash, nil)

	flags := []string{}
	if details.SkipValidate {
		flags = append(flags, "SKIP_VALIDATE")
	}
	raw, err := a.Provider.EstimateFee(ctx, payloadBatch(payload), flags, provider.BlockPending())
	if err != nil {
		return FeeEstimate{}, err
	}
	return parseFeeEstimate(raw)
}

// Simulate builds the same invoke v3 transaction Execute would submit
// and runs it through starknet_simulateTransactions instead, so callers
// can preview balance/state changes and revert reasons before sending.
func (a *Account) Simulate(ctx context.Context, calls []starkhash.Call, details ExecuteDetails) (json.RawMessage, error) {
	chainID, err := a.resolveChainID(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := a.resolveNonce(ctx, details)
	if err != nil {
		return nil, err
	}

	tx := starkhash.InvokeV3{
		TxCommon: starkhash.TxCommon{
			Sender:         a.Address,
			Tip:            details.Tip,
			ResourceBounds: a.resolveResourceBounds(details),
			Nonce:          nonce,
			Query:          true,
		},
		Calldata: starkhash.BuildExecuteCalldata(calls),
	}
	hash := starkhash.HashInvokeV3(tx, chainID)
	payload := invokeV3Payload(tx, hash, nil)

	flags := []string{}
	if details.SkipValidate {
		flags = append(flags, "SKIP_VALIDATE")
	}
	return a.Provider.SimulateTransactions(ctx, provider.BlockPending(), payloadBatch(payload), flags)
}

// WaitForTransaction polls hash via txstream.Track until it reaches
// opts.Confirmations depth or is dropped/errors, returning the terminal
// event — the same convenience starknet.js's provider.waitForTransaction
// offers over a raw receipt poll.
func (a *Account) WaitForTransaction(ctx context.Context, hash felt.Felt252, opts txstream.TrackOptions) (txstream.TrackEvent, error) {
	stream := txstream.Track(ctx, a.Provider, hash, opts)
	defer stream.Close()

	var last txstream.TrackEvent
	for {
		event, ok := stream.Recv(ctx)
		if !ok {
			if last.Type == "" {
				return txstream.TrackEvent{}, ctx.Err()
			}
			return last, nil
		}
		last = event
		if event.Type == "confirmed" || event.Type == "dropped" || event.Type == "error" {
			return event, nil
		}
	}
}

// DeclarePayload is the caller-supplied part of a declare transaction:
// the Sierra contract class to declare and its already-computed
// compiled class hash (see abicodec.ComputeCompiledClassHash).
type DeclarePayload struct {
	ContractClass     json.RawMessage
	ClassHash         felt.ClassHash
	CompiledClassHash felt.ClassHash
}

// Declare builds, signs and submits a v3 DECLARE transaction.
func (a *Account) Declare(ctx context.Context, payload DeclarePayload, details ExecuteDetails) (ExecuteResult, error) {
	chainID, err := a.resolveChainID(ctx)
	if err != nil {
		return ExecuteResult{}, err
	}
	nonce, err := a.resolveNonce(ctx, details)
	if err != nil {
		return ExecuteResult{}, err
	}

	tx := starkhash.DeclareV3{
		TxCommon: starkhash.TxCommon{
			Sender:         a.Address,
			Tip:            details.Tip,
			ResourceBounds: a.resolveResourceBounds(details),
			Nonce:          nonce,
		},
		ClassHash:         payload.ClassHash,
		CompiledClassHash: payload.CompiledClassHash,
	}

	hash := starkhash.HashDeclareV3(tx, chainID)
	r, s, err := a.Signer.Sign(hash)
	if err != nil {
		return ExecuteResult{}, apierror.Wrap(apierror.KindAccountRequired, "failed to sign declare transaction", err)
	}

	body := declareV3Payload(tx, payload.ContractClass, []felt.Felt252{r, s})
	result, err := a.Provider.AddDeclareTransaction(ctx, body)
	if err != nil {
		return ExecuteResult{}, err
	}
	_, txHash, err := extractClassHash(result)
	if err != nil {
		return ExecuteResult{}, err
	}
	return ExecuteResult{TransactionHash: txHash}, nil
}

// DeployAccountPayload is the caller-supplied part of a deploy-account
// transaction.
type DeployAccountPayload struct {
	ClassHash           felt.ClassHash
	Salt                felt.Felt252
	ConstructorCalldata []felt.Felt252
}

// DeployAccount builds, signs and submits a v3 DEPLOY_ACCOUNT
// transaction for the account's own Address. The account's Address
// must already equal the derived address (the caller typically derives
// it with starkhash.ComputeAddress before constructing the Account).
func (a *Account) DeployAccount(ctx context.Context, payload DeployAccountPayload, details ExecuteDetails) (ExecuteResult, error) {
	chainID, err := a.resolveChainID(ctx)
	if err != nil {
		return ExecuteResult{}, err
	}
	nonce, err := a.resolveNonce(ctx, details)
	if err != nil {
		return ExecuteResult{}, err
	}

	tx := starkhash.DeployAccountV3{
		TxCommon: starkhash.TxCommon{
			Sender:         a.Address,
			Tip:            details.Tip,
			ResourceBounds: a.resolveResourceBounds(details),
			Nonce:          nonce,
		},
		ContractAddress:     a.Address,
		ConstructorCalldata: payload.ConstructorCalldata,
		ClassHash:           payload.ClassHash,
		Salt:                payload.Salt,
	}

	hash := starkhash.HashDeployAccountV3(tx, chainID)
	r, s, err := a.Signer.Sign(hash)
	if err != nil {
		return ExecuteResult{}, apierror.Wrap(apierror.KindAccountRequired, "failed to sign deploy-account transaction", err)
	}

	body := deployAccountV3Payload(tx, []felt.Felt252{r, s})
	result, err := a.Provider.AddDeployAccountTransaction(ctx, body)
	if err != nil {
		return ExecuteResult{}, err
	}
	txHash, err := extractTransactionHash(result)
	if err != nil {
		return ExecuteResult{}, err
	}
	return ExecuteResult{TransactionHash: txHash}, nil
}

// SignMessage signs a pre-hashed SNIP-12 typed-data digest. Computing
// the SNIP-12 hash itself from a typed-data structure is out of scope
// here; callers pass the already-hashed digest.
func (a *Account) SignMessage(typedDataHash felt.Felt252) (r, s felt.Felt252, err error) {
	return a.Signer.Sign(typedDataHash)
}
