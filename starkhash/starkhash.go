// Package starkhash computes Starknet v3 transaction hashes, the
// "__execute__" calldata layout for multi-call invocations, and
// contract address derivation. All v3 hashes use Poseidon over the
// Stark field; contract address derivation still uses the legacy
// Pedersen hash-chain, matching starknet.js.
package starkhash

import (
	"math/big"

	junofelt "github.com/NethermindEth/juno/core/felt"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/starkcrypto"
)

// QueryVersionOffset is added to the transaction version for
// fee-estimation/simulation-only submissions ("query" transactions),
// per Starknet's 0x100000000000000000000000000000000 + version convention.
var QueryVersionOffset = mustFeltFromHex("0x100000000000000000000000000000000")

func mustFeltFromHex(s string) felt.Felt252 {
	f, err := felt.FromHex(s)
	if err != nil {
		panic(err)
	}
	return f
}

// shortString encodes s (at most 31 bytes of UTF-8) as the big-endian
// integer felt conventionally called a Cairo short string.
func shortString(s string) felt.Felt252 {
	f, err := felt.FromBytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return f
}

var (
	prefixInvoke       = shortString("invoke")
	prefixDeclare      = shortString("declare")
	prefixDeployAcct   = shortString("deploy_account")
	prefixL1Gas        = shortString("L1_GAS")
	prefixL2Gas        = shortString("L2_GAS")
	prefixL1Data       = shortString("L1_DATA")
	prefixContractAddr = shortString("STARKNET_CONTRACT_ADDRESS")
)

func poseidonMany(xs ...felt.Felt252) felt.Felt252 {
	inner := make([]*junofelt.Felt, len(xs))
	for i, x := range xs {
		inner[i] = x.Inner()
	}
	return felt.FromInner(starkcrypto.PoseidonArray(inner...))
}

func pedersenChain(xs ...felt.Felt252) felt.Felt252 {
	inner := make([]*junofelt.Felt, len(xs))
	for i, x := range xs {
		inner[i] = x.Inner()
	}
	return felt.FromInner(starkcrypto.PedersenArray(inner...))
}

// ResourceBounds is one entry of a v3 transaction's fee-bounds triple
// (L1_GAS, L2_GAS, L1_DATA).
type ResourceBounds struct {
	MaxAmount       uint64
	MaxPricePerUnit *felt.Uint256
}

// ResourceBoundsV3 is the full {l1_gas, l2_gas, l1_data_gas} triple
// carried by a v3 transaction.
type ResourceBoundsV3 struct {
	L1Gas     ResourceBounds
	L2Gas     ResourceBounds
	L1DataGas ResourceBounds
}

// packResourceBound folds (max_amount << 128) | max_price_per_unit into
// a single felt, per the v3 tip-and-resource-bounds hash domain. A nil
// MaxPricePerUnit counts as zero.
func packResourceBound(b ResourceBounds) felt.Felt252 {
	packed := new(big.Int).SetUint64(b.MaxAmount)
	packed.Lsh(packed, 128)
	if b.MaxPricePerUnit != nil {
		packed.Or(packed, b.MaxPricePerUnit.ToBigInt())
	}
	f, err := felt.FromBigInt(packed)
	if err != nil {
		panic(err)
	}
	return f
}

// DAMode is the data-availability mode for nonce/fee, per the v3
// transaction header.
type DAMode uint8

const (
	DAModeL1 DAMode = 0
	DAModeL2 DAMode = 1
)

// packDAModes folds (nonceDAMode << 32) | feeDAMode into a single felt.
func packDAModes(nonceMode, feeMode DAMode) felt.Felt252 {
	packed := new(big.Int).SetUint64(uint64(nonceMode) << 32)
	packed.Or(packed, new(big.Int).SetUint64(uint64(feeMode)))
	f, err := felt.FromBigInt(packed)
	if err != nil {
		panic(err)
	}
	return f
}

// TxCommon carries the fields shared by every v3 transaction kind.
type TxCommon struct {
	Sender            felt.ContractAddress
	Tip               uint64
	ResourceBounds    ResourceBoundsV3
	PaymasterData     []felt.Felt252
	Nonce             felt.Felt252
	NonceDAMode       DAMode
	FeeDAMode         DAMode
	AccountDeployData []felt.Felt252
	Query             bool
}

func (c TxCommon) version() felt.Felt252 {
	v := felt.FromUint64(3)
	if !c.Query {
		return v
	}
	sum := v.ToBigInt()
	sum = sum.Add(sum, QueryVersionOffset.ToBigInt())
	f, err := felt.FromBigInt(sum)
	if err != nil {
		panic(err)
	}
	return f
}

func (c TxCommon) tipAndResourceHash() felt.Felt252 {
	return poseidonMany(
		prefixL1Gas, packResourceBound(c.ResourceBounds.L1Gas),
		prefixL2Gas, packResourceBound(c.ResourceBounds.L2Gas),
		prefixL1Data, packResourceBound(c.ResourceBounds.L1DataGas),
		felt.FromUint64(c.Tip),
	)
}

func (c TxCommon) daModes() felt.Felt252 {
	return packDAModes(c.NonceDAMode, c.FeeDAMode)
}

// InvokeV3 is the set of fields a v3 INVOKE transaction hashes over.
type InvokeV3 struct {
	TxCommon
	Calldata []felt.Felt252
}

// HashInvokeV3 computes hash_invoke_v3(tx, chainId).
func HashInvokeV3(tx InvokeV3, chainID felt.Felt252) felt.Felt252 {
	return poseidonMany(
		prefixInvoke,
		tx.version(),
		tx.Sender.Felt(),
		tx.tipAndResourceHash(),
		poseidonMany(tx.PaymasterData...),
		chainID,
		tx.Nonce,
		tx.daModes(),
		poseidonMany(tx.AccountDeployData...),
		poseidonMany(tx.Calldata...),
	)
}

// DeclareV3 is the set of fields a v3 DECLARE transaction hashes over.
type DeclareV3 struct {
	TxCommon
	ClassHash         felt.ClassHash
	CompiledClassHash felt.ClassHash
}

// HashDeclareV3 computes hash_declare_v3(tx, chainId).
func HashDeclareV3(tx DeclareV3, chainID felt.Felt252) felt.Felt252 {
	return poseidonMany(
		prefixDeclare,
		tx.version(),
		tx.Sender.Felt(),
		tx.tipAndResourceHash(),
		poseidonMany(tx.PaymasterData...),
		chainID,
		tx.Nonce,
		tx.daModes(),
		poseidonMany(tx.AccountDeployData...),
		tx.ClassHash.Felt(),
		tx.CompiledClassHash.Felt(),
	)
}

// DeployAccountV3 is the set of fields a v3 DEPLOY_ACCOUNT transaction
// hashes over.
type DeployAccountV3 struct {
	TxCommon
	ContractAddress     felt.ContractAddress
	ConstructorCalldata []felt.Felt252
	ClassHash           felt.ClassHash
	Salt                felt.Felt252
}

// HashDeployAccountV3 computes
// hash_deploy_account_v3(tx, contractAddress, chainId).
func HashDeployAccountV3(tx DeployAccountV3, chainID felt.Felt252) felt.Felt252 {
	return poseidonMany(
		prefixDeployAcct,
		tx.version(),
		tx.ContractAddress.Felt(),
		tx.tipAndResourceHash(),
		poseidonMany(tx.PaymasterData...),
		chainID,
		tx.Nonce,
		tx.daModes(),
		poseidonMany(tx.ConstructorCalldata...),
		tx.ClassHash.Felt(),
		tx.Salt,
	)
}

// ComputeAddress derives a contract address from its class hash, salt
// and constructor calldata, matching starknet.js's algorithm:
// pedersen_chain([prefix, deployer, salt, classHash, H(calldata)]) mod
// (2^251 - 256). deployer is 0 for the common self-deploy case.
func ComputeAddress(classHash felt.ClassHash, salt felt.Felt252, constructorCalldata []felt.Felt252, deployer felt.Felt252) felt.ContractAddress {
	calldataHash := pedersenChain(constructorCalldata...)
	raw := pedersenChain(prefixContractAddr, deployer, salt, classHash.Felt(), calldataHash)

	bounded := raw.ToBigInt()
	bounded.Mod(bounded, felt.AddressBound)
	bf, err := felt.FromBigInt(bounded)
	if err != nil {
		panic(err)
	}
	addr, err := felt.NewContractAddress(bf)
	if err != nil {
		panic(err)
	}
	return addr
}
