package abicodec

import (
	junofelt "github.com/NethermindEth/juno/core/felt"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/internal/starkcrypto"
)

// EntryPoint is one {selector, function_idx} pair from a Sierra class's
// entry_points_by_type list.
type EntryPoint struct {
	Selector    felt.Felt252
	FunctionIdx uint64
}

// SierraClass is the subset of a Sierra artifact that feeds into class
// hash computation.
type SierraClass struct {
	SierraProgram          []felt.Felt252
	EntryPointsByType       SierraEntryPoints
	AbiFelts               []felt.Felt252 // keccak/UTF-8-packed ABI bytes as felts
}

// SierraEntryPoints groups a Sierra class's three entry-point kinds.
type SierraEntryPoints struct {
	External    []EntryPoint
	L1Handler   []EntryPoint
	Constructor []EntryPoint
}

const (
	contractClassVersion = "CONTRACT_CLASS_V0.1.0"
	compiledClassVersion = "COMPILED_CLASS_V1"
)

// poseidonMany wraps starkcrypto.PoseidonArray across this package's
// Felt252 boundary type.
func poseidonMany(xs ...felt.Felt252) felt.Felt252 {
	inner := make([]*junofelt.Felt, len(xs))
	for i, x := range xs {
		inner[i] = x.Inner()
	}
	return felt.FromInner(starkcrypto.PoseidonArray(inner...))
}

// ComputeSierraClassHash derives a Sierra class's hash:
// poseidon_many([H("CONTRACT_CLASS_V0.1.0"), H_ep(EXTERNAL), H_ep(L1_HANDLER),
// H_ep(CONSTRUCTOR), poseidon_many(abi_felts), poseidon_many(sierra_program)]).
func ComputeSierraClassHash(class SierraClass) felt.Felt252 {
	return poseidonMany(
		shortStringFelt(contractClassVersion),
		hashEntryPoints(class.EntryPointsByType.External),
		hashEntryPoints(class.EntryPointsByType.L1Handler),
		hashEntryPoints(class.EntryPointsByType.Constructor),
		poseidonMany(class.AbiFelts...),
		poseidonMany(class.SierraProgram...),
	)
}

// hashEntryPoints hashes one entry-point-kind list as an alternating
// (selector, function_idx) sequence.
func hashEntryPoints(eps []EntryPoint) felt.Felt252 {
	flat := make([]felt.Felt252, 0, len(eps)*2)
	for _, ep := range eps {
		flat = append(flat, ep.Selector, felt.FromUint64(ep.FunctionIdx))
	}
	return poseidonMany(flat...)
}

// CompiledClass is the CASM artifact that feeds into compiled class hash
// computation.
type CompiledClass struct {
	Bytecode              []felt.Felt252
	BytecodeSegmentLengths []int // nil/empty: flat bytecode, no segment tree
}

// ComputeCompiledClassHash derives a CASM compiled class's hash. When
// BytecodeSegmentLengths is present, bytecode is partitioned into that
// many segments and combined via a tree-hash (leaves = segment hashes,
// internal nodes = poseidon(length, left, right)); otherwise it is a flat
// poseidon_many over the whole bytecode.
func ComputeCompiledClassHash(class CompiledClass) (felt.Felt252, error) {
	var bytecodeHash felt.Felt252
	if len(class.BytecodeSegmentLengths) == 0 {
		bytecodeHash = poseidonMany(class.Bytecode...)
	} else {
		h, err := segmentTreeHash(class.Bytecode, class.BytecodeSegmentLengths)
		if err != nil {
			return felt.Felt252{}, err
		}
		bytecodeHash = h
	}
	return poseidonMany(
		shortStringFelt(compiledClassVersion),
		bytecodeHash,
	), nil
}

// segmentTreeHash builds the CASM bytecode segment tree bottom-up:
// each leaf is poseidon_many(segment), and a binary tree of
// poseidon(length, left, right) nodes folds the leaves pairwise,
// left-to-right, matching the reference compiler's segment encoding.
func segmentTreeHash(bytecode []felt.Felt252, lengths []int) (felt.Felt252, *apierror.Error) {
	leaves := make([]felt.Felt252, 0, len(lengths))
	pos := 0
	for i, n := range lengths {
		if n < 0 || pos+n > len(bytecode) {
			return felt.Felt252{}, errDecode("bytecode segment %d of length %d exceeds bytecode of length %d", i, n, len(bytecode))
		}
		leaves = append(leaves, poseidonMany(bytecode[pos:pos+n]...))
		pos += n
	}
	if pos != len(bytecode) {
		return felt.Felt252{}, errDecode("bytecode segment lengths sum to %d, bytecode has %d felts", pos, len(bytecode))
	}

	nodes := make([]segNode, len(leaves))
	for i, n := range lengths {
		nodes[i] = segNode{length: n, hash: leaves[i]}
	}
	for len(nodes) > 1 {
		next := make([]segNode, 0, (len(nodes)+1)/2)
		for i := 0; i < len(nodes); i += 2 {
			if i+1 == len(nodes) {
				next = append(next, nodes[i])
				continue
			}
			left, right := nodes[i], nodes[i+1]
			combined := segNode{
				length: left.length + right.length,
				hash:   poseidonMany(felt.FromUint64(uint64(left.length)), left.hash, right.hash),
			}
			next = append(next, combined)
		}
		nodes = next
	}
	return nodes[0].hash, nil
}

type segNode struct {
	length int
	hash   felt.Felt252
}

// shortStringFelt encodes s (<=31 bytes) as the big-endian unsigned
// integer of its UTF-8 bytes, matching Cairo's short-string felt
// representation.
func shortStringFelt(s string) felt.Felt252 {
	f, err := felt.FromBytes([]byte(s))
	if err != nil {
		// Only reachable for a >31-byte literal, which none of this
		// package's callers pass.
		return felt.Zero
	}
	return f
}
