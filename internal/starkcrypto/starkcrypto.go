// Package starkcrypto is the single seam through which the rest of this
// module touches cryptography. Per the library's scope, Pedersen,
// Poseidon, STARK-curve ECDSA and starknet-keccak are treated as an
// opaque dependency: callers reach them only through the functions below,
// never by importing juno/core/crypto or golang.org/x/crypto/sha3
// directly. That keeps the one place that would need to change, if the
// underlying primitive library ever did, to this file.
package starkcrypto

import (
	"math/big"

	junocrypto "github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"golang.org/x/crypto/sha3"
)

// Pedersen computes the two-input Pedersen hash used for legacy hashes
// and contract address derivation.
func Pedersen(a, b *felt.Felt) *felt.Felt {
	return junocrypto.Pedersen(a, b)
}

// PedersenArray computes the Pedersen hash-chain (with length suffix)
// over an arbitrary number of field elements.
func PedersenArray(xs ...*felt.Felt) *felt.Felt {
	return junocrypto.PedersenArray(xs...)
}

// Poseidon computes the two-input Poseidon permutation over the Stark
// field, used for v3 transaction hashes and Sierra/CASM class hashes.
func Poseidon(a, b *felt.Felt) *felt.Felt {
	return junocrypto.Poseidon(a, b)
}

// PoseidonArray computes the Poseidon hash over an arbitrary number of
// field elements (the `H`/`poseidon_many` of the v3 hash domain spec).
func PoseidonArray(xs ...*felt.Felt) *felt.Felt {
	return junocrypto.PoseidonArray(xs...)
}

// Sign produces a STARK-curve ECDSA signature (r, s) over msgHash using
// the private key sk.
func Sign(sk *big.Int, msgHash *felt.Felt) (r, s *felt.Felt, err error) {
	return junocrypto.Sign(sk, msgHash)
}

// Verify checks a STARK-curve ECDSA signature against a public key.
func Verify(pubKey, msgHash, r, s *felt.Felt) bool {
	return junocrypto.Verify(pubKey, msgHash, r, s)
}

// GetPublicKey derives the STARK-curve public key felt for a private key.
func GetPublicKey(sk *big.Int) *felt.Felt {
	return junocrypto.GetPublicKey(sk)
}

// starknetKeccakMask clears the top 6 bits of a 256-bit Keccak digest,
// leaving a 250-bit value as required by sn_keccak.
var starknetKeccakMask = func() *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), 250)
	return m.Sub(m, big.NewInt(1))
}()

// Keccak256 is the raw, unmasked Keccak-256 digest (the "legacy" Keccak
// used by Ethereum and Starknet, not SHA3-256) of data.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// StarknetKeccak computes sn_keccak(data) = keccak256(data) mod 2^250,
// interpreted big-endian, as used for ABI selectors and Cairo string
// hashing.
func StarknetKeccak(data []byte) *felt.Felt {
	digest := Keccak256(data)
	n := new(big.Int).SetBytes(digest)
	n.And(n, starknetKeccakMask)
	return new(felt.Felt).SetBytes(n.Bytes())
}
