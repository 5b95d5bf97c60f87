package abicodec

import (
	"math/big"

	"github.com/NethermindEth/starknet-go-client/abi"
	"github.com/NethermindEth/starknet-go-client/felt"
)

// unsignedBits returns the bit width for an unsigned fixed-width Cairo
// integer kind, and ok=false for anything else.
func unsignedBits(k abi.CairoKind) (int, bool) {
	switch k {
	case abi.KindU8:
		return 8, true
	case abi.KindU16:
		return 16, true
	case abi.KindU32:
		return 32, true
	case abi.KindU64:
		return 64, true
	case abi.KindU128:
		return 128, true
	}
	return 0, false
}

// signedBits returns the bit width for a signed fixed-width Cairo
// integer kind, and ok=false for anything else.
func signedBits(k abi.CairoKind) (int, bool) {
	switch k {
	case abi.KindI8:
		return 8, true
	case abi.KindI16:
		return 16, true
	case abi.KindI32:
		return 32, true
	case abi.KindI64:
		return 64, true
	case abi.KindI128:
		return 128, true
	}
	return 0, false
}

// encodeSigned maps a signed integer in [-2^(n-1), 2^(n-1)-1] onto its
// Cairo felt representation: non-negative values encode directly,
// negative values wrap as Prime + v (two's-complement-at-the-field-prime
// style, matching Cairo's Into<felt252> for signed integers).
func encodeSigned(v *big.Int, bits int) (*big.Int, error) {
	bound := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	lower := new(big.Int).Neg(bound)
	upper := new(big.Int).Sub(bound, big.NewInt(1))
	if v.Cmp(lower) < 0 || v.Cmp(upper) > 0 {
		return nil, errEncodeRange(v, "i", bits)
	}
	if v.Sign() >= 0 {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int).Add(felt.Prime, v), nil
}

// decodeSigned inverts encodeSigned: felts in [0, 2^(n-1)) are
// non-negative, felts in [Prime-2^(n-1), Prime) are negative; anything
// else is out of range for that signed width.
func decodeSigned(f felt.Felt252, bits int) (*big.Int, error) {
	v := f.ToBigInt()
	bound := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if v.Cmp(bound) < 0 {
		return v, nil
	}
	negBound := new(big.Int).Sub(felt.Prime, bound)
	if v.Cmp(negBound) >= 0 {
		return new(big.Int).Sub(v, felt.Prime), nil
	}
	return nil, errDecodeRangeSigned(bits)
}
