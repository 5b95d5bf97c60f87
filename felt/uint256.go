package felt

import (
	"math/big"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// u128Bound is 2^128, the limb boundary for a Cairo u256.
var u128Bound = new(big.Int).Lsh(big.NewInt(1), 128)

// Uint256Bound is 2^256, the exclusive upper bound for a u256 value.
var Uint256Bound = new(big.Int).Lsh(big.NewInt(1), 256)

// Uint256 is a non-negative integer < 2^256, wire-encoded as the Cairo
// pair (low, high) with value = low + high*2^128. Fields are unexported:
// construct through Uint256FromBigInt/FromFelts and read back through ToBigInt/
// ToFelts, so the two-limb layout is never hand-assembled incorrectly by
// a caller.
type Uint256 struct {
	low  Felt252
	high Felt252
}

// Uint256FromBigInt validates v against [0, 2^256) and splits it into limbs.
func Uint256FromBigInt(v *big.Int) (Uint256, error) {
	if v == nil || v.Sign() < 0 {
		return Uint256{}, apierror.New(apierror.KindOverflow, "u256 value is negative or nil")
	}
	if v.Cmp(Uint256Bound) >= 0 {
		return Uint256{}, apierror.New(apierror.KindOverflow, "u256 value >= 2^256")
	}
	low := new(big.Int).Mod(v, u128Bound)
	high := new(big.Int).Rsh(v, 128)
	lowF, err := FromBigInt(low)
	if err != nil {
		return Uint256{}, err
	}
	highF, err := FromBigInt(high)
	if err != nil {
		return Uint256{}, err
	}
	return Uint256{low: lowF, high: highF}, nil
}

// FromFelts builds a Uint256 directly from its two wire limbs, low then
// high, as Cairo serialises it.
func FromFelts(low, high Felt252) (Uint256, error) {
	if low.ToBigInt().Cmp(u128Bound) >= 0 {
		return Uint256{}, apierror.New(apierror.KindDecodeError, "u256 low limb >= 2^128")
	}
	if high.ToBigInt().Cmp(u128Bound) >= 0 {
		return Uint256{}, apierror.New(apierror.KindDecodeError, "u256 high limb >= 2^128")
	}
	return Uint256{low: low, high: high}, nil
}

// ToFelts returns the two wire felts, low-first, as Cairo requires
// ("plural" because a u256 always serialises to exactly two felts).
func (u Uint256) ToFelts() [2]Felt252 {
	return [2]Felt252{u.low, u.high}
}

// ToBigInt reconstructs the full integer value = low + high*2^128.
func (u Uint256) ToBigInt() *big.Int {
	result := new(big.Int).Lsh(u.high.ToBigInt(), 128)
	result.Add(result, u.low.ToBigInt())
	return result
}

// Equals compares two u256 values by their reconstructed integer value.
func (u Uint256) Equals(other Uint256) bool {
	return u.low.Equals(other.low) && u.high.Equals(other.high)
}
