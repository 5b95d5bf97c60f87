// Package felt implements the branded field-element primitives every
// other package in this module builds on: Felt252 and the address types
// derived from it (ContractAddress, ClassHash, StorageKey), plus Uint256,
// Cairo's two-felt-limb u256 encoding.
//
// A Felt252 is only ever constructed through From*; there is no exported
// way to build one from an out-of-range value, so every felt that
// crosses an API boundary in this module has already been validated
// against the Stark field prime.
package felt

import (
	"fmt"
	"math/big"
	"strings"

	junofelt "github.com/NethermindEth/juno/core/felt"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// Prime is P = 2^251 + 17*2^192 + 1, the modulus of the Stark field.
var Prime *big.Int

func init() {
	Prime = new(big.Int)
	Prime.SetString("800000000000011000000000000000000000000000000000000000000000001", 16)
}

// Felt252 is a validated element of the Stark field, i.e. an integer in
// [0, Prime).
type Felt252 struct {
	inner junofelt.Felt
}

// Zero is the additive identity.
var Zero = Felt252{}

// FromBigInt validates v against [0, Prime) and returns the
// corresponding Felt252.
func FromBigInt(v *big.Int) (Felt252, error) {
	if v == nil {
		return Felt252{}, apierror.New(apierror.KindNotInteger, "nil value")
	}
	if v.Sign() < 0 {
		return Felt252{}, apierror.New(apierror.KindOverflow, fmt.Sprintf("felt value %s is negative", v.String()))
	}
	if v.Cmp(Prime) >= 0 {
		return Felt252{}, apierror.New(apierror.KindOverflow, fmt.Sprintf("felt value %s >= field prime", v.String()))
	}
	var f junofelt.Felt
	f.SetBytes(v.Bytes())
	return Felt252{inner: f}, nil
}

// FromUint64 wraps a uint64 as a Felt252; always in range.
func FromUint64(v uint64) Felt252 {
	var f junofelt.Felt
	f.SetUint64(v)
	return Felt252{inner: f}
}

// FromHex parses a `0x`-prefixed (or bare) hex string and validates it.
func FromHex(s string) (Felt252, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		return Felt252{}, apierror.New(apierror.KindInvalidHex, "empty hex string")
	}
	v, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return Felt252{}, apierror.New(apierror.KindInvalidHex, fmt.Sprintf("malformed hex felt %q", s))
	}
	return FromBigInt(v)
}

// FromBytes interprets b as a big-endian integer and validates it. b may
// be shorter than 32 bytes; it is never required to be left-padded.
func FromBytes(b []byte) (Felt252, error) {
	return FromBigInt(new(big.Int).SetBytes(b))
}

// IsValid reports whether v lies in [0, Prime) without constructing a
// Felt252.
func IsValid(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(Prime) < 0
}

// ToHex renders the felt as a lowercase, `0x`-prefixed, unpadded hex
// string ("0x0" for zero).
func (f Felt252) ToHex() string {
	bi := f.ToBigInt()
	if bi.Sign() == 0 {
		return "0x0"
	}
	return "0x" + bi.Text(16)
}

// ToBigInt returns the felt's value as a non-negative big.Int.
func (f Felt252) ToBigInt() *big.Int {
	bi := new(big.Int)
	f.inner.BigInt(bi)
	return bi
}

// ToBytes returns the felt's 32-byte big-endian representation.
func (f Felt252) ToBytes() [32]byte {
	return f.inner.Bytes()
}

// Equals reports whether two felts have the same value.
func (f Felt252) Equals(other Felt252) bool {
	return f.inner.Equal(&other.inner)
}

// IsZero reports whether the felt is the additive identity.
func (f Felt252) IsZero() bool {
	return f.inner.IsZero()
}

// String implements fmt.Stringer as the felt's hex form, for use in
// error messages and logging.
func (f Felt252) String() string {
	return f.ToHex()
}

// junoFelt returns a copy of the underlying juno representation. It is
// unexported, so only this package calls it; other packages reach the
// juno value through Inner.
func (f Felt252) junoFelt() *junofelt.Felt {
	v := f.inner
	return &v
}

// Inner returns a copy of the underlying juno felt representation. It
// exists so sibling packages in this module (abi, abicodec, starkhash,
// provider, account, txstream) can interoperate with starkcrypto and
// juno-typed RPC payloads without this package exporting mutable state.
func (f Felt252) Inner() *junofelt.Felt {
	return f.junoFelt()
}

// FromInner wraps an already-reduced juno felt. Used at the boundary
// where starkcrypto or RPC decoding hands back a *junofelt.Felt that is
// known by construction to be in range (e.g. a hash output).
func FromInner(f *junofelt.Felt) Felt252 {
	return Felt252{inner: *f}
}
