package felt

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// AddressBound is 2^251 - 256, the upper bound (exclusive) for contract
// addresses per spec: ContractAddress < 2^251 - 256.
var AddressBound *big.Int

func init() {
	AddressBound = new(big.Int).Lsh(big.NewInt(1), 251)
	AddressBound.Sub(AddressBound, big.NewInt(256))
}

// ContractAddress is a felt additionally constrained to [0, 2^251-256).
type ContractAddress struct{ f Felt252 }

// ClassHash is a felt branded to distinguish it from other felt-shaped
// values at API boundaries; it carries no extra range constraint beyond
// Felt252's.
type ClassHash struct{ f Felt252 }

// StorageKey is a felt branded the same way as ClassHash.
type StorageKey struct{ f Felt252 }

// NewContractAddress validates f against the address bound.
func NewContractAddress(f Felt252) (ContractAddress, error) {
	bi := f.ToBigInt()
	if bi.Cmp(AddressBound) >= 0 {
		return ContractAddress{}, apierror.New(apierror.KindOverflow,
			fmt.Sprintf("contract address %s >= 2^251-256", f.ToHex()))
	}
	return ContractAddress{f: f}, nil
}

// ContractAddressFromHex parses and validates a contract address.
func ContractAddressFromHex(s string) (ContractAddress, error) {
	f, err := FromHex(s)
	if err != nil {
		return ContractAddress{}, err
	}
	return NewContractAddress(f)
}

func (a ContractAddress) Felt() Felt252  { return a.f }
func (a ContractAddress) ToHex() string  { return a.f.ToHex() }
func (a ContractAddress) String() string { return a.f.ToHex() }
func (a ContractAddress) Equals(b ContractAddress) bool {
	return a.f.Equals(b.f)
}

// NewClassHash brands a felt as a class hash. No extra constraint.
func NewClassHash(f Felt252) ClassHash { return ClassHash{f: f} }

// ClassHashFromHex parses a class hash.
func ClassHashFromHex(s string) (ClassHash, error) {
	f, err := FromHex(s)
	if err != nil {
		return ClassHash{}, err
	}
	return NewClassHash(f), nil
}

func (c ClassHash) Felt() Felt252  { return c.f }
func (c ClassHash) ToHex() string  { return c.f.ToHex() }
func (c ClassHash) String() string { return c.f.ToHex() }
func (c ClassHash) Equals(b ClassHash) bool {
	return c.f.Equals(b.f)
}

// NewStorageKey brands a felt as a storage key. No extra constraint.
func NewStorageKey(f Felt252) StorageKey { return StorageKey{f: f} }

// StorageKeyFromHex parses a storage key.
func StorageKeyFromHex(s string) (StorageKey, error) {
	f, err := FromHex(s)
	if err != nil {
		return StorageKey{}, err
	}
	return NewStorageKey(f), nil
}

func (k StorageKey) Felt() Felt252  { return k.f }
func (k StorageKey) ToHex() string  { return k.f.ToHex() }
func (k StorageKey) String() string { return k.f.ToHex() }
func (k StorageKey) Equals(b StorageKey) bool {
	return k.f.Equals(b.f)
}
