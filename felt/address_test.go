package felt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractAddressRejectsAboveBound(t *testing.T) {
	f, err := FromBigInt(AddressBound)
	require.NoError(t, err)

	_, err = NewContractAddress(f)
	assert.Error(t, err)
}

func TestContractAddressAcceptsJustBelowBound(t *testing.T) {
	below, err := FromBigInt(new(big.Int).Sub(AddressBound, big.NewInt(1)))
	require.NoError(t, err)

	_, err = NewContractAddress(below)
	assert.NoError(t, err)
}

func TestClassHashAndStorageKeyRoundTrip(t *testing.T) {
	ch, err := ClassHashFromHex("0x1234")
	require.NoError(t, err)
	assert.Equal(t, "0x1234", ch.ToHex())

	sk, err := StorageKeyFromHex("0x5678")
	require.NoError(t, err)
	assert.Equal(t, "0x5678", sk.ToHex())
}
