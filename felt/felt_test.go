package felt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHexRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		hex  string
	}{
		{"zero", "0x0"},
		{"small", "0x2a"},
		{"unpadded", "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FromHex(tt.hex)
			require.NoError(t, err)

			again, err := FromHex(f.ToHex())
			require.NoError(t, err)
			assert.True(t, f.Equals(again))
		})
	}
}

func TestFromBigIntRejectsOutOfRange(t *testing.T) {
	_, err := FromBigInt(big.NewInt(-1))
	assert.Error(t, err)

	_, err = FromBigInt(new(big.Int).Set(Prime))
	assert.Error(t, err)

	overPrime := new(big.Int).Add(Prime, big.NewInt(1))
	_, err = FromBigInt(overPrime)
	assert.Error(t, err)
}

func TestFromHexRejectsMalformed(t *testing.T) {
	_, err := FromHex("not-hex")
	assert.Error(t, err)

	_, err = FromHex("")
	assert.Error(t, err)
}

func TestToBytesRoundTrip(t *testing.T) {
	f, err := FromHex("0x123456789abcdef")
	require.NoError(t, err)

	bytes := f.ToBytes()
	again, err := FromBytes(bytes[:])
	require.NoError(t, err)
	assert.True(t, f.Equals(again))
}

func TestIsZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, FromUint64(1).IsZero())
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(big.NewInt(0)))
	assert.True(t, IsValid(new(big.Int).Sub(Prime, big.NewInt(1))))
	assert.False(t, IsValid(big.NewInt(-1)))
	assert.False(t, IsValid(Prime))
}
