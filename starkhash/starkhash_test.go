package starkhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/felt"
)

func fixtureCommon(t *testing.T, nonce uint64) TxCommon {
	t.Helper()
	sender, err := felt.ContractAddressFromHex("0x1234")
	require.NoError(t, err)
	amount := felt.FromUint64(1000)
	zero := felt.FromUint64(0)
	bound := func(max uint64, price felt.Felt252) ResourceBounds {
		u, err := felt.FromFelts(price, zero)
		require.NoError(t, err)
		return ResourceBounds{MaxAmount: max, MaxPricePerUnit: &u}
	}
	return TxCommon{
		Sender: sender,
		Tip:    0,
		ResourceBounds: ResourceBoundsV3{
			L1Gas:     bound(1000, amount),
			L2Gas:     bound(0, zero),
			L1DataGas: bound(0, zero),
		},
		Nonce: nonce64(nonce),
	}
}

func nonce64(n uint64) felt.Felt252 { return felt.FromUint64(n) }

func TestHashInvokeV3IsDeterministic(t *testing.T) {
	common := fixtureCommon(t, 1)
	chainID := mustFeltFromHex("0x534e5f474f45524c49")
	tx := InvokeV3{TxCommon: common, Calldata: []felt.Felt252{felt.FromUint64(1), felt.FromUint64(2)}}

	h1 := HashInvokeV3(tx, chainID)
	h2 := HashInvokeV3(tx, chainID)
	assert.Equal(t, h1.ToHex(), h2.ToHex())
}

func TestHashInvokeV3SensitiveToNonce(t *testing.T) {
	chainID := felt.FromUint64(1)
	tx1 := InvokeV3{TxCommon: fixtureCommon(t, 1), Calldata: []felt.Felt252{felt.FromUint64(9)}}
	tx2 := InvokeV3{TxCommon: fixtureCommon(t, 2), Calldata: []felt.Felt252{felt.FromUint64(9)}}

	assert.NotEqual(t, HashInvokeV3(tx1, chainID).ToHex(), HashInvokeV3(tx2, chainID).ToHex())
}

func TestHashDeclareV3DiffersFromInvokeV3ForSameFields(t *testing.T) {
	chainID := felt.FromUint64(1)
	common := fixtureCommon(t, 1)

	invokeHash := HashInvokeV3(InvokeV3{TxCommon: common, Calldata: nil}, chainID)
	declareHash := HashDeclareV3(DeclareV3{
		TxCommon:          common,
		ClassHash:         felt.NewClassHash(felt.FromUint64(0xabc)),
		CompiledClassHash: felt.NewClassHash(felt.FromUint64(0xdef)),
	}, chainID)

	assert.NotEqual(t, invokeHash.ToHex(), declareHash.ToHex())
}

func TestComputeAddressIsDeterministicAndBounded(t *testing.T) {
	classHash := felt.NewClassHash(felt.FromUint64(0x1111))
	salt := felt.FromUint64(0x2222)
	calldata := []felt.Felt252{felt.FromUint64(1), felt.FromUint64(2)}

	a1 := ComputeAddress(classHash, salt, calldata, felt.FromUint64(0))
	a2 := ComputeAddress(classHash, salt, calldata, felt.FromUint64(0))
	assert.Equal(t, a1.ToHex(), a2.ToHex())
	assert.True(t, a1.Felt().ToBigInt().Cmp(felt.AddressBound) < 0)
}

func TestComputeAddressSensitiveToSalt(t *testing.T) {
	classHash := felt.NewClassHash(felt.FromUint64(0x1111))
	calldata := []felt.Felt252{felt.FromUint64(1)}

	a1 := ComputeAddress(classHash, felt.FromUint64(1), calldata, felt.FromUint64(0))
	a2 := ComputeAddress(classHash, felt.FromUint64(2), calldata, felt.FromUint64(0))
	assert.NotEqual(t, a1.ToHex(), a2.ToHex())
}

func TestBuildExecuteCalldataLayout(t *testing.T) {
	to1, _ := felt.ContractAddressFromHex("0x1")
	to2, _ := felt.ContractAddressFromHex("0x2")
	calls := []Call{
		{To: to1, Selector: felt.FromUint64(0xaa), Calldata: []felt.Felt252{felt.FromUint64(10), felt.FromUint64(11)}},
		{To: to2, Selector: felt.FromUint64(0xbb), Calldata: []felt.Felt252{felt.FromUint64(20)}},
	}

	out := BuildExecuteCalldata(calls)
	require.Len(t, out, 1+4*2+1+3)

	assert.Equal(t, "0x2", out[0].ToHex())
	// call 1: to, selector, offset=0, len=2
	assert.Equal(t, "0x1", out[1].ToHex())
	assert.Equal(t, "0xaa", out[2].ToHex())
	assert.Equal(t, "0x0", out[3].ToHex())
	assert.Equal(t, "0x2", out[4].ToHex())
	// call 2: to, selector, offset=2, len=1
	assert.Equal(t, "0x2", out[5].ToHex())
	assert.Equal(t, "0xbb", out[6].ToHex())
	assert.Equal(t, "0x2", out[7].ToHex())
	assert.Equal(t, "0x1", out[8].ToHex())
	// total calldata length, then flattened calldata
	assert.Equal(t, "0x3", out[9].ToHex())
	assert.Equal(t, "0xa", out[10].ToHex())
	assert.Equal(t, "0xb", out[11].ToHex())
	assert.Equal(t, "0x14", out[12].ToHex())
}

func TestExecuteSelectorMatchesKnownValue(t *testing.T) {
	assert.Equal(t, "0x15d40a3d6ca2ac30f4031e42be28da9b056fef9bb7357ac5e85627ee876e5ad", ExecuteSelector.ToHex())
}
