package abicodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/felt"
)

func TestDecodeEventPartitionsKeysAndData(t *testing.T) {
	schema := mustParseAbi(t, erc20AbiJSON)

	transferDef, err := schema.EventByName("Transfer")
	require.NoError(t, err)
	selector, herr := felt.FromHex(transferDef.Selector)
	require.NoError(t, herr)

	from, _ := felt.ContractAddressFromHex("0x1")
	to, _ := felt.ContractAddressFromHex("0x2")
	value := felt.FromUint64(100)
	valueHigh := felt.FromUint64(0)

	result := DecodeEvent(schema, []felt.Felt252{selector, from.Felt(), to.Felt()}, []felt.Felt252{value, valueHigh})
	require.Nil(t, result.Err)
	assert.Equal(t, "Transfer", result.Value.Name)
	assert.Equal(t, from.Felt(), result.Value.Fields["from"])
	assert.Equal(t, to.Felt(), result.Value.Fields["to"])

	u, ok := result.Value.Fields["value"].(felt.Uint256)
	require.True(t, ok)
	assert.Equal(t, uint64(100), u.ToBigInt().Uint64())
}

func TestDecodeEventUnknownSelectorFails(t *testing.T) {
	schema := mustParseAbi(t, erc20AbiJSON)
	bogus := felt.FromUint64(0xdeadbeef)
	result := DecodeEvent(schema, []felt.Felt252{bogus}, nil)
	require.NotNil(t, result.Err)
	assert.Equal(t, "EVENT_NOT_FOUND", string(result.Err.Kind))
}

const enumEventAbiJSON = `[
  {"type":"event","name":"Approval","kind":"struct","members":[
    {"name":"owner","type":"core::felt252","kind":"key"},
    {"name":"amount","type":"core::felt252","kind":"data"}
  ]},
  {"type":"event","name":"Transfer","kind":"struct","members":[
    {"name":"from","type":"core::felt252","kind":"key"},
    {"name":"amount","type":"core::felt252","kind":"data"}
  ]},
  {"type":"event","name":"Events","kind":"enum","variants":[
    {"name":"Approval","type":"Approval","kind":"nested"},
    {"name":"Transfer","type":"Transfer","kind":"nested"}
  ]}
]`

func TestDecodeEnumEventRoutesToVariant(t *testing.T) {
	schema := mustParseAbi(t, enumEventAbiJSON)

	outer, err := schema.EventByName("Events")
	require.NoError(t, err)
	require.True(t, outer.IsEnum)

	approval, err := schema.EventByName("Approval")
	require.NoError(t, err)
	innerSelector, herr := felt.FromHex(approval.Selector)
	require.NoError(t, herr)
	outerSelector, herr := felt.FromHex(outer.Selector)
	require.NoError(t, herr)

	owner := felt.FromUint64(7)
	amount := felt.FromUint64(9)

	result := DecodeEvent(schema, []felt.Felt252{outerSelector, innerSelector, owner}, []felt.Felt252{amount})
	require.Nil(t, result.Err)
	assert.Equal(t, "Approval", result.Value.Name)
	assert.Equal(t, owner, result.Value.Fields["owner"])
	assert.Equal(t, amount, result.Value.Fields["amount"])
}
