package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const erc20AbiJSON = `[
  {"type":"struct","name":"core::integer::u256","members":[
    {"name":"low","type":"core::integer::u128"},
    {"name":"high","type":"core::integer::u128"}
  ]},
  {"type":"interface","name":"IERC20","items":[
    {"type":"function","name":"transfer","inputs":[
      {"name":"recipient","type":"core::starknet::contract_address::ContractAddress"},
      {"name":"amount","type":"core::integer::u256"}
    ],"outputs":[{"type":"core::bool"}],"state_mutability":"external"},
    {"type":"function","name":"balance_of","inputs":[
      {"name":"account","type":"core::starknet::contract_address::ContractAddress"}
    ],"outputs":[{"type":"core::integer::u256"}],"state_mutability":"view"}
  ]},
  {"type":"event","name":"Transfer","kind":"struct","members":[
    {"name":"from","type":"core::starknet::contract_address::ContractAddress","kind":"key"},
    {"name":"to","type":"core::starknet::contract_address::ContractAddress","kind":"key"},
    {"name":"value","type":"core::integer::u256","kind":"data"}
  ]}
]`

func TestParseAbiJSONFlattensInterfaceAndComputesSelectors(t *testing.T) {
	a, err := ParseAbiJSON([]byte(erc20AbiJSON))
	require.NoError(t, err)

	transfer, err := a.FunctionByName("transfer")
	require.NoError(t, err)
	assert.Equal(t, "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e", transfer.Selector)
	assert.Len(t, transfer.Inputs, 2)
	assert.Equal(t, KindU256, transfer.Inputs[1].Type.Kind)

	byBalance, err := a.FunctionByName("balance_of")
	require.NoError(t, err)
	assert.Equal(t, "view", byBalance.StateMutability)

	_, err = a.FunctionByName("nonexistent")
	assert.Error(t, err)

	fnBySel, err := a.FunctionBySelector(transfer.Selector)
	require.NoError(t, err)
	assert.Equal(t, "transfer", fnBySel.Name)
}

func TestParseAbiEventKeyDataPartition(t *testing.T) {
	a, err := ParseAbiJSON([]byte(erc20AbiJSON))
	require.NoError(t, err)

	ev, err := a.EventByName("Transfer")
	require.NoError(t, err)
	assert.False(t, ev.IsEnum)

	var keys, data int
	for _, m := range ev.Members {
		switch m.Kind {
		case MemberKey:
			keys++
		case MemberData:
			data++
		}
	}
	assert.Equal(t, 2, keys)
	assert.Equal(t, 1, data)

	_, err = a.EventByName("Nonexistent")
	assert.Error(t, err)
}

func TestParseAbiRejectsDuplicateFunctionNames(t *testing.T) {
	dup := `[
    {"type":"function","name":"foo","inputs":[],"outputs":[],"state_mutability":"view"},
    {"type":"function","name":"foo","inputs":[],"outputs":[],"state_mutability":"view"}
  ]`
	_, err := ParseAbiJSON([]byte(dup))
	assert.Error(t, err)
}

func TestParseAbiIdempotentStructRedefinition(t *testing.T) {
	dup := `[
    {"type":"struct","name":"Point","members":[{"name":"x","type":"core::felt252"},{"name":"y","type":"core::felt252"}]},
    {"type":"struct","name":"Point","members":[{"name":"x","type":"core::felt252"},{"name":"y","type":"core::felt252"}]}
  ]`
	a, err := ParseAbiJSON([]byte(dup))
	require.NoError(t, err)
	assert.Len(t, a.Structs, 1)
}

func TestParseAbiConflictingStructRedefinitionFails(t *testing.T) {
	dup := `[
    {"type":"struct","name":"Point","members":[{"name":"x","type":"core::felt252"}]},
    {"type":"struct","name":"Point","members":[{"name":"x","type":"core::felt252"},{"name":"y","type":"core::felt252"}]}
  ]`
	_, err := ParseAbiJSON([]byte(dup))
	assert.Error(t, err)
}

func TestParseTypeResolvesGenerics(t *testing.T) {
	arr := parseType("core::array::Array::<core::felt252>")
	assert.Equal(t, KindArray, arr.Kind)
	assert.Equal(t, KindFelt252, arr.Elem.Kind)

	opt := parseType("core::option::Option::<core::integer::u256>")
	assert.Equal(t, KindOption, opt.Kind)
	assert.Equal(t, KindU256, opt.Elem.Kind)

	tup := parseType("(core::felt252, core::bool)")
	require.Len(t, tup.Tuple, 2)
	assert.Equal(t, KindFelt252, tup.Tuple[0].Kind)
	assert.Equal(t, KindBool, tup.Tuple[1].Kind)
}

func TestResolveNamedUnknownTypeDeferred(t *testing.T) {
	abi, err := ParseAbiJSON([]byte(`[
    {"type":"function","name":"takes_unknown","inputs":[{"name":"x","type":"my::pkg::Unknown"}],"outputs":[],"state_mutability":"view"}
  ]`))
	require.NoError(t, err)

	fn, err := abi.FunctionByName("takes_unknown")
	require.NoError(t, err)
	assert.Equal(t, "my::pkg::Unknown", fn.Inputs[0].Type.Named)

	_, _, ok := abi.ResolveNamed("my::pkg::Unknown")
	assert.False(t, ok)
}
