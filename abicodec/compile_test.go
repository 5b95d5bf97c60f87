package abicodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/starknet-go-client/abi"
	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

func TestCompileBuildsCallFromSchemaAndArgs(t *testing.T) {
	schema := mustParseAbi(t, erc20AbiJSON)
	contract, err := felt.ContractAddressFromHex("0xabc")
	require.NoError(t, err)
	recipient, err := felt.ContractAddressFromHex("0x1234")
	require.NoError(t, err)

	result := Compile(schema, contract, "transfer", []any{recipient, 1000})
	require.Nil(t, result.Err)

	fn, ferr := schema.FunctionByName("transfer")
	require.NoError(t, ferr)
	wantSelector, serr := felt.FromHex(fn.Selector)
	require.NoError(t, serr)

	assert.Equal(t, contract, result.Value.To)
	assert.Equal(t, wantSelector, result.Value.Selector)
	require.Len(t, result.Value.Calldata, 3)
	assert.Equal(t, "0x1234", result.Value.Calldata[0].ToHex())
}

func TestCompileUnknownFunctionFails(t *testing.T) {
	schema := mustParseAbi(t, erc20AbiJSON)
	contract, _ := felt.ContractAddressFromHex("0xabc")

	result := Compile(schema, contract, "does_not_exist", []any{})
	require.NotNil(t, result.Err)
	assert.Equal(t, apierror.KindFunctionNotFound, result.Err.Kind)
}
