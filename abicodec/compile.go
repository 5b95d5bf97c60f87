package abicodec

import (
	"github.com/NethermindEth/starknet-go-client/abi"
	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/starkhash"
)

// Compile resolves fnName against schema, encodes args against its
// input members, and returns a starkhash.Call ready to hand to
// starkhash.BuildExecuteCalldata — the glue between the ABI codec and
// account execution that starknet.js's CallData class plays for a
// contract's populateTransaction/execute path.
func Compile(schema *abi.Abi, contractAddress felt.ContractAddress, fnName string, args any) Result[starkhash.Call] {
	fn, err := schema.FunctionByName(fnName)
	if err != nil {
		return Fail[starkhash.Call](err.(*apierror.Error))
	}

	selector, herr := felt.FromHex(fn.Selector)
	if herr != nil {
		return Fail[starkhash.Call](apierror.Wrap(apierror.KindInvalidHex, "malformed selector for function "+fnName, herr))
	}

	calldata := EncodeCalldata(schema, fnName, args)
	if calldata.Err != nil {
		return Fail[starkhash.Call](calldata.Err)
	}

	return Ok(starkhash.Call{
		To:       contractAddress,
		Selector: selector,
		Calldata: calldata.Value,
	})
}
