package starkhash

import "github.com/NethermindEth/starknet-go-client/felt"

// ExecuteSelector is the selector of the account contract's
// "__execute__" entry point, computed once and pinned here as a
// constant check on the ABI selector machinery (abi.ComputeSelector
// must agree with this value for "__execute__").
var ExecuteSelector = mustFeltFromHex("0x015d40a3d6ca2ac30f4031e42be28da9b056fef9bb7357ac5e85627ee876e5ad")

// Call is one entry of a multi-call invocation.
type Call struct {
	To       felt.ContractAddress
	Selector felt.Felt252
	Calldata []felt.Felt252
}

// BuildExecuteCalldata encodes calls into the "__execute__" calldata
// layout: a call-descriptor table (to, selector, offset, len per call)
// followed by the flattened calldata of every call, offsets cumulative
// over the flattened array.
func BuildExecuteCalldata(calls []Call) []felt.Felt252 {
	out := make([]felt.Felt252, 0, 1+4*len(calls)+1)
	out = append(out, felt.FromUint64(uint64(len(calls))))

	offset := 0
	for _, c := range calls {
		out = append(out,
			c.To.Felt(),
			c.Selector,
			felt.FromUint64(uint64(offset)),
			felt.FromUint64(uint64(len(c.Calldata))),
		)
		offset += len(c.Calldata)
	}

	out = append(out, felt.FromUint64(uint64(offset)))
	for _, c := range calls {
		out = append(out, c.Calldata...)
	}
	return out
}
