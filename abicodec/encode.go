package abicodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NethermindEth/starknet-go-client/abi"
	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// EncodeCalldata serialises args against fn's input schema. args is
// either a positional []any (one entry per input, in declaration order)
// or a map[string]any keyed by input name; the latter fails
// INVALID_ARGS if any input name is missing.
func EncodeCalldata(schema *abi.Abi, fnName string, args any) Result[[]felt.Felt252] {
	fn, err := schema.FunctionByName(fnName)
	if err != nil {
		return Fail[[]felt.Felt252](err.(*apierror.Error))
	}
	return encodeAgainst(schema, fn.Inputs, args)
}

// onePow returns 2^bits as a big.Int.
func onePow(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}

// encodeAgainst encodes args against an ordered list of named, typed
// members — shared by calldata encoding and struct-member encoding.
func encodeAgainst(schema *abi.Abi, members []abi.StructMember, args any) Result[[]felt.Felt252] {
	values, aerr := resolveArgs(members, args)
	if aerr != nil {
		return Fail[[]felt.Felt252](aerr)
	}

	out := make([]felt.Felt252, 0, len(members))
	for i, m := range members {
		enc, err := encodeValue(schema, m.Type, values[i])
		if err != nil {
			return Fail[[]felt.Felt252](err)
		}
		out = append(out, enc...)
	}
	return Ok(out)
}

// resolveArgs normalises positional or named args into positional order
// matching members.
func resolveArgs(members []abi.StructMember, args any) ([]any, *apierror.Error) {
	switch a := args.(type) {
	case []any:
		if len(a) != len(members) {
			return nil, errArgs("expected %d args, got %d", len(members), len(a))
		}
		return a, nil
	case map[string]any:
		out := make([]any, len(members))
		for i, m := range members {
			v, ok := a[m.Name]
			if !ok {
				return nil, errArgs("missing named arg %q", m.Name)
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, errArgs("args must be []any or map[string]any, got %T", args)
	}
}

// encodeValue recursively serialises one value against its Cairo type.
func encodeValue(schema *abi.Abi, t *abi.CairoType, val any) ([]felt.Felt252, *apierror.Error) {
	switch t.Kind {
	case abi.KindFelt252, abi.KindContractAddress, abi.KindClassHash, abi.KindStorageAddress, abi.KindShortString:
		return encodeScalarFelt(val)
	case abi.KindEthAddress:
		return encodeEthAddress(val)
	case abi.KindBool:
		return encodeBool(val)
	case abi.KindU8, abi.KindU16, abi.KindU32, abi.KindU64, abi.KindU128:
		bits, _ := unsignedBits(t.Kind)
		return encodeUnsigned(val, bits)
	case abi.KindI8, abi.KindI16, abi.KindI32, abi.KindI64, abi.KindI128:
		bits, _ := signedBits(t.Kind)
		return encodeSignedValue(val, bits)
	case abi.KindU256:
		return encodeU256(val)
	case abi.KindByteArray:
		return encodeByteArray(val)
	case abi.KindArray, abi.KindSpan:
		return encodeArray(schema, t.Elem, val)
	case abi.KindTuple:
		return encodeTuple(schema, t.Tuple, val)
	case abi.KindOption:
		return encodeOption(schema, t.Elem, val)
	case abi.KindStruct, abi.KindEnum:
		return encodeNamed(schema, t.Named, val)
	default:
		return nil, errEncode("unsupported Cairo type %q", t.Raw)
	}
}

func encodeNamed(schema *abi.Abi, name string, val any) ([]felt.Felt252, *apierror.Error) {
	structDef, enumDef, ok := schema.ResolveNamed(name)
	if !ok {
		return nil, errEncode("unresolved named type %q", name)
	}
	if structDef != nil {
		r := encodeAgainst(schema, structDef.Members, val)
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Value, nil
	}
	return encodeEnum(schema, enumDef, val)
}

func encodeEnum(schema *abi.Abi, def *abi.EnumDef, val any) ([]felt.Felt252, *apierror.Error) {
	ev, ok := val.(EnumValue)
	if !ok {
		return nil, errArgs("enum %q expects abicodec.EnumValue, got %T", def.Name, val)
	}
	idx := -1
	for i, v := range def.Variants {
		if v.Name == ev.Variant {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errArgs("unknown variant %q for enum %q", ev.Variant, def.Name)
	}
	out := []felt.Felt252{felt.FromUint64(uint64(idx))}
	variant := def.Variants[idx]
	if variant.Payload == nil {
		if ev.Value != nil {
			return nil, errArgs("variant %q of enum %q is a unit variant, got a value", ev.Variant, def.Name)
		}
		return out, nil
	}
	payload, err := encodeValue(schema, variant.Payload, ev.Value)
	if err != nil {
		return nil, err
	}
	return append(out, payload...), nil
}

func encodeOption(schema *abi.Abi, elem *abi.CairoType, val any) ([]felt.Felt252, *apierror.Error) {
	opt, ok := val.(OptionValue)
	if !ok {
		return nil, errArgs("Option<T> expects abicodec.OptionValue, got %T", val)
	}
	if opt.IsSome {
		payload, err := encodeValue(schema, elem, opt.Value)
		if err != nil {
			return nil, err
		}
		return append([]felt.Felt252{felt.FromUint64(0)}, payload...), nil
	}
	return []felt.Felt252{felt.FromUint64(1)}, nil
}

func encodeArray(schema *abi.Abi, elem *abi.CairoType, val any) ([]felt.Felt252, *apierror.Error) {
	items, ok := val.([]any)
	if !ok {
		return nil, errArgs("Array<T>/Span<T> expects []any, got %T", val)
	}
	out := make([]felt.Felt252, 0, len(items)+1)
	out = append(out, felt.FromUint64(uint64(len(items))))
	for _, item := range items {
		enc, err := encodeValue(schema, elem, item)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

func encodeTuple(schema *abi.Abi, elems []*abi.CairoType, val any) ([]felt.Felt252, *apierror.Error) {
	items, ok := val.([]any)
	if !ok {
		return nil, errArgs("tuple expects []any, got %T", val)
	}
	if len(items) != len(elems) {
		return nil, errArgs("tuple arity mismatch: expected %d, got %d", len(elems), len(items))
	}
	out := make([]felt.Felt252, 0, len(elems))
	for i, t := range elems {
		enc, err := encodeValue(schema, t, items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

func encodeScalarFelt(val any) ([]felt.Felt252, *apierror.Error) {
	bi, err := toBigInt(val)
	if err != nil {
		return nil, err
	}
	f, ferr := felt.FromBigInt(bi)
	if ferr != nil {
		return nil, errEncode("value %s is not a valid felt: %v", bi.String(), ferr)
	}
	return []felt.Felt252{f}, nil
}

func encodeEthAddress(val any) ([]felt.Felt252, *apierror.Error) {
	if addr, ok := val.(common.Address); ok {
		f, err := felt.FromBytes(addr.Bytes())
		if err != nil {
			return nil, errEncode("invalid eth address: %v", err)
		}
		return []felt.Felt252{f}, nil
	}
	return encodeScalarFelt(val)
}

func encodeBool(val any) ([]felt.Felt252, *apierror.Error) {
	b, ok := val.(bool)
	if !ok {
		bi, err := toBigInt(val)
		if err != nil {
			return nil, errArgs("bool expects a bool, got %T", val)
		}
		return []felt.Felt252{felt.FromUint64(boolUint(bi.Sign() != 0))}, nil
	}
	return []felt.Felt252{felt.FromUint64(boolUint(b))}, nil
}

func boolUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func encodeUnsigned(val any, bits int) ([]felt.Felt252, *apierror.Error) {
	bi, err := toBigInt(val)
	if err != nil {
		return nil, err
	}
	bound := onePow(bits)
	if bi.Sign() < 0 || bi.Cmp(bound) >= 0 {
		return nil, errEncodeRange(bi, "u", bits)
	}
	f, ferr := felt.FromBigInt(bi)
	if ferr != nil {
		return nil, errEncode("value out of felt range: %v", ferr)
	}
	return []felt.Felt252{f}, nil
}

func encodeSignedValue(val any, bits int) ([]felt.Felt252, *apierror.Error) {
	bi, err := toBigInt(val)
	if err != nil {
		return nil, err
	}
	enc, serr := encodeSigned(bi, bits)
	if serr != nil {
		return nil, serr.(*apierror.Error)
	}
	f, ferr := felt.FromBigInt(enc)
	if ferr != nil {
		return nil, errEncode("value out of felt range: %v", ferr)
	}
	return []felt.Felt252{f}, nil
}

func encodeU256(val any) ([]felt.Felt252, *apierror.Error) {
	var u felt.Uint256
	switch v := val.(type) {
	case felt.Uint256:
		u = v
	default:
		bi, err := toBigInt(val)
		if err != nil {
			return nil, err
		}
		built, uerr := felt.Uint256FromBigInt(bi)
		if uerr != nil {
			return nil, errEncode("value %s is not a valid u256: %v", bi.String(), uerr)
		}
		u = built
	}
	limbs := u.ToFelts()
	return []felt.Felt252{limbs[0], limbs[1]}, nil
}
