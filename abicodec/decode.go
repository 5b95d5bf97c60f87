package abicodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/NethermindEth/starknet-go-client/abi"
	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

var bigOne = big.NewInt(1)

// DecodeCalldata decodes a felt slice against fn's output schema.
// Arity 0 returns nil; arity 1 returns the single decoded value
// unwrapped; arity 2+ returns a []any in declaration order.
func DecodeCalldata(schema *abi.Abi, fnName string, data []felt.Felt252) Result[any] {
	fn, err := schema.FunctionByName(fnName)
	if err != nil {
		return Fail[any](err.(*apierror.Error))
	}
	return decodeOutputs(schema, fn.Outputs, data)
}

func decodeOutputs(schema *abi.Abi, outputs []*abi.CairoType, data []felt.Felt252) Result[any] {
	c := &cursor{data: data}
	values := make([]any, 0, len(outputs))
	for _, t := range outputs {
		v, err := decodeValue(schema, t, c)
		if err != nil {
			return Fail[any](err)
		}
		values = append(values, v)
	}
	if c.remaining() != 0 {
		return Fail[any](errDecode("%d unconsumed felts after decoding outputs", c.remaining()))
	}

	switch len(values) {
	case 0:
		return Ok[any](nil)
	case 1:
		return Ok(values[0])
	default:
		return Ok[any](values)
	}
}

// decodeValue recursively deserialises one value off the cursor
// according to its Cairo type.
func decodeValue(schema *abi.Abi, t *abi.CairoType, c *cursor) (any, *apierror.Error) {
	switch t.Kind {
	case abi.KindFelt252, abi.KindShortString:
		f, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		return f, nil
	case abi.KindContractAddress:
		f, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		addr, aerr := felt.NewContractAddress(f)
		if aerr != nil {
			return nil, errDecode("decoded contract address out of range: %v", aerr)
		}
		return addr, nil
	case abi.KindClassHash:
		f, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		return felt.NewClassHash(f), nil
	case abi.KindStorageAddress:
		f, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		return felt.NewStorageKey(f), nil
	case abi.KindEthAddress:
		f, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		b := f.ToBytes()
		return common.BytesToAddress(b[12:]), nil
	case abi.KindBool:
		f, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		if f.IsZero() {
			return false, nil
		}
		if f.ToBigInt().Cmp(bigOne) == 0 {
			return true, nil
		}
		return nil, errDecode("bool felt %s is neither 0 nor 1", f.ToHex())
	case abi.KindU8, abi.KindU16, abi.KindU32, abi.KindU64, abi.KindU128:
		bits, _ := unsignedBits(t.Kind)
		f, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		v := f.ToBigInt()
		if v.Cmp(onePow(bits)) >= 0 {
			return nil, errDecode("felt %s out of range for u%d", f.ToHex(), bits)
		}
		return v, nil
	case abi.KindI8, abi.KindI16, abi.KindI32, abi.KindI64, abi.KindI128:
		bits, _ := signedBits(t.Kind)
		f, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		v, derr := decodeSigned(f, bits)
		if derr != nil {
			return nil, derr.(*apierror.Error)
		}
		return v, nil
	case abi.KindU256:
		low, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		high, err := c.next()
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		u, uerr := felt.FromFelts(low, high)
		if uerr != nil {
			return nil, errDecode("invalid u256 limbs: %v", uerr)
		}
		return u, nil
	case abi.KindByteArray:
		b, err := decodeByteArray(c)
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		return string(b), nil
	case abi.KindArray, abi.KindSpan:
		return decodeArray(schema, t.Elem, c)
	case abi.KindTuple:
		return decodeTuple(schema, t.Tuple, c)
	case abi.KindOption:
		return decodeOption(schema, t.Elem, c)
	case abi.KindStruct, abi.KindEnum:
		return decodeNamed(schema, t.Named, c)
	default:
		return nil, errDecode("unsupported Cairo type %q", t.Raw)
	}
}

func decodeArray(schema *abi.Abi, elem *abi.CairoType, c *cursor) (any, *apierror.Error) {
	lenF, err := c.next()
	if err != nil {
		return nil, wrapDecodeErr(err)
	}
	lenBig := lenF.ToBigInt()
	if !lenBig.IsUint64() || int(lenBig.Uint64()) > c.remaining() {
		return nil, errDecode("array length %s exceeds remaining calldata", lenBig.String())
	}
	n := int(lenBig.Uint64())
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := decodeValue(schema, elem, c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeTuple(schema *abi.Abi, elems []*abi.CairoType, c *cursor) (any, *apierror.Error) {
	out := make([]any, 0, len(elems))
	for _, t := range elems {
		v, err := decodeValue(schema, t, c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOption(schema *abi.Abi, elem *abi.CairoType, c *cursor) (any, *apierror.Error) {
	tagF, err := c.next()
	if err != nil {
		return nil, wrapDecodeErr(err)
	}
	tag := tagF.ToBigInt()
	switch {
	case tag.Sign() == 0:
		v, derr := decodeValue(schema, elem, c)
		if derr != nil {
			return nil, derr
		}
		return Some(v), nil
	case tag.Cmp(bigOne) == 0:
		return None, nil
	default:
		return nil, errDecode("Option<T> tag felt %s is neither 0 nor 1", tagF.ToHex())
	}
}

func decodeNamed(schema *abi.Abi, name string, c *cursor) (any, *apierror.Error) {
	structDef, enumDef, ok := schema.ResolveNamed(name)
	if !ok {
		return nil, errDecode("unresolved named type %q", name)
	}
	if structDef != nil {
		out := make(map[string]any, len(structDef.Members))
		for _, m := range structDef.Members {
			v, err := decodeValue(schema, m.Type, c)
			if err != nil {
				return nil, err
			}
			out[m.Name] = v
		}
		return out, nil
	}
	return decodeEnumValue(schema, enumDef, c)
}

func decodeEnumValue(schema *abi.Abi, def *abi.EnumDef, c *cursor) (any, *apierror.Error) {
	idxF, err := c.next()
	if err != nil {
		return nil, wrapDecodeErr(err)
	}
	idxBig := idxF.ToBigInt()
	if !idxBig.IsUint64() || int(idxBig.Uint64()) >= len(def.Variants) {
		return nil, errDecode("enum %q discriminant %s out of range", def.Name, idxBig.String())
	}
	variant := def.Variants[idxBig.Uint64()]
	if variant.Payload == nil {
		return EnumValue{Variant: variant.Name}, nil
	}
	payload, derr := decodeValue(schema, variant.Payload, c)
	if derr != nil {
		return nil, derr
	}
	return EnumValue{Variant: variant.Name, Value: payload}, nil
}

func wrapDecodeErr(err error) *apierror.Error {
	if ae, ok := err.(*apierror.Error); ok {
		return ae
	}
	return apierror.Wrap(apierror.KindDecodeError, "decode failed", err)
}
