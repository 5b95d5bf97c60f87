package abicodec

import (
	"github.com/NethermindEth/starknet-go-client/abi"
	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// DecodedEvent is a decoded contract event: the matched definition name
// plus its fields keyed by member name (nested enum variants flatten
// their own fields in under the same map).
type DecodedEvent struct {
	Name   string
	Fields map[string]any
}

// DecodeEvent dispatches on keys[0] (the event selector) to find the
// matching definition in schema, then partitions the remaining keys and
// data between indexed and non-indexed members. Enum-kind event
// definitions recurse into the selected variant using keys[1] as the
// inner selector.
func DecodeEvent(schema *abi.Abi, keys []felt.Felt252, data []felt.Felt252) Result[DecodedEvent] {
	if len(keys) == 0 {
		return Fail[DecodedEvent](apierror.New(apierror.KindDecodeError, "event has no keys"))
	}
	def, err := schema.EventBySelector(keys[0].ToHex())
	if err != nil {
		return Fail[DecodedEvent](err.(*apierror.Error))
	}
	return decodeEventDef(schema, def, keys[1:], data)
}

func decodeEventDef(schema *abi.Abi, def *abi.EventDef, keys []felt.Felt252, data []felt.Felt252) Result[DecodedEvent] {
	if def.IsEnum {
		if len(keys) == 0 {
			return Fail[DecodedEvent](errDecode("enum event %q expects an inner selector key", def.Name))
		}
		inner, ok := def.Variants[keys[0].ToHex()]
		if !ok {
			return Fail[DecodedEvent](errDecode("unknown variant selector %s for event %q", keys[0].ToHex(), def.Name))
		}
		return decodeEventDef(schema, inner, keys[1:], data)
	}

	keyCursor := &cursor{data: keys}
	dataCursor := &cursor{data: data}
	fields := make(map[string]any, len(def.Members))
	for _, m := range def.Members {
		var (
			v    any
			derr *apierror.Error
		)
		switch m.Kind {
		case abi.MemberKey:
			v, derr = decodeValue(schema, m.Type, keyCursor)
		default:
			v, derr = decodeValue(schema, m.Type, dataCursor)
		}
		if derr != nil {
			return Fail[DecodedEvent](derr)
		}
		fields[m.Name] = v
	}
	if keyCursor.remaining() != 0 {
		return Fail[DecodedEvent](errDecode("%d unconsumed key felts for event %q", keyCursor.remaining(), def.Name))
	}
	if dataCursor.remaining() != 0 {
		return Fail[DecodedEvent](errDecode("%d unconsumed data felts for event %q", dataCursor.remaining(), def.Name))
	}
	return Ok(DecodedEvent{Name: def.Name, Fields: fields})
}
