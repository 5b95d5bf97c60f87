// Package abi parses a Starknet contract ABI into the schema the codec
// (package abicodec) encodes and decodes against: functions, events,
// structs and enums indexed both by name and by selector.
package abi

// CairoKind enumerates the built-in (non-named) Cairo types the codec
// knows how to serialise without a schema lookup.
type CairoKind int

const (
	KindFelt252 CairoKind = iota
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindU256
	KindByteArray
	KindContractAddress
	KindClassHash
	KindStorageAddress
	KindEthAddress
	KindShortString
	KindArray
	KindSpan
	KindTuple
	KindOption
	KindStruct // named reference into Abi.Structs
	KindEnum   // named reference into Abi.Enums
)

// CairoType is one node of the resolved Cairo type graph. Named (struct
// and enum) references carry only the qualified name: resolution against
// the schema's Structs/Enums maps happens lazily, at encode/decode time,
// per the spec's "partially-known ABIs remain usable" contract.
type CairoType struct {
	Kind CairoKind
	// Raw is the original Cairo type string as it appeared in the ABI,
	// e.g. "core::array::Array::<core::felt252>". Kept for error messages
	// and for re-deriving Elem/Tuple/Named lazily if needed.
	Raw string

	Elem  *CairoType   // Array<T>, Span<T>, Option<T>: T
	Tuple []*CairoType // tuple element types in order
	Named string       // qualified name for Struct/Enum references
}

// StructMember is one field of a Cairo struct, in declaration order.
type StructMember struct {
	Name string
	Type *CairoType
}

// EnumVariant is one arm of a Cairo enum. Payload is nil for unit
// variants (including Option's None).
type EnumVariant struct {
	Name    string
	Payload *CairoType
}

// StructDef is a named struct's resolved member list.
type StructDef struct {
	Name    string
	Members []StructMember
}

// EnumDef is a named enum's resolved variant list, in ABI declaration
// order (the order that fixes each variant's 0-based discriminant).
type EnumDef struct {
	Name     string
	Variants []EnumVariant
}

// MemberKind tags an event member as part of the indexed keys or the
// data payload (or, for enum-kind events, a nested variant).
type MemberKind int

const (
	MemberData MemberKind = iota
	MemberKey
	MemberNested
)

// EventMember is one field of an event definition.
type EventMember struct {
	Name string
	Type *CairoType
	Kind MemberKind
}

// EventDef is a resolved event: a flat (kind: struct) definition with a
// keys/data partition, or an enum-kind definition whose variants are
// themselves nested event definitions selected by a further selector.
type EventDef struct {
	Name     string
	Selector string // hex, computed from Name
	IsEnum   bool
	Members  []EventMember          // populated when !IsEnum
	Variants map[string]*EventDef   // populated when IsEnum, keyed by variant selector hex
	variantsByName map[string]*EventDef
}

// FunctionDef is a resolved function entry.
type FunctionDef struct {
	Name            string
	Inputs          []StructMember
	Outputs         []*CairoType
	StateMutability string // "view" | "external"
	Selector        string // hex
}
