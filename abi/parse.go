package abi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// ParseAbiJSON unmarshals a raw ABI JSON array and parses it.
func ParseAbiJSON(data []byte) (*Abi, error) {
	var raw []RawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apierror.Wrap(apierror.KindInvalidABI, "malformed ABI JSON", err)
	}
	return ParseAbi(raw)
}

// RawEntry mirrors one element of a Starknet contract ABI JSON array.
// Not every field applies to every Type; unused fields are simply left
// zero.
type RawEntry struct {
	Type            string          `json:"type"`
	Name            string          `json:"name"`
	Inputs          []RawParam      `json:"inputs,omitempty"`
	Outputs         []RawParam      `json:"outputs,omitempty"`
	StateMutability string          `json:"state_mutability,omitempty"`
	Members         []RawMember     `json:"members,omitempty"`
	Variants        []RawMember     `json:"variants,omitempty"`
	Kind            string     `json:"kind,omitempty"`  // struct kind ("struct"|"enum") or event kind
	Items           []RawEntry `json:"items,omitempty"` // interface entries nest their functions here
}

// RawParam is a function input/output: {name, type}.
type RawParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RawMember is a struct member, enum variant, or event member:
// {name, type, kind?}.
type RawMember struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Kind string `json:"kind,omitempty"` // "key" | "data" | "nested", events only
}

// ParseAbi builds the schema of an Abi from the raw JSON entry array.
// Interface entries are flattened (their Items are promoted to the top
// level). Duplicate function/event names fail with INVALID_ABI; repeated
// identical struct/enum definitions are idempotent, conflicting
// redefinitions fail with INVALID_ABI. Type-name resolution is deferred
// to the codec: a struct or enum member naming an unknown type does not
// fail parsing.
func ParseAbi(raw []RawEntry) (*Abi, error) {
	a := newAbi()

	flattened := make([]RawEntry, 0, len(raw))
	var flatten func([]RawEntry)
	flatten = func(entries []RawEntry) {
		for _, e := range entries {
			if e.Type == "interface" {
				flatten(e.Items)
				continue
			}
			flattened = append(flattened, e)
		}
	}
	flatten(raw)

	// First pass: structs and enums, so function/event type references
	// that are encountered later in declaration order can still resolve
	// immediately (resolution is lazy regardless, but this keeps
	// iteration order-independent for ResolveNamed right after parsing).
	for _, e := range flattened {
		switch e.Type {
		case "struct":
			if err := addStruct(a, e); err != nil {
				return nil, err
			}
		case "enum":
			if err := addEnum(a, e); err != nil {
				return nil, err
			}
		}
	}

	for _, e := range flattened {
		switch e.Type {
		case "function", "l1_handler":
			if err := addFunction(a, e); err != nil {
				return nil, err
			}
		case "event":
			if err := addEvent(a, e); err != nil {
				return nil, err
			}
		}
	}

	// Swap enum-event placeholders for the now-registered variant events.
	for _, ev := range a.Events {
		for name, nested := range ev.variantsByName {
			if resolved, ok := a.Events[nested.Name]; ok && resolved != nested {
				delete(ev.Variants, nested.Selector)
				ev.variantsByName[name] = resolved
				ev.Variants[resolved.Selector] = resolved
			}
		}
	}

	return a, nil
}

func addStruct(a *Abi, e RawEntry) error {
	members := make([]StructMember, 0, len(e.Members))
	for _, m := range e.Members {
		members = append(members, StructMember{Name: m.Name, Type: parseType(m.Type)})
	}
	def := &StructDef{Name: e.Name, Members: members}

	if existing, ok := a.Structs[e.Name]; ok {
		if !structsEqual(existing, def) {
			return apierror.New(apierror.KindInvalidABI, fmt.Sprintf("conflicting struct definitions for %q", e.Name))
		}
		return nil
	}
	a.Structs[e.Name] = def
	return nil
}

func structsEqual(a, b *StructDef) bool {
	if len(a.Members) != len(b.Members) {
		return false
	}
	for i := range a.Members {
		if a.Members[i].Name != b.Members[i].Name || a.Members[i].Type.Raw != b.Members[i].Type.Raw {
			return false
		}
	}
	return true
}

func addEnum(a *Abi, e RawEntry) error {
	variants := make([]EnumVariant, 0, len(e.Variants))
	for _, v := range e.Variants {
		var payload *CairoType
		if v.Type != "" && v.Type != "()" {
			payload = parseType(v.Type)
		}
		variants = append(variants, EnumVariant{Name: v.Name, Payload: payload})
	}
	def := &EnumDef{Name: e.Name, Variants: variants}

	if existing, ok := a.Enums[e.Name]; ok {
		if !enumsEqual(existing, def) {
			return apierror.New(apierror.KindInvalidABI, fmt.Sprintf("conflicting enum definitions for %q", e.Name))
		}
		return nil
	}
	a.Enums[e.Name] = def
	return nil
}

func enumsEqual(a, b *EnumDef) bool {
	if len(a.Variants) != len(b.Variants) {
		return false
	}
	for i := range a.Variants {
		if a.Variants[i].Name != b.Variants[i].Name {
			return false
		}
		ap, bp := a.Variants[i].Payload, b.Variants[i].Payload
		if (ap == nil) != (bp == nil) || (ap != nil && ap.Raw != bp.Raw) {
			return false
		}
	}
	return true
}

func addFunction(a *Abi, e RawEntry) error {
	if _, exists := a.Functions[e.Name]; exists {
		return apierror.New(apierror.KindInvalidABI, fmt.Sprintf("duplicate function name %q", e.Name))
	}

	inputs := make([]StructMember, 0, len(e.Inputs))
	for _, in := range e.Inputs {
		inputs = append(inputs, StructMember{Name: in.Name, Type: parseType(in.Type)})
	}
	outputs := make([]*CairoType, 0, len(e.Outputs))
	for _, out := range e.Outputs {
		outputs = append(outputs, parseType(out.Type))
	}

	selector := ComputeSelector(e.Name)
	def := &FunctionDef{
		Name:            e.Name,
		Inputs:          inputs,
		Outputs:         outputs,
		StateMutability: e.StateMutability,
		Selector:        selector,
	}
	a.Functions[e.Name] = def
	a.FunctionsBySelector[selector] = def
	return nil
}

func addEvent(a *Abi, e RawEntry) error {
	if _, exists := a.Events[e.Name]; exists {
		return apierror.New(apierror.KindInvalidABI, fmt.Sprintf("duplicate event name %q", e.Name))
	}

	selector := ComputeSelector(e.Name)
	def := &EventDef{Name: e.Name, Selector: selector}

	if e.Kind == "enum" {
		def.IsEnum = true
		def.Variants = map[string]*EventDef{}
		def.variantsByName = map[string]*EventDef{}
		for _, v := range e.Variants {
			nested, ok := a.Events[v.Type]
			if !ok {
				// Variant payload type refers to a not-yet-registered
				// event; record a placeholder name-only entry, which
				// ParseAbi replaces once every event is registered.
				nested = &EventDef{Name: v.Type}
			}
			def.Variants[nested.Selector] = nested
			def.variantsByName[v.Name] = nested
		}
	} else {
		for _, m := range e.Members {
			kind := MemberData
			switch m.Kind {
			case "key":
				kind = MemberKey
			case "nested":
				kind = MemberNested
			}
			def.Members = append(def.Members, EventMember{Name: m.Name, Type: parseType(m.Type), Kind: kind})
		}
	}

	a.Events[e.Name] = def
	a.EventsBySelector[selector] = def
	return nil
}

// parseType resolves a Cairo type string into the type graph node the
// codec operates on. Named struct/enum references are recorded by name
// only (Kind left as KindStruct as a hint; the codec tells structs from
// enums at encode/decode time via Abi.ResolveNamed), per the ABI's
// lazy-resolution contract.
func parseType(raw string) *CairoType {
	t := strings.TrimSpace(raw)

	switch t {
	case "core::felt252", "felt", "felt252":
		return &CairoType{Kind: KindFelt252, Raw: t}
	case "core::bool", "bool":
		return &CairoType{Kind: KindBool, Raw: t}
	case "core::integer::u8":
		return &CairoType{Kind: KindU8, Raw: t}
	case "core::integer::u16":
		return &CairoType{Kind: KindU16, Raw: t}
	case "core::integer::u32":
		return &CairoType{Kind: KindU32, Raw: t}
	case "core::integer::u64":
		return &CairoType{Kind: KindU64, Raw: t}
	case "core::integer::u128":
		return &CairoType{Kind: KindU128, Raw: t}
	case "core::integer::i8":
		return &CairoType{Kind: KindI8, Raw: t}
	case "core::integer::i16":
		return &CairoType{Kind: KindI16, Raw: t}
	case "core::integer::i32":
		return &CairoType{Kind: KindI32, Raw: t}
	case "core::integer::i64":
		return &CairoType{Kind: KindI64, Raw: t}
	case "core::integer::i128":
		return &CairoType{Kind: KindI128, Raw: t}
	case "core::integer::u256", "core::starknet::u256::u256":
		return &CairoType{Kind: KindU256, Raw: t}
	case "core::byte_array::ByteArray":
		return &CairoType{Kind: KindByteArray, Raw: t}
	case "core::starknet::contract_address::ContractAddress":
		return &CairoType{Kind: KindContractAddress, Raw: t}
	case "core::starknet::class_hash::ClassHash":
		return &CairoType{Kind: KindClassHash, Raw: t}
	case "core::starknet::storage_access::StorageAddress":
		return &CairoType{Kind: KindStorageAddress, Raw: t}
	case "core::starknet::eth_address::EthAddress":
		return &CairoType{Kind: KindEthAddress, Raw: t}
	case "core::shortstring", "shortstring":
		return &CairoType{Kind: KindShortString, Raw: t}
	}

	if elem, ok := genericArg(t, "core::array::Array::<", ">"); ok {
		return &CairoType{Kind: KindArray, Raw: t, Elem: parseType(elem)}
	}
	if elem, ok := genericArg(t, "core::array::Span::<", ">"); ok {
		return &CairoType{Kind: KindSpan, Raw: t, Elem: parseType(elem)}
	}
	if elem, ok := genericArg(t, "core::option::Option::<", ">"); ok {
		return &CairoType{Kind: KindOption, Raw: t, Elem: parseType(elem)}
	}
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") {
		parts := splitTupleArgs(t[1 : len(t)-1])
		tuple := make([]*CairoType, 0, len(parts))
		for _, p := range parts {
			tuple = append(tuple, parseType(p))
		}
		return &CairoType{Kind: KindTuple, Raw: t, Tuple: tuple}
	}

	// Fall through: a named struct or enum reference. Which it is gets
	// decided at encode/decode time via Abi.ResolveNamed; default to
	// KindStruct as a hint, the codec re-checks regardless.
	return &CairoType{Kind: KindStruct, Raw: t, Named: t}
}

func genericArg(t, prefix, suffix string) (string, bool) {
	if strings.HasPrefix(t, prefix) && strings.HasSuffix(t, suffix) {
		return t[len(prefix) : len(t)-len(suffix)], true
	}
	return "", false
}

// splitTupleArgs splits a tuple's inner type-list on top-level commas,
// respecting nested angle-bracket and parenthesis depth.
func splitTupleArgs(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	if strings.TrimSpace(s[last:]) != "" {
		parts = append(parts, strings.TrimSpace(s[last:]))
	}
	return parts
}
