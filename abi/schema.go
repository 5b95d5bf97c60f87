package abi

import (
	"fmt"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// Abi is a parsed contract ABI: the schema.go comment in spec.md §3
// ("ABI schema") implemented as concrete maps, memoisable keyed on the
// input identity by callers (ParseAbi itself does not cache).
type Abi struct {
	Functions          map[string]*FunctionDef
	FunctionsBySelector map[string]*FunctionDef
	Events             map[string]*EventDef
	EventsBySelector   map[string]*EventDef
	Structs            map[string]*StructDef
	Enums              map[string]*EnumDef
}

func newAbi() *Abi {
	return &Abi{
		Functions:           map[string]*FunctionDef{},
		FunctionsBySelector: map[string]*FunctionDef{},
		Events:              map[string]*EventDef{},
		EventsBySelector:    map[string]*EventDef{},
		Structs:             map[string]*StructDef{},
		Enums:               map[string]*EnumDef{},
	}
}

// ResolveNamed looks up a struct or enum by its qualified Cairo type
// name. Resolution is lazy by design: a codec call site invokes this at
// encode/decode time, not at parse time, so an ABI whose type graph
// references a not-yet-known type can still be parsed and used for
// everything that does not touch that type.
func (a *Abi) ResolveNamed(name string) (structDef *StructDef, enumDef *EnumDef, ok bool) {
	if s, found := a.Structs[name]; found {
		return s, nil, true
	}
	if e, found := a.Enums[name]; found {
		return nil, e, true
	}
	return nil, nil, false
}

// FunctionByName returns a function definition or a FUNCTION_NOT_FOUND
// error.
func (a *Abi) FunctionByName(name string) (*FunctionDef, error) {
	fn, ok := a.Functions[name]
	if !ok {
		return nil, apierror.New(apierror.KindFunctionNotFound, fmt.Sprintf("function %q not in ABI", name))
	}
	return fn, nil
}

// FunctionBySelector returns a function definition by its hex selector.
func (a *Abi) FunctionBySelector(selectorHex string) (*FunctionDef, error) {
	fn, ok := a.FunctionsBySelector[selectorHex]
	if !ok {
		return nil, apierror.New(apierror.KindFunctionNotFound, fmt.Sprintf("selector %q not in ABI", selectorHex))
	}
	return fn, nil
}

// EventByName returns an event definition or an EVENT_NOT_FOUND error.
func (a *Abi) EventByName(name string) (*EventDef, error) {
	ev, ok := a.Events[name]
	if !ok {
		return nil, apierror.New(apierror.KindEventNotFound, fmt.Sprintf("event %q not in ABI", name))
	}
	return ev, nil
}

// EventBySelector returns an event definition by the hex selector found
// in keys[0] of an emitted event.
func (a *Abi) EventBySelector(selectorHex string) (*EventDef, error) {
	ev, ok := a.EventsBySelector[selectorHex]
	if !ok {
		return nil, apierror.New(apierror.KindEventNotFound, fmt.Sprintf("event selector %q not in ABI", selectorHex))
	}
	return ev, nil
}
