// Package abicodec encodes and decodes typed application values to and
// from felt252 sequences according to a parsed ABI schema (package abi).
// It is the Cairo-aware codec at the center of the library: calldata,
// function outputs, and event payloads all flow through the same
// recursive serialisation rules.
package abicodec

import (
	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// Result is the tagged {result, error} pair every codec boundary
// function returns instead of panicking.
type Result[T any] struct {
	Value T
	Err   *apierror.Error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail wraps a boundary error.
func Fail[T any](err *apierror.Error) Result[T] { return Result[T]{Err: err} }

// EnumValue is the host-language representation of a Cairo enum value:
// a selected variant name plus its payload (nil for unit variants).
type EnumValue struct {
	Variant string
	Value   any
}

// OptionValue is the host-language representation of a Cairo
// core::option::Option<T>: Some(x) or None.
type OptionValue struct {
	IsSome bool
	Value  any
}

// Some builds a Some(x) OptionValue.
func Some(v any) OptionValue { return OptionValue{IsSome: true, Value: v} }

// None is the None OptionValue.
var None = OptionValue{IsSome: false}

// cursor is a read position into a felt slice, shared by all decode
// helpers so nested calls consume from the same stream.
type cursor struct {
	data []felt.Felt252
	pos  int
}

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) next() (felt.Felt252, error) {
	if c.pos >= len(c.data) {
		return felt.Felt252{}, apierror.New(apierror.KindDecodeError, "unexpected end of calldata")
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}
