// Package calldata decodes smart-account calldata against known function
// schemas and normalises it into an ordered list of calls. Nothing here is
// trusted: every input is caller supplied and every failure is returned as a
// typed error.
package calldata

import (
	"errors"
	"fmt"
)

var (
	ErrShortCallData   = errors.New("calldata shorter than a selector")
	ErrUnknownSelector = errors.New("selector not in schema")
	ErrMalformedArgs   = errors.New("arguments do not match schema")
)

// Decoded is a function invocation recovered from calldata.
type Decoded struct {
	Schema string
	Name   string
	Args   []any
}

type DecodeError struct {
	Schema string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s calldata: %v", e.Schema, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode recovers the function name and arguments of data under schema.
func Decode(schema Schema, data []byte) (dec Decoded, err error) {
	defer func() {
		// abi unpacking of hostile input has panicked in the past
		if r := recover(); r != nil {
			dec = Decoded{}
			err = &DecodeError{Schema: schema.Name, Err: fmt.Errorf("%w: %v", ErrMalformedArgs, r)}
		}
	}()
	if len(data) < 4 {
		return Decoded{}, &DecodeError{Schema: schema.Name, Err: ErrShortCallData}
	}
	method, err := schema.ABI.MethodById(data[:4])
	if err != nil {
		return Decoded{}, &DecodeError{Schema: schema.Name, Err: fmt.Errorf("%w: %#x", ErrUnknownSelector, data[:4])}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return Decoded{}, &DecodeError{Schema: schema.Name, Err: fmt.Errorf("%w: %s: %v", ErrMalformedArgs, method.RawName, err)}
	}
	if len(args) != len(method.Inputs) {
		return Decoded{}, &DecodeError{Schema: schema.Name, Err: fmt.Errorf("%w: %s: got %d args", ErrMalformedArgs, method.RawName, len(args))}
	}
	return Decoded{Schema: schema.Name, Name: method.RawName, Args: args}, nil
}
