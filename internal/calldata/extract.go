package calldata

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrUnsupportedFunction = errors.New("not a call dispatch function")
	ErrArgumentShape       = errors.New("unexpected argument shape")
)

// Call is one {target, value, data} triple executed by the smart account.
type Call struct {
	Target common.Address
	Value  *uint256.Int
	Data   []byte
}

// AccountCall is the typed form of a decoded smart-account dispatch.
type AccountCall interface {
	Calls() []Call
}

type Execute struct {
	Call Call
}

func (e Execute) Calls() []Call { return []Call{e.Call} }

type ExecuteBatch struct {
	Batch []Call
}

func (e ExecuteBatch) Calls() []Call { return e.Batch }

type ExtractError struct {
	Function string
	Err      error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract calls from %s: %v", e.Function, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Extract normalises a decoded dispatch into its ordered call list.
func Extract(dec Decoded) ([]Call, error) {
	acct, err := Classify(dec)
	if err != nil {
		return nil, err
	}
	return acct.Calls(), nil
}

// Classify maps a decoded invocation onto Execute or ExecuteBatch.
func Classify(dec Decoded) (AccountCall, error) {
	switch dec.Name {
	case "execute":
		if len(dec.Args) != 3 {
			return nil, shapeErr(dec.Name, "want 3 args, got %d", len(dec.Args))
		}
		target, ok := dec.Args[0].(common.Address)
		if !ok {
			return nil, shapeErr(dec.Name, "target is %T", dec.Args[0])
		}
		value, ok := dec.Args[1].(*big.Int)
		if !ok {
			return nil, shapeErr(dec.Name, "value is %T", dec.Args[1])
		}
		data, ok := dec.Args[2].([]byte)
		if !ok {
			return nil, shapeErr(dec.Name, "data is %T", dec.Args[2])
		}
		call, err := newCall(dec.Name, target, value, data)
		if err != nil {
			return nil, err
		}
		return Execute{Call: call}, nil
	case "executeBatch":
		if len(dec.Args) != 1 {
			return nil, shapeErr(dec.Name, "want 1 arg, got %d", len(dec.Args))
		}
		raw, err := convertBatch(dec.Args[0])
		if err != nil {
			return nil, &ExtractError{Function: dec.Name, Err: err}
		}
		batch := make([]Call, 0, len(raw))
		for _, c := range raw {
			call, err := newCall(dec.Name, c.Target, c.Value, c.Data)
			if err != nil {
				return nil, err
			}
			batch = append(batch, call)
		}
		return ExecuteBatch{Batch: batch}, nil
	default:
		return nil, &ExtractError{Function: dec.Name, Err: ErrUnsupportedFunction}
	}
}

// batchCall mirrors the (address,uint256,bytes) tuple so abi.ConvertType can
// copy the reflect-built struct the decoder produces.
type batchCall struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

func convertBatch(arg any) (out []batchCall, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrArgumentShape, r)
		}
	}()
	if arg == nil {
		return nil, fmt.Errorf("%w: nil batch", ErrArgumentShape)
	}
	converted, ok := abi.ConvertType(arg, new([]batchCall)).(*[]batchCall)
	if !ok {
		return nil, fmt.Errorf("%w: batch is %T", ErrArgumentShape, arg)
	}
	return *converted, nil
}

func newCall(fn string, target common.Address, value *big.Int, data []byte) (Call, error) {
	if value == nil || value.Sign() < 0 {
		return Call{}, shapeErr(fn, "missing or negative value")
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return Call{}, shapeErr(fn, "value overflows 256 bits")
	}
	return Call{Target: target, Value: v, Data: append([]byte(nil), data...)}, nil
}

func shapeErr(fn, format string, args ...any) error {
	return &ExtractError{Function: fn, Err: fmt.Errorf("%w: "+format, append([]any{ErrArgumentShape}, args...)...)}
}
