package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrParams = errors.New("invalid params")

// Positional splits a params array. A missing or null params value is an
// empty list.
func Positional(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: params must be an array", ErrParams)
	}
	return out, nil
}

// Address parses a positional hex address parameter.
func Address(raw json.RawMessage) (common.Address, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: expected hex address", ErrParams)
	}
	return common.HexToAddress(s), nil
}

// Hash parses a positional 32-byte hex parameter.
func Hash(raw json.RawMessage) (common.Hash, error) {
	var b hexutil.Bytes
	if err := json.Unmarshal(raw, &b); err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: expected 32-byte hex hash", ErrParams)
	}
	return common.BytesToHash(b), nil
}

// ChainID accepts a hex quantity string, a decimal string or a JSON number.
func ChainID(raw json.RawMessage) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return 0, fmt.Errorf("%w: chain id", ErrParams)
		}
		s = n.String()
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: chain id %q", ErrParams, s)
		}
		return v, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: chain id %q", ErrParams, s)
	}
	return v, nil
}
