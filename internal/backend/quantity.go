package backend

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/holiman/uint256"
)

// Quantity is an unsigned 256-bit integer read from a backend reply. It
// accepts hex quantities with or without leading zeros, decimal strings and
// bare JSON numbers, and always writes a decimal string.
type Quantity struct {
	uint256.Int
}

func NewQuantity(v uint64) *Quantity {
	q := new(Quantity)
	q.SetUint64(v)
	return q
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := s[2:]
		if digits == "" {
			return fmt.Errorf("quantity %q: no hex digits", s)
		}
		digits = strings.TrimLeft(digits, "0")
		if digits == "" {
			digits = "0"
		}
		if err := q.SetFromHex("0x" + digits); err != nil {
			return fmt.Errorf("quantity %q: %w", s, err)
		}
		return nil
	}
	if err := q.SetFromDecimal(s); err != nil {
		return fmt.Errorf("quantity %q: %w", s, err)
	}
	return nil
}

func (q *Quantity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.Int.Dec() + `"`), nil
}

// Extra holds reply fields a result type does not name. They are written
// back exactly as the backend sent them.
type Extra map[string]json.RawMessage

// decodeWithExtra unmarshals b into v, a pointer to a struct, and returns the
// top-level fields no struct field claimed.
func decodeWithExtra(b []byte, v any) (Extra, error) {
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	known := jsonKeys(reflect.TypeOf(v).Elem())
	var extra Extra
	for k, raw := range fields {
		if known[strings.ToLower(k)] {
			continue
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[k] = raw
	}
	return extra, nil
}

// encodeWithExtra marshals v and adds back the unclaimed fields.
func encodeWithExtra(v any, extra Extra) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}

func jsonKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		keys[strings.ToLower(name)] = true
	}
	return keys
}
