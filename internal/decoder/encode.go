package decoder

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/goran-ethernal/StarkIndexor/internal/abi"
)

var u128Mask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Encode is the inverse of Decode: it serializes a value map back into
// the raw key and data felt arrays for a schema, with the selector as
// keys[0]. Used by tests and fixtures to build wire-accurate events.
func Encode(schema *abi.EventSchema, values map[string]any) (keys, data []string, err error) {
	keys = []string{schema.Selector}

	for _, field := range schema.Fields {
		v, ok := values[field.Name]
		if !ok {
			return nil, nil, fmt.Errorf("missing value for field %q", field.Name)
		}

		out := &data
		if field.IsKey {
			out = &keys
		}

		if err := encodeValue(field.Type, v, out); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
	}

	return keys, data, nil
}

func encodeValue(t *abi.Type, v any, out *[]string) error {
	switch t.Kind {
	case abi.KindPrimitive:
		return encodePrimitive(t.Name, v, out)

	case abi.KindStruct:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("struct %s wants an object, got %T", t.Name, v)
		}
		for _, m := range t.Members {
			mv, ok := obj[m.Name]
			if !ok {
				return fmt.Errorf("struct %s missing member %q", t.Name, m.Name)
			}
			if err := encodeValue(m.Type, mv, out); err != nil {
				return err
			}
		}
		return nil

	case abi.KindOption:
		if v == nil {
			appendFelt(out, big.NewInt(1))
			return nil
		}
		appendFelt(out, big.NewInt(0))
		return encodeValue(t.Inner, v, out)

	case abi.KindEnum:
		obj, ok := v.(map[string]any)
		if !ok || len(obj) != 1 {
			return fmt.Errorf("enum %s wants a single-variant object, got %T", t.Name, v)
		}
		for name, payload := range obj {
			for i, variant := range t.Members {
				if variant.Name != name {
					continue
				}
				appendFelt(out, big.NewInt(int64(i)))
				if isUnit(variant.Type) {
					return nil
				}
				return encodeValue(variant.Type, payload, out)
			}
			return fmt.Errorf("enum %s has no variant %q", t.Name, name)
		}
	}

	return fmt.Errorf("unsupported type kind %d", t.Kind)
}

func encodePrimitive(name string, v any, out *[]string) error {
	switch name {
	case abi.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("bool wants a boolean, got %T", v)
		}
		if b {
			appendFelt(out, big.NewInt(1))
		} else {
			appendFelt(out, big.NewInt(0))
		}
		return nil

	case abi.TypeU8, abi.TypeU16, abi.TypeU32, abi.TypeU64, abi.TypeU128:
		n, err := toBigInt(v)
		if err != nil {
			return err
		}
		if n.Sign() < 0 || n.BitLen() > uintBits[name] {
			return fmt.Errorf("value %s out of %s range", n, name)
		}
		appendFelt(out, n)
		return nil

	case abi.TypeU256:
		n, err := toBigInt(v)
		if err != nil {
			return err
		}
		if n.Sign() < 0 || n.BitLen() > 256 {
			return fmt.Errorf("value %s out of u256 range", n)
		}
		low := new(big.Int).And(n, u128Mask)
		high := new(big.Int).Rsh(n, 128)
		appendFelt(out, low)
		appendFelt(out, high)
		return nil

	case abi.TypeContractAddress:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("address wants a string, got %T", v)
		}
		n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
		if !ok {
			return fmt.Errorf("invalid address %q", s)
		}
		appendFelt(out, n)
		return nil

	case abi.TypeFelt252:
		switch s := v.(type) {
		case string:
			if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
				n, ok := new(big.Int).SetString(s[2:], 16)
				if !ok {
					return fmt.Errorf("invalid felt hex %q", s)
				}
				appendFelt(out, n)
				return nil
			}
			if len(s) > 31 {
				return fmt.Errorf("string %q too long for a felt", s)
			}
			appendFelt(out, new(big.Int).SetBytes([]byte(s)))
			return nil
		default:
			n, err := toBigInt(v)
			if err != nil {
				return err
			}
			appendFelt(out, n)
			return nil
		}
	}

	return fmt.Errorf("unknown primitive %q", name)
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("non-integer number %v", n)
		}
		return big.NewInt(int64(n)), nil
	case string:
		b, ok := new(big.Int).SetString(n, 10)
		if !ok {
			return nil, fmt.Errorf("invalid decimal string %q", n)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot encode %T as an integer", v)
	}
}

func appendFelt(out *[]string, n *big.Int) {
	*out = append(*out, "0x"+n.Text(16))
}
