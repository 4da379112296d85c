package decoder

import (
	"fmt"
	"math/big"

	"github.com/goran-ethernal/StarkIndexor/internal/abi"
	"github.com/goran-ethernal/StarkIndexor/internal/address"
)

// largest integer JSON consumers can represent without precision loss
const maxSafeInteger = 1<<53 - 1

var uintBits = map[string]int{
	abi.TypeU8:   8,
	abi.TypeU16:  16,
	abi.TypeU32:  32,
	abi.TypeU64:  64,
	abi.TypeU128: 128,
}

func decodeValue(t *abi.Type, r *feltReader) (any, error) {
	switch t.Kind {
	case abi.KindPrimitive:
		return decodePrimitive(t.Name, r)

	case abi.KindStruct:
		obj := make(map[string]any, len(t.Members))
		for _, m := range t.Members {
			v, err := decodeValue(m.Type, r)
			if err != nil {
				return nil, err
			}
			obj[m.Name] = v
		}
		return obj, nil

	case abi.KindOption:
		tag, err := r.next()
		if err != nil {
			return nil, err
		}
		switch tag.Int64() {
		case 0:
			return decodeValue(t.Inner, r)
		case 1:
			return nil, nil
		default:
			return nil, fmt.Errorf("invalid Option tag %s", tag)
		}

	case abi.KindEnum:
		tag, err := r.next()
		if err != nil {
			return nil, err
		}
		if !tag.IsInt64() || tag.Int64() < 0 || tag.Int64() >= int64(len(t.Members)) {
			return nil, fmt.Errorf("enum %s: variant tag %s out of range", t.Name, tag)
		}
		variant := t.Members[tag.Int64()]

		var payload any
		if !isUnit(variant.Type) {
			payload, err = decodeValue(variant.Type, r)
			if err != nil {
				return nil, err
			}
		}
		return map[string]any{variant.Name: payload}, nil
	}

	return nil, fmt.Errorf("unsupported type kind %d", t.Kind)
}

// isUnit reports whether a type is Cairo's () and carries no felts.
func isUnit(t *abi.Type) bool {
	return t.Kind == abi.KindStruct && len(t.Members) == 0
}

func decodePrimitive(name string, r *feltReader) (any, error) {
	switch name {
	case abi.TypeBool:
		n, err := r.next()
		if err != nil {
			return nil, err
		}
		switch n.Int64() {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, fmt.Errorf("invalid bool felt %s", n)
		}

	case abi.TypeU8, abi.TypeU16, abi.TypeU32, abi.TypeU64, abi.TypeU128:
		n, err := r.next()
		if err != nil {
			return nil, err
		}
		if n.BitLen() > uintBits[name] {
			return nil, fmt.Errorf("felt %s exceeds %s range", n, name)
		}
		return materializeUint(n), nil

	case abi.TypeU256:
		low, err := r.next()
		if err != nil {
			return nil, err
		}
		high, err := r.next()
		if err != nil {
			return nil, err
		}
		if low.BitLen() > 128 || high.BitLen() > 128 {
			return nil, fmt.Errorf("u256 halves exceed 128 bits")
		}
		n := new(big.Int).Lsh(high, 128)
		n.Add(n, low)
		return n.String(), nil

	case abi.TypeContractAddress:
		n, err := r.next()
		if err != nil {
			return nil, err
		}
		canonical, err := address.Normalize("0x" + n.Text(16))
		if err != nil {
			return nil, fmt.Errorf("felt %s is not a valid address: %w", n, err)
		}
		return canonical, nil

	case abi.TypeFelt252:
		n, err := r.next()
		if err != nil {
			return nil, err
		}
		return materializeFelt(n), nil
	}

	return nil, fmt.Errorf("unknown primitive %q", name)
}

// materializeUint keeps small values as JSON numbers and falls back to
// decimal strings where float64 round-tripping would lose precision.
func materializeUint(n *big.Int) any {
	if n.IsUint64() && n.Uint64() <= maxSafeInteger {
		return n.Uint64()
	}
	return n.String()
}

// materializeFelt renders short strings (Cairo felt-encoded ASCII) as
// text and everything else as minimal 0x-hex.
func materializeFelt(n *big.Int) any {
	b := n.Bytes()
	if len(b) > 0 && isPrintableASCII(b) {
		return string(b)
	}
	return "0x" + n.Text(16)
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
