// Package address canonicalizes Starknet contract addresses.
//
// The canonical form is "0x" followed by exactly 64 lowercase hex
// characters, left-padded with zeros. Every boundary that accepts an
// address (config, queries, filters, subscriptions) normalizes it once;
// storage and in-memory keys use the canonical form exclusively.
package address

import (
	"fmt"
	"strings"
)

const hexLength = 64

// InvalidAddressError is returned when an input cannot be canonicalized.
type InvalidAddressError struct {
	Input  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

// Normalize converts any hex form of a Starknet address into the
// canonical 0x + 64 lowercase hex representation.
func Normalize(s string) (string, error) {
	trimmed := strings.TrimSpace(s)

	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return "", &InvalidAddressError{Input: s, Reason: "missing 0x prefix"}
	}

	hexPart := strings.ToLower(trimmed[2:])

	if len(hexPart) > hexLength {
		return "", &InvalidAddressError{Input: s, Reason: fmt.Sprintf("more than %d hex characters", hexLength)}
	}

	for _, c := range hexPart {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", &InvalidAddressError{Input: s, Reason: fmt.Sprintf("non-hex character %q", c)}
		}
	}

	return "0x" + strings.Repeat("0", hexLength-len(hexPart)) + hexPart, nil
}

// Equal reports whether two addresses denote the same contract.
// Invalid inputs are never equal to anything.
func Equal(a, b string) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}

	nb, err := Normalize(b)
	if err != nil {
		return false
	}

	return na == nb
}

// NormalizeSet normalizes every address in the slice, deduplicating
// the result. Order is not preserved for duplicates.
func NormalizeSet(addrs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))

	for _, a := range addrs {
		n, err := Normalize(a)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out, nil
}
