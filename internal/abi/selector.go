package abi

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// selector mask: sn_keccak keeps only the low 250 bits of Keccak-256
var selectorMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// Selector computes sn_keccak of an event name: the Keccak-256 hash of
// the UTF-8 name masked to its low 250 bits, in normalized 0x-hex form.
func Selector(name string) string {
	hash := crypto.Keccak256([]byte(name))

	n := new(big.Int).SetBytes(hash)
	n.And(n, selectorMask)

	return "0x" + n.Text(16)
}

// NormalizeKey brings a 0x-hex felt into the minimal lowercase form the
// node uses in event keys, so selectors and filter keys compare equal
// regardless of zero padding or case.
func NormalizeKey(key string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(key), "0x"), "0X")

	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		// not hex, leave untouched so mismatches stay visible
		return key
	}

	return "0x" + n.Text(16)
}
