package purchase

import (
	"regexp"
	"strings"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// NormalizeTxHash lowercases the hash and adds a missing 0x prefix. It
// returns "" for anything that is not a 32-byte hex hash.
func NormalizeTxHash(hash string) string {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if !strings.HasPrefix(hash, "0x") {
		hash = "0x" + hash
	}
	if !txHashPattern.MatchString(hash) {
		return ""
	}
	return hash
}
