package canon

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the lowercase hex SHA-256 digest of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashValue canonicalizes v and returns the hex SHA-256 of the canonical
// bytes. Every protocol hash role reduces to this function.
func HashValue(v any) (string, error) {
	b, err := Canon(v)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}
