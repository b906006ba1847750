package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// ChecksumSHA256 computes the hex SHA-256 digest of raw bytes. Upload
// deduplication keys off this value, so it must stay stable across releases.
func ChecksumSHA256(b []byte) string {
	h := sha256.New()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}
