package address

import (
	"bytes"
	"fmt"

	"github.com/pinch-protocol/ss58/internal/crypto"
)

// Checksum returns the first length bytes of the SS58 digest over the prefix
// bytes and payload.
func Checksum(prefixBytes, payload []byte, length int) []byte {
	if length < 0 || length > crypto.DigestSize {
		panic(fmt.Sprintf("address: checksum length %d out of range", length))
	}
	digest := crypto.SS58Hash(prefixBytes, payload)
	sum := make([]byte, length)
	copy(sum, digest[:length])
	return sum
}

// VerifyChecksum recomputes the checksum for prefixBytes and payload and
// compares it with claimed.
func VerifyChecksum(prefixBytes, payload, claimed []byte) error {
	expected := Checksum(prefixBytes, payload, len(claimed))
	if !bytes.Equal(expected, claimed) {
		return fmt.Errorf("%w: expected %x, got %x", ErrChecksumMismatch, expected, claimed)
	}
	return nil
}
