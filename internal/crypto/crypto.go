// Package crypto provides the BLAKE2b-512 digest that SS58 checksums are
// derived from.
package crypto

import (
	"golang.org/x/crypto/blake2b"
)

// ChecksumContext is prepended to every hashed frame.
const ChecksumContext = "SS58PRE"

// DigestSize is the width of the digest returned by SS58Hash.
const DigestSize = blake2b.Size

// SS58Hash returns BLAKE2b-512 over ChecksumContext followed by each part in
// order. The parts are hashed as one contiguous message.
func SS58Hash(parts ...[]byte) [DigestSize]byte {
	n := len(ChecksumContext)
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	buf = append(buf, ChecksumContext...)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return blake2b.Sum512(buf)
}

// Digest is the signature of a digest provider. SS58Hash satisfies it once
// wrapped by Sum.
type Digest func(data []byte) []byte

// Sum is the default Digest: SS58Hash over a single buffer.
func Sum(data []byte) []byte {
	h := SS58Hash(data)
	return h[:]
}
