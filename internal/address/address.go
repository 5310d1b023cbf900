// Package address implements the SS58 address codec: a network prefix, an
// opaque payload and a BLAKE2b-derived checksum framed together and rendered
// as base58 text.
//
// The framed bytes are prefix(1|2) ∥ payload ∥ checksum(1|2). Prefixes 0-63
// take one byte, 64-16383 take two. The checksum is two bytes for 32 and 33
// byte payloads and one byte otherwise.
package address

// MaxPrefix is the largest network prefix that can be framed.
const MaxPrefix = 16383

// payloadChecksums maps every allowed payload length to its checksum length.
var payloadChecksums = map[int]int{
	1:  1,
	2:  1,
	4:  1,
	8:  1,
	32: 2,
	33: 2,
}

// framedPayloads is the inverse of payloadChecksums, keyed by the number of
// bytes left after the prefix.
var framedPayloads = func() map[int]int {
	m := make(map[int]int, len(payloadChecksums))
	for payloadLen, checksumLen := range payloadChecksums {
		m[payloadLen+checksumLen] = payloadLen
	}
	return m
}()

// checksumLength reports the checksum width for a payload of n bytes and
// whether n is an allowed payload length.
func checksumLength(n int) (int, bool) {
	l, ok := payloadChecksums[n]
	return l, ok
}

// splitBody returns the payload length for a body of n bytes (payload plus
// checksum), or false when no allowed payload fits.
func splitBody(n int) (int, bool) {
	l, ok := framedPayloads[n]
	return l, ok
}

// ValidPayloadLength reports whether n bytes can be carried in an address.
func ValidPayloadLength(n int) bool {
	_, ok := payloadChecksums[n]
	return ok
}

// ValidPrefix reports whether prefix fits the two-byte framing.
func ValidPrefix(prefix int) bool {
	return prefix >= 0 && prefix <= MaxPrefix
}
