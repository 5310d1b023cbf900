package address

import "fmt"

const (
	simplePrefixLimit = 64
	fullPrefixTag     = 0b0100_0000
	tagMask           = 0b0011_1111
)

// EncodePrefix frames a network prefix as one or two bytes.
func EncodePrefix(prefix int) ([]byte, error) {
	if !ValidPrefix(prefix) {
		return nil, fmt.Errorf("%w: %d is outside [0, %d]", ErrInvalidPrefix, prefix, MaxPrefix)
	}
	if prefix < simplePrefixLimit {
		return []byte{byte(prefix)}, nil
	}
	first, second := packPrefix(uint16(prefix))
	return []byte{first, second}, nil
}

// DecodePrefix reads the prefix at the start of a frame and returns it along
// with the number of bytes it occupied.
func DecodePrefix(frame []byte) (prefix int, consumed int, err error) {
	if len(frame) == 0 {
		return 0, 0, fmt.Errorf("%w: empty frame", ErrInvalidLength)
	}
	if frame[0] < simplePrefixLimit {
		return int(frame[0]), 1, nil
	}
	if len(frame) < 2 {
		return 0, 0, fmt.Errorf("%w: two-byte prefix truncated", ErrInvalidLength)
	}
	return int(unpackPrefix(frame[0], frame[1])), 2, nil
}

// packPrefix spreads the 14 prefix bits over two bytes. The first byte
// carries the 01 tag and bits 2-7; the second carries bits 0-1 in its top
// two bits and bits 8-13 below them.
func packPrefix(prefix uint16) (byte, byte) {
	first := fullPrefixTag | byte((prefix&0b0000_0000_1111_1100)>>2)
	second := byte(prefix>>8) | byte(prefix&0b0000_0000_0000_0011)<<6
	return first, second
}

// unpackPrefix is the inverse of packPrefix. The tag bits of the first byte
// are ignored.
func unpackPrefix(first, second byte) uint16 {
	lower := uint16(first&tagMask)<<2 | uint16(second>>6)
	upper := uint16(second & tagMask)
	return lower | upper<<8
}
