package address

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// Encode frames payload under prefix and returns the SS58 text. Only
// WithRegistry affects encoding.
func Encode(payload []byte, prefix int, opts ...Option) (string, error) {
	checksumLen, ok := checksumLength(len(payload))
	if !ok {
		return "", fmt.Errorf("%w: %d-byte payload", ErrInvalidLength, len(payload))
	}
	prefixBytes, err := EncodePrefix(prefix)
	if err != nil {
		return "", err
	}
	if err := buildOptions(opts).checkKnown(prefix); err != nil {
		return "", err
	}

	frame := make([]byte, 0, len(prefixBytes)+len(payload)+checksumLen)
	frame = append(frame, prefixBytes...)
	frame = append(frame, payload...)
	frame = append(frame, Checksum(prefixBytes, payload, checksumLen)...)
	return base58.Encode(frame), nil
}

// Validate reports whether s is a well-formed SS58 address that satisfies
// opts. Hex literals are not addresses and fail.
func Validate(s string, opts ...Option) bool {
	_, err := DecodeAddress(Text(s), opts...)
	return err == nil
}

// Convert re-encodes the payload of in under a different prefix. Raw inputs
// are encoded directly.
func Convert(in Input, prefix int, opts ...Option) (string, error) {
	payload, err := Decode(in, opts...)
	if err != nil {
		return "", err
	}
	return Encode(payload, prefix, registryOnly(opts)...)
}

// Equal reports whether a and b carry the same payload, regardless of the
// network they are encoded for.
func Equal(a, b Input) (bool, error) {
	pa, err := Decode(a)
	if err != nil {
		return false, err
	}
	pb, err := Decode(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(pa, pb), nil
}

// registryOnly forwards the registry of opts to Encode without the decode
// specific policy.
func registryOnly(opts []Option) []Option {
	o := buildOptions(opts)
	if o.registry == nil {
		return nil
	}
	return []Option{WithRegistry(o.registry)}
}
