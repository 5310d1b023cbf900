package address

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// DecodedAddress is the result of a successful decode.
type DecodedAddress struct {
	Payload []byte
	// Prefix is the network prefix, or -1 when Raw is set.
	Prefix int
	// Raw is set for Bytes and Hex inputs, which skip all validation.
	Raw bool
}

// Decode returns the payload carried by in.
func Decode(in Input, opts ...Option) ([]byte, error) {
	decoded, err := DecodeAddress(in, opts...)
	if err != nil {
		return nil, err
	}
	return decoded.Payload, nil
}

// DecodeString sniffs s and decodes it. Hex literals pass through unchanged.
func DecodeString(s string, opts ...Option) ([]byte, error) {
	return Decode(Sniff(s), opts...)
}

// DecodeAddress decodes in and also reports the network prefix.
//
// Text inputs are checked in order: base58 alphabet, frame length, checksum,
// registry membership (WithRegistry) and finally the prefix policy.
func DecodeAddress(in Input, opts ...Option) (DecodedAddress, error) {
	if in.kind != KindText {
		raw, err := in.rawBytes()
		if err != nil {
			return DecodedAddress{}, err
		}
		return DecodedAddress{Payload: clone(raw), Prefix: -1, Raw: true}, nil
	}

	o := buildOptions(opts)
	frame, err := decodeBase58(in.text)
	if err != nil {
		return DecodedAddress{}, err
	}

	prefix, prefixLen, err := DecodePrefix(frame)
	if err != nil {
		return DecodedAddress{}, err
	}

	payloadLen, ok := splitBody(len(frame) - prefixLen)
	if !ok {
		return DecodedAddress{}, fmt.Errorf("%w: %d bytes after a %d-byte prefix", ErrInvalidLength, len(frame)-prefixLen, prefixLen)
	}
	payload := frame[prefixLen : prefixLen+payloadLen]
	claimed := frame[prefixLen+payloadLen:]

	if !o.ignoreChecksum {
		if err := VerifyChecksum(frame[:prefixLen], payload, claimed); err != nil {
			return DecodedAddress{}, err
		}
	}
	if err := o.checkKnown(prefix); err != nil {
		return DecodedAddress{}, err
	}
	if o.policy != nil {
		if err := o.policy.Check(prefix); err != nil {
			return DecodedAddress{}, err
		}
	}
	return DecodedAddress{Payload: clone(payload), Prefix: prefix}, nil
}

func decodeBase58(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty address", ErrInvalidLength)
	}
	frame, err := base58.Decode(s)
	if err != nil {
		char, index := invalidCharacter(s)
		return nil, &EncodingError{Input: s, Char: char, Index: index}
	}
	return frame, nil
}

// invalidCharacter finds the first rune of s outside the base58 alphabet.
// It returns index -1 when every rune is valid.
func invalidCharacter(s string) (rune, int) {
	index := 0
	for _, r := range s {
		if !strings.ContainsRune(base58Alphabet, r) {
			return r, index
		}
		index++
	}
	return 0, -1
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
