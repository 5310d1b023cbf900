package address

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Kind identifies how an Input is turned into bytes.
type Kind int

const (
	// KindText is base58 SS58 text that goes through full validation.
	KindText Kind = iota
	// KindBytes is an already decoded identifier, passed through unchanged.
	KindBytes
	// KindHex is a 0x-prefixed hex literal, passed through unchanged.
	KindHex
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindHex:
		return "hex"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Input is the value handed to Decode.
type Input struct {
	kind Kind
	text string
	raw  []byte
}

// Bytes wraps a raw identifier.
func Bytes(b []byte) Input {
	return Input{kind: KindBytes, raw: b}
}

// Hex wraps a 0x-prefixed hex literal. Malformed literals fail in Decode.
func Hex(s string) Input {
	return Input{kind: KindHex, text: s}
}

// Text wraps an SS58 string.
func Text(s string) Input {
	return Input{kind: KindText, text: s}
}

// Sniff classifies s: a well-formed 0x hex literal becomes a Hex input and
// everything else is treated as SS58 text. '0' is not in the base58 alphabet,
// so no valid address is mistaken for hex.
func Sniff(s string) Input {
	if raw, err := hexutil.Decode(s); err == nil {
		return Input{kind: KindHex, text: s, raw: raw}
	}
	return Text(s)
}

// Kind reports how the input will be decoded.
func (in Input) Kind() Kind {
	return in.kind
}

// String returns the textual form of the input, hex-encoding raw bytes.
func (in Input) String() string {
	if in.kind == KindBytes {
		return hexutil.Encode(in.raw)
	}
	return in.text
}

// rawBytes resolves a Bytes or Hex input.
func (in Input) rawBytes() ([]byte, error) {
	if in.raw != nil {
		return in.raw, nil
	}
	switch in.kind {
	case KindBytes:
		return []byte{}, nil
	case KindHex:
		raw, err := hexutil.Decode(in.text)
		if err != nil {
			return nil, fmt.Errorf("%w: hex literal %q: %v", ErrInvalidEncoding, in.text, err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %s input has no raw form", ErrInvalidEncoding, in.kind)
}
