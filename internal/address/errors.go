package address

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEncoding  = errors.New("invalid address encoding")
	ErrInvalidLength    = errors.New("invalid address length")
	ErrInvalidPrefix    = errors.New("invalid address prefix")
	ErrChecksumMismatch = errors.New("invalid address checksum")
	ErrUnexpectedPrefix = errors.New("unexpected address prefix")
)

// EncodingError reports a character outside the base58 alphabet.
type EncodingError struct {
	Input string
	Char  rune
	Index int
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("decoding %s: invalid base58 input", e.Input)
	}
	return fmt.Sprintf("decoding %s: invalid base58 character %q (0x%x) at index %d", e.Input, string(e.Char), e.Char, e.Index)
}

func (e *EncodingError) Unwrap() error {
	return ErrInvalidEncoding
}

// PrefixError reports a decoded prefix rejected by a PrefixPolicy.
type PrefixError struct {
	Got     int
	Allowed []int
}

func (e *PrefixError) Error() string {
	if len(e.Allowed) == 1 {
		return fmt.Sprintf("unexpected address prefix %d, expected %d", e.Got, e.Allowed[0])
	}
	return fmt.Sprintf("unexpected address prefix %d, expected one of %v", e.Got, e.Allowed)
}

func (e *PrefixError) Unwrap() error {
	return ErrUnexpectedPrefix
}
