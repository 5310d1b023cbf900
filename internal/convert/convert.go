// Package convert turns JSON-shaped encode and decode requests into calls on
// the address codec. It is shared by the HTTP API, the WebSocket hub and the
// crosstest commands.
package convert

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pinch-protocol/ss58/internal/address"
	"github.com/pinch-protocol/ss58/internal/registry"
)

// EncodeRequest asks for payload to be encoded. A nil Format uses the
// service default.
type EncodeRequest struct {
	Payload string `json:"payload"`
	Format  *int   `json:"format,omitempty"`
}

// DecodeRequest asks for an address (or raw hex) to be decoded. One Expect
// entry means strict equality, several mean an allow-list.
type DecodeRequest struct {
	Address        string `json:"address"`
	Expect         []int  `json:"expect,omitempty"`
	IgnoreChecksum bool   `json:"ignoreChecksum,omitempty"`
}

// ConvertRequest re-encodes an address for another network.
type ConvertRequest struct {
	Address string `json:"address"`
	Format  int    `json:"format"`
}

// Result is returned by every operation. Prefix is nil for raw inputs.
type Result struct {
	Address string `json:"address,omitempty"`
	Payload string `json:"payload,omitempty"`
	Prefix  *int   `json:"prefix,omitempty"`
	Network string `json:"network,omitempty"`
}

// Service applies the daemon wide settings to each request.
type Service struct {
	registry      registry.Registry
	strict        bool
	defaultFormat int
	metrics       *Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry sets the registry used to name networks and, in strict mode,
// to reject unknown prefixes.
func WithRegistry(r registry.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithStrict enables registry enforcement.
func WithStrict(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// WithDefaultFormat sets the prefix used when an encode request has none.
func WithDefaultFormat(prefix int) Option {
	return func(s *Service) { s.defaultFormat = prefix }
}

// WithMetrics records operation outcomes.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New returns a Service backed by the built-in registry and prefix 42.
func New(opts ...Option) *Service {
	s := &Service{
		registry:      registry.Builtin(),
		defaultFormat: 42,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) codecOptions() []address.Option {
	if s.strict && s.registry != nil {
		return []address.Option{address.WithRegistry(s.registry)}
	}
	return nil
}

func (s *Service) networkName(prefix int) string {
	if s.registry == nil {
		return ""
	}
	if n, ok := s.registry.Lookup(prefix); ok {
		return n.Network
	}
	return ""
}

// Encode encodes req.Payload, a 0x hex string.
func (s *Service) Encode(req EncodeRequest) (res Result, err error) {
	defer func() { s.metrics.observe("encode", err) }()

	payload, err := hexutil.Decode(req.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: payload %q: %v", address.ErrInvalidEncoding, req.Payload, err)
	}
	prefix := s.defaultFormat
	if req.Format != nil {
		prefix = *req.Format
	}
	encoded, err := address.Encode(payload, prefix, s.codecOptions()...)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Address: encoded,
		Payload: hexutil.Encode(payload),
		Prefix:  &prefix,
		Network: s.networkName(prefix),
	}, nil
}

// Decode decodes req.Address. Hex literals are passed through unchanged.
func (s *Service) Decode(req DecodeRequest) (res Result, err error) {
	defer func() { s.metrics.observe("decode", err) }()

	opts := s.codecOptions()
	if req.IgnoreChecksum {
		opts = append(opts, address.WithoutChecksum())
	}
	switch len(req.Expect) {
	case 0:
	case 1:
		opts = append(opts, address.WithExpectedFormat(req.Expect[0]))
	default:
		opts = append(opts, address.WithPolicy(address.AllowList(req.Expect...)))
	}

	decoded, err := address.DecodeAddress(address.Sniff(req.Address), opts...)
	if err != nil {
		return Result{}, err
	}
	res = Result{Payload: hexutil.Encode(decoded.Payload)}
	if !decoded.Raw {
		prefix := decoded.Prefix
		res.Address = req.Address
		res.Prefix = &prefix
		res.Network = s.networkName(prefix)
	}
	return res, nil
}

// Convert re-encodes req.Address under req.Format.
func (s *Service) Convert(req ConvertRequest) (res Result, err error) {
	defer func() { s.metrics.observe("convert", err) }()

	in := address.Sniff(req.Address)
	payload, err := address.Decode(in, s.codecOptions()...)
	if err != nil {
		return Result{}, err
	}
	encoded, err := address.Encode(payload, req.Format, s.codecOptions()...)
	if err != nil {
		return Result{}, err
	}
	prefix := req.Format
	return Result{
		Address: encoded,
		Payload: hexutil.Encode(payload),
		Prefix:  &prefix,
		Network: s.networkName(prefix),
	}, nil
}

// ErrorKind classifies err for API responses and metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, address.ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, address.ErrInvalidLength):
		return "invalid_length"
	case errors.Is(err, address.ErrInvalidPrefix):
		return "invalid_prefix"
	case errors.Is(err, address.ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, address.ErrUnexpectedPrefix):
		return "unexpected_prefix"
	default:
		return "internal"
	}
}
