package address

import (
	"fmt"
	"slices"
)

// Registry answers whether a prefix belongs to a known network.
type Registry interface {
	IsKnown(prefix int) bool
}

// PrefixPolicy decides whether a decoded prefix is acceptable.
type PrefixPolicy interface {
	Check(prefix int) error
}

type exactPrefix int

// ExactPrefix accepts only the given prefix.
func ExactPrefix(prefix int) PrefixPolicy {
	return exactPrefix(prefix)
}

func (p exactPrefix) Check(prefix int) error {
	if prefix != int(p) {
		return &PrefixError{Got: prefix, Allowed: []int{int(p)}}
	}
	return nil
}

type allowList []int

// AllowList accepts any of the given prefixes.
func AllowList(prefixes ...int) PrefixPolicy {
	return allowList(slices.Clone(prefixes))
}

func (l allowList) Check(prefix int) error {
	if !slices.Contains(l, prefix) {
		return &PrefixError{Got: prefix, Allowed: slices.Clone(l)}
	}
	return nil
}

type advisory struct {
	policy PrefixPolicy
	report func(err error)
}

// Advisory runs policy but never fails; rejections are handed to report.
func Advisory(policy PrefixPolicy, report func(err error)) PrefixPolicy {
	return advisory{policy: policy, report: report}
}

func (a advisory) Check(prefix int) error {
	if err := a.policy.Check(prefix); err != nil && a.report != nil {
		a.report(err)
	}
	return nil
}

type options struct {
	ignoreChecksum bool
	policy         PrefixPolicy
	registry       Registry
}

// Option tunes Decode and Encode.
type Option func(*options)

// WithoutChecksum skips checksum verification on decode.
func WithoutChecksum() Option {
	return func(o *options) {
		o.ignoreChecksum = true
	}
}

// WithExpectedFormat rejects decoded addresses whose prefix is not prefix.
func WithExpectedFormat(prefix int) Option {
	return WithPolicy(ExactPrefix(prefix))
}

// WithPolicy installs a custom prefix policy. A nil policy disables the check.
func WithPolicy(policy PrefixPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithRegistry enables strict prefix validation: prefixes the registry does
// not know are rejected with ErrInvalidPrefix on both decode and encode.
func WithRegistry(r Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) checkKnown(prefix int) error {
	if o.registry != nil && !o.registry.IsKnown(prefix) {
		return fmt.Errorf("%w: %d is not a registered network", ErrInvalidPrefix, prefix)
	}
	return nil
}
