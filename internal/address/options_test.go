package address_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pinch-protocol/ss58/internal/address"
)

type knownPrefixes map[int]bool

func (k knownPrefixes) IsKnown(prefix int) bool {
	return k[prefix]
}

func TestAllowListPolicy(t *testing.T) {
	encoded, err := address.Encode(mustDecodeHex(t, alice), 2)
	require.NoError(t, err)

	_, err = address.DecodeString(encoded, address.WithPolicy(address.AllowList(0, 2)))
	require.NoError(t, err)

	_, err = address.DecodeString(encoded, address.WithPolicy(address.AllowList(0, 42)))
	require.ErrorIs(t, err, address.ErrUnexpectedPrefix)
	require.EqualError(t, err, "unexpected address prefix 2, expected one of [0 42]")
}

func TestAdvisoryPolicyReportsWithoutFailing(t *testing.T) {
	encoded, err := address.Encode([]byte{1, 2, 3, 4}, 7)
	require.NoError(t, err)

	var reported []error
	policy := address.Advisory(address.ExactPrefix(0), func(err error) {
		reported = append(reported, err)
	})
	payload, err := address.DecodeString(encoded, address.WithPolicy(policy))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, payload)
	require.Len(t, reported, 1)
	require.True(t, errors.Is(reported[0], address.ErrUnexpectedPrefix))

	_, err = address.DecodeString(encoded, address.WithPolicy(address.Advisory(address.ExactPrefix(7), nil)))
	require.NoError(t, err)
}

func TestNilPolicyDisablesCheck(t *testing.T) {
	encoded, err := address.Encode([]byte{1}, 5)
	require.NoError(t, err)

	_, err = address.DecodeString(encoded, address.WithExpectedFormat(0), address.WithPolicy(nil))
	require.NoError(t, err)
}

func TestStrictRegistry(t *testing.T) {
	reg := knownPrefixes{0: true, 2: true}

	known, err := address.Encode([]byte{1}, 2, address.WithRegistry(reg))
	require.NoError(t, err)
	_, err = address.DecodeString(known, address.WithRegistry(reg))
	require.NoError(t, err)

	_, err = address.Encode([]byte{1}, 9, address.WithRegistry(reg))
	require.ErrorIs(t, err, address.ErrInvalidPrefix)

	unknown, err := address.Encode([]byte{1}, 9)
	require.NoError(t, err)
	_, err = address.DecodeString(unknown, address.WithRegistry(reg))
	require.ErrorIs(t, err, address.ErrInvalidPrefix)

	// Without a registry the unknown prefix decodes.
	_, err = address.DecodeString(unknown)
	require.NoError(t, err)
}

func TestChecksumIsVerifiedBeforePrefixPolicy(t *testing.T) {
	_, err := address.DecodeString("5GoKvZWG5ZPYL1WUovuHW3zJBWBP5eT8CbqjdRY4Q6iMa9cj", address.WithExpectedFormat(0))
	require.ErrorIs(t, err, address.ErrChecksumMismatch)
}

func TestValidate(t *testing.T) {
	require.True(t, address.Validate("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"))
	require.True(t, address.Validate("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", address.WithExpectedFormat(42)))
	require.False(t, address.Validate("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", address.WithExpectedFormat(0)))
	require.False(t, address.Validate("0x01020304"))
	require.False(t, address.Validate(""))
}

func TestConvert(t *testing.T) {
	polkadot, err := address.Convert(address.Text("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"), 0)
	require.NoError(t, err)
	require.Equal(t, "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5", polkadot)

	fromHex, err := address.Convert(address.Sniff("0x"+alice), 2)
	require.NoError(t, err)
	require.Equal(t, "HNZata7iMYWmk5RvZRTiAsSDhV8366zq2YGb3tLH5Upf74F", fromHex)

	_, err = address.Convert(address.Text("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"), 0,
		address.WithRegistry(knownPrefixes{42: true}))
	require.ErrorIs(t, err, address.ErrInvalidPrefix)
}

func TestEqual(t *testing.T) {
	same, err := address.Equal(
		address.Text("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"),
		address.Text("15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"),
	)
	require.NoError(t, err)
	require.True(t, same)

	same, err = address.Equal(address.Text("F7NZ"), address.Bytes([]byte{2}))
	require.NoError(t, err)
	require.False(t, same)

	_, err = address.Equal(address.Text("F7NZ"), address.Text("F7N0"))
	require.ErrorIs(t, err, address.ErrInvalidEncoding)
}

func TestSniff(t *testing.T) {
	require.Equal(t, address.KindHex, address.Sniff("0x0102").Kind())
	require.Equal(t, address.KindHex, address.Sniff("0x").Kind())
	require.Equal(t, address.KindText, address.Sniff("0x123").Kind())
	require.Equal(t, address.KindText, address.Sniff("0xzz").Kind())
	require.Equal(t, address.KindText, address.Sniff("F7NZ").Kind())
	require.Equal(t, "0x010203", address.Bytes([]byte{1, 2, 3}).String())
	require.Equal(t, "bytes", address.KindBytes.String())
}
