package hugecontainer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func stringCodec() Codec[string] {
	return Codec[string]{
		Encode: func(s string) ([]byte, error) { return []byte(s), nil },
		Decode: func(b []byte) (string, error) { return string(b), nil },
	}
}

func TestBlockCodec_NoCompressionRoundTrip(t *testing.T) {
	c := newBlockCodec(stringCodec(), 0)

	block, err := c.encode("hello")
	require.NoError(t, err)
	require.Equal(t, "hello", string(block), "uncompressed block must equal raw encoding")

	got, err := c.decode(block)
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestBlockCodec_CompressedRoundTrip(t *testing.T) {
	for _, level := range []int8{-1, 1, 9} {
		c := newBlockCodec(stringCodec(), level)

		block, err := c.encode("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly, repeatedly")
		require.NoError(t, err)

		got, err := c.decode(block)
		require.NoError(t, err)
		require.Equal(t, "the quick brown fox jumps over the lazy dog, repeatedly, repeatedly, repeatedly", got)
	}
}

func TestBlockCodec_EncodeErrorWraps(t *testing.T) {
	boom := errors.New("boom")
	c := newBlockCodec(Codec[string]{
		Encode: func(string) ([]byte, error) { return nil, boom },
		Decode: func(b []byte) (string, error) { return string(b), nil },
	}, 0)

	_, err := c.encode("x")
	require.ErrorIs(t, err, ErrDecode)
}

func TestBlockCodec_DecodeErrorWraps(t *testing.T) {
	boom := errors.New("boom")
	c := newBlockCodec(Codec[string]{
		Encode: func(s string) ([]byte, error) { return []byte(s), nil },
		Decode: func([]byte) (string, error) { return "", boom },
	}, 0)

	_, err := c.decode([]byte("x"))
	require.ErrorIs(t, err, ErrDecode)
}
