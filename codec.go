package hugecontainer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// blockCodec wraps a value [Codec] with optional flate compression of the
// encoded bytes (§4.B). klauspost/compress/flate is a drop-in replacement
// for compress/flate with identical level constants (-1, 0, 1..9) and a
// faster implementation, so the container never falls back to the stdlib
// package directly.
type blockCodec[V any] struct {
	value Codec[V]
	level int8
}

func newBlockCodec[V any](value Codec[V], level int8) blockCodec[V] {
	return blockCodec[V]{value: value, level: level}
}

// encode produces the on-disk block for v: the raw encoded bytes, optionally
// flate-compressed when level != 0.
func (c blockCodec[V]) encode(v V) ([]byte, error) {
	raw, err := c.value.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrDecode, err)
	}

	if c.level == 0 {
		return raw, nil
	}

	var buf bytes.Buffer

	w, err := flate.NewWriter(&buf, int(c.level))
	if err != nil {
		return nil, fmt.Errorf("%w: compress: %v", ErrDecode, err)
	}

	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("%w: compress: %v", ErrDecode, err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: compress: %v", ErrDecode, err)
	}

	return buf.Bytes(), nil
}

// decode reverses encode.
func (c blockCodec[V]) decode(block []byte) (V, error) {
	if c.level == 0 {
		v, err := c.value.Decode(block)
		if err != nil {
			return c.value.defaultValue(), fmt.Errorf("%w: decode: %v", ErrDecode, err)
		}

		return v, nil
	}

	r := flate.NewReader(bytes.NewReader(block))
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return c.value.defaultValue(), fmt.Errorf("%w: decompress: %v", ErrDecode, err)
	}

	v, err := c.value.Decode(raw)
	if err != nil {
		return c.value.defaultValue(), fmt.Errorf("%w: decode: %v", ErrDecode, err)
	}

	return v, nil
}
