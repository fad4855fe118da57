package hugecontainer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// writeTo implements §4.I/§6's external serialization format: a signed
// 32-bit count, then for each entry the key encoding followed by the
// value's encoding at its "logical" (decompressed) form - stable across
// processes and independent of the internal scratch-file layout.
func (c *core[K, V]) writeTo(w io.Writer) (int64, error) {
	var written int64

	keys := c.allKeys()

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(int32(len(keys))))

	n, err := w.Write(header[:])
	written += int64(n)

	if err != nil {
		return written, fmt.Errorf("%w: write count: %v", ErrIO, err)
	}

	for _, k := range keys {
		v, ok, err := c.lookup(k)
		if err != nil || !ok {
			return written, fmt.Errorf("%w: read value for serialization: %v", ErrIO, err)
		}

		kb, err := c.keyCodec.Encode(k)
		if err != nil {
			return written, fmt.Errorf("%w: encode key: %v", ErrDecode, err)
		}

		n, err = writeLenPrefixed(w, kb)
		written += int64(n)

		if err != nil {
			return written, err
		}

		vb, err := c.codec.value.Encode(v)
		if err != nil {
			return written, fmt.Errorf("%w: encode value: %v", ErrDecode, err)
		}

		n, err = writeLenPrefixed(w, vb)
		written += int64(n)

		if err != nil {
			return written, err
		}
	}

	return written, nil
}

// readFrom implements the reverse of writeTo. Pre-existing keys are
// overwritten, matching insert's semantics per entry.
func (c *core[K, V]) readFrom(r io.Reader) (int64, error) {
	var read int64

	var header [4]byte

	n, err := io.ReadFull(r, header[:])
	read += int64(n)

	if err != nil {
		return read, fmt.Errorf("%w: read count: %v", ErrIO, err)
	}

	count := int32(binary.LittleEndian.Uint32(header[:]))
	if count < 0 {
		return read, fmt.Errorf("%w: negative entry count", ErrDecode)
	}

	for i := int32(0); i < count; i++ {
		kb, n, err := readLenPrefixed(r)
		read += n

		if err != nil {
			return read, err
		}

		vb, n, err := readLenPrefixed(r)
		read += n

		if err != nil {
			return read, err
		}

		k, err := c.keyCodec.Decode(kb)
		if err != nil {
			return read, fmt.Errorf("%w: decode key: %v", ErrDecode, err)
		}

		v, err := c.codec.value.Decode(vb)
		if err != nil {
			return read, fmt.Errorf("%w: decode value: %v", ErrDecode, err)
		}

		if err := c.insert(k, v); err != nil {
			return read, err
		}
	}

	return read, nil
}

// writeLenPrefixed/readLenPrefixed frame each key/value encoding with its
// own byte length, since the caller's Codec produces opaque bytes whose
// length the format must record to know where the next field starts.
func writeLenPrefixed(w io.Writer, b []byte) (int64, error) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))

	n1, err := w.Write(lenBuf[:])
	if err != nil {
		return int64(n1), fmt.Errorf("%w: write length: %v", ErrIO, err)
	}

	n2, err := w.Write(b)
	if err != nil {
		return int64(n1 + n2), fmt.Errorf("%w: write field: %v", ErrIO, err)
	}

	return int64(n1 + n2), nil
}

func readLenPrefixed(r io.Reader) ([]byte, int64, error) {
	var lenBuf [4]byte

	n1, err := io.ReadFull(r, lenBuf[:])
	if err != nil {
		return nil, int64(n1), fmt.Errorf("%w: read length: %v", ErrIO, err)
	}

	size := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, size)

	n2, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, int64(n1 + n2), fmt.Errorf("%w: read field: %v", ErrIO, err)
	}

	return buf, int64(n1 + n2), nil
}

// exportPath serializes the container to path atomically: the file is
// only ever seen by readers in its final, complete state, matching the
// teacher's binary ticket cache persistence path.
func (c *core[K, V]) exportPath(path string) error {
	var buf bytes.Buffer

	if _, err := c.writeTo(&buf); err != nil {
		return err
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("%w: atomic export write: %v", ErrIO, err)
	}

	return nil
}

// importPath reads a file written by exportPath and merges it into c.
func (c *core[K, V]) importPath(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open import file: %v", ErrIO, err)
	}
	defer f.Close()

	_, err = c.readFrom(f)

	return err
}
