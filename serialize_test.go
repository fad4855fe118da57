package hugecontainer

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSerializableCore(t *testing.T) *core[int, string] {
	t.Helper()

	return newCore[int, string](false, nil, Options[int, string]{
		MaxCache: 2,
		Key:      intCodec(),
		Value:    stringCodec(),
		TempDir:  t.TempDir(),
	})
}

func intCodec() Codec[int] {
	return Codec[int]{
		Encode: func(k int) ([]byte, error) { return []byte{byte(k)}, nil },
		Decode: func(b []byte) (int, error) { return int(b[0]), nil },
	}
}

// §8.10: serialize then deserialize is the identity on the value set.
func TestSerialize_WriteThenReadRoundTrip(t *testing.T) {
	src := newSerializableCore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, src.insert(i, valueName(i)))
	}

	var buf bytes.Buffer
	n, err := src.writeTo(&buf)
	require.NoError(t, err)
	require.Greater(t, n, int64(0))

	dst := newSerializableCore(t)
	_, err = dst.readFrom(&buf)
	require.NoError(t, err)

	require.Equal(t, 5, dst.size())

	for i := 0; i < 5; i++ {
		v, ok, err := dst.lookup(i)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, valueName(i), v)
	}
}

func TestSerialize_ReadFrom_OverwritesExistingKeys(t *testing.T) {
	dst := newSerializableCore(t)
	require.NoError(t, dst.insert(0, "stale"))

	src := newSerializableCore(t)
	require.NoError(t, src.insert(0, "fresh"))

	var buf bytes.Buffer
	_, err := src.writeTo(&buf)
	require.NoError(t, err)

	_, err = dst.readFrom(&buf)
	require.NoError(t, err)

	v, ok, err := dst.lookup(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fresh", v)
}

func TestSerialize_EmptyContainerRoundTrip(t *testing.T) {
	src := newSerializableCore(t)

	var buf bytes.Buffer
	_, err := src.writeTo(&buf)
	require.NoError(t, err)

	dst := newSerializableCore(t)
	_, err = dst.readFrom(&buf)
	require.NoError(t, err)

	require.True(t, dst.isEmpty())
}

func TestSerialize_ExportImportPathRoundTrip(t *testing.T) {
	src := newSerializableCore(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, src.insert(i, valueName(i)))
	}

	path := filepath.Join(t.TempDir(), "export.bin")
	require.NoError(t, src.exportPath(path))

	dst := newSerializableCore(t)
	require.NoError(t, dst.importPath(path))

	for i := 0; i < 3; i++ {
		v, ok, err := dst.lookup(i)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, valueName(i), v)
	}
}
