package hugecontainer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orin-labs/hugecontainer/internal/hcfs"
)

func TestScratchFile_WriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sf := newScratchFile(hcfs.NewReal(), dir, FilePrefix)

	require.NoError(t, sf.writeAt(0, []byte("hello world")))

	buf := make([]byte, len("hello world"))
	require.NoError(t, sf.readAt(0, buf))
	require.Equal(t, "hello world", string(buf))
}

func TestScratchFile_LazyOpen(t *testing.T) {
	dir := t.TempDir()
	sf := newScratchFile(hcfs.NewReal(), dir, FilePrefix)

	entries, err := filepath.Glob(filepath.Join(dir, FilePrefix+"-*"))
	require.NoError(t, err)
	require.Empty(t, entries, "scratch file must not be created before first write")

	require.NoError(t, sf.writeAt(0, []byte("x")))

	entries, err = filepath.Glob(filepath.Join(dir, FilePrefix+"-*"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestScratchFile_CloseRemovesFile(t *testing.T) {
	dir := t.TempDir()
	sf := newScratchFile(hcfs.NewReal(), dir, FilePrefix)
	require.NoError(t, sf.writeAt(0, []byte("x")))
	require.NoError(t, sf.close())

	entries, err := filepath.Glob(filepath.Join(dir, FilePrefix+"-*"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestScratchFile_Truncate(t *testing.T) {
	dir := t.TempDir()
	sf := newScratchFile(hcfs.NewReal(), dir, FilePrefix)
	require.NoError(t, sf.writeAt(0, []byte("0123456789")))
	require.NoError(t, sf.truncate(4))

	size, err := sf.size()
	require.NoError(t, err)
	require.EqualValues(t, 4, size)
}

func TestCleanup_RemovesOrphansNotMatchingLiveProcess(t *testing.T) {
	dir := t.TempDir()

	orphan := filepath.Join(dir, FilePrefix+"-999999999-1")
	require.NoError(t, writeFile(orphan, []byte("orphan")))

	live := filepath.Join(dir, FilePrefix+"-1-1")
	require.NoError(t, writeFile(live, []byte("live")))

	require.NoError(t, Cleanup(dir, FilePrefix))

	entries, err := filepath.Glob(filepath.Join(dir, FilePrefix+"-*"))
	require.NoError(t, err)
	require.Contains(t, entries, live, "pid 1 (init) must look alive to a non-root test")
	require.NotContains(t, entries, orphan)
}

func writeFile(path string, data []byte) error {
	f, err := hcfs.NewReal().OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)

	return err
}
