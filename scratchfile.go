package hugecontainer

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/orin-labs/hugecontainer/internal/hcfs"
)

// scratchFS is the filesystem seam a container's scratch file is built on.
// Aliased here (rather than imported directly as hcfs.FS in every signature)
// so Options.FS reads naturally from callers who never need to know the
// internal package exists.
type scratchFS = hcfs.FS

// defaultFS returns the production filesystem.
func defaultFS() scratchFS {
	return hcfs.NewReal()
}

// scratchFile is the private, growable backing store for swapped-out
// values (§4.C). It owns no knowledge of keys, cache policy, or encoding:
// it is a flat byte-range read/write/truncate surface addressed by the
// offsets the free map hands out.
//
// The file is created lazily on first write so that a container that never
// spills never touches disk.
type scratchFile struct {
	fs     scratchFS
	dir    string
	prefix string
	path   string
	file   hcfs.File
	closed bool
}

func newScratchFile(fs scratchFS, dir, prefix string) *scratchFile {
	return &scratchFile{fs: fs, dir: dir, prefix: prefix}
}

// ensureOpen lazily creates the backing file with a unique name under dir,
// grounded on os.CreateTemp's retry-on-collision pattern since FS has no
// direct equivalent.
func (s *scratchFile) ensureOpen() error {
	if s.closed {
		return ErrClosed
	}

	if s.file != nil {
		return nil
	}

	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("%w: create scratch dir: %v", ErrIO, err)
	}

	for attempt := 0; attempt < 10000; attempt++ {
		name := fmt.Sprintf("%s-%d-%d", s.prefix, os.Getpid(), randSeq())
		path := filepath.Join(s.dir, name)

		f, err := s.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}

		if err != nil {
			return fmt.Errorf("%w: create scratch file: %v", ErrIO, err)
		}

		s.file = f
		s.path = path

		return nil
	}

	return fmt.Errorf("%w: could not allocate a unique scratch file name", ErrIO)
}

// randSeq is package-level so every scratchFile in a process walks a
// distinct sequence even when created in the same nanosecond.
var scratchRand = rand.New(rand.NewSource(0x68756765)) //nolint:gosec // name uniqueness, not security

func randSeq() uint64 {
	return scratchRand.Uint64()
}

// readAt reads exactly len(buf) bytes starting at offset.
func (s *scratchFile) readAt(offset uint64, buf []byte) error {
	if s.closed {
		return ErrClosed
	}

	if s.file == nil {
		return fmt.Errorf("%w: read from unopened scratch file", ErrIO)
	}

	if _, err := s.file.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek: %v", ErrIO, err)
	}

	if _, err := io.ReadFull(s.file, buf); err != nil {
		return fmt.Errorf("%w: read: %v", ErrIO, err)
	}

	return nil
}

// writeAt writes the full contents of buf starting at offset, growing the
// file if necessary. Callers must hold an offset reserved via the free map.
func (s *scratchFile) writeAt(offset uint64, buf []byte) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	if _, err := s.file.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek: %v", ErrIO, err)
	}

	if _, err := s.file.Write(buf); err != nil {
		return fmt.Errorf("%w: write: %v", ErrIO, err)
	}

	return nil
}

// sync commits pending writes. Only defrag calls it, once on the freshly
// written file, and it logs a failure rather than returning it.
func (s *scratchFile) sync() error {
	if s.file == nil {
		return nil
	}

	return s.file.Sync()
}

// truncate shrinks the file to size bytes, used after a release() coalesces
// the trailing extent back to free space.
func (s *scratchFile) truncate(size uint64) error {
	if s.file == nil {
		return nil
	}

	return s.file.Truncate(int64(size))
}

// size reports the file's actual size on disk, used by tests and by clone's
// byte-for-byte copy; the free map's fileSize is the source of truth for
// allocation.
func (s *scratchFile) size() (uint64, error) {
	if s.file == nil {
		return 0, nil
	}

	info, err := s.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat: %v", ErrIO, err)
	}

	return uint64(info.Size()), nil
}

// lockExclusive takes an advisory exclusive lock on the scratch file for
// the duration of a byte-for-byte duplication (COW detach, §4.H) or
// defrag rewrite (§4.J). See [hcfs.LockExclusive].
func (s *scratchFile) lockExclusive() (func() error, error) {
	if s.file == nil {
		return func() error { return nil }, nil
	}

	return hcfs.LockExclusive(s.file)
}

// close releases the file handle and removes the backing file, matching the
// "private, removed on Close" contract in the package doc.
func (s *scratchFile) close() error {
	s.closed = true

	if s.file == nil {
		return nil
	}

	closeErr := s.file.Close()
	s.file = nil

	removeErr := s.fs.Remove(s.path)

	if closeErr != nil {
		return fmt.Errorf("%w: close: %v", ErrIO, closeErr)
	}

	if removeErr != nil {
		return fmt.Errorf("%w: remove: %v", ErrIO, removeErr)
	}

	return nil
}

// Cleanup removes orphaned scratch files left behind by a process that
// exited without closing its containers (crash, SIGKILL). It is a free
// function rather than a method because it operates on the directory, not
// on any single container's handle - mirroring the original's
// free-function cleanup entry point (see SPEC_FULL.md's supplemented
// features).
//
// Only files matching "<filePrefix>-<pid>-*" whose pid is not a currently
// running process are removed; a bare textual prefix match would risk
// deleting a live container's scratch file from a concurrently running
// process using the same directory.
func Cleanup(dir, filePrefix string) error {
	fs := defaultFS()

	entries, err := fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("%w: cleanup readdir: %v", ErrIO, err)
	}

	var firstErr error

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		pid, ok := parseScratchPID(entry.Name(), filePrefix)
		if !ok || processAlive(pid) {
			continue
		}

		if err := fs.Remove(filepath.Join(dir, entry.Name())); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: cleanup remove %s: %v", ErrIO, entry.Name(), err)
		}
	}

	return firstErr
}

func parseScratchPID(name, prefix string) (int, bool) {
	rest, ok := splitPrefix(name, prefix+"-")
	if !ok {
		return 0, false
	}

	for i := 0; i < len(rest); i++ {
		if rest[i] == '-' {
			pid, err := strconv.Atoi(rest[:i])
			return pid, err == nil
		}
	}

	return 0, false
}

func splitPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}

	return s[len(prefix):], true
}

// processAlive reports whether pid looks like a still-running process.
// Signal 0 performs no action beyond existence/permission checks; EPERM
// means the process exists but belongs to another user.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))

	return err == nil || errors.Is(err, syscall.EPERM)
}
