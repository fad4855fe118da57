package hcfs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// fder exposes the raw file descriptor [Real]-backed files provide. Only
// *os.File (what [Real] hands back) implements it; [Faulty]'s wrapped
// files embed only the [File] interface and do not expose Fd, so
// LockExclusive is a no-op through a Faulty filesystem.
type fder interface {
	Fd() uintptr
}

// LockExclusive takes an advisory exclusive lock on f, blocking until it is
// granted, for the
// duration of a scratch-file duplication (copy-on-write detach, §4.H) or
// defragmentation rewrite (§4.J). The container itself is single-threaded,
// but its scratch file's lifetime spans a raw byte-for-byte OS-level copy
// during those two operations, where an external process (a backup agent,
// an antivirus scanner) reading the same path underneath could observe a
// half-written duplicate; the lock keeps that window exclusive.
//
// Returns a no-op unlock and a nil error if f does not expose a file
// descriptor (a fake used in a test, for instance) - locking is a
// best-effort safety net, not a correctness requirement of the container
// itself (see §5: no goroutine-level locking is needed within one
// single-threaded user).
func LockExclusive(f File) (unlock func() error, err error) {
	fd, ok := f.(fder)
	if !ok {
		return func() error { return nil }, nil
	}

	if err := unix.Flock(int(fd.Fd()), unix.LOCK_EX); err != nil {
		return nil, fmt.Errorf("flock: %w", err)
	}

	return func() error {
		return unix.Flock(int(fd.Fd()), unix.LOCK_UN)
	}, nil
}
