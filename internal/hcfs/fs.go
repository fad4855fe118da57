// Package hcfs provides the filesystem seam the scratch-file handle is built
// on, so that scratch-file I/O error paths (§7's IoWrite/IoRead/IoTruncate
// kinds) can be exercised by injecting failures into a real filesystem.
//
// The main types are:
//   - [FS]: interface for the handful of filesystem operations a scratch
//     file needs (open, create-exclusive, list, remove, stat)
//   - [File]: interface for an open file (satisfied by [os.File])
//   - [Real]: production implementation backed by the [os] package
//   - [Faulty]: test implementation that injects configurable read/write/
//     sync failures
package hcfs

import (
	"io"
	"os"
)

// File represents an OS-backed open file descriptor.
//
// This interface is satisfied by [os.File]. Implementations must behave
// like [os.File], returning an error from Write when the file wasn't opened
// for writing.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Truncate changes the size of the file. See [os.File.Truncate].
	Truncate(size int64) error
}

// FS defines the filesystem operations the scratch file and [Cleanup] need.
//
// Implementations in this package:
//   - [Real]: production use, wraps [os]
//   - [Faulty]: test use, injects read/write/sync failures at configurable
//     rates so that the §7 error-kind contracts can be driven deterministically
//
// Paths use OS semantics, not the slash-separated paths of [io/fs].
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions. See
	// [os.OpenFile]. Used with [os.O_CREATE]|[os.O_EXCL] for unique scratch
	// file names and with [os.O_RDWR] for the scratch file itself.
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadDir reads a directory and returns its entries, sorted by name.
	// See [os.ReadDir]. Used by [Cleanup].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Remove deletes a file. See [os.Remove]. No error if it doesn't exist.
	Remove(path string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
