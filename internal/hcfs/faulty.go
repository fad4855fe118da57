package hcfs

import (
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"sync"
)

// FaultConfig controls fault injection probabilities for [Faulty].
// Each rate is a float64 from 0.0 (never) to 1.0 (always). The zero value
// disables all fault injection.
type FaultConfig struct {
	// ReadFailRate controls how often File.Read fails with EIO.
	ReadFailRate float64

	// WriteFailRate controls how often File.Write fails with ENOSPC before
	// writing any bytes.
	WriteFailRate float64

	// SyncFailRate controls how often File.Sync fails with EIO, simulating
	// a delayed write error surfacing at fsync time.
	SyncFailRate float64

	// TruncateFailRate controls how often File.Truncate fails with EIO.
	TruncateFailRate float64

	// Rand supplies randomness; defaults to a fixed-seed PCG source if nil.
	Rand *rand.Rand
}

// Faulty wraps a [Real] filesystem and injects failures into its open files
// at configured rates, so that the §7 error-kind contracts (IoWrite, IoRead,
// IoTruncate) can be driven deterministically in tests.
//
// Open, OpenFile, ReadDir, MkdirAll, Stat, and Remove always succeed (or fail)
// exactly as the underlying [Real] filesystem would; only already-open [File]
// operations are subject to injected failures, mirroring where a real disk
// actually misbehaves.
type Faulty struct {
	real FS
	cfg  FaultConfig
	mu   sync.Mutex
}

// NewFaulty wraps fsys with fault injection governed by cfg.
func NewFaulty(fsys FS, cfg FaultConfig) *Faulty {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(1, 2)) //nolint:gosec // deterministic test fixture, not a security surface
	}

	return &Faulty{real: fsys, cfg: cfg}
}

func (f *Faulty) chance(rate float64) bool {
	if rate <= 0 {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cfg.Rand.Float64() < rate
}

func (f *Faulty) Open(path string) (File, error) {
	file, err := f.real.Open(path)
	if err != nil {
		return nil, err
	}

	return &faultyFile{File: file, owner: f}, nil
}

func (f *Faulty) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	file, err := f.real.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &faultyFile{File: file, owner: f}, nil
}

func (f *Faulty) ReadDir(path string) ([]os.DirEntry, error) { return f.real.ReadDir(path) }
func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	return f.real.MkdirAll(path, perm)
}
func (f *Faulty) Stat(path string) (os.FileInfo, error) { return f.real.Stat(path) }
func (f *Faulty) Remove(path string) error              { return f.real.Remove(path) }

var _ FS = (*Faulty)(nil)

type faultyFile struct {
	File

	owner *Faulty
}

func (ff *faultyFile) Read(p []byte) (int, error) {
	if ff.owner.chance(ff.owner.cfg.ReadFailRate) {
		return 0, &os.PathError{Op: "read", Path: "faulty", Err: errIO}
	}

	return ff.File.Read(p)
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.owner.chance(ff.owner.cfg.WriteFailRate) {
		return 0, &os.PathError{Op: "write", Path: "faulty", Err: errNoSpace}
	}

	return ff.File.Write(p)
}

func (ff *faultyFile) Sync() error {
	if ff.owner.chance(ff.owner.cfg.SyncFailRate) {
		return &os.PathError{Op: "sync", Path: "faulty", Err: errIO}
	}

	return ff.File.Sync()
}

func (ff *faultyFile) Truncate(size int64) error {
	if ff.owner.chance(ff.owner.cfg.TruncateFailRate) {
		return &os.PathError{Op: "truncate", Path: "faulty", Err: errIO}
	}

	return ff.File.Truncate(size)
}

var (
	errIO      = errors.New("injected i/o error")
	errNoSpace = errors.New("injected: no space left on device")
)

var _ io.ReadWriteCloser = (*faultyFile)(nil)
