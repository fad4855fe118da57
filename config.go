package hugecontainer

import (
	"io"
	"log/slog"
	"os"
	"reflect"
)

// Codec supplies the byte-level encode/decode callbacks for a value type.
// The container never inspects the encoded bytes; it only stores and
// retrieves them (optionally compressed - see [Options.CompressionLevel]).
type Codec[T any] struct {
	// Encode serializes a value to bytes. Called on spill (eviction) and on
	// Unite/Defrag re-encoding.
	Encode func(T) ([]byte, error)

	// Decode deserializes bytes produced by Encode. Called on hydration
	// (lookup of a swapped value).
	Decode func([]byte) (T, error)

	// Default is returned by lookups that miss and by Map's bare-index
	// access for an absent key. The zero value of T is used if nil.
	Default func() T
}

func (c Codec[T]) defaultValue() T {
	if c.Default != nil {
		return c.Default()
	}

	var zero T

	return zero
}

// FilePrefix is the conventional scratch-file naming prefix used by
// [Cleanup] to find orphaned files from a prior crash.
const FilePrefix = "HugeContainerData"

const (
	// MinCompressionLevel/MaxCompressionLevel bound [Options.CompressionLevel].
	// -1 selects the codec's default level; 0 disables compression.
	MinCompressionLevel = -1
	MaxCompressionLevel = 9
)

// Options configures a [Map] or [OrderedMap] at construction time.
type Options[K comparable, V any] struct {
	// Key encodes/decodes keys for [Map.WriteTo]/[Map.ReadFrom] external
	// serialization. Not needed for in-memory operation. May be left zero
	// if the container is never serialized.
	Key Codec[K]

	// Value encodes/decodes values for on-disk swap storage and for
	// external serialization. Required.
	Value Codec[V]

	// MaxCache bounds the number of decoded values held resident at once.
	// Clamped to >= 1. Default: 1.
	MaxCache uint32

	// CompressionLevel is applied to every swapped block. -1 (default),
	// 0 (off), or 1..9 (fast..best). Default: 0 (off).
	CompressionLevel int8

	// TempDir is the directory the scratch file is created in. Default:
	// [os.TempDir].
	TempDir string

	// FilePrefix is the scratch file's naming prefix, used by [Cleanup] to
	// find orphaned files. Default: [FilePrefix].
	FilePrefix string

	// FS is the filesystem the scratch file is created on. Default: a real
	// OS filesystem. internal/hcfs.Faulty can be injected here to drive
	// I/O failures.
	FS scratchFS

	// Logger receives Debug-level records for soft failures that the
	// container tolerates (for example a failed tail truncation - the
	// container stays fully functional; see [ErrIO]'s doc). Nil discards
	// them.
	Logger *slog.Logger

	// Equal compares two decoded values for [Map.KeyOf]/[OrderedMap.KeyOf]
	// (reverse lookup) and for structural container equality. Default:
	// [reflect.DeepEqual].
	Equal func(a, b V) bool
}

func (o Options[K, V]) withDefaults() Options[K, V] {
	if o.MaxCache == 0 {
		o.MaxCache = 1
	}

	if o.TempDir == "" {
		o.TempDir = os.TempDir()
	}

	if o.FilePrefix == "" {
		o.FilePrefix = FilePrefix
	}

	if o.FS == nil {
		o.FS = defaultFS()
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if o.Equal == nil {
		o.Equal = func(a, b V) bool {
			return reflect.DeepEqual(a, b)
		}
	}

	return o
}
