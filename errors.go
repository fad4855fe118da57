package hugecontainer

import "errors"

// Error classification, mirroring the error-kind table: rebuild-class disk
// errors are surfaced to the caller through a return value, never by
// corrupting the index.
var (
	// ErrClosed is returned by any operation on a container after [Map.Close]
	// or [OrderedMap.Close] that needs the scratch file - an insert that
	// never spills, or a lookup of an already-resident key, can still
	// succeed against the in-memory index alone. Treat a closed container
	// as unusable regardless of which operations happen to still work.
	ErrClosed = errors.New("hugecontainer: closed")

	// ErrIO wraps a scratch-file read or write failure (the IoWrite/IoRead
	// kinds). Insert surfaces it by leaving the entry untouched and returning
	// a non-nil error; lookup surfaces it by returning the value codec's
	// default value and false.
	ErrIO = errors.New("hugecontainer: scratch file i/o failure")

	// ErrDecode wraps a value-decoder failure (the DecodeError kind). The
	// entry remains Swapped; the caller sees the value codec's default value.
	ErrDecode = errors.New("hugecontainer: value decode failure")

	// ErrOutOfRange is returned by SetCompressionLevel for a level outside
	// -1..9, and by SetMaxCache for values that cannot be clamped to >= 1
	// (never, in practice, since SetMaxCache clamps instead of failing -
	// kept for symmetry with the OutOfRange kind in the spec's error table).
	ErrOutOfRange = errors.New("hugecontainer: value out of range")
)

// logicError panics with a clear message. It exists because the state
// machine invariants in §8 are contract violations, not recoverable runtime
// conditions: calling code that triggers one has a bug, and Go has no
// separate "release" build where these silently misbehave instead of
// crashing loudly.
func logicError(msg string) {
	panic("hugecontainer: " + msg)
}
