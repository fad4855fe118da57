package hugecontainer

import (
	"io"
	"iter"
)

// Map is the unordered shape of the container: amortized O(1) lookup,
// unspecified iteration order (§3). See the package doc for copy-on-write
// and concurrency semantics shared with [OrderedMap].
type Map[K comparable, V any] struct {
	h *handle[K, V]
}

// NewMap creates an empty [Map]. The scratch file is not created until the
// first value is swapped out.
func NewMap[K comparable, V any](opts Options[K, V]) (*Map[K, V], error) {
	return &Map[K, V]{h: newHandle(newCore[K, V](false, nil, opts))}, nil
}

// NewMapFrom creates a [Map] pre-populated from a plain Go map (the
// supplemented constructor from the original's QHash/std::map overloads).
func NewMapFrom[K comparable, V any](src map[K]V, opts Options[K, V]) (*Map[K, V], error) {
	m, err := NewMap[K, V](opts)
	if err != nil {
		return nil, err
	}

	for k, v := range src {
		if err := m.Set(k, v); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Set implements §4.F's insert.
func (m *Map[K, V]) Set(k K, v V) error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.insert(k, v)
}

// Get implements §4.F's lookup. A swapped-value I/O or decode failure is
// reported as a miss (the value codec's default value, false), per §7's
// error policy.
func (m *Map[K, V]) Get(k K) (V, bool) {
	v, ok, err := m.h.core.lookup(k)
	if err != nil {
		return m.h.core.codec.value.defaultValue(), false
	}

	return v, ok
}

// GetOrDefault implements §4.F's lookup-or-default.
func (m *Map[K, V]) GetOrDefault(k K, def V) V {
	v, err := m.h.core.lookupOrDefault(k, def)
	if err != nil {
		return def
	}

	return v
}

// GetOrInsert implements §4.F's mutable subscript. The returned pointer is
// valid until the next mutation or until k's slot is swapped out again.
func (m *Map[K, V]) GetOrInsert(k K) (*V, error) {
	if err := m.h.detach(); err != nil {
		return nil, err
	}

	return m.h.core.getOrInsertDefault(k)
}

// Delete implements §4.F's remove.
func (m *Map[K, V]) Delete(k K) (bool, error) {
	if err := m.h.detach(); err != nil {
		return false, err
	}

	return m.h.core.remove(k), nil
}

// Take implements §4.F's take.
func (m *Map[K, V]) Take(k K) (V, bool, error) {
	if err := m.h.detach(); err != nil {
		return m.h.core.codec.value.defaultValue(), false, err
	}

	return m.h.core.take(k)
}

// Clear implements §4.F's clear.
func (m *Map[K, V]) Clear() error {
	if err := m.h.detach(); err != nil {
		return err
	}

	m.h.core.clear()

	return nil
}

// Contains reports whether k is present.
func (m *Map[K, V]) Contains(k K) bool {
	return m.h.core.contains(k)
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return m.h.core.size()
}

// IsEmpty reports whether the container has no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.h.core.isEmpty()
}

// Unite implements §4.F's unite, merging other's entries into m.
func (m *Map[K, V]) Unite(other *Map[K, V], overwrite bool) (bool, error) {
	if err := m.h.detach(); err != nil {
		return false, err
	}

	return m.h.core.unite(other.h.core, overwrite)
}

// SetMaxCache implements §4.F's setMaxCache.
func (m *Map[K, V]) SetMaxCache(n uint32) error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.setMaxCache(n)
}

// SetCompressionLevel implements §4.F's setCompressionLevel.
func (m *Map[K, V]) SetCompressionLevel(n int8) error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.setCompressionLevel(n)
}

// Defrag implements §4.J.
func (m *Map[K, V]) Defrag() error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.defrag()
}

// Fragmentation implements §4.F's fragmentation metric.
func (m *Map[K, V]) Fragmentation() float64 {
	return m.h.core.fragmentation()
}

// FileSize returns the current scratch file length.
func (m *Map[K, V]) FileSize() uint64 {
	return m.h.core.fileSize()
}

// KeyOf is the supplemented reverse lookup: the first key whose value
// compares equal to v, or def if none matches.
func (m *Map[K, V]) KeyOf(v V, def K) (K, error) {
	return m.h.core.keyOf(v, def)
}

// Clone returns a new handle sharing m's state; it detaches lazily on the
// first mutation made through either handle.
func (m *Map[K, V]) Clone() *Map[K, V] {
	return &Map[K, V]{h: m.h.clone()}
}

// Swap exchanges m's and other's entire backing state in O(1) (the
// supplemented swap operation).
func (m *Map[K, V]) Swap(other *Map[K, V]) {
	m.h, other.h = other.h, m.h
}

// Equal implements §8's structural equality law.
func (m *Map[K, V]) Equal(other *Map[K, V]) bool {
	return m.h.core.equalTo(other.h.core)
}

// Close releases this handle's reference to the underlying core. The
// scratch file is only actually closed and removed once every clone
// sharing it (via [Map.Clone]) has also been closed; a still-live sibling
// clone is left fully usable. A closed [Map] handle must not be used again.
func (m *Map[K, V]) Close() error {
	return m.h.close()
}

// All ranges over every entry in unspecified order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return m.h.core.all()
}

// Keys ranges over every key in unspecified order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return m.h.core.keysSeq()
}

// Values ranges over every value in unspecified order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return m.h.core.valuesSeq()
}

// ToMap materializes every entry into a plain Go map.
func (m *Map[K, V]) ToMap() map[K]V {
	return m.h.core.toMap()
}

// WriteTo implements io.WriterTo, emitting the stable external
// serialization format (§4.I/§6).
func (m *Map[K, V]) WriteTo(w io.Writer) (int64, error) {
	return m.h.core.writeTo(w)
}

// ReadFrom implements io.ReaderFrom, the reverse of WriteTo. Pre-existing
// keys in m are overwritten.
func (m *Map[K, V]) ReadFrom(r io.Reader) (int64, error) {
	if err := m.h.detach(); err != nil {
		return 0, err
	}

	return m.h.core.readFrom(r)
}

// Export atomically writes the external serialization format to path.
func (m *Map[K, V]) Export(path string) error {
	return m.h.core.exportPath(path)
}

// Import reads the external serialization format from path, merging it
// into m (pre-existing keys are overwritten).
func (m *Map[K, V]) Import(path string) error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.importPath(path)
}
