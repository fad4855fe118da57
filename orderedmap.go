package hugecontainer

import (
	"cmp"
	"io"
	"iter"
)

// Pair is a key/value pair, used by [NewOrderedMapFrom] (the supplemented
// slice/initializer-list constructor from the original).
type Pair[K, V any] struct {
	Key   K
	Value V
}

// OrderedMap is the ordered shape of the container: iteration visits keys
// in ascending order (§3). See the package doc for copy-on-write and
// concurrency semantics shared with [Map].
type OrderedMap[K cmp.Ordered, V any] struct {
	h *handle[K, V]
}

// NewOrderedMap creates an empty [OrderedMap].
func NewOrderedMap[K cmp.Ordered, V any](opts Options[K, V]) (*OrderedMap[K, V], error) {
	less := func(a, b K) bool { return a < b }
	return &OrderedMap[K, V]{h: newHandle(newCore[K, V](true, less, opts))}, nil
}

// NewOrderedMapFrom creates an [OrderedMap] pre-populated from pairs, in
// the order given (the supplemented initializer-list constructor).
func NewOrderedMapFrom[K cmp.Ordered, V any](src []Pair[K, V], opts Options[K, V]) (*OrderedMap[K, V], error) {
	m, err := NewOrderedMap[K, V](opts)
	if err != nil {
		return nil, err
	}

	for _, p := range src {
		if err := m.Set(p.Key, p.Value); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *OrderedMap[K, V]) Set(k K, v V) error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.insert(k, v)
}

func (m *OrderedMap[K, V]) Get(k K) (V, bool) {
	v, ok, err := m.h.core.lookup(k)
	if err != nil {
		return m.h.core.codec.value.defaultValue(), false
	}

	return v, ok
}

func (m *OrderedMap[K, V]) GetOrDefault(k K, def V) V {
	v, err := m.h.core.lookupOrDefault(k, def)
	if err != nil {
		return def
	}

	return v
}

func (m *OrderedMap[K, V]) GetOrInsert(k K) (*V, error) {
	if err := m.h.detach(); err != nil {
		return nil, err
	}

	return m.h.core.getOrInsertDefault(k)
}

func (m *OrderedMap[K, V]) Delete(k K) (bool, error) {
	if err := m.h.detach(); err != nil {
		return false, err
	}

	return m.h.core.remove(k), nil
}

func (m *OrderedMap[K, V]) Take(k K) (V, bool, error) {
	if err := m.h.detach(); err != nil {
		return m.h.core.codec.value.defaultValue(), false, err
	}

	return m.h.core.take(k)
}

func (m *OrderedMap[K, V]) Clear() error {
	if err := m.h.detach(); err != nil {
		return err
	}

	m.h.core.clear()

	return nil
}

func (m *OrderedMap[K, V]) Contains(k K) bool {
	return m.h.core.contains(k)
}

func (m *OrderedMap[K, V]) Len() int {
	return m.h.core.size()
}

func (m *OrderedMap[K, V]) IsEmpty() bool {
	return m.h.core.isEmpty()
}

func (m *OrderedMap[K, V]) Unite(other *OrderedMap[K, V], overwrite bool) (bool, error) {
	if err := m.h.detach(); err != nil {
		return false, err
	}

	return m.h.core.unite(other.h.core, overwrite)
}

func (m *OrderedMap[K, V]) SetMaxCache(n uint32) error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.setMaxCache(n)
}

func (m *OrderedMap[K, V]) SetCompressionLevel(n int8) error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.setCompressionLevel(n)
}

func (m *OrderedMap[K, V]) Defrag() error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.defrag()
}

func (m *OrderedMap[K, V]) Fragmentation() float64 {
	return m.h.core.fragmentation()
}

func (m *OrderedMap[K, V]) FileSize() uint64 {
	return m.h.core.fileSize()
}

func (m *OrderedMap[K, V]) KeyOf(v V, def K) (K, error) {
	return m.h.core.keyOf(v, def)
}

func (m *OrderedMap[K, V]) Clone() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{h: m.h.clone()}
}

func (m *OrderedMap[K, V]) Swap(other *OrderedMap[K, V]) {
	m.h, other.h = other.h, m.h
}

func (m *OrderedMap[K, V]) Equal(other *OrderedMap[K, V]) bool {
	return m.h.core.equalTo(other.h.core)
}

func (m *OrderedMap[K, V]) Close() error {
	return m.h.close()
}

// FirstKey/LastKey return the smallest/largest key currently in the container.
func (m *OrderedMap[K, V]) FirstKey() (K, bool) {
	return m.h.core.firstKey()
}

func (m *OrderedMap[K, V]) LastKey() (K, bool) {
	return m.h.core.lastKey()
}

// First returns the value for the smallest key.
func (m *OrderedMap[K, V]) First() (K, V, bool) {
	k, ok := m.h.core.firstKey()
	if !ok {
		var zero V
		return k, zero, false
	}

	v, _, err := m.h.core.lookup(k)
	if err != nil {
		var zero V
		return k, zero, false
	}

	return k, v, true
}

// Last returns the value for the largest key.
func (m *OrderedMap[K, V]) Last() (K, V, bool) {
	k, ok := m.h.core.lastKey()
	if !ok {
		var zero V
		return k, zero, false
	}

	v, _, err := m.h.core.lookup(k)
	if err != nil {
		var zero V
		return k, zero, false
	}

	return k, v, true
}

// All ranges over entries in ascending key order.
func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return m.h.core.all()
}

// Backward ranges over entries in descending key order.
func (m *OrderedMap[K, V]) Backward() iter.Seq2[K, V] {
	return m.h.core.backward()
}

func (m *OrderedMap[K, V]) Keys() iter.Seq[K] {
	return m.h.core.keysSeq()
}

func (m *OrderedMap[K, V]) Values() iter.Seq[V] {
	return m.h.core.valuesSeq()
}

func (m *OrderedMap[K, V]) ToMap() map[K]V {
	return m.h.core.toMap()
}

func (m *OrderedMap[K, V]) WriteTo(w io.Writer) (int64, error) {
	return m.h.core.writeTo(w)
}

func (m *OrderedMap[K, V]) ReadFrom(r io.Reader) (int64, error) {
	if err := m.h.detach(); err != nil {
		return 0, err
	}

	return m.h.core.readFrom(r)
}

func (m *OrderedMap[K, V]) Export(path string) error {
	return m.h.core.exportPath(path)
}

func (m *OrderedMap[K, V]) Import(path string) error {
	if err := m.h.detach(); err != nil {
		return err
	}

	return m.h.core.importPath(path)
}
