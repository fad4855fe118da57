package hugecontainer

import "log/slog"

// core is the shared engine behind both [Map] and [OrderedMap] (§2's "one
// implementation distinguished by a single Boolean trait"). ordered/less
// carry that trait: less is nil for the unordered variant and a strict
// less-than for the ordered one, so the engine's K only ever needs to be
// comparable - [OrderedMap]'s public constructor supplies less from its
// stronger cmp.Ordered constraint, letting one engine serve both shapes
// without requiring every unordered key type to be orderable.
type core[K comparable, V any] struct {
	ordered bool
	less    func(a, b K) bool

	index map[K]*slot[V]
	keys  []K // ascending per less; maintained only when ordered

	freeMap *freeMap
	file    *scratchFile
	queue   *residentQueue[K]

	maxCache         uint32
	compressionLevel int8

	codec    blockCodec[V]
	keyCodec Codec[K]
	equal    func(a, b V) bool

	fs         scratchFS
	dir        string
	filePrefix string

	logger *slog.Logger
	closed bool
}

func newCore[K comparable, V any](ordered bool, less func(a, b K) bool, opts Options[K, V]) *core[K, V] {
	opts = opts.withDefaults()

	return &core[K, V]{
		ordered:          ordered,
		less:             less,
		index:            make(map[K]*slot[V]),
		freeMap:          newFreeMap(),
		file:             newScratchFile(opts.FS, opts.TempDir, opts.FilePrefix),
		queue:            newResidentQueue[K](),
		maxCache:         opts.MaxCache,
		compressionLevel: opts.CompressionLevel,
		codec:            newBlockCodec(opts.Value, opts.CompressionLevel),
		keyCodec:         opts.Key,
		equal:            opts.Equal,
		fs:               opts.FS,
		dir:              opts.TempDir,
		filePrefix:       opts.FilePrefix,
		logger:           opts.Logger,
	}
}

func (c *core[K, V]) contains(k K) bool {
	_, ok := c.index[k]
	return ok
}

func (c *core[K, V]) size() int {
	return len(c.index)
}

func (c *core[K, V]) isEmpty() bool {
	return len(c.index) == 0
}

// truncateSoft implements §7's IoTruncate policy: the free map is already
// canonical regardless of whether the on-disk truncate succeeds, so a
// failure here is logged and otherwise ignored.
func (c *core[K, V]) truncateSoft(size uint64) {
	if err := c.file.truncate(size); err != nil {
		c.logger.Debug("scratch file truncate failed", "size", size, "error", err)
	}
}

// admitResident reserves a resident-queue slot for an about-to-become-
// resident key by spilling the oldest entry first if the queue is already
// at capacity. Called before any state is mutated for the key being
// admitted, so a spill failure leaves the caller's pre-call state intact.
func (c *core[K, V]) admitResident() error {
	if c.queue.len() >= int(c.maxCache) {
		return c.spillOne()
	}

	return nil
}

// spillOne encodes and writes the oldest resident entry to the scratch
// file, transitioning its slot to Swapped. It is a no-op if nothing is
// resident. The queue entry is only removed after a successful write, so a
// write failure leaves the victim resident and at the head of the queue -
// satisfying §7's "eviction failures put the key back at the head" policy
// without any explicit rollback.
func (c *core[K, V]) spillOne() error {
	k, ok := c.queue.oldest()
	if !ok {
		return nil
	}

	s := c.index[k]

	block, err := c.codec.encode(s.value)
	if err != nil {
		return err
	}

	offset := c.freeMap.allocate(uint64(len(block)))
	if err := c.file.writeAt(offset, block); err != nil {
		c.freeMap.release(offset)
		return err
	}

	c.queue.evictOldest()

	var zero V

	s.state = slotSwapped
	s.value = zero
	s.offset = offset
	s.size = uint64(len(block))

	return nil
}

// insert implements §4.F's insert.
func (c *core[K, V]) insert(k K, v V) error {
	existing, existed := c.index[k]

	if existed && existing.state == slotResident {
		existing.value = v
		c.queue.promote(k)

		return nil
	}

	if err := c.admitResident(); err != nil {
		return err
	}

	if existed {
		newSize := c.freeMap.release(existing.offset)
		c.truncateSoft(newSize)

		existing.state = slotResident
		existing.value = v
		existing.offset = 0
		existing.size = 0
	} else {
		c.index[k] = newResidentSlot(v)

		if c.ordered {
			c.insertKeySorted(k)
		}
	}

	c.queue.insertNew(k)

	return nil
}

// insertRawBlock installs an already-encoded block directly as Swapped,
// bypassing the codec and the resident queue entirely. Used by unite's
// "avoid decode when possible" fast path (§4.F) when the source block's
// compression matches this container's.
func (c *core[K, V]) insertRawBlock(k K, block []byte) error {
	existing, existed := c.index[k]

	if existed {
		if existing.state == slotSwapped {
			newSize := c.freeMap.release(existing.offset)
			c.truncateSoft(newSize)
		} else {
			c.queue.remove(k)
		}
	} else if c.ordered {
		c.insertKeySorted(k)
	}

	offset := c.freeMap.allocate(uint64(len(block)))
	if err := c.file.writeAt(offset, block); err != nil {
		c.freeMap.release(offset)
		return err
	}

	c.index[k] = newSwappedSlot[V](offset, uint64(len(block)))

	return nil
}

// lookup implements §4.F's lookup, hydrating a Swapped slot and promoting
// the key either way.
func (c *core[K, V]) lookup(k K) (V, bool, error) {
	s, ok := c.index[k]
	if !ok {
		return c.codec.value.defaultValue(), false, nil
	}

	if s.state == slotResident {
		c.queue.promote(k)
		return s.value, true, nil
	}

	buf := make([]byte, s.size)
	if err := c.file.readAt(s.offset, buf); err != nil {
		return c.codec.value.defaultValue(), false, err
	}

	v, err := c.codec.decode(buf)
	if err != nil {
		return c.codec.value.defaultValue(), false, err
	}

	if err := c.admitResident(); err != nil {
		return c.codec.value.defaultValue(), false, err
	}

	newSize := c.freeMap.release(s.offset)
	c.truncateSoft(newSize)

	s.state = slotResident
	s.value = v
	s.offset = 0
	s.size = 0

	c.queue.insertNew(k)

	return v, true, nil
}

// lookupOrDefault implements §4.F's lookup-or-default: never mutates
// residency when the key is absent.
func (c *core[K, V]) lookupOrDefault(k K, def V) (V, error) {
	if !c.contains(k) {
		return def, nil
	}

	v, _, err := c.lookup(k)
	if err != nil {
		return def, err
	}

	return v, nil
}

// getOrInsertDefault implements §4.F's mutable subscript: detach is the
// caller's responsibility (done once at the façade level before this is
// called).
func (c *core[K, V]) getOrInsertDefault(k K) (*V, error) {
	if !c.contains(k) {
		if err := c.insert(k, c.codec.value.defaultValue()); err != nil {
			return nil, err
		}
	} else if _, _, err := c.lookup(k); err != nil {
		return nil, err
	}

	return &c.index[k].value, nil
}

// remove implements §4.F's remove.
func (c *core[K, V]) remove(k K) bool {
	s, ok := c.index[k]
	if !ok {
		return false
	}

	if s.state == slotResident {
		c.queue.remove(k)
	} else {
		newSize := c.freeMap.release(s.offset)
		c.truncateSoft(newSize)
	}

	delete(c.index, k)

	if c.ordered {
		c.removeKeySorted(k)
	}

	return true
}

// take implements §4.F's take: remove composed with lookup-by-value.
func (c *core[K, V]) take(k K) (V, bool, error) {
	v, ok, err := c.lookup(k)
	if err != nil {
		return c.codec.value.defaultValue(), false, err
	}

	if !ok {
		return c.codec.value.defaultValue(), false, nil
	}

	c.remove(k)

	return v, true, nil
}

// clear implements §4.F's clear.
func (c *core[K, V]) clear() {
	c.truncateSoft(0)
	c.freeMap.reset()
	c.index = make(map[K]*slot[V])
	c.keys = nil
	c.queue = newResidentQueue[K]()
}

// unite implements §4.F's unite.
func (c *core[K, V]) unite(other *core[K, V], overwrite bool) (bool, error) {
	if c.isEmpty() {
		dup, err := other.clone()
		if err != nil {
			return false, err
		}

		*c = *dup

		return true, nil
	}

	for _, k := range other.allKeys() {
		if c.contains(k) && !overwrite {
			continue
		}

		os, isOther := other.index[k]
		if isOther && os.state == slotSwapped && c.compressionLevel == other.compressionLevel {
			buf := make([]byte, os.size)
			if err := other.file.readAt(os.offset, buf); err != nil {
				return false, err
			}

			if err := c.insertRawBlock(k, buf); err != nil {
				return false, err
			}

			continue
		}

		v, _, err := other.lookup(k)
		if err != nil {
			return false, err
		}

		if err := c.insert(k, v); err != nil {
			return false, err
		}
	}

	return true, nil
}

// allKeys returns every key in this container's public iteration order.
func (c *core[K, V]) allKeys() []K {
	if c.ordered {
		out := make([]K, len(c.keys))
		copy(out, c.keys)

		return out
	}

	out := make([]K, 0, len(c.index))
	for k := range c.index {
		out = append(out, k)
	}

	return out
}

// setMaxCache implements §4.F's setMaxCache.
func (c *core[K, V]) setMaxCache(n uint32) error {
	if n < 1 {
		n = 1
	}

	c.maxCache = n

	for c.queue.len() > int(c.maxCache) {
		if err := c.spillOne(); err != nil {
			return err
		}
	}

	return nil
}

// setCompressionLevel implements §4.F's setCompressionLevel, rewriting
// every swapped block at the new level.
//
// Design note resolving one of the spec's open questions: the field is
// updated only after every swapped block has been rewritten successfully.
// A failure partway through leaves some blocks already rewritten at the
// new level while c.codec/c.compressionLevel still reflect the old one -
// an accepted limitation, since a fully atomic rewrite would need the same
// side-table rollback machinery as [defrag], which is reserved for the
// whole-file operation it already performs.
func (c *core[K, V]) setCompressionLevel(n int8) error {
	if n < MinCompressionLevel || n > MaxCompressionLevel {
		return ErrOutOfRange
	}

	next := newBlockCodec(c.codec.value, n)

	for _, s := range c.index {
		if s.state != slotSwapped {
			continue
		}

		buf := make([]byte, s.size)
		if err := c.file.readAt(s.offset, buf); err != nil {
			return err
		}

		v, err := c.codec.decode(buf)
		if err != nil {
			return err
		}

		block, err := next.encode(v)
		if err != nil {
			return err
		}

		newSize := c.freeMap.release(s.offset)
		c.truncateSoft(newSize)

		offset := c.freeMap.allocate(uint64(len(block)))
		if err := c.file.writeAt(offset, block); err != nil {
			return err
		}

		s.offset = offset
		s.size = uint64(len(block))
	}

	c.codec = next
	c.compressionLevel = n

	return nil
}

func (c *core[K, V]) fragmentation() float64 {
	return c.freeMap.fragmentation()
}

func (c *core[K, V]) fileSize() uint64 {
	return c.freeMap.fileSize()
}

// keyOf implements the supplemented reverse-lookup KeyOf (see
// SPEC_FULL.md). It decodes every swapped value it encounters, same as the
// original's linear scan.
func (c *core[K, V]) keyOf(v V, def K) (K, error) {
	for _, k := range c.allKeys() {
		cur, _, err := c.lookup(k)
		if err != nil {
			return def, err
		}

		if c.equal(cur, v) {
			return k, nil
		}
	}

	return def, nil
}

func (c *core[K, V]) close() error {
	if c.closed {
		return nil
	}

	c.closed = true

	return c.file.close()
}

// clone deep-copies the core for copy-on-write detach (§4.H). Slot values
// themselves are deep-copied here rather than individually shared and
// re-detached - see the [handle] doc for the trade-off this accepts.
func (c *core[K, V]) clone() (*core[K, V], error) {
	dup := &core[K, V]{
		ordered:          c.ordered,
		less:             c.less,
		index:            make(map[K]*slot[V], len(c.index)),
		freeMap:          c.freeMap.clone(),
		queue:            c.queue.clone(),
		maxCache:         c.maxCache,
		compressionLevel: c.compressionLevel,
		codec:            c.codec,
		keyCodec:         c.keyCodec,
		equal:            c.equal,
		fs:               c.fs,
		dir:              c.dir,
		filePrefix:       c.filePrefix,
		logger:           c.logger,
	}

	if c.ordered {
		dup.keys = make([]K, len(c.keys))
		copy(dup.keys, c.keys)
	}

	for k, s := range c.index {
		dup.index[k] = s.clone()
	}

	dup.file = newScratchFile(c.fs, c.dir, c.filePrefix)

	if c.file.file != nil {
		unlock, err := c.file.lockExclusive()
		if err != nil {
			return nil, err
		}

		defer unlock()

		size, err := c.file.size()
		if err != nil {
			return nil, err
		}

		if size > 0 {
			buf := make([]byte, size)
			if err := c.file.readAt(0, buf); err != nil {
				return nil, err
			}

			if err := dup.file.writeAt(0, buf); err != nil {
				return nil, err
			}
		} else if err := dup.file.ensureOpen(); err != nil {
			return nil, err
		}
	}

	return dup, nil
}

// insertKeySorted/removeKeySorted maintain c.keys in ascending order for
// the ordered variant, using binary search since insert/remove are the
// only mutators and lookups never change key membership.
func (c *core[K, V]) insertKeySorted(k K) {
	i := c.keyIndex(k)
	c.keys = append(c.keys, k)
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = k
}

func (c *core[K, V]) removeKeySorted(k K) {
	i := c.keyIndex(k)
	if i < len(c.keys) && c.keys[i] == k {
		c.keys = append(c.keys[:i], c.keys[i+1:]...)
	}
}

func (c *core[K, V]) keyIndex(k K) int {
	lo, hi := 0, len(c.keys)

	for lo < hi {
		mid := (lo + hi) / 2

		if c.less(c.keys[mid], k) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}
