package hugecontainer

import "sort"

// freeExtent is one entry of the canonical free map: the half-open range
// starting at offset up to (exclusive) the next entry's offset is free iff
// free is true. See §3's "Free-space map" invariants.
type freeExtent struct {
	offset uint64
	free   bool
}

// freeMap tracks used/free extents over a growing scratch file, grounded on
// cznic-exp/lldb's falloc.go first-fit allocator shape, adapted from an
// on-disk free list to an in-memory ordered slice (the container is
// single-threaded and the whole map is small relative to the data it
// describes, so a sorted slice with binary search is the idiomatic choice
// here rather than a persisted structure).
//
// Invariants (see §3): entries are sorted by ascending offset; no two
// adjacent entries are both free (free extents are always coalesced, while
// every used block keeps its own entry so release can find it by offset);
// the last entry's offset equals the current file size.
type freeMap struct {
	extents []freeExtent
}

// newFreeMap returns the sentinel map for a logically empty file.
func newFreeMap() *freeMap {
	return &freeMap{extents: []freeExtent{{offset: 0, free: true}}}
}

// fileSize is the offset of the trailing entry.
func (m *freeMap) fileSize() uint64 {
	return m.extents[len(m.extents)-1].offset
}

func (m *freeMap) reset() {
	m.extents = []freeExtent{{offset: 0, free: true}}
}

// allocate reserves size bytes and returns the offset they start at,
// scanning first-fit in ascending offset order. It never reorders entries
// and never splits a free extent smaller than the request.
func (m *freeMap) allocate(size uint64) uint64 {
	for i := 0; i < len(m.extents); i++ {
		if !m.extents[i].free {
			continue
		}

		var next uint64

		hasNext := i+1 < len(m.extents)
		if hasNext {
			next = m.extents[i+1].offset
		}

		avail := next - m.extents[i].offset
		if hasNext && avail < size {
			continue
		}

		offset := m.extents[i].offset
		m.extents[i].free = false

		// Exact fit needs no split; otherwise push a new free boundary after
		// the consumed bytes (this also covers tail growth, since a tail
		// extent's "next" is conceptually +inf and always needs the split).
		if !hasNext || avail > size {
			m.insertAfter(i, freeExtent{offset: offset + size, free: true})
		}

		return offset
	}

	logicError("allocate: no free extent found (free map is not in canonical form)")

	return 0
}

func (m *freeMap) insertAfter(i int, e freeExtent) {
	m.extents = append(m.extents, freeExtent{})
	copy(m.extents[i+2:], m.extents[i+1:])
	m.extents[i+1] = e
}

// release marks the used extent starting at offset as free, coalescing with
// free neighbors and shrinking the map's file size if the tail becomes free.
//
// Returns the new file size so the caller can truncate the scratch file;
// the allocator itself never touches the file.
func (m *freeMap) release(offset uint64) uint64 {
	i := m.indexOf(offset)
	if i < 0 || m.extents[i].free {
		logicError("release: offset is not a used extent")
	}

	m.extents[i].free = true

	// Coalesce with predecessor: drop the boundary entry at i, keeping the
	// predecessor's offset as the start of the merged free extent.
	if i > 0 && m.extents[i-1].free {
		m.extents = append(m.extents[:i], m.extents[i+1:]...)
		i--
	}

	// Coalesce with successor: drop the boundary entry at i+1.
	if i+1 < len(m.extents) && m.extents[i+1].free {
		m.extents = append(m.extents[:i+1], m.extents[i+2:]...)
	}

	// The merged free extent now reaches the trailing sentinel: truncate
	// the file back to where it starts (this is a no-op truncation to the
	// same size when i was already the sentinel before release).
	if i == len(m.extents)-1 {
		truncated := m.extents[i].offset
		m.extents = m.extents[:i+1]

		return truncated
	}

	return m.fileSize()
}

// indexOf returns the index of the extent starting exactly at offset, or -1.
func (m *freeMap) indexOf(offset uint64) int {
	i := sort.Search(len(m.extents), func(i int) bool {
		return m.extents[i].offset >= offset
	})

	if i < len(m.extents) && m.extents[i].offset == offset {
		return i
	}

	return -1
}

// fragmentation implements §4.F's formula: sum of free extent lengths
// (excluding the trailing one) divided by the offset of the last entry.
func (m *freeMap) fragmentation() float64 {
	if len(m.extents) <= 1 {
		return 0
	}

	var free uint64

	for i := 0; i < len(m.extents)-1; i++ {
		if !m.extents[i].free {
			continue
		}

		free += m.extents[i+1].offset - m.extents[i].offset
	}

	return float64(free) / float64(m.fileSize())
}

// clone deep-copies the free map for copy-on-write detach.
func (m *freeMap) clone() *freeMap {
	out := &freeMap{extents: make([]freeExtent, len(m.extents))}
	copy(out.extents, m.extents)

	return out
}
