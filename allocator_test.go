package hugecontainer

import "testing"

func TestFreeMap_AllocateGrowsTail(t *testing.T) {
	m := newFreeMap()

	o1 := m.allocate(10)
	if o1 != 0 {
		t.Fatalf("o1 = %d, want 0", o1)
	}

	if got, want := m.fileSize(), uint64(10); got != want {
		t.Fatalf("fileSize = %d, want %d", got, want)
	}

	o2 := m.allocate(20)
	if o2 != 10 {
		t.Fatalf("o2 = %d, want 10", o2)
	}

	if got, want := m.fileSize(), uint64(30); got != want {
		t.Fatalf("fileSize = %d, want %d", got, want)
	}
}

func TestFreeMap_ReleaseCoalescesAndTruncatesTail(t *testing.T) {
	m := newFreeMap()

	sizes := []uint64{10, 20, 30, 40, 50}
	offsets := make([]uint64, len(sizes))

	for i, s := range sizes {
		offsets[i] = m.allocate(s)
	}

	if got, want := m.fileSize(), uint64(150); got != want {
		t.Fatalf("fileSize = %d, want %d", got, want)
	}

	// Release k=1 (size 20, offset 10) and k=2 (size 30, offset 30): adjacent,
	// so the result should be a single free extent of size 50.
	m.release(offsets[1])
	m.release(offsets[2])

	if got, want := m.fragmentationBetween(10, 60), true; got != want {
		t.Fatalf("expected coalesced free extent covering [10,60)")
	}

	// Release the last entry (k=4, size 50): file should truncate.
	newSize := m.release(offsets[4])
	if got, want := newSize, uint64(100); got != want {
		t.Fatalf("release tail = %d, want %d", got, want)
	}

	if got, want := m.fileSize(), uint64(100); got != want {
		t.Fatalf("fileSize after tail release = %d, want %d", got, want)
	}
}

// fragmentationBetween is a test helper asserting [from,to) is exactly one
// coalesced free extent.
func (m *freeMap) fragmentationBetween(from, to uint64) bool {
	i := m.indexOf(from)
	if i < 0 || !m.extents[i].free {
		return false
	}

	if i+1 >= len(m.extents) {
		return false
	}

	return m.extents[i+1].offset == to
}

func TestFreeMap_ReleaseEmptiesToSentinel(t *testing.T) {
	m := newFreeMap()
	o := m.allocate(5)
	m.release(o)

	if got, want := len(m.extents), 1; got != want {
		t.Fatalf("len(extents) = %d, want %d", got, want)
	}

	if got, want := m.fileSize(), uint64(0); got != want {
		t.Fatalf("fileSize = %d, want %d", got, want)
	}
}
