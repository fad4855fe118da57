package hugecontainer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func rawBytesCodec() Codec[[]byte] {
	return Codec[[]byte]{
		Encode: func(v []byte) ([]byte, error) { return v, nil },
		Decode: func(b []byte) ([]byte, error) { return b, nil },
	}
}

func newTestCore(t *testing.T, maxCache uint32) *core[int, []byte] {
	t.Helper()

	return newCore[int, []byte](false, nil, Options[int, []byte]{
		MaxCache: maxCache,
		Value:    rawBytesCodec(),
		TempDir:  t.TempDir(),
	})
}

// Scenario 1 (§8): FIFO spill.
func TestContainer_FIFOSpill(t *testing.T) {
	c := newTestCore(t, 1)

	values := map[int]string{0: "zero", 1: "one", 2: "two", 3: "three"}

	var expectedSize uint64

	for i := 0; i <= 3; i++ {
		require.NoError(t, c.insert(i, []byte(values[i])))

		if i > 0 {
			prev := c.index[i-1]
			require.Equal(t, slotSwapped, prev.state, "key %d must be swapped after inserting key %d", i-1, i)
			expectedSize += prev.size
		}

		cur := c.index[i]
		require.Equal(t, slotResident, cur.state, "key %d must be resident right after its own insert", i)
		require.EqualValues(t, expectedSize, c.fileSize())
	}

	require.Equal(t, 1, c.queue.len())
}

// Scenario 2 (§8): lookup hydration.
func TestContainer_LookupHydration(t *testing.T) {
	c := newTestCore(t, 1)

	for i, v := range []string{"zero", "one", "two", "three"} {
		require.NoError(t, c.insert(i, []byte(v)))
	}

	v, ok, err := c.lookup(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "zero", string(v))

	require.Equal(t, slotResident, c.index[0].state)
	require.Equal(t, slotSwapped, c.index[3].state)

	oldest, ok := c.queue.oldest()
	require.True(t, ok)
	require.Equal(t, 0, oldest)
	require.Equal(t, 1, c.queue.len())
}

// Scenario 3 (§8): coalesced free.
func TestContainer_CoalescedFree(t *testing.T) {
	c := newTestCore(t, 1)

	sizes := []int{10, 20, 30, 40, 50}
	for k, sz := range sizes {
		require.NoError(t, c.insert(k, make([]byte, sz)))
	}

	// Hydrating k=0 spills whatever is currently resident (k=4) first.
	_, ok, err := c.lookup(0)
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, c.remove(1))
	require.True(t, c.remove(2))

	// Keys 1 (offset 10, size 20) and 2 (offset 30, size 30) released a
	// contiguous [10,60) range; hydrating k=0 earlier also released its own
	// [0,10) block, immediately to its left. Free extents are always
	// coalesced, so these merge into the single free extent [0,60).
	i := c.freeMap.indexOf(0)
	require.GreaterOrEqual(t, i, 0)
	require.True(t, c.freeMap.extents[i].free)
	require.Less(t, i+1, len(c.freeMap.extents))
	require.Equal(t, uint64(60), c.freeMap.extents[i+1].offset)
}

// Scenario 4 (§8): trailing truncate.
func TestContainer_TrailingTruncate(t *testing.T) {
	c := newTestCore(t, 1)

	sizes := []int{10, 20, 30, 40, 50}
	for k, sz := range sizes {
		require.NoError(t, c.insert(k, make([]byte, sz)))
	}

	// Hydrating k=0 spills k=4 (size 50) to the tail of the file.
	_, ok, err := c.lookup(0)
	require.NoError(t, err)
	require.True(t, ok)

	before := c.fileSize()

	require.True(t, c.remove(4))
	require.EqualValues(t, before-50, c.fileSize())
}

// Scenario 6 (§8): defrag round-trip.
func TestContainer_DefragRoundTrip(t *testing.T) {
	c := newTestCore(t, 1)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.insert(i, []byte(valueName(i))))
	}

	for _, k := range []int{1, 3, 5, 7} {
		require.True(t, c.remove(k))
	}

	require.Greater(t, c.fragmentation(), 0.0)

	require.NoError(t, c.defrag())
	require.Equal(t, 0.0, c.fragmentation())

	for _, k := range []int{0, 2, 4, 6, 8, 9} {
		v, ok, err := c.lookup(k)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, valueName(k), string(v))
	}
}

func valueName(i int) string {
	names := []string{"v_0", "v_1", "v_2", "v_3", "v_4", "v_5", "v_6", "v_7", "v_8", "v_9"}
	return names[i]
}

func TestContainer_InsertThenRemove_RestoresEmptyState(t *testing.T) {
	c := newTestCore(t, 4)

	require.NoError(t, c.insert(1, []byte("a")))
	require.True(t, c.remove(1))

	require.True(t, c.isEmpty())
	require.EqualValues(t, 0, c.fileSize())
}

func TestContainer_RemoveThenContains_ReturnsFalse(t *testing.T) {
	c := newTestCore(t, 4)
	require.NoError(t, c.insert(1, []byte("a")))

	require.True(t, c.remove(1))
	require.False(t, c.contains(1))
}

func TestContainer_InsertThenLookup_ReturnsSameValue(t *testing.T) {
	c := newTestCore(t, 4)
	require.NoError(t, c.insert(1, []byte("a")))

	v, ok, err := c.lookup(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", string(v))
}

func TestContainer_SetMaxCache_SpillsExcess(t *testing.T) {
	c := newTestCore(t, 4)

	for i := 0; i < 4; i++ {
		require.NoError(t, c.insert(i, []byte("v")))
	}

	require.Equal(t, 4, c.queue.len())

	require.NoError(t, c.setMaxCache(1))
	require.Equal(t, 1, c.queue.len())
}

func TestContainer_SetCompressionLevel_RewritesSwappedBlocks(t *testing.T) {
	c := newTestCore(t, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.insert(i, []byte("payload payload payload")))
	}

	require.NoError(t, c.setCompressionLevel(9))
	require.EqualValues(t, 9, c.compressionLevel)

	for i := 0; i < 2; i++ {
		v, ok, err := c.lookup(i)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "payload payload payload", string(v))
	}
}

func TestContainer_Unite_SkipsExistingWhenNotOverwrite(t *testing.T) {
	a := newTestCore(t, 4)
	b := newTestCore(t, 4)

	require.NoError(t, a.insert(1, []byte("a1")))
	require.NoError(t, b.insert(1, []byte("b1")))
	require.NoError(t, b.insert(2, []byte("b2")))

	ok, err := a.unite(b, false)
	require.NoError(t, err)
	require.True(t, ok)

	v, found, err := a.lookup(1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a1", string(v))

	v, found, err = a.lookup(2)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "b2", string(v))
}

func TestContainer_Unite_OverwritesWhenRequested(t *testing.T) {
	a := newTestCore(t, 4)
	b := newTestCore(t, 4)

	require.NoError(t, a.insert(1, []byte("a1")))
	require.NoError(t, b.insert(1, []byte("b1")))

	ok, err := a.unite(b, true)
	require.NoError(t, err)
	require.True(t, ok)

	v, found, err := a.lookup(1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "b1", string(v))
}
