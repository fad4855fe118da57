package hugecontainer

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// Test_Container_Matches_Model_Property replays random operation sequences
// against both the real core and a plain Go map oracle, comparing observable
// state after every step. Deterministic per-seed subtests, in the style of
// the teacher's state-model property tests.
func Test_Container_Matches_Model_Property(t *testing.T) {
	seedCount := 20
	opsPerSeed := 150

	for i := 0; i < seedCount; i++ {
		seed := int64(i + 1)

		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(seed))

			c := newCore[int, string](false, nil, Options[int, string]{
				MaxCache: 3,
				Value:    stringCodec(),
				TempDir:  t.TempDir(),
			})

			model := make(map[int]string)

			for step := 0; step < opsPerSeed; step++ {
				key := rnd.Intn(8)

				switch rnd.Intn(4) {
				case 0: // insert
					val := fmt.Sprintf("v%d-%d", key, step)
					require.NoError(t, c.insert(key, val))
					model[key] = val

				case 1: // lookup
					v, ok, err := c.lookup(key)
					require.NoError(t, err)

					want, wantOk := model[key]
					require.Equal(t, wantOk, ok, "lookup(%d) at step %d", key, step)

					if wantOk {
						require.Equal(t, want, v, "lookup(%d) at step %d", key, step)
					}

				case 2: // remove
					removed := c.remove(key)
					_, wantOk := model[key]
					require.Equal(t, wantOk, removed, "remove(%d) at step %d", key, step)
					delete(model, key)

				case 3: // contains
					require.Equal(t, containsKey(model, key), c.contains(key))
				}

				require.Equal(t, len(model), c.size(), "size mismatch at step %d", step)
			}

			// Final full-state comparison.
			got := c.toMap()
			if diff := cmp.Diff(model, got); diff != "" {
				t.Fatalf("final state mismatch (-model +real):\n%s", diff)
			}
		})
	}
}

func containsKey(m map[int]string, k int) bool {
	_, ok := m[k]
	return ok
}
