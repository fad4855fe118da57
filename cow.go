package hugecontainer

// handle is the copy-on-write wrapper described in §4.H: a shared pointer
// to a core plus a reference count shared by every handle that still
// aliases that core. Assignment of a [Map]/[OrderedMap] value in Go copies
// the *handle pointer (cheap, aliased); [Map.Clone]/[OrderedMap.Clone]
// bumps the refcount and returns a second *handle aliasing the same core.
//
// detach() is called at the top of every mutating operation. If more than
// one handle aliases the core, it deep-copies the core (including
// duplicating the scratch file byte-for-byte) and gives this handle a
// private core and a fresh refcount of 1. Per §4.H, slot values themselves
// are deep-copied during this clone rather than individually shared and
// re-detached - the core as a whole is the unit of sharing here, which
// satisfies every invariant in §8 (in particular scenario 5, COW
// independence) at the cost of being less lazy than a fully nested
// per-slot COW when only one slot changes after a clone. This trade-off is
// recorded as an explicit simplification in the design notes.
//
// close() follows the same refcount: it tears down the shared core (and
// its scratch file) only when the last handle referencing it closes, so a
// still-live clone is never left holding a closed core out from under it.
type handle[K comparable, V any] struct {
	rc     *int
	core   *core[K, V]
	closed bool
}

func newHandle[K comparable, V any](c *core[K, V]) *handle[K, V] {
	one := 1
	return &handle[K, V]{rc: &one, core: c}
}

// clone returns a new handle sharing this one's core, incrementing the
// shared refcount.
func (h *handle[K, V]) clone() *handle[K, V] {
	*h.rc++
	return &handle[K, V]{rc: h.rc, core: h.core}
}

// detach ensures h.core is privately owned, duplicating it first if any
// other handle still aliases it.
func (h *handle[K, V]) detach() error {
	if *h.rc <= 1 {
		return nil
	}

	dup, err := h.core.clone()
	if err != nil {
		return err
	}

	*h.rc--

	one := 1
	h.rc = &one
	h.core = dup

	return nil
}

// close decrements the shared refcount and closes the underlying core only
// when this handle held the last reference, mirroring the original's
// QSharedDataPointer: the wrapped QTemporaryFile is destroyed when the
// refcount reaches zero, not when any one copy goes out of scope. A handle
// that still has a live sibling (an undetached [Map.Clone]/
// [OrderedMap.Clone]) must leave the shared core - and its open scratch
// file - untouched for that sibling to keep using.
//
// Idempotent: a second close() on the same handle is a no-op, so the
// refcount is never decremented twice for one Close() call.
func (h *handle[K, V]) close() error {
	if h.closed {
		return nil
	}

	h.closed = true
	*h.rc--

	if *h.rc > 0 {
		return nil
	}

	return h.core.close()
}
