package hugecontainer

import "iter"

// all implements §4.G's forward iteration. Values are produced through
// lookup, so ranging over a container can itself cause hydrations and
// spills - exactly as the spec calls out ("iteration may cause swaps and
// cache churn").
//
// Go's range-over-func (iter.Seq2) is the idiomatic modern replacement for
// the spec's cursor-style begin/end iterators: the yield function IS the
// cursor, and early-return from a for/range loop IS erase-free early
// termination.
func (c *core[K, V]) all() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range c.allKeys() {
			v, ok, err := c.lookup(k)
			if err != nil || !ok {
				continue
			}

			if !yield(k, v) {
				return
			}
		}
	}
}

// backward implements the ordered variant's reverse iteration.
func (c *core[K, V]) backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		keys := c.allKeys()

		for i := len(keys) - 1; i >= 0; i-- {
			k := keys[i]

			v, ok, err := c.lookup(k)
			if err != nil || !ok {
				continue
			}

			if !yield(k, v) {
				return
			}
		}
	}
}

func (c *core[K, V]) keysSeq() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, k := range c.allKeys() {
			if !yield(k) {
				return
			}
		}
	}
}

func (c *core[K, V]) valuesSeq() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, k := range c.allKeys() {
			v, ok, err := c.lookup(k)
			if err != nil || !ok {
				continue
			}

			if !yield(v) {
				return
			}
		}
	}
}

// firstKey/lastKey implement §4.G's first/last for the ordered variant
// (the unordered variant has no defined first/last, since its iteration
// order is unspecified - callers needing "any entry" should range with
// all() and break after one).
func (c *core[K, V]) firstKey() (K, bool) {
	if len(c.keys) == 0 {
		var zero K
		return zero, false
	}

	return c.keys[0], true
}

func (c *core[K, V]) lastKey() (K, bool) {
	if len(c.keys) == 0 {
		var zero K
		return zero, false
	}

	return c.keys[len(c.keys)-1], true
}

// toMap materializes every entry into a plain Go map, hydrating as needed.
func (c *core[K, V]) toMap() map[K]V {
	out := make(map[K]V, len(c.index))

	for _, k := range c.allKeys() {
		v, ok, err := c.lookup(k)
		if err != nil || !ok {
			continue
		}

		out[k] = v
	}

	return out
}

// equalTo implements §8's structural equality law: same size, same key
// set, and every decoded value compares equal via c.equal.
func (c *core[K, V]) equalTo(other *core[K, V]) bool {
	if c.size() != other.size() {
		return false
	}

	for _, k := range c.allKeys() {
		a, ok, err := c.lookup(k)
		if err != nil || !ok {
			return false
		}

		b, ok, err := other.lookup(k)
		if err != nil || !ok {
			return false
		}

		if !c.equal(a, b) {
			return false
		}
	}

	return true
}
