// Package hugecontainer provides a disk-backed associative container whose
// combined value payload may exceed available memory.
//
// It presents the semantics of an ordinary in-memory map while holding at
// most a bounded number of decoded values resident in RAM ([Options.MaxCache]);
// the rest live as serialized byte blocks in a private scratch file created
// lazily and removed when the container is closed.
//
// Two public shapes share one engine:
//   - [Map]: unordered, amortized O(1) lookup, unspecified iteration order.
//   - [OrderedMap]: ordered, iterates in ascending key order.
//
// # Basic usage
//
//	m, err := hugecontainer.NewMap[string, Record](hugecontainer.Options[string, Record]{
//	    MaxCache: 64,
//	    Value:    hugecontainer.Codec[Record]{Encode: encodeRecord, Decode: decodeRecord},
//	})
//	if err != nil {
//	    // handle
//	}
//	defer m.Close()
//
//	m.Set("a", rec)
//	v, ok := m.Get("a")
//
// # Copy-on-write
//
// Go assignment of a [Map] or [OrderedMap] value copies a pointer to shared
// state, not the state itself (the zero-cost Go analogue of the original's
// reference-counted handle). Call [Map.Clone] / [OrderedMap.Clone] to obtain
// an independent handle that detaches (and duplicates the scratch file)
// lazily, on the first mutation made through either handle.
//
// # Concurrency
//
// A single [Map] or [OrderedMap] value is not safe for concurrent use. Two
// clones are safe to use concurrently from separate goroutines only after
// each has been mutated at least once (forcing detachment); reads alone
// never force detachment, so concurrent readers of un-detached clones can
// still race on the shared cache and free map.
//
// # Errors
//
// Disk failures during eviction or swap-in are reported to the caller
// (insert fails, lookups return the value codec's default value) rather than
// corrupting the
// index; see the package-level error variables for the full classification.
package hugecontainer
