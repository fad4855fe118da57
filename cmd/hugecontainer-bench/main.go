// Command hugecontainer-bench drives a [hugecontainer.Map] through a mix of
// inserts and lookups and reports throughput and final file size, for
// sizing maxCache and compressionLevel against a workload's value shapes.
package main

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/orin-labs/hugecontainer"
)

func main() {
	count := flag.IntP("count", "n", 100000, "number of distinct keys to insert")
	maxCache := flag.Uint32P("max-cache", "c", 64, "resident cache capacity")
	compression := flag.IntP("compression", "z", 0, "compression level (-1, 0, 1..9)")
	valueSize := flag.IntP("value-size", "s", 256, "size in bytes of each value")
	lookups := flag.IntP("lookups", "l", 100000, "number of random lookups after the insert phase")

	flag.Parse()

	if err := run(*count, *maxCache, int8(*compression), *valueSize, *lookups); err != nil {
		fmt.Fprintln(os.Stderr, "hugecontainer-bench:", err)
		os.Exit(1)
	}
}

func run(count int, maxCache uint32, compression int8, valueSize, lookups int) error {
	m, err := hugecontainer.NewMap[uint64, []byte](hugecontainer.Options[uint64, []byte]{
		MaxCache:         maxCache,
		CompressionLevel: compression,
		Value: hugecontainer.Codec[[]byte]{
			Encode: func(v []byte) ([]byte, error) { return v, nil },
			Decode: func(b []byte) ([]byte, error) { return b, nil },
		},
	})
	if err != nil {
		return err
	}
	defer m.Close()

	insertStart := time.Now()

	for i := 0; i < count; i++ {
		value := make([]byte, valueSize)
		binary.LittleEndian.PutUint64(value, uint64(i))

		if err := m.Set(uint64(i), value); err != nil {
			return fmt.Errorf("insert %d: %w", i, err)
		}
	}

	insertElapsed := time.Since(insertStart)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	lookupStart := time.Now()
	hits := 0

	for i := 0; i < lookups; i++ {
		k := uint64(rng.Intn(count))

		if _, ok := m.Get(k); ok {
			hits++
		}
	}

	lookupElapsed := time.Since(lookupStart)

	fmt.Printf("insert: %d keys in %s (%.0f ops/s)\n", count, insertElapsed, float64(count)/insertElapsed.Seconds())
	fmt.Printf("lookup: %d ops in %s (%.0f ops/s), %d hits\n", lookups, lookupElapsed, float64(lookups)/lookupElapsed.Seconds(), hits)
	fmt.Printf("fileSize: %d bytes, fragmentation: %.4f\n", m.FileSize(), m.Fragmentation())

	return nil
}
