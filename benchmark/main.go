package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/dustin/go-humanize"

	"github.com/xgzlucario/mempool"
)

var previousPause time.Duration

func gcPause() time.Duration {
	runtime.GC()
	var stats debug.GCStats
	debug.ReadGCStats(&stats)
	pause := stats.PauseTotal - previousPause
	previousPause = stats.PauseTotal
	return pause
}

func main() {
	c := ""
	entries := 0
	repeat := 0
	valueSize := 0
	flag.StringVar(&c, "backend", "mempool", "backend to bench: mempool, bigcache, heap.")
	flag.IntVar(&entries, "entries", 20000, "number of entries to store")
	flag.IntVar(&repeat, "repeat", 10, "number of repetitions")
	flag.IntVar(&valueSize, "value-size", 100, "size of single entry value in bytes")
	flag.Parse()

	if err := checkFlags(entries, repeat, valueSize); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	debug.SetGCPercent(10)
	fmt.Println("Backend:           ", c)
	fmt.Println("Number of entries: ", entries)
	fmt.Println("Number of repeats: ", repeat)
	fmt.Println("Value size:        ", humanize.IBytes(uint64(valueSize)))

	var benchFunc func(entries, valueSize int)

	switch c {
	case "mempool":
		benchFunc = memPool
	case "bigcache":
		benchFunc = bigCache
	case "heap":
		benchFunc = heap
	default:
		fmt.Printf("unknown backend: %s\n", c)
		os.Exit(1)
	}

	start := time.Now()
	benchFunc(entries, valueSize)
	fmt.Println("GC pause for startup: ", gcPause())
	for i := 0; i < repeat; i++ {
		benchFunc(entries, valueSize)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Printf("GC pause for %s: %s\n", c, gcPause())
	fmt.Println("heap inuse:", humanize.IBytes(mem.HeapInuse))
	fmt.Println("heap objects:", humanize.Comma(int64(mem.HeapObjects)))
	fmt.Println("cost:", time.Since(start))
}

func checkFlags(entries, repeat, valueSize int) error {
	if entries <= 0 {
		return errors.New("entries must be positive")
	}
	if valueSize <= 0 {
		return errors.New("value-size must be positive")
	}
	if repeat < 0 {
		return errors.New("repeat must not be negative")
	}
	if uint64(entries)*uint64(valueSize) > mempool.MaxCapacity {
		return fmt.Errorf("entries * value-size exceeds the arena limit of %s",
			humanize.IBytes(mempool.MaxCapacity))
	}
	return nil
}

// memPool keeps every value in one arena, so the GC sees a single object
// plus the handle slice.
func memPool(entries, valueSize int) {
	m, err := mempool.New(mempool.Options{Capacity: entries * valueSize})
	if err != nil {
		panic(err)
	}
	handles := make([]mempool.Handle, 0, entries)
	for i := 0; i < entries; i++ {
		h, err := m.Alloc(valueSize)
		if err != nil {
			panic(err)
		}
		fillValue(m.Bytes(h), i)
		handles = append(handles, h)
	}
	// churn the first tenth to exercise gap reuse.
	for i := 0; i < entries/10; i++ {
		m.Free(handles[i])
		h, err := m.Alloc(valueSize)
		if err != nil {
			panic(err)
		}
		handles[i] = h
	}
	runtime.KeepAlive(handles)
}

func bigCache(entries, valueSize int) {
	config := bigcache.Config{
		Shards:             256,
		LifeWindow:         100 * time.Minute,
		MaxEntriesInWindow: entries,
		MaxEntrySize:       valueSize + 32,
		Verbose:            false,
	}

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		panic(err)
	}
	val := make([]byte, valueSize)
	for i := 0; i < entries; i++ {
		fillValue(val, i)
		cache.Set(fmt.Sprintf("key-%010d", i), val)
	}
}

func heap(entries, valueSize int) {
	values := make([][]byte, 0, entries)
	for i := 0; i < entries; i++ {
		val := make([]byte, valueSize)
		fillValue(val, i)
		values = append(values, val)
	}
	runtime.KeepAlive(values)
}

func fillValue(b []byte, i int) {
	fixed := fmt.Sprintf("%010d", i)
	if len(b) >= len(fixed) {
		copy(b[len(b)-len(fixed):], fixed)
	}
}
