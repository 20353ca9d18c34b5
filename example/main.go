package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/xgzlucario/mempool/list"
)

func main() {
	go http.ListenAndServe("localhost:6060", nil)

	l := list.New[uint16](64 * 1024)
	defer l.Cleanup()

	// walkthrough
	l.Insert(1)
	l.Insert(2)
	l.Insert(3)
	fmt.Println("list:", l.Display())

	l.InsertAfter(l.Search(1), 10)
	l.InsertBefore(l.Search(3), 20)
	fmt.Println("inserted:", l.Display())
	fmt.Println("range:", l.DisplayRange(l.Search(10), l.Search(20)))

	l.Delete(2)
	fmt.Println("deleted:", l.Display(), "count:", l.Count())

	// Stat
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second / 10)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s := l.Pool().Stats()
				fmt.Printf("[Pool] blocks: %d\t in use: %d/%d (%.1f%%)\t largest gap: %d\n",
					s.Blocks, s.InUse, s.Capacity, s.Utilization()*100, s.LargestGap)
			}
		}
	}()

	// fill the arena, then drain every other value and refill the holes.
	a := time.Now()
	var v uint16
	for l.Insert(v) == nil {
		v++
	}
	for i := uint16(0); i < v; i += 2 {
		l.Delete(i)
	}
	for i := uint16(0); i < v; i += 2 {
		if err := l.Insert(i); err != nil {
			fmt.Println("refill stopped:", err)
			break
		}
	}
	close(done)

	s := l.Pool().Stats()
	fmt.Printf("nodes: %d\t cost: %v\t allocs: %d\t frees: %d\t failures: %d\n",
		l.Count(), time.Since(a), s.Allocs, s.Frees, s.Failures)
}
