package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/tidwall/hashmap"
	"github.com/zeebo/xxh3"

	"github.com/xgzlucario/mempool"
	"github.com/xgzlucario/mempool/internal/percentile"
)

var stressFlags stressConfig

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressFlags.workers, "workers", "w", 8, "Number of concurrent workers")
	cmd.Flags().IntVarP(&stressFlags.ops, "ops", "n", 100000, "Operations per worker")
	cmd.Flags().IntVar(&stressFlags.maxSize, "max-size", 256, "Largest request size in bytes")
	cmd.Flags().Int64Var(&stressFlags.seed, "seed", 1, "Workload seed")
	cmd.Flags().DurationVar(&stressFlags.timeout, "timeout", 0, "Abort after this long (0 means no limit)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a concurrent alloc/free/resize workload",
		Long: `The stress command runs several workers against one arena. Every block
is filled with random bytes and its xxh3 checksum is verified before it is
freed or resized, so overlapping blocks or lost payload fail the run.

Example:
  poolctl stress --capacity 1048576 --workers 16 --ops 200000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if stressFlags.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, stressFlags.timeout)
				defer cancel()
			}

			res, err := runStress(ctx, m, stressFlags)
			if err != nil {
				return err
			}
			if !quiet {
				res.print()
			}
			return nil
		},
	}
}

type stressConfig struct {
	workers int
	ops     int
	maxSize int
	seed    int64
	timeout time.Duration
}

type stressResult struct {
	ops      int
	failures int
	cost     time.Duration
	latency  *percentile.Percentile
	stats    mempool.Stats
}

func (r stressResult) print() {
	fmt.Printf("[Stress] %d ops | %d failed | cost: %v | %.0f ops/s\n",
		r.ops, r.failures, r.cost, float64(r.ops)/r.cost.Seconds())
	fmt.Printf("[Pool] in use: %s / %s (%.1f%%) | blocks: %d | largest gap: %s\n",
		humanize.IBytes(uint64(r.stats.InUse)), humanize.IBytes(uint64(r.stats.Capacity)),
		r.stats.Utilization()*100, r.stats.Blocks, humanize.IBytes(uint64(r.stats.LargestGap)))
	fmt.Printf("[Ops] allocs: %s | frees: %s | resizes: %s | failures: %s\n",
		humanize.Comma(int64(r.stats.Allocs)), humanize.Comma(int64(r.stats.Frees)),
		humanize.Comma(int64(r.stats.Resizes)), humanize.Comma(int64(r.stats.Failures)))
	r.latency.Print(os.Stdout)
}

// runStress drives cfg.workers workers against m. Each worker owns the
// blocks it allocated and releases all of them before returning.
func runStress(ctx context.Context, m *mempool.Manager, cfg stressConfig) (stressResult, error) {
	if cfg.workers <= 0 || cfg.ops < 0 || cfg.maxSize <= 0 {
		return stressResult{}, fmt.Errorf("invalid stress config: %+v", cfg)
	}

	var mu sync.Mutex
	res := stressResult{latency: percentile.New(0)}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	start := time.Now()

	for i := 0; i < cfg.workers; i++ {
		w := &worker{
			id:      i,
			m:       m,
			faker:   gofakeit.New(cfg.seed + int64(i)),
			live:    hashmap.New[mempool.Handle, uint64](0),
			maxSize: cfg.maxSize,
			latency: percentile.New(cfg.ops),
		}
		p.Go(func(ctx context.Context) error {
			err := w.run(ctx, cfg.ops)

			mu.Lock()
			res.ops += w.ops
			res.failures += w.failures
			res.latency.Merge(w.latency)
			mu.Unlock()
			return err
		})
	}
	err := p.Wait()

	res.cost = time.Since(start)
	res.stats = m.Stats()
	if err != nil {
		return res, err
	}
	return res, m.Check()
}

type worker struct {
	id      int
	m       *mempool.Manager
	faker   *gofakeit.Faker
	live    *hashmap.Map[mempool.Handle, uint64]
	maxSize int

	ops      int
	failures int
	latency  *percentile.Percentile
}

func (w *worker) run(ctx context.Context, ops int) (err error) {
	defer func() {
		// release everything still held, verifying as we go.
		w.live.Scan(func(h mempool.Handle, sum uint64) bool {
			if verr := w.verify(h, sum); verr != nil && err == nil {
				err = verr
			}
			w.m.Free(h)
			return true
		})
	}()

	for i := 0; i < ops; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		a := time.Now()
		switch n := w.faker.IntRange(0, 9); {
		case n < 5 || w.live.Len() == 0:
			err = w.alloc()
		case n < 8:
			err = w.free()
		default:
			err = w.resize()
		}
		w.latency.AddDuration(time.Since(a))
		w.ops++
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *worker) alloc() error {
	size := w.faker.IntRange(1, w.maxSize)
	h, err := w.m.Alloc(size)
	if err != nil {
		w.failures++
		return nil
	}
	w.live.Set(h, w.fill(w.m.Bytes(h)))
	return nil
}

func (w *worker) free() error {
	h, sum, ok := w.live.GetPos(w.faker.Uint64())
	if !ok {
		return nil
	}
	w.live.Delete(h)
	if err := w.verify(h, sum); err != nil {
		return err
	}
	w.m.Free(h)
	return nil
}

func (w *worker) resize() error {
	h, sum, ok := w.live.GetPos(w.faker.Uint64())
	if !ok {
		return nil
	}
	if err := w.verify(h, sum); err != nil {
		return err
	}
	old := w.m.Bytes(h)
	size := w.faker.IntRange(1, w.maxSize)
	keep := len(old)
	if size < keep {
		keep = size
	}
	prefix := xxh3.Hash(old[:keep])

	nh, err := w.m.Resize(h, size)
	w.live.Delete(h)
	if err != nil {
		// the rollback keeps the original payload.
		w.failures++
		w.live.Set(nh, sum)
		return w.verify(nh, sum)
	}

	b := w.m.Bytes(nh)
	if got := xxh3.Hash(b[:keep]); got != prefix {
		return fmt.Errorf("worker %d: resize %v -> %v lost payload", w.id, h, nh)
	}
	w.live.Set(nh, xxh3.Hash(b))
	return nil
}

func (w *worker) fill(b []byte) uint64 {
	for i := range b {
		b[i] = w.faker.Uint8()
	}
	return xxh3.Hash(b)
}

func (w *worker) verify(h mempool.Handle, sum uint64) error {
	b := w.m.Bytes(h)
	if b == nil {
		return fmt.Errorf("worker %d: block %v vanished", w.id, h)
	}
	if got := xxh3.Hash(b); got != sum {
		return fmt.Errorf("worker %d: block %v corrupted", w.id, h)
	}
	return nil
}
