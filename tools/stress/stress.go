package stress

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash"
	"github.com/named-data/lfq/std/log"
	"github.com/named-data/lfq/std/types/lockfree"
	"github.com/named-data/lfq/std/types/sync_pool"
	"github.com/named-data/lfq/std/utils"
	"golang.org/x/sync/errgroup"
)

// Runner drives producers and consumers over fresh queues and checks
// that every value comes out exactly once and in per-producer order.
type Runner struct {
	config  *Config
	metrics *Metrics
	// consumer buffers, recycled between rounds
	buffers sync_pool.SyncPool[*[]uint64]
}

// NewRunner creates a runner. metrics may be nil.
func NewRunner(config *Config, metrics *Metrics) *Runner {
	r := &Runner{config: config, metrics: metrics}
	r.buffers = sync_pool.New(
		func() *[]uint64 {
			buf := make([]uint64, 0, 1024)
			return &buf
		},
		func(buf *[]uint64) { *buf = (*buf)[:0] })
	return r
}

func (r *Runner) String() string {
	return "stress"
}

// Run executes all configured rounds and returns the accumulated report.
// It stops at the first round that fails or when the timeout expires.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if err := r.config.Validate(); err != nil {
		return Report{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	log.Info(r, "Starting stress run",
		"producers", r.config.Producers,
		"consumers", r.config.Consumers,
		"items", r.config.Items,
		"rounds", r.config.Rounds)

	total := Report{}
	for round := 1; round <= r.config.Rounds; round++ {
		report, err := r.RunRound(ctx)
		total.add(report)
		if err != nil {
			return total, fmt.Errorf("round %d: %w", round, err)
		}
		if !report.Ok() {
			return total, &VerifyError{Round: round, Report: report}
		}
		log.Debug(r, "Round complete", "round", round, "elapsed", report.Elapsed)
	}

	log.Info(r, "Stress run complete", "rounds", total.Rounds, "elapsed", total.Elapsed)
	return total, nil
}

// workers look at the context once per checkInterval queue operations
const checkInterval = 1024

// worker tallies are kept per goroutine and merged after the round.
type consumerTally struct {
	buf        *[]uint64
	values     []uint64
	emptyPolls uint64
	sum        uint64
}

// RunRound moves Producers*Items values through a new queue and verifies
// the result. The error is non-nil if the round could not finish or the
// queue did not tear down to a single sentinel; verification failures are
// only recorded in the report.
func (r *Runner) RunRound(ctx context.Context) (Report, error) {
	cfg := r.config
	total := int64(cfg.Total())
	q := lockfree.NewQueue[uint64]()

	consumed := atomic.Int64{}
	produced := atomic.Int64{}
	expectedSum := atomic.Uint64{}
	tallies := make([]consumerTally, cfg.Consumers)

	// a stuck round is most useful to debug while the workers still run
	dumpStacks := sync.OnceFunc(func() {
		if log.Default().Level() <= log.LevelDebug {
			utils.PrintStackTrace(os.Stderr)
		}
	})

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	// stopped reports why a worker has to give up on the round, if it has to
	stopped := func() error {
		err := gctx.Err()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			dumpStacks()
		}
		return fmt.Errorf("%d of %d values outstanding: %w",
			total-consumed.Load(), total, err)
	}

	for c := range tallies {
		tally := &tallies[c]
		tally.buf = r.buffers.Get()
		tally.values = *tally.buf
		g.Go(func() error {
			for n := 0; consumed.Load() < total; n++ {
				if n%checkInterval == 0 {
					if err := stopped(); err != nil {
						return err
					}
				}

				v, ok := q.Dequeue()
				if !ok {
					tally.emptyPolls++
					if err := stopped(); err != nil {
						return err
					}
					runtime.Gosched()
					continue
				}
				consumed.Add(1)
				tally.values = append(tally.values, v)
				tally.sum += fingerprint(v)
			}
			return nil
		})
	}

	for p := 0; p < cfg.Producers; p++ {
		g.Go(func() error {
			sum := uint64(0)
			defer func() { expectedSum.Add(sum) }()
			for i := 0; i < cfg.Items; i++ {
				if i%checkInterval == 0 {
					if err := stopped(); err != nil {
						return err
					}
				}
				v := encode(p, i)
				q.Enqueue(v)
				produced.Add(1)
				sum += fingerprint(v)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		// workers that finished right at the deadline still overran it
		if cerr := ctx.Err(); cerr != nil {
			err = fmt.Errorf("round interrupted: %w", cerr)
		}
	}
	elapsed := time.Since(start)

	report := r.verify(tallies)
	if log.HasTrace() {
		for c, tally := range tallies {
			log.Trace(r, "Consumer finished", "consumer", c,
				"values", len(tally.values), "emptyPolls", tally.emptyPolls)
		}
	}
	for _, tally := range tallies {
		*tally.buf = tally.values
		r.buffers.Put(tally.buf)
	}
	report.Rounds = 1
	report.Enqueued = uint64(produced.Load())
	report.EnqueuedSum = expectedSum.Load()
	report.Elapsed = elapsed

	// remaining nodes plus the sentinel
	report.Released = uint64(q.Dispose())
	if err == nil && report.Released != 1 {
		err = fmt.Errorf("teardown released %d nodes after a full drain", report.Released)
	}

	r.publish(report)
	return report, err
}

// verify checks delivery counts and per-producer order as seen by each consumer.
func (r *Runner) verify(tallies []consumerTally) (report Report) {
	cfg := r.config
	seen := make([][]uint32, cfg.Producers)
	for p := range seen {
		seen[p] = make([]uint32, cfg.Items)
	}

	last := make([]int64, cfg.Producers)
	for _, tally := range tallies {
		report.Dequeued += uint64(len(tally.values))
		report.EmptyPolls += tally.emptyPolls
		report.DequeuedSum += tally.sum

		for p := range last {
			last[p] = -1
		}
		for _, v := range tally.values {
			p, i := decode(v)
			if p >= cfg.Producers || i >= cfg.Items {
				report.Unknown++
				continue
			}
			seen[p][i]++
			if int64(i) <= last[p] {
				report.OrderViolations++
			}
			last[p] = int64(i)
		}
	}

	for p := range seen {
		for _, n := range seen[p] {
			switch {
			case n == 0:
				report.Missing++
			case n > 1:
				report.Duplicates += uint64(n - 1)
			}
		}
	}
	return report
}

func (r *Runner) publish(report Report) {
	if r.metrics == nil {
		return
	}
	r.metrics.Enqueued.Add(float64(report.Enqueued))
	r.metrics.Dequeued.Add(float64(report.Dequeued))
	r.metrics.EmptyPolls.Add(float64(report.EmptyPolls))
	r.metrics.Rounds.Inc()
	r.metrics.RoundDuration.Observe(report.Elapsed.Seconds())
}

// encode packs a producer index and a sequence number into one value.
func encode(producer, seq int) uint64 {
	return uint64(producer)<<32 | uint64(uint32(seq))
}

func decode(v uint64) (producer, seq int) {
	return int(v >> 32), int(v & 0xffffffff)
}

// fingerprint hashes one value. Sums of fingerprints compare
// multisets of values independently of the dequeue order.
func fingerprint(v uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return xxhash.Sum64(b[:])
}
