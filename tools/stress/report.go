package stress

import (
	"fmt"
	"io"
	"time"

	"github.com/named-data/lfq/std/utils/toolutils"
)

// Report summarizes one or more stress rounds.
type Report struct {
	Rounds     int
	Enqueued   uint64
	Dequeued   uint64
	EmptyPolls uint64
	// Released counts nodes released by queue teardown.
	Released uint64

	Duplicates      uint64
	Missing         uint64
	Unknown         uint64
	OrderViolations uint64

	// Sums of per-value xxhash fingerprints on each side of the queue.
	EnqueuedSum uint64
	DequeuedSum uint64

	Elapsed time.Duration
}

// Ok reports whether every value was delivered once and in order.
func (r Report) Ok() bool {
	return r.Duplicates == 0 &&
		r.Missing == 0 &&
		r.Unknown == 0 &&
		r.OrderViolations == 0 &&
		r.Enqueued == r.Dequeued &&
		r.EnqueuedSum == r.DequeuedSum
}

func (r *Report) add(o Report) {
	r.Rounds += o.Rounds
	r.Enqueued += o.Enqueued
	r.Dequeued += o.Dequeued
	r.EmptyPolls += o.EmptyPolls
	r.Released += o.Released
	r.Duplicates += o.Duplicates
	r.Missing += o.Missing
	r.Unknown += o.Unknown
	r.OrderViolations += o.OrderViolations
	r.EnqueuedSum += o.EnqueuedSum
	r.DequeuedSum += o.DequeuedSum
	r.Elapsed += o.Elapsed
}

// Throughput returns dequeued values per second.
func (r Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Dequeued) / r.Elapsed.Seconds()
}

// Print writes the report as aligned key=value lines.
func (r Report) Print(w io.Writer) {
	p := toolutils.StatusPrinter{File: w, Padding: 18}
	p.Print("rounds", r.Rounds)
	p.Print("enqueued", r.Enqueued)
	p.Print("dequeued", r.Dequeued)
	p.Print("emptyPolls", r.EmptyPolls)
	p.Print("nodesReleased", r.Released)
	p.Print("duplicates", r.Duplicates)
	p.Print("missing", r.Missing)
	p.Print("unknown", r.Unknown)
	p.Print("orderViolations", r.OrderViolations)
	p.Print("fingerprint", fmt.Sprintf("%016x/%016x", r.EnqueuedSum, r.DequeuedSum))
	p.Print("elapsed", r.Elapsed)
	p.Print("throughput", fmt.Sprintf("%.0f/s", r.Throughput()))
	p.Print("ok", r.Ok())
}

// VerifyError is returned when a round completed but lost, duplicated
// or reordered values.
type VerifyError struct {
	Round  int
	Report Report
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("round %d failed verification: %d duplicates, %d missing, %d unknown, %d out of order",
		e.Round, e.Report.Duplicates, e.Report.Missing, e.Report.Unknown, e.Report.OrderViolations)
}
