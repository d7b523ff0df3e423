package stress

import (
	"errors"
	"net"
	"net/http"

	"github.com/named-data/lfq/std/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics of a stress run. Workers batch their counts and publish them
// once per round, so the counters do not add contention to the queue.
type Metrics struct {
	Registry      *prometheus.Registry
	Enqueued      prometheus.Counter
	Dequeued      prometheus.Counter
	EmptyPolls    prometheus.Counter
	Rounds        prometheus.Counter
	RoundDuration prometheus.Histogram
}

// NewMetrics creates the stress metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lfq_stress_enqueued_total",
			Help: "Values enqueued by stress producers",
		}),
		Dequeued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lfq_stress_dequeued_total",
			Help: "Values dequeued by stress consumers",
		}),
		EmptyPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lfq_stress_empty_polls_total",
			Help: "Dequeue calls that found the queue empty",
		}),
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lfq_stress_rounds_total",
			Help: "Completed stress rounds",
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lfq_stress_round_duration_seconds",
			Help:    "Wall time of a stress round",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.Registry.MustRegister(m.Enqueued, m.Dequeued, m.EmptyPolls, m.Rounds, m.RoundDuration)
	return m
}

func (m *Metrics) String() string {
	return "stress-metrics"
}

// Serve exposes the registry on addr under /metrics until the returned
// server is shut down.
func (m *Metrics) Serve(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(m, "Metrics server failed", "err", err)
		}
	}()
	log.Info(m, "Serving metrics", "addr", srv.Addr)
	return srv, nil
}
