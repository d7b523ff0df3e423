package stress

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/named-data/lfq/std/log"
	"github.com/spf13/cobra"
)

type stressTool struct {
	producers   int
	consumers   int
	items       int
	rounds      int
	timeout     time.Duration
	metricsAddr string
	logLevel    string
}

// CmdStress creates the stress test command.
func CmdStress() *cobra.Command {
	st := stressTool{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "stress [CONFIG-FILE]",
		Short:   "Run concurrent producers and consumers against the queue",
		Long: `Run concurrent producers and consumers against the lock-free queue
and verify that every value is delivered exactly once and that values
from one producer reach each consumer in order.

Settings are read from the optional YAML file, then from LFQ_STRESS_*
environment variables, then from command line flags.`,
		Args:         cobra.MaximumNArgs(1),
		Example:      `  lfq stress -p 8 -c 8 -n 1000000 --rounds 5`,
		RunE:         st.run,
		SilenceUsage: true,
	}

	def := DefaultConfig()
	cmd.Flags().IntVarP(&st.producers, "producers", "p", def.Producers, "number of producer goroutines")
	cmd.Flags().IntVarP(&st.consumers, "consumers", "c", def.Consumers, "number of consumer goroutines")
	cmd.Flags().IntVarP(&st.items, "items", "n", def.Items, "values enqueued by each producer per round")
	cmd.Flags().IntVarP(&st.rounds, "rounds", "r", def.Rounds, "number of rounds, each on a fresh queue")
	cmd.Flags().DurationVar(&st.timeout, "timeout", def.Timeout, "time limit for the whole run")
	cmd.Flags().StringVar(&st.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&st.logLevel, "log-level", def.LogLevel.String(), "log level (trace, debug, info, warn, error)")
	return cmd
}

func (st *stressTool) String() string {
	return "stress-tool"
}

// config resolves the file, environment and explicitly set flags.
func (st *stressTool) config(cmd *cobra.Command, args []string) (*Config, error) {
	file := ""
	if len(args) > 0 {
		file = args[0]
	}
	config, err := LoadConfig(file)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("producers") {
		config.Producers = st.producers
	}
	if flags.Changed("consumers") {
		config.Consumers = st.consumers
	}
	if flags.Changed("items") {
		config.Items = st.items
	}
	if flags.Changed("rounds") {
		config.Rounds = st.rounds
	}
	if flags.Changed("timeout") {
		config.Timeout = st.timeout
	}
	if flags.Changed("metrics-addr") {
		config.MetricsAddr = st.metricsAddr
	}
	if flags.Changed("log-level") {
		if config.LogLevel, err = log.ParseLevel(st.logLevel); err != nil {
			return nil, err
		}
	}

	return config, config.Validate()
}

func (st *stressTool) run(cmd *cobra.Command, args []string) error {
	config, err := st.config(cmd, args)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Default().SetLevel(config.LogLevel)

	metrics := NewMetrics()
	if config.MetricsAddr != "" {
		srv, err := metrics.Serve(config.MetricsAddr)
		if err != nil {
			return fmt.Errorf("unable to serve metrics on %s: %w", config.MetricsAddr, err)
		}
		defer func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				log.Warn(st, "Metrics server shutdown failed", "err", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := NewRunner(config, metrics).Run(ctx)
	report.Print(cmd.OutOrStdout())
	if err != nil {
		log.Error(st, "Stress run failed", "err", err)
		return err
	}
	return nil
}
