package stress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/named-data/lfq/std/log"
	"github.com/named-data/lfq/std/utils/toolutils"
)

// EnvPrefix is prepended to the envconfig names of Config fields.
const EnvPrefix = "LFQ"

// MaxTotal bounds Producers*Items, the number of values held in
// memory for verification each round.
const MaxTotal = 1 << 27

// Config of a stress run.
type Config struct {
	// Producers is the number of goroutines enqueueing values.
	Producers int `yaml:"producers" envconfig:"STRESS_PRODUCERS"`
	// Consumers is the number of goroutines dequeueing values.
	Consumers int `yaml:"consumers" envconfig:"STRESS_CONSUMERS"`
	// Items is the number of values enqueued by each producer per round.
	Items int `yaml:"items" envconfig:"STRESS_ITEMS"`
	// Rounds is the number of fresh queues to run through.
	Rounds int `yaml:"rounds" envconfig:"STRESS_ROUNDS"`
	// Timeout bounds the whole run, all rounds included.
	Timeout time.Duration `yaml:"timeout" envconfig:"STRESS_TIMEOUT"`
	// MetricsAddr, if set, serves Prometheus metrics on /metrics.
	MetricsAddr string `yaml:"metrics_addr" envconfig:"STRESS_METRICS_ADDR"`
	// LogLevel of the default logger.
	LogLevel log.Level `yaml:"log_level" envconfig:"STRESS_LOG_LEVEL"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Producers: 4,
		Consumers: 4,
		Items:     100000,
		Rounds:    10,
		Timeout:   time.Minute,
		LogLevel:  log.LevelInfo,
	}
}

// LoadConfig builds a configuration from the defaults, the YAML file
// (skipped if file is empty) and then the environment.
func LoadConfig(file string) (*Config, error) {
	config := DefaultConfig()
	if file != "" {
		if err := toolutils.ReadYaml(config, file); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from LFQ_STRESS_* environment variables.
// Fields without a matching variable are left untouched.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	return nil
}

// Validate checks that the configuration describes a runnable stress test.
func (c *Config) Validate() error {
	if c.Producers < 1 {
		return errors.New("at least one producer is required")
	}
	if c.Consumers < 1 {
		return errors.New("at least one consumer is required")
	}
	if c.Items < 0 || int64(c.Items) > math.MaxUint32 {
		return fmt.Errorf("items per producer out of range: %d", c.Items)
	}
	if int64(c.Producers) > math.MaxUint32 {
		return fmt.Errorf("too many producers: %d", c.Producers)
	}
	if c.Items > 0 && int64(c.Producers) > MaxTotal/int64(c.Items) {
		return fmt.Errorf("producers*items exceeds %d: %d*%d", MaxTotal, c.Producers, c.Items)
	}
	if c.Rounds < 1 {
		return errors.New("at least one round is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}
	return nil
}

// Total returns the number of values moved through the queue each round.
// It does not overflow for a configuration that passed Validate.
func (c *Config) Total() int {
	return c.Producers * c.Items
}
