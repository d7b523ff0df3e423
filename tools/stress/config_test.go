package stress_test

import (
	"math"
	"testing"
	"time"

	"github.com/named-data/lfq/std/log"
	tu "github.com/named-data/lfq/std/utils/testutils"
	"github.com/named-data/lfq/tools/stress"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := stress.DefaultConfig()
	require.NoError(t, config.Validate())
	require.Equal(t, config.Producers*config.Items, config.Total())
}

func TestLoadConfigYaml(t *testing.T) {
	tu.SetT(t)

	file := tu.WriteTemp("stress.yml", `
producers: 2
consumers: 6
items: 500
rounds: 3
timeout: 30s
log_level: debug
`)
	config := tu.NoErr(stress.LoadConfig(file))
	require.Equal(t, 2, config.Producers)
	require.Equal(t, 6, config.Consumers)
	require.Equal(t, 500, config.Items)
	require.Equal(t, 3, config.Rounds)
	require.Equal(t, 30*time.Second, config.Timeout)
	require.Equal(t, log.LevelDebug, config.LogLevel)
	require.Empty(t, config.MetricsAddr)

	tu.Err(stress.LoadConfig(tu.WriteTemp("bad.yml", "producer: 2\n")))
}

func TestLoadConfigEnv(t *testing.T) {
	tu.SetT(t)

	file := tu.WriteTemp("stress.yml", "producers: 2\nitems: 10\n")
	t.Setenv("LFQ_STRESS_PRODUCERS", "5")
	t.Setenv("LFQ_STRESS_TIMEOUT", "2m")
	t.Setenv("LFQ_STRESS_LOG_LEVEL", "warn")

	config := tu.NoErr(stress.LoadConfig(file))
	require.Equal(t, 5, config.Producers)
	require.Equal(t, 10, config.Items)
	require.Equal(t, stress.DefaultConfig().Consumers, config.Consumers)
	require.Equal(t, 2*time.Minute, config.Timeout)
	require.Equal(t, log.LevelWarn, config.LogLevel)

	t.Setenv("LFQ_STRESS_ROUNDS", "many")
	tu.Err(stress.LoadConfig(""))
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(*stress.Config){
		"producers": func(c *stress.Config) { c.Producers = 0 },
		"consumers": func(c *stress.Config) { c.Consumers = -1 },
		"items":     func(c *stress.Config) { c.Items = -5 },
		"rounds":    func(c *stress.Config) { c.Rounds = 0 },
		"timeout":   func(c *stress.Config) { c.Timeout = 0 },
		"total": func(c *stress.Config) {
			c.Producers = 1 << 20
			c.Items = 1 << 20
		},
		"total+1": func(c *stress.Config) {
			c.Producers = 3
			c.Items = stress.MaxTotal/3 + 1
		},
	} {
		config := stress.DefaultConfig()
		mutate(config)
		require.Error(t, config.Validate(), name)
	}
}

func TestConfigValidateTotal(t *testing.T) {
	config := stress.DefaultConfig()
	config.Producers = 1 << 7
	config.Items = stress.MaxTotal >> 7
	require.NoError(t, config.Validate())
	require.Equal(t, stress.MaxTotal, config.Total())

	// large enough to wrap a 32-bit int
	config.Producers = math.MaxInt32
	config.Items = math.MaxInt32
	require.Error(t, config.Validate())
}

func TestSampleConfig(t *testing.T) {
	config, err := stress.LoadConfig("stress.sample.yml")
	require.NoError(t, err)
	require.Equal(t, stress.DefaultConfig(), config)
}
