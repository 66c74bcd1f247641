package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbuddy/cardbuddy/pkg/config"
)

type testConfig struct {
	Name  string   `env:"TEST_CONFIG_NAME" envDefault:"fallback"`
	Port  int      `env:"TEST_CONFIG_PORT" envDefault:"8080"`
	Tags  []string `env:"TEST_CONFIG_TAGS" envSeparator:","`
	Debug bool     `env:"TEST_CONFIG_DEBUG" envDefault:"false"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CONFIG_REQUIRED_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME", "cardbuddy")
	t.Setenv("TEST_CONFIG_PORT", "9090")
	t.Setenv("TEST_CONFIG_TAGS", "a,b,c")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "cardbuddy", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.False(t, cfg.Debug)
}

func TestLoadCachesPerType(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME", "first")

	var first testConfig
	require.NoError(t, config.Load(&first))

	// Changing the environment after the first load must not change the
	// cached value for the same type.
	t.Setenv("TEST_CONFIG_NAME", "second")

	var second testConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first.Name, second.Name)
}

func TestLoadRequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoadNilPointer(t *testing.T) {
	err := config.Load[testConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}
