package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-authority-server/pkg/config"
)

func TestConfig(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"

	t.Setenv(env, "default")
	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")
	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	t.Setenv("LOCALNET_TEST_DEPTH", "7")
	t.Setenv("LOCALNET_TEST_TIMEOUT", "1500ms")
	t.Setenv("LOCALNET_TEST_ENABLED", "false")

	assert.EqualValues(t, 7, NewUint64Config("LOCALNET_TEST_DEPTH", 4).Get(ctx))
	assert.Equal(t, 1500*time.Millisecond, NewDurationConfig("LOCALNET_TEST_TIMEOUT", time.Second).Get(ctx))
	assert.False(t, NewBoolConfig("LOCALNET_TEST_ENABLED", true).Get(ctx))

	// Unset variables fall back to the default
	assert.EqualValues(t, 4, NewUint64Config("LOCALNET_TEST_UNSET", 4).Get(ctx))
	assert.True(t, NewBoolConfig("localnet_test_unset", true).Get(ctx))
}
