package wrapper

import (
	"context"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-authority-server/pkg/config"
	"github.com/code-payments/code-authority-server/pkg/config/memory"
)

type typedConfigTestCase[T any] struct {
	defaultValue  T
	overrideValue T
	encoded       []byte
	decoded       T
}

func runTypedConfigTest[T any](t *testing.T, tc typedConfigTestCase[T], newConfig func(config.Config, T) config.Typed[T]) {
	ctx := context.Background()
	mock := memory.NewConfig(nil)
	wrapper := newConfig(mock, tc.defaultValue)

	assertValue := func(expected T, expectErr bool) {
		val, err := wrapper.GetSafe(ctx)
		if expectErr {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
		}
		assert.Equal(t, expected, val)
		assert.Equal(t, expected, wrapper.Get(ctx))
	}

	// Return the default value when no override is set
	assertValue(tc.defaultValue, false)

	// The overriden value is returned when set
	mock.SetValue(tc.overrideValue)
	assertValue(tc.overrideValue, false)

	// The last observed config value is returned on error
	mock.InduceErrors()
	assertValue(tc.overrideValue, true)

	// The default value is returned when the override no longer has a value
	mock.StopInducingErrors()
	mock.ClearValue()
	assertValue(tc.defaultValue, false)

	// Values from sources like environment variables are parsed
	mock.SetValue(tc.encoded)
	assertValue(tc.decoded, false)

	// Invalid byte array value
	mock.SetValue([]byte("cannot convert"))
	assertValue(tc.decoded, true)

	// Unsupported source value type
	mock.SetValue("not supported")
	_, err := wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, tc.decoded, wrapper.Get(ctx))

	// Shutdown the config via the wrapper
	wrapper.Shutdown()
	_, err = wrapper.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestBoolConfig(t *testing.T) {
	runTypedConfigTest(t, typedConfigTestCase[bool]{
		defaultValue:  true,
		overrideValue: false,
		encoded:       []byte(strconv.FormatBool(false)),
		decoded:       false,
	}, NewBoolConfig)
}

func TestUint64Config(t *testing.T) {
	runTypedConfigTest(t, typedConfigTestCase[uint64]{
		defaultValue:  math.MaxUint64,
		overrideValue: 0,
		encoded:       []byte("42"),
		decoded:       42,
	}, NewUint64Config)

	mock := memory.NewConfig(uint(7))
	assert.EqualValues(t, 7, NewUint64Config(mock, 1).Get(context.Background()))
}

func TestDurationConfig(t *testing.T) {
	runTypedConfigTest(t, typedConfigTestCase[time.Duration]{
		defaultValue:  30 * time.Second,
		overrideValue: -2 * time.Hour,
		encoded:       []byte((250 * time.Millisecond).String()),
		decoded:       250 * time.Millisecond,
	}, NewDurationConfig)
}
