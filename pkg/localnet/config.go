package localnet

import (
	"time"

	"github.com/code-payments/code-authority-server/pkg/config"
	"github.com/code-payments/code-authority-server/pkg/config/env"
	"github.com/code-payments/code-authority-server/pkg/config/memory"
	"github.com/code-payments/code-authority-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "LOCALNET_"

	MaxInvokeDepthConfigEnvName = envConfigPrefix + "MAX_INVOKE_DEPTH"
	defaultMaxInvokeDepth       = 4

	MaxInstructionsConfigEnvName = envConfigPrefix + "MAX_INSTRUCTIONS"
	defaultMaxInstructions       = 64

	ExecutionTimeoutConfigEnvName = envConfigPrefix + "EXECUTION_TIMEOUT"
	defaultExecutionTimeout       = 10 * time.Second

	RequireOnCurveSignersConfigEnvName = envConfigPrefix + "REQUIRE_ON_CURVE_SIGNERS"
	defaultRequireOnCurveSigners       = true

	LockStripesConfigEnvName = envConfigPrefix + "LOCK_STRIPES"
	defaultLockStripes       = 256

	CommitAttemptsConfigEnvName = envConfigPrefix + "COMMIT_ATTEMPTS"
	defaultCommitAttempts       = 3

	CommitBackoffConfigEnvName = envConfigPrefix + "COMMIT_BACKOFF"
	defaultCommitBackoff       = 10 * time.Millisecond

	MaxPayerTransactionRateConfigEnvName = envConfigPrefix + "MAX_PAYER_TRANSACTION_RATE"
	defaultMaxPayerTransactionRate       = 0
)

type conf struct {
	maxInvokeDepth        config.Uint64
	maxInstructions       config.Uint64
	executionTimeout      config.Duration
	requireOnCurveSigners config.Bool
	lockStripes           config.Uint64
	commitAttempts        config.Uint64
	commitBackoff         config.Duration
	maxPayerRate          config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			maxInvokeDepth:        env.NewUint64Config(MaxInvokeDepthConfigEnvName, defaultMaxInvokeDepth),
			maxInstructions:       env.NewUint64Config(MaxInstructionsConfigEnvName, defaultMaxInstructions),
			executionTimeout:      env.NewDurationConfig(ExecutionTimeoutConfigEnvName, defaultExecutionTimeout),
			requireOnCurveSigners: env.NewBoolConfig(RequireOnCurveSignersConfigEnvName, defaultRequireOnCurveSigners),
			lockStripes:           env.NewUint64Config(LockStripesConfigEnvName, defaultLockStripes),
			commitAttempts:        env.NewUint64Config(CommitAttemptsConfigEnvName, defaultCommitAttempts),
			commitBackoff:         env.NewDurationConfig(CommitBackoffConfigEnvName, defaultCommitBackoff),
			maxPayerRate:          env.NewUint64Config(MaxPayerTransactionRateConfigEnvName, defaultMaxPayerTransactionRate),
		}
	}
}

type testOverrides struct {
	maxInvokeDepth   uint64
	maxInstructions  uint64
	executionTimeout time.Duration
	commitAttempts   uint64
	maxPayerRate     uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			maxInvokeDepth:        wrapper.NewUint64Config(memory.NewConfig(overrides.maxInvokeDepth), defaultMaxInvokeDepth),
			maxInstructions:       wrapper.NewUint64Config(memory.NewConfig(overrides.maxInstructions), defaultMaxInstructions),
			executionTimeout:      wrapper.NewDurationConfig(memory.NewConfig(overrides.executionTimeout), defaultExecutionTimeout),
			requireOnCurveSigners: wrapper.NewBoolConfig(memory.NewConfig(true), defaultRequireOnCurveSigners),
			lockStripes:           wrapper.NewUint64Config(memory.NewConfig(uint64(16)), defaultLockStripes),
			commitAttempts:        wrapper.NewUint64Config(memory.NewConfig(overrides.commitAttempts), defaultCommitAttempts),
			commitBackoff:         wrapper.NewDurationConfig(memory.NewConfig(time.Millisecond), defaultCommitBackoff),
			maxPayerRate:          wrapper.NewUint64Config(memory.NewConfig(overrides.maxPayerRate), defaultMaxPayerTransactionRate),
		}
	}
}
