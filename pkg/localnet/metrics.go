package localnet

import (
	"context"
	"time"

	"github.com/code-payments/code-authority-server/pkg/metrics"
)

const (
	executedTransactionEventName = "LocalnetTransactionExecuted"

	instructionCountMetricName      = "Localnet/InstructionCount"
	executionDurationMetricName     = "Localnet/ExecutionDuration"
	innerInstructionCountMetricName = "Localnet/InnerInstructionCount"
	rateLimitedMetricName           = "Localnet/RateLimited"
)

func recordExecutedTransactionEvent(ctx context.Context, receipt *Receipt, instructionCount int, attempts uint, err error) {
	kvPairs := map[string]interface{}{
		"instructions": instructionCount,
		"attempts":     attempts,
		"success":      err == nil,
	}
	if receipt != nil {
		kvPairs["txn"] = receipt.Id
		kvPairs["inner_instructions"] = receipt.InnerInstructionCount()
	}
	if err != nil {
		kvPairs["error"] = err.Error()
	}
	metrics.RecordEvent(ctx, executedTransactionEventName, kvPairs)
}

func recordExecutionMetrics(ctx context.Context, receipt *Receipt, instructionCount int, duration time.Duration) {
	metrics.RecordCount(ctx, instructionCountMetricName, uint64(instructionCount))
	metrics.RecordDuration(ctx, executionDurationMetricName, duration)
	if receipt != nil {
		metrics.RecordCount(ctx, innerInstructionCountMetricName, uint64(receipt.InnerInstructionCount()))
	}
}

func recordRateLimited(ctx context.Context) {
	metrics.RecordCount(ctx, rateLimitedMetricName, 1)
}
