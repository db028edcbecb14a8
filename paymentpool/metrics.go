package paymentpool

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

// Metric series exposed by the processor, named and built exactly the
// way preconf/metrics.go registers its own: package-level gauges,
// meters and timers plus small MetricsXxx helper functions that hide
// the update call from the rest of the package.
var (
	awaitingCountGauge = metrics.NewRegisteredGauge("payments/awaiting/count", nil)
	awaitingValueGauge = metrics.NewRegisteredGauge("payments/awaiting/value", nil)
	sentValueGauge     = metrics.NewRegisteredGauge("payments/sent/value", nil)
	overdueCountGauge  = metrics.NewRegisteredGauge("payments/overdue/count", nil)

	batchSentMeter      = metrics.NewRegisteredMeter("payments/batch/sent", nil)
	batchConfirmedMeter = metrics.NewRegisteredMeter("payments/batch/confirmed", nil)
	batchFailedMeter    = metrics.NewRegisteredMeter("payments/batch/failed", nil)

	sendoutTimer = metrics.NewRegisteredTimer("payments/batch/send", nil)
)

// MetricsAwaiting updates the awaiting-set gauges.
func MetricsAwaiting(count int, value int64) {
	awaitingCountGauge.Update(int64(count))
	awaitingValueGauge.Update(value)
}

// MetricsSentValue updates the sent-but-unconfirmed value gauge.
func MetricsSentValue(value int64) {
	sentValueGauge.Update(value)
}

// MetricsOverdue updates the overdue-count gauge.
func MetricsOverdue(count int) {
	overdueCountGauge.Update(int64(count))
}

// MetricsBatchSent records a successfully submitted batch.
func MetricsBatchSent(size int) {
	batchSentMeter.Mark(int64(size))
}

// MetricsBatchConfirmed records a confirmed batch.
func MetricsBatchConfirmed(size int) {
	batchConfirmedMeter.Mark(int64(size))
}

// MetricsBatchFailed records a batch whose receipt came back failed.
func MetricsBatchFailed(size int) {
	batchFailedMeter.Mark(int64(size))
}

// MetricsSendoutCost times one call to SendOut.
func MetricsSendoutCost(start time.Time) {
	sendoutTimer.Update(time.Since(start))
}
