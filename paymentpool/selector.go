package paymentpool

import (
	"github.com/golemfactory/golem-payments/paymentstore"
)

// selection is the result of selectBatch: the payments to submit and
// the single closure time boundary they share (spec §4.3).
type selection struct {
	payments    []*paymentstore.Payment
	closureTime int64
}

// selectBatch implements spec §4.3 steps 1-4: it takes an already
// time-sorted snapshot of the awaiting set and returns the prefix
// that should be submitted right now, or ok=false if nothing may be
// sent yet (either the deadline cursor hasn't been reached, or every
// resource-clipped candidate shares a closure time with a payment
// that didn't fit).
//
// now, paymentMaxDelaySecs and closureTimeDelaySecs are all expressed
// in seconds-since-epoch / seconds, matching spec §3's processed_ts
// unit exactly so no unit conversion happens inside the hot path.
func selectBatch(sorted []*paymentstore.Payment, now, paymentMaxDelaySecs, closureTimeDelaySecs int64, b budget) (selection, bool) {
	if len(sorted) == 0 {
		return selection{}, false
	}

	forced := closureTimeDelaySecs == 0
	minTS := sorted[0].ProcessedTS
	if !forced && now < minTS+paymentMaxDelaySecs {
		// Deadline cursor not reached yet: neither forced nor
		// opportunistically due (spec §4.3 step 2).
		return selection{}, false
	}

	threshold := now - closureTimeDelaySecs
	n := 0
	for n < len(sorted) && sorted[n].ProcessedTS <= threshold {
		n++
	}
	if n == 0 {
		return selection{}, false
	}
	candidates := sorted[:n]

	// Resource clipping (spec §4.3 step 4).
	k := b.maxIncluded(candidates)

	// All-or-none trim: never split a group of payments that share a
	// processed_ts, so the closure time boundary stays exact (spec
	// §4.3 step 4, final paragraph).
	for k > 0 && k < len(candidates) && candidates[k-1].ProcessedTS == candidates[k].ProcessedTS {
		k--
	}
	if k == 0 {
		return selection{}, false
	}

	batch := make([]*paymentstore.Payment, k)
	copy(batch, candidates[:k])
	return selection{payments: batch, closureTime: batch[k-1].ProcessedTS}, true
}
