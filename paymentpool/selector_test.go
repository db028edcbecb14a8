package paymentpool

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/golemfactory/golem-payments/paymentstore"
)

func mkPayment(value, processedTS int64) *paymentstore.Payment {
	return &paymentstore.Payment{
		Value:       big.NewInt(value),
		ProcessedTS: processedTS,
		Status:      paymentstore.Awaiting,
	}
}

func unlimitedBudget() budget {
	return budget{
		TokenBalance:        big.NewInt(1_000_000_000),
		GasAssetBalance:     uint256.NewInt(1_000_000_000),
		GasPrice:            uint256.NewInt(1),
		GasPerPayment:       1,
		GasBatchPaymentBase: 1,
		BlockGasLimit:       1_000_000_000,
		BlockGasLimitRatio:  1,
	}
}

func TestSelectBatchEmpty(t *testing.T) {
	_, ok := selectBatch(nil, 100, 10, 0, unlimitedBudget())
	if ok {
		t.Fatalf("expected no selection on an empty set")
	}
}

func TestSelectBatchWaitsForPaymentMaxDelay(t *testing.T) {
	sorted := []*paymentstore.Payment{mkPayment(1, 1000)}
	_, ok := selectBatch(sorted, 1000+99, 100, 5, unlimitedBudget())
	if ok {
		t.Fatalf("expected sendout to wait until PaymentMaxDelay elapses")
	}
	sel, ok := selectBatch(sorted, 1000+101, 100, 5, unlimitedBudget())
	if !ok || len(sel.payments) != 1 {
		t.Fatalf("expected a single-payment selection once the delay elapsed")
	}
}

func TestSelectBatchForcedBypassesDelay(t *testing.T) {
	sorted := []*paymentstore.Payment{mkPayment(1, 1000)}
	sel, ok := selectBatch(sorted, 1000, 100, 0, unlimitedBudget())
	if !ok || sel.closureTime != 1000 {
		t.Fatalf("expected closureTimeDelay=0 to force an immediate send")
	}
}

func TestSelectBatchClosureThreshold(t *testing.T) {
	sorted := []*paymentstore.Payment{mkPayment(1, 2000000), mkPayment(1, 5000000)}
	if _, ok := selectBatch(sorted, 1000000, 0, 0, unlimitedBudget()); ok {
		t.Fatalf("neither payment should be eligible before its own processed_ts")
	}
	sel, ok := selectBatch(sorted, 2000000, 0, 0, unlimitedBudget())
	if !ok || len(sel.payments) != 1 || sel.closureTime != 2000000 {
		t.Fatalf("expected only the first payment to be eligible at its own processed_ts")
	}
}

func TestSelectBatchTrimsSharedTimestampGroup(t *testing.T) {
	sorted := []*paymentstore.Payment{mkPayment(1, 1000), mkPayment(2, 2000), mkPayment(5, 2000)}
	b := budget{
		TokenBalance:        big.NewInt(4),
		GasAssetBalance:     uint256.NewInt(1_000_000_000),
		GasPrice:            uint256.NewInt(1),
		GasPerPayment:       1,
		GasBatchPaymentBase: 1,
		BlockGasLimit:       1_000_000_000,
		BlockGasLimitRatio:  1,
	}

	sel, ok := selectBatch(sorted, 10000, 0, 0, b)
	if !ok || len(sel.payments) != 1 || sel.closureTime != 1000 {
		t.Fatalf("expected the ts=2000 group to be trimmed entirely since only one of it fits")
	}

	// selectBatch is stateless and never mutates sorted; model the
	// real caller's removal of the already-sent ts=1000 payment before
	// the second sendout, leaving only the shared ts=2000 group.
	remaining := sorted[1:]
	b.TokenBalance = big.NewInt(10)
	sel, ok = selectBatch(remaining, 10000, 0, 0, b)
	if !ok || len(sel.payments) != 2 || sel.closureTime != 2000 {
		t.Fatalf("expected both ts=2000 payments together once the budget covers their sum")
	}
}
