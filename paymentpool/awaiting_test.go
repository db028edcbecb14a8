package paymentpool

import (
	"math/big"
	"testing"

	"github.com/golemfactory/golem-payments/paymentstore"
)

func TestAwaitingSetOrdersByTimestampThenInsertion(t *testing.T) {
	s := newAwaitingSet()
	s.add(&paymentstore.Payment{SubtaskID: "c", ProcessedTS: 100})
	s.add(&paymentstore.Payment{SubtaskID: "a", ProcessedTS: 50})
	s.add(&paymentstore.Payment{SubtaskID: "b", ProcessedTS: 50})

	got := s.snapshot()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("snapshot length = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].SubtaskID != id {
			t.Fatalf("snapshot[%d] = %s, want %s", i, got[i].SubtaskID, id)
		}
	}
}

func TestAwaitingSetRemoveAllAndReservedValue(t *testing.T) {
	s := newAwaitingSet()
	s.add(&paymentstore.Payment{SubtaskID: "a", Value: big.NewInt(10)})
	s.add(&paymentstore.Payment{SubtaskID: "b", Value: big.NewInt(20)})

	if got := s.reservedValue(); got.Int64() != 30 {
		t.Fatalf("reservedValue = %s, want 30", got)
	}

	s.removeAll([]string{"a"})
	if s.len() != 1 {
		t.Fatalf("len = %d, want 1", s.len())
	}
	if got := s.reservedValue(); got.Int64() != 20 {
		t.Fatalf("reservedValue after removeAll = %s, want 20", got)
	}
}
