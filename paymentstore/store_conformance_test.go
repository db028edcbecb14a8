package paymentstore

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// testStoreConformance exercises the Store contract against any
// implementation, the same way core/rawdb's ancient-store tests are
// run once per backend.
func testStoreConformance(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		p := &Payment{
			SubtaskID:   "a",
			Payee:       common.HexToAddress("0x1"),
			Value:       big.NewInt(42),
			ProcessedTS: 100,
			Status:      Awaiting,
			CreatedTS:   100,
			ModifiedTS:  100,
		}
		if err := s.Create(p); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := s.Get("a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Value.Cmp(big.NewInt(42)) != 0 || got.Status != Awaiting {
			t.Fatalf("Get returned %+v", got)
		}
	})

	t.Run("CreateDuplicateRejected", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		p := &Payment{SubtaskID: "dup", Value: big.NewInt(1), Status: Awaiting}
		if err := s.Create(p); err != nil {
			t.Fatalf("first Create: %v", err)
		}
		if err := s.Create(p); err != ErrDuplicateSubtask {
			t.Fatalf("second Create error = %v, want ErrDuplicateSubtask", err)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		if _, err := s.Get("missing"); err != ErrNotFound {
			t.Fatalf("Get error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ByStatusFiltersAndUnionsMultiple", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		must(t, s.Create(&Payment{SubtaskID: "a", Value: big.NewInt(1), Status: Awaiting}))
		must(t, s.Create(&Payment{SubtaskID: "b", Value: big.NewInt(1), Status: Sent}))
		must(t, s.Create(&Payment{SubtaskID: "c", Value: big.NewInt(1), Status: Overdue}))

		got, err := s.ByStatus(Awaiting, Overdue)
		if err != nil {
			t.Fatalf("ByStatus: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("ByStatus returned %d records, want 2", len(got))
		}
	})

	t.Run("UpdateBatchIsAtomic", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		must(t, s.Create(&Payment{SubtaskID: "a", Value: big.NewInt(1), Status: Awaiting}))
		must(t, s.Create(&Payment{SubtaskID: "b", Value: big.NewInt(1), Status: Awaiting}))

		err := s.UpdateBatch([]string{"a", "b", "missing"}, func(p *Payment) {
			p.Status = Sent
		})
		if err == nil {
			t.Fatalf("expected UpdateBatch to fail on an unknown subtask id")
		}

		a, _ := s.Get("a")
		if a.Status != Awaiting {
			t.Fatalf("expected a partial UpdateBatch failure to leave every record untouched, got %v", a.Status)
		}

		must(t, s.UpdateBatch([]string{"a", "b"}, func(p *Payment) {
			p.Status = Sent
			p.Details.Tx = "abc"
		}))
		a, _ = s.Get("a")
		b, _ := s.Get("b")
		if a.Status != Sent || b.Status != Sent || a.Details.Tx != "abc" {
			t.Fatalf("UpdateBatch did not apply to every record: a=%+v b=%+v", a, b)
		}
	})
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
