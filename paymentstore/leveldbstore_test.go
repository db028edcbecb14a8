package paymentstore

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLevelDBStoreConformance(t *testing.T) {
	testStoreConformance(t, func(t *testing.T) Store {
		s, err := NewLevelDBStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewLevelDBStore: %v", err)
		}
		return s
	})
}

// TestLevelDBStoreRebuildsIndexOnReopen mirrors the index-rebuild
// behavior core/rawdb relies on: a freshly opened handle to an
// existing database must recover its ByStatus index from the
// on-disk records alone.
func TestLevelDBStoreRebuildsIndexOnReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewLevelDBStore(dir)
	if err != nil {
		t.Fatalf("NewLevelDBStore: %v", err)
	}
	if err := s1.Create(&Payment{
		SubtaskID: "a",
		Payee:     common.HexToAddress("0x1"),
		Value:     big.NewInt(7),
		Status:    Sent,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := NewLevelDBStore(dir)
	if err != nil {
		t.Fatalf("reopen NewLevelDBStore: %v", err)
	}
	defer s2.Close()

	got, err := s2.ByStatus(Sent)
	if err != nil {
		t.Fatalf("ByStatus: %v", err)
	}
	if len(got) != 1 || got[0].SubtaskID != "a" {
		t.Fatalf("ByStatus after reopen = %+v, want one record 'a'", got)
	}
}
