package sci

import "testing"

var (
	_ Interface = (*Fake)(nil)
	_ Converter = (*FakeConverter)(nil)
)

func TestFakeBatchTransferRecordsCallsAndConfirms(t *testing.T) {
	f := NewFake()
	f.NextTxHash = "0xabc"

	txHash, err := f.BatchTransfer([]Payment{{Value: nil}}, 100)
	if err != nil {
		t.Fatalf("BatchTransfer: %v", err)
	}
	if txHash != "0xabc" {
		t.Fatalf("txHash = %q, want 0xabc", txHash)
	}
	if len(f.BatchTransferCalls) != 1 || f.BatchTransferCalls[0].ClosureTime != 100 {
		t.Fatalf("BatchTransferCalls = %+v", f.BatchTransferCalls)
	}

	var got Receipt
	f.OnTransactionConfirmed(txHash, func(r Receipt) { got = r })
	if f.PendingHandlers() != 1 {
		t.Fatalf("PendingHandlers = %d, want 1", f.PendingHandlers())
	}

	f.Confirm(Receipt{TxHash: txHash, Status: 1})
	if got.TxHash != txHash {
		t.Fatalf("handler was not invoked with the confirmed receipt")
	}
	if f.PendingHandlers() != 0 {
		t.Fatalf("expected the handler to be removed after firing once")
	}
}

func TestFakeConverterDefaultsToNotConverting(t *testing.T) {
	c := NewFakeConverter()
	converting, err := c.IsConverting()
	if err != nil || converting {
		t.Fatalf("IsConverting = %v, %v, want false, nil", converting, err)
	}
	c.SetConverting(true)
	converting, _ = c.IsConverting()
	if !converting {
		t.Fatalf("expected SetConverting(true) to take effect")
	}
}
