package paymentstore

import "testing"

func TestMemStoreConformance(t *testing.T) {
	testStoreConformance(t, func(t *testing.T) Store {
		return NewMemStore()
	})
}
