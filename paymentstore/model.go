package paymentstore

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Details holds the on-chain association for a Payment once it has
// left the Awaiting state (spec §3).
type Details struct {
	// Tx is the settling transaction hash, hex-encoded without a
	// leading "0x", unset while the payment is Awaiting.
	Tx string
	// BlockNumber, BlockHash and Fee are only set once Status is
	// Confirmed.
	BlockNumber uint64
	BlockHash   common.Hash
	Fee         *big.Int
}

// HasTx reports whether a settling transaction has been recorded.
func (d Details) HasTx() bool { return d.Tx != "" }

// Payment is the durable record the processor reasons about (spec §3).
// SubtaskID is the unique key a caller supplied at enqueue time;
// ProcessedTS is the closure-time ordering key, set once and never
// mutated afterwards.
type Payment struct {
	SubtaskID   string
	Payee       common.Address
	Value       *big.Int
	ProcessedTS int64
	Status      Status
	Details     Details
	CreatedTS   int64
	ModifiedTS  int64
}

// Clone returns a deep-enough copy safe to hand to callers outside the
// store's lock: the big.Int fields are copied so a caller mutating
// them in place cannot corrupt processor-owned state.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Value != nil {
		cp.Value = new(big.Int).Set(p.Value)
	}
	if p.Details.Fee != nil {
		cp.Details.Fee = new(big.Int).Set(p.Details.Fee)
	}
	return &cp
}
