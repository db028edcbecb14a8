package paymentpool

import (
	"math/big"
	"sort"
	"sync"

	"github.com/golemfactory/golem-payments/paymentstore"
)

// awaitingEntry pairs a payment with its insertion sequence number so
// that payments sharing a ProcessedTS keep a deterministic order
// (spec §5 "ties are resolved deterministically by insertion order"),
// the same tie-break preconf.FIFOTxSet gets for free by only ever
// appending to its queue.
type awaitingEntry struct {
	payment *paymentstore.Payment
	seq     uint64
}

// awaitingSet is the in-memory working set of payments not yet sent
// (spec §4, "Awaiting set"). It is rebuilt from the store at startup
// by Processor.LoadFromDB and otherwise mutated only by Add, the
// sender, the confirmation handler, and the overdue sweeper (which
// re-adds promoted payments).
type awaitingSet struct {
	mu      sync.Mutex
	entries map[string]*awaitingEntry
	nextSeq uint64
}

func newAwaitingSet() *awaitingSet {
	return &awaitingSet{entries: make(map[string]*awaitingEntry)}
}

// add inserts or replaces the record for p.SubtaskID.
func (s *awaitingSet) add(p *paymentstore.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[p.SubtaskID] = &awaitingEntry{payment: p, seq: s.nextSeq}
	s.nextSeq++
}

// remove drops subtaskID from the set, if present.
func (s *awaitingSet) remove(subtaskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, subtaskID)
}

// removeAll drops every id in subtaskIDs.
func (s *awaitingSet) removeAll(subtaskIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range subtaskIDs {
		delete(s.entries, id)
	}
}

// snapshot returns every payment currently in the set, sorted by
// (ProcessedTS, insertion order) ascending — the ordering spec §4.3
// step 1 and §5 require.
func (s *awaitingSet) snapshot() []*paymentstore.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*awaitingEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].payment.ProcessedTS != entries[j].payment.ProcessedTS {
			return entries[i].payment.ProcessedTS < entries[j].payment.ProcessedTS
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]*paymentstore.Payment, len(entries))
	for i, e := range entries {
		out[i] = e.payment
	}
	return out
}

// reservedValue sums Value across every payment currently in the set.
func (s *awaitingSet) reservedValue() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := new(big.Int)
	for _, e := range s.entries {
		sum.Add(sum, e.payment.Value)
	}
	return sum
}

// len reports the set's cardinality, i.e. recipients_count (spec
// §4.6).
func (s *awaitingSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
