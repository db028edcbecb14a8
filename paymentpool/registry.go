package paymentpool

import (
	"math/big"
	"sync"

	"github.com/golemfactory/golem-payments/paymentstore"
)

// sentRegistry groups sent-but-unconfirmed payments by the tx hash
// that settled them (spec §4, "Sent-batch registry"), so a single
// confirmation reconciles every member atomically. It is kept
// in-memory only: the durable source of truth is each Payment's own
// Details.Tx, which load_from_db uses to rebuild this registry after
// a restart (spec §4.2).
type sentRegistry struct {
	mu     sync.Mutex
	byHash map[string][]*paymentstore.Payment
}

func newSentRegistry() *sentRegistry {
	return &sentRegistry{byHash: make(map[string][]*paymentstore.Payment)}
}

// register records that payments were submitted under txHash.
func (r *sentRegistry) register(txHash string, payments []*paymentstore.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byHash[txHash] = append(r.byHash[txHash], payments...)
}

// resolve returns the payments grouped under txHash without removing
// them, or false if no batch is registered under that hash.
func (r *sentRegistry) resolve(txHash string) ([]*paymentstore.Payment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.byHash[txHash]
	return batch, ok
}

// clear removes txHash's group once it has been reconciled, either
// into Confirmed or back into Awaiting (spec §4.4).
func (r *sentRegistry) clear(txHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byHash, txHash)
}

// reservedValue sums Value across every payment in every registered
// batch, the sent-but-unconfirmed component of reserved_amount (spec
// §4.6).
func (r *sentRegistry) reservedValue() *big.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := new(big.Int)
	for _, batch := range r.byHash {
		for _, p := range batch {
			sum.Add(sum, p.Value)
		}
	}
	return sum
}

// txHashes returns every tx hash currently tracked.
func (r *sentRegistry) txHashes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byHash))
	for h := range r.byHash {
		out = append(out, h)
	}
	return out
}
