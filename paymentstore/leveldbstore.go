package paymentstore

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// keyPrefix namespaces payment records within a LevelDB instance that
// may be shared with other subsystems, the same convention
// core/rawdb uses for every table it keeps in go-ethereum's chain
// database.
var keyPrefix = []byte("payment-")

func dbKey(subtaskID string) []byte {
	return append(append([]byte{}, keyPrefix...), subtaskID...)
}

// rlpPayment is the on-disk encoding of a Payment. big.Int fields must
// be non-nil for rlp, so nils are normalized to zero on encode and
// restored as zero values (never nil) on decode.
type rlpPayment struct {
	SubtaskID   string
	Payee       [20]byte
	Value       *big.Int
	ProcessedTS int64
	Status      uint8
	Tx          string
	BlockNumber uint64
	BlockHash   [32]byte
	Fee         *big.Int
	CreatedTS   int64
	ModifiedTS  int64
}

func toRLP(p *Payment) rlpPayment {
	value := p.Value
	if value == nil {
		value = new(big.Int)
	}
	fee := p.Details.Fee
	if fee == nil {
		fee = new(big.Int)
	}
	return rlpPayment{
		SubtaskID:   p.SubtaskID,
		Payee:       p.Payee,
		Value:       value,
		ProcessedTS: p.ProcessedTS,
		Status:      uint8(p.Status),
		Tx:          p.Details.Tx,
		BlockNumber: p.Details.BlockNumber,
		BlockHash:   p.Details.BlockHash,
		Fee:         fee,
		CreatedTS:   p.CreatedTS,
		ModifiedTS:  p.ModifiedTS,
	}
}

func fromRLP(r rlpPayment) *Payment {
	return &Payment{
		SubtaskID:   r.SubtaskID,
		Payee:       r.Payee,
		Value:       r.Value,
		ProcessedTS: r.ProcessedTS,
		Status:      Status(r.Status),
		Details: Details{
			Tx:          r.Tx,
			BlockNumber: r.BlockNumber,
			BlockHash:   r.BlockHash,
			Fee:         r.Fee,
		},
		CreatedTS:  r.CreatedTS,
		ModifiedTS: r.ModifiedTS,
	}
}

// LevelDBStore is the reference durable Store implementation. It
// keeps a small in-memory status index alongside the database so
// ByStatus does not require a full table scan on the hot path, the
// same tradeoff core/rawdb makes for its own secondary indices.
type LevelDBStore struct {
	db *leveldb.DB

	mu    sync.Mutex
	index map[Status]map[string]struct{}
}

// NewLevelDBStore opens (or creates) a LevelDB database at path and
// rebuilds the status index from it.
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	s := &LevelDBStore{
		db:    db,
		index: make(map[Status]map[string]struct{}),
	}
	if err := s.rebuildIndex(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *LevelDBStore) rebuildIndex() error {
	iter := s.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		var r rlpPayment
		if err := rlp.DecodeBytes(iter.Value(), &r); err != nil {
			return err
		}
		s.indexAdd(Status(r.Status), r.SubtaskID)
	}
	return iter.Error()
}

func (s *LevelDBStore) indexAdd(status Status, subtaskID string) {
	set, ok := s.index[status]
	if !ok {
		set = make(map[string]struct{})
		s.index[status] = set
	}
	set[subtaskID] = struct{}{}
}

func (s *LevelDBStore) indexRemove(status Status, subtaskID string) {
	if set, ok := s.index[status]; ok {
		delete(set, subtaskID)
	}
}

func (s *LevelDBStore) Create(p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dbKey(p.SubtaskID)
	if has, err := s.db.Has(key, nil); err != nil {
		return err
	} else if has {
		return ErrDuplicateSubtask
	}
	enc, err := rlp.EncodeToBytes(toRLP(p))
	if err != nil {
		return err
	}
	if err := s.db.Put(key, enc, nil); err != nil {
		return err
	}
	s.indexAdd(p.Status, p.SubtaskID)
	return nil
}

func (s *LevelDBStore) get(subtaskID string) (*Payment, error) {
	enc, err := s.db.Get(dbKey(subtaskID), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	var r rlpPayment
	if err := rlp.DecodeBytes(enc, &r); err != nil {
		return nil, err
	}
	return fromRLP(r), nil
}

func (s *LevelDBStore) Get(subtaskID string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(subtaskID)
}

func (s *LevelDBStore) ByStatus(statuses ...Status) ([]*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Payment
	for _, status := range statuses {
		for subtaskID := range s.index[status] {
			p, err := s.get(subtaskID)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *LevelDBStore) UpdateBatch(subtaskIDs []string, mutate func(*Payment)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	type change struct {
		old, new *Payment
	}
	changes := make([]change, 0, len(subtaskIDs))
	for _, id := range subtaskIDs {
		old, err := s.get(id)
		if err != nil {
			return err
		}
		updated := old.Clone()
		mutate(updated)
		enc, err := rlp.EncodeToBytes(toRLP(updated))
		if err != nil {
			return err
		}
		batch.Put(dbKey(id), enc)
		changes = append(changes, change{old: old, new: updated})
	}
	if err := s.db.Write(batch, nil); err != nil {
		return err
	}
	for _, c := range changes {
		if c.old.Status != c.new.Status {
			s.indexRemove(c.old.Status, c.old.SubtaskID)
			s.indexAdd(c.new.Status, c.new.SubtaskID)
		}
	}
	return nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
