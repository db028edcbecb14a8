// Package paymentpool implements the payment processor core: the
// awaiting set, sent-batch registry, resource estimator, batch
// selector, sender, confirmation handler and overdue sweeper named in
// spec §4. Processor is the single exported type gluing them
// together behind the operations spec §6 names.
package paymentpool

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/golemfactory/golem-payments/paymentpool/sci"
	"github.com/golemfactory/golem-payments/paymentstore"
)

// Clock abstracts time.Now so tests can freeze it, taking the place
// of the Python original's reliance on freezegun.
type Clock func() time.Time

// ConfirmationEvent is broadcast after every reconciled batch, for
// observers that only want to watch outcomes (metrics dashboards,
// audit logs) rather than drive behavior — the core itself never
// subscribes to its own feed.
type ConfirmationEvent struct {
	TxHash     string
	Success    bool
	SubtaskIDs []string
}

type confirmationJob struct {
	receipt sci.Receipt
}

// Option customises a Processor at construction time, the same
// functional-option shape payoutd.Processor uses for its wallet,
// attestor, clock and poll-interval overrides.
type Option func(*Processor)

// WithClock overrides the processor's time source. Used by tests in
// place of freeze_time.
func WithClock(clock Clock) Option {
	return func(p *Processor) { p.clock = clock }
}

// Processor is the Payment Processor core from spec §2: it owns the
// awaiting set and sent-batch registry exclusively, and is the
// record store's only writer (spec §5, "Shared resources").
type Processor struct {
	mu sync.Mutex

	store     paymentstore.Store
	sci       sci.Interface
	converter sci.Converter
	config    Config
	clock     Clock

	awaiting *awaitingSet
	sent     *sentRegistry
	known    mapset.Set[string]

	confirmCh chan confirmationJob
	quit      chan struct{}
	wg        sync.WaitGroup

	feed event.Feed
}

// New constructs a Processor and starts its confirmation worker pool
// (spec §5: the SCI's calling goroutine must hand receipts off to an
// independent worker rather than process them inline). Callers must
// still call LoadFromDB once before relying on ReservedAmount,
// RecipientsCount or SendOut to reflect pre-existing store state
// (spec §4.2).
func New(store paymentstore.Store, sciClient sci.Interface, converter sci.Converter, cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{
		store:     store,
		sci:       sciClient,
		converter: converter,
		config:    cfg,
		clock:     time.Now,
		awaiting:  newAwaitingSet(),
		sent:      newSentRegistry(),
		known:     mapset.NewSet[string](),
		confirmCh: make(chan confirmationJob, 64),
		quit:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < cfg.ConfirmationWorkers; i++ {
		p.wg.Add(1)
		go p.confirmationWorker()
	}
	return p, nil
}

// Close stops the confirmation worker pool. Receipts already handed
// off but not yet processed are dropped; callers that need a clean
// shutdown should stop feeding the SCI first.
func (p *Processor) Close() {
	close(p.quit)
	p.wg.Wait()
}

// SubscribeConfirmations lets observers watch reconciled batches
// without participating in their processing.
func (p *Processor) SubscribeConfirmations(ch chan<- ConfirmationEvent) event.Subscription {
	return p.feed.Subscribe(ch)
}

// LoadFromDB performs the startup reconciliation from spec §4.2:
// awaiting/overdue records are loaded into the in-memory awaiting
// set, and sent-but-unconfirmed records are grouped by tx hash and
// re-registered for confirmation, so a batch submitted before a
// crash is still reconciled after restart.
func (p *Processor) LoadFromDB() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	awaiting, err := p.store.ByStatus(paymentstore.Awaiting, paymentstore.Overdue)
	if err != nil {
		return fmt.Errorf("paymentpool: load awaiting failed: %w", err)
	}
	for _, pay := range awaiting {
		p.awaiting.add(pay)
		p.known.Add(pay.SubtaskID)
	}

	sentPayments, err := p.store.ByStatus(paymentstore.Sent)
	if err != nil {
		return fmt.Errorf("paymentpool: load sent failed: %w", err)
	}
	// Details.Tx is stored "0x"-stripped (see leveldbstore.go); the sent
	// registry and OnTransactionConfirmed must be keyed on the same
	// "0x"-prefixed form SendOut registers them under, so a receipt
	// delivered after a restart still resolves (spec §8 property 5).
	groups := make(map[string][]*paymentstore.Payment)
	for _, pay := range sentPayments {
		txHash := "0x" + pay.Details.Tx
		groups[txHash] = append(groups[txHash], pay)
		p.known.Add(pay.SubtaskID)
	}
	for txHash, batch := range groups {
		p.sent.register(txHash, batch)
		p.registerConfirmation(txHash)
	}

	p.updateReservedMetrics()
	log.Info("paymentpool: loaded from store", "awaiting", len(awaiting), "sent_batches", len(groups))
	return nil
}

// Add enqueues a new payment obligation (spec §4.1). It returns
// ErrDuplicateSubtask if subtaskID was already enqueued and does not
// touch the chain.
func (p *Processor) Add(subtaskID string, payee common.Address, value *big.Int) (int64, error) {
	if value == nil || value.Sign() <= 0 {
		return 0, ErrInvalidValue
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.known.Contains(subtaskID) {
		return 0, ErrDuplicateSubtask
	}

	now := p.clock().Unix()
	pay := &paymentstore.Payment{
		SubtaskID:   subtaskID,
		Payee:       payee,
		Value:       new(big.Int).Set(value),
		ProcessedTS: now,
		Status:      paymentstore.Awaiting,
		CreatedTS:   now,
		ModifiedTS:  now,
	}
	if err := p.store.Create(pay); err != nil {
		if errors.Is(err, paymentstore.ErrDuplicateSubtask) {
			return 0, ErrDuplicateSubtask
		}
		return 0, fmt.Errorf("paymentpool: store failure adding payment: %w", err)
	}

	p.known.Add(subtaskID)
	p.awaiting.add(pay)
	p.updateReservedMetrics()
	log.Debug("paymentpool: payment added", "subtask", subtaskID, "value", pay.Value, "processed_ts", now)
	return now, nil
}

// SendOut implements spec §4.3. It returns true iff a batch was
// actually submitted. closureTimeDelay of 0 requests the
// explicit-immediate-send mode spec §4.3 step 2 describes; any other
// value is the opportunistic threshold applied on top of
// PaymentMaxDelay.
func (p *Processor) SendOut(closureTimeDelay time.Duration) (bool, error) {
	defer MetricsSendoutCost(time.Now())

	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := p.awaiting.snapshot()
	if len(snapshot) == 0 {
		return false, nil
	}

	converting, err := p.converter.IsConverting()
	if err != nil {
		return false, fmt.Errorf("paymentpool: converter query failed: %w", err)
	}
	if converting {
		log.Info("paymentpool: sendout aborted, converter busy")
		return false, nil
	}

	b, err := p.currentBudget()
	if err != nil {
		return false, err
	}

	now := p.clock().Unix()
	sel, ok := selectBatch(
		snapshot,
		now,
		int64(p.config.PaymentMaxDelay/time.Second),
		int64(closureTimeDelay/time.Second),
		b,
	)
	if !ok {
		log.Info("paymentpool: sendout skipped, nothing eligible", "awaiting", len(snapshot))
		return false, nil
	}

	payments := make([]sci.Payment, len(sel.payments))
	ids := make([]string, len(sel.payments))
	for i, pay := range sel.payments {
		payments[i] = sci.Payment{Payee: pay.Payee, Value: pay.Value}
		ids[i] = pay.SubtaskID
	}

	txHash, err := p.sci.BatchTransfer(payments, sel.closureTime)
	if err != nil {
		log.Error("paymentpool: batch submission failed", "count", len(ids), "err", err)
		return false, fmt.Errorf("paymentpool: batch submission failed: %w", err)
	}

	// Durable flip must happen before the in-memory set is touched, so
	// a crash between submission and this point is recoverable purely
	// by re-reading the store on restart (spec §4.3 step 7, §9).
	txHashHex := strings.TrimPrefix(txHash, "0x")
	now = p.clock().Unix()
	if err := p.store.UpdateBatch(ids, func(pay *paymentstore.Payment) {
		pay.Status = paymentstore.Sent
		pay.Details.Tx = txHashHex
		pay.ModifiedTS = now
	}); err != nil {
		log.Error("paymentpool: store failure after submission", "tx", txHash, "err", err)
		return false, fmt.Errorf("paymentpool: store failure flipping sent status: %w", err)
	}

	p.awaiting.removeAll(ids)
	p.sent.register(txHash, sel.payments)
	p.registerConfirmation(txHash)
	p.updateReservedMetrics()
	MetricsBatchSent(len(ids))
	log.Info("paymentpool: batch submitted", "tx", txHash, "count", len(ids), "closure_time", sel.closureTime)
	return true, nil
}

func (p *Processor) currentBudget() (budget, error) {
	tokenBalance, err := p.sci.GetTokenBalance()
	if err != nil {
		return budget{}, fmt.Errorf("paymentpool: token balance query failed: %w", err)
	}
	gasAssetBalance, err := p.sci.GetGasAssetBalance()
	if err != nil {
		return budget{}, fmt.Errorf("paymentpool: gas asset balance query failed: %w", err)
	}
	gasPrice, err := p.sci.GetCurrentGasPrice()
	if err != nil {
		return budget{}, fmt.Errorf("paymentpool: gas price query failed: %w", err)
	}
	latestBlock, err := p.sci.GetLatestConfirmedBlock()
	if err != nil {
		return budget{}, fmt.Errorf("paymentpool: latest block query failed: %w", err)
	}
	return newBudget(p.sci.GasSchedule(), tokenBalance, gasAssetBalance, gasPrice, latestBlock.GasLimit, p.config.BlockGasLimitRatio), nil
}

func (p *Processor) registerConfirmation(txHash string) {
	p.sci.OnTransactionConfirmed(txHash, p.onReceipt)
}

// onReceipt is invoked by the SCI, possibly from its own goroutine; it
// must return immediately (spec §5, §9). The receipt is handed off to
// the bounded confirmation worker pool via a short-lived goroutine so
// a channel momentarily at capacity never stalls the caller.
func (p *Processor) onReceipt(r sci.Receipt) {
	go func() {
		select {
		case p.confirmCh <- confirmationJob{receipt: r}:
		case <-p.quit:
		}
	}()
}

func (p *Processor) confirmationWorker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.confirmCh:
			p.handleConfirmation(job.receipt)
		case <-p.quit:
			return
		}
	}
}

// handleConfirmation implements spec §4.4. It acquires the core mutex
// before touching any state, per spec §5.
func (p *Processor) handleConfirmation(r sci.Receipt) {
	p.mu.Lock()
	defer p.mu.Unlock()

	batch, ok := p.sent.resolve(r.TxHash)
	if !ok {
		log.Warn("paymentpool: confirmation for unknown batch", "tx", r.TxHash)
		return
	}
	ids := make([]string, len(batch))
	for i, pay := range batch {
		ids[i] = pay.SubtaskID
	}

	now := p.clock().Unix()
	success := r.Status == 1
	if success {
		gasPrice, err := p.sci.GetTransactionGasPrice(r.TxHash)
		if err != nil {
			log.Error("paymentpool: failed to fetch settling gas price", "tx", r.TxHash, "err", err)
			gasPrice = new(big.Int)
		}
		fee := new(big.Int).Mul(new(big.Int).SetUint64(r.GasUsed), gasPrice)
		blockNumber, blockHash := r.BlockNumber, r.BlockHash
		err = p.store.UpdateBatch(ids, func(pay *paymentstore.Payment) {
			pay.Status = paymentstore.Confirmed
			pay.Details.BlockNumber = blockNumber
			pay.Details.BlockHash = blockHash
			pay.Details.Fee = fee
			pay.ModifiedTS = now
		})
		if err != nil {
			log.Error("paymentpool: store failure confirming batch", "tx", r.TxHash, "err", err)
			return
		}
		p.sent.clear(r.TxHash)
		MetricsBatchConfirmed(len(ids))
		log.Info("paymentpool: batch confirmed", "tx", r.TxHash, "count", len(ids), "block", r.BlockNumber, "fee", fee)
	} else {
		err := p.store.UpdateBatch(ids, func(pay *paymentstore.Payment) {
			pay.Status = paymentstore.Awaiting
			pay.Details = paymentstore.Details{}
			pay.ModifiedTS = now
		})
		if err != nil {
			log.Error("paymentpool: store failure reverting failed batch", "tx", r.TxHash, "err", err)
			return
		}
		p.sent.clear(r.TxHash)
		for _, pay := range batch {
			reverted := pay.Clone()
			reverted.Status = paymentstore.Awaiting
			reverted.Details = paymentstore.Details{}
			reverted.ModifiedTS = now
			p.awaiting.add(reverted)
		}
		MetricsBatchFailed(len(ids))
		log.Warn("paymentpool: batch receipt failed, reinserted into awaiting", "tx", r.TxHash, "count", len(ids))
	}

	p.updateReservedMetrics()
	p.feed.Send(ConfirmationEvent{TxHash: r.TxHash, Success: success, SubtaskIDs: ids})
}

// UpdateOverdue implements spec §4.5: any awaiting payment past
// PaymentDeadline is promoted to Overdue without leaving the awaiting
// set.
func (p *Processor) UpdateOverdue() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock().Unix()
	deadline := int64(p.config.PaymentDeadline / time.Second)

	var toPromote []*paymentstore.Payment
	for _, pay := range p.awaiting.snapshot() {
		if pay.Status == paymentstore.Awaiting && now-pay.ProcessedTS > deadline {
			toPromote = append(toPromote, pay)
		}
	}
	if len(toPromote) == 0 {
		return nil
	}

	ids := make([]string, len(toPromote))
	for i, pay := range toPromote {
		ids[i] = pay.SubtaskID
	}
	if err := p.store.UpdateBatch(ids, func(pay *paymentstore.Payment) {
		pay.Status = paymentstore.Overdue
		pay.ModifiedTS = now
	}); err != nil {
		return fmt.Errorf("paymentpool: store failure promoting overdue payments: %w", err)
	}

	overdueCount := 0
	for _, pay := range toPromote {
		promoted := pay.Clone()
		promoted.Status = paymentstore.Overdue
		promoted.ModifiedTS = now
		p.awaiting.add(promoted)
	}
	for _, pay := range p.awaiting.snapshot() {
		if pay.Status == paymentstore.Overdue {
			overdueCount++
		}
	}
	MetricsOverdue(overdueCount)
	log.Info("paymentpool: promoted payments to overdue", "count", len(toPromote))
	return nil
}

// ReservedAmount is the sum of obligations not yet confirmed on-chain
// (spec §4.6): awaiting/overdue payments plus sent-but-unconfirmed
// ones.
func (p *Processor) ReservedAmount() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	sum := p.awaiting.reservedValue()
	sum.Add(sum, p.sent.reservedValue())
	return sum
}

// RecipientsCount is the cardinality of the in-memory awaiting set
// (spec §4.6); sent-but-unconfirmed payments are not counted.
func (p *Processor) RecipientsCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.awaiting.len()
}

// updateReservedMetrics must be called with p.mu held.
func (p *Processor) updateReservedMetrics() {
	MetricsAwaiting(p.awaiting.len(), p.awaiting.reservedValue().Int64())
	MetricsSentValue(p.sent.reservedValue().Int64())
}
