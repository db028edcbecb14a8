package sci

import (
	"fmt"
	"math/big"
	"sync"
)

// Fake is a hand-rolled test double implementing Interface, the Go
// equivalent of the Python test suite's
// mock.Mock(spec=golem_sci.SmartContractsInterface). It records every
// BatchTransfer call and lets tests inject confirmation receipts by
// calling Confirm.
type Fake struct {
	mu sync.Mutex

	Schedule GasSchedule

	TokenBalance    *big.Int
	GasAssetBal     *big.Int
	CurrentGasPrice *big.Int
	LatestBlock     Block
	Blocks          map[uint64]Block
	TxGasPrice      map[string]*big.Int

	NextTxHash string
	Err        error // if set, BatchTransfer returns this error instead of submitting

	BatchTransferCalls []BatchTransferCall
	handlers           map[string]ConfirmationHandler
}

// BatchTransferCall records one invocation of BatchTransfer for test
// assertions.
type BatchTransferCall struct {
	Payments    []Payment
	ClosureTime int64
}

// NewFake returns a Fake pre-seeded with zero balances; tests override
// the fields they care about directly, matching how the Python suite
// configures self.sci.<attr>.return_value per test.
func NewFake() *Fake {
	return &Fake{
		TokenBalance:    new(big.Int),
		GasAssetBal:     new(big.Int),
		CurrentGasPrice: new(big.Int),
		Blocks:          make(map[uint64]Block),
		TxGasPrice:      make(map[string]*big.Int),
		handlers:        make(map[string]ConfirmationHandler),
	}
}

func (f *Fake) GasSchedule() GasSchedule { return f.Schedule }

func (f *Fake) GetTokenBalance() (*big.Int, error) { return f.TokenBalance, nil }

func (f *Fake) GetGasAssetBalance() (*big.Int, error) { return f.GasAssetBal, nil }

func (f *Fake) GetCurrentGasPrice() (*big.Int, error) { return f.CurrentGasPrice, nil }

func (f *Fake) GetLatestConfirmedBlock() (Block, error) { return f.LatestBlock, nil }

func (f *Fake) GetLatestConfirmedBlockNumber() (uint64, error) { return f.LatestBlock.Number, nil }

func (f *Fake) GetBlockByNumber(number uint64) (Block, error) {
	b, ok := f.Blocks[number]
	if !ok {
		return Block{}, fmt.Errorf("sci/fake: no block %d", number)
	}
	return b, nil
}

func (f *Fake) BatchTransfer(payments []Payment, closureTime int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BatchTransferCalls = append(f.BatchTransferCalls, BatchTransferCall{Payments: payments, ClosureTime: closureTime})
	if f.Err != nil {
		return "", f.Err
	}
	return f.NextTxHash, nil
}

func (f *Fake) OnTransactionConfirmed(txHash string, handler ConfirmationHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[txHash] = handler
}

func (f *Fake) GetTransactionGasPrice(txHash string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.TxGasPrice[txHash]; ok {
		return p, nil
	}
	return new(big.Int), nil
}

// Confirm invokes the handler registered for txHash, if any, exactly
// as the real SCI would from its own goroutine. Tests call this
// synchronously; the processor's confirmation handler is responsible
// for any further hand-off.
func (f *Fake) Confirm(r Receipt) {
	f.mu.Lock()
	handler, ok := f.handlers[r.TxHash]
	delete(f.handlers, r.TxHash)
	f.mu.Unlock()
	if ok {
		handler(r)
	}
}

// PendingHandlers reports how many confirmation callbacks are
// currently registered, used by restart-reconciliation tests.
func (f *Fake) PendingHandlers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// FakeConverter is a test double implementing Converter. Converting
// defaults to false, matching the common case tests care least about.
type FakeConverter struct {
	mu         sync.Mutex
	Converting bool
	GateBal    *big.Int
	Err        error
}

// NewFakeConverter returns a FakeConverter that reports "not
// converting" with a zero gate balance.
func NewFakeConverter() *FakeConverter {
	return &FakeConverter{GateBal: new(big.Int)}
}

func (c *FakeConverter) IsConverting() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return false, c.Err
	}
	return c.Converting, nil
}

func (c *FakeConverter) GetGateBalance() (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.GateBal, nil
}

// SetConverting toggles the converting flag under lock, for tests that
// flip it mid-run.
func (c *FakeConverter) SetConverting(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Converting = v
}
