// Package sci declares the Smart-Contract Interface and token-converter
// contracts the payment processor consumes (spec §6). Both are
// external collaborators per spec §1 — this package only names the
// capability set, expressed as Go interfaces in place of the Python
// original's duck typing (spec §9).
package sci

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GasSchedule bundles the three gas constants spec §6 says the core
// reads from the SCI. The Python original reads these off the sci
// object's attributes (sci.GAS_PRICE, ...); Go has no equivalent
// duck-typed attribute access, so Interface exposes them as a method
// returning this struct instead (documented as an Open Question
// resolution in DESIGN.md). The estimator reads GasPerPayment and
// GasBatchPaymentBase from it; the gas price it prices a batch at
// comes from GetCurrentGasPrice, and the GasPrice field is not read.
type GasSchedule struct {
	GasPrice            *big.Int
	GasPerPayment       uint64
	GasBatchPaymentBase uint64
}

// Block is the subset of on-chain block metadata the core needs.
type Block struct {
	Number    uint64
	Timestamp int64
	GasLimit  uint64
}

// Payment is a single leg of a batch transfer, as handed to
// BatchTransfer.
type Payment struct {
	Payee common.Address
	Value *big.Int
}

// Receipt is delivered to a ConfirmationHandler once a submitted
// batch's transaction is mined (spec §4.4).
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	BlockHash   common.Hash
	GasUsed     uint64
	// Status is 1 on success, 0 on failure, matching the Ethereum
	// receipt status convention spec §4.4 names directly.
	Status uint8
}

// ConfirmationHandler is the one-shot callback OnTransactionConfirmed
// registers against a specific transaction hash.
type ConfirmationHandler func(Receipt)

// Interface is the Smart-Contract Interface capability set from spec
// §6. The processor only ever calls these methods; it never signs,
// prices gas, or manages keys (spec §1 non-goals).
type Interface interface {
	GasSchedule() GasSchedule

	GetTokenBalance() (*big.Int, error)
	GetGasAssetBalance() (*big.Int, error)
	GetCurrentGasPrice() (*big.Int, error)
	GetLatestConfirmedBlock() (Block, error)
	GetLatestConfirmedBlockNumber() (uint64, error)
	GetBlockByNumber(number uint64) (Block, error)

	// BatchTransfer submits a batch transfer carrying the given
	// payments and closure time, returning the submitting
	// transaction's hash (0x-prefixed hex, per spec §6).
	BatchTransfer(payments []Payment, closureTime int64) (txHash string, err error)

	// OnTransactionConfirmed registers a one-shot callback fired when
	// txHash's receipt lands. Implementations must invoke handler from
	// a goroutine the caller does not own, exactly as the Python
	// original's sci.on_transaction_confirmed does from Twisted's
	// reactor thread (spec §4.4, §9).
	OnTransactionConfirmed(txHash string, handler ConfirmationHandler)

	// GetTransactionGasPrice returns the gas price a mined transaction
	// actually paid, used to compute Details.Fee on confirmation.
	GetTransactionGasPrice(txHash string) (*big.Int, error)
}

// Converter is the token-converter capability set from spec §6. The
// core aborts a sendout while IsConverting reports true (spec §4.3
// step 5); GetGateBalance is exposed for observability only — spec §9
// leaves its interaction with the token-balance check an open
// question, resolved in DESIGN.md by treating gate balance as
// unavailable until conversion completes.
type Converter interface {
	IsConverting() (bool, error)
	GetGateBalance() (*big.Int, error)
}
