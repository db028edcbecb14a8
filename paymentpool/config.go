package paymentpool

import (
	"errors"
	"fmt"
	"time"
)

// DefaultConfig mirrors the tunables named in spec §6, matching the
// style of preconf.DefaultTxPoolConfig / preconf.DefaultMinerConfig:
// a package-level default plus a struct the caller may override
// fields of before passing it to New.
var DefaultConfig = Config{
	PaymentMaxDelay:    6 * time.Hour,
	PaymentDeadline:    24 * time.Hour,
	BlockGasLimitRatio: 4,
	ClosureTimeDelay:   0,
	ConfirmationWorkers: 4,
}

// Config holds the scheduling tunables from spec §6.
type Config struct {
	// PaymentMaxDelay is the opportunistic-send threshold: a sendout
	// only proceeds once the oldest awaiting payment is this old,
	// unless the caller forces an immediate send with delay 0.
	PaymentMaxDelay time.Duration
	// PaymentDeadline is the overdue threshold. Must be >=
	// PaymentMaxDelay.
	PaymentDeadline time.Duration
	// BlockGasLimitRatio is the denominator of the fraction of a
	// block's gas limit the core is willing to consume in one batch
	// (spec §4.3 step 4): included gas must be <=
	// latest_block.gas_limit / BlockGasLimitRatio.
	BlockGasLimitRatio uint64
	// ClosureTimeDelay is hysteresis applied before a timestamp is
	// considered settleable; carried from the Python original's
	// CLOSURE_TIME_DELAY test knob (spec §6, SPEC_FULL §6). Processor
	// does not read it; it takes effect only when a caller passes it
	// as SendOut's closureTimeDelay argument, as cmd/paymentprocessord
	// does. Its default of 0 therefore means a forced send there.
	ClosureTimeDelay time.Duration
	// ConfirmationWorkers sizes the bounded worker pool the
	// confirmation handler hands receipts off to, so the SCI's
	// calling goroutine is never blocked on store I/O (spec §5).
	ConfirmationWorkers int
}

func (c Config) String() string {
	return fmt.Sprintf(
		"PaymentMaxDelay: %s, PaymentDeadline: %s, BlockGasLimitRatio: %d, ClosureTimeDelay: %s, ConfirmationWorkers: %d",
		c.PaymentMaxDelay, c.PaymentDeadline, c.BlockGasLimitRatio, c.ClosureTimeDelay, c.ConfirmationWorkers,
	)
}

// Validate enforces the invariant from spec §6: PAYMENT_DEADLINE >=
// PAYMENT_MAX_DELAY.
func (c Config) Validate() error {
	if c.PaymentDeadline < c.PaymentMaxDelay {
		return errors.New("paymentpool: PaymentDeadline must be >= PaymentMaxDelay")
	}
	if c.BlockGasLimitRatio == 0 {
		return errors.New("paymentpool: BlockGasLimitRatio must be > 0")
	}
	if c.ConfirmationWorkers <= 0 {
		return errors.New("paymentpool: ConfirmationWorkers must be > 0")
	}
	return nil
}
