package paymentpool

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/golemfactory/golem-payments/paymentpool/sci"
	"github.com/golemfactory/golem-payments/paymentstore"
)

// budget bundles the three scarce resources a candidate batch is
// clipped against (spec §4.3 step 4): payment-token balance,
// gas-asset balance, and the per-block gas fraction the core is
// willing to spend.
type budget struct {
	TokenBalance  *big.Int
	GasAssetBalance *uint256.Int
	GasPrice        *uint256.Int
	GasPerPayment       uint64
	GasBatchPaymentBase uint64
	BlockGasLimit       uint64
	BlockGasLimitRatio  uint64
}

// gasUnits returns GAS_BATCH_PAYMENT_BASE + k*GAS_PER_PAYMENT as a
// uint256, matching how go-ethereum's state transition accumulates
// intrinsic-plus-execution gas with uint256 rather than machine ints
// to avoid silent overflow on adversarial inputs.
func (b budget) gasUnits(k int) *uint256.Int {
	units := new(uint256.Int).SetUint64(b.GasPerPayment)
	units.Mul(units, uint256.NewInt(uint64(k)))
	units.Add(units, uint256.NewInt(b.GasBatchPaymentBase))
	return units
}

// fitsGasAsset reports whether including k payments keeps the
// gas-asset cost within balance (spec §4.3 step 4, first clause).
func (b budget) fitsGasAsset(k int) bool {
	cost := new(uint256.Int).Mul(b.gasUnits(k), b.GasPrice)
	return cost.Cmp(b.GasAssetBalance) <= 0
}

// fitsBlockGas reports whether including k payments stays within the
// block's willing-to-spend gas fraction (spec §4.3 step 4, second
// clause). BlockGasLimit/BlockGasLimitRatio is computed with integer
// division once, matching spec §9's "no floating-point arithmetic
// anywhere" invariant.
func (b budget) fitsBlockGas(k int) bool {
	allowance := b.BlockGasLimit / b.BlockGasLimitRatio
	return b.gasUnits(k).Uint64() <= allowance
}

// fitsTokenBalance reports whether the summed value of the first k
// sorted payments stays within the available token balance (spec
// §4.3 step 4, third clause).
func (b budget) fitsTokenBalance(sorted []*paymentstore.Payment, k int) bool {
	sum := new(big.Int)
	for i := 0; i < k; i++ {
		sum.Add(sum, sorted[i].Value)
	}
	return sum.Cmp(b.TokenBalance) <= 0
}

// maxIncluded returns the largest prefix length k <= len(sorted) that
// satisfies all three resource constraints simultaneously. Because
// every constraint is monotone in k (adding a payment never reduces
// cost), a linear scan that stops at the first failing prefix
// suffices, in the spirit of go-ethereum's legacypool walk over its
// sorted list. Each step re-checks all three constraints for the new
// prefix length; the token sum is recomputed from the start of the
// prefix every time rather than accumulated.
func (b budget) maxIncluded(sorted []*paymentstore.Payment) int {
	k := 0
	for k < len(sorted) {
		next := k + 1
		if !b.fitsTokenBalance(sorted, next) {
			break
		}
		if !b.fitsGasAsset(next) {
			break
		}
		if !b.fitsBlockGas(next) {
			break
		}
		k = next
	}
	return k
}

// newBudget builds a budget from live SCI query results (the
// converter's gate balance is not part of it), normalizing nil query results to zero so a misbehaving
// SCI can only ever clip a batch down to nothing rather than panic.
func newBudget(schedule sci.GasSchedule, tokenBalance, gasAssetBalance, gasPrice *big.Int, blockGasLimit, ratio uint64) budget {
	return budget{
		TokenBalance:        orZero(tokenBalance),
		GasAssetBalance:     bigToUint256(gasAssetBalance),
		GasPrice:            bigToUint256(gasPrice),
		GasPerPayment:       schedule.GasPerPayment,
		GasBatchPaymentBase: schedule.GasBatchPaymentBase,
		BlockGasLimit:       blockGasLimit,
		BlockGasLimitRatio:  ratio,
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func bigToUint256(v *big.Int) *uint256.Int {
	if v == nil || v.Sign() < 0 {
		return new(uint256.Int)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return u
}
