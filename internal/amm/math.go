// Package amm implements the constant-product arithmetic for a two-asset
// pool. All functions are pure: they allocate fresh big.Ints and never mutate
// their arguments, so callers apply reserve deltas explicitly.
package amm

import (
	"math/big"

	"github.com/zenopie/animal-swap/internal/pool"
)

var bpsDenominator = big.NewInt(10000)

// FeeSplit divides an input amount into the protocol fee and the fee-net
// remainder: fee = amount * feeBps / 10000 (rounds down), net = amount - fee.
func FeeSplit(amount *big.Int, feeBps uint64) (fee, net *big.Int) {
	fee = new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
	fee.Quo(fee, bpsDenominator)
	net = new(big.Int).Sub(amount, fee)
	return fee, net
}

// ConstantProductOutput prices an input against the pool:
//
//	output = netInput * reserveOut / (reserveIn + netInput)
//
// Returns ErrInsufficientLiquidity when either reserve is empty: a drained
// side cannot price or pay out a trade, and callers must see the rejection
// before mutating any reserve. With both reserves positive the formula bounds
// output strictly below reserveOut; the final check is a guard against that
// ever changing.
func ConstantProductOutput(netInput, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, pool.ErrInsufficientLiquidity
	}

	output := new(big.Int).Mul(netInput, reserveOut)
	output.Quo(output, new(big.Int).Add(reserveIn, netInput))

	if output.Cmp(reserveOut) > 0 {
		return nil, pool.ErrInsufficientLiquidity
	}
	return output, nil
}

// InitialShares is the bootstrap convention for an empty pool: the first
// depositor receives amountBase + amountQuote shares and sets the ratio.
func InitialShares(amountBase, amountQuote *big.Int) *big.Int {
	return new(big.Int).Add(amountBase, amountQuote)
}

// ProportionalShares computes the shares minted for a deposit against a funded
// pool, limited by the smaller proportional contribution:
//
//	shares = min(amountBase*T/Rb, amountQuote*T/Rq)
//
// The consumed amounts are recomputed from the minted shares (rounds down), so
// the non-limiting asset's consumed amount never exceeds what the ratio
// requires; the caller refunds the excess.
func ProportionalShares(amountBase, amountQuote, baseReserve, quoteReserve, totalShares *big.Int) (shares, usedBase, usedQuote *big.Int) {
	shareBase := new(big.Int).Mul(amountBase, totalShares)
	shareBase.Quo(shareBase, baseReserve)

	shareQuote := new(big.Int).Mul(amountQuote, totalShares)
	shareQuote.Quo(shareQuote, quoteReserve)

	shares = shareBase
	if shareQuote.Cmp(shareBase) < 0 {
		shares = shareQuote
	}

	usedBase = new(big.Int).Mul(shares, baseReserve)
	usedBase.Quo(usedBase, totalShares)

	usedQuote = new(big.Int).Mul(shares, quoteReserve)
	usedQuote.Quo(usedQuote, totalShares)

	return shares, usedBase, usedQuote
}

// RedeemAmounts computes the pro-rata withdrawal for burning shares:
//
//	amount = shares * reserve / totalShares
//
// Rounds down; residual dust stays in the reserves, bounded by totalShares.
func RedeemAmounts(shares, baseReserve, quoteReserve, totalShares *big.Int) (outBase, outQuote *big.Int) {
	outBase = new(big.Int).Mul(shares, baseReserve)
	outBase.Quo(outBase, totalShares)

	outQuote = new(big.Int).Mul(shares, quoteReserve)
	outQuote.Quo(outQuote, totalShares)

	return outBase, outQuote
}
