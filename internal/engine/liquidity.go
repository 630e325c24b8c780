package engine

import (
	"fmt"
	"math/big"

	"github.com/zenopie/animal-swap/internal/amm"
	"github.com/zenopie/animal-swap/internal/msg"
	"github.com/zenopie/animal-swap/internal/pool"
	"github.com/zenopie/animal-swap/internal/token"
)

// handleAddLiquidity pulls both assets from the provider under a prior
// allowance and mints shares. On a funded pool the deposit is consumed only
// up to the reserve ratio; the non-limiting asset's excess is refunded unless
// it is at or below the dust threshold.
func (e *Engine) handleAddLiquidity(tx pool.StateTx, m *msg.AddLiquidity) (Outcome, error) {
	st, err := tx.LoadState()
	if err != nil {
		return Outcome{}, err
	}
	if !st.Ready() {
		return Outcome{}, pool.ErrBootstrapPending
	}
	if m.AmountBase.Sign() == 0 && m.AmountQuote.Sign() == 0 {
		return Outcome{}, fmt.Errorf("zero liquidity deposit")
	}

	var shares, usedBase, usedQuote *big.Int
	if st.TotalShares.Sign() == 0 {
		shares = amm.InitialShares(m.AmountBase, m.AmountQuote)
		usedBase = new(big.Int).Set(m.AmountBase)
		usedQuote = new(big.Int).Set(m.AmountQuote)
	} else {
		// A one-sided pool (one reserve drained to zero) cannot price a
		// proportional deposit.
		if st.BaseReserve.Sign() == 0 || st.QuoteReserve.Sign() == 0 {
			return Outcome{}, fmt.Errorf("%w: one-sided reserves", pool.ErrInsufficientLiquidity)
		}
		shares, usedBase, usedQuote = amm.ProportionalShares(
			m.AmountBase, m.AmountQuote, st.BaseReserve, st.QuoteReserve, st.TotalShares)
		if shares.Sign() == 0 {
			return Outcome{}, fmt.Errorf("deposit too small to mint shares")
		}
	}

	instrs := make([]token.Instruction, 0, 5)
	if m.AmountBase.Sign() > 0 {
		instrs = append(instrs, token.NewTransferFrom(
			st.BaseToken.Contract, st.BaseToken.Hash,
			m.Provider, e.cfg.SelfAddress, m.AmountBase))
	}
	if m.AmountQuote.Sign() > 0 {
		instrs = append(instrs, token.NewTransferFrom(
			st.QuoteToken.Contract, st.QuoteToken.Hash,
			m.Provider, e.cfg.SelfAddress, m.AmountQuote))
	}

	dust := new(big.Int).SetUint64(e.cfg.RefundDustThreshold)
	if excess := new(big.Int).Sub(m.AmountBase, usedBase); excess.Cmp(dust) > 0 {
		instrs = append(instrs, token.NewTransfer(
			st.BaseToken.Contract, st.BaseToken.Hash, m.Provider, excess))
	}
	if excess := new(big.Int).Sub(m.AmountQuote, usedQuote); excess.Cmp(dust) > 0 {
		instrs = append(instrs, token.NewTransfer(
			st.QuoteToken.Contract, st.QuoteToken.Hash, m.Provider, excess))
	}

	instrs = append(instrs, token.NewMint(
		st.ShareLedger.Contract, st.ShareLedger.Hash, m.Provider, shares))

	st.BaseReserve.Add(st.BaseReserve, usedBase)
	st.QuoteReserve.Add(st.QuoteReserve, usedQuote)
	st.TotalShares.Add(st.TotalShares, shares)

	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}
	e.metrics.LiquidityEvents.WithLabelValues("add").Inc()
	return Outcome{Action: "add_liquidity", Instructions: instrs}, nil
}

// removeLiquidity burns shares delivered via the share ledger's Receive
// notification and pays out both reserves pro rata.
func (e *Engine) removeLiquidity(tx pool.StateTx, st *pool.State, from string, shares *big.Int) (Outcome, error) {
	if shares.Sign() == 0 {
		return Outcome{}, fmt.Errorf("zero share redemption")
	}
	if st.TotalShares.Sign() == 0 || shares.Cmp(st.TotalShares) > 0 {
		return Outcome{}, fmt.Errorf("%w: redeem %s of %s shares",
			pool.ErrInsufficientLiquidity, shares, st.TotalShares)
	}

	outBase, outQuote := amm.RedeemAmounts(shares, st.BaseReserve, st.QuoteReserve, st.TotalShares)

	st.BaseReserve.Sub(st.BaseReserve, outBase)
	st.QuoteReserve.Sub(st.QuoteReserve, outQuote)
	st.TotalShares.Sub(st.TotalShares, shares)

	instrs := []token.Instruction{
		token.NewBurn(st.ShareLedger.Contract, st.ShareLedger.Hash, shares),
	}
	if outBase.Sign() > 0 {
		instrs = append(instrs, token.NewTransfer(
			st.BaseToken.Contract, st.BaseToken.Hash, from, outBase))
	}
	if outQuote.Sign() > 0 {
		instrs = append(instrs, token.NewTransfer(
			st.QuoteToken.Contract, st.QuoteToken.Hash, from, outQuote))
	}

	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}
	e.metrics.LiquidityEvents.WithLabelValues("remove").Inc()
	return Outcome{Action: "remove_liquidity", Instructions: instrs}, nil
}
