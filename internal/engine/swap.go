package engine

import (
	"fmt"
	"math/big"

	"github.com/zenopie/animal-swap/internal/amm"
	"github.com/zenopie/animal-swap/internal/msg"
	"github.com/zenopie/animal-swap/internal/pool"
	"github.com/zenopie/animal-swap/internal/token"
)

// handleReceive routes a token-delivered payload. Sender is the token
// contract that notified us, which is the authentication for every branch.
func (e *Engine) handleReceive(tx pool.StateTx, sender string, m *msg.Receive) (Outcome, error) {
	st, err := tx.LoadState()
	if err != nil {
		return Outcome{}, err
	}
	if !st.Ready() {
		return Outcome{}, pool.ErrBootstrapPending
	}

	switch a := m.Action.(type) {
	case *msg.SwapAction:
		return e.swap(tx, st, sender, m, a)
	case *msg.RemoveLiquidityAction:
		if sender != st.ShareLedger.Contract {
			return Outcome{}, fmt.Errorf("%w: shares from %s", pool.ErrUnauthorized, sender)
		}
		return e.removeLiquidity(tx, st, m.From, m.Amount)
	case *msg.BaseBuybackAction:
		return e.baseBuyback(tx, st, sender, m)
	case *msg.QuoteBuybackAction:
		return e.quoteBuyback(tx, st, sender, m)
	default:
		return Outcome{}, fmt.Errorf("unhandled receive action %T", m.Action)
	}
}

// swap executes a fee-bearing trade of the received asset for the opposing
// one. The protocol fee is always forwarded to the staking collaborator in
// base terms: a base-side fee ships directly, a quote-side fee is first
// converted through the pool feelessly.
func (e *Engine) swap(tx pool.StateTx, st *pool.State, sender string, m *msg.Receive, a *msg.SwapAction) (Outcome, error) {
	var inputBase bool
	switch sender {
	case st.BaseToken.Contract:
		inputBase = true
	case st.QuoteToken.Contract:
		inputBase = false
	default:
		return Outcome{}, fmt.Errorf("%w: received from %s", pool.ErrInvalidToken, sender)
	}

	fee, net := amm.FeeSplit(m.Amount, st.ProtocolFeeBps)

	var output, feeBase, volume *big.Int
	if inputBase {
		out, err := amm.ConstantProductOutput(net, st.BaseReserve, st.QuoteReserve)
		if err != nil {
			return Outcome{}, err
		}
		output = out

		// Slippage binds on the final leg only; a hop forwards the floor.
		if a.Hop == nil && a.MinReceived != nil && output.Cmp(a.MinReceived) < 0 {
			return Outcome{}, fmt.Errorf("%w: %s < %s", pool.ErrSlippageExceeded, output, a.MinReceived)
		}

		// The fee never enters the reserves on this side; it ships to
		// staking as-is.
		st.BaseReserve.Add(st.BaseReserve, net)
		st.QuoteReserve.Sub(st.QuoteReserve, output)
		feeBase = fee
		volume = new(big.Int).Set(net)
	} else {
		out, err := amm.ConstantProductOutput(net, st.QuoteReserve, st.BaseReserve)
		if err != nil {
			return Outcome{}, err
		}
		output = out

		if a.Hop == nil && a.MinReceived != nil && output.Cmp(a.MinReceived) < 0 {
			return Outcome{}, fmt.Errorf("%w: %s < %s", pool.ErrSlippageExceeded, output, a.MinReceived)
		}

		st.QuoteReserve.Add(st.QuoteReserve, net)
		st.BaseReserve.Sub(st.BaseReserve, output)

		// Volume reporting is base-denominated: price the net input at the
		// post-trade spot ratio.
		volume = new(big.Int).Mul(net, st.BaseReserve)
		volume.Quo(volume, st.QuoteReserve)

		// Convert the quote-side fee to base with a feeless pass through
		// the updated reserves, then absorb the fee into the pool.
		converted, err := amm.ConstantProductOutput(fee, st.QuoteReserve, st.BaseReserve)
		if err != nil {
			return Outcome{}, err
		}
		st.QuoteReserve.Add(st.QuoteReserve, fee)
		st.BaseReserve.Sub(st.BaseReserve, converted)
		feeBase = converted
	}

	var instrs []token.Instruction
	if feeBase.Sign() > 0 {
		instrs = append(instrs, token.NewSend(
			st.BaseToken.Contract, st.BaseToken.Hash,
			st.Staking.Contract, st.Staking.Hash,
			feeBase,
			&token.Callback{BurnBase: &token.BurnBase{
				TradeVolume:    volume,
				TotalLiquidity: new(big.Int).Lsh(st.BaseReserve, 1),
				TotalShares:    new(big.Int).Set(st.TotalShares),
			}},
		))
	}

	outToken := st.QuoteToken
	inputLabel := "base"
	if !inputBase {
		outToken = st.BaseToken
		inputLabel = "quote"
	}

	beneficiary := m.From
	if a.Beneficiary != "" {
		beneficiary = a.Beneficiary
	}

	delivery := "direct"
	if a.Hop != nil {
		delivery = "hop"
		instrs = append(instrs, token.NewSend(
			outToken.Contract, outToken.Hash,
			a.Hop.Contract, a.Hop.Hash,
			output,
			&token.Callback{Swap: &token.SwapCallback{
				MinReceived: a.MinReceived,
				Beneficiary: beneficiary,
			}},
		))
	} else {
		instrs = append(instrs, token.NewTransfer(
			outToken.Contract, outToken.Hash, beneficiary, output))
	}

	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}
	e.metrics.SwapsExecuted.WithLabelValues(inputLabel, delivery).Inc()
	return Outcome{Action: "swap", Instructions: instrs}, nil
}

// baseBuyback is the staking collaborator's feeless quote-to-base channel.
// Both the notifying token and the originating account are checked; either
// mismatch is an authorization failure, not a token mismatch.
func (e *Engine) baseBuyback(tx pool.StateTx, st *pool.State, sender string, m *msg.Receive) (Outcome, error) {
	if m.From != st.Staking.Contract || sender != st.QuoteToken.Contract {
		return Outcome{}, fmt.Errorf("%w: base buyback from %s via %s", pool.ErrUnauthorized, m.From, sender)
	}

	output, err := amm.ConstantProductOutput(m.Amount, st.QuoteReserve, st.BaseReserve)
	if err != nil {
		return Outcome{}, err
	}
	st.QuoteReserve.Add(st.QuoteReserve, m.Amount)
	st.BaseReserve.Sub(st.BaseReserve, output)

	var instrs []token.Instruction
	if output.Sign() > 0 {
		instrs = append(instrs, token.NewSend(
			st.BaseToken.Contract, st.BaseToken.Hash,
			st.Staking.Contract, st.Staking.Hash,
			output,
			&token.Callback{BurnBase: &token.BurnBase{
				TradeVolume:    new(big.Int),
				TotalLiquidity: new(big.Int).Lsh(st.BaseReserve, 1),
				TotalShares:    new(big.Int).Set(st.TotalShares),
			}},
		))
	}

	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "base_buyback", Instructions: instrs}, nil
}

// quoteBuyback is the registration collaborator's feeless base-to-quote
// channel; the proceeds go to staking for burning.
func (e *Engine) quoteBuyback(tx pool.StateTx, st *pool.State, sender string, m *msg.Receive) (Outcome, error) {
	if m.From != st.Registration.Contract || sender != st.BaseToken.Contract {
		return Outcome{}, fmt.Errorf("%w: quote buyback from %s via %s", pool.ErrUnauthorized, m.From, sender)
	}

	output, err := amm.ConstantProductOutput(m.Amount, st.BaseReserve, st.QuoteReserve)
	if err != nil {
		return Outcome{}, err
	}
	st.BaseReserve.Add(st.BaseReserve, m.Amount)
	st.QuoteReserve.Sub(st.QuoteReserve, output)

	var instrs []token.Instruction
	if output.Sign() > 0 {
		instrs = append(instrs, token.NewSend(
			st.QuoteToken.Contract, st.QuoteToken.Hash,
			st.Staking.Contract, st.Staking.Hash,
			output,
			&token.Callback{BurnQuote: &token.BurnQuote{}},
		))
	}

	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "quote_buyback", Instructions: instrs}, nil
}
