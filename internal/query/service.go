// Package query serves read-only views of the pool ledger: current state,
// unclaimed deposits, and swap simulation. Reads run in their own storage
// transactions and never mutate anything.
package query

import (
	"context"
	"fmt"
	"math/big"

	"github.com/zenopie/animal-swap/internal/amm"
	"github.com/zenopie/animal-swap/internal/pool"
)

// Service answers queries against the durable ledger.
type Service struct {
	store pool.Store
}

func NewService(store pool.Store) *Service {
	return &Service{store: store}
}

// PoolState returns the full ledger view.
func (s *Service) PoolState(ctx context.Context) (*PoolStateResponse, error) {
	st, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}

	return &PoolStateResponse{
		Manager:        st.Manager,
		BaseToken:      st.BaseToken,
		QuoteToken:     st.QuoteToken,
		QuoteSymbol:    st.QuoteSymbol,
		ShareLedger:    st.ShareLedger,
		Staking:        st.Staking,
		Registration:   st.Registration,
		BaseReserve:    st.BaseReserve.String(),
		QuoteReserve:   st.QuoteReserve.String(),
		TotalShares:    st.TotalShares.String(),
		ProtocolFeeBps: st.ProtocolFeeBps,
		Ready:          st.Ready(),
	}, nil
}

// UnclaimedDeposit returns the recorded deposit for an address, zero when
// the address has none.
func (s *Service) UnclaimedDeposit(ctx context.Context, addr string) (*DepositResponse, error) {
	var amount string
	err := s.store.WithTx(ctx, func(tx pool.StateTx) error {
		d, err := tx.Deposit(addr)
		if err != nil {
			return err
		}
		amount = d.String()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DepositResponse{Address: addr, Amount: amount}, nil
}

// SimulateSwap prices an input against current reserves without touching
// them. Input names the side the trader pays: "base" or "quote".
func (s *Service) SimulateSwap(ctx context.Context, input, amountStr string) (*SimulationResponse, error) {
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", amountStr)
	}

	st, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}

	fee, net := amm.FeeSplit(amount, st.ProtocolFeeBps)

	reserveIn, reserveOut := st.BaseReserve, st.QuoteReserve
	switch input {
	case "base":
	case "quote":
		reserveIn, reserveOut = st.QuoteReserve, st.BaseReserve
	default:
		return nil, fmt.Errorf("%w: input side %q", pool.ErrInvalidToken, input)
	}

	output, err := amm.ConstantProductOutput(net, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}

	return &SimulationResponse{
		ProtocolFeeAmount: fee.String(),
		OutputAmount:      output.String(),
	}, nil
}

func (s *Service) loadState(ctx context.Context) (*pool.State, error) {
	var st *pool.State
	err := s.store.WithTx(ctx, func(tx pool.StateTx) error {
		var err error
		st, err = tx.LoadState()
		return err
	})
	return st, err
}
