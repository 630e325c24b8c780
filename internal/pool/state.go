package pool

import (
	"fmt"
	"math/big"
)

// SchemaVersion is the current on-disk layout of the ledger record.
// Version 1 kept the staking collaborator under burn_* field names; the
// migration handler rewrites it to version 2.
const SchemaVersion = 2

// TokenRef identifies a collaborator contract: its address plus the code hash
// used to authenticate outbound calls to it.
type TokenRef struct {
	Contract string `json:"contract"`
	Hash     string `json:"hash"`
}

// State is the Pool Ledger: the singleton durable record of reserves, shares,
// fee rate, and collaborator identities for one deployed pair.
//
// It is an exclusively-owned handle: every operation loads it, mutates a local
// copy, and persists it exactly once per invocation.
type State struct {
	SchemaVersion int `json:"schema_version"`

	// Manager may mutate configuration fields.
	Manager string `json:"manager"`

	BaseToken   TokenRef `json:"base_token"`
	QuoteToken  TokenRef `json:"quote_token"`
	QuoteSymbol string   `json:"quote_symbol"`

	// ShareLedger is the dependent liquidity-share token. Contract is the
	// empty sentinel until bootstrap completes.
	ShareLedger       TokenRef `json:"share_ledger"`
	ShareLedgerCodeID uint64   `json:"share_ledger_code_id"`

	Staking      TokenRef `json:"staking"`
	Registration TokenRef `json:"registration"`

	BaseReserve  *big.Int `json:"base_reserve"`
	QuoteReserve *big.Int `json:"quote_reserve"`
	TotalShares  *big.Int `json:"total_shares"`

	// ProtocolFeeBps is the swap fee in basis points, 0..10000.
	ProtocolFeeBps uint64 `json:"protocol_fee_bps"`
}

// Ready reports whether bootstrap has completed (share ledger instantiated).
func (s *State) Ready() bool {
	return s.ShareLedger.Contract != ""
}

// Validate checks the ledger invariants. A violation after a handler has run
// indicates a bug in the handler, not bad input.
func (s *State) Validate() error {
	if s.BaseReserve == nil || s.QuoteReserve == nil || s.TotalShares == nil {
		return fmt.Errorf("nil numeric field")
	}
	if s.BaseReserve.Sign() < 0 {
		return fmt.Errorf("negative base reserve %s", s.BaseReserve)
	}
	if s.QuoteReserve.Sign() < 0 {
		return fmt.Errorf("negative quote reserve %s", s.QuoteReserve)
	}
	if s.TotalShares.Sign() < 0 {
		return fmt.Errorf("negative total shares %s", s.TotalShares)
	}
	if s.ProtocolFeeBps > 10000 {
		return fmt.Errorf("protocol fee %d bps out of range", s.ProtocolFeeBps)
	}

	// total_shares == 0 <=> both reserves == 0
	empty := s.BaseReserve.Sign() == 0 && s.QuoteReserve.Sign() == 0
	if s.TotalShares.Sign() == 0 && !empty {
		return fmt.Errorf("reserves funded with zero shares outstanding")
	}
	if s.TotalShares.Sign() > 0 && empty {
		return fmt.Errorf("shares outstanding against empty reserves")
	}

	return nil
}
