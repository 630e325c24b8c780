// Package migration rewrites version-1 ledger records, which kept the staking
// collaborator under burn_* field names, into the current schema.
package migration

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/zenopie/animal-swap/internal/pool"
)

// legacyState is the version-1 on-disk layout.
type legacyState struct {
	SchemaVersion int `json:"schema_version"`

	Manager string `json:"manager"`

	BaseToken   legacyTokenRef `json:"base_token"`
	QuoteToken  legacyTokenRef `json:"quote_token"`
	QuoteSymbol string         `json:"quote_symbol"`

	ShareLedger       legacyTokenRef `json:"share_ledger"`
	ShareLedgerCodeID uint64         `json:"share_ledger_code_id"`

	// The staking collaborator travelled under burn_* names in version 1.
	BurnContract string `json:"burn_contract"`
	BurnHash     string `json:"burn_hash"`

	Registration legacyTokenRef `json:"registration"`

	BaseReserve  *big.Int `json:"base_reserve"`
	QuoteReserve *big.Int `json:"quote_reserve"`
	TotalShares  *big.Int `json:"total_shares"`

	ProtocolFeeBps uint64 `json:"protocol_fee_bps"`
}

type legacyTokenRef struct {
	Contract string `json:"contract"`
	Hash     string `json:"hash"`
}

// Transform upgrades a raw ledger record to the current schema. Balances,
// collaborator identities, and the fee rate carry over untouched; only the
// staking fields move. Returns ErrAlreadyMigrated when the record is current.
func Transform(raw []byte) (*pool.State, error) {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: decode ledger: %v", pool.ErrStorageCorrupt, err)
	}
	if probe.SchemaVersion >= pool.SchemaVersion {
		return nil, pool.ErrAlreadyMigrated
	}

	var old legacyState
	if err := json.Unmarshal(raw, &old); err != nil {
		return nil, fmt.Errorf("%w: decode legacy ledger: %v", pool.ErrStorageCorrupt, err)
	}
	if old.BaseReserve == nil || old.QuoteReserve == nil || old.TotalShares == nil {
		return nil, fmt.Errorf("%w: legacy ledger missing numeric fields", pool.ErrStorageCorrupt)
	}

	st := &pool.State{
		SchemaVersion: pool.SchemaVersion,
		Manager:       old.Manager,
		BaseToken:     pool.TokenRef{Contract: old.BaseToken.Contract, Hash: old.BaseToken.Hash},
		QuoteToken:    pool.TokenRef{Contract: old.QuoteToken.Contract, Hash: old.QuoteToken.Hash},
		QuoteSymbol:   old.QuoteSymbol,
		ShareLedger: pool.TokenRef{
			Contract: old.ShareLedger.Contract,
			Hash:     old.ShareLedger.Hash,
		},
		ShareLedgerCodeID: old.ShareLedgerCodeID,
		Staking:           pool.TokenRef{Contract: old.BurnContract, Hash: old.BurnHash},
		Registration:      pool.TokenRef{Contract: old.Registration.Contract, Hash: old.Registration.Hash},
		BaseReserve:       new(big.Int).Set(old.BaseReserve),
		QuoteReserve:      new(big.Int).Set(old.QuoteReserve),
		TotalShares:       new(big.Int).Set(old.TotalShares),
		ProtocolFeeBps:    old.ProtocolFeeBps,
	}

	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: migrated ledger invalid: %v", pool.ErrStorageCorrupt, err)
	}
	return st, nil
}
