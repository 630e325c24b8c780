package migration

import (
	"errors"
	"testing"

	"github.com/zenopie/animal-swap/internal/pool"
)

const legacyRecord = `{
	"schema_version": 1,
	"manager": "secret1qqmanager",
	"base_token": {"contract": "secret1qqerth", "hash": "erthhash"},
	"quote_token": {"contract": "secret1qqfina", "hash": "finahash"},
	"quote_symbol": "FINA",
	"share_ledger": {"contract": "secret1qqshares", "hash": "sharehash"},
	"share_ledger_code_id": 7,
	"burn_contract": "secret1qqstaking",
	"burn_hash": "stakinghash",
	"registration": {"contract": "secret1qqregistry", "hash": "registryhash"},
	"base_reserve": 1000000,
	"quote_reserve": 2000000,
	"total_shares": 3000000,
	"protocol_fee_bps": 30
}`

// ============================================================
// Test: legacy schema transform
// ============================================================

func TestTransformMovesStakingFields(t *testing.T) {
	st, err := Transform([]byte(legacyRecord))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	if st.SchemaVersion != pool.SchemaVersion {
		t.Errorf("schema version = %d, want %d", st.SchemaVersion, pool.SchemaVersion)
	}
	if st.Staking.Contract != "secret1qqstaking" {
		t.Errorf("staking contract = %q, want burn_contract value", st.Staking.Contract)
	}
	if st.Staking.Hash != "stakinghash" {
		t.Errorf("staking hash = %q, want burn_hash value", st.Staking.Hash)
	}
}

func TestTransformPreservesBalancesAndConfig(t *testing.T) {
	st, err := Transform([]byte(legacyRecord))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	if st.BaseReserve.String() != "1000000" {
		t.Errorf("base reserve = %s, want 1000000", st.BaseReserve)
	}
	if st.QuoteReserve.String() != "2000000" {
		t.Errorf("quote reserve = %s, want 2000000", st.QuoteReserve)
	}
	if st.TotalShares.String() != "3000000" {
		t.Errorf("total shares = %s, want 3000000", st.TotalShares)
	}
	if st.ProtocolFeeBps != 30 {
		t.Errorf("fee = %d bps, want 30", st.ProtocolFeeBps)
	}
	if st.Manager != "secret1qqmanager" {
		t.Errorf("manager = %q", st.Manager)
	}
	if st.ShareLedger.Contract != "secret1qqshares" || st.ShareLedgerCodeID != 7 {
		t.Errorf("share ledger carried over wrong: %+v code_id=%d", st.ShareLedger, st.ShareLedgerCodeID)
	}
	if st.Registration.Contract != "secret1qqregistry" {
		t.Errorf("registration contract = %q", st.Registration.Contract)
	}
}

func TestTransformCurrentSchemaRejected(t *testing.T) {
	current := `{"schema_version": 2, "base_reserve": 0, "quote_reserve": 0, "total_shares": 0}`
	_, err := Transform([]byte(current))
	if !errors.Is(err, pool.ErrAlreadyMigrated) {
		t.Fatalf("got %v, want ErrAlreadyMigrated", err)
	}
}

func TestTransformGarbageRejected(t *testing.T) {
	_, err := Transform([]byte(`{not json`))
	if !errors.Is(err, pool.ErrStorageCorrupt) {
		t.Fatalf("got %v, want ErrStorageCorrupt", err)
	}
}

func TestTransformMissingNumericsRejected(t *testing.T) {
	_, err := Transform([]byte(`{"schema_version": 1, "manager": "secret1qqmanager"}`))
	if !errors.Is(err, pool.ErrStorageCorrupt) {
		t.Fatalf("got %v, want ErrStorageCorrupt", err)
	}
}
