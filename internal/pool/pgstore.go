package pool

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"
)

// PGStore is the Postgres-backed Store. The ledger lives in a single JSONB row,
// deposits in an address-keyed table, and processed message IDs in a log table
// that doubles as the cold tier of the idempotency check.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (ps *PGStore) WithTx(ctx context.Context, fn func(tx StateTx) error) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *pgTx) LoadState() (*State, error) {
	raw, err := t.LoadRawState()
	if err != nil {
		return nil, err
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode ledger: %v", ErrStorageCorrupt, err)
	}
	if s.BaseReserve == nil || s.QuoteReserve == nil || s.TotalShares == nil {
		return nil, fmt.Errorf("%w: ledger missing numeric fields", ErrStorageCorrupt)
	}
	return &s, nil
}

func (t *pgTx) LoadRawState() ([]byte, error) {
	var raw []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT data FROM pool_ledger WHERE id = 1`,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrStorageCorrupt
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return raw, nil
}

func (t *pgTx) SaveState(s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO pool_ledger (id, data, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, data)
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (t *pgTx) Deposit(addr string) (*big.Int, error) {
	var amountStr string
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT amount::TEXT FROM deposits WHERE address = $1`, addr,
	).Scan(&amountStr)
	if err == sql.ErrNoRows {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load deposit: %w", err)
	}

	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, fmt.Errorf("%w: deposit amount %q not numeric", ErrStorageCorrupt, amountStr)
	}
	return amount, nil
}

func (t *pgTx) CreditDeposit(addr string, amount *big.Int) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO deposits (address, amount)
		VALUES ($1, $2::NUMERIC)
		ON CONFLICT (address) DO UPDATE SET amount = deposits.amount + EXCLUDED.amount
	`, addr, amount.String())
	if err != nil {
		return fmt.Errorf("credit deposit: %w", err)
	}
	return nil
}

func (t *pgTx) ZeroDeposit(addr string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM deposits WHERE address = $1`, addr,
	)
	if err != nil {
		return fmt.Errorf("zero deposit: %w", err)
	}
	return nil
}

func (t *pgTx) SeenMessage(msgID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_messages WHERE message_id = $1)`, msgID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return exists, nil
}

func (t *pgTx) MarkProcessed(msgID, kind string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO processed_messages (message_id, kind) VALUES ($1, $2)`,
		msgID, kind,
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}
