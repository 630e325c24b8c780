package pool

import (
	"context"
	"math/big"
)

// Store provides transactional access to the pool's durable state: the
// singleton ledger record, the unclaimed-deposit map, and the processed-message
// log. All mutations performed through a StateTx commit or roll back together,
// which gives each engine invocation its all-or-nothing semantics.
type Store interface {
	// WithTx runs fn inside one transaction. A non-nil error from fn rolls the
	// transaction back and is returned unchanged.
	WithTx(ctx context.Context, fn func(tx StateTx) error) error
}

// StateTx is the per-transaction view of the store.
type StateTx interface {
	// LoadState returns the ledger record, or ErrStorageCorrupt if it is
	// absent or unreadable.
	LoadState() (*State, error)

	// LoadRawState returns the ledger record's raw serialized form without
	// decoding it into the current schema. Used by the migration handler.
	LoadRawState() ([]byte, error)

	// SaveState writes the ledger record (insert or replace).
	SaveState(s *State) error

	// Deposit returns the unclaimed deposit for addr, zero if none.
	Deposit(addr string) (*big.Int, error)

	// CreditDeposit adds amount to addr's unclaimed deposit.
	CreditDeposit(addr string, amount *big.Int) error

	// ZeroDeposit removes addr's unclaimed deposit entry.
	ZeroDeposit(addr string) error

	// SeenMessage reports whether msgID has already been processed.
	SeenMessage(msgID string) (bool, error)

	// MarkProcessed records msgID in the processed-message log.
	MarkProcessed(msgID, kind string) error
}
