package pool

import "errors"

// Sentinel errors for the pool core. Every failure path surfaces one of these
// (possibly wrapped with context) and causes full rollback of the invocation.
var (
	// ErrUnauthorized: wrong caller for a privileged or manager-only operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken: input asset matches neither reserve.
	ErrInvalidToken = errors.New("invalid input token")

	// ErrInsufficientLiquidity: computed output would exceed the opposing reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in reserves")

	// ErrSlippageExceeded: final-leg output below the caller-specified minimum.
	ErrSlippageExceeded = errors.New("output amount is less than the minimum received amount")

	// ErrInvalidConfigKey: config update with an unrecognized key.
	ErrInvalidConfigKey = errors.New("invalid config key")

	// ErrMalformedReply: bootstrap reply missing the expected creation event
	// or contract-address attribute.
	ErrMalformedReply = errors.New("malformed bootstrap reply")

	// ErrUnknownReply: reply with a correlation ID nothing is waiting on.
	ErrUnknownReply = errors.New("unknown reply id")

	// ErrStorageCorrupt: ledger record absent or unreadable.
	ErrStorageCorrupt = errors.New("pool ledger missing or unreadable")

	// ErrBootstrapPending: operation requires the share ledger, which has not
	// been instantiated yet.
	ErrBootstrapPending = errors.New("share ledger not yet instantiated")

	// ErrAlreadyMigrated: ledger is already at the current schema version.
	ErrAlreadyMigrated = errors.New("ledger already at current schema version")
)
