// Package engine is the transactional core of the pool: it applies one
// inbound message at a time against the durable ledger and emits the token
// instructions the execution layer must carry out. Every invocation is
// all-or-nothing: state mutation, idempotency record, and instruction set
// commit together or not at all.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/zenopie/animal-swap/internal/bootstrap"
	"github.com/zenopie/animal-swap/internal/migration"
	"github.com/zenopie/animal-swap/internal/msg"
	"github.com/zenopie/animal-swap/internal/observability"
	"github.com/zenopie/animal-swap/internal/pool"
	"github.com/zenopie/animal-swap/internal/token"
)

// Config carries the engine's identity and tuning knobs.
type Config struct {
	// SelfAddress is the pool's own on-chain address, used as the admin and
	// recipient on instructions it issues for itself.
	SelfAddress string
	// SelfCodeHash authenticates the pool to collaborator contracts.
	SelfCodeHash string
	// RefundDustThreshold suppresses liquidity-excess refunds at or below
	// this amount; the dust is absorbed rather than paid out as a transfer.
	RefundDustThreshold uint64
	// DedupCapacity sizes the in-memory tier of the idempotency check.
	DedupCapacity int
}

// Outcome is the result of a successfully applied invocation.
type Outcome struct {
	// Action names what happened, for logs and duplicate detection.
	Action string
	// Instructions are the outbound token actions to execute, in order.
	Instructions []token.Instruction
}

// Engine applies invocations against the pool ledger.
type Engine struct {
	store   pool.Store
	cfg     Config
	dedup   *lru.Cache[string, struct{}]
	boot    *bootstrap.Coordinator
	metrics *observability.Metrics
	log     zerolog.Logger
}

func New(store pool.Store, cfg Config, metrics *observability.Metrics, log zerolog.Logger) (*Engine, error) {
	if cfg.DedupCapacity <= 0 {
		cfg.DedupCapacity = 100000
	}
	cache, err := lru.New[string, struct{}](cfg.DedupCapacity)
	if err != nil {
		return nil, fmt.Errorf("create dedup cache: %w", err)
	}
	return &Engine{
		store:   store,
		cfg:     cfg,
		dedup:   cache,
		boot:    bootstrap.NewCoordinator(cfg.SelfCodeHash),
		metrics: metrics,
		log:     log,
	}, nil
}

// Execute applies one invocation. Duplicates (by MessageID) are detected in
// two tiers (an LRU cache, then the processed-message table inside the same
// transaction as the mutation) and resolve to a no-op Outcome, not an error.
func (e *Engine) Execute(ctx context.Context, inv msg.Invocation) (Outcome, error) {
	kind := inv.Msg.Kind().String()
	start := time.Now()

	if inv.MessageID == "" {
		return Outcome{}, fmt.Errorf("invocation missing message id")
	}

	if e.dedup.Contains(inv.MessageID) {
		e.metrics.IdempotencyDuplicates.WithLabelValues(kind, "lru").Inc()
		return Outcome{Action: "noop_duplicate"}, nil
	}

	var out Outcome
	var durableDup bool
	err := e.store.WithTx(ctx, func(tx pool.StateTx) error {
		seen, err := tx.SeenMessage(inv.MessageID)
		if err != nil {
			return err
		}
		if seen {
			durableDup = true
			return nil
		}

		out, err = e.dispatch(tx, inv)
		if err != nil {
			return err
		}
		return tx.MarkProcessed(inv.MessageID, kind)
	})
	if err != nil {
		reason := rejectReason(err)
		e.metrics.MsgsRejected.WithLabelValues(kind, reason).Inc()
		e.log.Warn().
			Err(err).
			Str("kind", kind).
			Str("message_id", inv.MessageID).
			Str("reason", reason).
			Msg("invocation rejected")
		return Outcome{}, err
	}

	if durableDup {
		// Backfill the LRU so later redeliveries skip the transaction.
		e.metrics.IdempotencyDuplicates.WithLabelValues(kind, "postgres").Inc()
		e.dedup.Add(inv.MessageID, struct{}{})
		e.metrics.DedupLRUSize.Set(float64(e.dedup.Len()))
		return Outcome{Action: "noop_duplicate"}, nil
	}

	e.dedup.Add(inv.MessageID, struct{}{})
	e.metrics.DedupLRUSize.Set(float64(e.dedup.Len()))
	e.metrics.MsgsApplied.WithLabelValues(kind).Inc()
	e.metrics.MsgDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	for _, in := range out.Instructions {
		e.metrics.InstructionsEmitted.WithLabelValues(string(in.Kind)).Inc()
	}

	e.log.Info().
		Str("kind", kind).
		Str("message_id", inv.MessageID).
		Str("action", out.Action).
		Int("instructions", len(out.Instructions)).
		Msg("invocation applied")
	return out, nil
}

func (e *Engine) dispatch(tx pool.StateTx, inv msg.Invocation) (Outcome, error) {
	switch m := inv.Msg.(type) {
	case *msg.Instantiate:
		return e.handleInstantiate(tx, m)
	case *msg.AddLiquidity:
		return e.handleAddLiquidity(tx, m)
	case *msg.UpdateConfig:
		return e.handleUpdateConfig(tx, m)
	case *msg.Receive:
		return e.handleReceive(tx, inv.Sender, m)
	case *msg.Reply:
		return e.handleReply(tx, m)
	case *msg.Migrate:
		return e.handleMigrate(tx)
	default:
		return Outcome{}, fmt.Errorf("unhandled message kind %s", inv.Msg.Kind())
	}
}

// handleInstantiate writes the initial ledger and emits the share-ledger
// instantiation. The ledger is not Ready until the correlated reply lands.
func (e *Engine) handleInstantiate(tx pool.StateTx, m *msg.Instantiate) (Outcome, error) {
	if m.ProtocolFeeBps > 10000 {
		return Outcome{}, fmt.Errorf("protocol fee %d bps out of range", m.ProtocolFeeBps)
	}

	st := &pool.State{
		SchemaVersion:     pool.SchemaVersion,
		Manager:           m.Manager,
		BaseToken:         m.BaseToken,
		QuoteToken:        m.QuoteToken,
		QuoteSymbol:       m.QuoteSymbol,
		ShareLedger:       pool.TokenRef{Hash: m.ShareLedgerHash},
		ShareLedgerCodeID: m.ShareLedgerCodeID,
		Staking:           m.Staking,
		Registration:      m.Registration,
		BaseReserve:       new(big.Int),
		QuoteReserve:      new(big.Int),
		TotalShares:       new(big.Int),
		ProtocolFeeBps:    m.ProtocolFeeBps,
	}
	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}

	child := token.ChildInit{
		CodeID:     m.ShareLedgerCodeID,
		CodeHash:   m.ShareLedgerHash,
		Name:       fmt.Sprintf("ERTH-%s Animal Swap LP Token", m.QuoteSymbol),
		Symbol:     m.QuoteSymbol + "LP",
		Admin:      e.cfg.SelfAddress,
		Decimals:   6,
		EnableMint: true,
		EnableBurn: true,
	}
	return Outcome{
		Action: "instantiate",
		Instructions: []token.Instruction{
			token.NewInstantiateChild(child, bootstrap.ReplyInstantiateShareLedger),
		},
	}, nil
}

// handleUpdateConfig mutates one ledger field. Manager-only; the key set is
// closed and each value is validated before the write.
func (e *Engine) handleUpdateConfig(tx pool.StateTx, m *msg.UpdateConfig) (Outcome, error) {
	st, err := tx.LoadState()
	if err != nil {
		return Outcome{}, err
	}
	if m.Caller != st.Manager {
		return Outcome{}, fmt.Errorf("%w: config update from %s", pool.ErrUnauthorized, m.Caller)
	}

	switch m.Key {
	case msg.ConfigKeyManager:
		if err := msg.ValidateAddr(m.Value); err != nil {
			return Outcome{}, err
		}
		st.Manager = m.Value
	case msg.ConfigKeyProtocolFeeBps:
		fee, err := parseFeeBps(m.Value)
		if err != nil {
			return Outcome{}, err
		}
		st.ProtocolFeeBps = fee
	case msg.ConfigKeyBaseHash:
		st.BaseToken.Hash = m.Value
	case msg.ConfigKeyQuoteHash:
		st.QuoteToken.Hash = m.Value
	case msg.ConfigKeyShareLedgerHash:
		st.ShareLedger.Hash = m.Value
	case msg.ConfigKeyStakingHash:
		st.Staking.Hash = m.Value
	case msg.ConfigKeyStakingContract:
		if err := msg.ValidateAddr(m.Value); err != nil {
			return Outcome{}, err
		}
		st.Staking.Contract = m.Value
	case msg.ConfigKeyRegistrationContract:
		if err := msg.ValidateAddr(m.Value); err != nil {
			return Outcome{}, err
		}
		st.Registration.Contract = m.Value
	case msg.ConfigKeyRegistrationHash:
		st.Registration.Hash = m.Value
	default:
		return Outcome{}, fmt.Errorf("%w: %q", pool.ErrInvalidConfigKey, m.Key)
	}

	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "update_config"}, nil
}

// handleReply finalizes a pending sub-call (share-ledger bootstrap).
func (e *Engine) handleReply(tx pool.StateTx, m *msg.Reply) (Outcome, error) {
	st, err := tx.LoadState()
	if err != nil {
		return Outcome{}, err
	}

	instrs, err := e.boot.Dispatch(st, m)
	if err != nil {
		return Outcome{}, err
	}

	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}
	return Outcome{Action: "bootstrap_complete", Instructions: instrs}, nil
}

// handleMigrate upgrades a legacy ledger record in place and re-registers
// the pool as receiver on its collaborator tokens.
func (e *Engine) handleMigrate(tx pool.StateTx) (Outcome, error) {
	raw, err := tx.LoadRawState()
	if err != nil {
		return Outcome{}, err
	}

	st, err := migration.Transform(raw)
	if err != nil {
		return Outcome{}, err
	}

	if err := e.persist(tx, st); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Action:       "migrate",
		Instructions: bootstrap.RegisterReceivers(st, e.cfg.SelfCodeHash),
	}, nil
}

// persist validates and saves the ledger, then refreshes the state gauges.
// An invariant violation here is a handler bug: the transaction has not
// committed, so crashing loud is safer than persisting a corrupt ledger.
func (e *Engine) persist(tx pool.StateTx, st *pool.State) error {
	if err := st.Validate(); err != nil {
		e.log.Error().Err(err).Msg("FATAL: ledger invariant violated")
		panic(fmt.Sprintf("FATAL: ledger invariant violated: %v", err))
	}
	if err := tx.SaveState(st); err != nil {
		return err
	}
	e.metrics.SetReserves(bigFloat(st.BaseReserve), bigFloat(st.QuoteReserve), bigFloat(st.TotalShares))
	return nil
}

func bigFloat(x *big.Int) float64 {
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}

func parseFeeBps(s string) (uint64, error) {
	fee, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fee %q: %w", s, err)
	}
	if fee > 10000 {
		return 0, fmt.Errorf("protocol fee %d bps out of range", fee)
	}
	return fee, nil
}

// rejectReason buckets errors for the rejection counter.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, pool.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, pool.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, pool.ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, pool.ErrSlippageExceeded):
		return "slippage"
	case errors.Is(err, pool.ErrInvalidConfigKey):
		return "invalid_config_key"
	case errors.Is(err, pool.ErrMalformedReply):
		return "malformed_reply"
	case errors.Is(err, pool.ErrUnknownReply):
		return "unknown_reply"
	case errors.Is(err, pool.ErrBootstrapPending):
		return "bootstrap_pending"
	case errors.Is(err, pool.ErrAlreadyMigrated):
		return "already_migrated"
	case errors.Is(err, pool.ErrStorageCorrupt):
		return "storage_corrupt"
	default:
		return "invalid"
	}
}
