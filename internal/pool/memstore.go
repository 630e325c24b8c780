package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
)

// MemStore is an in-memory Store with the same transactional contract as
// PGStore: mutations made through the StateTx are staged and only become
// visible when the callback returns nil. Used by engine tests and by swap
// simulation against a detached copy of state.
type MemStore struct {
	raw       []byte // serialized ledger, nil until first save
	deposits  map[string]*big.Int
	processed map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		deposits:  make(map[string]*big.Int),
		processed: make(map[string]string),
	}
}

// Seed installs a ledger record directly, bypassing the transaction boundary.
func (ms *MemStore) Seed(s *State) {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("seed ledger: %v", err))
	}
	ms.raw = data
}

// SeedRaw installs raw ledger bytes (e.g. a legacy-schema record).
func (ms *MemStore) SeedRaw(raw []byte) {
	ms.raw = append([]byte(nil), raw...)
}

func (ms *MemStore) WithTx(_ context.Context, fn func(tx StateTx) error) error {
	stage := &memTx{
		raw:       ms.raw,
		deposits:  make(map[string]*big.Int, len(ms.deposits)),
		processed: make(map[string]string, len(ms.processed)),
	}
	for k, v := range ms.deposits {
		stage.deposits[k] = new(big.Int).Set(v)
	}
	for k, v := range ms.processed {
		stage.processed[k] = v
	}

	if err := fn(stage); err != nil {
		return err
	}

	ms.raw = stage.raw
	ms.deposits = stage.deposits
	ms.processed = stage.processed
	return nil
}

type memTx struct {
	raw       []byte
	deposits  map[string]*big.Int
	processed map[string]string
}

func (t *memTx) LoadState() (*State, error) {
	if t.raw == nil {
		return nil, ErrStorageCorrupt
	}
	var s State
	if err := json.Unmarshal(t.raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode ledger: %v", ErrStorageCorrupt, err)
	}
	if s.BaseReserve == nil || s.QuoteReserve == nil || s.TotalShares == nil {
		return nil, fmt.Errorf("%w: ledger missing numeric fields", ErrStorageCorrupt)
	}
	return &s, nil
}

func (t *memTx) LoadRawState() ([]byte, error) {
	if t.raw == nil {
		return nil, ErrStorageCorrupt
	}
	return t.raw, nil
}

func (t *memTx) SaveState(s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	t.raw = data
	return nil
}

func (t *memTx) Deposit(addr string) (*big.Int, error) {
	if d, ok := t.deposits[addr]; ok {
		return new(big.Int).Set(d), nil
	}
	return new(big.Int), nil
}

func (t *memTx) CreditDeposit(addr string, amount *big.Int) error {
	d, ok := t.deposits[addr]
	if !ok {
		d = new(big.Int)
	}
	t.deposits[addr] = new(big.Int).Add(d, amount)
	return nil
}

func (t *memTx) ZeroDeposit(addr string) error {
	delete(t.deposits, addr)
	return nil
}

func (t *memTx) SeenMessage(msgID string) (bool, error) {
	_, ok := t.processed[msgID]
	return ok, nil
}

func (t *memTx) MarkProcessed(msgID, kind string) error {
	t.processed[msgID] = kind
	return nil
}
