// Package bootstrap completes two-phase pool creation: phase one emits the
// share-ledger instantiation with a reply request, phase two consumes the
// correlated reply, records the child address, and registers the pool as a
// receiver on all three collaborator tokens.
package bootstrap

import (
	"fmt"

	"github.com/zenopie/animal-swap/internal/msg"
	"github.com/zenopie/animal-swap/internal/pool"
	"github.com/zenopie/animal-swap/internal/token"
)

// ReplyInstantiateShareLedger correlates the share-ledger creation reply.
// The correlation space is pool-local, so a single constant suffices.
const ReplyInstantiateShareLedger uint64 = 1

const (
	instantiateEventType = "instantiate"
	contractAddrAttr     = "contract_address"
)

// Handler finalizes one pending sub-call given its reply events. It mutates
// the ledger in place and returns the follow-up instructions.
type Handler func(st *pool.State, events []msg.ReplyEvent) ([]token.Instruction, error)

// Coordinator routes replies to the handler registered for their ID.
type Coordinator struct {
	selfCodeHash string
	handlers     map[uint64]Handler
}

func NewCoordinator(selfCodeHash string) *Coordinator {
	c := &Coordinator{
		selfCodeHash: selfCodeHash,
		handlers:     make(map[uint64]Handler),
	}
	c.handlers[ReplyInstantiateShareLedger] = c.handleShareLedgerInstantiated
	return c
}

// Dispatch resolves a reply against the registered handlers.
func (c *Coordinator) Dispatch(st *pool.State, r *msg.Reply) ([]token.Instruction, error) {
	h, ok := c.handlers[r.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", pool.ErrUnknownReply, r.ID)
	}
	return h(st, r.Events)
}

func (c *Coordinator) handleShareLedgerInstantiated(st *pool.State, events []msg.ReplyEvent) ([]token.Instruction, error) {
	addr, err := extractContractAddress(events)
	if err != nil {
		return nil, err
	}

	st.ShareLedger.Contract = addr
	return RegisterReceivers(st, c.selfCodeHash), nil
}

// extractContractAddress finds the created child's address in the host's
// instantiate event.
func extractContractAddress(events []msg.ReplyEvent) (string, error) {
	for _, e := range events {
		if e.Type != instantiateEventType {
			continue
		}
		for _, a := range e.Attributes {
			if a.Key == contractAddrAttr && a.Value != "" {
				return a.Value, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no %s event with %s attribute",
		pool.ErrMalformedReply, instantiateEventType, contractAddrAttr)
}

// RegisterReceivers builds the receiver registrations for the share ledger
// and both reserve tokens. Also emitted after migration so a relocated pool
// re-announces itself.
func RegisterReceivers(st *pool.State, selfCodeHash string) []token.Instruction {
	return []token.Instruction{
		token.NewRegisterReceive(st.ShareLedger.Contract, st.ShareLedger.Hash, selfCodeHash),
		token.NewRegisterReceive(st.BaseToken.Contract, st.BaseToken.Hash, selfCodeHash),
		token.NewRegisterReceive(st.QuoteToken.Contract, st.QuoteToken.Hash, selfCodeHash),
	}
}
