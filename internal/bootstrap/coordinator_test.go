package bootstrap

import (
	"errors"
	"math/big"
	"testing"

	"github.com/zenopie/animal-swap/internal/msg"
	"github.com/zenopie/animal-swap/internal/pool"
	"github.com/zenopie/animal-swap/internal/token"
)

func pendingState() *pool.State {
	return &pool.State{
		SchemaVersion: pool.SchemaVersion,
		Manager:       "secret1manager00000000",
		BaseToken:     pool.TokenRef{Contract: "secret1base000000000", Hash: "basehash"},
		QuoteToken:    pool.TokenRef{Contract: "secret1quote00000000", Hash: "quotehash"},
		QuoteSymbol:   "FINA",
		ShareLedger:   pool.TokenRef{Hash: "sharehash"},
		BaseReserve:   new(big.Int),
		QuoteReserve:  new(big.Int),
		TotalShares:   new(big.Int),
	}
}

// ============================================================
// Test: reply dispatch
// ============================================================

func TestDispatchRecordsShareLedgerAddress(t *testing.T) {
	c := NewCoordinator("selfhash")
	st := pendingState()

	instrs, err := c.Dispatch(st, &msg.Reply{
		ID: ReplyInstantiateShareLedger,
		Events: []msg.ReplyEvent{
			{Type: "message", Attributes: []msg.Attribute{{Key: "module", Value: "compute"}}},
			{Type: "instantiate", Attributes: []msg.Attribute{
				{Key: "code_id", Value: "42"},
				{Key: "contract_address", Value: "secret1shares0000000"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if got := st.ShareLedger.Contract; got != "secret1shares0000000" {
		t.Errorf("share ledger contract = %q, want %q", got, "secret1shares0000000")
	}
	if !st.Ready() {
		t.Error("state not ready after bootstrap reply")
	}

	if len(instrs) != 3 {
		t.Fatalf("got %d instructions, want 3 receiver registrations", len(instrs))
	}
	wantContracts := []string{"secret1shares0000000", "secret1base000000000", "secret1quote00000000"}
	for i, in := range instrs {
		if in.Kind != token.KindRegisterReceive {
			t.Errorf("instruction %d kind = %q, want register_receive", i, in.Kind)
		}
		if in.Contract != wantContracts[i] {
			t.Errorf("instruction %d contract = %q, want %q", i, in.Contract, wantContracts[i])
		}
		if in.RegisterHash != "selfhash" {
			t.Errorf("instruction %d register hash = %q, want %q", i, in.RegisterHash, "selfhash")
		}
	}
}

func TestDispatchUnknownReplyID(t *testing.T) {
	c := NewCoordinator("selfhash")
	st := pendingState()

	_, err := c.Dispatch(st, &msg.Reply{ID: 99})
	if !errors.Is(err, pool.ErrUnknownReply) {
		t.Fatalf("got %v, want ErrUnknownReply", err)
	}
	if st.Ready() {
		t.Error("unknown reply must not complete bootstrap")
	}
}

func TestDispatchMalformedReply(t *testing.T) {
	c := NewCoordinator("selfhash")

	cases := []struct {
		name   string
		events []msg.ReplyEvent
	}{
		{"no events", nil},
		{"wrong event type", []msg.ReplyEvent{
			{Type: "execute", Attributes: []msg.Attribute{{Key: "contract_address", Value: "secret1x"}}},
		}},
		{"missing attribute", []msg.ReplyEvent{
			{Type: "instantiate", Attributes: []msg.Attribute{{Key: "code_id", Value: "42"}}},
		}},
		{"empty address", []msg.ReplyEvent{
			{Type: "instantiate", Attributes: []msg.Attribute{{Key: "contract_address", Value: ""}}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := pendingState()
			_, err := c.Dispatch(st, &msg.Reply{ID: ReplyInstantiateShareLedger, Events: tc.events})
			if !errors.Is(err, pool.ErrMalformedReply) {
				t.Fatalf("got %v, want ErrMalformedReply", err)
			}
			if st.Ready() {
				t.Error("malformed reply must not complete bootstrap")
			}
		})
	}
}
