package token

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/zenopie/animal-swap/internal/msg"
)

// ============================================================
// Test: hop callback wire format
// ============================================================

func TestSwapCallbackRoundTripsThroughReceiveParser(t *testing.T) {
	// The callback attached to a hop send becomes the msg payload of the
	// downstream pool's Receive, so it must parse as one.
	min, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	cb := Callback{Swap: &SwapCallback{
		MinReceived: min,
		Beneficiary: "secret1user000",
	}}
	payload, err := json.Marshal(cb)
	if err != nil {
		t.Fatalf("marshal callback: %v", err)
	}

	data := []byte(`{"message_id": "m-hop", "sender": "secret1erthtkn",
		"from": "secret1frnd000", "amount": "9871", "msg": ` + string(payload) + `}`)
	inv, err := msg.ParseInvocation("Receive", data)
	if err != nil {
		t.Fatalf("parse forwarded payload: %v", err)
	}

	a, ok := inv.Msg.(*msg.Receive).Action.(*msg.SwapAction)
	if !ok {
		t.Fatalf("got %T, want *msg.SwapAction", inv.Msg.(*msg.Receive).Action)
	}
	if a.MinReceived == nil || a.MinReceived.Cmp(min) != 0 {
		t.Errorf("min_received = %s, want %s", a.MinReceived, min)
	}
	if a.Beneficiary != "secret1user000" {
		t.Errorf("beneficiary = %q", a.Beneficiary)
	}
}

func TestSwapCallbackBareRoundTrip(t *testing.T) {
	cb := Callback{Swap: &SwapCallback{}}
	payload, err := json.Marshal(cb)
	if err != nil {
		t.Fatalf("marshal callback: %v", err)
	}

	data := []byte(`{"message_id": "m-hop", "sender": "secret1erthtkn",
		"from": "secret1frnd000", "amount": "10", "msg": ` + string(payload) + `}`)
	inv, err := msg.ParseInvocation("Receive", data)
	if err != nil {
		t.Fatalf("parse forwarded payload: %v", err)
	}

	a := inv.Msg.(*msg.Receive).Action.(*msg.SwapAction)
	if a.MinReceived != nil || a.Beneficiary != "" {
		t.Errorf("bare callback carried options: %+v", a)
	}
}
