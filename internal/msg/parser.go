package msg

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/zenopie/animal-swap/internal/pool"
)

// ParseInvocation converts a raw JSON payload (plus its message kind string,
// resolved from the transport subject) into a typed Invocation.
// Amounts travel as decimal strings so precision survives JSON number limits.
func ParseInvocation(kind string, data []byte) (Invocation, error) {
	switch kind {
	case "Instantiate":
		return parseInstantiate(data)
	case "AddLiquidity":
		return parseAddLiquidity(data)
	case "UpdateConfig":
		return parseUpdateConfig(data)
	case "Receive":
		return parseReceive(data)
	case "Reply":
		return parseReply(data)
	case "Migrate":
		return parseMigrate(data)
	default:
		return Invocation{}, fmt.Errorf("unknown message kind: %s", kind)
	}
}

// --- JSON wire formats ---
// Field names use snake_case to match upstream producers.

type envelopeJSON struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
}

type tokenRefJSON struct {
	Contract string `json:"contract"`
	Hash     string `json:"hash"`
}

func (t tokenRefJSON) ref(field string) (pool.TokenRef, error) {
	if err := ValidateAddr(t.Contract); err != nil {
		return pool.TokenRef{}, fmt.Errorf("parse %s: %w", field, err)
	}
	return pool.TokenRef{Contract: t.Contract, Hash: t.Hash}, nil
}

type instantiateJSON struct {
	envelopeJSON
	Manager           string       `json:"manager"`
	BaseToken         tokenRefJSON `json:"base_token"`
	QuoteToken        tokenRefJSON `json:"quote_token"`
	QuoteSymbol       string       `json:"quote_symbol"`
	ShareLedgerCodeID uint64       `json:"share_ledger_code_id"`
	ShareLedgerHash   string       `json:"share_ledger_hash"`
	Staking           tokenRefJSON `json:"staking"`
	Registration      tokenRefJSON `json:"registration"`
	ProtocolFeeBps    uint64       `json:"protocol_fee_bps"`
}

func parseInstantiate(data []byte) (Invocation, error) {
	var j instantiateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Invocation{}, fmt.Errorf("parse Instantiate: %w", err)
	}

	if err := ValidateAddr(j.Manager); err != nil {
		return Invocation{}, fmt.Errorf("parse manager: %w", err)
	}
	base, err := j.BaseToken.ref("base_token")
	if err != nil {
		return Invocation{}, err
	}
	quote, err := j.QuoteToken.ref("quote_token")
	if err != nil {
		return Invocation{}, err
	}
	staking, err := j.Staking.ref("staking")
	if err != nil {
		return Invocation{}, err
	}
	registration, err := j.Registration.ref("registration")
	if err != nil {
		return Invocation{}, err
	}

	return Invocation{
		MessageID: j.MessageID,
		Sender:    j.Sender,
		Msg: &Instantiate{
			Manager:           j.Manager,
			BaseToken:         base,
			QuoteToken:        quote,
			QuoteSymbol:       j.QuoteSymbol,
			ShareLedgerCodeID: j.ShareLedgerCodeID,
			ShareLedgerHash:   j.ShareLedgerHash,
			Staking:           staking,
			Registration:      registration,
			ProtocolFeeBps:    j.ProtocolFeeBps,
		},
	}, nil
}

type addLiquidityJSON struct {
	envelopeJSON
	AmountBase  string `json:"amount_base"`
	AmountQuote string `json:"amount_quote"`
}

func parseAddLiquidity(data []byte) (Invocation, error) {
	var j addLiquidityJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Invocation{}, fmt.Errorf("parse AddLiquidity: %w", err)
	}

	if err := ValidateAddr(j.Sender); err != nil {
		return Invocation{}, fmt.Errorf("parse sender: %w", err)
	}
	amountBase, err := ParseAmount(j.AmountBase)
	if err != nil {
		return Invocation{}, fmt.Errorf("parse amount_base: %w", err)
	}
	amountQuote, err := ParseAmount(j.AmountQuote)
	if err != nil {
		return Invocation{}, fmt.Errorf("parse amount_quote: %w", err)
	}

	return Invocation{
		MessageID: j.MessageID,
		Sender:    j.Sender,
		Msg: &AddLiquidity{
			Provider:    j.Sender,
			AmountBase:  amountBase,
			AmountQuote: amountQuote,
		},
	}, nil
}

type updateConfigJSON struct {
	envelopeJSON
	Key   string `json:"key"`
	Value string `json:"value"`
}

func parseUpdateConfig(data []byte) (Invocation, error) {
	var j updateConfigJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Invocation{}, fmt.Errorf("parse UpdateConfig: %w", err)
	}

	key, err := ParseConfigKey(j.Key)
	if err != nil {
		return Invocation{}, err
	}

	return Invocation{
		MessageID: j.MessageID,
		Sender:    j.Sender,
		Msg: &UpdateConfig{
			Caller: j.Sender,
			Key:    key,
			Value:  j.Value,
		},
	}, nil
}

type receiveJSON struct {
	envelopeJSON
	From   string            `json:"from"`
	Amount string            `json:"amount"`
	Msg    receiveActionJSON `json:"msg"`
}

// receiveActionJSON mirrors the tagged-variant payload: exactly one member set.
type receiveActionJSON struct {
	Swap            *swapActionJSON `json:"swap,omitempty"`
	RemoveLiquidity *struct{}       `json:"remove_liquidity,omitempty"`
	BaseBuyback     *struct{}       `json:"base_buyback,omitempty"`
	QuoteBuyback    *struct{}       `json:"quote_buyback,omitempty"`
}

type swapActionJSON struct {
	MinReceived string         `json:"min_received,omitempty"`
	Hop         *hopTargetJSON `json:"hop,omitempty"`
	Beneficiary string         `json:"beneficiary,omitempty"`
}

type hopTargetJSON struct {
	Contract string `json:"contract"`
	Hash     string `json:"hash"`
}

func parseReceive(data []byte) (Invocation, error) {
	var j receiveJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Invocation{}, fmt.Errorf("parse Receive: %w", err)
	}

	if err := ValidateAddr(j.Sender); err != nil {
		return Invocation{}, fmt.Errorf("parse sender: %w", err)
	}
	if err := ValidateAddr(j.From); err != nil {
		return Invocation{}, fmt.Errorf("parse from: %w", err)
	}
	amount, err := ParseAmount(j.Amount)
	if err != nil {
		return Invocation{}, fmt.Errorf("parse amount: %w", err)
	}

	action, err := parseReceiveAction(j.Msg)
	if err != nil {
		return Invocation{}, err
	}

	return Invocation{
		MessageID: j.MessageID,
		Sender:    j.Sender,
		Msg: &Receive{
			From:   j.From,
			Amount: amount,
			Action: action,
		},
	}, nil
}

func parseReceiveAction(j receiveActionJSON) (ReceiveAction, error) {
	switch {
	case j.Swap != nil:
		action := &SwapAction{Beneficiary: j.Swap.Beneficiary}
		if j.Swap.MinReceived != "" {
			min, err := ParseAmount(j.Swap.MinReceived)
			if err != nil {
				return nil, fmt.Errorf("parse min_received: %w", err)
			}
			action.MinReceived = min
		}
		if j.Swap.Beneficiary != "" {
			if err := ValidateAddr(j.Swap.Beneficiary); err != nil {
				return nil, fmt.Errorf("parse beneficiary: %w", err)
			}
		}
		if j.Swap.Hop != nil {
			if err := ValidateAddr(j.Swap.Hop.Contract); err != nil {
				return nil, fmt.Errorf("parse hop contract: %w", err)
			}
			action.Hop = &HopTarget{Contract: j.Swap.Hop.Contract, Hash: j.Swap.Hop.Hash}
		}
		return action, nil
	case j.RemoveLiquidity != nil:
		return &RemoveLiquidityAction{}, nil
	case j.BaseBuyback != nil:
		return &BaseBuybackAction{}, nil
	case j.QuoteBuyback != nil:
		return &QuoteBuybackAction{}, nil
	default:
		return nil, fmt.Errorf("receive payload has no recognized action")
	}
}

type replyJSON struct {
	envelopeJSON
	ID     uint64           `json:"id"`
	Events []replyEventJSON `json:"events"`
}

type replyEventJSON struct {
	Type       string          `json:"type"`
	Attributes []attributeJSON `json:"attributes"`
}

type attributeJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func parseReply(data []byte) (Invocation, error) {
	var j replyJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Invocation{}, fmt.Errorf("parse Reply: %w", err)
	}

	events := make([]ReplyEvent, 0, len(j.Events))
	for _, e := range j.Events {
		evt := ReplyEvent{Type: e.Type}
		for _, a := range e.Attributes {
			evt.Attributes = append(evt.Attributes, Attribute{Key: a.Key, Value: a.Value})
		}
		events = append(events, evt)
	}

	return Invocation{
		MessageID: j.MessageID,
		Sender:    j.Sender,
		Msg:       &Reply{ID: j.ID, Events: events},
	}, nil
}

type migrateJSON struct {
	envelopeJSON
}

func parseMigrate(data []byte) (Invocation, error) {
	var j migrateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Invocation{}, fmt.Errorf("parse Migrate: %w", err)
	}
	return Invocation{
		MessageID: j.MessageID,
		Sender:    j.Sender,
		Msg:       &Migrate{},
	}, nil
}

// ParseAmount parses a non-negative decimal-string amount.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

// ValidateAddr performs a bech32-shaped structural check on a collaborator or
// wallet address: lowercase, a "1" separator with a non-empty prefix, charset
// restricted to the bech32 alphabet, and bounded length. The host chain is the
// authority on addresses; this only rejects obviously malformed input early.
func ValidateAddr(addr string) error {
	if len(addr) < 8 || len(addr) > 90 {
		return fmt.Errorf("invalid address %q: bad length", addr)
	}
	sep := strings.LastIndexByte(addr, '1')
	if sep < 1 {
		return fmt.Errorf("invalid address %q: missing separator", addr)
	}
	for _, c := range addr[sep+1:] {
		if !strings.ContainsRune("qpzry9x8gf2tvdw0s3jn54khce6mua7l", c) {
			return fmt.Errorf("invalid address %q: bad character %q", addr, c)
		}
	}
	if strings.ToLower(addr) != addr {
		return fmt.Errorf("invalid address %q: mixed case", addr)
	}
	return nil
}
