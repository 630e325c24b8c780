// Package token defines the outbound instruction set the pool engine emits:
// token transfers, mints and burns, send-with-callback messages, child
// contract instantiation, and receiver registration. Instructions are
// published for the execution layer to sign and submit; the engine never
// talks to collaborator contracts directly.
package token

import (
	"encoding/json"
	"math/big"

	"github.com/google/uuid"
)

// Kind discriminates the instruction variants.
type Kind string

const (
	KindTransfer         Kind = "transfer"
	KindTransferFrom     Kind = "transfer_from"
	KindMint             Kind = "mint"
	KindBurn             Kind = "burn"
	KindSend             Kind = "send"
	KindInstantiateChild Kind = "instantiate_child"
	KindRegisterReceive  Kind = "register_receive"
)

// Instruction is one outbound action against a collaborator contract.
// Exactly the fields relevant to its Kind are populated.
type Instruction struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Contract string `json:"contract"`
	CodeHash string `json:"code_hash"`

	// Recipient receives tokens (transfer, transfer_from, mint, send).
	Recipient string `json:"recipient,omitempty"`
	// RecipientHash is the receiving contract's code hash (send only).
	RecipientHash string `json:"recipient_hash,omitempty"`
	// Owner is the account debited by transfer_from.
	Owner string `json:"owner,omitempty"`

	Amount *big.Int `json:"amount,omitempty"`

	// Callback is the payload attached to a send, interpreted by the
	// receiving contract.
	Callback *Callback `json:"callback,omitempty"`

	// Child carries instantiation parameters (instantiate_child only).
	Child *ChildInit `json:"child,omitempty"`

	// RegisterHash is the caller's own code hash, handed to a token contract
	// so it can authenticate Receive notifications back (register_receive only).
	RegisterHash string `json:"register_hash,omitempty"`

	// ReplyID requests a deferred reply correlated by this ID. Zero means
	// fire-and-forget.
	ReplyID uint64 `json:"reply_id,omitempty"`
}

// Callback is the tagged payload carried by a send. Exactly one member set.
type Callback struct {
	BurnBase  *BurnBase     `json:"burn_base,omitempty"`
	BurnQuote *BurnQuote    `json:"burn_quote,omitempty"`
	Swap      *SwapCallback `json:"swap,omitempty"`
}

// BurnBase accompanies base tokens forwarded to the staking collaborator,
// reporting the trade context the receiver uses for reward accounting.
type BurnBase struct {
	// TradeVolume is the fee-net input expressed in base terms.
	TradeVolume *big.Int `json:"trade_volume"`
	// TotalLiquidity is twice the base reserve, the base-denominated pool size.
	TotalLiquidity *big.Int `json:"total_liquidity"`
	TotalShares    *big.Int `json:"total_shares"`
}

// BurnQuote accompanies quote tokens forwarded to the staking collaborator
// on the registration buyback path.
type BurnQuote struct{}

// SwapCallback is the payload for a hop leg: the downstream pool swaps the
// forwarded tokens under the original trade's constraints.
type SwapCallback struct {
	MinReceived *big.Int `json:"min_received,omitempty"`
	Beneficiary string   `json:"beneficiary,omitempty"`
}

// MarshalJSON emits min_received as a decimal string: the receiving pool
// parses swap payloads with string amounts, and big amounts must survive
// JSON number limits.
func (c SwapCallback) MarshalJSON() ([]byte, error) {
	aux := struct {
		MinReceived string `json:"min_received,omitempty"`
		Beneficiary string `json:"beneficiary,omitempty"`
	}{Beneficiary: c.Beneficiary}
	if c.MinReceived != nil {
		aux.MinReceived = c.MinReceived.String()
	}
	return json.Marshal(aux)
}

// ChildInit parameterizes a dependent contract instantiation.
type ChildInit struct {
	CodeID     uint64 `json:"code_id"`
	CodeHash   string `json:"code_hash"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Admin      string `json:"admin"`
	Decimals   uint8  `json:"decimals"`
	EnableMint bool   `json:"enable_mint"`
	EnableBurn bool   `json:"enable_burn"`
}

func newInstruction(kind Kind, contract, codeHash string) Instruction {
	return Instruction{
		ID:       uuid.New().String(),
		Kind:     kind,
		Contract: contract,
		CodeHash: codeHash,
	}
}

// NewTransfer moves pool-owned tokens to recipient.
func NewTransfer(contract, codeHash, recipient string, amount *big.Int) Instruction {
	in := newInstruction(KindTransfer, contract, codeHash)
	in.Recipient = recipient
	in.Amount = new(big.Int).Set(amount)
	return in
}

// NewTransferFrom pulls tokens from owner to recipient under a prior allowance.
func NewTransferFrom(contract, codeHash, owner, recipient string, amount *big.Int) Instruction {
	in := newInstruction(KindTransferFrom, contract, codeHash)
	in.Owner = owner
	in.Recipient = recipient
	in.Amount = new(big.Int).Set(amount)
	return in
}

// NewMint mints shares on the share ledger to recipient.
func NewMint(contract, codeHash, recipient string, amount *big.Int) Instruction {
	in := newInstruction(KindMint, contract, codeHash)
	in.Recipient = recipient
	in.Amount = new(big.Int).Set(amount)
	return in
}

// NewBurn destroys pool-held tokens on the target contract.
func NewBurn(contract, codeHash string, amount *big.Int) Instruction {
	in := newInstruction(KindBurn, contract, codeHash)
	in.Amount = new(big.Int).Set(amount)
	return in
}

// NewSend transfers tokens to a contract with a callback payload the
// receiving contract executes on receipt.
func NewSend(contract, codeHash, recipient, recipientHash string, amount *big.Int, cb *Callback) Instruction {
	in := newInstruction(KindSend, contract, codeHash)
	in.Recipient = recipient
	in.RecipientHash = recipientHash
	in.Amount = new(big.Int).Set(amount)
	in.Callback = cb
	return in
}

// NewInstantiateChild creates a dependent contract and requests a reply
// correlated by replyID so the creator learns the child's address.
func NewInstantiateChild(child ChildInit, replyID uint64) Instruction {
	in := newInstruction(KindInstantiateChild, "", child.CodeHash)
	in.Child = &child
	in.ReplyID = replyID
	return in
}

// NewRegisterReceive asks a token contract to deliver future transfers to the
// pool as Receive notifications.
func NewRegisterReceive(contract, tokenCodeHash, selfCodeHash string) Instruction {
	in := newInstruction(KindRegisterReceive, contract, tokenCodeHash)
	in.RegisterHash = selfCodeHash
	return in
}
