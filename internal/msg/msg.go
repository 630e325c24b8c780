// Package msg defines the typed inbound messages the pool engine processes,
// as a closed set of variants. Wire parsing lives in parser.go.
package msg

import (
	"fmt"
	"math/big"

	"github.com/zenopie/animal-swap/internal/pool"
)

// Kind identifies a message variant.
type Kind int32

const (
	KindUnknown Kind = iota
	KindInstantiate
	KindAddLiquidity
	KindUpdateConfig
	KindReceive
	KindReply
	KindMigrate
)

func (k Kind) String() string {
	switch k {
	case KindInstantiate:
		return "Instantiate"
	case KindAddLiquidity:
		return "AddLiquidity"
	case KindUpdateConfig:
		return "UpdateConfig"
	case KindReceive:
		return "Receive"
	case KindReply:
		return "Reply"
	case KindMigrate:
		return "Migrate"
	default:
		return "Unknown"
	}
}

// Msg is an inbound message body.
type Msg interface {
	Kind() Kind
}

// Invocation is one message plus its envelope: the idempotency identifier and
// the authenticated direct caller (for Receive this is the token contract that
// delivered the transfer, not the wallet that initiated it).
type Invocation struct {
	MessageID string
	Sender    string
	Msg       Msg
}

// Instantiate creates the pool ledger and starts share-ledger bootstrap.
type Instantiate struct {
	Manager           string
	BaseToken         pool.TokenRef
	QuoteToken        pool.TokenRef
	QuoteSymbol       string
	ShareLedgerCodeID uint64
	ShareLedgerHash   string
	Staking           pool.TokenRef
	Registration      pool.TokenRef
	ProtocolFeeBps    uint64
}

func (*Instantiate) Kind() Kind { return KindInstantiate }

// AddLiquidity deposits both assets (pulled via allowance) against minted shares.
type AddLiquidity struct {
	Provider    string
	AmountBase  *big.Int
	AmountQuote *big.Int
}

func (*AddLiquidity) Kind() Kind { return KindAddLiquidity }

// UpdateConfig mutates one ledger configuration field. Manager-only.
type UpdateConfig struct {
	Caller string
	Key    ConfigKey
	Value  string
}

func (*UpdateConfig) Kind() Kind { return KindUpdateConfig }

// Receive is the token-in-bound entry point: a collaborator token notifies the
// pool that From transferred Amount to it, with an action payload.
type Receive struct {
	From   string
	Amount *big.Int
	Action ReceiveAction
}

func (*Receive) Kind() Kind { return KindReceive }

// ReceiveAction is the payload variant carried by a Receive.
type ReceiveAction interface {
	receiveAction()
}

// SwapAction swaps the received amount for the opposing asset.
type SwapAction struct {
	// MinReceived is the slippage floor, enforced on the final leg only.
	MinReceived *big.Int
	// Hop forwards the output into a second pool instead of delivering it.
	Hop *HopTarget
	// Beneficiary overrides the delivery address (set on the second hop leg).
	Beneficiary string
}

// HopTarget identifies the downstream pool for a multi-pool swap.
type HopTarget struct {
	Contract string
	Hash     string
}

// RemoveLiquidityAction burns the received shares for both assets pro rata.
type RemoveLiquidityAction struct{}

// BaseBuybackAction is the staking collaborator's feeless quote-to-base path.
type BaseBuybackAction struct{}

// QuoteBuybackAction is the registration collaborator's feeless base-to-quote path.
type QuoteBuybackAction struct{}

func (*SwapAction) receiveAction()            {}
func (*RemoveLiquidityAction) receiveAction() {}
func (*BaseBuybackAction) receiveAction()     {}
func (*QuoteBuybackAction) receiveAction()    {}

// Reply delivers the result of a deferred sub-call (bootstrap phase 2).
type Reply struct {
	ID     uint64
	Events []ReplyEvent
}

func (*Reply) Kind() Kind { return KindReply }

// ReplyEvent is one host-emitted event inside a Reply.
type ReplyEvent struct {
	Type       string
	Attributes []Attribute
}

// Attribute is a key/value pair on a reply event.
type Attribute struct {
	Key   string
	Value string
}

// Migrate triggers the one-shot legacy schema transform. The host environment
// authorizes it; the engine only guards against re-application.
type Migrate struct{}

func (*Migrate) Kind() Kind { return KindMigrate }

// --- Config keys ---

// ConfigKey is the closed enumeration of fields UpdateConfig may touch.
type ConfigKey string

const (
	ConfigKeyManager              ConfigKey = "manager"
	ConfigKeyProtocolFeeBps       ConfigKey = "protocol_fee_bps"
	ConfigKeyBaseHash             ConfigKey = "base_hash"
	ConfigKeyQuoteHash            ConfigKey = "quote_hash"
	ConfigKeyShareLedgerHash      ConfigKey = "share_ledger_hash"
	ConfigKeyStakingHash          ConfigKey = "staking_hash"
	ConfigKeyStakingContract      ConfigKey = "staking_contract"
	ConfigKeyRegistrationContract ConfigKey = "registration_contract"
	ConfigKeyRegistrationHash     ConfigKey = "registration_hash"
)

// ParseConfigKey validates a wire key against the closed set.
func ParseConfigKey(s string) (ConfigKey, error) {
	switch k := ConfigKey(s); k {
	case ConfigKeyManager, ConfigKeyProtocolFeeBps,
		ConfigKeyBaseHash, ConfigKeyQuoteHash,
		ConfigKeyShareLedgerHash, ConfigKeyStakingHash, ConfigKeyStakingContract,
		ConfigKeyRegistrationContract, ConfigKeyRegistrationHash:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", pool.ErrInvalidConfigKey, s)
	}
}
