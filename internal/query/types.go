package query

import "github.com/zenopie/animal-swap/internal/pool"

// PoolStateResponse is the ledger view for API queries. Amounts are decimal
// strings to survive JSON number limits.
type PoolStateResponse struct {
	Manager        string        `json:"manager"`
	BaseToken      pool.TokenRef `json:"base_token"`
	QuoteToken     pool.TokenRef `json:"quote_token"`
	QuoteSymbol    string        `json:"quote_symbol"`
	ShareLedger    pool.TokenRef `json:"share_ledger"`
	Staking        pool.TokenRef `json:"staking"`
	Registration   pool.TokenRef `json:"registration"`
	BaseReserve    string        `json:"base_reserve"`
	QuoteReserve   string        `json:"quote_reserve"`
	TotalShares    string        `json:"total_shares"`
	ProtocolFeeBps uint64        `json:"protocol_fee_bps"`
	Ready          bool          `json:"ready"`
}

// DepositResponse reports an address's unclaimed deposit.
type DepositResponse struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// SimulationResponse is the result of pricing a hypothetical swap.
type SimulationResponse struct {
	ProtocolFeeAmount string `json:"protocol_fee_amount"`
	OutputAmount      string `json:"output_amount"`
}
