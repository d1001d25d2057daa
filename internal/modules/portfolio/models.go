// Package portfolio implements the holdings ledger: a SQLite-backed list of
// buy/sell transactions and the derived holdings with weighted-average cost.
package portfolio

import (
	"time"
)

// Side is the direction of a ledger transaction
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the two known values
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Transaction is one ledger entry. IDs are UUIDs assigned at insert time.
type Transaction struct {
	ID         string    `json:"id"`
	AssetID    string    `json:"asset_id"`
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	PriceUSD   float64   `json:"price_usd"`
	Note       string    `json:"note,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Holding is the current position in one asset, derived from the ledger
// with weighted-average cost. Sells realize P/L against the average cost
// at the time of the sale.
type Holding struct {
	AssetID       string  `json:"asset_id"`
	Quantity      float64 `json:"quantity"`
	AvgCostUSD    float64 `json:"avg_cost_usd"`
	CostBasisUSD  float64 `json:"cost_basis_usd"`
	RealizedPnL   float64 `json:"realized_pnl_usd"`
	CurrentPrice  float64 `json:"current_price,omitempty"`
	MarketValue   float64 `json:"market_value_usd,omitempty"`
	UnrealizedPnL float64 `json:"unrealized_pnl_usd,omitempty"`
}

// Summary aggregates the whole portfolio at current prices
type Summary struct {
	TotalValueUSD     float64 `json:"total_value_usd"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
	UnrealizedPnLUSD  float64 `json:"unrealized_pnl_usd"`
	UnrealizedPnLPct  float64 `json:"unrealized_pnl_pct"`
	RealizedPnLUSD    float64 `json:"realized_pnl_usd"`
	HoldingCount      int     `json:"holding_count"`
	PricedHoldings    int     `json:"priced_holdings"`
	PricingIncomplete bool    `json:"pricing_incomplete"`
}
