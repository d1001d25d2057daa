package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"cryptodeck/internal/domain"
)

var (
	// ErrInvalidTransaction rejects malformed ledger entries
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrOversell rejects sells larger than the held quantity
	ErrOversell = errors.New("sell exceeds held quantity")
)

// Service derives holdings from the ledger and values them with live quotes.
// It only reads market data; nothing here mutates prediction state.
type Service struct {
	repo   *Repository
	market domain.MarketDataPort
	log    zerolog.Logger
}

// NewService creates the portfolio service
func NewService(repo *Repository, market domain.MarketDataPort, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		market: market,
		log:    log.With().Str("service", "portfolio").Logger(),
	}
}

// AddTransaction validates and stores a ledger entry. Sells are checked
// against the quantity currently held for the asset.
func (s *Service) AddTransaction(txn Transaction) (Transaction, error) {
	if txn.AssetID == "" {
		return Transaction{}, fmt.Errorf("%w: asset id is required", ErrInvalidTransaction)
	}
	if !txn.Side.Valid() {
		return Transaction{}, fmt.Errorf("%w: side must be buy or sell", ErrInvalidTransaction)
	}
	if txn.Quantity <= 0 {
		return Transaction{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidTransaction)
	}
	if txn.PriceUSD < 0 {
		return Transaction{}, fmt.Errorf("%w: price cannot be negative", ErrInvalidTransaction)
	}

	if txn.Side == SideSell {
		held, err := s.heldQuantity(txn.AssetID)
		if err != nil {
			return Transaction{}, err
		}
		if txn.Quantity > held+1e-12 {
			return Transaction{}, fmt.Errorf("%w: have %g, tried to sell %g", ErrOversell, held, txn.Quantity)
		}
	}

	stored, err := s.repo.Insert(txn)
	if err != nil {
		return Transaction{}, err
	}

	s.log.Info().
		Str("asset", stored.AssetID).
		Str("side", string(stored.Side)).
		Float64("quantity", stored.Quantity).
		Msg("Transaction recorded")
	return stored, nil
}

// Transactions returns the full ledger, oldest first
func (s *Service) Transactions() ([]Transaction, error) {
	return s.repo.GetAll()
}

// DeleteTransaction removes a ledger entry by id
func (s *Service) DeleteTransaction(id string) (bool, error) {
	return s.repo.Delete(id)
}

// Holdings derives current positions from the ledger and, when quotes are
// reachable, values them. Quote failures degrade to unpriced holdings
// instead of failing the call.
func (s *Service) Holdings(ctx context.Context) ([]Holding, error) {
	txns, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	holdings := deriveHoldings(txns)
	for i := range holdings {
		price, err := s.market.LatestQuote(ctx, holdings[i].AssetID)
		if err != nil || price <= 0 {
			if err != nil {
				s.log.Warn().Err(err).Str("asset", holdings[i].AssetID).Msg("Quote unavailable for holding")
			}
			continue
		}
		holdings[i].CurrentPrice = price
		holdings[i].MarketValue = holdings[i].Quantity * price
		holdings[i].UnrealizedPnL = holdings[i].MarketValue - holdings[i].CostBasisUSD
	}
	return holdings, nil
}

// Summary aggregates all holdings at current prices
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, h := range holdings {
		summary.HoldingCount++
		summary.TotalCostUSD += h.CostBasisUSD
		summary.RealizedPnLUSD += h.RealizedPnL
		if h.CurrentPrice > 0 {
			summary.PricedHoldings++
			summary.TotalValueUSD += h.MarketValue
			summary.UnrealizedPnLUSD += h.UnrealizedPnL
		}
	}
	summary.PricingIncomplete = summary.PricedHoldings < summary.HoldingCount
	if summary.TotalCostUSD > 0 {
		summary.UnrealizedPnLPct = summary.UnrealizedPnLUSD / summary.TotalCostUSD * 100
	}
	return summary, nil
}

// AssetWeights returns per-asset portfolio weights for aggregation
// elsewhere (the sentiment module). Market value when priced, cost basis
// otherwise; closed positions carry no weight.
func (s *Service) AssetWeights(ctx context.Context) (map[string]float64, error) {
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return nil, err
	}

	weights := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		if h.Quantity <= 0 {
			continue
		}
		if h.MarketValue > 0 {
			weights[h.AssetID] = h.MarketValue
		} else {
			weights[h.AssetID] = h.CostBasisUSD
		}
	}
	return weights, nil
}

// HeldAssets lists assets with an open position, for default asset sets
func (s *Service) HeldAssets(ctx context.Context) []string {
	weights, err := s.AssetWeights(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to derive held assets")
		return nil
	}
	assets := make([]string, 0, len(weights))
	for assetID := range weights {
		assets = append(assets, assetID)
	}
	sort.Strings(assets)
	return assets
}

func (s *Service) heldQuantity(assetID string) (float64, error) {
	txns, err := s.repo.GetByAsset(assetID)
	if err != nil {
		return 0, err
	}
	var qty float64
	for _, txn := range txns {
		switch txn.Side {
		case SideBuy:
			qty += txn.Quantity
		case SideSell:
			qty -= txn.Quantity
		}
	}
	return qty, nil
}

// deriveHoldings replays the ledger in order, maintaining weighted-average
// cost per asset. A sell reduces quantity at the running average cost and
// realizes the difference; it never changes the average. Positions sold to
// zero are dropped, but their realized P/L is kept.
func deriveHoldings(txns []Transaction) []Holding {
	byAsset := make(map[string]*Holding)

	for _, txn := range txns {
		h, ok := byAsset[txn.AssetID]
		if !ok {
			h = &Holding{AssetID: txn.AssetID}
			byAsset[txn.AssetID] = h
		}

		switch txn.Side {
		case SideBuy:
			totalCost := h.AvgCostUSD*h.Quantity + txn.PriceUSD*txn.Quantity
			h.Quantity += txn.Quantity
			if h.Quantity > 0 {
				h.AvgCostUSD = totalCost / h.Quantity
			}
		case SideSell:
			qty := txn.Quantity
			if qty > h.Quantity {
				qty = h.Quantity
			}
			h.RealizedPnL += (txn.PriceUSD - h.AvgCostUSD) * qty
			h.Quantity -= qty
			if h.Quantity <= 1e-12 {
				h.Quantity = 0
				h.AvgCostUSD = 0
			}
		}
	}

	holdings := make([]Holding, 0, len(byAsset))
	for _, h := range byAsset {
		h.CostBasisUSD = h.AvgCostUSD * h.Quantity
		if h.Quantity == 0 && h.RealizedPnL == 0 {
			continue
		}
		holdings = append(holdings, *h)
	}

	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].AssetID < holdings[j].AssetID
	})
	return holdings
}
