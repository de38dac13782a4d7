package types

import (
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
)

// MarketAccount carries whichever market account applies to a query.
type MarketAccount struct {
	PerpMarketAccount *drift.PerpMarket
	SpotMarketAccount *drift.SpotMarket
}

func (p MarketAccount) PausedOperations() uint8 {
	if p.PerpMarketAccount != nil {
		return p.PerpMarketAccount.PausedOperations
	}
	if p.SpotMarketAccount != nil {
		return p.SpotMarketAccount.PausedOperations
	}
	return 0
}
