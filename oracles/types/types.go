package types

import (
	"math/big"
)

// OraclePriceData is a point-in-time oracle reading supplied by the caller.
type OraclePriceData struct {
	Price                           *big.Int
	Slot                            uint64
	Confidence                      *big.Int
	Delay                           int64
	HasSufficientNumberOfDataPoints bool
}

func (p *OraclePriceData) GetPrice() *big.Int {
	if p == nil || p.Price == nil {
		return big.NewInt(0)
	}
	return p.Price
}
