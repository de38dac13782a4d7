package math

import (
	"math/big"

	"github.com/aoikurokawa/flashlight-sub000/constants"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

// GetMakerRebate reads the first fee tier for the market type. A perp fee
// adjustment scales the numerator by adj percent, floored at zero.
func GetMakerRebate(
	marketType drift.MarketType,
	state *drift.State,
	perpMarket *drift.PerpMarket,
) (*big.Int, *big.Int) {
	var tier drift.FeeTier
	if marketType == drift.MarketType_Perp {
		tier = state.PerpFeeStructure.FeeTiers[0]
	} else {
		tier = state.SpotFeeStructure.FeeTiers[0]
	}
	numerator := utils.BN(tier.MakerRebateNumerator)
	denominator := utils.BN(tier.MakerRebateDenominator)

	if marketType == drift.MarketType_Perp && perpMarket != nil && perpMarket.FeeAdjustment != 0 {
		adjustment := utils.DivX(
			utils.MulX(numerator, utils.BN(perpMarket.FeeAdjustment)),
			constants.FEE_ADJUSTMENT_DENOMINATOR,
		)
		numerator = utils.Max(utils.AddX(numerator, adjustment), constants.ZERO)
	}
	return numerator, denominator
}

// CalculateFallbackPriceWithBuffer subtracts the maker rebate fraction from
// the fallback price. The result never drops below zero and a zero
// denominator means no rebate.
func CalculateFallbackPriceWithBuffer(
	fallbackPrice *big.Int,
	makerRebateNumerator *big.Int,
	makerRebateDenominator *big.Int,
) *big.Int {
	if fallbackPrice == nil {
		return nil
	}
	if makerRebateDenominator == nil || makerRebateDenominator.Sign() == 0 || makerRebateNumerator == nil {
		return utils.IntX(fallbackPrice)
	}
	rebate := utils.DivX(utils.MulX(fallbackPrice, makerRebateNumerator), makerRebateDenominator)
	return utils.Max(utils.SubX(fallbackPrice, rebate), constants.ZERO)
}
