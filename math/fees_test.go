package math

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/types"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

func stateWithRebate(numerator, denominator uint32) *drift.State {
	state := &drift.State{}
	state.PerpFeeStructure.FeeTiers[0].MakerRebateNumerator = numerator
	state.PerpFeeStructure.FeeTiers[0].MakerRebateDenominator = denominator
	state.SpotFeeStructure.FeeTiers[0].MakerRebateNumerator = numerator * 2
	state.SpotFeeStructure.FeeTiers[0].MakerRebateDenominator = denominator
	return state
}

// go test --run TestGetMakerRebate

func TestGetMakerRebate(t *testing.T) {
	state := stateWithRebate(20, 1000)

	numerator, denominator := GetMakerRebate(drift.MarketType_Perp, state, nil)
	assert.Equal(t, "20", numerator.String())
	assert.Equal(t, "1000", denominator.String())

	numerator, _ = GetMakerRebate(drift.MarketType_Spot, state, nil)
	assert.Equal(t, "40", numerator.String())

	numerator, _ = GetMakerRebate(drift.MarketType_Perp, state, &drift.PerpMarket{FeeAdjustment: 50})
	assert.Equal(t, "30", numerator.String())

	numerator, _ = GetMakerRebate(drift.MarketType_Perp, state, &drift.PerpMarket{FeeAdjustment: -200})
	assert.Equal(t, "0", numerator.String())

	// spot markets carry no fee adjustment
	numerator, _ = GetMakerRebate(drift.MarketType_Spot, state, &drift.PerpMarket{FeeAdjustment: 50})
	assert.Equal(t, "40", numerator.String())
}

// go test --run TestCalculateFallbackPriceWithBuffer

func TestCalculateFallbackPriceWithBuffer(t *testing.T) {
	price := utils.BN(101_000_000)

	assert.Equal(t, "98980000", CalculateFallbackPriceWithBuffer(price, utils.BN(1), utils.BN(50)).String())
	assert.Equal(t, "101000000", CalculateFallbackPriceWithBuffer(price, utils.BN(1), utils.BN(0)).String())
	assert.Equal(t, "101000000", CalculateFallbackPriceWithBuffer(price, nil, nil).String())
	assert.Equal(t, "0", CalculateFallbackPriceWithBuffer(price, utils.BN(3), utils.BN(2)).String())
	assert.Nil(t, CalculateFallbackPriceWithBuffer(nil, utils.BN(1), utils.BN(50)))

	// the input is not modified
	assert.Equal(t, "101000000", price.String())
}

// go test --run TestExchangeStatus

func TestExchangeStatus(t *testing.T) {
	active := &drift.State{ExchangeStatus: drift.ExchangeStatus_Active}
	assert.False(t, ExchangePaused(active))
	assert.False(t, FillPaused(active, nil))
	assert.False(t, AmmPaused(active, nil))

	paused := &drift.State{ExchangeStatus: drift.ExchangeStatus_FillPaused | drift.ExchangeStatus_AmmPaused}
	assert.True(t, ExchangePaused(paused))
	assert.True(t, FillPaused(paused, nil))
	assert.True(t, AmmPaused(paused, nil))

	perpFillPaused := &types.MarketAccount{PerpMarketAccount: &drift.PerpMarket{
		PausedOperations: uint8(drift.PerpOperation_Fill),
		Amm:              drift.AMM{NetRevenueSinceLastFunding: 0},
	}}
	assert.True(t, FillPaused(active, perpFillPaused))
	assert.False(t, AmmPaused(active, perpFillPaused))

	perpAmmPaused := &types.MarketAccount{PerpMarketAccount: &drift.PerpMarket{
		PausedOperations: uint8(drift.PerpOperation_AmmFill),
	}}
	assert.False(t, FillPaused(active, perpAmmPaused))
	assert.True(t, AmmPaused(active, perpAmmPaused))

	spotFillPaused := &types.MarketAccount{SpotMarketAccount: &drift.SpotMarket{
		PausedOperations: uint8(drift.SpotOperation_Fill),
	}}
	assert.True(t, FillPaused(active, spotFillPaused))

	// a large drawdown since the last funding pauses the amm
	drawdown := &types.MarketAccount{PerpMarketAccount: &drift.PerpMarket{
		ContractTier: drift.ContractTier_A,
		Amm: drift.AMM{
			NetRevenueSinceLastFunding: -20_000_000_000,
			TotalFeeMinusDistributions: utils.Int128(utils.BN(100_000_000_000)),
		},
	}}
	assert.True(t, AmmPaused(active, drawdown))

	assert.True(t, IsOperationPaused(6, 4))
	assert.False(t, IsOperationPaused(6, 1))
}
