package math

import (
	"github.com/aoikurokawa/flashlight-sub000/constants"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/types"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

func ExchangePaused(state *drift.State) bool {
	return state.ExchangeStatus != drift.ExchangeStatus_Active
}

func FillPaused(
	state *drift.State,
	market *types.MarketAccount,
) bool {
	if state.ExchangeStatus&drift.ExchangeStatus_FillPaused == drift.ExchangeStatus_FillPaused {
		return true
	}
	if market == nil {
		return false
	}
	if market.PerpMarketAccount != nil {
		return IsOperationPaused(market.PerpMarketAccount.PausedOperations, uint8(drift.PerpOperation_Fill))
	}
	if market.SpotMarketAccount != nil {
		return IsOperationPaused(market.SpotMarketAccount.PausedOperations, uint8(drift.SpotOperation_Fill))
	}
	return false
}

func AmmPaused(state *drift.State, market *types.MarketAccount) bool {
	if state.ExchangeStatus&drift.ExchangeStatus_AmmPaused == drift.ExchangeStatus_AmmPaused {
		return true
	}
	if market != nil && market.PerpMarketAccount != nil {
		operationPaused := IsOperationPaused(
			market.PerpMarketAccount.PausedOperations,
			uint8(drift.PerpOperation_AmmFill),
		)
		if operationPaused {
			return true
		}
		if isAmmDrawdownPause(market.PerpMarketAccount) {
			return true
		}
	}
	return false
}

func IsOperationPaused(pausedOperations uint8, operation uint8) bool {
	return pausedOperations&operation > 0
}

func isAmmDrawdownPause(market *drift.PerpMarket) bool {
	retreat := constants.DEFAULT_REVENUE_SINCE_LAST_FUNDING_SPREAD_RETREAT.Int64()
	var quoteDrawdownLimitBreached bool
	if market.ContractTier == drift.ContractTier_A || market.ContractTier == drift.ContractTier_B {
		quoteDrawdownLimitBreached = market.Amm.NetRevenueSinceLastFunding <= retreat*400
	} else {
		quoteDrawdownLimitBreached = market.Amm.NetRevenueSinceLastFunding <= retreat*200
	}
	if !quoteDrawdownLimitBreached {
		return false
	}

	percentDrawdown := utils.DivX(
		utils.MulX(utils.BN(market.Amm.NetRevenueSinceLastFunding), constants.PERCENTAGE_PRECISION),
		utils.Max(utils.BigInt128(market.Amm.TotalFeeMinusDistributions), utils.BN(1)),
	)

	var divisor int64
	switch market.ContractTier {
	case drift.ContractTier_A:
		divisor = 50
	case drift.ContractTier_B:
		divisor = 33
	case drift.ContractTier_C:
		divisor = 25
	default:
		divisor = 20
	}
	limit := utils.DivX(constants.PERCENTAGE_PRECISION, utils.BN(divisor))
	return percentDrawdown.Cmp(limit.Neg(limit)) <= 0
}
