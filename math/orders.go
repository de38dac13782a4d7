package math

import (
	"math/big"

	"github.com/aoikurokawa/flashlight-sub000/constants"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	oracles "github.com/aoikurokawa/flashlight-sub000/oracles/types"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

func StandardizeBaseAssetAmount(
	baseAssetAmount *big.Int,
	stepSize *big.Int,
) *big.Int {
	if stepSize == nil || stepSize.Sign() == 0 {
		return utils.IntX(baseAssetAmount)
	}
	remainder := utils.ModX(baseAssetAmount, stepSize)
	return utils.SubX(baseAssetAmount, remainder)
}

// StandardizePrice rounds bids down and asks up to the tick size.
func StandardizePrice(
	price *big.Int,
	tickSize *big.Int,
	direction drift.PositionDirection,
) *big.Int {
	if price.Sign() == 0 || tickSize == nil || tickSize.Sign() == 0 {
		return price
	}

	remainder := utils.ModX(price, tickSize)
	if remainder.Sign() == 0 {
		return price
	}

	if direction == drift.PositionDirection_Long {
		return utils.SubX(price, remainder)
	}
	return utils.SubX(utils.AddX(price, tickSize), remainder)
}

// GetLimitPrice returns nil when the order has no price and no fallback
// was supplied.
func GetLimitPrice(
	order *drift.Order,
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
	fallbackPrice *big.Int,
) *big.Int {
	var limitPrice *big.Int
	if HasAuctionPrice(order, slot) {
		limitPrice = GetAuctionPrice(order, slot, oraclePriceData.GetPrice())
	} else if order.OraclePriceOffset != 0 {
		limitPrice = utils.AddX(oraclePriceData.GetPrice(), utils.BN(order.OraclePriceOffset))
	} else if order.Price == 0 {
		limitPrice = fallbackPrice
	} else {
		limitPrice = utils.BN(order.Price)
	}

	return limitPrice
}

func HasLimitPrice(
	order *drift.Order,
	slot uint64,
) bool {
	return order.Price > 0 ||
		order.OraclePriceOffset != 0 ||
		!IsAuctionComplete(order, slot)
}

func HasAuctionPrice(
	order *drift.Order,
	slot uint64,
) bool {
	return !IsAuctionComplete(order, slot) &&
		(order.AuctionStartPrice != 0 || order.AuctionEndPrice != 0)
}

// IsOrderExpired reports whether ts is past the order's max timestamp. With
// enforceBuffer, limit orders get bufferSeconds of grace (15 when <= 0).
func IsOrderExpired(
	order *drift.Order,
	ts int64,
	enforceBuffer bool,
	bufferSeconds int64,
) bool {
	if MustBeTriggered(order) || order.Status != drift.OrderStatus_Open || order.MaxTs == 0 {
		return false
	}

	maxTs := order.MaxTs
	if enforceBuffer && IsLimitOrder(order) {
		if bufferSeconds <= 0 {
			bufferSeconds = constants.DEFAULT_EXPIRY_BUFFER_SECONDS
		}
		maxTs += bufferSeconds
	}

	return ts > maxTs
}

func IsMarketOrder(order *drift.Order) bool {
	return order.OrderType == drift.OrderType_Market ||
		order.OrderType == drift.OrderType_TriggerMarket ||
		order.OrderType == drift.OrderType_Oracle
}

func IsLimitOrder(order *drift.Order) bool {
	return order.OrderType == drift.OrderType_Limit || order.OrderType == drift.OrderType_TriggerLimit
}

func MustBeTriggered(order *drift.Order) bool {
	return order.OrderType == drift.OrderType_TriggerMarket || order.OrderType == drift.OrderType_TriggerLimit
}

func IsTriggered(order *drift.Order) bool {
	return order.TriggerCondition == drift.OrderTriggerCondition_TriggeredAbove ||
		order.TriggerCondition == drift.OrderTriggerCondition_TriggeredBelow
}

func IsRestingLimitOrder(order *drift.Order, slot uint64) bool {
	if !IsLimitOrder(order) {
		return false
	}
	return order.PostOnly || IsAuctionComplete(order, slot)
}

func IsTakingOrder(order *drift.Order, slot uint64) bool {
	return IsMarketOrder(order) || !IsRestingLimitOrder(order, slot)
}

func IsSupportedOrderType(order *drift.Order) bool {
	switch order.OrderType {
	case drift.OrderType_Market,
		drift.OrderType_Limit,
		drift.OrderType_TriggerMarket,
		drift.OrderType_TriggerLimit,
		drift.OrderType_Oracle:
		return true
	}
	return false
}

// RemainingBaseAssetAmount saturates at zero.
func RemainingBaseAssetAmount(order *drift.Order) uint64 {
	if order.BaseAssetAmountFilled >= order.BaseAssetAmount {
		return 0
	}
	return order.BaseAssetAmount - order.BaseAssetAmountFilled
}
