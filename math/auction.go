package math

import (
	"math/big"

	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

// slotsElapsed saturates at zero for a slot earlier than the order.
func slotsElapsed(order *drift.Order, slot uint64) uint64 {
	if slot < order.Slot {
		return 0
	}
	return slot - order.Slot
}

func IsAuctionComplete(order *drift.Order, slot uint64) bool {
	if order.AuctionDuration == 0 {
		return true
	}

	return slotsElapsed(order, slot) > uint64(order.AuctionDuration)
}

func IsFallbackAvailableLiquiditySource(
	order *drift.Order,
	minAuctionDuration uint8,
	slot uint64,
) bool {
	if minAuctionDuration == 0 {
		return true
	}

	return slotsElapsed(order, slot) > uint64(minAuctionDuration)
}

func GetAuctionPrice(
	order *drift.Order,
	slot uint64,
	oraclePrice *big.Int,
) *big.Int {
	switch order.OrderType {
	case drift.OrderType_Market, drift.OrderType_TriggerMarket, drift.OrderType_Limit, drift.OrderType_TriggerLimit:
		return GetAuctionPriceForFixedAuction(order, slot)
	case drift.OrderType_Oracle:
		return GetAuctionPriceForOracleOffsetAuction(order, slot, oraclePrice)
	default:
		return nil
	}
}

// auctionOffset interpolates from start to end over the auction duration.
func auctionOffset(order *drift.Order, slot uint64) *big.Int {
	deltaDenominator := uint64(order.AuctionDuration)
	if deltaDenominator == 0 {
		return utils.BN(order.AuctionEndPrice)
	}
	deltaNumerator := min(slotsElapsed(order, slot), deltaDenominator)

	start := utils.BN(order.AuctionStartPrice)
	end := utils.BN(order.AuctionEndPrice)
	if order.Direction == drift.PositionDirection_Long {
		priceDelta := utils.DivX(
			utils.MulX(utils.SubX(end, start), utils.BN(deltaNumerator)),
			utils.BN(deltaDenominator),
		)
		return utils.AddX(start, priceDelta)
	}
	priceDelta := utils.DivX(
		utils.MulX(utils.SubX(start, end), utils.BN(deltaNumerator)),
		utils.BN(deltaDenominator),
	)
	return utils.SubX(start, priceDelta)
}

func GetAuctionPriceForFixedAuction(order *drift.Order, slot uint64) *big.Int {
	return auctionOffset(order, slot)
}

func GetAuctionPriceForOracleOffsetAuction(
	order *drift.Order,
	slot uint64,
	oraclePrice *big.Int,
) *big.Int {
	if oraclePrice == nil {
		oraclePrice = big.NewInt(0)
	}
	return utils.AddX(oraclePrice, auctionOffset(order, slot))
}
