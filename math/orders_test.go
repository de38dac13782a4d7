package math

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	oracles "github.com/aoikurokawa/flashlight-sub000/oracles/types"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

// go test --run TestIsAuctionComplete

func TestIsAuctionComplete(t *testing.T) {
	order := &drift.Order{Slot: 100, AuctionDuration: 10}
	assert.False(t, IsAuctionComplete(order, 100))
	assert.False(t, IsAuctionComplete(order, 105))
	// slot + duration is still inside the auction
	assert.False(t, IsAuctionComplete(order, 110))
	assert.True(t, IsAuctionComplete(order, 111))
	assert.True(t, IsAuctionComplete(order, 120))
	// a slot before the order saturates to zero elapsed
	assert.False(t, IsAuctionComplete(order, 50))
	assert.True(t, IsAuctionComplete(&drift.Order{Slot: 100}, 50))

	assert.True(t, IsFallbackAvailableLiquiditySource(order, 0, 100))
	assert.False(t, IsFallbackAvailableLiquiditySource(order, 5, 103))
	assert.True(t, IsFallbackAvailableLiquiditySource(order, 5, 110))
}

// go test --run TestGetAuctionPrice

func TestGetAuctionPrice(t *testing.T) {
	long := &drift.Order{
		OrderType:         drift.OrderType_Market,
		Direction:         drift.PositionDirection_Long,
		Slot:              0,
		AuctionDuration:   10,
		AuctionStartPrice: 100,
		AuctionEndPrice:   200,
	}
	assert.Equal(t, "100", GetAuctionPrice(long, 0, nil).String())
	assert.Equal(t, "150", GetAuctionPrice(long, 5, nil).String())
	assert.Equal(t, "200", GetAuctionPrice(long, 30, nil).String())

	short := *long
	short.Direction = drift.PositionDirection_Short
	short.AuctionStartPrice = 200
	short.AuctionEndPrice = 100
	assert.Equal(t, "170", GetAuctionPrice(&short, 3, nil).String())

	oracle := short
	oracle.OrderType = drift.OrderType_Oracle
	oracle.AuctionStartPrice = 20
	oracle.AuctionEndPrice = -20
	assert.Equal(t, "1000", GetAuctionPrice(&oracle, 5, utils.BN(1000)).String())
	assert.Equal(t, "-20", GetAuctionPrice(&oracle, 10, nil).String())
}

// go test --run TestGetLimitPrice

func TestGetLimitPrice(t *testing.T) {
	oracle := &oracles.OraclePriceData{Price: utils.BN(100_000_000)}

	limit := &drift.Order{OrderType: drift.OrderType_Limit, Price: 99_000_000}
	assert.Equal(t, "99000000", GetLimitPrice(limit, oracle, 0, nil).String())

	floating := &drift.Order{OrderType: drift.OrderType_Limit, OraclePriceOffset: -1_000_000}
	assert.Equal(t, "99000000", GetLimitPrice(floating, oracle, 0, nil).String())

	market := &drift.Order{OrderType: drift.OrderType_Market}
	assert.Nil(t, GetLimitPrice(market, oracle, 0, nil))
	assert.Equal(t, "7", GetLimitPrice(market, oracle, 0, utils.BN(7)).String())

	auction := &drift.Order{
		OrderType:         drift.OrderType_Limit,
		Direction:         drift.PositionDirection_Long,
		Price:             110_000_000,
		AuctionDuration:   10,
		AuctionStartPrice: 100_000_000,
		AuctionEndPrice:   110_000_000,
	}
	assert.Equal(t, "105000000", GetLimitPrice(auction, oracle, 5, nil).String())
	assert.Equal(t, "110000000", GetLimitPrice(auction, oracle, 11, nil).String())

	assert.True(t, HasLimitPrice(limit, 0))
	assert.False(t, HasLimitPrice(market, 0))
}

// go test --run TestIsOrderExpired

func TestIsOrderExpired(t *testing.T) {
	limit := &drift.Order{Status: drift.OrderStatus_Open, OrderType: drift.OrderType_Limit, MaxTs: 1000}
	market := &drift.Order{Status: drift.OrderStatus_Open, OrderType: drift.OrderType_Market, MaxTs: 1000}

	tests := []struct {
		name          string
		order         *drift.Order
		ts            int64
		enforceBuffer bool
		bufferSeconds int64
		expected      bool
	}{
		{"limit before max ts", limit, 1000, false, 0, false},
		{"limit after max ts", limit, 1001, false, 0, true},
		{"limit inside buffer", limit, 1020, true, 25, false},
		{"limit past buffer", limit, 1026, true, 25, true},
		{"limit default buffer", limit, 1015, true, 0, false},
		{"limit past default buffer", limit, 1016, true, 0, true},
		{"market ignores buffer", market, 1001, true, 25, true},
		{"no max ts", &drift.Order{Status: drift.OrderStatus_Open, OrderType: drift.OrderType_Limit}, 1 << 40, false, 0, false},
		{"trigger never expires", &drift.Order{Status: drift.OrderStatus_Open, OrderType: drift.OrderType_TriggerMarket, MaxTs: 1}, 1000, false, 0, false},
		{"filled never expires", &drift.Order{Status: drift.OrderStatus_Filled, OrderType: drift.OrderType_Limit, MaxTs: 1}, 1000, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOrderExpired(tt.order, tt.ts, tt.enforceBuffer, tt.bufferSeconds))
		})
	}
}

// go test --run TestOrderClassification

func TestOrderClassification(t *testing.T) {
	limit := &drift.Order{OrderType: drift.OrderType_Limit, Slot: 10, AuctionDuration: 5}
	assert.True(t, IsTakingOrder(limit, 12))
	assert.False(t, IsRestingLimitOrder(limit, 12))
	assert.True(t, IsRestingLimitOrder(limit, 16))

	postOnly := *limit
	postOnly.PostOnly = true
	assert.True(t, IsRestingLimitOrder(&postOnly, 12))

	oracle := &drift.Order{OrderType: drift.OrderType_Oracle}
	assert.True(t, IsMarketOrder(oracle))
	assert.True(t, IsTakingOrder(oracle, 100))

	trigger := &drift.Order{OrderType: drift.OrderType_TriggerLimit, TriggerCondition: drift.OrderTriggerCondition_Above}
	assert.True(t, MustBeTriggered(trigger))
	assert.False(t, IsTriggered(trigger))
	trigger.TriggerCondition = drift.OrderTriggerCondition_TriggeredAbove
	assert.True(t, IsTriggered(trigger))

	assert.True(t, IsSupportedOrderType(oracle))
	assert.False(t, IsSupportedOrderType(&drift.Order{OrderType: drift.OrderType(9)}))

	assert.Equal(t, uint64(0), RemainingBaseAssetAmount(&drift.Order{BaseAssetAmount: 1, BaseAssetAmountFilled: 3}))
	assert.Equal(t, uint64(2), RemainingBaseAssetAmount(&drift.Order{BaseAssetAmount: 3, BaseAssetAmountFilled: 1}))
}

// go test --run TestStandardize

func TestStandardize(t *testing.T) {
	tick := utils.BN(100)
	assert.Equal(t, "1200", StandardizePrice(utils.BN(1234), tick, drift.PositionDirection_Long).String())
	assert.Equal(t, "1300", StandardizePrice(utils.BN(1234), tick, drift.PositionDirection_Short).String())
	assert.Equal(t, "1200", StandardizePrice(utils.BN(1200), tick, drift.PositionDirection_Short).String())
	assert.Equal(t, "1234", StandardizePrice(utils.BN(1234), nil, drift.PositionDirection_Short).String())

	assert.Equal(t, "1200", StandardizeBaseAssetAmount(utils.BN(1234), tick).String())
	assert.Equal(t, "1234", StandardizeBaseAssetAmount(utils.BN(1234), utils.BN(0)).String())
}
