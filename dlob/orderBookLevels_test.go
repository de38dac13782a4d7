package dlob

import (
	"math/big"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/math"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

// level prices are given to one decimal place.
func level(priceValue float64, size uint64, source types.LiquiditySource) *types.L2Level {
	sizeBN := utils.BN(size)
	return &types.L2Level{
		Price:   utils.BN(int64(priceValue*10+0.5) * 100_000),
		Size:    sizeBN,
		Sources: map[types.LiquiditySource]*big.Int{source: utils.IntX(sizeBN)},
	}
}

func levelPrices(levels []*types.L2Level) []string {
	prices := make([]string, 0, len(levels))
	for _, level := range levels {
		prices = append(prices, level.Price.String())
	}
	return prices
}

func testPerpMarket() *drift.PerpMarket {
	reserve := utils.MulX(utils.BN(1000), utils.BN(1_000_000_000))
	return &drift.PerpMarket{
		Amm: drift.AMM{
			BaseAssetReserve:    utils.Uint128(reserve),
			QuoteAssetReserve:   utils.Uint128(reserve),
			SqrtK:               utils.Uint128(reserve),
			PegMultiplier:       utils.Uint128(utils.BN(100_000_000)),
			MinBaseAssetReserve: utils.Uint128(utils.DivX(reserve, utils.BN(2))),
			MaxBaseAssetReserve: utils.Uint128(utils.MulX(reserve, utils.BN(2))),
			OrderStepSize:       1_000_000,
			OrderTickSize:       100,
			MinOrderSize:        1_000_000,
		},
	}
}

// go test --run TestMergeL2LevelGenerators

func TestMergeL2LevelGenerators(t *testing.T) {
	first := common.SliceGenerator([]*types.L2Level{
		level(100, 1, types.LiquiditySourceDlob),
		level(102, 1, types.LiquiditySourceDlob),
	})
	second := common.SliceGenerator([]*types.L2Level{
		level(100, 2, types.LiquiditySourceVamm),
		level(101, 2, types.LiquiditySourceVamm),
	})

	merged := common.Collect(MergeL2LevelGenerators(
		[]*common.Generator[*types.L2Level, int]{first, nil, second},
		func(a, b *types.L2Level) bool {
			return a.Price.Cmp(b.Price) < 0
		},
	))
	require.Len(t, merged, 4)
	assert.Equal(t, []string{"100000000", "100000000", "101000000", "102000000"}, levelPrices(merged))
	// equal prices keep generator order
	assert.Contains(t, merged[0].Sources, types.LiquiditySourceDlob)
	assert.Contains(t, merged[1].Sources, types.LiquiditySourceVamm)
}

// go test --run TestCreateL2Levels

func TestCreateL2Levels(t *testing.T) {
	input := []*types.L2Level{
		level(100, 1, types.LiquiditySourceDlob),
		level(100, 2, types.LiquiditySourceVamm),
		level(100, 3, types.LiquiditySourceDlob),
		level(101, 4, types.LiquiditySourceDlob),
		level(102, 5, types.LiquiditySourceDlob),
	}

	levels := CreateL2Levels(common.SliceGenerator(input), 2)
	require.Len(t, levels, 2)
	assert.Equal(t, "6", levels[0].Size.String())
	assert.Equal(t, "4", levels[0].Sources[types.LiquiditySourceDlob].String())
	assert.Equal(t, "2", levels[0].Sources[types.LiquiditySourceVamm].String())
	assert.Equal(t, "101000000", levels[1].Price.String())

	assert.Equal(t, "1", input[0].Size.String())
	assert.Len(t, input[0].Sources, 1)

	assert.Empty(t, CreateL2Levels(common.EmptyGenerator[*types.L2Level, int](), 5))
}

// go test --run TestCloneL2Level

func TestCloneL2Level(t *testing.T) {
	original := level(100, 1, types.LiquiditySourceDlob)
	clone := CloneL2Level(original)
	clone.Size.SetInt64(7)
	clone.Sources[types.LiquiditySourceDlob].SetInt64(7)
	clone.Sources[types.LiquiditySourceVamm] = utils.BN(1)

	assert.Equal(t, "1", original.Size.String())
	assert.Equal(t, "1", original.Sources[types.LiquiditySourceDlob].String())
	assert.Len(t, original.Sources, 1)
	assert.Nil(t, CloneL2Level(nil))
}

// go test --run TestGroupL2

func TestGroupL2(t *testing.T) {
	l2 := &types.L2OrderBook{
		Bids: []*types.L2Level{
			level(99.4, 1, types.LiquiditySourceDlob),
			level(99.2, 2, types.LiquiditySourceDlob),
			level(98.7, 1, types.LiquiditySourceVamm),
		},
		Asks: []*types.L2Level{
			level(100.2, 1, types.LiquiditySourceDlob),
			level(100.8, 1, types.LiquiditySourceDlob),
			level(101.5, 1, types.LiquiditySourceDlob),
		},
		Slot: 9,
	}

	grouped := GroupL2(l2, utils.BN(1_000_000), 10)
	assert.Equal(t, []string{"99000000", "98000000"}, levelPrices(grouped.Bids))
	assert.Equal(t, "3", grouped.Bids[0].Size.String())
	assert.Equal(t, []string{"101000000", "102000000"}, levelPrices(grouped.Asks))
	assert.Equal(t, "2", grouped.Asks[0].Size.String())
	assert.Equal(t, uint64(9), grouped.Slot)

	// input stays ungrouped
	assert.Equal(t, "99400000", l2.Bids[0].Price.String())

	grouped = GroupL2(l2, utils.BN(1_000_000), 1)
	assert.Len(t, grouped.Bids, 1)
	assert.Len(t, grouped.Asks, 1)
	assert.Equal(t, "3", grouped.Bids[0].Size.String())
}

// go test --run TestUncrossL2

func TestUncrossL2(t *testing.T) {
	grouping := utils.BN(1_000_000)
	oraclePrice := utils.BN(101_000_000)
	twap := utils.BN(101_000_000)

	bids := []*types.L2Level{level(99, 1, types.LiquiditySourceDlob)}
	asks := []*types.L2Level{level(100, 1, types.LiquiditySourceDlob)}
	newBids, newAsks := UncrossL2(bids, asks, oraclePrice, twap, twap, grouping, nil, nil)
	assert.Equal(t, levelPrices(bids), levelPrices(newBids))
	assert.Equal(t, levelPrices(asks), levelPrices(newAsks))

	bids = []*types.L2Level{
		level(102, 1, types.LiquiditySourceDlob),
		level(99, 1, types.LiquiditySourceDlob),
	}
	asks = []*types.L2Level{
		level(100, 1, types.LiquiditySourceDlob),
		level(103, 1, types.LiquiditySourceDlob),
	}
	newBids, newAsks = UncrossL2(bids, asks, oraclePrice, twap, twap, grouping, nil, nil)
	assert.Equal(t, []string{"100000000", "99000000"}, levelPrices(newBids))
	assert.Equal(t, []string{"102000000", "103000000"}, levelPrices(newAsks))
	assert.Less(t, newBids[0].Price.Cmp(newAsks[0].Price), 0)
	assert.Equal(t, "102000000", bids[0].Price.String())

	// a user's own level is never moved
	newBids, newAsks = UncrossL2(bids, asks, oraclePrice, twap, twap, grouping, map[string]bool{"102000000": true}, nil)
	assert.Equal(t, []string{"102000000", "99000000"}, levelPrices(newBids))
	assert.Equal(t, []string{"100000000", "103000000"}, levelPrices(newAsks))
}

// go test --run TestGetVammL2Generator

func TestGetVammL2Generator(t *testing.T) {
	generator, err := GetVammL2Generator(testPerpMarket(), 10, types.DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS)
	require.NoError(t, err)

	bids := common.Collect(generator.GetL2Bids())
	asks := common.Collect(generator.GetL2Asks())
	require.Len(t, bids, 10)
	require.Len(t, asks, 10)

	for idx := 1; idx < len(bids); idx++ {
		assert.LessOrEqual(t, bids[idx].Price.Cmp(bids[idx-1].Price), 0)
		assert.GreaterOrEqual(t, asks[idx].Price.Cmp(asks[idx-1].Price), 0)
	}
	assert.Less(t, bids[0].Price.Cmp(asks[0].Price), 0)
	assert.Less(t, bids[0].Price.Cmp(utils.BN(100_000_000)), 0)
	assert.Greater(t, asks[0].Price.Cmp(utils.BN(100_000_000)), 0)
	for _, level := range append(bids, asks...) {
		assert.Equal(t, 1, level.Size.Sign())
		assert.Equal(t, 0, level.Size.Cmp(level.Sources[types.LiquiditySourceVamm]))
	}

	// every call starts again from the reserves
	again := common.Collect(generator.GetL2Bids())
	assert.Equal(t, levelPrices(bids), levelPrices(again))
}

// go test --run TestGetVammL2GeneratorEdges

func TestGetVammL2GeneratorEdges(t *testing.T) {
	generator, err := GetVammL2Generator(&drift.PerpMarket{}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, common.Collect(generator.GetL2Asks()))
	assert.Empty(t, common.Collect(generator.GetL2Bids()))

	_, err = GetVammL2Generator(&drift.PerpMarket{}, 10, types.DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS)
	assert.True(t, errors.Is(err, math.ErrInvalidAmm))

	assert.Panics(t, func() {
		_, _ = GetVammL2Generator(testPerpMarket(), len(types.DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS), types.DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS)
	})

	// no open liquidity on either side
	market := testPerpMarket()
	market.Amm.MinBaseAssetReserve = market.Amm.BaseAssetReserve
	market.Amm.MaxBaseAssetReserve = market.Amm.BaseAssetReserve
	generator, err = GetVammL2Generator(market, 10, types.DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS)
	require.NoError(t, err)
	assert.Empty(t, common.Collect(generator.GetL2Asks()))
	assert.Empty(t, common.Collect(generator.GetL2Bids()))
}
