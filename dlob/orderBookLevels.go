package dlob

import (
	"math/big"
	"slices"

	"github.com/aoikurokawa/flashlight-sub000/assert"
	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/constants"
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/math"
	oracles "github.com/aoikurokawa/flashlight-sub000/oracles/types"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

// GetL2GeneratorFromDLOBNodes turns a node stream such as
// GetRestingLimitAsks into one level per order.
func GetL2GeneratorFromDLOBNodes(
	dlobNodes *common.Generator[*types.DLOBNode, int],
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
) *common.Generator[*types.L2Level, int] {
	return common.NewGenerator(func(yield common.YieldFn[*types.L2Level, int]) {
		dlobNodes.Each(func(dlobNode *types.DLOBNode, key int) bool {
			price := dlobNode.GetPrice(oraclePriceData, slot)
			if price == nil {
				return false
			}
			size := utils.BN(dlobNode.RemainingBaseAmount())
			return yield(&types.L2Level{
				Price: price,
				Size:  size,
				Sources: map[types.LiquiditySource]*big.Int{
					types.LiquiditySourceDlob: size,
				},
			}, key)
		})
	})
}

type l2LevelItem struct {
	next      *types.L2Level
	done      bool
	generator *common.Generator[*types.L2Level, int]
}

// MergeL2LevelGenerators is a k-way merge of sorted level streams. compare
// reports whether a ranks strictly ahead of b; equal levels come out in
// generator order.
func MergeL2LevelGenerators(
	l2LevelGenerators []*common.Generator[*types.L2Level, int],
	compare func(a *types.L2Level, b *types.L2Level) bool,
) *common.Generator[*types.L2Level, int] {
	return common.NewGenerator(func(yield common.YieldFn[*types.L2Level, int]) {
		items := make([]*l2LevelItem, 0, len(l2LevelGenerators))
		defer func() {
			for _, item := range items {
				item.generator.Cancel()
			}
		}()
		for _, generator := range l2LevelGenerators {
			if generator == nil {
				continue
			}
			next, _, done := generator.Next()
			items = append(items, &l2LevelItem{next: next, done: done, generator: generator})
		}

		idx := 0
		for {
			var best *l2LevelItem
			for _, item := range items {
				if item.done {
					continue
				}
				if best == nil || compare(item.next, best.next) {
					best = item
				}
			}
			if best == nil {
				return
			}
			level := best.next
			best.next, _, best.done = best.generator.Next()
			if yield(level, idx) {
				return
			}
			idx++
		}
	})
}

func mergeL2Level(into *types.L2Level, level *types.L2Level) {
	into.Size = utils.AddX(into.Size, level.Size)
	for source, size := range level.Sources {
		if existing, exists := into.Sources[source]; exists {
			into.Sources[source] = utils.AddX(existing, size)
		} else {
			into.Sources[source] = utils.IntX(size)
		}
	}
}

// CreateL2Levels aggregates consecutive equal prices into at most depth
// levels. Input levels are not modified.
func CreateL2Levels(
	generator *common.Generator[*types.L2Level, int],
	depth int,
) []*types.L2Level {
	var levels []*types.L2Level
	generator.Each(func(level *types.L2Level, _ int) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price.Cmp(level.Price) == 0 {
			mergeL2Level(levels[len(levels)-1], level)
			return false
		}
		if len(levels) == depth {
			return true
		}
		levels = append(levels, CloneL2Level(level))
		return false
	})
	return levels
}

// GetVammL2Generator quotes the AMM as numOrders synthetic levels per side.
// The first levels swap the given top of book quote amounts; the rest split
// the remaining open liquidity evenly. Every call of GetL2Bids or GetL2Asks
// starts again from the market's reserves.
func GetVammL2Generator(
	marketAccount *drift.PerpMarket,
	numOrders int,
	topOfBookQuoteAmounts []*big.Int,
) (*types.L2OrderBookGenerator, error) {
	if numOrders <= 0 {
		return &types.L2OrderBookGenerator{
			GetL2Asks: common.EmptyGenerator[*types.L2Level, int],
			GetL2Bids: common.EmptyGenerator[*types.L2Level, int],
		}, nil
	}
	numBaseOrders := numOrders
	if len(topOfBookQuoteAmounts) > 0 {
		assert.Assert(len(topOfBookQuoteAmounts) < numOrders, "top of book amounts must leave room for base orders")
		numBaseOrders = numOrders - len(topOfBookQuoteAmounts)
	}

	amm := &marketAccount.Amm
	bidReserves, askReserves, err := math.CalculateSpreadReserves(amm)
	if err != nil {
		return nil, err
	}

	openBids, openAsks := math.CalculateMarketOpenBidAsk(
		utils.BigUint128(amm.BaseAssetReserve),
		utils.BigUint128(amm.MinBaseAssetReserve),
		utils.BigUint128(amm.MaxBaseAssetReserve),
		utils.BN(amm.OrderStepSize),
	)
	openAsks = utils.AbsX(openAsks)

	minOrderSize := utils.BN(amm.MinOrderSize * 2)
	if openBids.Cmp(minOrderSize) < 0 {
		openBids = utils.BN(0)
	}
	if openAsks.Cmp(minOrderSize) < 0 {
		openAsks = utils.BN(0)
	}

	bids := vammSide{
		amm:            amm,
		reserves:       bidReserves,
		openLiquidity:  openBids,
		quoteDirection: drift.SwapDirection_Remove,
		baseDirection:  drift.SwapDirection_Add,
	}
	asks := vammSide{
		amm:            amm,
		reserves:       askReserves,
		openLiquidity:  openAsks,
		quoteDirection: drift.SwapDirection_Add,
		baseDirection:  drift.SwapDirection_Remove,
	}

	return &types.L2OrderBookGenerator{
		GetL2Bids: func() *common.Generator[*types.L2Level, int] {
			return bids.levels(numOrders, numBaseOrders, topOfBookQuoteAmounts)
		},
		GetL2Asks: func() *common.Generator[*types.L2Level, int] {
			return asks.levels(numOrders, numBaseOrders, topOfBookQuoteAmounts)
		},
	}, nil
}

type vammSide struct {
	amm            *drift.AMM
	reserves       *math.AssetReserve
	openLiquidity  *big.Int
	quoteDirection drift.SwapDirection
	baseDirection  drift.SwapDirection
}

func (p vammSide) levels(
	numOrders int,
	numBaseOrders int,
	topOfBookQuoteAmounts []*big.Int,
) *common.Generator[*types.L2Level, int] {
	return common.NewGenerator(func(yield common.YieldFn[*types.L2Level, int]) {
		sideAmm := drift.AMM{
			BaseAssetReserve:  utils.Uint128(p.reserves.Base),
			QuoteAssetReserve: utils.Uint128(p.reserves.Quote),
			SqrtK:             p.amm.SqrtK,
			PegMultiplier:     p.amm.PegMultiplier,
		}
		pegMultiplier := utils.BigUint128(p.amm.PegMultiplier)
		topOfBookSize := utils.BN(0)
		size := utils.DivX(p.openLiquidity, utils.BN(numBaseOrders))

		for count := 0; count < numOrders && size.Sign() > 0; count++ {
			baseReserve := utils.BigUint128(sideAmm.BaseAssetReserve)
			quoteReserve := utils.BigUint128(sideAmm.QuoteAssetReserve)

			var quoteSwapped, baseSwapped, afterSwapQuoteReserves, afterSwapBaseReserves *big.Int
			var err error

			if count < len(topOfBookQuoteAmounts) {
				remainingBaseLiquidity := utils.SubX(p.openLiquidity, topOfBookSize)
				quoteSwapped = topOfBookQuoteAmounts[count]
				afterSwapQuoteReserves, afterSwapBaseReserves, err = math.CalculateAmmReservesAfterSwap(
					&sideAmm,
					drift.AssetType_Quote,
					quoteSwapped,
					p.quoteDirection,
				)
				if err != nil {
					return
				}
				baseSwapped = utils.AbsX(utils.SubX(baseReserve, afterSwapBaseReserves))
				if remainingBaseLiquidity.Cmp(baseSwapped) < 0 {
					baseSwapped = remainingBaseLiquidity
					afterSwapQuoteReserves, afterSwapBaseReserves, err = math.CalculateAmmReservesAfterSwap(
						&sideAmm,
						drift.AssetType_Base,
						baseSwapped,
						p.baseDirection,
					)
					if err != nil {
						return
					}
					quoteSwapped = math.CalculateQuoteAssetAmountSwapped(
						utils.AbsX(utils.SubX(quoteReserve, afterSwapQuoteReserves)),
						pegMultiplier,
						p.baseDirection,
					)
				}
				topOfBookSize = utils.AddX(topOfBookSize, baseSwapped)
				size = utils.DivX(utils.SubX(p.openLiquidity, topOfBookSize), utils.BN(numBaseOrders))
			} else {
				baseSwapped = size
				afterSwapQuoteReserves, afterSwapBaseReserves, err = math.CalculateAmmReservesAfterSwap(
					&sideAmm,
					drift.AssetType_Base,
					baseSwapped,
					p.baseDirection,
				)
				if err != nil {
					return
				}
				quoteSwapped = math.CalculateQuoteAssetAmountSwapped(
					utils.AbsX(utils.SubX(quoteReserve, afterSwapQuoteReserves)),
					pegMultiplier,
					p.baseDirection,
				)
			}
			if baseSwapped.Sign() == 0 {
				return
			}

			price := utils.DivX(utils.MulX(quoteSwapped, constants.BASE_PRECISION), baseSwapped)
			sideAmm.BaseAssetReserve = utils.Uint128(afterSwapBaseReserves)
			sideAmm.QuoteAssetReserve = utils.Uint128(afterSwapQuoteReserves)

			if yield(&types.L2Level{
				Price: price,
				Size:  baseSwapped,
				Sources: map[types.LiquiditySource]*big.Int{
					types.LiquiditySourceVamm: baseSwapped,
				},
			}, count) {
				return
			}
		}
	})
}

// GroupL2 buckets both sides to multiples of grouping: bids round down,
// asks round up.
func GroupL2(
	l2 *types.L2OrderBook,
	grouping *big.Int,
	depth int,
) *types.L2OrderBook {
	return &types.L2OrderBook{
		Bids: GroupL2Levels(l2.Bids, grouping, drift.PositionDirection_Long, depth),
		Asks: GroupL2Levels(l2.Asks, grouping, drift.PositionDirection_Short, depth),
		Slot: l2.Slot,
	}
}

// CloneL2Level deep copies a level, including its sources.
func CloneL2Level(level *types.L2Level) *types.L2Level {
	if level == nil {
		return nil
	}
	sources := make(map[types.LiquiditySource]*big.Int, len(level.Sources))
	for source, size := range level.Sources {
		sources[source] = utils.IntX(size)
	}
	return &types.L2Level{
		Price:   utils.IntX(level.Price),
		Size:    utils.IntX(level.Size),
		Sources: sources,
	}
}

func GroupL2Levels(
	levels []*types.L2Level,
	grouping *big.Int,
	direction drift.PositionDirection,
	depth int,
) []*types.L2Level {
	var groupedLevels []*types.L2Level
	for _, level := range levels {
		price := math.StandardizePrice(level.Price, grouping, direction)
		if len(groupedLevels) > 0 && groupedLevels[len(groupedLevels)-1].Price.Cmp(price) == 0 {
			mergeL2Level(groupedLevels[len(groupedLevels)-1], level)
			continue
		}
		if len(groupedLevels) == depth {
			break
		}
		groupedLevel := CloneL2Level(level)
		groupedLevel.Price = utils.IntX(price)
		groupedLevels = append(groupedLevels, groupedLevel)
	}
	return groupedLevels
}

// mergeByPrice folds adjacent levels with the same price. Input must be
// sorted.
func mergeByPrice(levels []*types.L2Level) []*types.L2Level {
	var merged []*types.L2Level
	for _, level := range levels {
		if len(merged) > 0 && merged[len(merged)-1].Price.Cmp(level.Price) == 0 {
			mergeL2Level(merged[len(merged)-1], level)
			continue
		}
		merged = append(merged, CloneL2Level(level))
	}
	return merged
}

// UncrossL2 moves crossed levels to just inside the reference price
// (oracle plus the mark premium) so a crossed display book reads as a
// normal one. Levels at prices in userBids or userAsks are left alone.
func UncrossL2(
	bids []*types.L2Level,
	asks []*types.L2Level,
	oraclePrice *big.Int,
	oracleTwap5Min *big.Int,
	markTwap5Min *big.Int,
	grouping *big.Int,
	userBids map[string]bool,
	userAsks map[string]bool,
) ([]*types.L2Level, []*types.L2Level) {
	if len(bids) == 0 || len(asks) == 0 {
		return bids, asks
	}
	if bids[0].Price.Cmp(asks[0].Price) < 0 {
		return bids, asks
	}

	var newBids []*types.L2Level
	var newAsks []*types.L2Level

	addLevel := func(levels []*types.L2Level, newPrice *big.Int, oldLevel *types.L2Level) []*types.L2Level {
		if len(levels) > 0 && levels[len(levels)-1].Price.Cmp(newPrice) == 0 {
			mergeL2Level(levels[len(levels)-1], oldLevel)
			return levels
		}
		level := CloneL2Level(oldLevel)
		level.Price = newPrice
		return append(levels, level)
	}

	referencePrice := utils.AddX(oraclePrice, utils.SubX(markTwap5Min, oracleTwap5Min))

	var maxBid *big.Int
	var minAsk *big.Int
	getPriceAndSetBound := func(newPrice *big.Int, direction drift.PositionDirection) *big.Int {
		if direction == drift.PositionDirection_Long {
			if maxBid == nil {
				maxBid = newPrice
			} else {
				maxBid = utils.Min(maxBid, newPrice)
			}
			return maxBid
		}
		if minAsk == nil {
			minAsk = newPrice
		} else {
			minAsk = utils.Max(minAsk, newPrice)
		}
		return minAsk
	}

	bidIndex := 0
	askIndex := 0
	for bidIndex < len(bids) || askIndex < len(asks) {
		if bidIndex >= len(bids) {
			newAsks = append(newAsks, CloneL2Level(asks[askIndex]))
			askIndex++
			continue
		}
		if askIndex >= len(asks) {
			newBids = append(newBids, CloneL2Level(bids[bidIndex]))
			bidIndex++
			continue
		}

		nextBid := bids[bidIndex]
		nextAsk := asks[askIndex]

		if userBids[nextBid.Price.String()] {
			newBids = append(newBids, CloneL2Level(nextBid))
			bidIndex++
			continue
		}
		if userAsks[nextAsk.Price.String()] {
			newAsks = append(newAsks, CloneL2Level(nextAsk))
			askIndex++
			continue
		}

		if nextBid.Price.Cmp(nextAsk.Price) >= 0 {
			switch {
			case nextBid.Price.Cmp(referencePrice) > 0 && nextAsk.Price.Cmp(referencePrice) > 0:
				newBidPrice := getPriceAndSetBound(utils.SubX(nextAsk.Price, grouping), drift.PositionDirection_Long)
				newBids = addLevel(newBids, newBidPrice, nextBid)
				bidIndex++
			case nextAsk.Price.Cmp(referencePrice) < 0 && nextBid.Price.Cmp(referencePrice) < 0:
				newAskPrice := getPriceAndSetBound(utils.AddX(nextBid.Price, grouping), drift.PositionDirection_Short)
				newAsks = addLevel(newAsks, newAskPrice, nextAsk)
				askIndex++
			default:
				newBidPrice := getPriceAndSetBound(utils.SubX(referencePrice, grouping), drift.PositionDirection_Long)
				newAskPrice := getPriceAndSetBound(utils.AddX(referencePrice, grouping), drift.PositionDirection_Short)
				newBids = addLevel(newBids, newBidPrice, nextBid)
				newAsks = addLevel(newAsks, newAskPrice, nextAsk)
				bidIndex++
				askIndex++
			}
			continue
		}

		if minAsk != nil && nextAsk.Price.Cmp(minAsk) <= 0 {
			newAsks = addLevel(newAsks, getPriceAndSetBound(nextAsk.Price, drift.PositionDirection_Short), nextAsk)
		} else {
			newAsks = append(newAsks, CloneL2Level(nextAsk))
		}
		askIndex++

		if maxBid != nil && nextBid.Price.Cmp(maxBid) >= 0 {
			newBids = addLevel(newBids, getPriceAndSetBound(nextBid.Price, drift.PositionDirection_Long), nextBid)
		} else {
			newBids = append(newBids, CloneL2Level(nextBid))
		}
		bidIndex++
	}

	slices.SortStableFunc(newBids, func(a *types.L2Level, b *types.L2Level) int {
		return b.Price.Cmp(a.Price)
	})
	slices.SortStableFunc(newAsks, func(a *types.L2Level, b *types.L2Level) int {
		return a.Price.Cmp(b.Price)
	})

	return mergeByPrice(newBids), mergeByPrice(newAsks)
}
