package dlob

import (
	"math/big"
	"slices"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/constants"
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/math"
	oracles "github.com/aoikurokawa/flashlight-sub000/oracles/types"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

// NodeLessFn reports whether a ranks strictly ahead of b.
type NodeLessFn func(a, b *types.DLOBNode, slot uint64, oraclePriceData *oracles.OraclePriceData) bool

type generatorItem struct {
	next      *types.DLOBNode
	done      bool
	generator *common.Generator[*types.DLOBNode, int]
}

func nodePrice(node *types.DLOBNode, oraclePriceData *oracles.OraclePriceData, slot uint64) *big.Int {
	price := node.GetPrice(oraclePriceData, slot)
	if price == nil {
		return constants.ZERO
	}
	return price
}

func priceAscending(a, b *types.DLOBNode, slot uint64, oraclePriceData *oracles.OraclePriceData) bool {
	return nodePrice(a, oraclePriceData, slot).Cmp(nodePrice(b, oraclePriceData, slot)) < 0
}

func priceDescending(a, b *types.DLOBNode, slot uint64, oraclePriceData *oracles.OraclePriceData) bool {
	return nodePrice(a, oraclePriceData, slot).Cmp(nodePrice(b, oraclePriceData, slot)) > 0
}

func slotAscending(a, b *types.DLOBNode, _ uint64, _ *oracles.OraclePriceData) bool {
	return a.Order.Slot < b.Order.Slot
}

// takingFirst ranks taking orders by slot ahead of everything else, then
// falls back to the price order.
func takingFirst(priceLess NodeLessFn) NodeLessFn {
	return func(a, b *types.DLOBNode, slot uint64, oraclePriceData *oracles.OraclePriceData) bool {
		aTaking := !a.IsVammNode() && math.IsTakingOrder(&a.Order, slot)
		bTaking := !b.IsVammNode() && math.IsTakingOrder(&b.Order, slot)
		switch {
		case aTaking && bTaking:
			return a.Order.Slot < b.Order.Slot
		case aTaking:
			return true
		case bTaking:
			return false
		}
		return priceLess(a, b, slot, oraclePriceData)
	}
}

// GetBestNode merges already sorted generators into one stream ordered by
// lessFn. Ties go to the generator listed first. Filled nodes and nodes
// rejected by filterFcn are skipped. The result consumes its inputs and can
// be walked once.
func (p *DLOB) GetBestNode(
	generatorList []*common.Generator[*types.DLOBNode, int],
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
	lessFn NodeLessFn,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[*types.DLOBNode, int] {
	return common.NewGenerator(func(yield common.YieldFn[*types.DLOBNode, int]) {
		items := make([]*generatorItem, 0, len(generatorList))
		defer func() {
			for _, item := range items {
				item.generator.Cancel()
			}
		}()
		for _, generator := range generatorList {
			if generator == nil {
				continue
			}
			next, _, done := generator.Next()
			items = append(items, &generatorItem{next: next, done: done, generator: generator})
		}

		idx := 0
		for {
			var best *generatorItem
			for _, item := range items {
				if item.done {
					continue
				}
				if best == nil || lessFn(item.next, best.next, slot, oraclePriceData) {
					best = item
				}
			}
			if best == nil {
				return
			}

			node := best.next
			best.next, _, best.done = best.generator.Next()
			if node.IsBaseFilled() {
				continue
			}
			if filterFcn != nil && !filterFcn(node) {
				continue
			}
			if yield(node, idx) {
				return
			}
			idx++
		}
	})
}

func (p *DLOB) marketGenerators(
	marketType drift.MarketType,
	marketIndex uint16,
	keys ...listKey,
) []*common.Generator[*types.DLOBNode, int] {
	lists := p.exchange.Get(marketType, marketIndex)
	if lists == nil {
		return nil
	}
	return lists.generators(keys...)
}

func (p *DLOB) GetRestingLimitAsks(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[*types.DLOBNode, int] {
	p.UpdateRestingLimitOrders(slot)

	generatorList := p.marketGenerators(marketType, marketIndex,
		listKey{types.NodeTypeRestingLimit, types.NodeSubTypeAsk},
		listKey{types.NodeTypeFloatingLimit, types.NodeSubTypeAsk},
	)
	merged := p.GetBestNode(generatorList, oraclePriceData, slot, priceAscending, filterFcn)
	return p.sortByLivePrice(merged, oraclePriceData, slot, 1)
}

func (p *DLOB) GetRestingLimitBids(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[*types.DLOBNode, int] {
	p.UpdateRestingLimitOrders(slot)

	generatorList := p.marketGenerators(marketType, marketIndex,
		listKey{types.NodeTypeRestingLimit, types.NodeSubTypeBid},
		listKey{types.NodeTypeFloatingLimit, types.NodeSubTypeBid},
	)
	merged := p.GetBestNode(generatorList, oraclePriceData, slot, priceDescending, filterFcn)
	return p.sortByLivePrice(merged, oraclePriceData, slot, -1)
}

// sortByLivePrice stable-sorts merged resting nodes by the price they quote
// at slot. Post-only orders still inside their auction rest at the auction
// price, not at the stored limit price the lists are keyed by. sign is 1 for
// ascending and -1 for descending.
func (p *DLOB) sortByLivePrice(
	generator *common.Generator[*types.DLOBNode, int],
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
	sign int,
) *common.Generator[*types.DLOBNode, int] {
	return common.NewGenerator(func(yield common.YieldFn[*types.DLOBNode, int]) {
		nodes := common.Collect(generator)
		slices.SortStableFunc(nodes, func(a, b *types.DLOBNode) int {
			return sign * nodePrice(a, oraclePriceData, slot).Cmp(nodePrice(b, oraclePriceData, slot))
		})
		for idx, node := range nodes {
			if yield(node, idx) {
				return
			}
		}
	})
}

// GetTakingBids walks market and taking limit bids in arrival order.
func (p *DLOB) GetTakingBids(
	marketIndex uint16,
	marketType drift.MarketType,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
) *common.Generator[*types.DLOBNode, int] {
	p.UpdateRestingLimitOrders(slot)

	generatorList := p.marketGenerators(marketType, marketIndex,
		listKey{types.NodeTypeMarket, types.NodeSubTypeBid},
		listKey{types.NodeTypeTakingLimit, types.NodeSubTypeBid},
	)
	return p.GetBestNode(generatorList, oraclePriceData, slot, slotAscending, nil)
}

func (p *DLOB) GetTakingAsks(
	marketIndex uint16,
	marketType drift.MarketType,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
) *common.Generator[*types.DLOBNode, int] {
	p.UpdateRestingLimitOrders(slot)

	generatorList := p.marketGenerators(marketType, marketIndex,
		listKey{types.NodeTypeMarket, types.NodeSubTypeAsk},
		listKey{types.NodeTypeTakingLimit, types.NodeSubTypeAsk},
	)
	return p.GetBestNode(generatorList, oraclePriceData, slot, slotAscending, nil)
}

// GetVammNodeGenerator yields a single vAMM node at price, or nothing.
func GetVammNodeGenerator(price *big.Int) *common.Generator[*types.DLOBNode, int] {
	if price == nil {
		return common.EmptyGenerator[*types.DLOBNode, int]()
	}
	return common.SliceGenerator([]*types.DLOBNode{types.NewVammNode(price)})
}

// GetAsks is the full ask side: taking orders first by slot, then resting
// orders and the vAMM quote by price.
func (p *DLOB) GetAsks(
	marketIndex uint16,
	fallbackAsk *big.Int,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) *common.Generator[*types.DLOBNode, int] {
	generatorList := []*common.Generator[*types.DLOBNode, int]{
		p.GetTakingAsks(marketIndex, marketType, slot, oraclePriceData),
		p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil),
	}
	if marketType == drift.MarketType_Perp && fallbackAsk != nil {
		generatorList = append(generatorList, GetVammNodeGenerator(fallbackAsk))
	}
	return p.GetBestNode(generatorList, oraclePriceData, slot, takingFirst(priceAscending), nil)
}

func (p *DLOB) GetBids(
	marketIndex uint16,
	fallbackBid *big.Int,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) *common.Generator[*types.DLOBNode, int] {
	generatorList := []*common.Generator[*types.DLOBNode, int]{
		p.GetTakingBids(marketIndex, marketType, slot, oraclePriceData),
		p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil),
	}
	if marketType == drift.MarketType_Perp && fallbackBid != nil {
		generatorList = append(generatorList, GetVammNodeGenerator(fallbackBid))
	}
	return p.GetBestNode(generatorList, oraclePriceData, slot, takingFirst(priceDescending), nil)
}

func firstNode(generator *common.Generator[*types.DLOBNode, int]) *types.DLOBNode {
	var first *types.DLOBNode
	generator.Each(func(node *types.DLOBNode, _ int) bool {
		first = node
		return true
	})
	return first
}

func (p *DLOB) GetBestAsk(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) *big.Int {
	bestAsk := firstNode(p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil))
	if bestAsk == nil {
		return nil
	}
	return bestAsk.GetPrice(oraclePriceData, slot)
}

func (p *DLOB) GetBestBid(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) *big.Int {
	bestBid := firstNode(p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil))
	if bestBid == nil {
		return nil
	}
	return bestBid.GetPrice(oraclePriceData, slot)
}

// GetBestOrders returns one list in priority order. The market must exist.
func (p *DLOB) GetBestOrders(
	marketType drift.MarketType,
	subType types.DLOBNodeSubType,
	nodeType types.DLOBNodeType,
	marketIndex uint16,
) []*types.DLOBNode {
	lists := p.exchange.MustGet(marketType, marketIndex)
	if lists.List(nodeType, subType) == nil {
		return nil
	}
	return lists.snapshot(nodeType, subType)
}

// GetBestMakers returns up to numMakers distinct maker accounts in book
// priority. Long looks at resting bids, short at resting asks.
func (p *DLOB) GetBestMakers(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	numMakers int,
) []solana.PublicKey {
	generator := utils.TTF(
		direction == drift.PositionDirection_Long,
		func() *common.Generator[*types.DLOBNode, int] {
			return p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil)
		},
		func() *common.Generator[*types.DLOBNode, int] {
			return p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil)
		},
	)

	var makers []solana.PublicKey
	seen := make(map[solana.PublicKey]struct{})
	generator.Each(func(node *types.DLOBNode, _ int) bool {
		if len(makers) >= numMakers {
			return true
		}
		if _, exists := seen[node.UserAccount]; !exists {
			seen[node.UserAccount] = struct{}{}
			makers = append(makers, node.UserAccount)
		}
		return len(makers) >= numMakers
	})
	return makers
}

// EstimateFillExactBaseAmountInForSide walks one side until baseAmountIn is
// consumed and returns the quote amount in QUOTE_PRECISION.
func (p *DLOB) EstimateFillExactBaseAmountInForSide(
	baseAmountIn *big.Int,
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
	dlobSide *common.Generator[*types.DLOBNode, int],
) *big.Int {
	runningSumQuote := utils.BN(0)
	runningSumBase := utils.BN(0)
	dlobSide.Each(func(node *types.DLOBNode, _ int) bool {
		price := nodePrice(node, oraclePriceData, slot)
		baseAmountRemaining := utils.BN(node.RemainingBaseAmount())
		if utils.AddX(runningSumBase, baseAmountRemaining).Cmp(baseAmountIn) > 0 {
			remainingBase := utils.SubX(baseAmountIn, runningSumBase)
			runningSumBase = utils.AddX(runningSumBase, remainingBase)
			runningSumQuote = utils.AddX(runningSumQuote, utils.MulX(remainingBase, price))
			return true
		}
		runningSumBase = utils.AddX(runningSumBase, baseAmountRemaining)
		runningSumQuote = utils.AddX(runningSumQuote, utils.MulX(baseAmountRemaining, price))
		return false
	})

	return utils.DivX(
		utils.MulX(runningSumQuote, constants.QUOTE_PRECISION),
		utils.MulX(constants.BASE_PRECISION, constants.PRICE_PRECISION),
	)
}

func (p *DLOB) EstimateFillWithExactBaseAmount(
	marketIndex uint16,
	marketType drift.MarketType,
	baseAmount *big.Int,
	orderDirection drift.PositionDirection,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
) *big.Int {
	if orderDirection == drift.PositionDirection_Long {
		return p.EstimateFillExactBaseAmountInForSide(
			baseAmount,
			oraclePriceData,
			slot,
			p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil),
		)
	}
	return p.EstimateFillExactBaseAmountInForSide(
		baseAmount,
		oraclePriceData,
		slot,
		p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil),
	)
}

func (p *DLOB) triggerNodes(
	marketIndex uint16,
	marketType drift.MarketType,
	subType types.DLOBNodeSubType,
	filter func(node *types.DLOBNode) bool,
) *common.Generator[*types.DLOBNode, int] {
	lists := p.exchange.Get(marketType, marketIndex)
	if lists == nil {
		return common.EmptyGenerator[*types.DLOBNode, int]()
	}
	nodes := lists.snapshot(types.NodeTypeTrigger, subType)
	return common.NewGenerator(func(yield common.YieldFn[*types.DLOBNode, int]) {
		idx := 0
		for _, node := range nodes {
			if !filter(node) {
				continue
			}
			if yield(node, idx) {
				return
			}
			idx++
		}
	})
}

// GetStopLosses returns trigger orders that close a position of the given
// direction on an adverse move: shorts below for a long, longs above for a
// short.
func (p *DLOB) GetStopLosses(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[*types.DLOBNode, int] {
	return p.stopLosses(marketIndex, marketType, direction, nil)
}

func (p *DLOB) GetStopLossMarkets(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[*types.DLOBNode, int] {
	orderType := drift.OrderType_TriggerMarket
	return p.stopLosses(marketIndex, marketType, direction, &orderType)
}

func (p *DLOB) GetStopLossLimits(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[*types.DLOBNode, int] {
	orderType := drift.OrderType_TriggerLimit
	return p.stopLosses(marketIndex, marketType, direction, &orderType)
}

func (p *DLOB) stopLosses(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
	orderType *drift.OrderType,
) *common.Generator[*types.DLOBNode, int] {
	if direction == drift.PositionDirection_Long {
		return p.triggerNodes(marketIndex, marketType, types.NodeSubTypeBelow, closingFilter(drift.PositionDirection_Short, orderType))
	}
	return p.triggerNodes(marketIndex, marketType, types.NodeSubTypeAbove, closingFilter(drift.PositionDirection_Long, orderType))
}

// GetTakeProfits returns trigger orders that close a position of the given
// direction on a favourable move: shorts above for a long, longs below for
// a short.
func (p *DLOB) GetTakeProfits(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[*types.DLOBNode, int] {
	return p.takeProfits(marketIndex, marketType, direction, nil)
}

func (p *DLOB) GetTakeProfitMarkets(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[*types.DLOBNode, int] {
	orderType := drift.OrderType_TriggerMarket
	return p.takeProfits(marketIndex, marketType, direction, &orderType)
}

func (p *DLOB) GetTakeProfitLimits(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[*types.DLOBNode, int] {
	orderType := drift.OrderType_TriggerLimit
	return p.takeProfits(marketIndex, marketType, direction, &orderType)
}

func (p *DLOB) takeProfits(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
	orderType *drift.OrderType,
) *common.Generator[*types.DLOBNode, int] {
	if direction == drift.PositionDirection_Long {
		return p.triggerNodes(marketIndex, marketType, types.NodeSubTypeAbove, closingFilter(drift.PositionDirection_Short, orderType))
	}
	return p.triggerNodes(marketIndex, marketType, types.NodeSubTypeBelow, closingFilter(drift.PositionDirection_Long, orderType))
}

func closingFilter(direction drift.PositionDirection, orderType *drift.OrderType) func(node *types.DLOBNode) bool {
	return func(node *types.DLOBNode) bool {
		if node.Order.Direction != direction {
			return false
		}
		return orderType == nil || node.Order.OrderType == *orderType
	}
}

// GetL2 aggregates resting orders and any fallback generators into price
// levels, at most depth per side.
func (p *DLOB) GetL2(params *types.GetL2Params) *types.L2OrderBook {
	depth := params.Depth
	if depth <= 0 {
		depth = p.config.L2Depth
	}

	askGenerators := []*common.Generator[*types.L2Level, int]{
		GetL2GeneratorFromDLOBNodes(
			p.GetRestingLimitAsks(params.MarketIndex, params.Slot, params.MarketType, params.OraclePriceData, nil),
			params.OraclePriceData,
			params.Slot,
		),
	}
	bidGenerators := []*common.Generator[*types.L2Level, int]{
		GetL2GeneratorFromDLOBNodes(
			p.GetRestingLimitBids(params.MarketIndex, params.Slot, params.MarketType, params.OraclePriceData, nil),
			params.OraclePriceData,
			params.Slot,
		),
	}
	fallbacks := params.FallbackL2Generators
	if params.VammMarket != nil && params.MarketType == drift.MarketType_Perp {
		vamm, err := GetVammL2Generator(params.VammMarket, p.config.VammL2NumOrders, types.DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS)
		if err != nil {
			p.logger.Warn("skipping vamm levels",
				zap.Uint16("marketIndex", params.MarketIndex),
				zap.Error(err),
			)
		} else {
			fallbacks = append(slices.Clone(fallbacks), vamm)
		}
	}
	for _, fallback := range fallbacks {
		askGenerators = append(askGenerators, fallback.GetL2Asks())
		bidGenerators = append(bidGenerators, fallback.GetL2Bids())
	}

	asks := CreateL2Levels(MergeL2LevelGenerators(askGenerators, func(a, b *types.L2Level) bool {
		return a.Price.Cmp(b.Price) < 0
	}), depth)
	bids := CreateL2Levels(MergeL2LevelGenerators(bidGenerators, func(a, b *types.L2Level) bool {
		return a.Price.Cmp(b.Price) > 0
	}), depth)

	return &types.L2OrderBook{
		Asks: asks,
		Bids: bids,
		Slot: params.Slot,
	}
}

// GetL3 lists every resting order with its remaining size.
func (p *DLOB) GetL3(params *types.GetL3Params) *types.L3OrderBook {
	toLevels := func(generator *common.Generator[*types.DLOBNode, int]) []*types.L3Level {
		var levels []*types.L3Level
		generator.Each(func(node *types.DLOBNode, _ int) bool {
			levels = append(levels, &types.L3Level{
				Price:   nodePrice(node, params.OraclePriceData, params.Slot),
				Size:    utils.BN(node.RemainingBaseAmount()),
				Maker:   node.UserAccount,
				OrderId: node.Order.OrderId,
			})
			return false
		})
		return levels
	}

	return &types.L3OrderBook{
		Asks: toLevels(p.GetRestingLimitAsks(params.MarketIndex, params.Slot, params.MarketType, params.OraclePriceData, nil)),
		Bids: toLevels(p.GetRestingLimitBids(params.MarketIndex, params.Slot, params.MarketType, params.OraclePriceData, nil)),
		Slot: params.Slot,
	}
}
