package dlob

import (
	"math/big"

	"github.com/go-errors/errors"
	"go.uber.org/zap"

	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/math"
	oracles "github.com/aoikurokawa/flashlight-sub000/oracles/types"
	types2 "github.com/aoikurokawa/flashlight-sub000/types"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

const (
	fillSourceCrossing = "crossing"
	fillSourceFallback = "fallback"
	fillSourceTaking   = "taking"
	fillSourceExpired  = "expired"
)

// fillPlan records simulated fills against a snapshot. Nodes read through
// the plan carry the planned filled amount; the book itself is untouched
// until applyFillPlan.
type fillPlan struct {
	filled  map[types.OrderSignature]uint64
	nodes   map[types.OrderSignature]*types.DLOBNode
	touched []types.OrderSignature
}

func newFillPlan() *fillPlan {
	return &fillPlan{
		filled: make(map[types.OrderSignature]uint64),
		nodes:  make(map[types.OrderSignature]*types.DLOBNode),
	}
}

func (p *fillPlan) current(node *types.DLOBNode) *types.DLOBNode {
	if node.IsVammNode() {
		return node
	}
	delta, exists := p.filled[node.Signature()]
	if !exists || delta == 0 {
		return node
	}
	order := node.Order
	order.BaseAssetAmountFilled += delta
	return types.NewOrderNode(node.NodeType, &order, node.UserAccount)
}

func (p *fillPlan) fill(node *types.DLOBNode, baseFilled uint64) {
	signature := node.Signature()
	if _, exists := p.nodes[signature]; !exists {
		p.nodes[signature] = node
		p.touched = append(p.touched, signature)
	}
	p.filled[signature] += baseFilled
}

// applyFillPlan writes the planned fills back into the market's lists,
// re-classifying each order at slot.
func (p *DLOB) applyFillPlan(marketType drift.MarketType, marketIndex uint16, plan *fillPlan, slot uint64) {
	if len(plan.touched) == 0 {
		return
	}
	lists := p.exchange.Get(marketType, marketIndex)
	if lists == nil {
		return
	}

	lists.mx.Lock()
	defer lists.mx.Unlock()
	for _, signature := range plan.touched {
		original := plan.nodes[signature]
		if lists.get(signature) == nil {
			continue
		}
		order := original.Order
		order.BaseAssetAmountFilled = min(order.BaseAssetAmountFilled+plan.filled[signature], order.BaseAssetAmount)
		nodeType, subType := GetNodeType(&order, slot)
		lists.insert(&order, original.UserAccount, nodeType, subType)
	}
}

// FindNodesToFill returns every fill candidate for one market: crossing
// resting orders, orders crossing the fallback bid or ask, taking orders
// crossing makers, then expired orders.
func (p *DLOB) FindNodesToFill(
	marketIndex uint16,
	fallbackBid *big.Int,
	fallbackAsk *big.Int,
	slot uint64,
	ts int64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	stateAccount *drift.State,
	marketAccount *types2.MarketAccount,
) []*types.NodeToFill {
	if math.FillPaused(stateAccount, marketAccount) {
		return []*types.NodeToFill{}
	}

	isAmmPaused := math.AmmPaused(stateAccount, marketAccount)

	var minAuctionDuration uint8
	if marketType == drift.MarketType_Perp {
		minAuctionDuration = stateAccount.MinPerpAuctionDuration
	}

	var perpMarket *drift.PerpMarket
	if marketAccount != nil {
		perpMarket = marketAccount.PerpMarketAccount
	}
	makerRebateNumerator, makerRebateDenominator := math.GetMakerRebate(marketType, stateAccount, perpMarket)

	restingLimitOrderNodesToFill := p.FindRestingLimitOrderNodesToFill(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
		isAmmPaused,
		minAuctionDuration,
		makerRebateNumerator,
		makerRebateDenominator,
		fallbackAsk,
		fallbackBid,
	)

	takingOrderNodesToFill := p.FindTakingNodesToFill(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
		isAmmPaused,
		minAuctionDuration,
		fallbackAsk,
		fallbackBid,
	)

	expiredNodesToFill := p.FindExpiredNodesToFill(marketIndex, ts, marketType)

	nodesToFill := append(
		p.MergeNodesToFill(restingLimitOrderNodesToFill, takingOrderNodesToFill),
		expiredNodesToFill...,
	)

	p.logger.Debug("nodes to fill",
		zap.Stringer("marketType", marketType),
		zap.Uint16("marketIndex", marketIndex),
		zap.Uint64("slot", slot),
		zap.Int("resting", len(restingLimitOrderNodesToFill)),
		zap.Int("taking", len(takingOrderNodesToFill)),
		zap.Int("expired", len(expiredNodesToFill)),
	)
	return nodesToFill
}

// FindNodesToFillForPerpMarket derives the fallback bid and ask from the
// market's AMM.
func (p *DLOB) FindNodesToFillForPerpMarket(
	marketIndex uint16,
	slot uint64,
	ts int64,
	oraclePriceData *oracles.OraclePriceData,
	stateAccount *drift.State,
	perpMarket *drift.PerpMarket,
) ([]*types.NodeToFill, error) {
	fallbackBid, fallbackAsk, err := math.CalculateBidAskPrice(&perpMarket.Amm)
	if err != nil {
		return nil, errors.WrapPrefix(err, "perp market fallback price", 0)
	}
	return p.FindNodesToFill(
		marketIndex,
		fallbackBid,
		fallbackAsk,
		slot,
		ts,
		drift.MarketType_Perp,
		oraclePriceData,
		stateAccount,
		&types2.MarketAccount{PerpMarketAccount: perpMarket},
	), nil
}

// MergeNodesToFill combines candidates for the same taker, keeping first
// seen order.
func (p *DLOB) MergeNodesToFill(
	restingLimitOrderNodesToFill []*types.NodeToFill,
	takingOrderNodesToFill []*types.NodeToFill,
) []*types.NodeToFill {
	var merged []*types.NodeToFill
	index := make(map[types.OrderSignature]*types.NodeToFill)

	mergeNodesToFillHelper := func(nodesToFill []*types.NodeToFill) {
		for _, nodeToFill := range nodesToFill {
			signature := nodeToFill.Node.Signature()
			existing, exists := index[signature]
			if !exists {
				existing = &types.NodeToFill{Node: nodeToFill.Node, MakerNodes: []*types.DLOBNode{}}
				index[signature] = existing
				merged = append(merged, existing)
			}
			existing.MakerNodes = append(existing.MakerNodes, nodeToFill.MakerNodes...)
		}
	}
	mergeNodesToFillHelper(restingLimitOrderNodesToFill)
	mergeNodesToFillHelper(takingOrderNodesToFill)
	return merged
}

func (p *DLOB) FindRestingLimitOrderNodesToFill(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	isAmmPaused bool,
	minAuctionDuration uint8,
	makerRebateNumerator *big.Int,
	makerRebateDenominator *big.Int,
	fallbackAsk *big.Int,
	fallbackBid *big.Int,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill

	crossingNodes := p.FindCrossingRestingLimitOrders(marketIndex, slot, marketType, oraclePriceData)
	nodesToFill = append(nodesToFill, crossingNodes...)
	p.metrics.nodesToFill(marketType, fillSourceCrossing, len(crossingNodes))

	if fallbackBid != nil && !isAmmPaused {
		fallbackBidWithBuffer := math.CalculateFallbackPriceWithBuffer(
			fallbackBid,
			makerRebateNumerator,
			makerRebateDenominator,
		)
		asksCrossingFallback := p.FindNodesCrossingFallbackLiquidity(
			marketType,
			slot,
			oraclePriceData,
			p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil),
			func(askPrice *big.Int) bool {
				return askPrice == nil || askPrice.Cmp(fallbackBidWithBuffer) <= 0
			},
			minAuctionDuration,
		)
		nodesToFill = append(nodesToFill, asksCrossingFallback...)
		p.metrics.nodesToFill(marketType, fillSourceFallback, len(asksCrossingFallback))
	}

	if fallbackAsk != nil && !isAmmPaused {
		fallbackAskWithBuffer := math.CalculateFallbackPriceWithBuffer(
			fallbackAsk,
			makerRebateNumerator,
			makerRebateDenominator,
		)
		bidsCrossingFallback := p.FindNodesCrossingFallbackLiquidity(
			marketType,
			slot,
			oraclePriceData,
			p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil),
			func(bidPrice *big.Int) bool {
				return bidPrice == nil || bidPrice.Cmp(fallbackAskWithBuffer) >= 0
			},
			minAuctionDuration,
		)
		nodesToFill = append(nodesToFill, bidsCrossingFallback...)
		p.metrics.nodesToFill(marketType, fillSourceFallback, len(bidsCrossingFallback))
	}

	return nodesToFill
}

type MakerDLOBNodeGeneratorFn func(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[*types.DLOBNode, int]

func (p *DLOB) FindTakingNodesToFill(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	isAmmPaused bool,
	minAuctionDuration uint8,
	fallbackAsk *big.Int,
	fallbackBid *big.Int,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill

	takingAsksCrossingBids := p.FindTakingNodesCrossingMakerNodes(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
		p.GetTakingAsks(marketIndex, marketType, slot, oraclePriceData),
		p.GetRestingLimitBids,
		func(takerPrice *big.Int, makerPrice *big.Int) bool {
			if marketType == drift.MarketType_Spot {
				if takerPrice == nil {
					return false
				}
				if fallbackBid != nil && makerPrice.Cmp(fallbackBid) < 0 {
					return false
				}
			}
			return takerPrice == nil || takerPrice.Cmp(makerPrice) <= 0
		},
	)
	nodesToFill = append(nodesToFill, takingAsksCrossingBids...)
	p.metrics.nodesToFill(marketType, fillSourceTaking, len(takingAsksCrossingBids))

	if fallbackBid != nil && !isAmmPaused {
		takingAsksCrossingFallback := p.FindNodesCrossingFallbackLiquidity(
			marketType,
			slot,
			oraclePriceData,
			p.GetTakingAsks(marketIndex, marketType, slot, oraclePriceData),
			func(takerPrice *big.Int) bool {
				return takerPrice == nil || takerPrice.Cmp(fallbackBid) <= 0
			},
			minAuctionDuration,
		)
		nodesToFill = append(nodesToFill, takingAsksCrossingFallback...)
		p.metrics.nodesToFill(marketType, fillSourceFallback, len(takingAsksCrossingFallback))
	}

	takingBidsCrossingAsks := p.FindTakingNodesCrossingMakerNodes(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
		p.GetTakingBids(marketIndex, marketType, slot, oraclePriceData),
		p.GetRestingLimitAsks,
		func(takerPrice *big.Int, makerPrice *big.Int) bool {
			if marketType == drift.MarketType_Spot {
				if takerPrice == nil {
					return false
				}
				if fallbackAsk != nil && makerPrice.Cmp(fallbackAsk) > 0 {
					return false
				}
			}
			return takerPrice == nil || takerPrice.Cmp(makerPrice) >= 0
		},
	)
	nodesToFill = append(nodesToFill, takingBidsCrossingAsks...)
	p.metrics.nodesToFill(marketType, fillSourceTaking, len(takingBidsCrossingAsks))

	if fallbackAsk != nil && !isAmmPaused {
		takingBidsCrossingFallback := p.FindNodesCrossingFallbackLiquidity(
			marketType,
			slot,
			oraclePriceData,
			p.GetTakingBids(marketIndex, marketType, slot, oraclePriceData),
			func(takerPrice *big.Int) bool {
				return takerPrice == nil || takerPrice.Cmp(fallbackAsk) >= 0
			},
			minAuctionDuration,
		)
		nodesToFill = append(nodesToFill, takingBidsCrossingFallback...)
		p.metrics.nodesToFill(marketType, fillSourceFallback, len(takingBidsCrossingFallback))
	}

	return nodesToFill
}

// FindTakingNodesCrossingMakerNodes matches taking orders, in arrival
// order, against a price sorted maker side. The maker scan for a taker stops
// at the first maker that does not cross.
func (p *DLOB) FindTakingNodesCrossingMakerNodes(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	takerNodeGenerator *common.Generator[*types.DLOBNode, int],
	makerNodeGeneratorFn MakerDLOBNodeGeneratorFn,
	doesCross func(takerPrice *big.Int, makerPrice *big.Int) bool,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill

	takerNodes := common.Collect(takerNodeGenerator)
	if len(takerNodes) == 0 {
		return nodesToFill
	}
	makerNodes := common.Collect(makerNodeGeneratorFn(marketIndex, slot, marketType, oraclePriceData, nil))

	plan := newFillPlan()
	for _, takerNode := range takerNodes {
		for _, makerNode := range makerNodes {
			taker := plan.current(takerNode)
			if taker.IsBaseFilled() {
				break
			}
			maker := plan.current(makerNode)
			if maker.IsBaseFilled() {
				continue
			}
			if taker.UserAccount == maker.UserAccount {
				continue
			}

			makerPrice := maker.GetPrice(oraclePriceData, slot)
			if makerPrice == nil {
				continue
			}
			takerPrice := taker.GetPrice(oraclePriceData, slot)
			if !doesCross(takerPrice, makerPrice) {
				break
			}

			nodesToFill = append(nodesToFill, &types.NodeToFill{
				Node:       taker,
				MakerNodes: []*types.DLOBNode{maker},
			})

			baseFilled := min(taker.RemainingBaseAmount(), maker.RemainingBaseAmount())
			plan.fill(makerNode, baseFilled)
			plan.fill(takerNode, baseFilled)
		}
	}
	p.applyFillPlan(marketType, marketIndex, plan, slot)

	return nodesToFill
}

// FindNodesCrossingFallbackLiquidity emits nodes the fallback source can
// fill directly. Spot post-only orders never take from the fallback.
func (p *DLOB) FindNodesCrossingFallbackLiquidity(
	marketType drift.MarketType,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	nodeGenerator *common.Generator[*types.DLOBNode, int],
	doesCross func(nodePrice *big.Int) bool,
	minAuctionDuration uint8,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill

	nodeGenerator.Each(func(node *types.DLOBNode, _ int) bool {
		order := node.GetOrder()
		if order == nil {
			return false
		}
		if marketType == drift.MarketType_Spot && order.PostOnly {
			return false
		}

		nodePrice := math.GetLimitPrice(order, oraclePriceData, slot, nil)

		crosses := doesCross(nodePrice)

		fallbackAvailable := marketType == drift.MarketType_Spot ||
			math.IsFallbackAvailableLiquiditySource(order, minAuctionDuration, slot)

		if crosses && fallbackAvailable {
			nodesToFill = append(nodesToFill, &types.NodeToFill{
				Node:       node,
				MakerNodes: []*types.DLOBNode{},
			})
		}
		return false
	})
	return nodesToFill
}

// FindCrossingRestingLimitOrders pairs resting asks with resting bids from
// other accounts while the best bid is at or above the ask.
func (p *DLOB) FindCrossingRestingLimitOrders(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) []*types.NodeToFill {
	nodesToFill := []*types.NodeToFill{}

	askNodes := common.Collect(p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil))
	if len(askNodes) == 0 {
		return nodesToFill
	}
	bidNodes := common.Collect(p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil))

	plan := newFillPlan()
	for _, askNode := range askNodes {
		for _, bidNode := range bidNodes {
			ask := plan.current(askNode)
			if ask.IsBaseFilled() {
				break
			}
			bid := plan.current(bidNode)
			if bid.IsBaseFilled() {
				continue
			}

			bidPrice := bid.GetPrice(oraclePriceData, slot)
			askPrice := ask.GetPrice(oraclePriceData, slot)
			if bidPrice == nil || askPrice == nil {
				continue
			}
			if bidPrice.Cmp(askPrice) < 0 {
				break
			}

			if bid.UserAccount == ask.UserAccount {
				continue
			}

			takerNode, makerNode := p.DetermineMakerAndTaker(ask, bid)
			if takerNode == nil || makerNode == nil {
				continue
			}

			nodesToFill = append(nodesToFill, &types.NodeToFill{
				Node:       takerNode,
				MakerNodes: []*types.DLOBNode{makerNode},
			})

			baseFilled := min(bid.RemainingBaseAmount(), ask.RemainingBaseAmount())
			plan.fill(bidNode, baseFilled)
			plan.fill(askNode, baseFilled)
		}
	}
	p.applyFillPlan(marketType, marketIndex, plan, slot)

	return nodesToFill
}

// DetermineMakerAndTaker returns (taker, maker), or nils when both orders
// are post-only. Without post-only, the order whose auction ended first
// makes; an equal end slot makes the bid the maker.
func (p *DLOB) DetermineMakerAndTaker(
	askNode *types.DLOBNode,
	bidNode *types.DLOBNode,
) (*types.DLOBNode, *types.DLOBNode) {
	askOrder := askNode.GetOrder()
	bidOrder := bidNode.GetOrder()
	askSlot := askOrder.Slot + uint64(askOrder.AuctionDuration)
	bidSlot := bidOrder.Slot + uint64(bidOrder.AuctionDuration)

	switch {
	case bidOrder.PostOnly && askOrder.PostOnly:
		return nil, nil
	case bidOrder.PostOnly:
		return askNode, bidNode
	case askOrder.PostOnly:
		return bidNode, askNode
	case askSlot < bidSlot:
		return bidNode, askNode
	default:
		return askNode, bidNode
	}
}

// FindExpiredNodesToFill returns open orders past their max timestamp in
// the taking, resting, floating and market lists. Limit orders get the
// limit-order buffer, or the general expiry buffer when that one is unset.
func (p *DLOB) FindExpiredNodesToFill(
	marketIndex uint16,
	ts int64,
	marketType drift.MarketType,
) []*types.NodeToFill {
	nodesToFill := []*types.NodeToFill{}
	lists := p.exchange.Get(marketType, marketIndex)
	if lists == nil {
		return nodesToFill
	}

	var keys []listKey
	for _, subType := range []types.DLOBNodeSubType{types.NodeSubTypeBid, types.NodeSubTypeAsk} {
		keys = append(keys,
			listKey{types.NodeTypeTakingLimit, subType},
			listKey{types.NodeTypeRestingLimit, subType},
			listKey{types.NodeTypeFloatingLimit, subType},
			listKey{types.NodeTypeMarket, subType},
		)
	}

	bufferSeconds := p.config.LimitOrderExpiryBufferSeconds
	if bufferSeconds <= 0 {
		bufferSeconds = p.config.ExpiryBufferSeconds
	}
	for _, generator := range lists.generators(keys...) {
		generator.Each(func(node *types.DLOBNode, _ int) bool {
			if math.IsOrderExpired(&node.Order, ts, p.config.EnforceExpiryBuffer, bufferSeconds) {
				nodesToFill = append(nodesToFill, &types.NodeToFill{
					Node:       node,
					MakerNodes: []*types.DLOBNode{},
				})
			}
			return false
		})
	}
	p.metrics.nodesToFill(marketType, fillSourceExpired, len(nodesToFill))
	return nodesToFill
}

// FindJitAuctionNodesToFill returns taking orders whose auction is still
// running, bids first.
func (p *DLOB) FindJitAuctionNodesToFill(
	marketIndex uint16,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	marketType drift.MarketType,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill
	collect := func(node *types.DLOBNode, _ int) bool {
		if !math.IsAuctionComplete(&node.Order, slot) {
			nodesToFill = append(nodesToFill, &types.NodeToFill{
				Node:       node,
				MakerNodes: []*types.DLOBNode{},
			})
		}
		return false
	}
	p.GetTakingBids(marketIndex, marketType, slot, oraclePriceData).Each(collect)
	p.GetTakingAsks(marketIndex, marketType, slot, oraclePriceData).Each(collect)
	return nodesToFill
}

// FindNodesToTrigger returns trigger orders whose condition the oracle price
// satisfies. Nothing triggers unless the exchange is active.
func (p *DLOB) FindNodesToTrigger(
	marketIndex uint16,
	oraclePrice *big.Int,
	marketType drift.MarketType,
	stateAccount *drift.State,
) []*types.NodeToTrigger {
	nodesToTrigger := []*types.NodeToTrigger{}
	if math.ExchangePaused(stateAccount) {
		return nodesToTrigger
	}
	lists := p.exchange.Get(marketType, marketIndex)
	if lists == nil || oraclePrice == nil {
		return nodesToTrigger
	}

	for _, node := range lists.snapshot(types.NodeTypeTrigger, types.NodeSubTypeAbove) {
		if oraclePrice.Cmp(utils.BN(node.Order.TriggerPrice)) <= 0 {
			break
		}
		nodesToTrigger = append(nodesToTrigger, &types.NodeToTrigger{Node: node})
	}

	for _, node := range lists.snapshot(types.NodeTypeTrigger, types.NodeSubTypeBelow) {
		if oraclePrice.Cmp(utils.BN(node.Order.TriggerPrice)) >= 0 {
			break
		}
		nodesToTrigger = append(nodesToTrigger, &types.NodeToTrigger{Node: node})
	}

	p.metrics.nodesToTrigger(marketType, len(nodesToTrigger))
	return nodesToTrigger
}
