package dlob

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/aoikurokawa/flashlight-sub000/assert"
	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/math"
)

type MarketNodeList map[types.DLOBNodeSubType]*NodeList

// MarketNodeLists holds the five node lists of one market. The mutex guards
// every list and the open order set.
type MarketNodeLists struct {
	mx          sync.Mutex
	marketType  drift.MarketType
	marketIndex uint16
	lists       map[types.DLOBNodeType]MarketNodeList
	openOrders  map[types.OrderSignature]struct{}
}

func NewMarketNodeLists(marketType drift.MarketType, marketIndex uint16) *MarketNodeLists {
	return &MarketNodeLists{
		marketType:  marketType,
		marketIndex: marketIndex,
		lists: map[types.DLOBNodeType]MarketNodeList{
			types.NodeTypeRestingLimit: {
				types.NodeSubTypeAsk: NewNodeList(types.NodeTypeRestingLimit, SortDirectionAsc),
				types.NodeSubTypeBid: NewNodeList(types.NodeTypeRestingLimit, SortDirectionDesc),
			},
			types.NodeTypeFloatingLimit: {
				types.NodeSubTypeAsk: NewNodeList(types.NodeTypeFloatingLimit, SortDirectionAsc),
				types.NodeSubTypeBid: NewNodeList(types.NodeTypeFloatingLimit, SortDirectionDesc),
			},
			types.NodeTypeTakingLimit: {
				types.NodeSubTypeAsk: NewNodeList(types.NodeTypeTakingLimit, SortDirectionAsc),
				types.NodeSubTypeBid: NewNodeList(types.NodeTypeTakingLimit, SortDirectionAsc),
			},
			types.NodeTypeMarket: {
				types.NodeSubTypeAsk: NewNodeList(types.NodeTypeMarket, SortDirectionAsc),
				types.NodeSubTypeBid: NewNodeList(types.NodeTypeMarket, SortDirectionAsc),
			},
			types.NodeTypeTrigger: {
				types.NodeSubTypeAbove: NewNodeList(types.NodeTypeTrigger, SortDirectionAsc),
				types.NodeSubTypeBelow: NewNodeList(types.NodeTypeTrigger, SortDirectionDesc),
			},
		},
		openOrders: make(map[types.OrderSignature]struct{}),
	}
}

func (p *MarketNodeLists) MarketType() drift.MarketType {
	return p.marketType
}

func (p *MarketNodeLists) MarketIndex() uint16 {
	return p.marketIndex
}

// List returns nil for a sub type the node type does not have.
func (p *MarketNodeLists) List(nodeType types.DLOBNodeType, subType types.DLOBNodeSubType) *NodeList {
	return p.lists[nodeType][subType]
}

func (p *MarketNodeLists) each(f func(nodeType types.DLOBNodeType, subType types.DLOBNodeSubType, list *NodeList)) {
	for _, nodeType := range types.NodeTypes {
		for _, subType := range nodeSubTypes(nodeType) {
			f(nodeType, subType, p.lists[nodeType][subType])
		}
	}
}

func nodeSubTypes(nodeType types.DLOBNodeType) []types.DLOBNodeSubType {
	if nodeType == types.NodeTypeTrigger {
		return []types.DLOBNodeSubType{types.NodeSubTypeAbove, types.NodeSubTypeBelow}
	}
	return []types.DLOBNodeSubType{types.NodeSubTypeAsk, types.NodeSubTypeBid}
}

// insert places the order in its list and drops any copy of the same
// signature left in another list. Caller holds mx.
func (p *MarketNodeLists) insert(
	order *drift.Order,
	userAccount solana.PublicKey,
	nodeType types.DLOBNodeType,
	subType types.DLOBNodeSubType,
) *types.DLOBNode {
	signature := types.GetOrderSignature(order.OrderId, userAccount)
	target := p.List(nodeType, subType)
	p.each(func(_ types.DLOBNodeType, _ types.DLOBNodeSubType, list *NodeList) {
		if list != target {
			list.Remove(order.OrderId, userAccount)
		}
	})
	node := target.Insert(order, userAccount)
	if order.Status == drift.OrderStatus_Open {
		p.openOrders[signature] = struct{}{}
	} else {
		delete(p.openOrders, signature)
	}
	return node
}

// remove drops the signature from every list. Caller holds mx.
func (p *MarketNodeLists) remove(orderId uint32, userAccount solana.PublicKey) *types.DLOBNode {
	var removed *types.DLOBNode
	p.each(func(_ types.DLOBNodeType, _ types.DLOBNodeSubType, list *NodeList) {
		if node := list.Remove(orderId, userAccount); node != nil {
			removed = node
		}
	})
	delete(p.openOrders, types.GetOrderSignature(orderId, userAccount))
	return removed
}

// get finds the node for a signature in any list. Caller holds mx.
func (p *MarketNodeLists) get(signature types.OrderSignature) *types.DLOBNode {
	var found *types.DLOBNode
	p.each(func(_ types.DLOBNodeType, _ types.DLOBNodeSubType, list *NodeList) {
		if found == nil {
			found = list.Get(signature)
		}
	})
	return found
}

func (p *MarketNodeLists) HasOpenOrder(signature types.OrderSignature) bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	_, exists := p.openOrders[signature]
	return exists
}

func (p *MarketNodeLists) snapshot(nodeType types.DLOBNodeType, subType types.DLOBNodeSubType) []*types.DLOBNode {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.List(nodeType, subType).Snapshot()
}

type listKey struct {
	nodeType types.DLOBNodeType
	subType  types.DLOBNodeSubType
}

// generators snapshots several lists under one lock.
func (p *MarketNodeLists) generators(keys ...listKey) []*common.Generator[*types.DLOBNode, int] {
	p.mx.Lock()
	defer p.mx.Unlock()
	generators := make([]*common.Generator[*types.DLOBNode, int], 0, len(keys))
	for _, key := range keys {
		generators = append(generators, p.List(key.nodeType, key.subType).GetGenerator())
	}
	return generators
}

// migrateRestingLimitOrders moves taking limit orders whose auction has
// completed at slot into the resting lists.
func (p *MarketNodeLists) migrateRestingLimitOrders(slot uint64) int {
	p.mx.Lock()
	defer p.mx.Unlock()
	migrated := 0
	for _, subType := range []types.DLOBNodeSubType{types.NodeSubTypeBid, types.NodeSubTypeAsk} {
		takingList := p.List(types.NodeTypeTakingLimit, subType)
		restingList := p.List(types.NodeTypeRestingLimit, subType)
		for _, node := range takingList.Snapshot() {
			if !math.IsRestingLimitOrder(&node.Order, slot) {
				continue
			}
			takingList.Remove(node.Order.OrderId, node.UserAccount)
			restingList.Insert(&node.Order, node.UserAccount)
			migrated++
		}
	}
	return migrated
}

func (p *MarketNodeLists) size() int {
	p.mx.Lock()
	defer p.mx.Unlock()
	size := 0
	p.each(func(_ types.DLOBNodeType, _ types.DLOBNodeSubType, list *NodeList) {
		size += list.GetLength()
	})
	return size
}

// Exchange maps market index to MarketNodeLists for perp and spot markets.
type Exchange struct {
	perp sync.Map
	spot sync.Map
}

func NewExchange() *Exchange {
	return &Exchange{}
}

func (p *Exchange) markets(marketType drift.MarketType) *sync.Map {
	if marketType == drift.MarketType_Perp {
		return &p.perp
	}
	return &p.spot
}

// AddMarketIdempotent returns the market's lists, creating them on first
// use. Concurrent first calls observe the same instance.
func (p *Exchange) AddMarketIdempotent(marketType drift.MarketType, marketIndex uint16) *MarketNodeLists {
	markets := p.markets(marketType)
	if lists, ok := markets.Load(marketIndex); ok {
		return lists.(*MarketNodeLists)
	}
	lists, _ := markets.LoadOrStore(marketIndex, NewMarketNodeLists(marketType, marketIndex))
	return lists.(*MarketNodeLists)
}

func (p *Exchange) Get(marketType drift.MarketType, marketIndex uint16) *MarketNodeLists {
	lists, ok := p.markets(marketType).Load(marketIndex)
	if !ok {
		return nil
	}
	return lists.(*MarketNodeLists)
}

// MustGet panics for a market that was never inserted.
func (p *Exchange) MustGet(marketType drift.MarketType, marketIndex uint16) *MarketNodeLists {
	lists := p.Get(marketType, marketIndex)
	assert.Assert(lists != nil, fmt.Sprintf("market %s-%d not in exchange", marketType, marketIndex))
	return lists
}

func (p *Exchange) MarketIndexes(marketType drift.MarketType) []uint16 {
	var marketIndexes []uint16
	p.markets(marketType).Range(func(key, _ any) bool {
		marketIndexes = append(marketIndexes, key.(uint16))
		return true
	})
	slices.Sort(marketIndexes)
	return marketIndexes
}

func (p *Exchange) Each(marketType drift.MarketType, f func(lists *MarketNodeLists)) {
	for _, marketIndex := range p.MarketIndexes(marketType) {
		if lists := p.Get(marketType, marketIndex); lists != nil {
			f(lists)
		}
	}
}

func (p *Exchange) Size(marketType drift.MarketType) int {
	size := 0
	p.Each(marketType, func(lists *MarketNodeLists) {
		size += lists.size()
	})
	return size
}

func (p *Exchange) Clear() {
	p.perp.Clear()
	p.spot.Clear()
}
