package dlob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
)

// go test --run TestNodeListOrdering

func TestNodeListOrdering(t *testing.T) {
	asks := NewNodeList(types.NodeTypeRestingLimit, SortDirectionAsc)
	asks.Insert(limitOrder(3, drift.PositionDirection_Short, price(101), base(1), 1), userA)
	asks.Insert(limitOrder(2, drift.PositionDirection_Short, price(100), base(1), 2), userA)
	asks.Insert(limitOrder(1, drift.PositionDirection_Short, price(100), base(1), 2), userB)
	asks.Insert(limitOrder(1, drift.PositionDirection_Short, price(100), base(1), 2), userA)
	asks.Insert(limitOrder(4, drift.PositionDirection_Short, price(100), base(1), 1), userC)

	nodes := asks.Snapshot()
	assert.Equal(t, []uint32{4, 1, 1, 2, 3}, orderIds(nodes))
	// equal price, slot and id fall back to the account bytes
	assert.Equal(t, userA, nodes[1].UserAccount)
	assert.Equal(t, userB, nodes[2].UserAccount)
	assert.Equal(t, uint32(4), asks.Best().Order.OrderId)
	assert.Equal(t, types.NodeTypeRestingLimit, asks.Best().NodeType)

	bids := NewNodeList(types.NodeTypeRestingLimit, SortDirectionDesc)
	bids.Insert(limitOrder(1, drift.PositionDirection_Long, price(99), base(1), 1), userA)
	bids.Insert(limitOrder(2, drift.PositionDirection_Long, price(101), base(1), 3), userA)
	bids.Insert(limitOrder(3, drift.PositionDirection_Long, price(101), base(1), 2), userA)
	assert.Equal(t, []uint32{3, 2, 1}, orderIds(bids.Snapshot()))

	floating := NewNodeList(types.NodeTypeFloatingLimit, SortDirectionDesc)
	for idx, offset := range []int32{-100, 300, 0, 200} {
		order := limitOrder(uint32(idx+1), drift.PositionDirection_Long, 0, base(1), 1)
		order.OraclePriceOffset = offset
		floating.Insert(order, userA)
	}
	assert.Equal(t, []uint32{2, 4, 3, 1}, orderIds(floating.Snapshot()))

	below := NewNodeList(types.NodeTypeTrigger, SortDirectionDesc)
	below.Insert(triggerOrder(1, drift.PositionDirection_Short, drift.OrderTriggerCondition_Below, price(80), 1), userA)
	below.Insert(triggerOrder(2, drift.PositionDirection_Short, drift.OrderTriggerCondition_Below, price(90), 1), userA)
	assert.Equal(t, []uint32{2, 1}, orderIds(below.Snapshot()))

	market := NewNodeList(types.NodeTypeMarket, SortDirectionAsc)
	market.Insert(marketOrder(1, drift.PositionDirection_Long, base(1), 9), userA)
	market.Insert(marketOrder(2, drift.PositionDirection_Long, base(1), 4), userA)
	assert.Equal(t, []uint32{2, 1}, orderIds(market.Snapshot()))
}

// go test --run TestNodeListInsertRemove

func TestNodeListInsertRemove(t *testing.T) {
	list := NewNodeList(types.NodeTypeRestingLimit, SortDirectionAsc)
	assert.Nil(t, list.Best())

	order := limitOrder(1, drift.PositionDirection_Short, price(100), base(1), 1)
	node := list.Insert(order, userA)
	require.NotNil(t, node)
	assert.Equal(t, 1, list.GetLength())
	assert.True(t, list.Has(types.GetOrderSignature(1, userA)))

	// the node holds a copy
	order.Price = price(50)
	assert.Equal(t, price(100), list.Get(types.GetOrderSignature(1, userA)).Order.Price)

	moved := limitOrder(1, drift.PositionDirection_Short, price(105), base(1), 1)
	moved.BaseAssetAmountFilled = base(1) / 2
	assert.True(t, list.Update(moved, userA))
	assert.Equal(t, 1, list.GetLength())
	assert.Equal(t, price(105), list.Best().Order.Price)
	assert.Len(t, list.Snapshot(), 1)

	assert.False(t, list.Update(limitOrder(9, drift.PositionDirection_Short, price(100), base(1), 1), userA))
	assert.Equal(t, 1, list.GetLength())

	initOrder := limitOrder(2, drift.PositionDirection_Short, price(100), base(1), 1)
	initOrder.Status = drift.OrderStatus_Init
	assert.Nil(t, list.Insert(initOrder, userA))
	assert.Equal(t, 1, list.GetLength())

	removed := list.Remove(1, userA)
	require.NotNil(t, removed)
	assert.Equal(t, uint32(1), removed.Order.OrderId)
	assert.Nil(t, list.Remove(1, userA))
	assert.Equal(t, 0, list.GetLength())
	assert.Empty(t, list.Snapshot())
}

// go test --run TestNodeListGeneratorSnapshot

func TestNodeListGeneratorSnapshot(t *testing.T) {
	list := NewNodeList(types.NodeTypeRestingLimit, SortDirectionAsc)
	list.Insert(limitOrder(1, drift.PositionDirection_Short, price(100), base(1), 1), userA)
	list.Insert(limitOrder(2, drift.PositionDirection_Short, price(101), base(1), 1), userA)

	generator := list.GetGenerator()
	list.Remove(1, userA)
	list.Clear()

	var ids []uint32
	generator.Each(func(node *types.DLOBNode, _ int) bool {
		ids = append(ids, node.Order.OrderId)
		return false
	})
	assert.Equal(t, []uint32{1, 2}, ids)
	assert.Equal(t, 0, list.GetLength())
}
