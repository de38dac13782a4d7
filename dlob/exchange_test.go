package dlob

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
)

// go test --run TestAddMarketIdempotentConcurrent

func TestAddMarketIdempotentConcurrent(t *testing.T) {
	exchange := NewExchange()

	const workers = 16
	results := make([]*MarketNodeLists, workers)
	var wg sync.WaitGroup
	for idx := 0; idx < workers; idx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = exchange.AddMarketIdempotent(drift.MarketType_Perp, 3)
		}(idx)
	}
	wg.Wait()

	for _, lists := range results {
		assert.Same(t, results[0], lists)
	}
	assert.Same(t, results[0], exchange.Get(drift.MarketType_Perp, 3))
	assert.Nil(t, exchange.Get(drift.MarketType_Spot, 3))
	assert.Equal(t, drift.MarketType_Perp, results[0].MarketType())
	assert.Equal(t, uint16(3), results[0].MarketIndex())
}

// go test --run TestExchangeMarkets

func TestExchangeMarkets(t *testing.T) {
	exchange := NewExchange()
	for _, marketIndex := range []uint16{5, 1, 3} {
		exchange.AddMarketIdempotent(drift.MarketType_Spot, marketIndex)
	}
	exchange.AddMarketIdempotent(drift.MarketType_Perp, 0)

	assert.Equal(t, []uint16{1, 3, 5}, exchange.MarketIndexes(drift.MarketType_Spot))
	assert.Equal(t, []uint16{0}, exchange.MarketIndexes(drift.MarketType_Perp))

	lists := exchange.MustGet(drift.MarketType_Spot, 3)
	lists.mx.Lock()
	lists.insert(limitOrder(1, drift.PositionDirection_Long, price(1), base(1), 1), userA, types.NodeTypeRestingLimit, types.NodeSubTypeBid)
	lists.mx.Unlock()
	assert.True(t, lists.HasOpenOrder(types.GetOrderSignature(1, userA)))
	assert.Equal(t, 1, exchange.Size(drift.MarketType_Spot))
	assert.Equal(t, 0, exchange.Size(drift.MarketType_Perp))

	assert.Panics(t, func() {
		exchange.MustGet(drift.MarketType_Perp, 9)
	})

	exchange.Clear()
	assert.Empty(t, exchange.MarketIndexes(drift.MarketType_Spot))
	assert.Nil(t, exchange.Get(drift.MarketType_Perp, 0))
}

// go test --run TestMarketNodeListsMoveBetweenLists

func TestMarketNodeListsMoveBetweenLists(t *testing.T) {
	lists := NewMarketNodeLists(drift.MarketType_Perp, 0)
	order := limitOrder(1, drift.PositionDirection_Short, price(100), base(1), 1)

	lists.mx.Lock()
	lists.insert(order, userA, types.NodeTypeTakingLimit, types.NodeSubTypeAsk)
	lists.insert(order, userA, types.NodeTypeRestingLimit, types.NodeSubTypeAsk)
	lists.mx.Unlock()

	require.Equal(t, 1, lists.size())
	assert.Equal(t, 0, lists.List(types.NodeTypeTakingLimit, types.NodeSubTypeAsk).GetLength())
	assert.Equal(t, 1, lists.List(types.NodeTypeRestingLimit, types.NodeSubTypeAsk).GetLength())

	lists.mx.Lock()
	removed := lists.remove(1, userA)
	lists.mx.Unlock()
	require.NotNil(t, removed)
	assert.False(t, lists.HasOpenOrder(types.GetOrderSignature(1, userA)))
	assert.Equal(t, 0, lists.size())
}
