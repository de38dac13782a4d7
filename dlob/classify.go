package dlob

import (
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/math"
)

// GetNodeType classifies an order at slot. The result depends on the slot
// and must be recomputed rather than stored.
func GetNodeType(order *drift.Order, slot uint64) (types.DLOBNodeType, types.DLOBNodeSubType) {
	if math.MustBeTriggered(order) && !math.IsTriggered(order) {
		if order.TriggerCondition == drift.OrderTriggerCondition_Above {
			return types.NodeTypeTrigger, types.NodeSubTypeAbove
		}
		return types.NodeTypeTrigger, types.NodeSubTypeBelow
	}

	subType := types.NodeSubTypeAsk
	if order.Direction == drift.PositionDirection_Long {
		subType = types.NodeSubTypeBid
	}

	switch {
	case math.IsMarketOrder(order):
		return types.NodeTypeMarket, subType
	case order.OraclePriceOffset != 0:
		return types.NodeTypeFloatingLimit, subType
	case math.IsRestingLimitOrder(order, slot):
		return types.NodeTypeRestingLimit, subType
	default:
		return types.NodeTypeTakingLimit, subType
	}
}
