package dlob

import (
	"bytes"
	"cmp"

	"github.com/gagliardetto/solana-go"
	"github.com/tidwall/btree"

	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
)

type SortDirection int

const (
	SortDirectionAsc SortDirection = iota
	SortDirectionDesc
)

// NodeList is one side of one node type in a market. Nodes are ordered by
// the node type's sort value in the list direction, then by slot. At most one
// node exists per order signature. NodeList is not safe for concurrent use;
// the owning MarketNodeLists serializes access.
type NodeList struct {
	nodeType      types.DLOBNodeType
	sortDirection SortDirection
	tree          *btree.BTreeG[*types.DLOBNode]
	nodeMap       map[types.OrderSignature]*types.DLOBNode
}

func NewNodeList(nodeType types.DLOBNodeType, sortDirection SortDirection) *NodeList {
	p := &NodeList{
		nodeType:      nodeType,
		sortDirection: sortDirection,
		nodeMap:       make(map[types.OrderSignature]*types.DLOBNode),
	}
	p.tree = btree.NewBTreeGOptions(p.less, btree.Options{NoLocks: true})
	return p
}

func compareSortValue(nodeType types.DLOBNodeType, a, b *drift.Order) int {
	switch nodeType {
	case types.NodeTypeTrigger:
		return cmp.Compare(a.TriggerPrice, b.TriggerPrice)
	case types.NodeTypeRestingLimit:
		return cmp.Compare(a.Price, b.Price)
	case types.NodeTypeFloatingLimit:
		return cmp.Compare(a.OraclePriceOffset, b.OraclePriceOffset)
	default:
		return cmp.Compare(a.Slot, b.Slot)
	}
}

func (p *NodeList) less(a, b *types.DLOBNode) bool {
	if c := compareSortValue(p.nodeType, &a.Order, &b.Order); c != 0 {
		if p.sortDirection == SortDirectionAsc {
			return c < 0
		}
		return c > 0
	}
	if a.Order.Slot != b.Order.Slot {
		return a.Order.Slot < b.Order.Slot
	}
	if a.Order.OrderId != b.Order.OrderId {
		return a.Order.OrderId < b.Order.OrderId
	}
	return bytes.Compare(a.UserAccount[:], b.UserAccount[:]) < 0
}

func (p *NodeList) NodeType() types.DLOBNodeType {
	return p.nodeType
}

func (p *NodeList) SortDirection() SortDirection {
	return p.sortDirection
}

func (p *NodeList) GetLength() int {
	return len(p.nodeMap)
}

func (p *NodeList) Clear() {
	p.tree.Clear()
	p.nodeMap = make(map[types.OrderSignature]*types.DLOBNode)
}

// Insert adds the order, replacing any node with the same signature.
// Init orders are ignored.
func (p *NodeList) Insert(order *drift.Order, userAccount solana.PublicKey) *types.DLOBNode {
	if order.Status == drift.OrderStatus_Init {
		return nil
	}
	signature := types.GetOrderSignature(order.OrderId, userAccount)
	if existing, exists := p.nodeMap[signature]; exists {
		p.tree.Delete(existing)
	}
	node := types.NewOrderNode(p.nodeType, order, userAccount)
	p.nodeMap[signature] = node
	p.tree.Set(node)
	return node
}

// Update replaces an existing node. It reports false when the signature is
// not in the list.
func (p *NodeList) Update(order *drift.Order, userAccount solana.PublicKey) bool {
	if !p.Has(types.GetOrderSignature(order.OrderId, userAccount)) {
		return false
	}
	p.Insert(order, userAccount)
	return true
}

func (p *NodeList) Remove(orderId uint32, userAccount solana.PublicKey) *types.DLOBNode {
	signature := types.GetOrderSignature(orderId, userAccount)
	node, exists := p.nodeMap[signature]
	if !exists {
		return nil
	}
	p.tree.Delete(node)
	delete(p.nodeMap, signature)
	return node
}

func (p *NodeList) Has(signature types.OrderSignature) bool {
	_, exists := p.nodeMap[signature]
	return exists
}

func (p *NodeList) Get(signature types.OrderSignature) *types.DLOBNode {
	return p.nodeMap[signature]
}

// Best returns the highest priority node or nil.
func (p *NodeList) Best() *types.DLOBNode {
	node, ok := p.tree.Min()
	if !ok {
		return nil
	}
	return node
}

// Snapshot copies the nodes out in priority order.
func (p *NodeList) Snapshot() []*types.DLOBNode {
	nodes := make([]*types.DLOBNode, 0, p.tree.Len())
	p.tree.Scan(func(node *types.DLOBNode) bool {
		nodes = append(nodes, node)
		return true
	})
	return nodes
}

// GetGenerator walks a snapshot taken at call time.
func (p *NodeList) GetGenerator() *common.Generator[*types.DLOBNode, int] {
	return common.SliceGenerator(p.Snapshot())
}
