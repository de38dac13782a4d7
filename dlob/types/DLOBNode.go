package types

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/math"
	oracles "github.com/aoikurokawa/flashlight-sub000/oracles/types"
)

type DLOBNodeType int

const (
	NodeTypeTakingLimit DLOBNodeType = iota
	NodeTypeRestingLimit
	NodeTypeFloatingLimit
	NodeTypeMarket
	NodeTypeTrigger
)

var NodeTypes = []DLOBNodeType{
	NodeTypeTakingLimit,
	NodeTypeRestingLimit,
	NodeTypeFloatingLimit,
	NodeTypeMarket,
	NodeTypeTrigger,
}

func (value DLOBNodeType) String() string {
	switch value {
	case NodeTypeTrigger:
		return "trg"
	case NodeTypeMarket:
		return "mark"
	case NodeTypeFloatingLimit:
		return "fltLmt"
	case NodeTypeRestingLimit:
		return "rstLmt"
	case NodeTypeTakingLimit:
		return "takLmt"
	default:
		return "unknown"
	}
}

type DLOBNodeSubType int

const (
	NodeSubTypeAsk DLOBNodeSubType = iota
	NodeSubTypeBid
	NodeSubTypeAbove
	NodeSubTypeBelow
)

func (value DLOBNodeSubType) String() string {
	switch value {
	case NodeSubTypeAbove:
		return "above"
	case NodeSubTypeBelow:
		return "below"
	case NodeSubTypeBid:
		return "bid"
	case NodeSubTypeAsk:
		return "ask"
	default:
		return "unknownSubType"
	}
}

type NodeKind uint8

const (
	NodeKindOrder NodeKind = iota
	NodeKindVamm
)

type OrderSignature struct {
	OrderId     uint32
	UserAccount solana.PublicKey
}

func GetOrderSignature(orderId uint32, userAccount solana.PublicKey) OrderSignature {
	return OrderSignature{OrderId: orderId, UserAccount: userAccount}
}

func (p OrderSignature) String() string {
	return fmt.Sprintf("%s-%d", p.UserAccount.String(), p.OrderId)
}

// DLOBNode is either a book order or a synthetic vAMM quote. Nodes are never
// mutated after construction; updates swap in a new node.
type DLOBNode struct {
	Kind        NodeKind
	NodeType    DLOBNodeType
	Order       drift.Order
	UserAccount solana.PublicKey
	VammPrice   *big.Int
}

func NewOrderNode(nodeType DLOBNodeType, order *drift.Order, userAccount solana.PublicKey) *DLOBNode {
	return &DLOBNode{
		Kind:        NodeKindOrder,
		NodeType:    nodeType,
		Order:       *order,
		UserAccount: userAccount,
	}
}

func NewVammNode(price *big.Int) *DLOBNode {
	return &DLOBNode{
		Kind:      NodeKindVamm,
		VammPrice: price,
	}
}

func (p *DLOBNode) GetPrice(oraclePriceData *oracles.OraclePriceData, slot uint64) *big.Int {
	switch p.Kind {
	case NodeKindVamm:
		return p.VammPrice
	default:
		return math.GetLimitPrice(&p.Order, oraclePriceData, slot, nil)
	}
}

func (p *DLOBNode) IsVammNode() bool {
	return p.Kind == NodeKindVamm
}

func (p *DLOBNode) IsBaseFilled() bool {
	if p.Kind == NodeKindVamm {
		return false
	}
	return p.Order.BaseAssetAmountFilled >= p.Order.BaseAssetAmount
}

// GetOrder returns nil for vAMM nodes.
func (p *DLOBNode) GetOrder() *drift.Order {
	if p.Kind == NodeKindVamm {
		return nil
	}
	return &p.Order
}

func (p *DLOBNode) GetUserAccount() solana.PublicKey {
	return p.UserAccount
}

func (p *DLOBNode) Signature() OrderSignature {
	return GetOrderSignature(p.Order.OrderId, p.UserAccount)
}

func (p *DLOBNode) RemainingBaseAmount() uint64 {
	if p.Kind == NodeKindVamm {
		return 0
	}
	return math.RemainingBaseAssetAmount(&p.Order)
}

func (p *DLOBNode) String() string {
	if p.Kind == NodeKindVamm {
		return fmt.Sprintf("vamm@%s", p.VammPrice.String())
	}
	return fmt.Sprintf("%s %s %s #%d price=%d size=%d filled=%d slot=%d",
		p.NodeType, p.Order.Direction, p.UserAccount.String(), p.Order.OrderId,
		p.Order.Price, p.Order.BaseAssetAmount, p.Order.BaseAssetAmountFilled, p.Order.Slot)
}

type DLOBFilterFcn func(node *DLOBNode) bool

type NodeToFill struct {
	Node       *DLOBNode
	MakerNodes []*DLOBNode
}

type NodeToTrigger struct {
	Node *DLOBNode
}
