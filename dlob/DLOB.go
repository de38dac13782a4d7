package dlob

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aoikurokawa/flashlight-sub000/config"
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/math"
	userMap "github.com/aoikurokawa/flashlight-sub000/userMap/types"
)

type userOrderRef struct {
	marketType  drift.MarketType
	marketIndex uint16
}

type userOrders struct {
	mx     sync.Mutex
	orders map[uint32]userOrderRef
}

type DLOB struct {
	exchange *Exchange
	// users indexes solana.PublicKey -> *userOrders for GetOrder and UpdateByUser.
	users                        sync.Map
	maxSlotForRestingLimitOrders atomic.Uint64
	initialized                  atomic.Bool
	config                       config.DLOBConfig
	logger                       *zap.Logger
	metrics                      *Metrics
}

var _ types.IDLOB = (*DLOB)(nil)

type Option func(*DLOB)

func WithLogger(logger *zap.Logger) Option {
	return func(p *DLOB) {
		p.logger = logger
	}
}

func WithConfig(cfg config.DLOBConfig) Option {
	return func(p *DLOB) {
		p.config = cfg
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(p *DLOB) {
		p.metrics = metrics
	}
}

func NewDLOB(opts ...Option) *DLOB {
	dlob := &DLOB{
		exchange: NewExchange(),
		config:   config.DefaultDLOBConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(dlob)
	}
	if dlob.config.BuildWorkers <= 0 {
		dlob.config.BuildWorkers = 1
	}
	return dlob
}

func (p *DLOB) Exchange() *Exchange {
	return p.exchange
}

func (p *DLOB) Initialized() bool {
	return p.initialized.Load()
}

func (p *DLOB) MaxSlotForRestingLimitOrders() uint64 {
	return p.maxSlotForRestingLimitOrders.Load()
}

func (p *DLOB) Clear() {
	p.exchange.Clear()
	p.users.Clear()
	p.maxSlotForRestingLimitOrders.Store(0)
	p.initialized.Store(false)
}

// BuildFromUserMap clears the book and inserts every order of every user in
// the snapshot, spreading accounts over BuildWorkers goroutines.
func (p *DLOB) BuildFromUserMap(users userMap.IUserMap, slot uint64) {
	started := time.Now()
	p.Clear()

	var group errgroup.Group
	group.SetLimit(p.config.BuildWorkers)
	users.Entries().Each(func(user *drift.User, userAccount solana.PublicKey) bool {
		group.Go(func() error {
			p.insertUserOrders(userAccount, user, slot)
			return nil
		})
		return false
	})
	_ = group.Wait()
	p.initialized.Store(true)

	perp, spot := p.Size()
	p.metrics.rebuilt(started, perp+spot)
	p.logger.Debug("dlob rebuilt",
		zap.Uint64("slot", slot),
		zap.Int("users", users.Size()),
		zap.Int("perpOrders", perp),
		zap.Int("spotOrders", spot),
		zap.Duration("elapsed", time.Since(started)),
	)
}

func (p *DLOB) insertUserOrders(userAccount solana.PublicKey, user *drift.User, slot uint64) {
	for idx := range user.Orders {
		order := &user.Orders[idx]
		if order.Status == drift.OrderStatus_Init {
			continue
		}
		p.InsertOrder(order, userAccount, slot)
	}
}

// InitFromOrders loads orders into an empty book. It reports false when the
// book was already initialized.
func (p *DLOB) InitFromOrders(dlobOrders DLOBOrders, slot uint64) bool {
	if !p.initialized.CompareAndSwap(false, true) {
		return false
	}
	for _, dlobOrder := range dlobOrders {
		p.InsertOrder(&dlobOrder.Order, dlobOrder.User, slot)
	}
	return true
}

// InsertOrder classifies the order at slot and stores a copy of it. A node
// with the same signature is replaced.
func (p *DLOB) InsertOrder(order *drift.Order, userAccount solana.PublicKey, slot uint64) {
	if order.Status == drift.OrderStatus_Init || !math.IsSupportedOrderType(order) {
		return
	}
	nodeType, subType := GetNodeType(order, slot)
	lists := p.exchange.AddMarketIdempotent(order.MarketType, order.MarketIndex)

	lists.mx.Lock()
	lists.insert(order, userAccount, nodeType, subType)
	lists.mx.Unlock()

	p.indexOrder(userAccount, order)
	p.metrics.orderInserted(order.MarketType, nodeType)
}

func (p *DLOB) indexOrder(userAccount solana.PublicKey, order *drift.Order) {
	value, _ := p.users.LoadOrStore(userAccount, &userOrders{orders: make(map[uint32]userOrderRef)})
	entry := value.(*userOrders)
	entry.mx.Lock()
	entry.orders[order.OrderId] = userOrderRef{marketType: order.MarketType, marketIndex: order.MarketIndex}
	entry.mx.Unlock()
}

func (p *DLOB) unindexOrder(userAccount solana.PublicKey, orderId uint32) {
	value, ok := p.users.Load(userAccount)
	if !ok {
		return
	}
	entry := value.(*userOrders)
	entry.mx.Lock()
	delete(entry.orders, orderId)
	entry.mx.Unlock()
}

func (p *DLOB) userOrderRefs(userAccount solana.PublicKey) map[uint32]userOrderRef {
	refs := make(map[uint32]userOrderRef)
	value, ok := p.users.Load(userAccount)
	if !ok {
		return refs
	}
	entry := value.(*userOrders)
	entry.mx.Lock()
	defer entry.mx.Unlock()
	for orderId, ref := range entry.orders {
		refs[orderId] = ref
	}
	return refs
}

// GetOrder returns a copy of the stored order, or nil.
func (p *DLOB) GetOrder(orderId uint32, userAccount solana.PublicKey) *drift.Order {
	ref, ok := p.userOrderRefs(userAccount)[orderId]
	if !ok {
		return nil
	}
	lists := p.exchange.Get(ref.marketType, ref.marketIndex)
	if lists == nil {
		return nil
	}
	lists.mx.Lock()
	defer lists.mx.Unlock()
	node := lists.get(types.GetOrderSignature(orderId, userAccount))
	if node == nil {
		return nil
	}
	order := node.Order
	return &order
}

// GetListForOrder returns the list the order belongs in at slot, or nil when
// its market has no lists yet.
func (p *DLOB) GetListForOrder(order *drift.Order, slot uint64) *NodeList {
	lists := p.exchange.Get(order.MarketType, order.MarketIndex)
	if lists == nil {
		return nil
	}
	nodeType, subType := GetNodeType(order, slot)
	return lists.List(nodeType, subType)
}

// UpdateOrder records a new cumulative filled amount. A fully filled order
// is deleted.
func (p *DLOB) UpdateOrder(
	order *drift.Order,
	userAccount solana.PublicKey,
	slot uint64,
	cumulativeBaseAssetAmountFilled uint64,
) {
	p.UpdateRestingLimitOrders(slot)

	if order.BaseAssetAmount <= cumulativeBaseAssetAmountFilled {
		p.Delete(order, userAccount, slot)
		return
	}
	if order.BaseAssetAmountFilled == cumulativeBaseAssetAmountFilled {
		return
	}

	newOrder := *order
	newOrder.BaseAssetAmountFilled = cumulativeBaseAssetAmountFilled
	p.InsertOrder(&newOrder, userAccount, slot)
}

// Trigger moves a trigger order out of the trigger lists with its condition
// flipped to triggered.
func (p *DLOB) Trigger(order *drift.Order, userAccount solana.PublicKey, slot uint64) {
	if math.IsTriggered(order) {
		return
	}

	newOrder := *order
	if order.TriggerCondition == drift.OrderTriggerCondition_Above {
		newOrder.TriggerCondition = drift.OrderTriggerCondition_TriggeredAbove
	} else {
		newOrder.TriggerCondition = drift.OrderTriggerCondition_TriggeredBelow
	}
	p.InsertOrder(&newOrder, userAccount, slot)
}

func (p *DLOB) Delete(order *drift.Order, userAccount solana.PublicKey, slot uint64) {
	if order.Status == drift.OrderStatus_Init {
		return
	}
	p.UpdateRestingLimitOrders(slot)

	lists := p.exchange.Get(order.MarketType, order.MarketIndex)
	if lists != nil {
		lists.mx.Lock()
		lists.remove(order.OrderId, userAccount)
		lists.mx.Unlock()
	}
	p.unindexOrder(userAccount, order.OrderId)
}

func (p *DLOB) HandleOrderRecord(record *drift.OrderRecord, slot uint64) {
	p.InsertOrder(&record.Order, record.User, slot)
}

func (p *DLOB) HandleOrderActionRecord(record *drift.OrderActionRecord, slot uint64) {
	switch record.Action {
	case drift.OrderAction_Place, drift.OrderAction_Expire:
		return
	case drift.OrderAction_Trigger:
		p.forEachRecordOrder(record, func(order *drift.Order, userAccount solana.PublicKey, _ *uint64) {
			p.Trigger(order, userAccount, slot)
		})
	case drift.OrderAction_Fill:
		p.forEachRecordOrder(record, func(order *drift.Order, userAccount solana.PublicKey, filled *uint64) {
			if filled == nil {
				p.logger.Warn("fill record without cumulative filled amount",
					zap.String("user", userAccount.String()),
					zap.Uint32("orderId", order.OrderId),
				)
				return
			}
			p.UpdateOrder(order, userAccount, slot, *filled)
		})
	case drift.OrderAction_Cancel:
		p.forEachRecordOrder(record, func(order *drift.Order, userAccount solana.PublicKey, _ *uint64) {
			p.Delete(order, userAccount, slot)
		})
	}
}

func (p *DLOB) forEachRecordOrder(
	record *drift.OrderActionRecord,
	f func(order *drift.Order, userAccount solana.PublicKey, cumulativeFilled *uint64),
) {
	if record.Taker != nil && record.TakerOrderId != nil {
		if order := p.GetOrder(*record.TakerOrderId, *record.Taker); order != nil {
			f(order, *record.Taker, record.TakerOrderCumulativeBaseAssetAmountFilled)
		}
	}
	if record.Maker != nil && record.MakerOrderId != nil {
		if order := p.GetOrder(*record.MakerOrderId, *record.Maker); order != nil {
			f(order, *record.Maker, record.MakerOrderCumulativeBaseAssetAmountFilled)
		}
	}
}

// UpdateByUser reconciles the book with a fresh copy of one user account:
// orders missing from the account or fully filled are deleted, the rest are
// inserted or replaced.
func (p *DLOB) UpdateByUser(userAccount solana.PublicKey, user *drift.User, slot uint64) {
	p.UpdateRestingLimitOrders(slot)

	stale := p.userOrderRefs(userAccount)
	for idx := range user.Orders {
		order := &user.Orders[idx]
		if order.Status != drift.OrderStatus_Open || !math.IsSupportedOrderType(order) {
			continue
		}
		if math.RemainingBaseAssetAmount(order) == 0 {
			continue
		}
		delete(stale, order.OrderId)
		p.InsertOrder(order, userAccount, slot)
	}

	for orderId, ref := range stale {
		if lists := p.exchange.Get(ref.marketType, ref.marketIndex); lists != nil {
			lists.mx.Lock()
			lists.remove(orderId, userAccount)
			lists.mx.Unlock()
		}
		p.unindexOrder(userAccount, orderId)
	}
}

// UpdateRestingLimitOrders migrates taking limit orders whose auctions have
// completed. Only the first caller to advance the slot high-water mark does
// the work; older or equal slots return immediately.
func (p *DLOB) UpdateRestingLimitOrders(slot uint64) {
	for {
		current := p.maxSlotForRestingLimitOrders.Load()
		if slot <= current {
			return
		}
		if p.maxSlotForRestingLimitOrders.CompareAndSwap(current, slot) {
			break
		}
	}

	migrated := 0
	for _, marketType := range []drift.MarketType{drift.MarketType_Perp, drift.MarketType_Spot} {
		p.exchange.Each(marketType, func(lists *MarketNodeLists) {
			migrated += lists.migrateRestingLimitOrders(slot)
		})
	}
	p.metrics.restingMigrated(migrated)
	if migrated > 0 {
		p.logger.Debug("resting limit orders migrated", zap.Uint64("slot", slot), zap.Int("count", migrated))
	}
}

// GetDLOBOrders copies every order in the book.
func (p *DLOB) GetDLOBOrders() DLOBOrders {
	var dlobOrders DLOBOrders
	for _, marketType := range []drift.MarketType{drift.MarketType_Perp, drift.MarketType_Spot} {
		p.exchange.Each(marketType, func(lists *MarketNodeLists) {
			lists.mx.Lock()
			defer lists.mx.Unlock()
			lists.each(func(_ types.DLOBNodeType, _ types.DLOBNodeSubType, list *NodeList) {
				for _, node := range list.Snapshot() {
					dlobOrders = append(dlobOrders, &DLOBOrder{User: node.UserAccount, Order: node.Order})
				}
			})
		})
	}
	return dlobOrders
}

// Size returns the number of perp and spot orders in the book.
func (p *DLOB) Size() (int, int) {
	return p.exchange.Size(drift.MarketType_Perp), p.exchange.Size(drift.MarketType_Spot)
}

// DumpOrders writes every list of one market for debugging.
func (p *DLOB) DumpOrders(w io.Writer, marketType drift.MarketType, marketIndex uint16) {
	lists := p.exchange.Get(marketType, marketIndex)
	if lists == nil {
		fmt.Fprintf(w, "%s market %d: no orders\n", marketType, marketIndex)
		return
	}
	lists.mx.Lock()
	defer lists.mx.Unlock()
	config := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	lists.each(func(nodeType types.DLOBNodeType, subType types.DLOBNodeSubType, list *NodeList) {
		fmt.Fprintf(w, "%s market %d %s %s (%d)\n", marketType, marketIndex, nodeType, subType, list.GetLength())
		for _, node := range list.Snapshot() {
			config.Fdump(w, node.Order)
		}
	})
}
