package userMap

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"slices"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/go-errors/errors"
	"go.uber.org/zap"

	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/dlob"
	dloblib "github.com/aoikurokawa/flashlight-sub000/dlob/types"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
)

// ErrStaleSlot is returned when a book is requested at a slot older than
// account data the map already holds.
var ErrStaleSlot = errors.Errorf("slot is older than the user map")

var (
	_ dloblib.IDLOBSource = (*UserMap)(nil)
	_ dloblib.ISlotSource = (*UserMap)(nil)
)

type OrdersChangedFn func(userAccount solana.PublicKey, user *drift.User, slot uint64)

type userWithSlot struct {
	user       *drift.User
	slot       uint64
	ordersHash [16]byte
}

// UserMap is an in-memory snapshot of user accounts. Stored users are shared
// with readers and must not be mutated.
type UserMap struct {
	mxState         sync.RWMutex
	userMap         map[solana.PublicKey]*userWithSlot
	mostRecentSlot  uint64
	logger          *zap.Logger
	onOrdersChanged OrdersChangedFn
	dlobOptions     []dlob.Option
}

type Option func(*UserMap)

func WithLogger(logger *zap.Logger) Option {
	return func(p *UserMap) {
		p.logger = logger
	}
}

// WithOrdersChanged registers a callback fired after a user is added or its
// order array changes. It runs outside the map lock.
func WithOrdersChanged(fn OrdersChangedFn) Option {
	return func(p *UserMap) {
		p.onOrdersChanged = fn
	}
}

// WithDLOBOptions sets the options GetDLOB builds books with.
func WithDLOBOptions(opts ...dlob.Option) Option {
	return func(p *UserMap) {
		p.dlobOptions = opts
	}
}

func NewUserMap(opts ...Option) *UserMap {
	userMap := &UserMap{
		userMap: make(map[solana.PublicKey]*userWithSlot),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(userMap)
	}
	return userMap
}

func getOrderHash(user *drift.User) [16]byte {
	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(user.Orders); err != nil {
		return [16]byte{}
	}
	return md5.Sum(buf.Bytes())
}

// AddAccountData decodes a raw user account and stores it. Data whose last
// active slot is behind the stored user is skipped before decoding.
func (p *UserMap) AddAccountData(userAccount solana.PublicKey, data []byte, slot uint64) error {
	if lastActiveSlot, ok := drift.UserLastActiveSlot(data); ok {
		if stored := p.Get(userAccount); stored != nil && stored.LastActiveSlot > lastActiveSlot {
			return nil
		}
	}
	user, err := drift.ParseAccount_User(data)
	if err != nil {
		p.logger.Warn("dropping user account",
			zap.Stringer("user", userAccount),
			zap.Uint64("slot", slot),
			zap.Error(err),
		)
		return errors.WrapPrefix(err, userAccount.String(), 0)
	}
	p.AddUser(userAccount, user, slot)
	return nil
}

// AddUser stores user at slot. Updates older than the stored slot are
// ignored. Reports whether the map changed.
func (p *UserMap) AddUser(userAccount solana.PublicKey, user *drift.User, slot uint64) bool {
	ordersHash := getOrderHash(user)

	p.mxState.Lock()
	existing, exists := p.userMap[userAccount]
	if exists && slot < existing.slot {
		p.mxState.Unlock()
		p.logger.Debug("stale user update",
			zap.Stringer("user", userAccount),
			zap.Uint64("slot", slot),
			zap.Uint64("storedSlot", existing.slot),
		)
		return false
	}
	p.userMap[userAccount] = &userWithSlot{
		user:       user,
		slot:       slot,
		ordersHash: ordersHash,
	}
	p.mostRecentSlot = max(p.mostRecentSlot, slot)
	p.mxState.Unlock()

	if (!exists || existing.ordersHash != ordersHash) && p.onOrdersChanged != nil {
		p.onOrdersChanged(userAccount, user, slot)
	}
	return true
}

func (p *UserMap) Has(userAccount solana.PublicKey) bool {
	p.mxState.RLock()
	defer p.mxState.RUnlock()
	_, exists := p.userMap[userAccount]
	return exists
}

func (p *UserMap) Get(userAccount solana.PublicKey) *drift.User {
	p.mxState.RLock()
	defer p.mxState.RUnlock()
	if user, exists := p.userMap[userAccount]; exists {
		return user.user
	}
	return nil
}

// GetWithSlot returns the user and the slot it was stored at.
func (p *UserMap) GetWithSlot(userAccount solana.PublicKey) (*drift.User, uint64, bool) {
	p.mxState.RLock()
	defer p.mxState.RUnlock()
	user, exists := p.userMap[userAccount]
	if !exists {
		return nil, 0, false
	}
	return user.user, user.slot, true
}

func (p *UserMap) GetUserAuthority(userAccount solana.PublicKey) solana.PublicKey {
	user := p.Get(userAccount)
	if user == nil {
		return solana.PublicKey{}
	}
	return user.Authority
}

func (p *UserMap) Remove(userAccount solana.PublicKey) bool {
	p.mxState.Lock()
	defer p.mxState.Unlock()
	if _, exists := p.userMap[userAccount]; !exists {
		return false
	}
	delete(p.userMap, userAccount)
	return true
}

func (p *UserMap) Size() int {
	p.mxState.RLock()
	defer p.mxState.RUnlock()
	return len(p.userMap)
}

func (p *UserMap) GetSlot() uint64 {
	p.mxState.RLock()
	defer p.mxState.RUnlock()
	return p.mostRecentSlot
}

// Entries yields users ordered by account key. The set is captured when
// iteration starts, so the map may be modified while a consumer runs.
func (p *UserMap) Entries() *common.Generator[*drift.User, solana.PublicKey] {
	return common.NewGenerator(func(yield common.YieldFn[*drift.User, solana.PublicKey]) {
		p.mxState.RLock()
		keys := make([]solana.PublicKey, 0, len(p.userMap))
		users := make(map[solana.PublicKey]*drift.User, len(p.userMap))
		for key, user := range p.userMap {
			keys = append(keys, key)
			users[key] = user.user
		}
		p.mxState.RUnlock()

		slices.SortFunc(keys, func(a solana.PublicKey, b solana.PublicKey) int {
			return bytes.Compare(a[:], b[:])
		})
		for _, key := range keys {
			if yield(users[key], key) {
				return
			}
		}
	})
}

// GetUniqueAuthorities lists each authority once, in account key order.
func (p *UserMap) GetUniqueAuthorities(hasOpenOrders bool) []solana.PublicKey {
	seen := make(map[solana.PublicKey]bool)
	var authorities []solana.PublicKey
	p.Entries().Each(func(user *drift.User, _ solana.PublicKey) bool {
		if hasOpenOrders && !user.HasOpenOrder {
			return false
		}
		if !seen[user.Authority] {
			seen[user.Authority] = true
			authorities = append(authorities, user.Authority)
		}
		return false
	})
	return authorities
}

// GetDLOB builds a fresh book from the current snapshot. The snapshot may
// already hold orders placed after an older slot, so those requests fail.
func (p *UserMap) GetDLOB(slot uint64) (dloblib.IDLOB, error) {
	if mostRecent := p.GetSlot(); slot < mostRecent {
		return nil, errors.WrapPrefix(ErrStaleSlot, fmt.Sprintf("requested %d, map at %d", slot, mostRecent), 0)
	}
	book := dlob.NewDLOB(append([]dlob.Option{dlob.WithLogger(p.logger)}, p.dlobOptions...)...)
	book.BuildFromUserMap(p, slot)
	return book, nil
}
