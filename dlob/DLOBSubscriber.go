package dlob

import (
	"context"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"go.uber.org/zap"

	"github.com/aoikurokawa/flashlight-sub000/config"
	"github.com/aoikurokawa/flashlight-sub000/dlob/types"
)

var ErrNoDLOB = errors.Errorf("dlob subscriber has no dlob yet")

// DLOBSubscriber keeps a book rebuilt from its source on a fixed interval.
type DLOBSubscriber struct {
	dlobSource      types.IDLOBSource
	slotSource      types.ISlotSource
	updateFrequency time.Duration
	rebuildInterval time.Duration
	events          types.IDLOBSubscribeEvents
	logger          *zap.Logger

	mxState sync.RWMutex
	dlob    types.IDLOB
	cancel  context.CancelFunc
	done    chan struct{}
}

type SubscriberOption func(*DLOBSubscriber)

func WithSubscriberLogger(logger *zap.Logger) SubscriberOption {
	return func(p *DLOBSubscriber) {
		p.logger = logger
	}
}

// WithSubscriberConfig takes the rebuild interval from cfg when the
// subscription config leaves UpdateFrequency unset.
func WithSubscriberConfig(cfg config.DLOBConfig) SubscriberOption {
	return func(p *DLOBSubscriber) {
		if cfg.RebuildIntervalMs > 0 {
			p.rebuildInterval = time.Duration(cfg.RebuildIntervalMs) * time.Millisecond
		}
	}
}

func CreateDLOBSubscriber(subscriptionConfig types.DLOBSubscriptionConfig, opts ...SubscriberOption) *DLOBSubscriber {
	subscriber := &DLOBSubscriber{
		dlobSource:      subscriptionConfig.DlobSource,
		slotSource:      subscriptionConfig.SlotSource,
		updateFrequency: subscriptionConfig.UpdateFrequency,
		events:          subscriptionConfig.Events,
		logger:          zap.NewNop(),
		rebuildInterval: time.Duration(config.DefaultDLOBConfig().RebuildIntervalMs) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(subscriber)
	}
	if subscriber.updateFrequency <= 0 {
		subscriber.updateFrequency = subscriber.rebuildInterval
	}
	return subscriber
}

func (p *DLOBSubscriber) GetSlotSource() types.ISlotSource {
	return p.slotSource
}

func (p *DLOBSubscriber) GetDlobSource() types.IDLOBSource {
	return p.dlobSource
}

// Subscribe builds the first book synchronously, then keeps rebuilding
// until ctx is done or Unsubscribe is called.
func (p *DLOBSubscriber) Subscribe(ctx context.Context) error {
	p.mxState.Lock()
	if p.cancel != nil {
		p.mxState.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.mxState.Unlock()

	if err := p.UpdateDLOB(); err != nil {
		close(done)
		p.Unsubscribe()
		return err
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.updateFrequency)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := p.UpdateDLOB(); err != nil {
					p.logger.Warn("dlob update failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// UpdateDLOB swaps in a book built at the slot source's current slot. The
// previous book stays in place when the build fails.
func (p *DLOBSubscriber) UpdateDLOB() error {
	slot := p.slotSource.GetSlot()
	dlob, err := p.dlobSource.GetDLOB(slot)
	if err != nil {
		err = errors.WrapPrefix(err, "build dlob", 0)
		if p.events != nil {
			p.events.Error(err)
		}
		return err
	}

	p.mxState.Lock()
	p.dlob = dlob
	p.mxState.Unlock()

	p.logger.Debug("dlob updated", zap.Uint64("slot", slot))
	if p.events != nil {
		p.events.Update(dlob)
	}
	return nil
}

func (p *DLOBSubscriber) GetDLOB() types.IDLOB {
	p.mxState.RLock()
	defer p.mxState.RUnlock()
	return p.dlob
}

// GetL2 reads the current book. A zero Slot uses the slot source.
func (p *DLOBSubscriber) GetL2(params types.GetL2Params) (*types.L2OrderBook, error) {
	dlob := p.GetDLOB()
	if dlob == nil {
		return nil, ErrNoDLOB
	}
	if params.Slot == 0 {
		params.Slot = p.slotSource.GetSlot()
	}
	return dlob.GetL2(&params), nil
}

// GetL3 reads the current book. A zero Slot uses the slot source.
func (p *DLOBSubscriber) GetL3(params types.GetL3Params) (*types.L3OrderBook, error) {
	dlob := p.GetDLOB()
	if dlob == nil {
		return nil, ErrNoDLOB
	}
	if params.Slot == 0 {
		params.Slot = p.slotSource.GetSlot()
	}
	return dlob.GetL3(&params), nil
}

// Unsubscribe stops the rebuild loop and waits for it to exit.
func (p *DLOBSubscriber) Unsubscribe() {
	p.mxState.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mxState.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
