package types

import "time"

type DLOBSubscriptionConfig struct {
	DlobSource      IDLOBSource
	SlotSource      ISlotSource
	UpdateFrequency time.Duration
	// Events is optional.
	Events IDLOBSubscribeEvents
}

type IDLOBSource interface {
	GetDLOB(slot uint64) (IDLOB, error)
}

type ISlotSource interface {
	GetSlot() uint64
}

type IDLOBSubscribeEvents interface {
	Update(dlob IDLOB)
	Error(e error)
}
