package types

import (
	"github.com/gagliardetto/solana-go"

	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
)

// IUserMap is a snapshot of user accounts keyed by account address.
type IUserMap interface {
	Size() int
	Entries() *common.Generator[*drift.User, solana.PublicKey]
}
