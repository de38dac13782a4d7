package dlob

import (
	"github.com/gagliardetto/solana-go"

	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
)

type DLOBOrder struct {
	User  solana.PublicKey
	Order drift.Order
}

type DLOBOrders []*DLOBOrder
