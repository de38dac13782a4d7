package drift

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/iancoleman/strcase"
)

const DISCRIMINATOR_SIZE = 8

// Byte offsets into an encoded user account, discriminator included.
const (
	userLastActiveSlotOffset = 4328
	userIdleOffset           = 4350
	userHasOpenOrderOffset   = 4352
	userHasOpenAuctionOffset = 4354
)

func accountDiscriminator(accountName string) [DISCRIMINATOR_SIZE]byte {
	var discriminator [DISCRIMINATOR_SIZE]byte
	sum := sha256.Sum256([]byte("account:" + strcase.ToCamel(accountName)))
	copy(discriminator[:], sum[:DISCRIMINATOR_SIZE])
	return discriminator
}

// GetAccountFilter matches accounts by their anchor discriminator.
func GetAccountFilter(accountName string) rpc.RPCFilter {
	discriminator := accountDiscriminator(accountName)
	return rpc.RPCFilter{
		Memcmp: &rpc.RPCFilterMemcmp{
			Offset: 0,
			Bytes:  discriminator[:],
		},
	}
}

func GetUserFilter() rpc.RPCFilter {
	return GetAccountFilter("user")
}

func GetNonIdleUserFilter() rpc.RPCFilter {
	return rpc.RPCFilter{
		Memcmp: &rpc.RPCFilterMemcmp{
			Offset: userIdleOffset,
			Bytes:  []byte{0},
		},
	}
}

func GetUserWithOrderFilter() rpc.RPCFilter {
	return rpc.RPCFilter{
		Memcmp: &rpc.RPCFilterMemcmp{
			Offset: userHasOpenOrderOffset,
			Bytes:  []byte{1},
		},
	}
}

func GetUserWithAuctionFilter() rpc.RPCFilter {
	return rpc.RPCFilter{
		Memcmp: &rpc.RPCFilterMemcmp{
			Offset: userHasOpenAuctionOffset,
			Bytes:  []byte{1},
		},
	}
}

// GetOrderBookUserFilters selects the user accounts a book is built from.
func GetOrderBookUserFilters() []rpc.RPCFilter {
	return []rpc.RPCFilter{
		GetUserFilter(),
		GetUserWithOrderFilter(),
	}
}

// MatchesFilters applies memcmp and data size filters to raw account data
// the way the rpc node does.
func MatchesFilters(data []byte, filters ...rpc.RPCFilter) bool {
	for _, filter := range filters {
		if filter.DataSize != 0 && uint64(len(data)) != filter.DataSize {
			return false
		}
		if filter.Memcmp == nil {
			continue
		}
		start := filter.Memcmp.Offset
		end := start + uint64(len(filter.Memcmp.Bytes))
		if end > uint64(len(data)) || !bytes.Equal(data[start:end], filter.Memcmp.Bytes) {
			return false
		}
	}
	return true
}

// UserLastActiveSlot reads the last active slot without decoding the account.
func UserLastActiveSlot(data []byte) (uint64, bool) {
	if len(data) != UserSize {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[userLastActiveSlotOffset : userLastActiveSlotOffset+8]), true
}
