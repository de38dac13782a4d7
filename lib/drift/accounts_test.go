package drift

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/gagliardetto/solana-go"
	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *User {
	user := &User{
		Authority:    solana.PublicKey{9},
		SubAccountId: 2,
		NextOrderId:  8,
		HasOpenOrder: true,
		OpenOrders:   2,
	}
	user.Orders[0] = Order{
		Slot:              100,
		Price:             101_000_000,
		BaseAssetAmount:   1_000_000_000,
		MaxTs:             1_700_000_000,
		OraclePriceOffset: -250,
		OrderId:           6,
		MarketIndex:       1,
		Status:            OrderStatus_Open,
		OrderType:         OrderType_Limit,
		MarketType:        MarketType_Perp,
		Direction:         PositionDirection_Short,
		PostOnly:          true,
		TriggerCondition:  OrderTriggerCondition_Below,
		AuctionDuration:   10,
	}
	user.Orders[5] = Order{
		OrderId:    7,
		Status:     OrderStatus_Open,
		OrderType:  OrderType_Market,
		MarketType: MarketType_Spot,
	}
	return user
}

// go test --run TestParseAccountUser

func TestParseAccountUser(t *testing.T) {
	user := testUser()
	data, err := MarshalAccount_User(user)
	require.NoError(t, err)
	assert.Len(t, data, UserSize)

	parsed, err := ParseAccount_User(data)
	require.NoError(t, err)
	spew.Dump("TestParseAccountUser Result", parsed.Orders[0])
	assert.Equal(t, user.Authority, parsed.Authority)
	assert.Equal(t, user.SubAccountId, parsed.SubAccountId)
	assert.Equal(t, user.Orders, parsed.Orders)
	assert.True(t, parsed.HasOpenOrder)
}

// go test --run TestParseAccountUserInvalid

func TestParseAccountUserInvalid(t *testing.T) {
	data, err := MarshalAccount_User(testUser())
	require.NoError(t, err)

	_, err = ParseAccount_User(data[:len(data)-1])
	assert.True(t, errors.Is(err, ErrAccountSize))

	corrupted := append([]byte{}, data...)
	corrupted[0] ^= 0xff
	_, err = ParseAccount_User(corrupted)
	assert.True(t, errors.Is(err, ErrAccountDiscriminator))
}
