package drift

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/go-errors/errors"
)

const (
	OrderSize = 96
	UserSize  = 4376
)

var (
	UserDiscriminator = accountDiscriminator("User")

	ErrAccountSize          = errors.Errorf("account data has unexpected size")
	ErrAccountDiscriminator = errors.Errorf("account discriminator mismatch")
)

type Order struct {
	Slot                      uint64
	Price                     uint64
	BaseAssetAmount           uint64
	BaseAssetAmountFilled     uint64
	QuoteAssetAmountFilled    uint64
	TriggerPrice              uint64
	AuctionStartPrice         int64
	AuctionEndPrice           int64
	MaxTs                     int64
	OraclePriceOffset         int32
	OrderId                   uint32
	MarketIndex               uint16
	Status                    OrderStatus
	OrderType                 OrderType
	MarketType                MarketType
	UserOrderId               uint8
	ExistingPositionDirection PositionDirection
	Direction                 PositionDirection
	ReduceOnly                bool
	PostOnly                  bool
	ImmediateOrCancel         bool
	TriggerCondition          OrderTriggerCondition
	AuctionDuration           uint8
	Padding                   [3]uint8
}

type SpotPosition struct {
	ScaledBalance      uint64
	OpenBids           int64
	OpenAsks           int64
	CumulativeDeposits int64
	MarketIndex        uint16
	BalanceType        SpotBalanceType
	OpenOrders         uint8
	Padding            [4]uint8
}

type PerpPosition struct {
	LastCumulativeFundingRate int64
	BaseAssetAmount           int64
	QuoteAssetAmount          int64
	QuoteBreakEvenAmount      int64
	QuoteEntryAmount          int64
	OpenBids                  int64
	OpenAsks                  int64
	SettledPnl                int64
	LpShares                  uint64
	LastBaseAssetAmountPerLp  int64
	LastQuoteAssetAmountPerLp int64
	RemainderBaseAssetAmount  int32
	MarketIndex               uint16
	OpenOrders                uint8
	PerLpBase                 int8
}

type User struct {
	Authority              solana.PublicKey
	Delegate               solana.PublicKey
	Name                   [32]uint8
	SpotPositions          [8]SpotPosition
	PerpPositions          [8]PerpPosition
	Orders                 [32]Order
	LastAddPerpLpSharesTs  int64
	TotalDeposits          uint64
	TotalWithdraws         uint64
	TotalSocialLoss        uint64
	SettledPerpPnl         int64
	CumulativeSpotFees     int64
	CumulativePerpFunding  int64
	LiquidationMarginFreed uint64
	LastActiveSlot         uint64
	NextOrderId            uint32
	MaxMarginRatio         uint32
	NextLiquidationId      uint16
	SubAccountId           uint16
	Status                 uint8
	IsMarginTradingEnabled bool
	Idle                   bool
	OpenOrders             uint8
	HasOpenOrder           bool
	OpenAuctions           uint8
	HasOpenAuction         bool
	Padding                [21]uint8
}

// ParseAccount_User decodes a raw user account, discriminator included.
func ParseAccount_User(data []byte) (*User, error) {
	if len(data) != UserSize {
		return nil, errors.WrapPrefix(ErrAccountSize, "user", 0)
	}
	if !bytes.Equal(data[:8], UserDiscriminator[:]) {
		return nil, errors.WrapPrefix(ErrAccountDiscriminator, "user", 0)
	}
	user := new(User)
	if err := bin.NewBinDecoder(data[8:]).Decode(user); err != nil {
		return nil, errors.WrapPrefix(err, "decode user", 0)
	}
	return user, nil
}

// MarshalAccount_User is the inverse of ParseAccount_User.
func MarshalAccount_User(user *User) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(UserDiscriminator[:])
	if err := bin.NewBinEncoder(buf).Encode(user); err != nil {
		return nil, errors.WrapPrefix(err, "encode user", 0)
	}
	return buf.Bytes(), nil
}
