package drift

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type FeeTier struct {
	FeeNumerator              uint32
	FeeDenominator            uint32
	MakerRebateNumerator      uint32
	MakerRebateDenominator    uint32
	ReferrerRewardNumerator   uint32
	ReferrerRewardDenominator uint32
	RefereeFeeNumerator       uint32
	RefereeFeeDenominator     uint32
}

type FeeStructure struct {
	FeeTiers [10]FeeTier
}

// State is the subset of the exchange state account read by the order book.
type State struct {
	ExchangeStatus             ExchangeStatus
	MinPerpAuctionDuration     uint8
	DefaultSpotAuctionDuration uint8
	PerpFeeStructure           FeeStructure
	SpotFeeStructure           FeeStructure
}

type AMM struct {
	Oracle                     solana.PublicKey
	BaseAssetReserve           bin.Uint128
	QuoteAssetReserve          bin.Uint128
	SqrtK                      bin.Uint128
	PegMultiplier              bin.Uint128
	MinBaseAssetReserve        bin.Uint128
	MaxBaseAssetReserve        bin.Uint128
	BaseAssetAmountWithAmm     bin.Int128
	TotalFeeMinusDistributions bin.Int128
	NetRevenueSinceLastFunding int64
	OrderStepSize              uint64
	OrderTickSize              uint64
	MinOrderSize               uint64
	LongSpread                 uint32
	ShortSpread                uint32
	MaxFillReserveFraction     uint16
}

type PerpMarket struct {
	MarketIndex      uint16
	Amm              AMM
	ContractTier     ContractTier
	PausedOperations uint8
	FeeAdjustment    int16
}

type SpotMarket struct {
	MarketIndex      uint16
	OrderStepSize    uint64
	OrderTickSize    uint64
	PausedOperations uint8
}
