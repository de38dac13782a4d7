package math

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

func testAmm() *drift.AMM {
	reserve := utils.MulX(utils.BN(1000), utils.BN(1_000_000_000))
	return &drift.AMM{
		BaseAssetReserve:    utils.Uint128(reserve),
		QuoteAssetReserve:   utils.Uint128(reserve),
		SqrtK:               utils.Uint128(reserve),
		PegMultiplier:       utils.Uint128(utils.BN(100_000_000)),
		MinBaseAssetReserve: utils.Uint128(utils.DivX(reserve, utils.BN(2))),
		MaxBaseAssetReserve: utils.Uint128(utils.MulX(reserve, utils.BN(2))),
		OrderStepSize:       1_000_000,
	}
}

// go test --run TestValidateAmm

func TestValidateAmm(t *testing.T) {
	assert.NoError(t, ValidateAmm(testAmm()))
	assert.True(t, errors.Is(ValidateAmm(nil), ErrInvalidAmm))

	amm := testAmm()
	amm.PegMultiplier = utils.Uint128(utils.BN(0))
	err := ValidateAmm(amm)
	assert.True(t, errors.Is(err, ErrInvalidAmm))
	assert.Contains(t, err.Error(), "peg multiplier")

	_, _, err = CalculateBidAskPrice(&drift.AMM{})
	assert.True(t, errors.Is(err, ErrInvalidAmm))
}

// go test --run TestCalculateBidAskPrice

func TestCalculateBidAskPrice(t *testing.T) {
	amm := testAmm()
	bid, ask, err := CalculateBidAskPrice(amm)
	require.NoError(t, err)
	assert.Equal(t, "100000000", bid.String())
	assert.Equal(t, "100000000", ask.String())

	amm.LongSpread = 1000
	amm.ShortSpread = 1000
	bid, ask, err = CalculateBidAskPrice(amm)
	require.NoError(t, err)
	assert.Less(t, bid.Cmp(utils.BN(100_000_000)), 0)
	assert.Greater(t, ask.Cmp(utils.BN(100_000_000)), 0)
}

// go test --run TestCalculateAmmReservesAfterSwap

func TestCalculateAmmReservesAfterSwap(t *testing.T) {
	amm := testAmm()

	quote, base, err := CalculateAmmReservesAfterSwap(amm, drift.AssetType_Base, utils.BN(1_000_000_000_000/4), drift.SwapDirection_Add)
	require.NoError(t, err)
	assert.Equal(t, "1250000000000", base.String())
	assert.Equal(t, "800000000000", quote.String())

	_, _, err = CalculateAmmReservesAfterSwap(amm, drift.AssetType_Base, utils.BN(-1), drift.SwapDirection_Add)
	assert.True(t, errors.Is(err, ErrInvalidSwap))

	_, _, err = CalculateAmmReservesAfterSwap(amm, drift.AssetType_Base, utils.BN(1_000_000_000_000), drift.SwapDirection_Remove)
	assert.True(t, errors.Is(err, ErrReserveBreach))

	// 100 quote at a peg of 100 buys just under one base
	quote, base, err = CalculateAmmReservesAfterSwap(amm, drift.AssetType_Quote, utils.BN(100_000_000), drift.SwapDirection_Add)
	require.NoError(t, err)
	assert.Equal(t, "1001000000000", quote.String())
	assert.Equal(t, "999000999000", base.String())
}

// go test --run TestCalculateMarketOpenBidAsk

func TestCalculateMarketOpenBidAsk(t *testing.T) {
	openBids, openAsks := CalculateMarketOpenBidAsk(utils.BN(1000), utils.BN(500), utils.BN(2000), nil)
	assert.Equal(t, "1000", openBids.String())
	assert.Equal(t, "-500", openAsks.String())

	openBids, openAsks = CalculateMarketOpenBidAsk(utils.BN(1000), utils.BN(990), utils.BN(1010), utils.BN(10))
	assert.Equal(t, "0", openBids.String())
	assert.Equal(t, "0", openAsks.String())

	assert.Equal(t, drift.SwapDirection_Remove, GetSwapDirection(drift.AssetType_Base, drift.PositionDirection_Long))
	assert.Equal(t, drift.SwapDirection_Remove, GetSwapDirection(drift.AssetType_Quote, drift.PositionDirection_Short))
	assert.Equal(t, drift.SwapDirection_Add, GetSwapDirection(drift.AssetType_Quote, drift.PositionDirection_Long))
}

// go test --run TestCalculateMaxBaseAssetAmountFillable

func TestCalculateMaxBaseAssetAmountFillable(t *testing.T) {
	amm := testAmm()
	assert.Equal(t, "500000000000", CalculateMaxBaseAssetAmountFillable(amm, drift.PositionDirection_Long).String())
	assert.Equal(t, "1000000000000", CalculateMaxBaseAssetAmountFillable(amm, drift.PositionDirection_Short).String())

	amm.MaxFillReserveFraction = 4
	assert.Equal(t, "250000000000", CalculateMaxBaseAssetAmountFillable(amm, drift.PositionDirection_Short).String())
}

// go test --run TestConvertPrice

func TestConvertPrice(t *testing.T) {
	assert.Equal(t, "99.5", ConvertPrice(utils.BN(99_500_000)).String())
	assert.Equal(t, "1.25", ConvertBaseAmount(utils.BN(1_250_000_000)).String())
	assert.Equal(t, "0", ConvertPrice(nil).String())
	assert.Equal(t, int64(99), ConvertToNumber(utils.BN(99_500_000)))
	assert.Equal(t, int64(0), ConvertToNumber(nil))
}
