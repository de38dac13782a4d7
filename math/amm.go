package math

import (
	"math/big"

	"github.com/go-errors/errors"

	"github.com/aoikurokawa/flashlight-sub000/constants"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

// ValidateAmm checks the reserves and peg the pricing functions divide by.
func ValidateAmm(amm *drift.AMM) error {
	if amm == nil {
		return errors.WrapPrefix(ErrInvalidAmm, "nil amm", 0)
	}
	if utils.BigUint128(amm.BaseAssetReserve).Sign() == 0 {
		return errors.WrapPrefix(ErrInvalidAmm, "base asset reserve is zero", 0)
	}
	if utils.BigUint128(amm.QuoteAssetReserve).Sign() == 0 {
		return errors.WrapPrefix(ErrInvalidAmm, "quote asset reserve is zero", 0)
	}
	if utils.BigUint128(amm.SqrtK).Sign() == 0 {
		return errors.WrapPrefix(ErrInvalidAmm, "sqrt k is zero", 0)
	}
	if utils.BigUint128(amm.PegMultiplier).Sign() == 0 {
		return errors.WrapPrefix(ErrInvalidAmm, "peg multiplier is zero", 0)
	}
	return nil
}

func CalculatePrice(baseAssetReserves *big.Int, quoteAssetReserves *big.Int, pegMultiplier *big.Int) *big.Int {
	if baseAssetReserves.Sign() <= 0 {
		return utils.BN(0)
	}

	u := utils.MulX(quoteAssetReserves, constants.PRICE_PRECISION, pegMultiplier)
	return utils.DivX(u, constants.PEG_PRECISION, baseAssetReserves)
}

func calculateSpreadReserve(spread int64, amm *drift.AMM) (*AssetReserve, error) {
	baseAssetReserve := utils.BigUint128(amm.BaseAssetReserve)
	quoteAssetReserve := utils.BigUint128(amm.QuoteAssetReserve)
	if spread == 0 {
		return &AssetReserve{Base: baseAssetReserve, Quote: quoteAssetReserve}, nil
	}

	spreadFraction := spread / 2
	if spreadFraction == 0 {
		spreadFraction = utils.TT[int64](spread > 0, 1, -1)
	}
	divisor := utils.DivX(constants.BID_ASK_SPREAD_PRECISION, utils.BN(spreadFraction))
	if divisor.Sign() == 0 {
		return nil, errors.WrapPrefix(ErrDivideByZero, "spread exceeds precision", 0)
	}
	quoteAssetReserveDelta := utils.DivX(quoteAssetReserve, divisor)
	newQuoteAssetReserve := utils.AddX(quoteAssetReserve, quoteAssetReserveDelta)
	if newQuoteAssetReserve.Sign() <= 0 {
		return nil, errors.WrapPrefix(ErrReserveBreach, "quote reserve after spread", 0)
	}

	sqrtK := utils.BigUint128(amm.SqrtK)
	return &AssetReserve{
		Base:  utils.DivX(utils.MulX(sqrtK, sqrtK), newQuoteAssetReserve),
		Quote: newQuoteAssetReserve,
	}, nil
}

// CalculateSpreadReserves applies the amm's stored long and short spreads
// and returns the bid and ask reserves.
func CalculateSpreadReserves(amm *drift.AMM) (*AssetReserve, *AssetReserve, error) {
	if err := ValidateAmm(amm); err != nil {
		return nil, nil, err
	}
	askReserves, err := calculateSpreadReserve(int64(amm.LongSpread), amm)
	if err != nil {
		return nil, nil, err
	}
	bidReserves, err := calculateSpreadReserve(-int64(amm.ShortSpread), amm)
	if err != nil {
		return nil, nil, err
	}
	return bidReserves, askReserves, nil
}

func CalculateBidAskPrice(amm *drift.AMM) (*big.Int, *big.Int, error) {
	bidReserves, askReserves, err := CalculateSpreadReserves(amm)
	if err != nil {
		return nil, nil, err
	}
	peg := utils.BigUint128(amm.PegMultiplier)

	askPrice := utils.Max(utils.BN(1), CalculatePrice(askReserves.Base, askReserves.Quote, peg))
	bidPrice := utils.Max(utils.BN(1), CalculatePrice(bidReserves.Base, bidReserves.Quote, peg))
	return bidPrice, askPrice, nil
}

// CalculateAmmReservesAfterSwap returns the new quote and base reserves.
func CalculateAmmReservesAfterSwap(
	amm *drift.AMM,
	inputAssetType drift.AssetType,
	swapAmount *big.Int,
	swapDirection drift.SwapDirection,
) (*big.Int, *big.Int, error) {
	if swapAmount.Sign() < 0 {
		return nil, nil, errors.WrapPrefix(ErrInvalidSwap, "negative swap amount", 0)
	}
	if err := ValidateAmm(amm); err != nil {
		return nil, nil, err
	}
	sqrtK := utils.BigUint128(amm.SqrtK)
	invariant := utils.MulX(sqrtK, sqrtK)

	if inputAssetType == drift.AssetType_Quote {
		swapAmount = utils.DivX(
			utils.MulX(swapAmount, constants.AMM_TIMES_PEG_TO_QUOTE_PRECISION_RATIO),
			utils.BigUint128(amm.PegMultiplier),
		)
		newQuoteAssetReserve, newBaseAssetReserve, err := CalculateSwapOutput(
			utils.BigUint128(amm.QuoteAssetReserve),
			swapAmount,
			swapDirection,
			invariant,
		)
		return newQuoteAssetReserve, newBaseAssetReserve, err
	}

	newBaseAssetReserve, newQuoteAssetReserve, err := CalculateSwapOutput(
		utils.BigUint128(amm.BaseAssetReserve),
		swapAmount,
		swapDirection,
		invariant,
	)
	return newQuoteAssetReserve, newBaseAssetReserve, err
}

// CalculateSwapOutput is the constant product step. It is agnostic to
// whether the input asset is quote or base.
func CalculateSwapOutput(
	inputAssetReserve *big.Int,
	swapAmount *big.Int,
	swapDirection drift.SwapDirection,
	invariant *big.Int,
) (*big.Int, *big.Int, error) {
	var newInputAssetReserve *big.Int
	if swapDirection == drift.SwapDirection_Add {
		newInputAssetReserve = utils.AddX(inputAssetReserve, swapAmount)
	} else {
		newInputAssetReserve = utils.SubX(inputAssetReserve, swapAmount)
	}
	if newInputAssetReserve.Sign() <= 0 {
		return nil, nil, errors.WrapPrefix(ErrReserveBreach, "input reserve exhausted", 0)
	}
	newOutputAssetReserve := utils.DivX(invariant, newInputAssetReserve)
	return newInputAssetReserve, newOutputAssetReserve, nil
}

func GetSwapDirection(
	inputAssetType drift.AssetType,
	positionDirection drift.PositionDirection,
) drift.SwapDirection {
	if positionDirection == drift.PositionDirection_Long && inputAssetType == drift.AssetType_Base {
		return drift.SwapDirection_Remove
	}
	if positionDirection == drift.PositionDirection_Short && inputAssetType == drift.AssetType_Quote {
		return drift.SwapDirection_Remove
	}
	return drift.SwapDirection_Add
}

func CalculateMarketOpenBidAsk(
	baseAssetReserve *big.Int,
	minBaseAssetReserve *big.Int,
	maxBaseAssetReserve *big.Int,
	stepSize *big.Int,
) (*big.Int, *big.Int) {
	openAsks := utils.BN(0)
	if minBaseAssetReserve.Cmp(baseAssetReserve) < 0 {
		openAsks = utils.SubX(minBaseAssetReserve, baseAssetReserve)
		if stepSize != nil && utils.DivX(utils.AbsX(openAsks), utils.BN(2)).Cmp(stepSize) < 0 {
			openAsks = utils.BN(0)
		}
	}

	openBids := utils.BN(0)
	if maxBaseAssetReserve.Cmp(baseAssetReserve) > 0 {
		openBids = utils.SubX(maxBaseAssetReserve, baseAssetReserve)
		if stepSize != nil && utils.DivX(openBids, utils.BN(2)).Cmp(stepSize) < 0 {
			openBids = utils.BN(0)
		}
	}

	return openBids, openAsks
}

func CalculateQuoteAssetAmountSwapped(
	quoteAssetReserves *big.Int,
	pegMultiplier *big.Int,
	swapDirection drift.SwapDirection,
) *big.Int {
	if swapDirection == drift.SwapDirection_Remove {
		quoteAssetReserves = utils.AddX(quoteAssetReserves, utils.BN(1))
	}

	quoteAssetAmount := utils.DivX(
		utils.MulX(quoteAssetReserves, pegMultiplier),
		constants.AMM_TIMES_PEG_TO_QUOTE_PRECISION_RATIO,
	)

	if swapDirection == drift.SwapDirection_Remove {
		quoteAssetAmount = utils.AddX(quoteAssetAmount, utils.BN(1))
	}
	return quoteAssetAmount
}

func CalculateMaxBaseAssetAmountFillable(
	amm *drift.AMM,
	orderDirection drift.PositionDirection,
) *big.Int {
	baseAssetReserve := utils.BigUint128(amm.BaseAssetReserve)
	maxFillSize := utils.IntX(baseAssetReserve)
	if amm.MaxFillReserveFraction > 0 {
		maxFillSize = utils.DivX(baseAssetReserve, utils.BN(amm.MaxFillReserveFraction))
	}
	var maxBaseAssetAmountOnSide *big.Int
	if orderDirection == drift.PositionDirection_Long {
		maxBaseAssetAmountOnSide = utils.Max(
			utils.BN(0),
			utils.SubX(baseAssetReserve, utils.BigUint128(amm.MinBaseAssetReserve)),
		)
	} else {
		maxBaseAssetAmountOnSide = utils.Max(
			utils.BN(0),
			utils.SubX(utils.BigUint128(amm.MaxBaseAssetReserve), baseAssetReserve),
		)
	}
	return StandardizeBaseAssetAmount(
		utils.Min(maxFillSize, maxBaseAssetAmountOnSide),
		utils.BN(amm.OrderStepSize),
	)
}
