package math

import (
	"math/big"

	"github.com/aoikurokawa/flashlight-sub000/constants"
	"github.com/aoikurokawa/flashlight-sub000/utils"
	"github.com/shopspring/decimal"
)

func ConvertToNumber(bigNumber *big.Int, precision ...*big.Int) int64 {
	if bigNumber == nil {
		return 0
	}
	precisionx := constants.PRICE_PRECISION
	if len(precision) > 0 {
		precisionx = precision[0]
	}
	return utils.DivX(bigNumber, precisionx).Int64()
}

// ConvertToDecimal scales a fixed-point integer by its precision exponent,
// e.g. ConvertToDecimal(p, 6) for PRICE_PRECISION values.
func ConvertToDecimal(bigNumber *big.Int, precisionExp int32) decimal.Decimal {
	if bigNumber == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(bigNumber, -precisionExp)
}

func ConvertPrice(price *big.Int) decimal.Decimal {
	return ConvertToDecimal(price, int32(constants.PRICE_PRECISION_EXP.Int64()))
}

func ConvertBaseAmount(base *big.Int) decimal.Decimal {
	return ConvertToDecimal(base, int32(constants.BASE_PRECISION_EXP.Int64()))
}
