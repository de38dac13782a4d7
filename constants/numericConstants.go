package constants

import "math/big"

var (
	ZERO = big.NewInt(0)
	ONE  = big.NewInt(1)
	TWO  = big.NewInt(2)
	TEN  = big.NewInt(10)

	PERCENTAGE_PRECISION_EXP = big.NewInt(6)
	PERCENTAGE_PRECISION     = big.NewInt(1_000_000)

	PRICE_PRECISION_EXP = big.NewInt(6)
	PRICE_PRECISION     = big.NewInt(1_000_000)

	QUOTE_PRECISION_EXP = big.NewInt(6)
	QUOTE_PRECISION     = big.NewInt(1_000_000)

	BASE_PRECISION_EXP = big.NewInt(9)
	BASE_PRECISION     = big.NewInt(1_000_000_000)

	PEG_PRECISION_EXP = big.NewInt(6)
	PEG_PRECISION     = big.NewInt(1_000_000)

	AMM_RESERVE_PRECISION_EXP = big.NewInt(9)
	AMM_RESERVE_PRECISION     = big.NewInt(1_000_000_000)

	BID_ASK_SPREAD_PRECISION = big.NewInt(1_000_000)

	// AMM_RESERVE_PRECISION / QUOTE_PRECISION
	AMM_TO_QUOTE_PRECISION_RATIO = big.NewInt(1_000)
	// AMM_RESERVE_PRECISION * PEG_PRECISION / QUOTE_PRECISION
	AMM_TIMES_PEG_TO_QUOTE_PRECISION_RATIO = big.NewInt(1_000_000_000)

	FEE_ADJUSTMENT_DENOMINATOR = big.NewInt(100)
)

const (
	DEFAULT_EXPIRY_BUFFER_SECONDS       int64 = 15
	DEFAULT_LIMIT_EXPIRY_BUFFER_SECONDS int64 = 25
	MAX_USER_ORDERS                           = 32
)

var DEFAULT_REVENUE_SINCE_LAST_FUNDING_SPREAD_RETREAT = new(big.Int).Mul(big.NewInt(-25), QUOTE_PRECISION)
