package math

import (
	"math/big"

	"github.com/go-errors/errors"
)

var (
	ErrInvalidAmm    = errors.Errorf("invalid amm")
	ErrDivideByZero  = errors.Errorf("divide by zero")
	ErrInvalidSwap   = errors.Errorf("invalid swap")
	ErrReserveBreach = errors.Errorf("reserve breached")
)

type AssetReserve struct {
	Base  *big.Int
	Quote *big.Int
}
