package utils

import (
	"encoding/binary"
	"math/big"

	bin "github.com/gagliardetto/binary"
)

var two64 = new(big.Int).Lsh(big.NewInt(1), 64)

func IntX(x *big.Int) *big.Int {
	z := big.NewInt(0)
	return z.Set(x)
}

func AddX(x *big.Int, y ...*big.Int) *big.Int {
	z := big.NewInt(0)
	z.Set(x)
	for _, v := range y {
		z = z.Add(z, v)
	}
	return z
}

func SubX(x *big.Int, y ...*big.Int) *big.Int {
	z := big.NewInt(0)
	z.Set(x)
	for _, v := range y {
		z = z.Sub(z, v)
	}
	return z
}

func MulX(x *big.Int, y ...*big.Int) *big.Int {
	z := big.NewInt(0)
	z.Set(x)
	for _, v := range y {
		z = z.Mul(z, v)
	}
	return z
}

// DivX truncates toward zero like the on-chain integer math.
func DivX(x *big.Int, y ...*big.Int) *big.Int {
	z := big.NewInt(0)
	z.Set(x)
	for _, v := range y {
		z = z.Quo(z, v)
	}
	return z
}

func ModX(x, y *big.Int) *big.Int {
	z := big.NewInt(0)
	z.Set(x)
	return z.Rem(z, y)
}

func AbsX(x *big.Int) *big.Int {
	z := big.NewInt(0)
	return z.Abs(x)
}

func Min(x *big.Int, y ...*big.Int) *big.Int {
	minValue := x
	for _, v := range y {
		if minValue.Cmp(v) > 0 {
			minValue = v
		}
	}
	return minValue
}

func Max(x *big.Int, y ...*big.Int) *big.Int {
	maxValue := x
	for _, v := range y {
		if maxValue.Cmp(v) < 0 {
			maxValue = v
		}
	}
	return maxValue
}

func BN[T int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64](x T) *big.Int {
	if x < 0 {
		return big.NewInt(int64(x))
	}
	return new(big.Int).SetUint64(uint64(x))
}

func Uint128(x *big.Int) (u bin.Uint128) {
	if x.Sign() < 0 {
		panic("value cannot be negative")
	} else if x.BitLen() > 128 {
		panic("value overflows Uint128")
	}
	u.Lo = new(big.Int).And(x, new(big.Int).Sub(two64, big.NewInt(1))).Uint64()
	u.Hi = new(big.Int).Rsh(x, 64).Uint64()
	u.Endianness = binary.LittleEndian
	return u
}

// Int128 stores x in two's complement.
func Int128(x *big.Int) (u bin.Int128) {
	if x.BitLen() > 127 {
		panic("value overflows Int128")
	}
	v := IntX(x)
	if v.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	u.Lo = new(big.Int).And(v, new(big.Int).Sub(two64, big.NewInt(1))).Uint64()
	u.Hi = new(big.Int).Rsh(v, 64).Uint64()
	u.Endianness = binary.LittleEndian
	return u
}

func BigUint128(u bin.Uint128) *big.Int {
	z := new(big.Int).SetUint64(u.Hi)
	z.Lsh(z, 64)
	return z.Or(z, new(big.Int).SetUint64(u.Lo))
}

func BigInt128(u bin.Int128) *big.Int {
	z := BigUint128(bin.Uint128(u))
	if u.Hi>>63 == 1 {
		z.Sub(z, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return z
}
