package types

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/constants"
	"github.com/aoikurokawa/flashlight-sub000/math"
	"github.com/aoikurokawa/flashlight-sub000/utils"
)

type LiquiditySource string

const (
	LiquiditySourceSerum   LiquiditySource = "serum"
	LiquiditySourceVamm    LiquiditySource = "vamm"
	LiquiditySourceDlob    LiquiditySource = "dlob"
	LiquiditySourcePhoenix LiquiditySource = "phoenix"
)

type L2Level struct {
	Price   *big.Int
	Size    *big.Int
	Sources map[LiquiditySource]*big.Int
}

type L2OrderBook struct {
	Asks []*L2Level
	Bids []*L2Level
	Slot uint64
}

// L2OrderBookGenerator produces restartable level streams: every call
// returns a fresh generator. Asks ascend and bids descend by price.
type L2OrderBookGenerator struct {
	GetL2Asks func() *common.Generator[*L2Level, int]
	GetL2Bids func() *common.Generator[*L2Level, int]
}

type L3Level struct {
	Price   *big.Int
	Size    *big.Int
	Maker   solana.PublicKey
	OrderId uint32
}

type L3OrderBook struct {
	Asks []*L3Level
	Bids []*L3Level
	Slot uint64
}

var DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS = []*big.Int{
	utils.MulX(utils.BN(500), constants.QUOTE_PRECISION),
	utils.MulX(utils.BN(1000), constants.QUOTE_PRECISION),
	utils.MulX(utils.BN(2000), constants.QUOTE_PRECISION),
	utils.MulX(utils.BN(5000), constants.QUOTE_PRECISION),
}

func (p *L2Level) String() string {
	sources := make([]string, 0, len(p.Sources))
	for source, size := range p.Sources {
		sources = append(sources, fmt.Sprintf("%s:%s", source, math.ConvertBaseAmount(size).String()))
	}
	sort.Strings(sources)
	return fmt.Sprintf("%s x %s [%s]",
		math.ConvertPrice(p.Price).String(),
		math.ConvertBaseAmount(p.Size).String(),
		strings.Join(sources, " "),
	)
}

// Summary renders the book top down, asks first.
func (p *L2OrderBook) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "slot %d\n", p.Slot)
	for idx := len(p.Asks) - 1; idx >= 0; idx-- {
		fmt.Fprintf(&sb, "ask %s\n", p.Asks[idx].String())
	}
	for _, bid := range p.Bids {
		fmt.Fprintf(&sb, "bid %s\n", bid.String())
	}
	return sb.String()
}

func (p *L2OrderBook) BestBid() *L2Level {
	if len(p.Bids) == 0 {
		return nil
	}
	return p.Bids[0]
}

func (p *L2OrderBook) BestAsk() *L2Level {
	if len(p.Asks) == 0 {
		return nil
	}
	return p.Asks[0]
}

func (p *L3Level) String() string {
	return fmt.Sprintf("%s x %s %s #%d",
		math.ConvertPrice(p.Price).String(),
		math.ConvertBaseAmount(p.Size).String(),
		p.Maker.String(),
		p.OrderId,
	)
}
