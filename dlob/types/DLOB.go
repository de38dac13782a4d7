package types

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/aoikurokawa/flashlight-sub000/common"
	"github.com/aoikurokawa/flashlight-sub000/lib/drift"
	oracles "github.com/aoikurokawa/flashlight-sub000/oracles/types"
	types2 "github.com/aoikurokawa/flashlight-sub000/types"
)

type IDLOB interface {
	GetRestingLimitBids(
		marketIndex uint16,
		slot uint64,
		marketType drift.MarketType,
		oraclePriceData *oracles.OraclePriceData,
		filterFcn DLOBFilterFcn,
	) *common.Generator[*DLOBNode, int]

	GetRestingLimitAsks(
		marketIndex uint16,
		slot uint64,
		marketType drift.MarketType,
		oraclePriceData *oracles.OraclePriceData,
		filterFcn DLOBFilterFcn,
	) *common.Generator[*DLOBNode, int]

	FindNodesToFill(
		marketIndex uint16,
		fallbackBid *big.Int,
		fallbackAsk *big.Int,
		slot uint64,
		ts int64,
		marketType drift.MarketType,
		oraclePriceData *oracles.OraclePriceData,
		stateAccount *drift.State,
		marketAccount *types2.MarketAccount,
	) []*NodeToFill

	FindNodesToTrigger(
		marketIndex uint16,
		oraclePrice *big.Int,
		marketType drift.MarketType,
		stateAccount *drift.State,
	) []*NodeToTrigger

	HandleOrderRecord(record *drift.OrderRecord, slot uint64)

	HandleOrderActionRecord(record *drift.OrderActionRecord, slot uint64)

	UpdateByUser(userAccount solana.PublicKey, user *drift.User, slot uint64)

	GetBestAsk(uint16, uint64, drift.MarketType, *oracles.OraclePriceData) *big.Int

	GetBestBid(uint16, uint64, drift.MarketType, *oracles.OraclePriceData) *big.Int

	GetBestMakers(uint16, drift.MarketType, drift.PositionDirection, uint64, *oracles.OraclePriceData, int) []solana.PublicKey

	EstimateFillWithExactBaseAmount(
		uint16,
		drift.MarketType,
		*big.Int,
		drift.PositionDirection,
		uint64,
		*oracles.OraclePriceData,
	) *big.Int

	GetL2(params *GetL2Params) *L2OrderBook

	GetL3(params *GetL3Params) *L3OrderBook
}

type GetL2Params struct {
	MarketIndex     uint16
	MarketType      drift.MarketType
	Slot            uint64
	OraclePriceData *oracles.OraclePriceData
	// Depth caps the number of levels per side; <= 0 uses the configured depth.
	Depth                int
	FallbackL2Generators []*L2OrderBookGenerator
	// VammMarket adds the market's AMM as a fallback source when set.
	VammMarket *drift.PerpMarket
}

type GetL3Params struct {
	MarketIndex     uint16
	MarketType      drift.MarketType
	Slot            uint64
	OraclePriceData *oracles.OraclePriceData
}
