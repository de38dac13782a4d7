package drift

import "github.com/gagliardetto/solana-go"

type OrderRecord struct {
	Ts    int64
	User  solana.PublicKey
	Order Order
}

type OrderActionRecord struct {
	Ts                                        int64
	Action                                    OrderAction
	MarketIndex                               uint16
	MarketType                                MarketType
	Taker                                     *solana.PublicKey
	TakerOrderId                              *uint32
	TakerOrderCumulativeBaseAssetAmountFilled *uint64
	Maker                                     *solana.PublicKey
	MakerOrderId                              *uint32
	MakerOrderCumulativeBaseAssetAmountFilled *uint64
	OraclePrice                               int64
}
