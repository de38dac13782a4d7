package drift

type OrderStatus uint8

const (
	OrderStatus_Init OrderStatus = iota
	OrderStatus_Open
	OrderStatus_Filled
	OrderStatus_Canceled
)

func (value OrderStatus) String() string {
	switch value {
	case OrderStatus_Init:
		return "Init"
	case OrderStatus_Open:
		return "Open"
	case OrderStatus_Filled:
		return "Filled"
	case OrderStatus_Canceled:
		return "Canceled"
	default:
		return ""
	}
}

type OrderType uint8

const (
	OrderType_Market OrderType = iota
	OrderType_Limit
	OrderType_TriggerMarket
	OrderType_TriggerLimit
	OrderType_Oracle
)

func (value OrderType) String() string {
	switch value {
	case OrderType_Market:
		return "Market"
	case OrderType_Limit:
		return "Limit"
	case OrderType_TriggerMarket:
		return "TriggerMarket"
	case OrderType_TriggerLimit:
		return "TriggerLimit"
	case OrderType_Oracle:
		return "Oracle"
	default:
		return ""
	}
}

type MarketType uint8

const (
	MarketType_Spot MarketType = iota
	MarketType_Perp
)

func (value MarketType) String() string {
	switch value {
	case MarketType_Spot:
		return "Spot"
	case MarketType_Perp:
		return "Perp"
	default:
		return ""
	}
}

type PositionDirection uint8

const (
	PositionDirection_Long PositionDirection = iota
	PositionDirection_Short
)

func (value PositionDirection) String() string {
	switch value {
	case PositionDirection_Long:
		return "Long"
	case PositionDirection_Short:
		return "Short"
	default:
		return ""
	}
}

type OrderTriggerCondition uint8

const (
	OrderTriggerCondition_Above OrderTriggerCondition = iota
	OrderTriggerCondition_Below
	OrderTriggerCondition_TriggeredAbove
	OrderTriggerCondition_TriggeredBelow
)

func (value OrderTriggerCondition) String() string {
	switch value {
	case OrderTriggerCondition_Above:
		return "Above"
	case OrderTriggerCondition_Below:
		return "Below"
	case OrderTriggerCondition_TriggeredAbove:
		return "TriggeredAbove"
	case OrderTriggerCondition_TriggeredBelow:
		return "TriggeredBelow"
	default:
		return ""
	}
}

type SpotBalanceType uint8

const (
	SpotBalanceType_Deposit SpotBalanceType = iota
	SpotBalanceType_Borrow
)

type ContractTier uint8

const (
	ContractTier_A ContractTier = iota
	ContractTier_B
	ContractTier_C
	ContractTier_Speculative
	ContractTier_HighlySpeculative
	ContractTier_Isolated
)

type OrderAction uint8

const (
	OrderAction_Place OrderAction = iota
	OrderAction_Cancel
	OrderAction_Fill
	OrderAction_Trigger
	OrderAction_Expire
)

// ExchangeStatus bit flags. Zero means active.
type ExchangeStatus uint8

const (
	ExchangeStatus_Active          ExchangeStatus = 0
	ExchangeStatus_DepositPaused   ExchangeStatus = 1
	ExchangeStatus_WithdrawPaused  ExchangeStatus = 2
	ExchangeStatus_AmmPaused       ExchangeStatus = 4
	ExchangeStatus_FillPaused      ExchangeStatus = 8
	ExchangeStatus_LiqPaused       ExchangeStatus = 16
	ExchangeStatus_FundingPaused   ExchangeStatus = 32
	ExchangeStatus_SettlePnlPaused ExchangeStatus = 64
)

type PerpOperation uint8

const (
	PerpOperation_UpdateFunding         PerpOperation = 1
	PerpOperation_AmmFill               PerpOperation = 2
	PerpOperation_Fill                  PerpOperation = 4
	PerpOperation_SettlePnl             PerpOperation = 8
	PerpOperation_SettlePnlWithPosition PerpOperation = 16
	PerpOperation_Liquidation           PerpOperation = 32
)

type SpotOperation uint8

const (
	SpotOperation_UpdateCumulativeInterest SpotOperation = 1
	SpotOperation_Fill                     SpotOperation = 2
	SpotOperation_Deposit                  SpotOperation = 4
	SpotOperation_Withdraw                 SpotOperation = 8
	SpotOperation_Liquidation              SpotOperation = 16
)

type AssetType uint8

const (
	AssetType_Quote AssetType = iota
	AssetType_Base
)

type SwapDirection uint8

const (
	SwapDirection_Add SwapDirection = iota
	SwapDirection_Remove
)
