package models

import (
	"time"
)

// Candle представляет свечу
type Candle struct {
	Symbol    string
	Interval  string
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// ClusterType тип кластера ликвидаций
type ClusterType string

const (
	LongLiquidations  ClusterType = "long_liquidations"
	ShortLiquidations ClusterType = "short_liquidations"
)

// LiquidationCluster представляет ценовую зону концентрации ликвидаций
type LiquidationCluster struct {
	Price      float64
	Size       float64
	Type       ClusterType
	Confidence float64
}

// Direction направление паттерна
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// TradeDirection направление симулируемой сделки
type TradeDirection string

const (
	Long  TradeDirection = "long"
	Short TradeDirection = "short"
	// NoDirection используется в итоговых метриках при равенстве сторон
	NoDirection TradeDirection = "neutral"
)

// ExitReason причина закрытия сделки
type ExitReason string

const (
	ExitTargetHit ExitReason = "target_hit"
	ExitStopLoss  ExitReason = "stop_loss"
	ExitTime      ExitReason = "time_exit"
)

// RegimeKind вид рыночного режима
type RegimeKind string

const (
	RegimeTrendingUp     RegimeKind = "trending_up"
	RegimeTrendingDown   RegimeKind = "trending_down"
	RegimeRanging        RegimeKind = "ranging"
	RegimeHighVolatility RegimeKind = "high_volatility"
	RegimeLowVolatility  RegimeKind = "low_volatility"
	RegimeBreakout       RegimeKind = "breakout"
	RegimeBreakdown      RegimeKind = "breakdown"
)

// MarketCondition представляет размеченное окно рыночного режима.
// После создания не изменяется.
type MarketCondition struct {
	Regime          RegimeKind
	Start           time.Time
	End             time.Time
	Volatility      float64
	VolumeProfile   string
	DominantPattern PatternKind
	Confidence      float64
}
