package models

import (
	"time"
)

// WinRatioAnalysis представляет агрегированную статистику сделок одного
// направления. Рассчитывается один раз за прогон, далее только читается.
type WinRatioAnalysis struct {
	Direction     TradeDirection
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	WinRatio     float64
	ProfitFactor float64
	AverageWin   float64
	AverageLoss  float64
	TotalPnL     float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	SharpeRatio  float64
	SortinoRatio float64
	MaxDrawdown  float64

	// Двусторонний интервал Уилсона для доли выигрышей
	ConfidenceLow  float64
	ConfidenceHigh float64

	CalmarRatio      float64
	RecoveryFactor   float64
	ProfitToDrawdown float64
}

// IndicatorSnapshot срез технических индикаторов на конец серии
type IndicatorSnapshot struct {
	RSI        float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	ATR        float64
	LastClose  float64
}

// OverallMetrics объединенные метрики по обоим направлениям
type OverallMetrics struct {
	TotalTrades        int
	WinRatio           float64
	BestDirection      TradeDirection
	DirectionAdvantage float64
	PatternsPerDay     float64
	Recommendation     string
}

// Рекомендации по результатам симуляции
const (
	RecommendationFavorable    = "favorable"
	RecommendationModerate     = "moderate"
	RecommendationUnfavorable  = "unfavorable"
	RecommendationInsufficient = "insufficient_data"
)

// ExecutiveSummary краткая выжимка результата для отчетности
type ExecutiveSummary struct {
	RecommendedDirection TradeDirection
	ConfidenceLevel      string
	LongWinRatio         float64
	ShortWinRatio        float64
	DataQuality          float64
	ProcessingTime       string
}

// SimulationResult представляет итог одного прогона оркестратора.
// Самодостаточен: интерпретация не требует внешних справочников.
type SimulationResult struct {
	Symbol       string
	LookbackDays int
	GeneratedAt  time.Time

	Patterns      []*PatternMatch
	LongAnalysis  *WinRatioAnalysis
	ShortAnalysis *WinRatioAnalysis
	Overall       OverallMetrics
	Conditions    []*MarketCondition
	Indicators    IndicatorSnapshot
	Summary       ExecutiveSummary
	Report        map[string]string

	ProcessingTime time.Duration
}
