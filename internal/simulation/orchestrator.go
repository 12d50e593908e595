package simulation

import (
	"fmt"
	"math"
	"time"

	"github.com/skalibog/bpsa/internal/analysis/patterns"
	"github.com/skalibog/bpsa/internal/analysis/performance"
	"github.com/skalibog/bpsa/internal/analysis/regime"
	"github.com/skalibog/bpsa/internal/analysis/technical"
	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/logger"
	"github.com/skalibog/bpsa/pkg/models"
	"go.uber.org/zap"
)

// Orchestrator ведет полный прогон симуляции для одного символа:
// распознавание паттернов, воспроизведение сделок по обоим
// направлениям, агрегация статистики и сборка итогового результата.
// Компонент не хранит состояния между прогонами.
type Orchestrator struct {
	simConfig   config.SimulationConfig
	engine      *patterns.Engine
	simulator   *Simulator
	performance *performance.Analyzer
	technical   *technical.Analyzer
	regime      *regime.Analyzer
}

// NewOrchestrator создает оркестратор симуляции
func NewOrchestrator(analysisCfg config.AnalysisConfig, simCfg config.SimulationConfig) *Orchestrator {
	return &Orchestrator{
		simConfig:   simCfg,
		engine:      patterns.NewEngine(analysisCfg.Patterns),
		simulator:   NewSimulator(simCfg),
		performance: performance.NewAnalyzer(),
		technical:   technical.NewAnalyzer(analysisCfg.Technical),
		regime:      regime.NewAnalyzer(analysisCfg.Regime),
	}
}

// Run выполняет один прогон по готовому ценовому ряду. Весь конвейер -
// чистое вычисление в памяти без ввода-вывода; символ без пригодных
// данных - жесткая ошибка, а не деградированный результат.
func (o *Orchestrator) Run(symbol string, lookbackDays int, candles []*models.Candle, clusters []*models.LiquidationCluster) (*models.SimulationResult, error) {
	start := time.Now()

	if len(candles) == 0 {
		return nil, fmt.Errorf("нет ценовых данных для %s", symbol)
	}
	minCandles := o.simConfig.MinCandles
	if minCandles <= 0 {
		minCandles = 30
	}
	if len(candles) < minCandles {
		return nil, fmt.Errorf("недостаточно ценовых данных для %s: %d баров (требуется %d)",
			symbol, len(candles), minCandles)
	}

	// Распознавание выполняется один раз на оба направления
	detected := o.engine.Scan(candles, clusters)
	logger.Debug("Распознавание паттернов завершено",
		zap.String("symbol", symbol),
		zap.Int("patterns", len(detected)))

	longTrades := o.simulateDirection(symbol, models.Long, detected, candles)
	shortTrades := o.simulateDirection(symbol, models.Short, detected, candles)

	longAnalysis := o.performance.Analyze(models.Long, longTrades)
	shortAnalysis := o.performance.Analyze(models.Short, shortTrades)

	overall := combineAnalyses(longAnalysis, shortAnalysis, len(detected), lookbackDays)
	conditions := o.regime.Timeline(candles)
	indicators := o.technical.Snapshot(candles)

	processing := time.Since(start)
	quality := dataQuality(candles, lookbackDays)

	result := &models.SimulationResult{
		Symbol:         symbol,
		LookbackDays:   lookbackDays,
		GeneratedAt:    time.Now(),
		Patterns:       detected,
		LongAnalysis:   longAnalysis,
		ShortAnalysis:  shortAnalysis,
		Overall:        overall,
		Conditions:     conditions,
		Indicators:     indicators,
		Summary:        buildSummary(overall, longAnalysis, shortAnalysis, quality, processing),
		Report:         buildReport(symbol, overall, len(detected)),
		ProcessingTime: processing,
	}

	logger.Info("Симуляция завершена",
		zap.String("symbol", symbol),
		zap.Int("patterns", len(detected)),
		zap.Int("trades", overall.TotalTrades),
		zap.String("recommendation", overall.Recommendation),
		zap.Duration("elapsed", processing))

	return result, nil
}

// simulateDirection воспроизводит сделки заданного направления по
// паттернам совпадающего или нейтрального направления
func (o *Orchestrator) simulateDirection(symbol string, direction models.TradeDirection, detected []*models.PatternMatch, candles []*models.Candle) []*models.SimulationTrade {
	wanted := models.Bullish
	if direction == models.Short {
		wanted = models.Bearish
	}

	var trades []*models.SimulationTrade
	for _, pattern := range detected {
		if pattern.Direction != wanted && pattern.Direction != models.Neutral {
			continue
		}

		signal, entryIdx := GenerateSignal(pattern, candles, symbol, direction)
		if signal == nil {
			continue
		}

		trade, err := o.simulator.Simulate(signal, candles, entryIdx)
		if err != nil {
			logger.Warn("Ошибка симуляции сделки",
				zap.String("symbol", symbol),
				zap.String("pattern", string(pattern.Kind)),
				zap.Error(err))
			continue
		}
		if trade == nil {
			// Сигнал без будущих данных отбрасывается молча
			continue
		}
		trades = append(trades, trade)
	}

	return trades
}

// combineAnalyses собирает объединенные метрики по обоим направлениям
func combineAnalyses(long, short *models.WinRatioAnalysis, patternCount, lookbackDays int) models.OverallMetrics {
	overall := models.OverallMetrics{
		TotalTrades: long.TotalTrades + short.TotalTrades,
	}

	winners := long.WinningTrades + short.WinningTrades
	if overall.TotalTrades > 0 {
		overall.WinRatio = float64(winners) / float64(overall.TotalTrades)
	}

	switch {
	case long.WinRatio > short.WinRatio:
		overall.BestDirection = models.Long
	case short.WinRatio > long.WinRatio:
		overall.BestDirection = models.Short
	default:
		// Равенство сторон не дает направления
		overall.BestDirection = models.NoDirection
	}
	overall.DirectionAdvantage = math.Abs(long.WinRatio - short.WinRatio)

	if lookbackDays > 0 {
		overall.PatternsPerDay = float64(patternCount) / float64(lookbackDays)
	}

	switch {
	case overall.WinRatio >= 0.6 && overall.TotalTrades > 20:
		overall.Recommendation = models.RecommendationFavorable
	case overall.WinRatio >= 0.5 && overall.TotalTrades > 10:
		overall.Recommendation = models.RecommendationModerate
	case overall.TotalTrades < 10:
		overall.Recommendation = models.RecommendationInsufficient
	default:
		overall.Recommendation = models.RecommendationUnfavorable
	}

	return overall
}

// dataQuality оценивает полноту ряда относительно запрошенного окна
func dataQuality(candles []*models.Candle, lookbackDays int) float64 {
	if lookbackDays <= 0 || len(candles) == 0 {
		return 0
	}
	interval := models.IntervalDuration(candles[0].Interval)
	expected := float64(lookbackDays) * 24 * float64(time.Hour) / float64(interval)
	if expected <= 0 {
		return 0
	}
	return math.Min(1, float64(len(candles))/expected)
}

// buildSummary формирует краткую выжимку результата
func buildSummary(overall models.OverallMetrics, long, short *models.WinRatioAnalysis, quality float64, processing time.Duration) models.ExecutiveSummary {
	best := overall.WinRatio
	switch overall.BestDirection {
	case models.Long:
		best = long.WinRatio
	case models.Short:
		best = short.WinRatio
	}

	return models.ExecutiveSummary{
		RecommendedDirection: overall.BestDirection,
		ConfidenceLevel:      fmt.Sprintf("%.1f%%", best*100),
		LongWinRatio:         long.WinRatio,
		ShortWinRatio:        short.WinRatio,
		DataQuality:          quality,
		ProcessingTime:       processing.String(),
	}
}

// buildReport формирует свободную часть отчета
func buildReport(symbol string, overall models.OverallMetrics, patternCount int) map[string]string {
	return map[string]string{
		"symbol":          symbol,
		"recommendation":  overall.Recommendation,
		"best_direction":  string(overall.BestDirection),
		"patterns_found":  fmt.Sprintf("%d", patternCount),
		"total_trades":    fmt.Sprintf("%d", overall.TotalTrades),
		"blended_winrate": fmt.Sprintf("%.4f", overall.WinRatio),
	}
}
