package simulation

import (
	"testing"

	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrchestrator() *Orchestrator {
	cfg := config.Config{}
	cfg.Simulation = config.SimulationConfig{PositionSize: 1000, MaxHoldingBars: 48, MinCandles: 30}
	cfg.Analysis.Patterns = config.PatternsConfig{WindowSize: 30, ClusterMaxRange: 0.10}
	cfg.Analysis.Regime = config.RegimeConfig{WindowBars: 24, TrendSlopeMin: 0.001, HighVolATR: 3.0, LowVolATR: 0.5}
	cfg.Analysis.Technical = config.TechnicalConfig{RSIPeriod: 14, BBPeriod: 20, MACDFast: 12, MACDSlow: 26, MACDSignal: 9, ATRPeriod: 14}
	return NewOrchestrator(cfg.Analysis, cfg.Simulation)
}

func flatSeries(n int) []*models.Candle {
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 101
		lows[i] = 99
		closes[i] = 100
	}
	return hourlyCandles(highs, lows, closes)
}

func TestRunRejectsEmptyData(t *testing.T) {
	_, err := testOrchestrator().Run("BTCUSDT", 30, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "нет ценовых данных")
}

func TestRunRejectsShortSeries(t *testing.T) {
	_, err := testOrchestrator().Run("BTCUSDT", 30, flatSeries(10), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "недостаточно")
}

// oscillatingSeries чередует цены закрытия, чтобы индикаторы
// на основе приращений были определены
func oscillatingSeries(n int) []*models.Candle {
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 101
		lows[i] = 99
		closes[i] = 100 + 0.5*float64(i%2)
	}
	return hourlyCandles(highs, lows, closes)
}

func TestRunIsDeterministic(t *testing.T) {
	o := testOrchestrator()
	candles := oscillatingSeries(72)
	clusters := []*models.LiquidationCluster{
		{Price: 95, Size: 20_000_000, Type: models.LongLiquidations, Confidence: 0.9},
	}

	first, err := o.Run("BTCUSDT", 3, candles, clusters)
	require.NoError(t, err)
	second, err := o.Run("BTCUSDT", 3, candles, clusters)
	require.NoError(t, err)

	// Все поля, кроме отметки времени и длительности обработки,
	// совпадают между прогонами на одних и тех же данных
	assert.Equal(t, first.Patterns, second.Patterns)
	assert.Equal(t, first.LongAnalysis, second.LongAnalysis)
	assert.Equal(t, first.ShortAnalysis, second.ShortAnalysis)
	assert.Equal(t, first.Overall, second.Overall)
	assert.Equal(t, first.Conditions, second.Conditions)
	assert.Equal(t, first.Indicators, second.Indicators)
	assert.Equal(t, first.Report, second.Report)
}

func TestRunProducesSelfContainedResult(t *testing.T) {
	o := testOrchestrator()
	result, err := o.Run("BTCUSDT", 3, oscillatingSeries(72), nil)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", result.Symbol)
	assert.Equal(t, 3, result.LookbackDays)
	require.NotNil(t, result.LongAnalysis)
	require.NotNil(t, result.ShortAnalysis)
	assert.NotEmpty(t, result.Overall.Recommendation)
	assert.NotEmpty(t, result.Conditions)
	assert.InDelta(t, 100.5, result.Indicators.LastClose, 1e-9)
	assert.False(t, result.GeneratedAt.IsZero())
	assert.Equal(t, "BTCUSDT", result.Report["symbol"])

	// Полнота ряда: 72 часовых бара ровно покрывают 3 дня
	assert.InDelta(t, 1.0, result.Summary.DataQuality, 1e-9)
}

func TestCombineAnalysesRecommendationBuckets(t *testing.T) {
	analysis := func(total, wins int) *models.WinRatioAnalysis {
		wr := 0.0
		if total > 0 {
			wr = float64(wins) / float64(total)
		}
		return &models.WinRatioAnalysis{TotalTrades: total, WinningTrades: wins, WinRatio: wr}
	}
	empty := analysis(0, 0)

	// Порядок проверки ветвей фиксирован: favorable, moderate,
	// insufficient_data, unfavorable
	overall := combineAnalyses(analysis(21, 14), empty, 5, 30)
	assert.Equal(t, models.RecommendationFavorable, overall.Recommendation)

	overall = combineAnalyses(analysis(12, 7), empty, 5, 30)
	assert.Equal(t, models.RecommendationModerate, overall.Recommendation)

	overall = combineAnalyses(analysis(8, 5), empty, 5, 30)
	assert.Equal(t, models.RecommendationInsufficient, overall.Recommendation)

	overall = combineAnalyses(analysis(15, 5), empty, 5, 30)
	assert.Equal(t, models.RecommendationUnfavorable, overall.Recommendation)
}

func TestCombineAnalysesBestDirection(t *testing.T) {
	long := &models.WinRatioAnalysis{TotalTrades: 10, WinningTrades: 6, WinRatio: 0.6}
	short := &models.WinRatioAnalysis{TotalTrades: 10, WinningTrades: 4, WinRatio: 0.4}

	overall := combineAnalyses(long, short, 4, 2)
	assert.Equal(t, models.Long, overall.BestDirection)
	assert.InDelta(t, 0.2, overall.DirectionAdvantage, 1e-9)
	assert.Equal(t, 20, overall.TotalTrades)
	assert.InDelta(t, 0.5, overall.WinRatio, 1e-9)
	assert.InDelta(t, 2.0, overall.PatternsPerDay, 1e-9)

	// Равенство сторон не дает направления
	overall = combineAnalyses(long, long, 4, 2)
	assert.Equal(t, models.NoDirection, overall.BestDirection)
	assert.Zero(t, overall.DirectionAdvantage)
}

func TestDataQuality(t *testing.T) {
	assert.InDelta(t, 0.5, dataQuality(flatSeries(36), 3), 1e-9)
	assert.InDelta(t, 1.0, dataQuality(flatSeries(100), 3), 1e-9, "полнота обрезается единицей")
	assert.Zero(t, dataQuality(nil, 3))
	assert.Zero(t, dataQuality(flatSeries(10), 0))
}
