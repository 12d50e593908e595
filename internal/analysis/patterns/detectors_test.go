package patterns

import (
	"math/rand"
	"testing"

	"github.com/skalibog/bpsa/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shapedCandles строит ряд с базовым уровнем и точечными выбросами максимумов
func shapedCandles(n int, base float64, spikes map[int]float64) []*models.Candle {
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
		if spike, ok := spikes[i]; ok {
			highs[i] = spike
			closes[i] = spike - 1
		}
	}
	return seriesCandles(highs, lows, closes, nil)
}

func TestHeadShouldersOnSyntheticShape(t *testing.T) {
	// Плечи на 105, голова на 110, базовый уровень 100
	candles := shapedCandles(30, 100, map[int]float64{8: 105, 15: 110, 22: 105})

	matches, err := NewHeadShouldersDetector(30).Detect(candles, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, models.HeadAndShoulders, m.Kind)
	assert.Equal(t, models.Bearish, m.Direction)
	assert.Equal(t, candles[15].OpenTime, m.Timestamp)
	assert.InDelta(t, 110.0, m.PriceLevel, 1e-9)
	assert.InDelta(t, 110*0.95, m.TargetPrice, 1e-9)
	assert.InDelta(t, 110*1.02, m.StopLoss, 1e-9)
	assert.InDelta(t, 0.8, m.Confidence, 1e-9)
}

func TestDoubleTopOnSyntheticShape(t *testing.T) {
	// Две вершины на 110 с откатом к базовому уровню между ними
	candles := shapedCandles(50, 100, map[int]float64{15: 110, 35: 110})

	matches, err := NewDoubleTopDetector().Detect(candles, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, models.DoubleTop, m.Kind)
	assert.Equal(t, models.Bearish, m.Direction)
	assert.Equal(t, candles[35].OpenTime, m.Timestamp)
	assert.InDelta(t, 110.0, m.PriceLevel, 1e-9)
	assert.InDelta(t, 0.65, m.Confidence, 1e-9)
}

func TestDoubleTopRequiresRetracement(t *testing.T) {
	// Вершины есть, но откат между ними меньше 5%
	n := 50
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 108
		lows[i] = 107
		closes[i] = 107.5
		if i == 15 || i == 35 {
			highs[i] = 110
		}
	}
	candles := seriesCandles(highs, lows, closes, nil)

	matches, err := NewDoubleTopDetector().Detect(candles, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDoubleExtremesOnPlateau(t *testing.T) {
	// Плато: равные максимумы делают соседние бары экстремумами,
	// между смежными парами нет баров для отката
	candles := flatCandles(40, 100)

	tops, err := NewDoubleTopDetector().Detect(candles, nil)
	require.NoError(t, err)
	assert.Empty(t, tops)

	bottoms, err := NewDoubleBottomDetector().Detect(candles, nil)
	require.NoError(t, err)
	assert.Empty(t, bottoms)
}

// zigzagCandles строит пилообразный ряд с периодом 6 баров: качелей
// достаточно, но высота вершин чередуется, и регрессия по ним не
// проходит порог корреляции
func zigzagCandles(n int, seed int64) []*models.Candle {
	rng := rand.New(rand.NewSource(seed))

	amps := make([]float64, n/6+1)
	for c := range amps {
		amps[c] = 3.0
		if c%2 == 1 {
			amps[c] = 6.0
		}
		amps[c] += rng.Float64()*0.4 - 0.2
	}

	wave := []float64{0, 0.5, 1, 0.5, 0, 0}
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		amp := amps[i/6]
		highs[i] = 100 + wave[i%6]*amp
		lows[i] = 100 - wave[i%6]*amp
		closes[i] = 100
	}
	return seriesCandles(highs, lows, closes, nil)
}

func TestTrianglesRejectUncorrelatedSwings(t *testing.T) {
	candles := zigzagCandles(60, 7)

	// Качелей хватает для построения линий, отказ идет по корреляции
	highs := highsOf(candles)
	lows := lowsOf(candles)
	peaks, troughs := collectSwings(highs, lows, 0, 30)
	require.GreaterOrEqual(t, len(peaks), 3)
	require.GreaterOrEqual(t, len(troughs), 3)

	_, _, ok := trendlines(highs, lows, 0, 30)
	assert.False(t, ok)

	triangles, err := NewTriangleDetector(30).Detect(candles, nil)
	require.NoError(t, err)
	assert.Empty(t, triangles)

	wedges, err := NewWedgeDetector(30).Detect(candles, nil)
	require.NoError(t, err)
	assert.Empty(t, wedges)
}

func TestTrianglesAbsentOnMonotoneSeries(t *testing.T) {
	// Монотонный рост не оставляет внутренних локальных экстремумов,
	// линии тренда не строятся
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + float64(i)
		highs[i] = closes[i] + 0.5
		lows[i] = closes[i] - 0.5
	}
	candles := seriesCandles(highs, lows, closes, nil)

	triangles, err := NewTriangleDetector(30).Detect(candles, nil)
	require.NoError(t, err)
	assert.Empty(t, triangles)

	wedges, err := NewWedgeDetector(30).Detect(candles, nil)
	require.NoError(t, err)
	assert.Empty(t, wedges)
}

func TestBreakoutAfterConsolidation(t *testing.T) {
	// 20 баров узкой консолидации, затем закрытие выше границы на 2%
	n := 25
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 101
		lows[i] = 100
		closes[i] = 100.5
		volumes[i] = 10
	}
	for i := 20; i < n; i++ {
		highs[i] = 104
		lows[i] = 103
		closes[i] = 103.5
		volumes[i] = 20
	}
	candles := seriesCandles(highs, lows, closes, volumes)

	matches, err := NewBreakoutDetector().Detect(candles, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, models.Breakout, m.Kind)
	assert.Equal(t, models.Bullish, m.Direction)
	assert.Equal(t, candles[20].OpenTime, m.Timestamp)
	// Объем пробоя вдвое выше среднего - бонус к уверенности
	assert.InDelta(t, 0.75, m.Confidence, 1e-9)
	assert.InDelta(t, 102.0, m.TargetPrice, 1e-9)
	assert.InDelta(t, 100.0, m.StopLoss, 1e-9)
}

func TestBullFlagAfterPole(t *testing.T) {
	// Флагшток +10% за 15 баров, затем узкое полотно
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < 15; i++ {
		closes[i] = 100 + float64(i)*10.0/14.0
		highs[i] = closes[i] + 0.3
		lows[i] = closes[i] - 0.3
	}
	for i := 15; i < n; i++ {
		closes[i] = 110
		highs[i] = 110.5
		lows[i] = 109.5
	}
	candles := seriesCandles(highs, lows, closes, nil)

	matches, err := NewFlagDetector().Detect(candles, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, models.BullFlag, m.Kind)
	assert.Equal(t, models.Bullish, m.Direction)
	// Движение больше 8% дает бонус
	assert.InDelta(t, 0.7, m.Confidence, 1e-9)
	assert.InDelta(t, 110*1.10, m.TargetPrice, 1e-6)
	assert.InDelta(t, 109.5, m.StopLoss, 1e-9)
}

func TestLevelsOnFlatSeries(t *testing.T) {
	// Ровный ряд: каждый бар касается и поддержки, и сопротивления
	candles := flatCandles(40, 100)

	matches, err := NewLevelDetector().Detect(candles, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	byKind := map[models.PatternKind]*models.PatternMatch{}
	for _, m := range matches {
		byKind[m.Kind] = m
	}

	resistance := byKind[models.Resistance]
	require.NotNil(t, resistance)
	assert.Equal(t, models.Bearish, resistance.Direction)
	assert.InDelta(t, 101.0, resistance.PriceLevel, 1e-9)
	assert.InDelta(t, 0.8, resistance.Confidence, 1e-9)

	support := byKind[models.Support]
	require.NotNil(t, support)
	assert.Equal(t, models.Bullish, support.Direction)
	assert.InDelta(t, 99.0, support.PriceLevel, 1e-9)
}

func TestClusterDetectorConfidence(t *testing.T) {
	candles := flatCandles(3, 100)
	clusters := []*models.LiquidationCluster{
		{Price: 98, Size: 50_000_000, Type: models.LongLiquidations, Confidence: 1},
	}

	matches, err := NewClusterDetector(0.10).Detect(candles, clusters)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, models.ClusterPattern, m.Kind)
	assert.Equal(t, models.Bearish, m.Direction)
	// 0.7 базы + 0.2 за размер + 0.1 * (1 - 0.02/0.10) за близость
	assert.InDelta(t, 0.98, m.Confidence, 1e-9)
	assert.InDelta(t, 98.0, m.TargetPrice, 1e-9)
	assert.InDelta(t, 102.0, m.StopLoss, 1e-9)
}

func TestClusterDetectorSides(t *testing.T) {
	candles := flatCandles(3, 100)

	// Кластер коротких выше цены тянет ее вверх
	matches, err := NewClusterDetector(0.10).Detect(candles, []*models.LiquidationCluster{
		{Price: 103, Size: 1_000_000, Type: models.ShortLiquidations},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, models.Bullish, matches[0].Direction)

	// Кластер не по ту сторону цены игнорируется
	matches, err = NewClusterDetector(0.10).Detect(candles, []*models.LiquidationCluster{
		{Price: 103, Size: 1_000_000, Type: models.LongLiquidations},
	})
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Кластер за пределами рабочего диапазона игнорируется
	matches, err = NewClusterDetector(0.10).Detect(candles, []*models.LiquidationCluster{
		{Price: 88, Size: 1_000_000, Type: models.LongLiquidations},
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
