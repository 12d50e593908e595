package patterns

import (
	"math"

	"github.com/skalibog/bpsa/pkg/models"
)

// collectSwings возвращает индексы локальных максимумов и минимумов
// окрестности 5 баров внутри [start, end)
func collectSwings(highs, lows []float64, start, end int) (peaks, troughs []int) {
	for i := start; i < end; i++ {
		if isLocalMax(highs, i, 2) {
			peaks = append(peaks, i)
		}
		if isLocalMin(lows, i, 2) {
			troughs = append(troughs, i)
		}
	}
	return peaks, troughs
}

// trendlines строит линии тренда по максимумам и минимумам окна.
// Обе регрессии должны иметь |R| > 0.7, иначе ok == false.
func trendlines(highs, lows []float64, start, end int) (slopeHigh, slopeLow float64, ok bool) {
	peaks, troughs := collectSwings(highs, lows, start, end)
	if len(peaks) < 3 || len(troughs) < 3 {
		return 0, 0, false
	}

	slopeHigh, rHigh := fitAtIndexes(peaks, highs)
	slopeLow, rLow := fitAtIndexes(troughs, lows)
	if math.Abs(rHigh) <= 0.7 || math.Abs(rLow) <= 0.7 {
		return 0, 0, false
	}
	return slopeHigh, slopeLow, true
}

// TriangleDetector детектор треугольников: восходящего, нисходящего
// и симметричного
type TriangleDetector struct {
	window int
}

// NewTriangleDetector создает детектор треугольников
func NewTriangleDetector(window int) *TriangleDetector {
	if window <= 0 {
		window = 30
	}
	return &TriangleDetector{window: window}
}

func (d *TriangleDetector) Name() string { return "triangle" }

func (d *TriangleDetector) MinCandles() int { return d.window }

// Detect классифицирует окно по сочетанию знаков наклонов линий тренда
func (d *TriangleDetector) Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error) {
	highs := highsOf(candles)
	lows := lowsOf(candles)
	closes := closesOf(candles)

	var matches []*models.PatternMatch
	for start := 0; start+d.window <= len(candles); start += d.window / 2 {
		end := start + d.window

		slopeHigh, slopeLow, ok := trendlines(highs, lows, start, end)
		if !ok {
			continue
		}

		// Порог "плоской" линии: 0.02% средней цены за бар
		flat := 0.0002 * meanOf(closes[start:end])

		var kind models.PatternKind
		var direction models.Direction
		confidence := 0.65
		switch {
		case math.Abs(slopeHigh) <= flat && slopeLow > flat:
			kind = models.AscendingTriangle
			direction = models.Bullish
		case slopeHigh < -flat && math.Abs(slopeLow) <= flat:
			kind = models.DescendingTriangle
			direction = models.Bearish
		case slopeHigh < -flat && slopeLow > flat:
			kind = models.SymmetricalTriangle
			direction = models.Neutral
			confidence = 0.70
		default:
			continue
		}

		level := closes[end-1]
		height := maxOf(highs[start:end]) - minOf(lows[start:end])

		var target, stop float64
		switch direction {
		case models.Bullish:
			target = level + height
			stop = level - height/2
		case models.Bearish:
			target = level - height
			stop = level + height/2
		default:
			target = level + height
			stop = level - height
		}
		if target <= 0 || stop <= 0 {
			continue
		}

		match, err := models.NewPatternMatch(models.PatternMatch{
			Kind:        kind,
			Timestamp:   candles[end-1].OpenTime,
			Confidence:  confidence,
			PriceLevel:  level,
			Direction:   direction,
			TargetPrice: target,
			StopLoss:    stop,
			Metadata: map[string]float64{
				"slope_high": slopeHigh,
				"slope_low":  slopeLow,
			},
			Timeframe:   candles[end-1].Interval,
			Strength:    confidence,
			Reliability: 0.6,
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// WedgeDetector детектор клиньев: восходящего и нисходящего
type WedgeDetector struct {
	window int
}

// NewWedgeDetector создает детектор клиньев
func NewWedgeDetector(window int) *WedgeDetector {
	if window <= 0 {
		window = 30
	}
	return &WedgeDetector{window: window}
}

func (d *WedgeDetector) Name() string { return "wedge" }

func (d *WedgeDetector) MinCandles() int { return d.window }

// Detect ищет клинья: обе линии тренда наклонены в одну сторону.
// Восходящий клин (нижняя линия круче верхней) - медвежий,
// нисходящий (верхняя круче нижней) - бычий.
func (d *WedgeDetector) Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error) {
	highs := highsOf(candles)
	lows := lowsOf(candles)
	closes := closesOf(candles)

	var matches []*models.PatternMatch
	for start := 0; start+d.window <= len(candles); start += d.window / 2 {
		end := start + d.window

		slopeHigh, slopeLow, ok := trendlines(highs, lows, start, end)
		if !ok {
			continue
		}

		flat := 0.0002 * meanOf(closes[start:end])

		var kind models.PatternKind
		var direction models.Direction
		switch {
		case slopeHigh > flat && slopeLow > flat && slopeHigh < slopeLow:
			kind = models.RisingWedge
			direction = models.Bearish
		case slopeHigh < -flat && slopeLow < -flat && slopeHigh > slopeLow:
			kind = models.FallingWedge
			direction = models.Bullish
		default:
			continue
		}

		level := closes[end-1]
		height := maxOf(highs[start:end]) - minOf(lows[start:end])

		var target, stop float64
		if direction == models.Bearish {
			target = level - height
			stop = level + height/2
		} else {
			target = level + height
			stop = level - height/2
		}
		if target <= 0 || stop <= 0 {
			continue
		}

		match, err := models.NewPatternMatch(models.PatternMatch{
			Kind:        kind,
			Timestamp:   candles[end-1].OpenTime,
			Confidence:  0.65,
			PriceLevel:  level,
			Direction:   direction,
			TargetPrice: target,
			StopLoss:    stop,
			Metadata: map[string]float64{
				"slope_high": slopeHigh,
				"slope_low":  slopeLow,
			},
			Timeframe:   candles[end-1].Interval,
			Strength:    0.65,
			Reliability: 0.6,
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	return matches, nil
}
