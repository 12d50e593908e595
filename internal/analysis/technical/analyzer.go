package technical

import (
	"github.com/markcheno/go-talib"
	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/models"
)

// Analyzer рассчитывает срез технических индикаторов на конец ряда
type Analyzer struct {
	config config.TechnicalConfig
}

// NewAnalyzer создает анализатор технических индикаторов
func NewAnalyzer(cfg config.TechnicalConfig) *Analyzer {
	return &Analyzer{config: cfg}
}

// Snapshot рассчитывает последние значения RSI, MACD, полос Боллинджера
// и ATR. При нехватке данных возвращается срез только с последней ценой:
// срез - справочная информация результата, а не причина сбоя прогона.
func (a *Analyzer) Snapshot(candles []*models.Candle) models.IndicatorSnapshot {
	snapshot := models.IndicatorSnapshot{}
	if len(candles) == 0 {
		return snapshot
	}
	snapshot.LastClose = candles[len(candles)-1].Close

	if len(candles) < a.config.MACDSlow+a.config.MACDSignal {
		return snapshot
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	rsi := talib.Rsi(closes, a.config.RSIPeriod)
	snapshot.RSI = rsi[len(rsi)-1]

	macd, signal, hist := talib.Macd(closes, a.config.MACDFast, a.config.MACDSlow, a.config.MACDSignal)
	snapshot.MACD = macd[len(macd)-1]
	snapshot.MACDSignal = signal[len(signal)-1]
	snapshot.MACDHist = hist[len(hist)-1]

	upper, middle, lower := talib.BBands(closes, a.config.BBPeriod, 2.0, 2.0, 0)
	snapshot.BBUpper = upper[len(upper)-1]
	snapshot.BBMiddle = middle[len(middle)-1]
	snapshot.BBLower = lower[len(lower)-1]

	atr := talib.Atr(highs, lows, closes, a.config.ATRPeriod)
	snapshot.ATR = atr[len(atr)-1]

	return snapshot
}
