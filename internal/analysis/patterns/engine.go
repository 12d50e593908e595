package patterns

import (
	"sort"
	"sync"

	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/logger"
	"github.com/skalibog/bpsa/pkg/models"
	"go.uber.org/zap"
)

// Detector единый интерфейс детектора паттернов.
// Детектор - чистая функция от ценового ряда и необязательного
// снимка кластеров ликвидаций.
type Detector interface {
	Name() string
	MinCandles() int
	Detect(candles []*models.Candle, clusters []*models.LiquidationCluster) ([]*models.PatternMatch, error)
}

// Фиксированные пороги принятия по видам паттернов.
// Самые жесткие - кластеры ликвидаций и уровни поддержки/сопротивления.
var acceptanceThresholds = map[models.PatternKind]float64{
	models.HeadAndShoulders:    0.65,
	models.DoubleTop:           0.65,
	models.DoubleBottom:        0.65,
	models.AscendingTriangle:   0.65,
	models.DescendingTriangle:  0.65,
	models.SymmetricalTriangle: 0.70,
	models.BullFlag:            0.60,
	models.BearFlag:            0.60,
	models.RisingWedge:         0.65,
	models.FallingWedge:        0.65,
	models.Support:             0.80,
	models.Resistance:          0.80,
	models.Breakout:            0.65,
	models.Breakdown:           0.65,
	models.ClusterPattern:      0.85,
}

// Engine запускает все детекторы паттернов над ценовым рядом.
// Набор детекторов фиксированный: новый вид паттерна добавляется
// только вместе с новым детектором в таблице.
type Engine struct {
	config    config.PatternsConfig
	detectors []Detector
}

// NewEngine создает движок распознавания с полной таблицей детекторов
func NewEngine(cfg config.PatternsConfig) *Engine {
	window := cfg.WindowSize
	if window <= 0 {
		window = 30
	}
	maxRange := cfg.ClusterMaxRange
	if maxRange <= 0 {
		maxRange = 0.10
	}

	return &Engine{
		config: cfg,
		detectors: []Detector{
			NewHeadShouldersDetector(window),
			NewDoubleTopDetector(),
			NewDoubleBottomDetector(),
			NewTriangleDetector(window),
			NewWedgeDetector(window),
			NewFlagDetector(),
			NewLevelDetector(),
			NewBreakoutDetector(),
			NewClusterDetector(maxRange),
		},
	}
}

// Scan прогоняет все детекторы и возвращает принятые паттерны,
// отсортированные по (уверенность убыв., время убыв.).
// Детекторы независимы и выполняются параллельно; сбой одного
// детектора дает ноль совпадений и не прерывает общий проход.
func (e *Engine) Scan(candles []*models.Candle, clusters []*models.LiquidationCluster) []*models.PatternMatch {
	results := make([][]*models.PatternMatch, len(e.detectors))

	var wg sync.WaitGroup
	for i, d := range e.detectors {
		wg.Add(1)
		go func(i int, d Detector) {
			defer wg.Done()
			results[i] = e.runDetector(d, candles, clusters)
		}(i, d)
	}
	wg.Wait()

	// Фильтруем по порогам принятия
	var accepted []*models.PatternMatch
	for _, part := range results {
		for _, m := range part {
			if m.Confidence >= acceptanceThresholds[m.Kind] {
				accepted = append(accepted, m)
			}
		}
	}

	// Вид паттерна как последний ключ делает порядок полностью детерминированным
	sort.SliceStable(accepted, func(i, j int) bool {
		a, b := accepted[i], accepted[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Kind < b.Kind
	})

	return accepted
}

// runDetector изолирует сбой детектора: паника или ошибка
// логируется и превращается в пустой результат
func (e *Engine) runDetector(d Detector, candles []*models.Candle, clusters []*models.LiquidationCluster) (matches []*models.PatternMatch) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Детектор паттернов аварийно завершился",
				zap.String("detector", d.Name()),
				zap.Any("panic", r))
			matches = nil
		}
	}()

	if len(candles) < d.MinCandles() {
		return nil
	}

	found, err := d.Detect(candles, clusters)
	if err != nil {
		logger.Warn("Детектор паттернов вернул ошибку",
			zap.String("detector", d.Name()),
			zap.Error(err))
		return nil
	}
	return found
}
