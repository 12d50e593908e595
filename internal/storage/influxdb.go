// internal/storage/influxdb.go
package storage

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/pkg/models"
)

// Storage интерфейс для работы с хранилищем данных
type Storage interface {
	// Методы для свечей
	SaveCandles(ctx context.Context, candles []*models.Candle) error
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error)

	// Методы для результатов симуляции
	SaveSimulationResult(ctx context.Context, result *models.SimulationResult) error
	GetSimulationHistory(ctx context.Context, symbol string, limit int) ([]*models.SimulationResult, error)

	Close()
}

// InfluxDBStorage реализует интерфейс Storage с использованием InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPI
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(context.Background())
	if err != nil {
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	queryAPI := client.QueryAPI(cfg.Organization)
	writeAPI := client.WriteAPI(cfg.Organization, cfg.Bucket)

	return &InfluxDBStorage{
		client:   client,
		queryAPI: queryAPI,
		writeAPI: writeAPI,
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveCandles сохраняет множество свечей
func (s *InfluxDBStorage) SaveCandles(ctx context.Context, candles []*models.Candle) error {
	for _, candle := range candles {
		point := influxdb2.NewPoint(
			"candles",
			map[string]string{
				"symbol":   candle.Symbol,
				"interval": candle.Interval,
			},
			map[string]interface{}{
				"open":   candle.Open,
				"high":   candle.High,
				"low":    candle.Low,
				"close":  candle.Close,
				"volume": candle.Volume,
			},
			candle.OpenTime,
		)
		s.writeAPI.WritePoint(point)
	}

	s.writeAPI.Flush()
	return nil
}

// candleQuery формирует Flux-запрос свечей в хронологическом порядке
func candleQuery(bucket, symbol, interval string, limit int) string {
	return fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -90d)
			|> filter(fn: (r) => r._measurement == "candles")
			|> filter(fn: (r) => r.symbol == "%s")
			|> filter(fn: (r) => r.interval == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> sort(columns: ["_time"], desc: false)
			|> tail(n: %d)
	`, bucket, symbol, interval, limit)
}

// GetCandles получает исторические свечи в хронологическом порядке
func (s *InfluxDBStorage) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*models.Candle, error) {
	// Выполняем запрос
	result, err := s.queryAPI.Query(ctx, candleQuery(s.bucket, symbol, interval, limit))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса свечей: %w", err)
	}

	// Обрабатываем результаты
	var candles []*models.Candle
	for result.Next() {
		record := result.Record()

		timestamp := record.Time()
		open, _ := record.ValueByKey("open").(float64)
		high, _ := record.ValueByKey("high").(float64)
		low, _ := record.ValueByKey("low").(float64)
		closePrice, _ := record.ValueByKey("close").(float64)
		volume, _ := record.ValueByKey("volume").(float64)

		candle := &models.Candle{
			Symbol:    symbol,
			Interval:  interval,
			OpenTime:  timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: timestamp.Add(models.IntervalDuration(interval)),
		}

		candles = append(candles, candle)
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return candles, nil
}

// SaveSimulationResult сохраняет итоговые метрики прогона симуляции
func (s *InfluxDBStorage) SaveSimulationResult(ctx context.Context, simResult *models.SimulationResult) error {
	point := influxdb2.NewPoint(
		"simulations",
		map[string]string{
			"symbol": simResult.Symbol,
		},
		map[string]interface{}{
			"lookback_days":       simResult.LookbackDays,
			"patterns":            len(simResult.Patterns),
			"total_trades":        simResult.Overall.TotalTrades,
			"win_ratio":           simResult.Overall.WinRatio,
			"best_direction":      string(simResult.Overall.BestDirection),
			"direction_advantage": simResult.Overall.DirectionAdvantage,
			"patterns_per_day":    simResult.Overall.PatternsPerDay,
			"recommendation":      simResult.Overall.Recommendation,
			"long_win_ratio":      simResult.LongAnalysis.WinRatio,
			"short_win_ratio":     simResult.ShortAnalysis.WinRatio,
			"processing_ms":       simResult.ProcessingTime.Milliseconds(),
		},
		simResult.GeneratedAt,
	)

	s.writeAPI.WritePoint(point)
	s.writeAPI.Flush()

	return nil
}

// historyQuery формирует Flux-запрос прогонов символа от новых к старым
func historyQuery(bucket, symbol string, limit int) string {
	return fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -90d)
			|> filter(fn: (r) => r._measurement == "simulations")
			|> filter(fn: (r) => r.symbol == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, bucket, symbol, limit)
}

// GetSimulationHistory получает историю прогонов по символу.
// Возвращаются только объединенные метрики: полный результат
// не восстанавливается из хранилища.
func (s *InfluxDBStorage) GetSimulationHistory(ctx context.Context, symbol string, limit int) ([]*models.SimulationResult, error) {
	// Выполняем запрос
	result, err := s.queryAPI.Query(ctx, historyQuery(s.bucket, symbol, limit))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории симуляций: %w", err)
	}

	// Обрабатываем результаты
	var history []*models.SimulationResult
	for result.Next() {
		record := result.Record()

		lookback, _ := record.ValueByKey("lookback_days").(int64)
		totalTrades, _ := record.ValueByKey("total_trades").(int64)
		winRatio, _ := record.ValueByKey("win_ratio").(float64)
		bestDirection, _ := record.ValueByKey("best_direction").(string)
		advantage, _ := record.ValueByKey("direction_advantage").(float64)
		perDay, _ := record.ValueByKey("patterns_per_day").(float64)
		recommendation, _ := record.ValueByKey("recommendation").(string)
		processingMS, _ := record.ValueByKey("processing_ms").(int64)

		history = append(history, &models.SimulationResult{
			Symbol:       symbol,
			LookbackDays: int(lookback),
			GeneratedAt:  record.Time(),
			Overall: models.OverallMetrics{
				TotalTrades:        int(totalTrades),
				WinRatio:           winRatio,
				BestDirection:      models.TradeDirection(bestDirection),
				DirectionAdvantage: advantage,
				PatternsPerDay:     perDay,
				Recommendation:     recommendation,
			},
			ProcessingTime: time.Duration(processingMS) * time.Millisecond,
		})
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return history, nil
}
