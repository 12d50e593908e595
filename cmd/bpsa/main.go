package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skalibog/bpsa/internal/config"
	"github.com/skalibog/bpsa/internal/exchange"
	"github.com/skalibog/bpsa/internal/simulation"
	"github.com/skalibog/bpsa/internal/storage"
	"github.com/skalibog/bpsa/internal/ui"
	"github.com/skalibog/bpsa/pkg/logger"
	"github.com/skalibog/bpsa/pkg/models"
	"go.uber.org/zap"
)

// Binance отдает не более 1500 свечей за один запрос
const maxKlineLimit = 1500

func main() {
	logger.Init()
	defer logger.GetLogger().Sync()

	// Обработка флагов командной строки
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	historyLimit := flag.Int("history", 0, "показать N прошлых прогонов из хранилища вместо новой симуляции")
	flag.Parse()

	// Проверяем наличие файла конфигурации
	logger.Info("Проверка наличия файла конфигурации", zap.String("path", *configPath))
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Fatal("Файл конфигурации не найден", zap.String("path", *configPath))
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	// Создаем контекст с отменой по сигналу завершения
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nЗавершение работы...")
		cancel()
	}()

	// Хранилище опционально: без него результаты только печатаются
	var store storage.Storage
	if cfg.Storage.URL != "" {
		influx, err := storage.NewInfluxDBStorage(cfg.Storage)
		if err != nil {
			logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
		}
		defer influx.Close()
		store = influx
	}

	renderer := ui.NewRenderer(cfg.UI)

	// Режим истории: прошлые прогоны из хранилища без обращения к бирже
	if *historyLimit > 0 {
		if store == nil {
			logger.Fatal("Для просмотра истории требуется настроенное хранилище")
		}
		for _, symbol := range cfg.Trading.Symbols {
			history, err := store.GetSimulationHistory(ctx, symbol, *historyLimit)
			if err != nil {
				logger.Error("Ошибка чтения истории", zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			fmt.Println(renderer.RenderHistory(symbol, history))
		}
		return
	}

	// Инициализируем клиент биржи
	client, err := exchange.NewBinanceClient(cfg.Binance)
	if err != nil {
		logger.Fatal("Ошибка инициализации клиента биржи", zap.Error(err))
	}

	orchestrator := simulation.NewOrchestrator(cfg.Analysis, cfg.Simulation)

	failures := 0
	for _, symbol := range cfg.Trading.Symbols {
		if ctx.Err() != nil {
			break
		}

		result, err := runSymbol(ctx, cfg, client, store, orchestrator, symbol)
		if err != nil {
			logger.Error("Символ пропущен", zap.String("symbol", symbol), zap.Error(err))
			failures++
			continue
		}

		fmt.Println(renderer.Render(result))
	}

	if failures == len(cfg.Trading.Symbols) {
		logger.Fatal("Ни один символ не обработан")
	}
}

// runSymbol выполняет полный цикл для одного символа: загрузка данных,
// оценка кластеров ликвидаций, прогон симуляции и сохранение итога
func runSymbol(ctx context.Context, cfg *config.Config, client *exchange.BinanceClient, store storage.Storage, orchestrator *simulation.Orchestrator, symbol string) (*models.SimulationResult, error) {
	limit := klineLimit(cfg.Trading.Interval, cfg.Trading.LookbackDays)

	candles, err := client.GetKlines(ctx, symbol, cfg.Trading.Interval, limit)
	if err != nil {
		if store == nil {
			return nil, fmt.Errorf("загрузка свечей: %w", err)
		}
		// Биржа недоступна: пробуем ранее сохраненный кэш свечей
		logger.Warn("Биржа недоступна, используется кэш свечей",
			zap.String("symbol", symbol), zap.Error(err))
		candles, err = store.GetCandles(ctx, symbol, cfg.Trading.Interval, limit)
		if err != nil {
			return nil, fmt.Errorf("загрузка свечей из кэша: %w", err)
		}
	}

	// Кластеры ликвидаций вспомогательны: без них симуляция продолжается
	var clusters []*models.LiquidationCluster
	if len(candles) > 0 {
		lastPrice := candles[len(candles)-1].Close
		clusters, err = client.FetchLiquidationClusters(ctx, symbol, lastPrice, cfg.Analysis.Patterns.ClusterMaxRange)
		if err != nil {
			logger.Warn("Кластеры ликвидаций недоступны",
				zap.String("symbol", symbol), zap.Error(err))
			clusters = nil
		}
	}

	result, err := orchestrator.Run(symbol, cfg.Trading.LookbackDays, candles, clusters)
	if err != nil {
		return nil, err
	}

	if store != nil {
		if err := store.SaveCandles(ctx, candles); err != nil {
			logger.Warn("Ошибка сохранения свечей", zap.String("symbol", symbol), zap.Error(err))
		}
		if err := store.SaveSimulationResult(ctx, result); err != nil {
			logger.Warn("Ошибка сохранения результата", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	return result, nil
}

// klineLimit считает число баров, покрывающее запрошенное окно
func klineLimit(interval string, lookbackDays int) int {
	bars := int(time.Duration(lookbackDays) * 24 * time.Hour / models.IntervalDuration(interval))
	if bars < 1 {
		bars = 1
	}
	if bars > maxKlineLimit {
		bars = maxKlineLimit
	}
	return bars
}
