// Package main запускает сервис скоринга транзакций на мошенничество.
// Сервис реализует:
// - HTTP API для скоринга одиночных пакетов и CSV-выгрузок
// - агрегированную статистику и данные для дашборда
// - управление порогом блокировки с журналом изменений
// - ленту последних предсказаний в Redis и события об инцидентах в Kafka
// - экспорт метрик в Prometheus
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fraud-scoring-service/internal/cache"
	"fraud-scoring-service/internal/config"
	"fraud-scoring-service/internal/events"
	"fraud-scoring-service/internal/handlers"
	"fraud-scoring-service/internal/logging"
	"fraud-scoring-service/internal/metrics"
	"fraud-scoring-service/internal/retrain"
	"fraud-scoring-service/internal/scoring"
	"fraud-scoring-service/internal/stats"
)

const redisConnectAttempts = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Логгер еще не создан
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting fraud scoring service",
		zap.String("go_version", runtime.Version()),
		zap.Int("num_cpu", runtime.NumCPU()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Без модели сервис поднимается, но /predict отвечает 503
	var classifier scoring.Classifier
	var explainer scoring.Explainer
	model, err := loadModel(cfg.ModelPath)
	if err != nil {
		logger.Warn("model not loaded, scoring disabled", zap.String("path", cfg.ModelPath), zap.Error(err))
	} else {
		classifier, explainer = model, model
		logger.Info("model loaded", zap.String("name", model.Name))
	}

	gateway, err := scoring.NewGateway(classifier, explainer, cfg.BlockThreshold, cfg.ShapThreshold)
	if err != nil {
		logger.Fatal("scoring gateway", zap.Error(err))
	}
	metrics.BlockThreshold.Set(gateway.Threshold())

	aggregator := stats.NewAggregator()

	redisCache := connectRedis(ctx, cfg, logger)

	var publisher events.Publisher
	if cfg.KafkaEnabled() {
		kp, err := events.NewKafkaPublisher(strings.Join(cfg.KafkaBrokers, ","), cfg.KafkaIncidentsTopic, logger)
		if err != nil {
			logger.Warn("kafka disabled", zap.Error(err))
		} else {
			publisher = kp
			logger.Info("publishing incidents to kafka", zap.String("topic", cfg.KafkaIncidentsTopic))
		}
	}

	retrainManager := retrain.NewManager(cfg.RetrainStepDuration, logger, func(progress int) {
		metrics.RetrainProgress.Set(float64(progress))
	})

	handler := handlers.NewHandler(handlers.Deps{
		Aggregator: aggregator,
		Gateway:    gateway,
		Retrain:    retrainManager,
		Cache:      redisCache,
		Publisher:  publisher,
		Logger:     logger,
	})

	router := handlers.NewRouter(handler, handlers.RouterOptions{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// pprof для профилирования
	router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	// Создаем HTTP сервер с настройками таймаутов
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go updateMetricsLoop(ctx, gateway)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ServerAddr), zap.String("api", handlers.APIPrefix))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	retrainManager.Stop()

	if publisher != nil {
		publisher.Close()
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Warn("redis close", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

// loadModel загружает модель из файла или встроенную по умолчанию
func loadModel(path string) (*scoring.LinearModel, error) {
	if path == "" {
		return scoring.DefaultModel()
	}
	return scoring.LoadLinearModel(path)
}

// connectRedis подключается к Redis с повторами; nil означает работу без кэша
func connectRedis(ctx context.Context, cfg config.Config, logger *zap.Logger) *cache.RedisCache {
	if !cfg.RedisEnabled() {
		logger.Info("redis disabled")
		return nil
	}

	opts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	var lastErr error
	for i := 0; i < redisConnectAttempts; i++ {
		c, err := cache.NewRedisCache(ctx, opts, logger)
		if err == nil {
			logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
			return c
		}
		lastErr = err
		logger.Warn("redis connection attempt failed", zap.Int("attempt", i+1), zap.Error(err))

		if i < redisConnectAttempts-1 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(i+1) * time.Second):
			}
		}
	}

	logger.Warn("running without redis cache", zap.Error(lastErr))
	return nil
}

// updateMetricsLoop периодически обновляет метрики Prometheus
func updateMetricsLoop(ctx context.Context, gateway *scoring.Gateway) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			drift := gateway.ScoreDrift()
			metrics.UpdateDriftMetrics(drift.Mean, drift.StdDev, drift.Samples)
			metrics.ActiveGoroutines.Set(float64(runtime.NumGoroutine()))
		}
	}
}
