// Package cache реализует ленту последних предсказаний и счетчики в Redis
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/models"
)

const (
	// LatestPredictionsKey ключ списка последних предсказаний
	LatestPredictionsKey = "predictions:latest"
	// MaxLatestPredictions сколько предсказаний хранит лента
	MaxLatestPredictions = 1000
	// PredictionsTotalKey счетчик всех оцененных транзакций
	PredictionsTotalKey = "predictions:total"
	// BlockedTotalKey счетчик заблокированных транзакций
	BlockedTotalKey = "predictions:blocked"
	// FeedTTL время жизни ленты без новых записей
	FeedTTL = 24 * time.Hour
)

// RedisCache реализует кэширование в Redis
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// Options параметры подключения
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache создает новое подключение к Redis и проверяет его
func NewRedisCache(ctx context.Context, opts Options, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     100,
		MinIdleConns: 10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		logger: logger.Named("cache"),
	}, nil
}

// CachePredictions добавляет результаты в начало ленты одним пайплайном
func (r *RedisCache) CachePredictions(ctx context.Context, results []models.ScoringResult) error {
	if len(results) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(results))
	var blocked int64
	for _, res := range results {
		data, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to marshal prediction: %w", err)
		}
		values = append(values, data)
		if res.IsBlocked() {
			blocked++
		}
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, LatestPredictionsKey, values...)
	pipe.LTrim(ctx, LatestPredictionsKey, 0, MaxLatestPredictions-1)
	pipe.Expire(ctx, LatestPredictionsKey, FeedTTL)
	pipe.IncrBy(ctx, PredictionsTotalKey, int64(len(results)))
	if blocked > 0 {
		pipe.IncrBy(ctx, BlockedTotalKey, blocked)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache predictions: %w", err)
	}
	return nil
}

// GetLatestPredictions возвращает последние count предсказаний, новые первыми
func (r *RedisCache) GetLatestPredictions(ctx context.Context, count int64) ([]models.ScoringResult, error) {
	data, err := r.client.LRange(ctx, LatestPredictionsKey, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest predictions: %w", err)
	}

	results := make([]models.ScoringResult, 0, len(data))
	for _, d := range data {
		var res models.ScoringResult
		if err := json.Unmarshal([]byte(d), &res); err != nil {
			r.logger.Warn("skipping malformed prediction", zap.Error(err))
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// GetCounter возвращает значение счетчика
func (r *RedisCache) GetCounter(ctx context.Context, key string) (int64, error) {
	val, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Counters возвращает счетчики оцененных и заблокированных транзакций
func (r *RedisCache) Counters(ctx context.Context) (models.PredictionCounters, error) {
	total, err := r.GetCounter(ctx, PredictionsTotalKey)
	if err != nil {
		return models.PredictionCounters{}, fmt.Errorf("failed to get %s: %w", PredictionsTotalKey, err)
	}
	blocked, err := r.GetCounter(ctx, BlockedTotalKey)
	if err != nil {
		return models.PredictionCounters{}, fmt.Errorf("failed to get %s: %w", BlockedTotalKey, err)
	}
	return models.PredictionCounters{Total: total, Blocked: blocked}, nil
}

// Ping проверяет соединение с Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close закрывает соединение
func (r *RedisCache) Close() error {
	return r.client.Close()
}
