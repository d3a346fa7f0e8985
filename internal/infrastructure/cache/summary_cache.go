package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/application/stock"
	"github.com/jhoicas/stock-api/internal/domain/entity"
)

var _ stock.SummaryCache = (*SummaryCache)(nil)

const (
	summaryKey    = "stock:summary"
	generationKey = "stock:summary:gen"
)

// SummaryCache guarda el resumen de stock con TTL. El ledger lo invalida en cada movimiento;
// cada invalidación incrementa stock:summary:gen y Set solo escribe si la generación no cambió.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSummaryCache construye el caché.
func NewSummaryCache(rdb *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: ttl}
}

type cachedSummary struct {
	TotalProducts   int64           `json:"total_products"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	TotalValue      decimal.Decimal `json:"total_value"`
}

// Get devuelve el resumen (nil si no hay) y la generación vigente en una sola lectura.
func (c *SummaryCache) Get(ctx context.Context) (*entity.StockSummary, int64, error) {
	vals, err := c.rdb.MGet(ctx, summaryKey, generationKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("get summary cache: %w", err)
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, nil
	}
	var cs cachedSummary
	if err := json.Unmarshal([]byte(raw), &cs); err != nil {
		return nil, 0, fmt.Errorf("decode summary cache: %w", err)
	}
	return &entity.StockSummary{
		TotalProducts:   cs.TotalProducts,
		LowStockCount:   cs.LowStockCount,
		OutOfStockCount: cs.OutOfStockCount,
		TotalValue:      cs.TotalValue,
	}, gen, nil
}

// Set guarda el resumen si la generación sigue siendo generation (WATCH + MULTI).
// Si otra invalidación ganó la carrera no escribe y no es error.
func (c *SummaryCache) Set(ctx context.Context, s *entity.StockSummary, generation int64) error {
	raw, err := json.Marshal(cachedSummary{
		TotalProducts:   s.TotalProducts,
		LowStockCount:   s.LowStockCount,
		OutOfStockCount: s.OutOfStockCount,
		TotalValue:      s.TotalValue,
	})
	if err != nil {
		return fmt.Errorf("encode summary cache: %w", err)
	}
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, summaryKey, raw, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set summary cache: %w", err)
	}
	return nil
}

// Invalidate avanza la generación y borra el resumen en la misma transacción.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, summaryKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate summary cache: %w", err)
	}
	return nil
}

func parseGeneration(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	gen, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode summary generation: %w", err)
	}
	return gen, nil
}
