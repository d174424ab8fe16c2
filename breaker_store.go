package lottery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerStore 带熔断器的存储包装器.
// Skipped inserts are successes; only storage errors count as failures.
type CircuitBreakerStore struct {
	store DrawStore

	mu      sync.RWMutex // guards breaker, which Reset swaps
	breaker *gobreaker.CircuitBreaker
	logger  Logger
	config  *CircuitBreakerConfig
}

// NewCircuitBreakerStore 创建带熔断器的存储
func NewCircuitBreakerStore(store DrawStore, config *CircuitBreakerConfig, logger Logger) *CircuitBreakerStore {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	cbs := &CircuitBreakerStore{
		store:  store,
		logger: logger,
		config: config,
	}
	if config.Enabled {
		cbs.breaker = newBreaker(config, logger)
	}
	return cbs
}

func newBreaker(config *CircuitBreakerConfig, logger Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 当请求数达到最小要求且失败率超过阈值时触发熔断
			return counts.Requests >= config.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// cancellations are the caller's doing, not the store's
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if config.OnStateChange {
				logger.Info("Circuit breaker '%s' state changed from %s to %s", name, from, to)
			}
		},
	})
}

func (c *CircuitBreakerStore) currentBreaker() *gobreaker.CircuitBreaker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.breaker
}

// executeWithBreaker 使用熔断器执行操作
func (c *CircuitBreakerStore) executeWithBreaker(operation func() (any, error)) (any, error) {
	cb := c.currentBreaker()
	if cb == nil {
		return operation()
	}

	result, err := cb.Execute(operation)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return nil, ErrCircuitBreakerOpen.WithDetails("draw store circuit is open").WithCause(ErrStorageUnavailable)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, ErrCircuitBreakerOpen.WithDetails("too many requests while half-open").WithCause(ErrStorageUnavailable)
	}
	return result, err
}

// Insert 插入记录
func (c *CircuitBreakerStore) Insert(ctx context.Context, record DrawRecord) (InsertOutcome, error) {
	result, err := c.executeWithBreaker(func() (any, error) {
		return c.store.Insert(ctx, record)
	})
	if err != nil {
		return Skipped, err
	}
	return result.(InsertOutcome), nil
}

// QueryRange 范围查询
func (c *CircuitBreakerStore) QueryRange(ctx context.Context, start, end time.Time) ([]DrawRecord, error) {
	result, err := c.executeWithBreaker(func() (any, error) {
		return c.store.QueryRange(ctx, start, end)
	})
	if err != nil {
		return nil, err
	}
	return result.([]DrawRecord), nil
}

// AllRecords 全部记录
func (c *CircuitBreakerStore) AllRecords(ctx context.Context) ([]DrawRecord, error) {
	result, err := c.executeWithBreaker(func() (any, error) {
		return c.store.AllRecords(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]DrawRecord), nil
}

// Count 记录数
func (c *CircuitBreakerStore) Count(ctx context.Context) (int64, error) {
	result, err := c.executeWithBreaker(func() (any, error) {
		return c.store.Count(ctx)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Close closes the wrapped store
func (c *CircuitBreakerStore) Close() error { return c.store.Close() }

// State 获取熔断器状态
func (c *CircuitBreakerStore) State() string {
	cb := c.currentBreaker()
	if cb == nil {
		return "disabled"
	}

	switch cb.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Counts 获取熔断器统计信息
func (c *CircuitBreakerStore) Counts() gobreaker.Counts {
	cb := c.currentBreaker()
	if cb == nil {
		return gobreaker.Counts{}
	}
	return cb.Counts()
}

// Reset 重置熔断器 (gobreaker 没有 Reset 方法, 重新创建实例)
func (c *CircuitBreakerStore) Reset() {
	c.mu.Lock()
	if c.breaker == nil {
		c.mu.Unlock()
		return
	}
	c.breaker = newBreaker(c.config, c.logger)
	c.mu.Unlock()
	c.logger.Info("Circuit breaker '%s' has been reset (recreated)", c.config.Name)
}

// HealthCheck 熔断器健康检查
func (c *CircuitBreakerStore) HealthCheck() map[string]any {
	result := map[string]any{
		"circuit_breaker_enabled": c.config.Enabled,
		"state":                   c.State(),
	}
	if c.currentBreaker() == nil {
		result["healthy"] = true
		return result
	}

	counts := c.Counts()
	result["requests"] = counts.Requests
	result["total_failures"] = counts.TotalFailures
	result["consecutive_failures"] = counts.ConsecutiveFailures

	healthy := true
	switch c.State() {
	case "open":
		healthy = false
	case "half-open":
		// 半开状态下，如果连续失败次数过多，认为不健康
		healthy = counts.ConsecutiveFailures <= 2
	}
	result["healthy"] = healthy
	return result
}
