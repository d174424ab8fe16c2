package lottery

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 生产环境配置结构
type Config struct {
	// 游戏配置
	Game *GameConfig `mapstructure:"game" validate:"required"`

	// 存储配置
	Store *StoreConfig `mapstructure:"store" validate:"required"`

	// Redis 配置
	Redis *RedisConfig `mapstructure:"redis" validate:"required"`

	// 熔断器配置
	CircuitBreaker *CircuitBreakerConfig `mapstructure:"circuit_breaker" validate:"required"`

	// 导入配置
	Ingest *IngestConfig `mapstructure:"ingest" validate:"required"`
}

// Validate validates every section
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return ErrConfigInvalid.WithCause(err)
	}
	if err := c.Game.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	if c.Store.Driver == StoreDriverRedis && c.Redis.Addr == "" {
		return ErrConfigInvalid.WithDetails("redis store requires redis.addr")
	}
	return nil
}

// StoreConfig 存储配置
type StoreConfig struct {
	// sqlite | postgres | mysql | redis
	Driver          string        `mapstructure:"driver" validate:"oneof=sqlite postgres mysql redis"`
	DSN             string        `mapstructure:"dsn" validate:"required_unless=Driver redis"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// DefaultStoreConfig returns a file-backed sqlite store
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		Driver: DefaultStoreDriver,
		DSN:    DefaultStoreDSN,
	}
}

// IngestConfig 导入配置
type IngestConfig struct {
	// UseLock serialises overlapping ingestion runs through a Redis lock
	UseLock     bool          `mapstructure:"use_lock"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	// LockExpiration is the TTL of the ingest lock; it must cover the longest run
	LockExpiration time.Duration `mapstructure:"lock_expiration"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
	SaveReports    bool          `mapstructure:"save_reports"`
	ReportTTL      time.Duration `mapstructure:"report_ttl"`
}

// DefaultIngestConfig 返回默认导入配置
func DefaultIngestConfig() *IngestConfig {
	return &IngestConfig{
		UseLock:        false,
		LockTimeout:    DefaultLockTimeout,
		LockExpiration: DefaultLockExpiration,
		RetryAttempts:  0,
		RetryInterval:  DefaultRetryInterval,
		SaveReports:    false,
		ReportTTL:      DefaultReportTTL,
	}
}

// Validate validates the ingest configuration
func (ic *IngestConfig) Validate() error {
	if ic.LockTimeout < MinLockTimeout || ic.LockTimeout > MaxLockTimeout {
		return ErrInvalidLockTimeout
	}
	if ic.LockExpiration != 0 && (ic.LockExpiration < MinLockTimeout || ic.LockExpiration > MaxLockExpiration) {
		return ErrConfigInvalid.WithDetails("lock expiration out of range")
	}
	if ic.RetryAttempts < 0 || ic.RetryAttempts > MaxRetryAttempts {
		return ErrInvalidRetryAttempts
	}
	if ic.RetryInterval < 0 {
		return ErrInvalidRetryInterval
	}
	if ic.ReportTTL < 0 {
		return ErrConfigInvalid.WithDetails("report ttl cannot be negative")
	}
	return nil
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 连接配置
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`

	// 连接池配置
	PoolSize     int `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int `mapstructure:"min_idle_conns" validate:"gte=0"`
	MaxRetries   int `mapstructure:"max_retries"`

	// 超时配置
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

// DefaultRedisConfig 返回默认的Redis配置
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         DefaultRedisAddr,
		Password:     DefaultRedisPassword,
		DB:           DefaultRedisDB,
		PoolSize:     DefaultRedisPoolSize,
		MinIdleConns: DefaultRedisMinIdleConns,
		MaxRetries:   DefaultRedisMaxRetries,
		DialTimeout:  DefaultRedisDialTimeout,
		ReadTimeout:  DefaultRedisReadTimeout,
		WriteTimeout: DefaultRedisWriteTimeout,
		PoolTimeout:  DefaultRedisPoolTimeout,
	}
}

// NewRedisClientFromConfig 从配置创建Redis客户端
func NewRedisClientFromConfig(config *RedisConfig) *redis.Client {
	if config == nil {
		config = DefaultRedisConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolTimeout:  config.PoolTimeout,
	})
}

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Name          string        `mapstructure:"name"`
	MaxRequests   uint32        `mapstructure:"max_requests"`
	Interval      time.Duration `mapstructure:"interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
	FailureRatio  float64       `mapstructure:"failure_ratio" validate:"gte=0,lte=1"`
	MinRequests   uint32        `mapstructure:"min_requests"`
	OnStateChange bool          `mapstructure:"on_state_change"`
}

// DefaultCircuitBreakerConfig 返回默认熔断器配置
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Enabled:       true,
		Name:          DefaultCircuitBreakerName,
		MaxRequests:   DefaultCircuitBreakerMaxRequests,
		Interval:      DefaultCircuitBreakerInterval,
		Timeout:       DefaultCircuitBreakerTimeout,
		FailureRatio:  DefaultCircuitBreakerFailureRatio,
		MinRequests:   DefaultCircuitBreakerMinRequests,
		OnStateChange: DefaultCircuitBreakerOnStateChange,
	}
}

// DefaultConfig 返回全部默认配置
func DefaultConfig() *Config {
	return &Config{
		Game:           DefaultGameConfig(),
		Store:          DefaultStoreConfig(),
		Redis:          DefaultRedisConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Ingest:         DefaultIngestConfig(),
	}
}

// ConfigManager 配置管理器
type ConfigManager struct {
	viper  *viper.Viper
	logger Logger

	mu     sync.RWMutex
	config *Config
}

// NewConfigManager 创建配置管理器
func NewConfigManager() *ConfigManager {
	v := viper.New()

	// 设置配置文件名和路径
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lottery")
	v.AddConfigPath("$HOME/.lottery")

	// 设置环境变量前缀
	v.SetEnvPrefix("LOTTERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &ConfigManager{
		viper:  v,
		logger: NewSilentLogger(),
	}
}

// SetConfigFile 指定配置文件路径 (跳过搜索路径)
func (cm *ConfigManager) SetConfigFile(path string) { cm.viper.SetConfigFile(path) }

// SetLogger 设置日志器
func (cm *ConfigManager) SetLogger(logger Logger) {
	if logger != nil {
		cm.logger = logger
	}
}

// LoadConfig 加载配置: .env -> 默认值 -> 配置文件 -> 环境变量
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	// .env 可不存在
	_ = godotenv.Load()

	cm.setDefaults()

	if err := cm.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// 配置文件不存在时使用默认配置
		cm.logger.Debug("No config file found, using defaults and environment")
	}

	config, err := cm.decode()
	if err != nil {
		return nil, err
	}

	cm.mu.Lock()
	cm.config = config
	cm.mu.Unlock()
	return config, nil
}

func (cm *ConfigManager) decode() (*Config, error) {
	config := &Config{}
	if err := cm.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// setDefaults 设置默认配置值
func (cm *ConfigManager) setDefaults() {
	game := DefaultGameConfig()
	cm.viper.SetDefault("game.name", game.Name)
	cm.viper.SetDefault("game.ranked_min", game.RankedMin)
	cm.viper.SetDefault("game.ranked_max", game.RankedMax)
	cm.viper.SetDefault("game.special_min", game.SpecialMin)
	cm.viper.SetDefault("game.special_max", game.SpecialMax)
	cm.viper.SetDefault("game.draw_days", game.DrawDays)
	cm.viper.SetDefault("game.enforce_draw_days", game.EnforceDrawDays)
	cm.viper.SetDefault("game.source_date_layouts", game.SourceDateLayouts)

	// 存储默认配置
	cm.viper.SetDefault("store.driver", DefaultStoreDriver)
	cm.viper.SetDefault("store.dsn", DefaultStoreDSN)
	cm.viper.SetDefault("store.max_open_conns", 0)
	cm.viper.SetDefault("store.max_idle_conns", 0)
	cm.viper.SetDefault("store.conn_max_lifetime", "0s")

	// Redis 默认配置
	cm.viper.SetDefault("redis.addr", DefaultRedisAddr)
	cm.viper.SetDefault("redis.password", DefaultRedisPassword)
	cm.viper.SetDefault("redis.db", DefaultRedisDB)
	cm.viper.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	cm.viper.SetDefault("redis.min_idle_conns", DefaultRedisMinIdleConns)
	cm.viper.SetDefault("redis.max_retries", DefaultRedisMaxRetries)
	cm.viper.SetDefault("redis.dial_timeout", "5s")
	cm.viper.SetDefault("redis.read_timeout", "3s")
	cm.viper.SetDefault("redis.write_timeout", "3s")
	cm.viper.SetDefault("redis.pool_timeout", "4s")

	// 熔断器默认配置
	cm.viper.SetDefault("circuit_breaker.enabled", true)
	cm.viper.SetDefault("circuit_breaker.name", DefaultCircuitBreakerName)
	cm.viper.SetDefault("circuit_breaker.max_requests", DefaultCircuitBreakerMaxRequests)
	cm.viper.SetDefault("circuit_breaker.interval", "60s")
	cm.viper.SetDefault("circuit_breaker.timeout", "30s")
	cm.viper.SetDefault("circuit_breaker.failure_ratio", DefaultCircuitBreakerFailureRatio)
	cm.viper.SetDefault("circuit_breaker.min_requests", DefaultCircuitBreakerMinRequests)
	cm.viper.SetDefault("circuit_breaker.on_state_change", true)

	// 导入默认配置
	cm.viper.SetDefault("ingest.use_lock", false)
	cm.viper.SetDefault("ingest.lock_timeout", "30s")
	cm.viper.SetDefault("ingest.lock_expiration", "30s")
	cm.viper.SetDefault("ingest.retry_attempts", 0)
	cm.viper.SetDefault("ingest.retry_interval", "100ms")
	cm.viper.SetDefault("ingest.save_reports", false)
	cm.viper.SetDefault("ingest.report_ttl", "168h")
}

// WatchConfig 监听配置变化, 无效的新配置会被忽略
func (cm *ConfigManager) WatchConfig(callback func(*Config)) {
	cm.viper.OnConfigChange(func(e fsnotify.Event) {
		config, err := cm.decode()
		if err != nil {
			cm.logger.Error("Ignoring invalid config change from %s: %v", e.Name, err)
			return
		}

		cm.mu.Lock()
		cm.config = config
		cm.mu.Unlock()

		cm.logger.Info("Config reloaded from %s", e.Name)
		if callback != nil {
			callback(config)
		}
	})
	cm.viper.WatchConfig()
}

// GetConfig 获取当前配置
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}
