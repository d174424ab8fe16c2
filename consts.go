package lottery

import "time"

const (
	// CanonicalDateLayout is the canonical rendering of a draw date (YYYY-MM-DD)
	CanonicalDateLayout = "2006-01-02"

	// DefaultRankedCount is the number of ranked numbers per draw
	DefaultRankedCount = 5

	// DefaultRankedMin is the smallest ranked number
	DefaultRankedMin = 1

	// DefaultRankedMax is the largest ranked number
	DefaultRankedMax = 69

	// DefaultSpecialMin is the smallest special number
	DefaultSpecialMin = 1

	// DefaultSpecialMax is the largest special number
	DefaultSpecialMax = 26

	// DefaultGameName names the single configured game
	DefaultGameName = "powerball"

	// DefaultEnforceDrawDays controls the draw-day-of-week policy
	DefaultEnforceDrawDays = true
)

// DefaultDrawDays are the weekdays the reference game draws on
var DefaultDrawDays = []time.Weekday{time.Monday, time.Wednesday, time.Saturday}

// DefaultSourceDateLayouts are tried in order when parsing a candidate date
var DefaultSourceDateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	CanonicalDateLayout,
	"Mon, Jan 2, 2006",
	"Jan 2, 2006",
}

const (
	// DefaultLockTimeout is the default timeout for acquiring the ingest lock
	DefaultLockTimeout = 30 * time.Second

	// DefaultRetryAttempts is the default number of retry attempts
	DefaultRetryAttempts = 3

	// DefaultRetryInterval is the default interval between retry attempts
	DefaultRetryInterval = 100 * time.Millisecond

	// LockKeyPrefix is the prefix for Redis lock keys
	LockKeyPrefix = "lottery:lock:"

	// DefaultLockExpiration is the default expiration time for locks
	DefaultLockExpiration = 30 * time.Second

	// MaxLockExpiration is the longest lock expiration allowed
	MaxLockExpiration = time.Hour

	// MaxRetryAttempts is the maximum number of retry attempts allowed
	MaxRetryAttempts = 10

	// MinLockTimeout is the minimum lock timeout allowed
	MinLockTimeout = 1 * time.Second

	// MaxLockTimeout is the maximum lock timeout allowed
	MaxLockTimeout = 5 * time.Minute
)

const (
	// RecordsKey is the Redis hash holding identity key -> JSON record
	RecordsKey = "lottery:draws:records"

	// DateIndexKey is the Redis sorted set indexing identity keys by draw date
	DateIndexKey = "lottery:draws:by_date"

	// ReportKeyPrefix is the prefix for persisted ingest reports
	ReportKeyPrefix = "lottery:ingest:report:"

	// LatestReportKey points at the most recently saved ingest report
	LatestReportKey = "lottery:ingest:latest"

	// DefaultReportTTL is how long ingest reports are kept
	DefaultReportTTL = 7 * 24 * time.Hour

	// MaxReportSize is the largest serialized report accepted (1MB)
	MaxReportSize = 1024 * 1024
)

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMySQL    = "mysql"
	StoreDriverRedis    = "redis"

	DefaultStoreDriver = StoreDriverSQLite
	DefaultStoreDSN    = "lottery.db"
)

const (
	// DefaultCircuitBreakerName is the default name for Circuit Breaker
	DefaultCircuitBreakerName = "draw-store"

	// DefaultCircuitBreakerMaxRequests is the default max requests
	DefaultCircuitBreakerMaxRequests = 3

	// DefaultCircuitBreakerInterval is the default interval
	DefaultCircuitBreakerInterval = 60 * time.Second

	// DefaultCircuitBreakerTimeout is the default timeout
	DefaultCircuitBreakerTimeout = 30 * time.Second

	// DefaultCircuitBreakerFailureRatio is the default failure ratio
	DefaultCircuitBreakerFailureRatio = 0.6

	// DefaultCircuitBreakerMinRequests is the default min requests
	DefaultCircuitBreakerMinRequests = 3

	// DefaultCircuitBreakerOnStateChange is the default on state change
	DefaultCircuitBreakerOnStateChange = true
)

const (
	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPassword     = ""
	DefaultRedisDB           = 0
	DefaultRedisPoolSize     = 50
	DefaultRedisMinIdleConns = 10
	DefaultRedisMaxRetries   = 3
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
	DefaultRedisPoolTimeout  = 4 * time.Second
)
