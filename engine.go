package lottery

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Analysis is the frequency breakdown of a set of records
type Analysis struct {
	Draws   int            `json:"draws"`
	White   FrequencyTable `json:"white"`
	Special FrequencyTable `json:"special"`
}

// Summary combines the history span, the hot and cold numbers and a pick
type Summary struct {
	TotalDraws     int              `json:"total_draws"`
	Earliest       string           `json:"earliest,omitempty"`
	Latest         string           `json:"latest,omitempty"`
	HotWhite       []FrequencyEntry `json:"hot_white"`
	ColdWhite      []FrequencyEntry `json:"cold_white"`
	HotSpecial     []FrequencyEntry `json:"hot_special"`
	ColdSpecial    []FrequencyEntry `json:"cold_special"`
	MissingWhite   []int            `json:"missing_white"`
	MissingSpecial []int            `json:"missing_special"`
	Pick           *PickResult      `json:"pick"`
}

// StatsEngine wires the validator, store, ingestor and picker together
type StatsEngine struct {
	game     GameConfig
	store    DrawStore
	ingestor *Ingestor
	picker   *Picker
	reports  *ReportStore
	logger   Logger

	// redisClient is owned by the engine when the store does not own it
	redisClient *redis.Client
}

// NewStatsEngine builds an engine around an already opened store
func NewStatsEngine(game *GameConfig, store DrawStore, logger Logger) (*StatsEngine, error) {
	if game == nil {
		game = DefaultGameConfig()
	}
	if store == nil {
		return nil, ErrInvalidParameters.WithDetails("nil store")
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	validator, err := NewDrawValidator(game)
	if err != nil {
		return nil, err
	}

	return &StatsEngine{
		game:     *game,
		store:    store,
		ingestor: NewIngestor(validator, store, logger),
		picker:   NewPicker(game, nil),
		logger:   logger,
	}, nil
}

// NewStatsEngineFromConfig opens the configured store behind a circuit breaker
// and enables locking, retries and report persistence as configured
func NewStatsEngineFromConfig(cfg *Config, logger Logger) (*StatsEngine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	var (
		store       DrawStore
		redisClient *redis.Client
		ownsClient  bool
	)

	needsRedis := cfg.Store.Driver == StoreDriverRedis || cfg.Ingest.UseLock || cfg.Ingest.SaveReports
	if needsRedis {
		redisClient = NewRedisClientFromConfig(cfg.Redis)
	}

	if cfg.Store.Driver == StoreDriverRedis {
		store = NewRedisStore(redisClient, logger)
	} else {
		sqlStore, err := OpenSQLStore(cfg.Store, logger)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, err
		}
		store = sqlStore
		ownsClient = redisClient != nil
	}

	engine, err := NewStatsEngine(cfg.Game, NewCircuitBreakerStore(store, cfg.CircuitBreaker, logger), logger)
	if err != nil {
		_ = store.Close()
		if ownsClient {
			_ = redisClient.Close()
		}
		return nil, err
	}
	if ownsClient {
		engine.redisClient = redisClient
	}

	if cfg.Ingest.UseLock {
		engine.ingestor.WithLock(NewLockManager(redisClient, cfg.Ingest.LockTimeout, cfg.Ingest.RetryInterval).
			WithExpiration(cfg.Ingest.LockExpiration))
	}
	if cfg.Ingest.RetryAttempts > 0 {
		handler := NewDefaultErrorHandler(logger, cfg.Ingest.RetryInterval)
		engine.ingestor.WithRetry(NewErrorRecovery(handler, cfg.Ingest.RetryAttempts, logger))
	}
	if cfg.Ingest.SaveReports {
		engine.reports = NewReportStore(redisClient, cfg.Ingest.ReportTTL, logger)
		engine.ingestor.WithReportStore(engine.reports)
	}

	logger.Info("Stats engine ready: game=%s, store=%s, lock=%v, retries=%d, reports=%v",
		cfg.Game.Name, cfg.Store.Driver, cfg.Ingest.UseLock, cfg.Ingest.RetryAttempts, cfg.Ingest.SaveReports)
	return engine, nil
}

// Game returns the engine's game configuration
func (e *StatsEngine) Game() GameConfig { return e.game }

// Store returns the underlying store
func (e *StatsEngine) Store() DrawStore { return e.store }

// Monitor returns the ingest monitor, suitable for prometheus registration
func (e *StatsEngine) Monitor() *IngestMonitor { return e.ingestor.Monitor() }

// SetRandomSource replaces the picker's random source
func (e *StatsEngine) SetRandomSource(source RandomSource) {
	e.picker = NewPicker(&e.game, source)
}

// Ingest validates and stores a batch of candidates
func (e *StatsEngine) Ingest(ctx context.Context, candidates []Candidate) (*IngestReport, error) {
	return e.ingestor.Ingest(ctx, candidates)
}

// QueryRange returns records in [start, end], most recent first
func (e *StatsEngine) QueryRange(ctx context.Context, start, end time.Time) ([]DrawRecord, error) {
	return e.store.QueryRange(ctx, start, end)
}

// AllRecords returns the full history, most recent first
func (e *StatsEngine) AllRecords(ctx context.Context) ([]DrawRecord, error) {
	return e.store.AllRecords(ctx)
}

// HasHistory reports whether at least one record is stored
func (e *StatsEngine) HasHistory(ctx context.Context) (bool, error) {
	n, err := e.store.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Analyze builds frequency tables over the full history
func (e *StatsEngine) Analyze(ctx context.Context) (*Analysis, error) {
	records, err := e.store.AllRecords(ctx)
	if err != nil {
		return nil, err
	}
	return analyze(records), nil
}

// AnalyzeRange builds frequency tables over the records in [start, end]
func (e *StatsEngine) AnalyzeRange(ctx context.Context, start, end time.Time) (*Analysis, error) {
	records, err := e.store.QueryRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return analyze(records), nil
}

// Pick analyzes the full history and derives the three candidate sets
func (e *StatsEngine) Pick(ctx context.Context) (*PickResult, error) {
	a, err := e.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return e.picker.Pick(a.White, a.Special)
}

// Summary reports the history span, hot and cold numbers and a pick
func (e *StatsEngine) Summary(ctx context.Context) (*Summary, error) {
	records, err := e.store.AllRecords(ctx)
	if err != nil {
		return nil, err
	}
	a := analyze(records)

	pick, err := e.picker.Pick(a.White, a.Special)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		TotalDraws:     a.Draws,
		HotWhite:       a.White.TopN(DefaultRankedCount),
		ColdWhite:      a.White.BottomN(DefaultRankedCount),
		HotSpecial:     a.Special.TopN(1),
		ColdSpecial:    a.Special.BottomN(1),
		MissingWhite:   a.White.Missing(e.game.RankedMin, e.game.RankedMax),
		MissingSpecial: a.Special.Missing(e.game.SpecialMin, e.game.SpecialMax),
		Pick:           pick,
	}
	// records are most recent first
	if len(records) > 0 {
		s.Latest = records[0].Date()
		s.Earliest = records[len(records)-1].Date()
	}
	return s, nil
}

// LatestReport returns the last persisted ingest report
func (e *StatsEngine) LatestReport(ctx context.Context) (*IngestReport, error) {
	if e.reports == nil {
		return nil, ErrStateNotFound.WithDetails("report persistence disabled")
	}
	return e.reports.Latest(ctx)
}

// Close closes the store and any Redis client the engine owns
func (e *StatsEngine) Close() error {
	err := e.store.Close()
	if e.redisClient != nil {
		if cerr := e.redisClient.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func analyze(records []DrawRecord) *Analysis {
	white, special := Analyze(records)
	return &Analysis{Draws: len(records), White: white, Special: special}
}
