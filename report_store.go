package lottery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ReportStore persists ingest reports in Redis with a TTL
type ReportStore struct {
	redisClient *redis.Client
	logger      Logger
	ttl         time.Duration
}

// NewReportStore creates a report store; ttl <= 0 uses DefaultReportTTL
func NewReportStore(redisClient *redis.Client, ttl time.Duration, logger Logger) *ReportStore {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &ReportStore{redisClient: redisClient, logger: logger, ttl: ttl}
}

func reportKey(runID string) string { return ReportKeyPrefix + runID }

// Save stores the report and marks it as the latest
func (rs *ReportStore) Save(ctx context.Context, report *IngestReport) error {
	if report == nil {
		return ErrInvalidParameters.WithDetails("nil report")
	}
	if err := report.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return ErrSerializationFailed.WithDetails(report.RunID).WithCause(err)
	}
	if len(data) > MaxReportSize {
		return ErrSerializationFailed.WithDetails(
			fmt.Sprintf("report %s is %d bytes, limit %d", report.RunID, len(data), MaxReportSize))
	}

	key := reportKey(report.RunID)
	if err := rs.redisClient.Set(ctx, key, data, rs.ttl).Err(); err != nil {
		rs.logger.Error("Failed to save ingest report: key=%s, size=%d bytes, err=%v", key, len(data), err)
		return ErrStateSaveFailure.WithDetails(key).WithCause(err)
	}
	if err := rs.redisClient.Set(ctx, LatestReportKey, report.RunID, rs.ttl).Err(); err != nil {
		return ErrStateSaveFailure.WithDetails(LatestReportKey).WithCause(err)
	}

	rs.logger.Debug("Saved ingest report: key=%s, size=%d bytes, ttl=%v", key, len(data), rs.ttl)
	return nil
}

// Load returns the report for runID or ErrStateNotFound
func (rs *ReportStore) Load(ctx context.Context, runID string) (*IngestReport, error) {
	if runID == "" {
		return nil, ErrInvalidParameters.WithDetails("empty run id")
	}

	key := reportKey(runID)
	data, err := rs.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound.WithDetails(key)
	}
	if err != nil {
		return nil, ErrStateLoadFailure.WithDetails(key).WithCause(err)
	}
	if len(data) > MaxReportSize {
		return nil, ErrStateCorrupted.WithDetails(fmt.Sprintf("%s is %d bytes", key, len(data)))
	}

	var report IngestReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, ErrDeserializationFailed.WithDetails(key).WithCause(err)
	}
	if err := report.Validate(); err != nil {
		return nil, ErrStateCorrupted.WithDetails(key).WithCause(err)
	}
	return &report, nil
}

// Latest returns the most recently saved report or ErrStateNotFound
func (rs *ReportStore) Latest(ctx context.Context) (*IngestReport, error) {
	runID, err := rs.redisClient.Get(ctx, LatestReportKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound.WithDetails(LatestReportKey)
	}
	if err != nil {
		return nil, ErrStateLoadFailure.WithDetails(LatestReportKey).WithCause(err)
	}
	return rs.Load(ctx, runID)
}
