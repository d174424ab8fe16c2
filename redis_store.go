package lottery

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis layout:
// - RecordsKey   hash   identity key -> JSON DrawRecord
// - DateIndexKey zset   identity key scored by YYYYMMDD
// Both are written by one Lua script, so the uniqueness check and the write are atomic.
const insertDrawScript = `
	if redis.call("HSETNX", KEYS[1], ARGV[1], ARGV[2]) == 1 then
		redis.call("ZADD", KEYS[2], ARGV[3], ARGV[1])
		return 1
	end
	return 0
`

// RedisStore is a DrawStore backed by Redis; durability follows the server's persistence settings
type RedisStore struct {
	redisClient *redis.Client
	recordsKey  string
	indexKey    string
	logger      Logger
}

// NewRedisStore creates a Redis-backed store using the default key names
func NewRedisStore(redisClient *redis.Client, logger Logger) *RedisStore {
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &RedisStore{
		redisClient: redisClient,
		recordsKey:  RecordsKey,
		indexKey:    DateIndexKey,
		logger:      logger,
	}
}

// Insert adds the record unless an identical one exists
func (s *RedisStore) Insert(ctx context.Context, record DrawRecord) (InsertOutcome, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return Skipped, ErrSerializationFailed.WithDetails(record.Key()).WithCause(err)
	}

	key := record.Key()
	score := strconv.FormatInt(dateScore(record.DrawDate), 10)

	result, err := s.redisClient.Eval(ctx, insertDrawScript,
		[]string{s.recordsKey, s.indexKey}, key, string(data), score).Int64()
	if err != nil {
		return Skipped, ErrStorageUnavailable.WithOperation("insert").WithDetails(key).WithCause(err)
	}

	if result == 0 {
		s.logger.Debug("Draw already stored, skipping: %s", key)
		return Skipped, nil
	}
	return Inserted, nil
}

// QueryRange returns records dated within [start, end], most recent first
func (s *RedisStore) QueryRange(ctx context.Context, start, end time.Time) ([]DrawRecord, error) {
	start, end = truncateDay(start), truncateDay(end)
	if start.After(end) {
		return []DrawRecord{}, nil
	}

	keys, err := s.redisClient.ZRevRangeByScore(ctx, s.indexKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(dateScore(start), 10),
		Max: strconv.FormatInt(dateScore(end), 10),
	}).Result()
	if err != nil {
		return nil, ErrStorageUnavailable.WithOperation("query_range").WithCause(err)
	}
	return s.load(ctx, keys)
}

// AllRecords returns every stored record, most recent first
func (s *RedisStore) AllRecords(ctx context.Context) ([]DrawRecord, error) {
	keys, err := s.redisClient.ZRevRange(ctx, s.indexKey, 0, -1).Result()
	if err != nil {
		return nil, ErrStorageUnavailable.WithOperation("all_records").WithCause(err)
	}
	return s.load(ctx, keys)
}

// Count returns the number of stored records
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	n, err := s.redisClient.ZCard(ctx, s.indexKey).Result()
	if err != nil {
		return 0, ErrStorageUnavailable.WithOperation("count").WithCause(err)
	}
	return n, nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error { return s.redisClient.Close() }

// load fetches the JSON bodies for keys, keeping the order of keys
func (s *RedisStore) load(ctx context.Context, keys []string) ([]DrawRecord, error) {
	if len(keys) == 0 {
		return []DrawRecord{}, nil
	}

	values, err := s.redisClient.HMGet(ctx, s.recordsKey, keys...).Result()
	if err != nil {
		return nil, ErrStorageUnavailable.WithOperation("load").WithCause(err)
	}

	out := make([]DrawRecord, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a body
			return nil, ErrStateCorrupted.WithDetails(fmt.Sprintf("missing record body for %s", keys[i]))
		}

		var rec DrawRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, ErrDeserializationFailed.WithDetails(keys[i]).WithCause(err)
		}
		out = append(out, rec)
	}
	return out, nil
}
