package lottery

import (
	"context"
	"sort"
	"sync"
	"time"
)

// fakeStore is an in-memory DrawStore with injectable failures
type fakeStore struct {
	mu        sync.Mutex
	records   map[string]DrawRecord
	insertErr error
	readErr   error
	failAfter int // Insert fails once this many inserts succeeded; 0 disables
	failTimes int // the next failTimes inserts fail with ErrStorageUnavailable
	inserts   int
	closed    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]DrawRecord)}
}

func (s *fakeStore) Insert(_ context.Context, record DrawRecord) (InsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failTimes > 0 {
		s.failTimes--
		return Skipped, ErrStorageUnavailable
	}
	if s.insertErr != nil && (s.failAfter == 0 || s.inserts >= s.failAfter) {
		return Skipped, s.insertErr
	}
	s.inserts++
	if _, ok := s.records[record.Key()]; ok {
		return Skipped, nil
	}
	s.records[record.Key()] = record
	return Inserted, nil
}

func (s *fakeStore) QueryRange(ctx context.Context, start, end time.Time) ([]DrawRecord, error) {
	all, err := s.AllRecords(ctx)
	if err != nil {
		return nil, err
	}
	start, end = truncateDay(start), truncateDay(end)
	out := []DrawRecord{}
	for _, r := range all {
		if !r.DrawDate.Before(start) && !r.DrawDate.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) AllRecords(context.Context) ([]DrawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]DrawRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DrawDate.Equal(out[j].DrawDate) {
			return out[i].DrawDate.After(out[j].DrawDate)
		}
		return out[i].Key() < out[j].Key()
	})
	return out, nil
}

func (s *fakeStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return 0, s.readErr
	}
	return int64(len(s.records)), nil
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
