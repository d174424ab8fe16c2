package lottery

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *IngestReport {
	start := time.Date(2024, 1, 7, 8, 0, 0, 0, time.UTC)
	return &IngestReport{
		RunID:      "run-1",
		Game:       DefaultGameName,
		StartTime:  start,
		FinishTime: start.Add(time.Second),
		Received:   3,
		Inserted:   1,
		Skipped:    1,
		Rejected:   1,
		Rejections: []Rejection{{
			Index:     2,
			Candidate: Candidate{DateString: "01/02/2024", Numbers: []int{1, 2, 3, 4, 5, 6}},
			ErrorMsg:  "date is not a drawing day",
		}},
	}
}

func TestReportStore_Save(t *testing.T) {
	ctx := context.Background()
	report := sampleReport()
	data, err := json.Marshal(report)
	require.NoError(t, err)

	tests := []struct {
		name    string
		report  *IngestReport
		setup   func(mock redismock.ClientMock)
		wantErr error
	}{
		{
			name:   "saves report and latest pointer",
			report: report,
			setup: func(mock redismock.ClientMock) {
				mock.ExpectSet(ReportKeyPrefix+"run-1", data, time.Hour).SetVal("OK")
				mock.ExpectSet(LatestReportKey, "run-1", time.Hour).SetVal("OK")
			},
		},
		{
			name:   "redis failure",
			report: report,
			setup: func(mock redismock.ClientMock) {
				mock.ExpectSet(ReportKeyPrefix+"run-1", data, time.Hour).SetErr(errors.New("connection reset"))
			},
			wantErr: ErrStateSaveFailure,
		},
		{
			name:    "nil report",
			report:  nil,
			setup:   func(redismock.ClientMock) {},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "inconsistent counters",
			report:  &IngestReport{RunID: "run-2", Received: 1, Inserted: 2},
			setup:   func(redismock.ClientMock) {},
			wantErr: ErrInvalidParameters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			rs := NewReportStore(db, time.Hour, NewSilentLogger())
			tt.setup(mock)

			err := rs.Save(ctx, tt.report)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReportStore_SaveTooLarge(t *testing.T) {
	db, _ := redismock.NewClientMock()
	rs := NewReportStore(db, 0, nil)

	report := &IngestReport{RunID: "big", Received: 1, Rejected: 1, Rejections: []Rejection{{
		Candidate: Candidate{DateString: strings.Repeat("x", MaxReportSize)},
	}}}
	assert.ErrorIs(t, rs.Save(context.Background(), report), ErrSerializationFailed)
}

func TestReportStore_Load(t *testing.T) {
	ctx := context.Background()
	report := sampleReport()
	data, err := json.Marshal(report)
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		rs := NewReportStore(db, time.Hour, nil)
		mock.ExpectGet(ReportKeyPrefix + "run-1").SetVal(string(data))

		got, err := rs.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, report.RunID, got.RunID)
		assert.Equal(t, report.Inserted, got.Inserted)
		assert.True(t, report.StartTime.Equal(got.StartTime))
		require.Len(t, got.Rejections, 1)
		assert.Equal(t, 2, got.Rejections[0].Index)
		assert.Equal(t, time.Second, got.Duration())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		rs := NewReportStore(db, time.Hour, nil)
		mock.ExpectGet(ReportKeyPrefix + "missing").RedisNil()

		_, err := rs.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrStateNotFound)
		assert.NotErrorIs(t, err, redis.Nil)
	})

	t.Run("corrupted json", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		rs := NewReportStore(db, time.Hour, nil)
		mock.ExpectGet(ReportKeyPrefix + "run-1").SetVal("{broken")

		_, err := rs.Load(ctx, "run-1")
		assert.ErrorIs(t, err, ErrDeserializationFailed)
	})

	t.Run("redis failure", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		rs := NewReportStore(db, time.Hour, nil)
		mock.ExpectGet(ReportKeyPrefix + "run-1").SetErr(errors.New("redis: client is closed"))

		_, err := rs.Load(ctx, "run-1")
		assert.ErrorIs(t, err, ErrStateLoadFailure)
	})
}

func TestReportStore_Latest(t *testing.T) {
	ctx := context.Background()
	data, err := json.Marshal(sampleReport())
	require.NoError(t, err)

	t.Run("follows pointer", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		rs := NewReportStore(db, time.Hour, nil)
		mock.ExpectGet(LatestReportKey).SetVal("run-1")
		mock.ExpectGet(ReportKeyPrefix + "run-1").SetVal(string(data))

		got, err := rs.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-1", got.RunID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing saved yet", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		rs := NewReportStore(db, time.Hour, nil)
		mock.ExpectGet(LatestReportKey).RedisNil()

		_, err := rs.Latest(ctx)
		assert.ErrorIs(t, err, ErrStateNotFound)
	})
}

func TestIngestReport_Validate(t *testing.T) {
	r := sampleReport()
	assert.NoError(t, r.Validate())
	assert.True(t, r.IsComplete())
	assert.Equal(t, 3, r.Processed())

	r.Rejections = nil
	assert.ErrorIs(t, r.Validate(), ErrInvalidParameters)

	assert.Equal(t, time.Duration(0), (&IngestReport{StartTime: time.Now()}).Duration())
}
