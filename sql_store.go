package lottery

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// drawRow is the persisted layout of a DrawRecord.
// uk_draw_identity enforces uniqueness over the full identity tuple.
type drawRow struct {
	ID            uint      `gorm:"primaryKey"`
	DrawDate      string    `gorm:"column:draw_date;type:varchar(10);not null;index:idx_draw_date;uniqueIndex:uk_draw_identity,priority:1"`
	Number1       int       `gorm:"column:number_1;not null;uniqueIndex:uk_draw_identity,priority:2"`
	Number2       int       `gorm:"column:number_2;not null;uniqueIndex:uk_draw_identity,priority:3"`
	Number3       int       `gorm:"column:number_3;not null;uniqueIndex:uk_draw_identity,priority:4"`
	Number4       int       `gorm:"column:number_4;not null;uniqueIndex:uk_draw_identity,priority:5"`
	Number5       int       `gorm:"column:number_5;not null;uniqueIndex:uk_draw_identity,priority:6"`
	SpecialNumber int       `gorm:"column:special_number;not null;uniqueIndex:uk_draw_identity,priority:7"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (drawRow) TableName() string { return "draws" }

func rowFromRecord(r DrawRecord) drawRow {
	return drawRow{
		DrawDate:      r.Date(),
		Number1:       r.Ranked[0],
		Number2:       r.Ranked[1],
		Number3:       r.Ranked[2],
		Number4:       r.Ranked[3],
		Number5:       r.Ranked[4],
		SpecialNumber: r.Special,
	}
}

func (row drawRow) record() (DrawRecord, error) {
	ranked := [DefaultRankedCount]int{row.Number1, row.Number2, row.Number3, row.Number4, row.Number5}
	return NewDrawRecord(row.DrawDate, ranked, row.SpecialNumber)
}

// SQLStore is a DrawStore backed by a relational database through gorm
type SQLStore struct {
	db     *gorm.DB
	logger Logger
}

// OpenSQLStore opens (and migrates) the database described by cfg
func OpenSQLStore(cfg *StoreConfig, logger Logger) (*SQLStore, error) {
	if cfg == nil {
		cfg = DefaultStoreConfig()
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	dialector, err := sqlDialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, ErrStorageUnavailable.WithDetails(fmt.Sprintf("open %s", cfg.Driver)).WithCause(err)
	}

	if sqlDB, err := db.DB(); err == nil {
		switch {
		case cfg.MaxOpenConns > 0:
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		case cfg.Driver == StoreDriverSQLite || cfg.Driver == "":
			// sqlite allows a single writer
			sqlDB.SetMaxOpenConns(1)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	return NewSQLStore(db, logger)
}

// NewSQLStore wraps an existing gorm handle and ensures the draws table exists
func NewSQLStore(db *gorm.DB, logger Logger) (*SQLStore, error) {
	if db == nil {
		return nil, ErrInvalidParameters.WithDetails("nil database handle")
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	if err := db.AutoMigrate(&drawRow{}); err != nil {
		return nil, ErrStorageUnavailable.WithDetails("migrate draws table").WithCause(err)
	}

	return &SQLStore{db: db, logger: logger}, nil
}

func sqlDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case StoreDriverSQLite, "":
		return sqlite.Open(dsn), nil
	case StoreDriverPostgres:
		return postgres.Open(dsn), nil
	case StoreDriverMySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, ErrConfigInvalid.WithDetails(fmt.Sprintf("unsupported sql driver %q", driver))
	}
}

// Insert adds the record unless an identical one exists.
// The unique index makes the check-and-write atomic.
func (s *SQLStore) Insert(ctx context.Context, record DrawRecord) (InsertOutcome, error) {
	row := rowFromRecord(record)

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return Skipped, ErrStorageUnavailable.WithOperation("insert").WithDetails(record.Key()).WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		s.logger.Debug("Draw already stored, skipping: %s", record.Key())
		return Skipped, nil
	}
	return Inserted, nil
}

// QueryRange returns records dated within [start, end], most recent first
func (s *SQLStore) QueryRange(ctx context.Context, start, end time.Time) ([]DrawRecord, error) {
	start, end = truncateDay(start), truncateDay(end)
	if start.After(end) {
		return []DrawRecord{}, nil
	}

	var rows []drawRow
	err := s.db.WithContext(ctx).
		Where("draw_date >= ? AND draw_date <= ?", start.Format(CanonicalDateLayout), end.Format(CanonicalDateLayout)).
		Order("draw_date desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, ErrStorageUnavailable.WithOperation("query_range").WithCause(err)
	}
	return rowsToRecords(rows)
}

// AllRecords returns every stored record, most recent first
func (s *SQLStore) AllRecords(ctx context.Context) ([]DrawRecord, error) {
	var rows []drawRow
	if err := s.db.WithContext(ctx).Order("draw_date desc, id desc").Find(&rows).Error; err != nil {
		return nil, ErrStorageUnavailable.WithOperation("all_records").WithCause(err)
	}
	return rowsToRecords(rows)
}

// Count returns the number of stored records
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&drawRow{}).Count(&n).Error; err != nil {
		return 0, ErrStorageUnavailable.WithOperation("count").WithCause(err)
	}
	return n, nil
}

// Close closes the underlying sql.DB
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowsToRecords(rows []drawRow) ([]DrawRecord, error) {
	out := make([]DrawRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, ErrStateCorrupted.WithDetails(fmt.Sprintf("draw row %d", row.ID)).WithCause(err)
		}
		out = append(out, rec)
	}
	return out, nil
}
