// Package storage persists the transition audit log of simulation runs
// using GORM and SQLite.
package storage

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// SQLiteAdapter implements ports.Storage using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// TransitionModel is the GORM model for one audit record.
type TransitionModel struct {
	ID            uint   `gorm:"primaryKey"`
	RunID         string `gorm:"index"`
	SimTimeMicros int64
	Device        string
	Peer          string
	Event         string
	State         string
	Band          string
	Detail        string
	CreatedAt     time.Time
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&TransitionModel{}); err != nil {
		return nil, err
	}
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transitions_event ON transition_models(event)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transitions_device ON transition_models(device)")

	return &SQLiteAdapter{db: db}, nil
}

// SaveTransition appends one audit record.
func (a *SQLiteAdapter) SaveTransition(rec domain.TransitionRecord) error {
	model := toModel(rec)
	return a.db.Create(&model).Error
}

// TransitionsForRun returns every record of a run in simulated-time order.
func (a *SQLiteAdapter) TransitionsForRun(runID string) ([]domain.TransitionRecord, error) {
	var models []TransitionModel
	if err := a.db.Where("run_id = ?", runID).Order("sim_time_micros, id").Find(&models).Error; err != nil {
		return nil, err
	}
	recs := make([]domain.TransitionRecord, len(models))
	for i, m := range models {
		recs[i] = toDomain(m)
	}
	return recs, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(rec domain.TransitionRecord) TransitionModel {
	return TransitionModel{
		RunID:         rec.RunID,
		SimTimeMicros: rec.SimTime.Microseconds(),
		Device:        string(rec.Device),
		Peer:          string(rec.Peer),
		Event:         rec.Event,
		State:         rec.State,
		Band:          rec.Band,
		Detail:        rec.Detail,
	}
}

func toDomain(m TransitionModel) domain.TransitionRecord {
	return domain.TransitionRecord{
		RunID:   m.RunID,
		SimTime: time.Duration(m.SimTimeMicros) * time.Microsecond,
		Device:  domain.MacAddr(m.Device),
		Peer:    domain.MacAddr(m.Peer),
		Event:   m.Event,
		State:   m.State,
		Band:    m.Band,
		Detail:  m.Detail,
	}
}

// Ensure interface compliance
var _ ports.Storage = (*SQLiteAdapter)(nil)
