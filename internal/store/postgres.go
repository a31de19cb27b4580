package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	logging "github.com/patmartin03-stack/shadowai-experiment/internal/logging"
	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

// eventRow mirrors the spreadsheet event columns in the events table.
type eventRow struct {
	ID              uint   `gorm:"primaryKey"`
	Timestamp       string `gorm:"index"`
	SubjectID       string `gorm:"index"`
	Policy          string
	Event           string
	TrialIndex      string
	TimeOnScreenSec string
	ElementClicked  string
	PayloadJSON     string `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

func (eventRow) TableName() string { return "events" }

// resultRow is one finalized session. One row per subject; a repeated
// finalize merge-upserts over the previous submission.
type resultRow struct {
	ID        uint   `gorm:"primaryKey"`
	Timestamp string
	SubjectID string `gorm:"uniqueIndex"`
	Policy    string

	DOB      string
	Sex      string
	Studies  string
	GradYear string
	Uni      string
	Field    string
	City     string
	GPA      string

	TaskText  string `gorm:"type:text"`
	Words     int
	EditCount int

	AIGeneratedPct   float64
	AIParaphrasedPct float64

	NoticedPolicy  string
	UsedAIButton   string
	UsedExternalAI string

	PersonalityQ1 string
	PersonalityQ2 string
	PersonalityQ3 string

	// The attitude scale varied in length across study revisions, so it is
	// stored as one ordered array column instead of fixed columns.
	AttitudeAnswers pq.StringArray `gorm:"type:text[]"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (resultRow) TableName() string { return "results" }

// PostgresStore persists to a Supabase (or any) Postgres database over a
// direct connection.
type PostgresStore struct {
	log *zap.Logger
	db  *gorm.DB
	dsn string
}

// NewPostgresStore connects and migrates the two tables.
func NewPostgresStore(dsn string, log *zap.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: SUPABASE_DB_URL not set", ErrUnavailable)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logging.NewGormZapLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %v", ErrUnavailable, err)
	}

	if err := db.AutoMigrate(&eventRow{}, &resultRow{}); err != nil {
		return nil, fmt.Errorf("running database migrations: %w", err)
	}
	log.Info("Database connection established and migrations completed.")

	return &PostgresStore{log: log, db: db, dsn: dsn}, nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Configured() bool { return s.dsn != "" }

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AppendEvents inserts the drained batch in one statement.
func (s *PostgresStore) AppendEvents(ctx context.Context, events []models.Event) error {
	rows := make([]eventRow, len(events))
	for i, ev := range events {
		rows[i] = eventRow{
			Timestamp:       ev.Timestamp,
			SubjectID:       ev.SubjectID,
			Policy:          ev.Policy,
			Event:           ev.EventType,
			TrialIndex:      ev.TrialIndex,
			TimeOnScreenSec: ev.TimeOnScreenSec,
			ElementClicked:  ev.ElementClicked,
			PayloadJSON:     ev.PayloadJSON,
		}
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("%w: bulk insert of %d events: %v", ErrUnavailable, len(rows), err)
	}
	return nil
}

// WriteResult upserts the session summary keyed by subject_id.
func (s *PostgresStore) WriteResult(ctx context.Context, result models.Result) error {
	row := resultRow{
		Timestamp: result.Timestamp,
		SubjectID: result.SubjectID,
		Policy:    result.Policy,

		DOB:      result.DOB,
		Sex:      result.Sex,
		Studies:  result.Studies,
		GradYear: result.GradYear,
		Uni:      result.Uni,
		Field:    result.Field,
		City:     result.City,
		GPA:      result.GPA,

		TaskText:  result.TaskText,
		Words:     result.Words,
		EditCount: result.EditCount,

		AIGeneratedPct:   result.AIGeneratedPct,
		AIParaphrasedPct: result.AIParaphrasedPct,

		NoticedPolicy:  result.NoticedPolicy,
		UsedAIButton:   result.UsedAIButton,
		UsedExternalAI: result.UsedExternalAI,

		PersonalityQ1: result.PersonalityQ1,
		PersonalityQ2: result.PersonalityQ2,
		PersonalityQ3: result.PersonalityQ3,

		AttitudeAnswers: pq.StringArray(result.AttitudeAnswers()),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: writing result for %s: %v", ErrUnavailable, result.SubjectID, err)
	}
	return nil
}
