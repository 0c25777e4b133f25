package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/models"
)

// ErrRunNotFound is returned when a run does not exist.
var ErrRunNotFound = errors.New("run not found")

// DB wraps the database connection.
type DB struct {
	*sql.DB
}

// New creates a new database connection.
func New(cfg config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// Store persists runs and their stage records.
type Store struct {
	db *DB
}

// NewStore creates a store backed by the given database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// CreateRun inserts a new run record.
func (s *Store) CreateRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (id, status, wpm, context_hints, source_video_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := s.db.ExecContext(ctx, query,
		run.ID, run.Status, run.WPM, run.ContextHints, run.SourceVideoKey,
		run.CreatedAt, run.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error) {
	query := `
		SELECT id, status, stage, error, wpm, context_hints,
		       source_video_key, audio_preview_key, transcript, corrected_transcript,
		       synth_audio_key, output_video_key, created_at, updated_at
		FROM runs WHERE id = $1
	`
	var run models.Run
	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID, &run.Status, &run.Stage, &run.Error, &run.WPM, &run.ContextHints,
		&run.SourceVideoKey, &run.AudioPreviewKey, &run.Transcript, &run.CorrectedTranscript,
		&run.SynthAudioKey, &run.OutputVideoKey, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// GetRunStages retrieves the stage records of a run in execution order.
func (s *Store) GetRunStages(ctx context.Context, runID uuid.UUID) ([]models.RunStage, error) {
	query := `
		SELECT id, run_id, stage, status, started_at, ended_at, error, created_at, updated_at
		FROM run_stages WHERE run_id = $1 ORDER BY started_at
	`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run stages: %w", err)
	}
	defer rows.Close()

	var stages []models.RunStage
	for rows.Next() {
		var stage models.RunStage
		if err := rows.Scan(
			&stage.ID, &stage.RunID, &stage.Stage, &stage.Status,
			&stage.StartedAt, &stage.EndedAt, &stage.Error,
			&stage.CreatedAt, &stage.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// ListRuns lists runs with pagination, newest first.
func (s *Store) ListRuns(ctx context.Context, page, pageSize int) ([]models.Run, int, error) {
	offset := (page - 1) * pageSize

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	query := `
		SELECT id, status, stage, error, wpm, created_at, updated_at
		FROM runs ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		if err := rows.Scan(
			&run.ID, &run.Status, &run.Stage, &run.Error, &run.WPM,
			&run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

// UpdateRunStatus updates the run status, current stage and error.
func (s *Store) UpdateRunStatus(ctx context.Context, runID uuid.UUID, status models.RunStatus, stage, errorMsg *string) error {
	query := `UPDATE runs SET status = $1, stage = $2, error = $3, updated_at = $4 WHERE id = $5`
	if _, err := s.db.ExecContext(ctx, query, status, stage, errorMsg, time.Now(), runID); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// BeginStage inserts a running stage record.
func (s *Store) BeginStage(ctx context.Context, runID uuid.UUID, stage string) error {
	now := time.Now()
	query := `
		INSERT INTO run_stages (run_id, stage, status, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query,
		runID, stage, models.StageStatusRunning, now, now, now,
	); err != nil {
		return fmt.Errorf("failed to insert stage: %w", err)
	}
	return nil
}

// FinishStage marks a stage record as succeeded or failed.
func (s *Store) FinishStage(ctx context.Context, runID uuid.UUID, stage string, status models.StageStatus, errorMsg *string) error {
	now := time.Now()
	query := `
		UPDATE run_stages SET status = $1, ended_at = $2, error = $3, updated_at = $4
		WHERE run_id = $5 AND stage = $6
	`
	if _, err := s.db.ExecContext(ctx, query, status, now, errorMsg, now, runID, stage); err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	return nil
}

// SaveTranscript records the raw transcript of a run.
func (s *Store) SaveTranscript(ctx context.Context, runID uuid.UUID, transcript string) error {
	query := `UPDATE runs SET transcript = $1, updated_at = $2 WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, transcript, time.Now(), runID); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// SaveCorrectedTranscript records the corrected transcript of a run.
func (s *Store) SaveCorrectedTranscript(ctx context.Context, runID uuid.UUID, corrected string) error {
	query := `UPDATE runs SET corrected_transcript = $1, updated_at = $2 WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, corrected, time.Now(), runID); err != nil {
		return fmt.Errorf("failed to save corrected transcript: %w", err)
	}
	return nil
}

// SaveArtifactKey records an uploaded artifact's object key on the run.
func (s *Store) SaveArtifactKey(ctx context.Context, runID uuid.UUID, column, key string) error {
	var query string
	switch column {
	case "audio_preview_key":
		query = `UPDATE runs SET audio_preview_key = $1, updated_at = $2 WHERE id = $3`
	case "synth_audio_key":
		query = `UPDATE runs SET synth_audio_key = $1, updated_at = $2 WHERE id = $3`
	case "output_video_key":
		query = `UPDATE runs SET output_video_key = $1, updated_at = $2 WHERE id = $3`
	default:
		return fmt.Errorf("unknown artifact column: %s", column)
	}
	if _, err := s.db.ExecContext(ctx, query, key, time.Now(), runID); err != nil {
		return fmt.Errorf("failed to save artifact key: %w", err)
	}
	return nil
}

// DeleteRun deletes a run and its stage records.
func (s *Store) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM runs WHERE id = $1)`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check run existence: %w", err)
	}
	if !exists {
		return ErrRunNotFound
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = $1`, runID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
