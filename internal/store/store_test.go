package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(&DB{db}), mock
}

func TestCreateRun(t *testing.T) {
	store, mock := newMockStore(t)

	run := &models.Run{
		ID:             uuid.New(),
		Status:         models.RunStatusCreated,
		WPM:            150,
		ContextHints:   "fox, dog",
		SourceVideoKey: "videos/x/source.mp4",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(run.ID, run.Status, run.WPM, run.ContextHints, run.SourceVideoKey, run.CreatedAt, run.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("CreateRun returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	runID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM runs WHERE id").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetRun(context.Background(), runID)
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetRun(t *testing.T) {
	store, mock := newMockStore(t)
	runID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "status", "stage", "error", "wpm", "context_hints",
		"source_video_key", "audio_preview_key", "transcript", "corrected_transcript",
		"synth_audio_key", "output_video_key", "created_at", "updated_at",
	}).AddRow(
		runID, "done", nil, nil, 150, "",
		"videos/x/source.mp4", "audio/x/preview.wav", "hello", "Hello.",
		"audio/x/synthesized.wav", "videos/x/output.mp4", now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM runs WHERE id").
		WithArgs(runID).
		WillReturnRows(rows)

	run, err := store.GetRun(context.Background(), runID)
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if run.Status != models.RunStatusDone {
		t.Errorf("unexpected status %s", run.Status)
	}
	if run.OutputVideoKey == nil || *run.OutputVideoKey != "videos/x/output.mp4" {
		t.Errorf("unexpected output video key %v", run.OutputVideoKey)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBeginAndFinishStage(t *testing.T) {
	store, mock := newMockStore(t)
	runID := uuid.New()

	mock.ExpectExec("INSERT INTO run_stages").
		WithArgs(runID, models.StageTranscribe, models.StageStatusRunning,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.BeginStage(context.Background(), runID, models.StageTranscribe); err != nil {
		t.Fatalf("BeginStage returned error: %v", err)
	}

	mock.ExpectExec("UPDATE run_stages SET").
		WithArgs(models.StageStatusSucceeded, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), runID, models.StageTranscribe).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.FinishStage(context.Background(), runID, models.StageTranscribe, models.StageStatusSucceeded, nil); err != nil {
		t.Fatalf("FinishStage returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateRunStatusFailed(t *testing.T) {
	store, mock := newMockStore(t)
	runID := uuid.New()
	stage := models.StageSynthesize
	errMsg := "synthesize stage failed: synthesis text is empty"

	mock.ExpectExec("UPDATE runs SET status").
		WithArgs(models.RunStatusFailed, &stage, &errMsg, sqlmock.AnyArg(), runID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.UpdateRunStatus(context.Background(), runID, models.RunStatusFailed, &stage, &errMsg); err != nil {
		t.Fatalf("UpdateRunStatus returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveArtifactKeyUnknownColumn(t *testing.T) {
	store, _ := newMockStore(t)

	err := store.SaveArtifactKey(context.Background(), uuid.New(), "bogus_column", "key")
	if err == nil {
		t.Fatal("expected error for unknown artifact column")
	}
}

func TestDeleteRunNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	runID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := store.DeleteRun(context.Background(), runID)
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteRun(t *testing.T) {
	store, mock := newMockStore(t)
	runID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM runs").
		WithArgs(runID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteRun(context.Background(), runID); err != nil {
		t.Fatalf("DeleteRun returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
