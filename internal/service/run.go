package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/models"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/pipeline"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/storage"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/store"
)

var (
	// ErrRunNotFound is returned when a run does not exist.
	ErrRunNotFound = store.ErrRunNotFound
	// ErrPipelineBusy is returned when a run is already in flight.
	// Execution is single-tenant: one run per process.
	ErrPipelineBusy = errors.New("a run is already in progress")
	// ErrUnsupportedFormat is returned for video containers outside the allow-list.
	ErrUnsupportedFormat = errors.New("unsupported video format")
	// ErrInvalidWPM is returned when wpm falls outside [50, 300].
	ErrInvalidWPM = errors.New("wpm must be between 50 and 300")
	// ErrArtifactNotReady is returned when a requested artifact has not been produced.
	ErrArtifactNotReady = errors.New("artifact not available")
)

// DefaultWPM is the speaking pace used when the operator supplies none.
const DefaultWPM = 150

const (
	minWPM = 50
	maxWPM = 300
)

var allowedExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
}

// RunService owns the run lifecycle: validation, persistence, and
// launching the pipeline.
type RunService struct {
	store   *store.Store
	storage *storage.Service
	runner  *pipeline.Runner
	logger  *zap.Logger
	busy    atomic.Bool
}

// NewRunService creates a new run service.
func NewRunService(st *store.Store, storage *storage.Service, runner *pipeline.Runner, logger *zap.Logger) *RunService {
	return &RunService{
		store:   st,
		storage: storage,
		runner:  runner,
		logger:  logger,
	}
}

// CreateRun validates the request, persists the run, uploads the source
// video, and starts the pipeline in the background. Only one run may be
// in flight at a time.
func (s *RunService) CreateRun(ctx context.Context, file *multipart.FileHeader, hints string, wpm int) (*models.Run, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if wpm == 0 {
		wpm = DefaultWPM
	}
	if wpm < minWPM || wpm > maxWPM {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWPM, wpm)
	}

	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrPipelineBusy
	}

	runID := uuid.New()
	uploadDir, err := os.MkdirTemp("", "upload-"+runID.String())
	if err != nil {
		s.busy.Store(false)
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	videoPath := filepath.Join(uploadDir, "source"+ext)
	if err := saveUpload(file, videoPath); err != nil {
		os.RemoveAll(uploadDir)
		s.busy.Store(false)
		return nil, err
	}

	videoKey := fmt.Sprintf("videos/%s/source%s", runID, ext)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	if err := s.storage.PutFile(ctx, videoKey, videoPath, contentType); err != nil {
		os.RemoveAll(uploadDir)
		s.busy.Store(false)
		return nil, fmt.Errorf("failed to upload source video: %w", err)
	}

	run := &models.Run{
		ID:             runID,
		Status:         models.RunStatusCreated,
		WPM:            wpm,
		ContextHints:   hints,
		SourceVideoKey: videoKey,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		os.RemoveAll(uploadDir)
		s.busy.Store(false)
		return nil, err
	}

	go func() {
		defer s.busy.Store(false)
		defer os.RemoveAll(uploadDir)

		if err := s.runner.Execute(context.Background(), run, videoPath, ParseHints(hints)); err != nil {
			s.logger.Error("Run failed",
				zap.String("run_id", runID.String()),
				zap.Error(err),
			)
		}
	}()

	return run, nil
}

// GetRunWithStages retrieves a run and its stage records.
func (s *RunService) GetRunWithStages(ctx context.Context, runID uuid.UUID) (*models.Run, []models.RunStage, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	stages, err := s.store.GetRunStages(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return run, stages, nil
}

// ListRuns lists runs with pagination.
func (s *RunService) ListRuns(ctx context.Context, page, pageSize int) ([]models.Run, int, error) {
	return s.store.ListRuns(ctx, page, pageSize)
}

// DeleteRun deletes a run and its stage records.
func (s *RunService) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	return s.store.DeleteRun(ctx, runID)
}

// GetDownloadURL generates a presigned URL for a surfaced artifact.
func (s *RunService) GetDownloadURL(ctx context.Context, runID uuid.UUID, artifactType string) (string, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}

	var key string
	switch artifactType {
	case "video":
		if run.OutputVideoKey == nil {
			return "", ErrArtifactNotReady
		}
		key = *run.OutputVideoKey
	case "audio":
		if run.SynthAudioKey == nil {
			return "", ErrArtifactNotReady
		}
		key = *run.SynthAudioKey
	case "preview":
		if run.AudioPreviewKey == nil {
			return "", ErrArtifactNotReady
		}
		key = *run.AudioPreviewKey
	case "source":
		key = run.SourceVideoKey
	default:
		return "", fmt.Errorf("invalid artifact type: %s", artifactType)
	}

	url, err := s.storage.PresignedGetURL(ctx, key, time.Hour)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

// ParseHints splits comma-separated hint phrases, trimming whitespace
// and dropping empty entries.
func ParseHints(hints string) []string {
	if hints == "" {
		return nil
	}
	var phrases []string
	for _, phrase := range strings.Split(hints, ",") {
		phrase = strings.TrimSpace(phrase)
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

func saveUpload(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write uploaded file: %w", err)
	}
	return nil
}
