// Package pipeline runs the five-stage audio replacement chain:
// extract -> transcribe -> correct -> synthesize -> remux. Stages are
// strictly sequential; the first failure aborts the run. There are no
// retries and no resume.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/models"
	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/queue"
)

// MediaTool decodes, resamples and muxes media via the local toolchain.
type MediaTool interface {
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error
	Resample(ctx context.Context, inPath, outPath string, channels, sampleRate int) error
	Remux(ctx context.Context, videoPath, audioPath, outPath string) error
}

// Recognizer transcribes a mono 16 kHz LINEAR16 waveform.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, hints []string) (string, error)
}

// Corrector cleans up a transcript via a language model.
type Corrector interface {
	Configured() bool
	Correct(ctx context.Context, transcript string) (string, error)
}

// Synthesizer converts text to a waveform at a wpm-derived speaking rate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, wpm int) ([]byte, error)
}

// Store records run and stage state transitions.
type Store interface {
	UpdateRunStatus(ctx context.Context, runID uuid.UUID, status models.RunStatus, stage, errorMsg *string) error
	BeginStage(ctx context.Context, runID uuid.UUID, stage string) error
	FinishStage(ctx context.Context, runID uuid.UUID, stage string, status models.StageStatus, errorMsg *string) error
	SaveTranscript(ctx context.Context, runID uuid.UUID, transcript string) error
	SaveCorrectedTranscript(ctx context.Context, runID uuid.UUID, corrected string) error
	SaveArtifactKey(ctx context.Context, runID uuid.UUID, column, key string) error
}

// Uploader stores surfaced artifacts for operator download.
type Uploader interface {
	PutFile(ctx context.Context, key, path, contentType string) error
}

// Notifier publishes run progress events.
type Notifier interface {
	Publish(ctx context.Context, event queue.Event) error
}

// NopNotifier discards events. Used when no broker is configured.
type NopNotifier struct{}

// Publish implements Notifier.
func (NopNotifier) Publish(ctx context.Context, event queue.Event) error { return nil }

// Runner executes runs against injected capability clients.
type Runner struct {
	media       MediaTool
	recognizer  Recognizer
	corrector   Corrector
	synthesizer Synthesizer
	store       Store
	uploader    Uploader
	notifier    Notifier
	timeouts    config.StageTimeouts
	logger      *zap.Logger
}

// New creates a pipeline runner.
func New(media MediaTool, recognizer Recognizer, corrector Corrector, synthesizer Synthesizer,
	store Store, uploader Uploader, notifier Notifier, timeouts config.StageTimeouts, logger *zap.Logger) *Runner {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Runner{
		media:       media,
		recognizer:  recognizer,
		corrector:   corrector,
		synthesizer: synthesizer,
		store:       store,
		uploader:    uploader,
		notifier:    notifier,
		timeouts:    timeouts,
		logger:      logger,
	}
}

// Execute runs the full pipeline for one run. videoPath is the local
// copy of the uploaded source video. All intermediate artifacts live in
// a per-run temporary directory removed on every exit path.
func (r *Runner) Execute(ctx context.Context, run *models.Run, videoPath string, hints []string) error {
	workDir, err := os.MkdirTemp("", "audioswap-"+run.ID.String())
	if err != nil {
		errMsg := err.Error()
		if updateErr := r.store.UpdateRunStatus(ctx, run.ID, models.RunStatusFailed, nil, &errMsg); updateErr != nil {
			r.logger.Error("Failed to update run status", zap.Error(updateErr))
		}
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	monoWav := filepath.Join(workDir, "mono.wav")
	synthWav := filepath.Join(workDir, "synthesized.wav")
	outputVideo := filepath.Join(workDir, "output.mp4")

	// Stage 1: extract and normalize audio.
	err = r.runStage(ctx, run.ID, models.StageExtract, r.timeouts.Extract, func(stageCtx context.Context) error {
		rawWav := filepath.Join(workDir, "extracted.wav")
		if err := r.media.ExtractAudio(stageCtx, videoPath, rawWav); err != nil {
			return err
		}
		if err := r.media.Resample(stageCtx, rawWav, monoWav, 1, 16000); err != nil {
			return err
		}
		key := fmt.Sprintf("audio/%s/preview.wav", run.ID)
		if err := r.uploader.PutFile(stageCtx, key, monoWav, "audio/wav"); err != nil {
			return err
		}
		return r.store.SaveArtifactKey(stageCtx, run.ID, "audio_preview_key", key)
	})
	if err != nil {
		return err
	}

	// Stage 2: transcribe.
	var transcript string
	err = r.runStage(ctx, run.ID, models.StageTranscribe, r.timeouts.Transcribe, func(stageCtx context.Context) error {
		audio, err := os.ReadFile(monoWav)
		if err != nil {
			return fmt.Errorf("failed to read normalized audio: %w", err)
		}
		transcript, err = r.recognizer.Recognize(stageCtx, audio, hints)
		if err != nil {
			return err
		}
		return r.store.SaveTranscript(stageCtx, run.ID, transcript)
	})
	if err != nil {
		return err
	}

	// Stage 3: correct. Skipped when the capability is unconfigured; a
	// failed call aborts the run rather than forwarding an undefined
	// transcript into synthesis.
	corrected := transcript
	err = r.runStage(ctx, run.ID, models.StageCorrect, r.timeouts.Correct, func(stageCtx context.Context) error {
		if !r.corrector.Configured() {
			r.logger.Info("Correction capability not configured, passing transcript through",
				zap.String("run_id", run.ID.String()))
		} else {
			var err error
			corrected, err = r.corrector.Correct(stageCtx, transcript)
			if err != nil {
				return err
			}
		}
		return r.store.SaveCorrectedTranscript(stageCtx, run.ID, corrected)
	})
	if err != nil {
		return err
	}

	// Stage 4: synthesize. Empty text fails before any synthesis call.
	err = r.runStage(ctx, run.ID, models.StageSynthesize, r.timeouts.Synthesize, func(stageCtx context.Context) error {
		audio, err := r.synthesizer.Synthesize(stageCtx, corrected, run.WPM)
		if err != nil {
			return err
		}
		if err := os.WriteFile(synthWav, audio, 0o644); err != nil {
			return fmt.Errorf("failed to write synthesized audio: %w", err)
		}
		key := fmt.Sprintf("audio/%s/synthesized.wav", run.ID)
		if err := r.uploader.PutFile(stageCtx, key, synthWav, "audio/wav"); err != nil {
			return err
		}
		return r.store.SaveArtifactKey(stageCtx, run.ID, "synth_audio_key", key)
	})
	if err != nil {
		return err
	}

	// Stage 5: remux.
	err = r.runStage(ctx, run.ID, models.StageRemux, r.timeouts.Remux, func(stageCtx context.Context) error {
		if err := r.media.Remux(stageCtx, videoPath, synthWav, outputVideo); err != nil {
			return err
		}
		key := fmt.Sprintf("videos/%s/output.mp4", run.ID)
		if err := r.uploader.PutFile(stageCtx, key, outputVideo, "video/mp4"); err != nil {
			return err
		}
		return r.store.SaveArtifactKey(stageCtx, run.ID, "output_video_key", key)
	})
	if err != nil {
		return err
	}

	if err := r.store.UpdateRunStatus(ctx, run.ID, models.RunStatusDone, nil, nil); err != nil {
		return fmt.Errorf("failed to mark run done: %w", err)
	}
	r.notify(ctx, queue.Event{RunID: run.ID.String(), Status: string(models.RunStatusDone)})

	r.logger.Info("Run completed", zap.String("run_id", run.ID.String()))
	return nil
}

// runStage records the stage transition, applies the stage timeout, and
// maps a stage failure onto the run's terminal failed state.
func (r *Runner) runStage(ctx context.Context, runID uuid.UUID, stage string, timeout time.Duration, fn func(context.Context) error) error {
	if err := r.store.UpdateRunStatus(ctx, runID, models.RunStatusRunning, &stage, nil); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	if err := r.store.BeginStage(ctx, runID, stage); err != nil {
		return fmt.Errorf("failed to begin stage: %w", err)
	}
	r.notify(ctx, queue.Event{RunID: runID.String(), Stage: stage, Status: string(models.StageStatusRunning)})

	stageCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	r.logger.Info("Running stage",
		zap.String("run_id", runID.String()),
		zap.String("stage", stage),
		zap.Duration("timeout", timeout),
	)

	startTime := time.Now()
	stageErr := fn(stageCtx)
	duration := time.Since(startTime)

	if stageErr != nil {
		errMsg := stageErr.Error()
		if err := r.store.FinishStage(ctx, runID, stage, models.StageStatusFailed, &errMsg); err != nil {
			r.logger.Error("Failed to update stage status", zap.Error(err))
		}
		if err := r.store.UpdateRunStatus(ctx, runID, models.RunStatusFailed, &stage, &errMsg); err != nil {
			r.logger.Error("Failed to update run status", zap.Error(err))
		}
		r.notify(ctx, queue.Event{RunID: runID.String(), Stage: stage, Status: string(models.StageStatusFailed), Error: errMsg})

		r.logger.Error("Stage failed",
			zap.String("run_id", runID.String()),
			zap.String("stage", stage),
			zap.Duration("duration", duration),
			zap.Error(stageErr),
		)
		return fmt.Errorf("%s stage failed: %w", stage, stageErr)
	}

	if err := r.store.FinishStage(ctx, runID, stage, models.StageStatusSucceeded, nil); err != nil {
		return fmt.Errorf("failed to update stage status: %w", err)
	}
	r.notify(ctx, queue.Event{RunID: runID.String(), Stage: stage, Status: string(models.StageStatusSucceeded)})

	r.logger.Info("Stage completed",
		zap.String("run_id", runID.String()),
		zap.String("stage", stage),
		zap.Duration("duration", duration),
	)
	return nil
}

func (r *Runner) notify(ctx context.Context, event queue.Event) {
	if err := r.notifier.Publish(ctx, event); err != nil {
		r.logger.Warn("Failed to publish run event",
			zap.String("run_id", event.RunID),
			zap.String("stage", event.Stage),
			zap.Error(err),
		)
	}
}
