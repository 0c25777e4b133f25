package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunStatusCreated RunStatus = "created"
	RunStatusRunning RunStatus = "running"
	RunStatusFailed  RunStatus = "failed"
	RunStatusDone    RunStatus = "done"
)

// Stage names, in pipeline order.
const (
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StageCorrect    = "correct"
	StageSynthesize = "synthesize"
	StageRemux      = "remux"
)

// Stages lists the pipeline stages in execution order.
var Stages = []string{StageExtract, StageTranscribe, StageCorrect, StageSynthesize, StageRemux}

// Run represents a single audio-replacement run.
type Run struct {
	ID                  uuid.UUID `json:"run_id" db:"id"`
	Status              RunStatus `json:"status" db:"status"`
	Stage               *string   `json:"stage,omitempty" db:"stage"`
	Error               *string   `json:"error,omitempty" db:"error"`
	WPM                 int       `json:"wpm" db:"wpm"`
	ContextHints        string    `json:"context_hints" db:"context_hints"`
	SourceVideoKey      string    `json:"-" db:"source_video_key"`
	AudioPreviewKey     *string   `json:"-" db:"audio_preview_key"`
	Transcript          *string   `json:"transcript,omitempty" db:"transcript"`
	CorrectedTranscript *string   `json:"corrected_transcript,omitempty" db:"corrected_transcript"`
	SynthAudioKey       *string   `json:"-" db:"synth_audio_key"`
	OutputVideoKey      *string   `json:"-" db:"output_video_key"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// StageStatus represents the status of a run stage.
type StageStatus string

const (
	StageStatusRunning   StageStatus = "running"
	StageStatusSucceeded StageStatus = "succeeded"
	StageStatusFailed    StageStatus = "failed"
)

// RunStage records one stage execution within a run. There is at most
// one record per (run, stage): stages are never retried.
type RunStage struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	RunID     uuid.UUID   `json:"run_id" db:"run_id"`
	Stage     string      `json:"stage" db:"stage"`
	Status    StageStatus `json:"status" db:"status"`
	StartedAt time.Time   `json:"started_at" db:"started_at"`
	EndedAt   *time.Time  `json:"ended_at,omitempty" db:"ended_at"`
	Error     *string     `json:"error,omitempty" db:"error"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}
