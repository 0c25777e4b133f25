// Package media wraps the local ffmpeg toolchain as a capability so the
// pipeline can be tested without it and the binary swapped without
// touching pipeline logic.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"go.uber.org/zap"

	"github.com/jatayu1/AI-Video-Audio-Replacement/internal/config"
)

// DecodeError reports a toolchain failure while decoding or resampling
// audio, carrying the toolchain's diagnostic output.
type DecodeError struct {
	Output string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("media decode failed: %v: %s", e.Err, e.Output)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a toolchain failure while re-encoding or muxing.
type EncodeError struct {
	Output string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("media encode failed: %v: %s", e.Err, e.Output)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Tool invokes ffmpeg for decode, resample and mux operations.
type Tool struct {
	path   string
	logger *zap.Logger
}

// NewTool creates a new media tool.
func NewTool(cfg config.FFmpegConfig, logger *zap.Logger) *Tool {
	return &Tool{
		path:   cfg.Path,
		logger: logger,
	}
}

// ExtractAudio decodes the video's audio stream to a PCM wav file at the
// source channel count and sample rate. Fails when the video has no
// audio stream.
func (t *Tool) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	args := extractArgs(videoPath, wavPath)
	if output, err := t.run(ctx, args); err != nil {
		return &DecodeError{Output: output, Err: err}
	}
	return nil
}

// Resample re-channels and re-samples a wav file. The transcription
// capability requires mono 16000 Hz input.
func (t *Tool) Resample(ctx context.Context, inPath, outPath string, channels, sampleRate int) error {
	args := resampleArgs(inPath, outPath, channels, sampleRate)
	if output, err := t.run(ctx, args); err != nil {
		return &DecodeError{Output: output, Err: err}
	}
	return nil
}

// Remux attaches the given audio as the sole audio track of the video,
// re-encoding with libx264 and aac. The new audio is not trimmed or
// stretched to the video duration; the container follows ffmpeg's
// default longest-stream behavior.
func (t *Tool) Remux(ctx context.Context, videoPath, audioPath, outPath string) error {
	args := remuxArgs(videoPath, audioPath, outPath)
	if output, err := t.run(ctx, args); err != nil {
		return &EncodeError{Output: output, Err: err}
	}
	return nil
}

func extractArgs(videoPath, wavPath string) []string {
	return []string{
		"-i", videoPath,
		"-vn",                  // No video
		"-acodec", "pcm_s16le", // PCM 16-bit
		"-y", // Overwrite
		wavPath,
	}
}

func resampleArgs(inPath, outPath string, channels, sampleRate int) []string {
	return []string{
		"-i", inPath,
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-y",
		outPath,
	}
}

func remuxArgs(videoPath, audioPath, outPath string) []string {
	return []string{
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-map", "0:v:0", // Video from first input
		"-map", "1:a:0", // Audio from second input
		"-y",
		outPath,
	}
}

// run executes ffmpeg and returns its stderr output for diagnostics.
func (t *Tool) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, t.path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	t.logger.Debug("Running ffmpeg", zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		return stderr.String(), err
	}
	return stderr.String(), nil
}
