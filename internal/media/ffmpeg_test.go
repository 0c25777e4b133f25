package media

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractArgs(t *testing.T) {
	args := extractArgs("in.mp4", "out.wav")
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-i in.mp4") {
		t.Errorf("missing input flag in %q", joined)
	}
	if !strings.Contains(joined, "-vn") {
		t.Errorf("video stream not suppressed in %q", joined)
	}
	if !strings.Contains(joined, "-acodec pcm_s16le") {
		t.Errorf("missing PCM codec in %q", joined)
	}
	if args[len(args)-1] != "out.wav" {
		t.Errorf("output path must come last, got %q", args[len(args)-1])
	}
}

func TestResampleArgs(t *testing.T) {
	args := resampleArgs("in.wav", "mono.wav", 1, 16000)
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-ac 1") {
		t.Errorf("missing mono downmix in %q", joined)
	}
	if !strings.Contains(joined, "-ar 16000") {
		t.Errorf("missing 16 kHz resample in %q", joined)
	}
}

func TestRemuxArgs(t *testing.T) {
	args := remuxArgs("in.mp4", "synth.wav", "out.mp4")
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-i in.mp4 -i synth.wav") {
		t.Errorf("inputs out of order in %q", joined)
	}
	if !strings.Contains(joined, "-c:v libx264") || !strings.Contains(joined, "-c:a aac") {
		t.Errorf("missing codec selection in %q", joined)
	}
	if !strings.Contains(joined, "-map 0:v:0") || !strings.Contains(joined, "-map 1:a:0") {
		t.Errorf("missing stream mapping in %q", joined)
	}
	if strings.Contains(joined, "-shortest") {
		t.Errorf("output must not be trimmed to the shorter stream: %q", joined)
	}
}

func TestDecodeErrorUnwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &DecodeError{Output: "no audio stream found", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("DecodeError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "no audio stream found") {
		t.Errorf("diagnostic output missing from %q", err.Error())
	}
}

func TestEncodeErrorUnwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &EncodeError{Output: "unsupported codec", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("EncodeError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "unsupported codec") {
		t.Errorf("diagnostic output missing from %q", err.Error())
	}
}
