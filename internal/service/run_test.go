package service

import (
	"context"
	"errors"
	"mime/multipart"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestParseHints(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "kubernetes", []string{"kubernetes"}},
		{"multiple", "kubernetes, etcd, raft", []string{"kubernetes", "etcd", "raft"}},
		{"extra whitespace", "  foo ,  bar  ", []string{"foo", "bar"}},
		{"empty entries dropped", "foo,,bar,", []string{"foo", "bar"}},
		{"only separators", ", ,", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHints(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseHints(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCreateRunRejectsUnsupportedFormat(t *testing.T) {
	svc := NewRunService(nil, nil, nil, zap.NewNop())

	for _, filename := range []string{"clip.avi", "clip.mkv", "clip.webm", "clip"} {
		file := &multipart.FileHeader{Filename: filename}
		_, err := svc.CreateRun(context.Background(), file, "", 150)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", filename, err)
		}
	}
}

func TestCreateRunRejectsInvalidWPM(t *testing.T) {
	svc := NewRunService(nil, nil, nil, zap.NewNop())

	for _, wpm := range []int{-10, 1, 49, 301, 1000} {
		file := &multipart.FileHeader{Filename: "clip.mp4"}
		_, err := svc.CreateRun(context.Background(), file, "", wpm)
		if !errors.Is(err, ErrInvalidWPM) {
			t.Errorf("wpm=%d: expected ErrInvalidWPM, got %v", wpm, err)
		}
	}
}

func TestCreateRunAcceptsMovExtension(t *testing.T) {
	svc := NewRunService(nil, nil, nil, zap.NewNop())

	// The fake header has no backing file, so the call fails after
	// validation. It must not fail with a validation error.
	file := &multipart.FileHeader{Filename: "CLIP.MOV"}
	_, err := svc.CreateRun(context.Background(), file, "", 0)
	if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrInvalidWPM) {
		t.Fatalf("validation rejected a valid request: %v", err)
	}

	// A failed attempt must release the single-run slot.
	if svc.busy.Load() {
		t.Error("busy flag still set after failed create")
	}
}
