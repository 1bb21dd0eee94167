package services_test

import (
	"errors"
	"testing"

	"clipforge/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	cause := errors.New("exit status 1")
	err := services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "clip render failed", cause)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected external tool marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause")
	}
	want := "external tool error: render: ffmpeg: clip render failed: exit status 1"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "transcribe", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestUserMessageStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrUnavailable, "", "", "No input file available for processing.", nil)
	if got := services.UserMessage(err); got != "No input file available for processing." {
		t.Fatalf("unexpected user message: %q", got)
	}
	if got := services.UserMessage(nil); got != "" {
		t.Fatalf("expected empty for nil, got %q", got)
	}
}
