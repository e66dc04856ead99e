package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrTransient, "maloja", "post scrobble", "backend unreachable", base)

	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected transient marker")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped cause to survive")
	}
	for _, fragment := range []string{"maloja", "post scrobble", "backend unreachable"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in message %q", fragment, err.Error())
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "capture", "read", "", errors.New("eio"))
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker should default to transient")
	}
}
