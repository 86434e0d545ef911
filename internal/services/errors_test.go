package services_test

import (
	"errors"
	"strings"
	"testing"

	"bindery/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "lookup", "search", "provider unreachable", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"lookup", "search", "provider unreachable"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "store", "save", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestFatalClassification(t *testing.T) {
	cfgErr := services.Wrap(services.ErrConfiguration, "llm", "init", "unsupported backend", nil)
	if !services.Fatal(cfgErr) {
		t.Fatalf("expected configuration error to be fatal")
	}
	ioErr := services.Wrap(services.ErrTransient, "lookup", "search", "timeout", errors.New("io"))
	if services.Fatal(ioErr) {
		t.Fatalf("expected transient error to be non-fatal")
	}
	if services.Fatal(nil) {
		t.Fatalf("expected nil error to be non-fatal")
	}
}
