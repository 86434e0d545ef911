package tags

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestNewFFprobeReaderWithBinary(t *testing.T) {
	reader := NewFFprobeReader(WithBinary("/opt/ffprobe"))
	if reader.binary != "/opt/ffprobe" {
		t.Fatalf("expected binary override to be applied, got %q", reader.binary)
	}
}

func TestReadRequiresPath(t *testing.T) {
	reader := NewFFprobeReader()
	if _, err := reader.Read(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReadParsesFormatTags(t *testing.T) {
	setHelperCommand(t, "m4b")

	reader := NewFFprobeReader()
	parsed, err := reader.Read(context.Background(), "/library/icarus/book.m4b")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got := parsed.Author(); got != "Timothy Zahn" {
		t.Fatalf("Author() = %q", got)
	}
	if got := parsed.Album(); got != "The Icarus Plot" {
		t.Fatalf("Album() = %q", got)
	}
	if got := parsed.Title(); got != "Chapter 1" {
		t.Fatalf("Title() = %q", got)
	}
}

func TestReadHandlesMissingTags(t *testing.T) {
	setHelperCommand(t, "notags")

	reader := NewFFprobeReader()
	parsed, err := reader.Read(context.Background(), "/library/untagged/book.mp3")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(parsed) != 0 {
		t.Fatalf("expected no tags, got %v", parsed)
	}
}

func TestReadReportsCommandFailure(t *testing.T) {
	setHelperCommand(t, "failure")

	reader := NewFFprobeReader()
	if _, err := reader.Read(context.Background(), "/library/missing/book.m4b"); err == nil {
		t.Fatal("expected error when ffprobe fails")
	}
}

func TestReadNormalizesFrameNames(t *testing.T) {
	setHelperCommand(t, "frames")

	reader := NewFFprobeReader()
	parsed, err := reader.Read(context.Background(), "/library/twisted/book.mp3")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got := parsed.Author(); got != "T. Kingfisher" {
		t.Fatalf("Author() = %q", got)
	}
	if got := parsed.Album(); got != "The Twisted Ones" {
		t.Fatalf("Album() = %q", got)
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("TAGS_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("TAGS_HELPER_MODE") {
	case "m4b":
		fmt.Print(`{"format":{"tags":{"artist":"Timothy Zahn","album":"The Icarus Plot","title":"Chapter 1"}}}`)
		os.Exit(0)
	case "frames":
		fmt.Print(`{"format":{"tags":{"TPE1":"T. Kingfisher","TALB":"The Twisted Ones"}}}`)
		os.Exit(0)
	case "notags":
		fmt.Print(`{"format":{"filename":"book.mp3"}}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "No such file or directory")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
