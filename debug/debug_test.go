package debug

import (
	"errors"
	"io"
	"os"
	"testing"
)

// captureStderr swaps os.Stderr for a pipe while fn runs and returns what
// was written.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()

	_ = w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	return string(out)
}

func TestDropErrorWithError(t *testing.T) {
	got := captureStderr(t, func() { DropError("AFFINITY", errors.New("EPERM")) })
	if got != "AFFINITY: EPERM\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDropErrorNil(t *testing.T) {
	got := captureStderr(t, func() { DropError("GC", nil) })
	if got != "GC\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDropMessage(t *testing.T) {
	got := captureStderr(t, func() { DropMessage("CONSUMER", "stopped") })
	if got != "CONSUMER: stopped\n" {
		t.Fatalf("got %q", got)
	}
}
