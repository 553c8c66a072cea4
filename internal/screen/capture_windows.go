//go:build windows

package screen

import (
	"log/slog"
	"os"

	"screenpilot/internal/errors"
)

type windowsBackend struct{}

func (w *windowsBackend) captureRaw() ([]byte, error) {
	// TODO: implement using Windows GDI or DXGI
	return nil, errors.New(errors.CaptureFailure, "screen capture not implemented on windows")
}

// New creates a platform-specific screen capturer
func New() Capturer {
	tmpDir, err := os.MkdirTemp("", "screenpilot-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&windowsBackend{}, tmpDir)
}
