//go:build darwin

package screen

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"screenpilot/internal/errors"
)

type darwinBackend struct{ tempDir string }

func (d *darwinBackend) captureRaw() ([]byte, error) {
	tmpFile := filepath.Join(d.tempDir, "frame."+Ext)
	// -x: no sound, -t jpg: JPEG format, -m: main display only
	cmd := exec.Command("screencapture", "-x", "-t", Ext, "-m", tmpFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, captureErr(err, stderr.String())
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CaptureFailure, "failed to read captured frame")
	}
	os.Remove(tmpFile)
	return data, nil
}

// New creates a platform-specific screen capturer
func New() Capturer {
	tmpDir, err := os.MkdirTemp("", "screenpilot-screen-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&darwinBackend{tempDir: tmpDir}, tmpDir)
}
