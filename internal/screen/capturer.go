// Package screen provides platform-agnostic full-screen capture
package screen

import (
	"crypto/md5"
	"os"
	"sync"

	"screenpilot/internal/errors"
)

// Ext is the file extension of captured frames.
const Ext = "jpg"

// Capturer captures full-screen frames.
type Capturer interface {
	// CaptureAlways captures one frame and returns its encoded bytes.
	CaptureAlways() ([]byte, error)
	// Capture captures a frame with hash-based change detection; the bool is
	// false when the screen has not changed since the previous call.
	Capture() ([]byte, bool, error)
	Close()
}

// backend implements platform-specific raw capture
type backend interface {
	captureRaw() ([]byte, error)
}

// baseCapturer provides shared hash-based change detection. The mutex keeps
// at most one capture in flight: backends share a single temp file, and
// callers run from both the executor goroutine and HTTP handlers.
type baseCapturer struct {
	backend
	mu       sync.Mutex
	lastHash [16]byte
	tempDir  string
}

func newBase(b backend, tempDir string) *baseCapturer {
	return &baseCapturer{backend: b, tempDir: tempDir}
}

func (c *baseCapturer) Capture() ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.captureRaw()
	if err != nil {
		return nil, false, err
	}
	// Hash the first 4KB only; enough to detect change cheaply.
	hash := md5.Sum(data[:min(len(data), 4096)])
	if hash == c.lastHash {
		return nil, false, nil
	}
	c.lastHash = hash
	return data, true, nil
}

func (c *baseCapturer) CaptureAlways() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.captureRaw()
	if err != nil {
		return nil, err
	}
	c.lastHash = md5.Sum(data[:min(len(data), 4096)])
	return data, nil
}

func (c *baseCapturer) Close() {
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}

func captureErr(err error, stderr string) error {
	e := errors.Wrap(err, errors.CaptureFailure, "screen capture failed")
	if stderr != "" {
		e = e.WithMetadata("stderr", stderr)
	}
	return e
}
