package screen

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	apperrors "screenpilot/internal/errors"
)

// fakeBackend returns canned frames for exercising the shared base capturer.
type fakeBackend struct {
	frames [][]byte
	err    error
	calls  int
}

func (f *fakeBackend) captureRaw() ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	frame := f.frames[0]
	if len(f.frames) > 1 {
		f.frames = f.frames[1:]
	}
	return frame, nil
}

func TestCaptureChangeDetection(t *testing.T) {
	fb := &fakeBackend{frames: [][]byte{[]byte("frame-one"), []byte("frame-one"), []byte("frame-two")}}
	c := newBase(fb, "")

	data, changed, err := c.Capture()
	if err != nil || !changed || data == nil {
		t.Fatalf("first capture: data=%v changed=%v err=%v, want frame, true, nil", data, changed, err)
	}

	data, changed, err = c.Capture()
	if err != nil || changed || data != nil {
		t.Errorf("unchanged frame: data=%v changed=%v err=%v, want nil, false, nil", data, changed, err)
	}

	data, changed, err = c.Capture()
	if err != nil || !changed || string(data) != "frame-two" {
		t.Errorf("changed frame: data=%q changed=%v err=%v, want frame-two, true, nil", data, changed, err)
	}
}

func TestCaptureAlwaysIgnoresChangeDetection(t *testing.T) {
	fb := &fakeBackend{frames: [][]byte{[]byte("same"), []byte("same")}}
	c := newBase(fb, "")

	for i := 0; i < 2; i++ {
		data, err := c.CaptureAlways()
		if err != nil || string(data) != "same" {
			t.Errorf("capture %d: data=%q err=%v, want same, nil", i, data, err)
		}
	}
	if fb.calls != 2 {
		t.Errorf("backend calls = %d, want 2", fb.calls)
	}
}

func TestCapturePropagatesError(t *testing.T) {
	backendErr := apperrors.New(apperrors.CaptureFailure, "display gone")
	c := newBase(&fakeBackend{err: backendErr}, "")

	if _, _, err := c.Capture(); !errors.Is(err, backendErr) {
		t.Errorf("Capture err = %v, want backend error", err)
	}
	if _, err := c.CaptureAlways(); !apperrors.IsCode(err, apperrors.CaptureFailure) {
		t.Errorf("CaptureAlways err = %v, want CaptureFailure", err)
	}
}

// overlapBackend records whether two raw captures ever ran at the same time,
// which would corrupt the shared temp file real backends write to.
type overlapBackend struct {
	inFlight int32
	overlaps int32
}

func (b *overlapBackend) captureRaw() ([]byte, error) {
	if atomic.AddInt32(&b.inFlight, 1) > 1 {
		atomic.AddInt32(&b.overlaps, 1)
	}
	data := []byte("frame")
	atomic.AddInt32(&b.inFlight, -1)
	return data, nil
}

func TestConcurrentCapturesSerialize(t *testing.T) {
	backend := &overlapBackend{}
	c := newBase(backend, "")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, _, err := c.Capture(); err != nil {
				t.Errorf("Capture() error = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := c.CaptureAlways(); err != nil {
				t.Errorf("CaptureAlways() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&backend.overlaps); n != 0 {
		t.Errorf("raw captures overlapped %d times, want serialized access", n)
	}
}

func TestCloseRemovesTempDir(t *testing.T) {
	dir, err := os.MkdirTemp("", "screenpilot-test-*")
	if err != nil {
		t.Fatal(err)
	}
	c := newBase(&fakeBackend{frames: [][]byte{nil}}, dir)

	c.Close()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("temp directory should be removed after Close")
	}
}
