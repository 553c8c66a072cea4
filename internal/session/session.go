// Package session owns the moving parts of one automation session: the step
// list, the capture and input backends, the locator, run lifecycle, and the
// working directory for templates and screenshots.
package session

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"screenpilot/internal/engine"
	"screenpilot/internal/errors"
	"screenpilot/internal/history"
	"screenpilot/internal/input"
	"screenpilot/internal/locator"
	"screenpilot/internal/screen"
	"screenpilot/internal/step"
)

// Options configures a session. Zero values select defaults.
type Options struct {
	// WorkDir holds uploaded templates and saved screenshots. Empty selects
	// a fresh temp directory owned (and removed) by the session.
	WorkDir string

	// HistoryPath is the sqlite file for run records. Empty disables history.
	HistoryPath string

	// SettleInterval is the pause between steps.
	SettleInterval time.Duration

	// Locator tuning applied to every find_and_click_image step unless the
	// step overrides it.
	Confidence float64
	Downscale  int
	Strategies []locator.Strategy

	// LogEntries bounds the in-memory log buffer.
	LogEntries int
}

// Session wires the engine together and tracks the active run.
type Session struct {
	steps  *step.List
	buffer *engine.Buffer
	runner *engine.Runner

	capturer screen.Capturer
	driver   input.Driver
	history  *history.Store

	workDir  string
	ownsDir  bool
	defaults locator.Options

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	last    *engine.Result
}

// New builds a session. Callers must Close it to release the capture backend
// and remove any session-owned temp directory.
func New(opts Options) (*Session, error) {
	workDir := opts.WorkDir
	ownsDir := false
	if workDir == "" {
		dir, err := os.MkdirTemp("", "screenpilot-*")
		if err != nil {
			return nil, errors.Wrap(err, errors.Internal, "create session work directory")
		}
		workDir = dir
		ownsDir = true
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.Internal, "create session work directory")
	}

	if opts.LogEntries <= 0 {
		opts.LogEntries = 500
	}

	var hist *history.Store
	if opts.HistoryPath != "" {
		h, err := history.Open(opts.HistoryPath)
		if err != nil {
			if ownsDir {
				os.RemoveAll(workDir)
			}
			return nil, err
		}
		hist = h
	}

	capturer := screen.New()
	driver := input.New()
	buffer := engine.NewBuffer(opts.LogEntries, 64)
	sink := engine.MultiSink{engine.SlogSink{}, buffer}

	loc := locator.New(capturer, opts.Strategies...)
	if opts.Downscale > 1 {
		loc = loc.WithDownscale(opts.Downscale)
	}

	s := &Session{
		steps:    step.NewList(),
		buffer:   buffer,
		capturer: capturer,
		driver:   driver,
		history:  hist,
		workDir:  workDir,
		ownsDir:  ownsDir,
		defaults: locator.Options{Confidence: opts.Confidence},
	}

	exec := engine.NewExecutor(driver, &defaultingLocator{loc: loc, defaults: s.defaults},
		templateResolver{dir: s.templateDir()}, capturer, s.screenshotDir(), sink)
	s.runner = engine.NewRunner(exec, opts.SettleInterval, sink)

	if err := os.MkdirAll(s.templateDir(), 0o755); err != nil {
		s.Close()
		return nil, errors.Wrap(err, errors.Internal, "create template directory")
	}
	return s, nil
}

// Steps exposes the mutable step list.
func (s *Session) Steps() *step.List { return s.steps }

// Logs exposes the bounded log buffer for replay and live events.
func (s *Session) Logs() *engine.Buffer { return s.buffer }

// ScreenshotDir is where screenshot steps write files.
func (s *Session) ScreenshotDir() string { return s.screenshotDir() }

// FrameIfChanged captures the current screen for preview purposes, with
// change detection; changed is false when the screen content matches the
// previous capture.
func (s *Session) FrameIfChanged() (data []byte, changed bool, err error) {
	return s.capturer.Capture()
}

// Running reports whether a run is in flight.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastResult returns the most recently finished run, if any.
func (s *Session) LastResult() (engine.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return engine.Result{}, false
	}
	return *s.last, true
}

// begin claims the single run slot; the returned context is cancelled by
// StopRun. Callers that got a context must hand it to execute.
func (s *Session) begin(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, errors.New(errors.Internal, "a run is already in progress")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	return ctx, nil
}

// execute runs the steps, releases the run slot, and records the result.
func (s *Session) execute(ctx context.Context) engine.Result {
	result := s.runner.Run(ctx, s.steps)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	s.last = &result
	s.mu.Unlock()

	if s.history != nil {
		if err := s.history.Save(result); err != nil {
			slog.Error("failed to persist run", "run_id", result.RunID, "error", err)
		}
	}
	return result
}

// Run executes the current step list synchronously and records the result.
// Only one run may be active at a time.
func (s *Session) Run(ctx context.Context) (engine.Result, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return engine.Result{}, err
	}
	return s.execute(ctx), nil
}

// StartRun launches the current step list in the background. The run slot is
// claimed before returning, so a refusal always reaches the caller.
func (s *Session) StartRun() error {
	ctx, err := s.begin(context.Background())
	if err != nil {
		return err
	}
	go s.execute(ctx)
	return nil
}

// StopRun cancels the active run. Idempotent.
func (s *Session) StopRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// History returns recent run records, newest first. NotFound-free: an empty
// slice means no history is configured or nothing ran yet.
func (s *Session) History(limit int) ([]history.Record, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(limit)
}

// Close stops any active run and releases backends. The session-owned temp
// directory is removed; caller-provided work directories are left alone.
func (s *Session) Close() error {
	s.StopRun()
	s.capturer.Close()

	var firstErr error
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			firstErr = err
		}
	}
	if s.ownsDir {
		if err := os.RemoveAll(s.workDir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Session) templateDir() string   { return filepath.Join(s.workDir, "templates") }
func (s *Session) screenshotDir() string { return filepath.Join(s.workDir, "screenshots") }

// defaultingLocator fills session-level locator defaults into steps that
// leave them unset.
type defaultingLocator struct {
	loc      *locator.Locator
	defaults locator.Options
}

func (d *defaultingLocator) Locate(ctx context.Context, template []byte, opts locator.Options) (locator.Match, error) {
	if opts.Confidence == 0 {
		opts.Confidence = d.defaults.Confidence
	}
	return d.loc.Locate(ctx, template, opts)
}
