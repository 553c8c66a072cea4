package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"screenpilot/internal/errors"
	"screenpilot/internal/geometry"
	"screenpilot/internal/input"
	"screenpilot/internal/locator"
	"screenpilot/internal/screen"
	"screenpilot/internal/step"
)

// ImageLocator finds a template on screen.
type ImageLocator interface {
	Locate(ctx context.Context, template []byte, opts locator.Options) (locator.Match, error)
}

// TemplateResolver turns a step's template reference into decodable bytes.
type TemplateResolver interface {
	Resolve(ref string) ([]byte, error)
}

// FrameSource captures one frame for the screenshot step.
type FrameSource interface {
	CaptureAlways() ([]byte, error)
}

// Executor validates a step's parameters and dispatches to the matching
// handler. Validation happens before any side effect.
type Executor struct {
	driver    input.Driver
	loc       ImageLocator
	templates TemplateResolver
	frames    FrameSource
	shotDir   string
	sink      Sink
	now       func() time.Time
}

// NewExecutor wires an executor. sink may be nil for silent operation.
func NewExecutor(driver input.Driver, loc ImageLocator, templates TemplateResolver, frames FrameSource, shotDir string, sink Sink) *Executor {
	if sink == nil {
		sink = SlogSink{}
	}
	return &Executor{
		driver:    driver,
		loc:       loc,
		templates: templates,
		frames:    frames,
		shotDir:   shotDir,
		sink:      sink,
		now:       time.Now,
	}
}

// Execute runs one step. All failures come back as errors carrying a
// structured code; the caller decides whether that aborts the run.
func (e *Executor) Execute(ctx context.Context, s step.Step) error {
	switch s.Type {
	case step.MoveMouse:
		return e.moveMouse(ctx, s.Params)
	case step.Click:
		return e.click(ctx, s.Params)
	case step.TypeText:
		return e.typeText(ctx, s.Params)
	case step.Delay:
		return e.delay(ctx, s.Params)
	case step.Screenshot:
		return e.screenshot(s.Params)
	case step.PressHotkey:
		return e.pressHotkey(ctx, s.Params)
	case step.FindAndClickImage:
		return e.findAndClickImage(ctx, s.Params)
	default:
		return errors.Newf(errors.UnknownStepType, "unknown step type %q", s.Type)
	}
}

func (e *Executor) moveMouse(ctx context.Context, p step.Params) error {
	x, ok := p.Int("x")
	if !ok {
		return errors.New(errors.InvalidParams, "move_mouse requires x")
	}
	y, ok := p.Int("y")
	if !ok {
		return errors.New(errors.InvalidParams, "move_mouse requires y")
	}
	e.sink.Log(LevelInfo, fmt.Sprintf("Moving mouse to (%d, %d)", x, y))
	return e.driver.MoveCursor(ctx, x, y)
}

func (e *Executor) click(ctx context.Context, p step.Params) error {
	x, ok := p.Int("x")
	if !ok {
		return errors.New(errors.InvalidParams, "click requires x")
	}
	y, ok := p.Int("y")
	if !ok {
		return errors.New(errors.InvalidParams, "click requires y")
	}
	button, err := buttonParam(p)
	if err != nil {
		return err
	}
	e.sink.Log(LevelInfo, fmt.Sprintf("Clicking at (%d, %d) with %s button", x, y, button))
	return e.driver.Click(ctx, x, y, button)
}

func (e *Executor) typeText(ctx context.Context, p step.Params) error {
	text, ok := p.String("text")
	if !ok {
		return errors.New(errors.InvalidParams, "type_text requires text")
	}
	e.sink.Log(LevelInfo, fmt.Sprintf("Typing: %s", truncate(text, 20)))
	return e.driver.TypeText(ctx, text)
}

func (e *Executor) delay(ctx context.Context, p step.Params) error {
	seconds, ok := p.Float("seconds")
	if !ok {
		return errors.New(errors.InvalidParams, "delay requires seconds")
	}
	if seconds < 0 {
		return errors.Newf(errors.InvalidParams, "delay seconds must be >= 0, got %g", seconds)
	}
	e.sink.Log(LevelInfo, fmt.Sprintf("Waiting for %g seconds", seconds))
	return sleepCtx(ctx, time.Duration(seconds*float64(time.Second)))
}

func (e *Executor) screenshot(p step.Params) error {
	stem := "screenshot"
	if name, ok := p.String("name"); ok && name != "" {
		stem = name
	}

	data, err := e.frames.CaptureAlways()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(e.shotDir, 0o755); err != nil {
		return errors.Wrap(err, errors.CaptureFailure, "create screenshot directory")
	}
	filename := fmt.Sprintf("%s_%s.%s", stem, e.now().Format("20060102_150405"), screen.Ext)
	path := filepath.Join(e.shotDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CaptureFailure, "write screenshot")
	}
	e.sink.Log(LevelSuccess, fmt.Sprintf("Screenshot saved to %s", path))
	return nil
}

func (e *Executor) pressHotkey(ctx context.Context, p step.Params) error {
	modifiers, _ := p.Strings("modifiers")
	keys, _ := p.Strings("keys")
	if len(modifiers) == 0 && len(keys) == 0 {
		return errors.New(errors.InvalidParams, "press_hotkey requires modifiers or keys")
	}

	// Modifiers go down before keys, both in declared order.
	chord := append(append([]string{}, modifiers...), keys...)
	e.sink.Log(LevelInfo, fmt.Sprintf("Pressing hotkey: %v", chord))
	return e.driver.PressKeys(ctx, chord)
}

func (e *Executor) findAndClickImage(ctx context.Context, p step.Params) error {
	ref, ok := p.String("template")
	if !ok || ref == "" {
		return errors.New(errors.InvalidParams, "find_and_click_image requires template")
	}

	position := geometry.Center
	if pos, ok := p.String("position"); ok {
		position = geometry.Anchor(pos)
		if !geometry.ValidAnchor(position) {
			return errors.Newf(errors.InvalidParams, "invalid position %q", pos)
		}
	}
	button, err := buttonParam(p)
	if err != nil {
		return err
	}

	opts := locator.Options{}
	if conf, ok := p.Float("confidence"); ok {
		opts.Confidence = conf
	}
	if attempts, ok := p.Int("max_attempts"); ok {
		opts.MaxAttempts = attempts
	}
	if interval, ok := p.Float("retry_interval"); ok {
		opts.RetryInterval = time.Duration(interval * float64(time.Second))
	}

	template, err := e.templates.Resolve(ref)
	if err != nil {
		return errors.Wrapf(err, errors.InvalidTemplate, "resolve template %q", ref)
	}

	e.sink.Log(LevelInfo, fmt.Sprintf("Searching for image: %s", ref))
	match, err := e.loc.Locate(ctx, template, opts)
	if err != nil {
		return err
	}
	if !match.Found {
		e.sink.Log(LevelWarning, "Image not found on screen")
		return errors.Newf(errors.NotFound, "image %q not found on screen", ref)
	}

	target, _ := match.Anchors.At(position)
	e.sink.Log(LevelInfo, fmt.Sprintf("Found image at (%d, %d) with confidence %.3f, clicking with %s button",
		target.X, target.Y, match.Confidence, button))
	return e.driver.Click(ctx, target.X, target.Y, button)
}

// buttonParam reads the optional button parameter, defaulting to left.
func buttonParam(p step.Params) (input.Button, error) {
	b := input.ButtonLeft
	if raw, ok := p.String("button"); ok {
		b = input.Button(raw)
		if !b.Valid() {
			return "", errors.Newf(errors.InvalidParams, "invalid button %q", raw)
		}
	}
	return b, nil
}

// truncate shortens s to at most n runes, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.Cancelled, "interrupted during delay")
	case <-time.After(d):
		return nil
	}
}
