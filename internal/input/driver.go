// Package input injects mouse and keyboard events via OS-level tools.
package input

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"screenpilot/internal/errors"
	"screenpilot/internal/resilience"
)

// Button is a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonMiddle Button = "middle"
	ButtonRight  Button = "right"
)

// Valid reports whether b is a known mouse button.
func (b Button) Valid() bool {
	switch b {
	case ButtonLeft, ButtonMiddle, ButtonRight:
		return true
	}
	return false
}

// Driver injects input events. Calls are synchronous and fire-and-forget at
// the OS boundary: a nil error means the event was handed to the tool, not
// that the target application observed it.
type Driver interface {
	MoveCursor(ctx context.Context, x, y int) error
	Click(ctx context.Context, x, y int, button Button) error
	TypeText(ctx context.Context, text string) error
	PressKeys(ctx context.Context, chord []string) error
}

// New returns the platform driver wrapped in a circuit breaker so a missing
// tool or dead display fails fast instead of spawning a process per step.
func New() Driver {
	return Guarded(newPlatformDriver(), resilience.NewBreaker(resilience.BreakerConfig{}))
}

// Guarded wraps d with the given breaker.
func Guarded(d Driver, br *resilience.Breaker) Driver {
	return &guarded{inner: d, br: br}
}

type guarded struct {
	inner Driver
	br    *resilience.Breaker
}

func (g *guarded) do(fn func() error) error {
	err := g.br.Execute(fn)
	if err == resilience.ErrOpen {
		return errors.Wrap(err, errors.InputInjectionFailure, "input driver unavailable")
	}
	return err
}

func (g *guarded) MoveCursor(ctx context.Context, x, y int) error {
	return g.do(func() error { return g.inner.MoveCursor(ctx, x, y) })
}

func (g *guarded) Click(ctx context.Context, x, y int, button Button) error {
	return g.do(func() error { return g.inner.Click(ctx, x, y, button) })
}

func (g *guarded) TypeText(ctx context.Context, text string) error {
	return g.do(func() error { return g.inner.TypeText(ctx, text) })
}

func (g *guarded) PressKeys(ctx context.Context, chord []string) error {
	return g.do(func() error { return g.inner.PressKeys(ctx, chord) })
}

// runTool executes an injection tool and converts failures to
// InputInjectionFailure with the tool's stderr attached.
func runTool(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		e := errors.Wrapf(err, errors.InputInjectionFailure, "%s failed", name)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			e = e.WithMetadata("stderr", s)
		}
		return e
	}
	return nil
}
