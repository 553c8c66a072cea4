//go:build darwin

package input

import (
	"context"
	"fmt"
	"strings"

	"screenpilot/internal/errors"
)

// cliclickDriver drives input through the cliclick tool (brew install cliclick).
type cliclickDriver struct{}

func newPlatformDriver() Driver { return &cliclickDriver{} }

func (d *cliclickDriver) MoveCursor(ctx context.Context, x, y int) error {
	return runTool(ctx, "cliclick", fmt.Sprintf("m:%d,%d", x, y))
}

func (d *cliclickDriver) Click(ctx context.Context, x, y int, button Button) error {
	switch button {
	case ButtonLeft:
		return runTool(ctx, "cliclick", fmt.Sprintf("c:%d,%d", x, y))
	case ButtonRight:
		return runTool(ctx, "cliclick", fmt.Sprintf("rc:%d,%d", x, y))
	default:
		return errors.Newf(errors.InputInjectionFailure, "button %q not supported by cliclick", button)
	}
}

func (d *cliclickDriver) TypeText(ctx context.Context, text string) error {
	return runTool(ctx, "cliclick", "t:"+text)
}

func (d *cliclickDriver) PressKeys(ctx context.Context, chord []string) error {
	if len(chord) == 0 {
		return nil
	}
	// Hold everything but the last key down as modifiers, press the last one.
	args := make([]string, 0, 3)
	if len(chord) > 1 {
		args = append(args, "kd:"+strings.Join(chord[:len(chord)-1], ","))
	}
	args = append(args, "kp:"+chord[len(chord)-1])
	if len(chord) > 1 {
		args = append(args, "ku:"+strings.Join(chord[:len(chord)-1], ","))
	}
	return runTool(ctx, "cliclick", args...)
}
