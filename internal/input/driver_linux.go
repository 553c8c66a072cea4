//go:build linux

package input

import (
	"context"
	"strconv"
	"strings"
)

// xdotool button numbers.
var buttonNumbers = map[Button]string{
	ButtonLeft:   "1",
	ButtonMiddle: "2",
	ButtonRight:  "3",
}

type xdotoolDriver struct{}

func newPlatformDriver() Driver { return &xdotoolDriver{} }

func (d *xdotoolDriver) MoveCursor(ctx context.Context, x, y int) error {
	return runTool(ctx, "xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y))
}

func (d *xdotoolDriver) Click(ctx context.Context, x, y int, button Button) error {
	if err := d.MoveCursor(ctx, x, y); err != nil {
		return err
	}
	return runTool(ctx, "xdotool", "click", buttonNumbers[button])
}

func (d *xdotoolDriver) TypeText(ctx context.Context, text string) error {
	return runTool(ctx, "xdotool", "type", "--delay", "12", "--", text)
}

func (d *xdotoolDriver) PressKeys(ctx context.Context, chord []string) error {
	return runTool(ctx, "xdotool", "key", strings.Join(chord, "+"))
}
