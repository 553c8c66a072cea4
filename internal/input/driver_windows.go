//go:build windows

package input

import (
	"context"

	"screenpilot/internal/errors"
)

type windowsDriver struct{}

func newPlatformDriver() Driver { return &windowsDriver{} }

func (d *windowsDriver) MoveCursor(ctx context.Context, x, y int) error {
	// TODO: implement using SendInput via golang.org/x/sys/windows
	return errors.New(errors.InputInjectionFailure, "input injection not implemented on windows")
}

func (d *windowsDriver) Click(ctx context.Context, x, y int, button Button) error {
	return errors.New(errors.InputInjectionFailure, "input injection not implemented on windows")
}

func (d *windowsDriver) TypeText(ctx context.Context, text string) error {
	return errors.New(errors.InputInjectionFailure, "input injection not implemented on windows")
}

func (d *windowsDriver) PressKeys(ctx context.Context, chord []string) error {
	return errors.New(errors.InputInjectionFailure, "input injection not implemented on windows")
}
