// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

var (
	// ErrInvalidArgument is returned for bad caller input. Nothing was sent to
	// the panel.
	ErrInvalidArgument = errors.New("screen: invalid argument")
	// ErrNotInitialized is returned when a Controller is used before Init or
	// after Deinit.
	ErrNotInitialized = errors.New("screen: controller not initialized")
)

// Interface is the transaction backend of a panel controller.
type Interface interface {
	// WriteCommand sends a command (register address).
	WriteCommand(cmd uint16) error
	// WriteData sends a parameter of the last command.
	WriteData(data uint16) error
	// Write streams raw bytes to the panel RAM or the last command.
	Write(p []byte) error
	// Read reads len(p) raw bytes back from the panel.
	Read(p []byte) error
	// Acquire claims the underlying bus until Release so that a command and
	// its pixel burst are not split by another device.
	Acquire() error
	// Release ends a bracket started by Acquire.
	Release() error
}

// Controller is a panel controller driver.
//
// Init is the only way out of the uninitialized state and Deinit the only
// way back. Every other method returns ErrNotInitialized in between.
type Controller interface {
	Init(cfg *Config) error
	Deinit() error
	// SetDirection changes the scan direction. See Direction.Normalize.
	SetDirection(dir Direction) error
	// SetWindow selects the inclusive rectangle (x0,y0)-(x1,y1) the next
	// pixel burst lands in, in logical coordinates.
	SetWindow(x0, y0, x1, y1 int) error
	// WriteRAMData streams one RGB565 pixel into the current window.
	WriteRAMData(color uint16) error
	DrawPixel(x, y int, color uint16) error
	// DrawBitmap draws w*h RGB565 pixels, row major, at (x, y).
	DrawBitmap(x, y, w, h int, pixels []uint16) error
	Info() (Info, error)
}

// ColorType is the pixel format of a panel.
type ColorType uint8

// Supported pixel formats.
const (
	ColorMono ColorType = iota
	ColorGray
	ColorRGB565
)

func (c ColorType) String() string {
	switch c {
	case ColorMono:
		return "Mono"
	case ColorGray:
		return "Gray"
	case ColorRGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("ColorType(%d)", uint8(c))
	}
}

// Info describes a panel in its current direction.
type Info struct {
	Width     int
	Height    int
	Direction Direction
	Name      string
	Color     ColorType
	// BPP is the number of bits per pixel.
	BPP int
}

// Config is the configuration passed to Controller.Init.
type Config struct {
	// Interface is the transaction backend. It is required.
	Interface Interface

	// Reset is the hardware reset line, nil if not wired.
	Reset gpio.PinOut
	// ResetActive is the level that holds the panel in reset.
	ResetActive gpio.Level
	// Backlight is the backlight enable line, nil if not wired.
	Backlight gpio.PinOut
	// BacklightActive is the level that lights the backlight.
	BacklightActive gpio.Level

	// Width and Height of the panel glass in the controller's native
	// direction. They must not exceed the controller RAM.
	Width  int
	Height int
	// OffsetX and OffsetY locate the glass inside the controller RAM, for
	// panels smaller than the RAM.
	OffsetX int
	OffsetY int

	// Direction is applied at the end of Init.
	Direction Direction
}

// Check validates the configuration against a controller RAM of
// nativeW x nativeH pixels.
func (c *Config) Check(nativeW, nativeH int) error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidArgument)
	}
	if c.Interface == nil {
		return fmt.Errorf("%w: no interface", ErrInvalidArgument)
	}
	return c.CheckGeometry(nativeW, nativeH)
}

// CheckGeometry is Check without the Interface requirement, for panels that
// are not behind a bus.
func (c *Config) CheckGeometry(nativeW, nativeH int) error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidArgument)
	}
	if c.Width <= 0 || c.Width > nativeW {
		return fmt.Errorf("%w: width %d outside 1..%d", ErrInvalidArgument, c.Width, nativeW)
	}
	if c.Height <= 0 || c.Height > nativeH {
		return fmt.Errorf("%w: height %d outside 1..%d", ErrInvalidArgument, c.Height, nativeH)
	}
	if c.OffsetX < 0 || c.OffsetX+c.Width > nativeW {
		return fmt.Errorf("%w: horizontal offset %d for width %d", ErrInvalidArgument, c.OffsetX, c.Width)
	}
	if c.OffsetY < 0 || c.OffsetY+c.Height > nativeH {
		return fmt.Errorf("%w: vertical offset %d for height %d", ErrInvalidArgument, c.OffsetY, c.Height)
	}
	if c.Reset == gpio.INVALID || c.Backlight == gpio.INVALID {
		return fmt.Errorf("%w: use nil for unwired pins, do not use gpio.INVALID", ErrInvalidArgument)
	}
	return nil
}

// Geometry locates the panel glass inside the controller RAM.
type Geometry struct {
	// NativeWidth and NativeHeight are the controller RAM size.
	NativeWidth  int
	NativeHeight int
	// Width and Height are the glass size in the native direction.
	Width  int
	Height int
	// OffsetX and OffsetY are the glass position in the native direction.
	OffsetX int
	OffsetY int
}

// Offset returns what to add to logical window coordinates to address the
// controller RAM when scanning in direction dir.
//
// A mirrored axis counts from the far edge of the RAM, and a swapped
// direction exchanges the roles of the two axes. dir must be normalized.
func (g *Geometry) Offset(dir Direction) (dx, dy int) {
	farX := g.NativeWidth - g.OffsetX - g.Width
	farY := g.NativeHeight - g.OffsetY - g.Height
	switch dir {
	case LRTB:
		return g.OffsetX, g.OffsetY
	case LRBT:
		return g.OffsetX, farY
	case RLTB:
		return farX, g.OffsetY
	case RLBT:
		return farX, farY
	case TBLR:
		return g.OffsetY, g.OffsetX
	case BTLR:
		return farY, g.OffsetX
	case TBRL:
		return g.OffsetY, farX
	case BTRL:
		return farY, farX
	}
	return 0, 0
}

// CheckWindow validates an inclusive window against a logical size.
func CheckWindow(x0, y0, x1, y1, width, height int) error {
	if x1 >= width || y1 >= height {
		return fmt.Errorf("%w: window (%d,%d)-(%d,%d) exceeds %dx%d", ErrInvalidArgument, x0, y0, x1, y1, width, height)
	}
	if x0 < 0 || y0 < 0 || x0 > x1 || y0 > y1 {
		return fmt.Errorf("%w: window (%d,%d)-(%d,%d) is not ordered", ErrInvalidArgument, x0, y0, x1, y1)
	}
	return nil
}
