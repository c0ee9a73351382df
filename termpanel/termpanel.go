// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termpanel implements a virtual color panel that renders to the
// terminal using ANSI color codes.
//
// It honors the same scan directions and addressing windows as a real panel
// controller, so drawing code can be written while the panel is still in
// the mail.
package termpanel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/GermanBionicSystems/lcd/screen"
	"github.com/GermanBionicSystems/lcd/screen/rgb565"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this panel.
type Opts struct {
	// Name reported by Info.
	Name string
	// Width and Height of the emulated controller RAM.
	Width  int
	Height int
	// Scale renders one terminal cell per Scale x Scale pixels. 0 means 1.
	Scale int
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// W defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// DefaultOpts is a small panel that fits in a terminal.
var DefaultOpts = Opts{
	Name:   "termpanel",
	Width:  80,
	Height: 48,
	Scale:  1,
}

// Dev is a virtual panel. The zero value is not usable; use New.
type Dev struct {
	w       io.Writer
	name    string
	nativeW int
	nativeH int
	scale   int
	palette ansi256.Palette

	ready bool
	// Glass size in the native direction.
	glassW int
	glassH int
	dir    screen.Direction
	// Logical size in the current direction.
	width  int
	height int
	// pix holds the glass, row major in the native direction.
	pix []uint16

	// Current window and cursor, in logical coordinates.
	win    image.Rectangle
	cursor image.Point

	buf bytes.Buffer
}

// New returns an uninitialized Dev; call Init.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{
		w:       w,
		name:    opts.Name,
		nativeW: opts.Width,
		nativeH: opts.Height,
		scale:   opts.Scale,
		palette: *p,
	}
	if d.name == "" {
		d.name = DefaultOpts.Name
	}
	if d.nativeW <= 0 || d.nativeH <= 0 {
		d.nativeW, d.nativeH = DefaultOpts.Width, DefaultOpts.Height
	}
	if d.scale <= 0 {
		d.scale = 1
	}
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("termpanel.Dev{%s, %dx%d, %s}", d.name, d.width, d.height, d.dir)
}

// Init implements screen.Controller.
//
// cfg.Interface, the pins and the offsets are ignored; the offsets are still
// validated against the emulated RAM.
func (d *Dev) Init(cfg *screen.Config) error {
	if err := cfg.CheckGeometry(d.nativeW, d.nativeH); err != nil {
		return fmt.Errorf("termpanel: %w", err)
	}
	dir, err := cfg.Direction.Normalize()
	if err != nil {
		return fmt.Errorf("termpanel: %w", err)
	}
	d.glassW, d.glassH = cfg.Width, cfg.Height
	d.pix = make([]uint16, cfg.Width*cfg.Height)
	d.setDirection(dir)
	d.ready = true
	return nil
}

// Deinit implements screen.Controller.
func (d *Dev) Deinit() error {
	d.ready = false
	d.glassW, d.glassH, d.width, d.height = 0, 0, 0, 0
	d.dir = screen.LRTB
	d.pix = nil
	d.win, d.cursor = image.Rectangle{}, image.Point{}
	return nil
}

// SetDirection implements screen.Controller. The content of the glass is
// kept.
func (d *Dev) SetDirection(dir screen.Direction) error {
	if !d.ready {
		return notReady()
	}
	n, err := dir.Normalize()
	if err != nil {
		return fmt.Errorf("termpanel: %w", err)
	}
	d.setDirection(n)
	return nil
}

func (d *Dev) setDirection(dir screen.Direction) {
	d.dir = dir
	d.width, d.height = d.glassW, d.glassH
	if dir.Swapped() {
		d.width, d.height = d.glassH, d.glassW
	}
	d.win = image.Rect(0, 0, d.width, d.height)
	d.cursor = image.Point{}
}

// SetWindow implements screen.Controller.
func (d *Dev) SetWindow(x0, y0, x1, y1 int) error {
	if !d.ready {
		return notReady()
	}
	if err := screen.CheckWindow(x0, y0, x1, y1, d.width, d.height); err != nil {
		return fmt.Errorf("termpanel: %w", err)
	}
	d.win = image.Rect(x0, y0, x1+1, y1+1)
	d.cursor = d.win.Min
	return nil
}

// WriteRAMData implements screen.Controller.
//
// The cursor moves left to right then top to bottom through the window, and
// wraps around at its end.
func (d *Dev) WriteRAMData(c uint16) error {
	if !d.ready {
		return notReady()
	}
	d.put(c)
	return nil
}

// DrawPixel implements screen.Controller.
func (d *Dev) DrawPixel(x, y int, c uint16) error {
	if err := d.SetWindow(x, y, x, y); err != nil {
		return err
	}
	d.put(c)
	return nil
}

// DrawBitmap implements screen.Controller.
func (d *Dev) DrawBitmap(x, y, w, h int, pixels []uint16) error {
	if !d.ready {
		return notReady()
	}
	if pixels == nil || w <= 0 || h <= 0 || len(pixels) < w*h {
		return fmt.Errorf("termpanel: %w: %d pixels for a %dx%d bitmap", screen.ErrInvalidArgument, len(pixels), w, h)
	}
	if err := d.SetWindow(x, y, x+w-1, y+h-1); err != nil {
		return err
	}
	for _, c := range pixels[:w*h] {
		d.put(c)
	}
	return nil
}

// Info implements screen.Controller.
func (d *Dev) Info() (screen.Info, error) {
	if !d.ready {
		return screen.Info{}, notReady()
	}
	return screen.Info{
		Width:     d.width,
		Height:    d.height,
		Direction: d.dir,
		Name:      d.name,
		Color:     screen.ColorRGB565,
		BPP:       16,
	}, nil
}

// At returns the pixel at the logical position (x, y).
func (d *Dev) At(x, y int) rgb565.Color {
	if !d.ready || !(image.Point{X: x, Y: y}.In(d.Bounds())) {
		return rgb565.Black
	}
	return rgb565.Color(d.pix[d.offset(x, y)])
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

// Draw implements display.Drawer. The panel is refreshed afterward.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if !d.ready {
		return notReady()
	}
	clip := r.Intersect(d.Bounds())
	if clip.Empty() {
		return nil
	}
	sp = sp.Add(clip.Min.Sub(r.Min))
	img := rgb565.New(image.Rect(0, 0, clip.Dx(), clip.Dy()))
	draw.Src.Draw(img, img.Rect, src, sp)
	if err := d.DrawBitmap(clip.Min.X, clip.Min.Y, clip.Dx(), clip.Dy(), img.Pix); err != nil {
		return err
	}
	return d.Refresh()
}

// Refresh writes the glass to the terminal, in its native direction.
func (d *Dev) Refresh() error {
	if !d.ready {
		return notReady()
	}
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	for y := 0; y < d.glassH; y += d.scale {
		_, _ = d.buf.WriteString("\033[0m")
		for x := 0; x < d.glassW; x += d.scale {
			c := color.NRGBAModel.Convert(rgb565.Color(d.pix[y*d.glassW+x])).(color.NRGBA)
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	if _, err := d.buf.WriteTo(d.w); err != nil {
		return fmt.Errorf("termpanel: %w", err)
	}
	return nil
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	if _, err := d.w.Write([]byte("\n\033[0m")); err != nil {
		return fmt.Errorf("termpanel: %w", err)
	}
	return nil
}

// put writes c at the cursor and advances it.
func (d *Dev) put(c uint16) {
	d.pix[d.offset(d.cursor.X, d.cursor.Y)] = c
	d.cursor.X++
	if d.cursor.X == d.win.Max.X {
		d.cursor.X = d.win.Min.X
		d.cursor.Y++
		if d.cursor.Y == d.win.Max.Y {
			d.cursor.Y = d.win.Min.Y
		}
	}
}

// offset maps a logical position to its index in pix.
func (d *Dev) offset(x, y int) int {
	px, py := x, y
	if d.dir.Swapped() {
		px, py = y, x
	}
	if d.dir.MirroredX() {
		px = d.glassW - 1 - px
	}
	if d.dir.MirroredY() {
		py = d.glassH - 1 - py
	}
	return py*d.glassW + px
}

func notReady() error {
	return fmt.Errorf("termpanel: %w", screen.ErrNotInitialized)
}

var (
	_ screen.Controller = &Dev{}
	_ display.Drawer    = &Dev{}
)
