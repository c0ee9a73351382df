// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rm68120

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/GermanBionicSystems/lcd/screen"
	"github.com/GermanBionicSystems/lcd/screen/rgb565"
	"periph.io/x/conn/v3/display"
)

const name = "RM68120"

// orientation is the MADCTL value and axis swap of a scan direction.
type orientation struct {
	madctl byte
	swap   bool
}

var orientations = [screen.DirMax]orientation{
	screen.LRTB: {0, false},
	screen.LRBT: {madctlMY, false},
	screen.RLTB: {madctlMX, false},
	screen.RLBT: {madctlMX | madctlMY, false},
	screen.TBLR: {madctlMV, true},
	screen.BTLR: {madctlMY | madctlMV, true},
	screen.TBRL: {madctlMX | madctlMV, true},
	screen.BTRL: {madctlMX | madctlMY | madctlMV, true},
}

// Dev is a handle to an RM68120 panel.
//
// The zero value is uninitialized; call Init. A Dev is not safe for
// concurrent use, the bus underneath is.
type Dev struct {
	iface screen.Interface
	geom  screen.Geometry
	ready bool

	// Logical size in the current direction.
	width  int
	height int
	dir    screen.Direction

	// Reused across DrawBitmap calls.
	buf []byte
}

// New returns an initialized Dev.
func New(cfg *screen.Config) (*Dev, error) {
	d := &Dev{}
	if err := d.Init(cfg); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("rm68120.Dev{%v, %dx%d, %s}", d.iface, d.width, d.height, d.dir)
}

// Init resets the panel, sends the power up sequence and applies
// cfg.Direction.
//
// The configuration is fully validated before anything is sent. On failure
// the handle is left uninitialized; the panel itself may be partially
// configured.
func (d *Dev) Init(cfg *screen.Config) error {
	if err := cfg.Check(nativeWidth, nativeHeight); err != nil {
		return fmt.Errorf("rm68120: %w", err)
	}
	if _, err := cfg.Direction.Normalize(); err != nil {
		return fmt.Errorf("rm68120: %w", err)
	}
	d.reset()
	if cfg.Reset != nil {
		if err := screen.HardReset(cfg.Reset, cfg.ResetActive); err != nil {
			return fmt.Errorf("rm68120: %w", err)
		}
	}
	d.iface = cfg.Interface
	d.geom = screen.Geometry{
		NativeWidth:  nativeWidth,
		NativeHeight: nativeHeight,
		Width:        cfg.Width,
		Height:       cfg.Height,
		OffsetX:      cfg.OffsetX,
		OffsetY:      cfg.OffsetY,
	}
	if err := initSequence.Send(d.iface); err != nil {
		d.reset()
		return fmt.Errorf("rm68120: init: %w", err)
	}
	if cfg.Backlight != nil {
		if err := screen.SetBacklight(cfg.Backlight, cfg.BacklightActive); err != nil {
			d.reset()
			return fmt.Errorf("rm68120: %w", err)
		}
	}
	if err := d.setDirection(cfg.Direction); err != nil {
		d.reset()
		return err
	}
	d.ready = true
	return nil
}

// Deinit forgets the panel. Nothing is sent to it.
func (d *Dev) Deinit() error {
	d.reset()
	return nil
}

func (d *Dev) reset() {
	*d = Dev{buf: d.buf}
}

// SetDirection implements screen.Controller.
//
// The logical size and direction only change once MADCTL was written.
func (d *Dev) SetDirection(dir screen.Direction) error {
	if !d.ready {
		return d.notReady()
	}
	return d.setDirection(dir)
}

func (d *Dev) setDirection(dir screen.Direction) error {
	n, err := dir.Normalize()
	if err != nil {
		return fmt.Errorf("rm68120: %w", err)
	}
	o := orientations[n]
	if err := screen.WriteReg(d.iface, regMADCTL, uint16(o.madctl&^madctlRGB)); err != nil {
		return fmt.Errorf("rm68120: set direction %s: %w", n, err)
	}
	w, h := d.geom.Width, d.geom.Height
	if o.swap {
		w, h = h, w
	}
	d.width, d.height, d.dir = w, h, n
	return nil
}

// SetWindow implements screen.Controller.
func (d *Dev) SetWindow(x0, y0, x1, y1 int) error {
	if !d.ready {
		return d.notReady()
	}
	if err := screen.CheckWindow(x0, y0, x1, y1, d.width, d.height); err != nil {
		return fmt.Errorf("rm68120: %w", err)
	}
	return d.setWindow(x0, y0, x1, y1)
}

// setWindow assumes the window was validated.
func (d *Dev) setWindow(x0, y0, x1, y1 int) error {
	dx, dy := d.geom.Offset(d.dir)
	x0, x1 = x0+dx, x1+dx
	y0, y1 = y0+dy, y1+dy
	w := regWriter{i: d.iface}
	w.reg(regCASET, uint16(x0>>8))
	w.reg(regCASET+1, uint16(x0&0xFF))
	w.reg(regCASET+2, uint16(x1>>8))
	w.reg(regCASET+3, uint16(x1&0xFF))
	w.reg(regRASET, uint16(y0>>8))
	w.reg(regRASET+1, uint16(y0&0xFF))
	w.reg(regRASET+2, uint16(y1>>8))
	w.reg(regRASET+3, uint16(y1&0xFF))
	w.cmd(cmdRAMWR)
	if w.err != nil {
		return fmt.Errorf("rm68120: set window: %w", w.err)
	}
	return nil
}

// WriteRAMData implements screen.Controller.
func (d *Dev) WriteRAMData(c uint16) error {
	if !d.ready {
		return d.notReady()
	}
	return d.writePixels([]uint16{c})
}

// DrawPixel implements screen.Controller.
func (d *Dev) DrawPixel(x, y int, c uint16) error {
	if !d.ready {
		return d.notReady()
	}
	if err := screen.CheckWindow(x, y, x, y, d.width, d.height); err != nil {
		return fmt.Errorf("rm68120: %w", err)
	}
	if err := d.setWindow(x, y, x, y); err != nil {
		return err
	}
	return d.writePixels([]uint16{c})
}

// DrawBitmap implements screen.Controller.
//
// The bus is held for the whole window and pixel burst.
func (d *Dev) DrawBitmap(x, y, w, h int, pixels []uint16) (err error) {
	if !d.ready {
		return d.notReady()
	}
	if pixels == nil {
		return fmt.Errorf("rm68120: %w: nil bitmap", screen.ErrInvalidArgument)
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("rm68120: %w: bitmap size %dx%d", screen.ErrInvalidArgument, w, h)
	}
	if len(pixels) < w*h {
		return fmt.Errorf("rm68120: %w: %d pixels for a %dx%d bitmap", screen.ErrInvalidArgument, len(pixels), w, h)
	}
	if err := screen.CheckWindow(x, y, x+w-1, y+h-1, d.width, d.height); err != nil {
		return fmt.Errorf("rm68120: %w", err)
	}
	if err := d.iface.Acquire(); err != nil {
		return fmt.Errorf("rm68120: draw bitmap: %w", err)
	}
	defer func() {
		if rerr := d.iface.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("rm68120: draw bitmap: %w", rerr)
		}
	}()
	if err := d.setWindow(x, y, x+w-1, y+h-1); err != nil {
		return err
	}
	return d.writePixels(pixels[:w*h])
}

// Info implements screen.Controller.
func (d *Dev) Info() (screen.Info, error) {
	if !d.ready {
		return screen.Info{}, d.notReady()
	}
	return screen.Info{
		Width:     d.width,
		Height:    d.height,
		Direction: d.dir,
		Name:      name,
		Color:     screen.ColorRGB565,
		BPP:       16,
	}, nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer. It follows the current direction.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

// Draw implements display.Drawer.
//
// Only the part of r inside Bounds is sent, as one bitmap.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if !d.ready {
		return d.notReady()
	}
	clip := r.Intersect(d.Bounds())
	if clip.Empty() {
		return nil
	}
	sp = sp.Add(clip.Min.Sub(r.Min))
	var pix []uint16
	if img, ok := src.(*rgb565.Image); ok && img.Stride == clip.Dx() && img.Rect == (image.Rectangle{Min: sp, Max: sp.Add(clip.Size())}) {
		// Exact size, rgb565 encoding: fast path!
		pix = img.Pix
	} else {
		img := rgb565.New(image.Rect(0, 0, clip.Dx(), clip.Dy()))
		draw.Src.Draw(img, img.Rect, src, sp)
		pix = img.Pix
	}
	return d.DrawBitmap(clip.Min.X, clip.Min.Y, clip.Dx(), clip.Dy(), pix)
}

// Halt turns off the display.
//
// SetDirection or Invert do not turn it back on; Init does.
func (d *Dev) Halt() error {
	if !d.ready {
		return d.notReady()
	}
	if err := d.iface.WriteCommand(cmdDISPOFF); err != nil {
		return fmt.Errorf("rm68120: halt: %w", err)
	}
	return nil
}

// Invert the colors of the display.
func (d *Dev) Invert(inverted bool) error {
	if !d.ready {
		return d.notReady()
	}
	c := cmdINVOFF
	if inverted {
		c = cmdINVON
	}
	if err := d.iface.WriteCommand(c); err != nil {
		return fmt.Errorf("rm68120: invert: %w", err)
	}
	return nil
}

// writePixels sends RGB565 pixels, low byte first, in a single write.
func (d *Dev) writePixels(pixels []uint16) error {
	n := 2 * len(pixels)
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	b := d.buf[:n]
	for i, p := range pixels {
		b[2*i] = byte(p)
		b[2*i+1] = byte(p >> 8)
	}
	if err := d.iface.Write(b); err != nil {
		return fmt.Errorf("rm68120: write ram: %w", err)
	}
	return nil
}

func (d *Dev) notReady() error {
	return fmt.Errorf("rm68120: %w", screen.ErrNotInitialized)
}

// regWriter writes registers until the first failure, which it remembers.
type regWriter struct {
	i   screen.Interface
	err error
}

func (w *regWriter) reg(addr, val uint16) {
	if w.err != nil {
		return
	}
	if err := screen.WriteReg(w.i, addr, val); err != nil {
		w.err = fmt.Errorf("register %#04x: %w", addr, err)
	}
}

func (w *regWriter) cmd(c uint16) {
	if w.err != nil {
		return
	}
	if err := w.i.WriteCommand(c); err != nil {
		w.err = fmt.Errorf("command %#04x: %w", c, err)
	}
}

var (
	_ screen.Controller = &Dev{}
	_ display.Drawer    = &Dev{}
)
