// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgb565 implements the 16 bits color format used by most color LCD
// controllers: 5 bits red, 6 bits green, 5 bits blue.
package rgb565

import (
	"image"
	"image/color"
)

// Color is a RGB565 color, red in the most significant bits.
type Color uint16

// Common colors.
const (
	Black Color = 0x0000
	White Color = 0xFFFF
	Red   Color = 0xF800
	Green Color = 0x07E0
	Blue  Color = 0x001F
)

// FromRGB returns the closest Color to the 8 bits components r, g, b.
func FromRGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	// Replicate the high bits into the low bits so that full scale maps to
	// 0xFFFF.
	r = (r5<<11 | r5<<6 | r5<<1 | r5>>4)
	g = (g6<<10 | g6<<4 | g6>>2)
	b = (b5<<11 | b5<<6 | b5<<1 | b5>>4)
	return r, g, b, 0xFFFF
}

func convert(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return FromRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts any color to Color. Alpha is ignored.
var Model = color.ModelFunc(convert)

// Image is an in-memory image of RGB565 pixels, row major.
type Image struct {
	// Pix holds one element per pixel. Pix[(y-Rect.Min.Y)*Stride +
	// (x-Rect.Min.X)] is the pixel at (x, y).
	Pix    []uint16
	Stride int
	Rect   image.Rectangle
}

// New returns an Image with bounds r, filled with Black.
func New(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r}
	}
	return &Image{Pix: make([]uint16, w*h), Stride: w, Rect: r}
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.RGB565At(x, y)
}

// RGB565At returns the pixel at (x, y), Black outside the bounds.
func (i *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return Black
	}
	return Color(i.Pix[i.PixOffset(x, y)])
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	i.SetRGB565(x, y, Model.Convert(c).(Color))
}

// SetRGB565 sets the pixel at (x, y). It is a no-op outside the bounds.
func (i *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	i.Pix[i.PixOffset(x, y)] = uint16(c)
}

// PixOffset returns the index in Pix of the pixel at (x, y).
func (i *Image) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x - i.Rect.Min.X)
}

// Fill sets every pixel to c.
func (i *Image) Fill(c Color) {
	for n := range i.Pix {
		i.Pix[n] = uint16(c)
	}
}

// Row returns the pixels of row y, nil outside the bounds.
func (i *Image) Row(y int) []uint16 {
	if y < i.Rect.Min.Y || y >= i.Rect.Max.Y {
		return nil
	}
	off := i.PixOffset(i.Rect.Min.X, y)
	return i.Pix[off : off+i.Rect.Dx()]
}
