// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rm68120 controls a 480x800 color TFT panel through a Raydium
// RM68120 controller.
//
// The controller addresses each command parameter as its own 16 bits
// register, so every write is a register address followed by one value. The
// driver talks to the panel through a screen.Interface, normally a
// screen.SPI on top of a spibus.Device shared with other peripherals.
//
// Pixels are RGB565. Dev implements display.Drawer so any image.Image can be
// drawn; DrawBitmap is the fast path for callers that already hold RGB565
// pixels.
//
// The scan direction can be changed at any time with SetDirection, which
// rotates and mirrors the logical coordinate system. Panels smaller than the
// controller RAM are supported with the offsets of screen.Config.
package rm68120
