// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen defines what a color LCD controller driver exposes and what
// it needs from the wire underneath it.
//
// A Controller is implemented once per panel controller (see package
// rm68120). It owns the orientation and addressing window state of one panel
// and turns drawing calls into register writes and pixel bursts.
//
// An Interface is the transaction backend a Controller talks through. NewSPI
// uses a data/command line, NewI2C uses control bytes. Controllers never know
// which one they drive.
//
// # Directions
//
// The eight scan directions are the combinations of two mirrors with an
// optional axis swap. Callers may also pass the packed form MirrorX|MirrorY|SwapXY;
// Direction.Normalize documents how both forms are reconciled.
//
// # Wire format
//
// Register writes are a 16 bits command followed by a 16 bits value, both
// sent most significant byte first. Pixels are RGB565 and sent low byte first.
package screen
