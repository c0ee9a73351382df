// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcd is a container for color LCD panel drivers and the SPI bus
// arbitration they share with other peripherals.
//
// spibus owns the SPI controller and serializes the devices attached to it.
// screen defines what a panel controller driver and its transport look like.
// rm68120 drives the RM68120 controller, termpanel renders the same
// operations in a terminal.
package lcd
