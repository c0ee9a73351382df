// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spibus shares one SPI controller between several devices.
//
// A Bus owns the physical port and the pins routed to it. Devices attached to
// the bus each carry their own chip select, clock mode and clock speed. Every
// transfer is a single transaction: the device claims the bus, asserts its
// chip select, clocks the bytes and releases the bus. Transactions on the same
// bus never overlap; transactions on different buses are independent.
//
// When a sequence of transfers must not be interleaved with another device's
// traffic, run it on the Session returned by Device.Acquire and end it with
// Session.Release. While a Session is held, every other transfer on the bus
// waits, including plain transfers on the same Device from other goroutines.
//
// Multi-byte register helpers put the most significant byte on the wire first,
// whatever the host byte order is.
//
// A Bus must outlive its devices: Bus.Close refuses to close while devices are
// still attached.
package spibus
