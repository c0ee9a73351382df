// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spibus

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DeviceOpts defines a peer on the bus.
type DeviceOpts struct {
	// CS is the chip select line, active low. Use nil when the controller
	// drives the chip select itself.
	CS gpio.PinOut
	// Mode is the clock polarity and phase, spi.Mode0 to spi.Mode3.
	Mode spi.Mode
	// Speed is the maximum clock speed.
	Speed physic.Frequency
}

// Device is a peer on a Bus.
//
// Each transfer is a complete transaction: it claims the bus, selects the
// device, clocks the data and releases the bus.
type Device struct {
	bus   *Bus
	c     spi.Conn
	cs    gpio.PinOut
	mode  spi.Mode
	speed physic.Frequency

	// closed is guarded by bus.mu.
	closed bool
}

func (d *Device) String() string {
	cs := "hwCS"
	if d.cs != nil {
		cs = d.cs.String()
	}
	return fmt.Sprintf("spibus.Device{%s, %s, Mode%d, %s}", d.bus.port, cs, int(d.mode), d.speed)
}

// Duplex implements conn.Conn.
func (d *Device) Duplex() conn.Duplex {
	return d.c.Duplex()
}

// Close detaches the device from its bus and releases its chip select.
//
// Close waits up to the bus timeout for a transfer in flight to end, then
// fails with ErrBusy; release any Session first. The bus is left open.
// Closing a nil or already closed Device is a no-op.
func (d *Device) Close() error {
	if d == nil {
		return nil
	}
	b := d.bus
	if err := b.acquire(d); err != nil {
		if errors.Is(err, ErrClosed) {
			return nil
		}
		return fmt.Errorf("spibus: closing %s: %w", d, err)
	}
	b.mu.Lock()
	d.closed = true
	delete(b.devices, d)
	b.owner = nil
	<-b.sem
	b.mu.Unlock()

	if d.cs == nil {
		return nil
	}
	if err := multierr.Combine(d.cs.Out(gpio.High), d.cs.Halt()); err != nil {
		return fmt.Errorf("spibus: releasing %s: %w", d.cs, err)
	}
	return nil
}

// Acquire claims the bus for a sequence of transfers and returns the Session
// to run them on. Every other transfer on the bus waits until
// Session.Release, including plain transfers on d itself.
//
// Acquire does not nest.
func (d *Device) Acquire() (*Session, error) {
	if err := d.bus.acquire(d); err != nil {
		return nil, err
	}
	return &Session{d: d}, nil
}

// Tx implements conn.Conn.
//
// w may be nil to clock out zeros while reading len(r) bytes; r may be nil to
// skip the read phase. When both are set they must have the same length.
func (d *Device) Tx(w, r []byte) error {
	w, err := txBuffers(w, r)
	if err != nil || len(w) == 0 {
		return err
	}
	if err := d.bus.acquire(d); err != nil {
		return err
	}
	err = d.tx(w, r)
	return multierr.Append(err, d.bus.release(d))
}

func txBuffers(w, r []byte) ([]byte, error) {
	if w != nil && r != nil && len(w) != len(r) {
		return nil, fmt.Errorf("%w: write length %d and read length %d differ", ErrInvalidArgument, len(w), len(r))
	}
	if w == nil {
		w = make([]byte, len(r))
	}
	return w, nil
}

// tx runs one transfer with the chip select asserted. The bus must be owned.
func (d *Device) tx(w, r []byte) error {
	if d.cs != nil {
		if err := d.cs.Out(gpio.Low); err != nil {
			return fmt.Errorf("spibus: selecting %s: %w", d, err)
		}
	}
	err := d.c.Tx(w, r)
	if d.cs != nil {
		err = multierr.Append(err, d.cs.Out(gpio.High))
	}
	if err != nil {
		return fmt.Errorf("spibus: %s: %w", d, err)
	}
	return nil
}

// TransferByte exchanges one byte with the device.
func (d *Device) TransferByte(out byte) (byte, error) {
	var r [1]byte
	if err := d.Tx([]byte{out}, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

// WriteByte sends one byte and skips the read phase.
func (d *Device) WriteByte(b byte) error {
	return d.Tx([]byte{b}, nil)
}

// TransferReg16 exchanges a 16 bits value, most significant byte first.
//
// For example 0x1234 sends 0x12 then 0x34.
func (d *Device) TransferReg16(out uint16) (uint16, error) {
	var w, r [2]byte
	binary.BigEndian.PutUint16(w[:], out)
	if err := d.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r[:]), nil
}

// WriteReg16 sends a 16 bits value, most significant byte first, and skips
// the read phase.
func (d *Device) WriteReg16(v uint16) error {
	var w [2]byte
	binary.BigEndian.PutUint16(w[:], v)
	return d.Tx(w[:], nil)
}

// TransferReg32 exchanges a 32 bits value, most significant byte first.
//
// For example 0x12345678 sends 0x12 first and 0x78 last.
func (d *Device) TransferReg32(out uint32) (uint32, error) {
	var w, r [4]byte
	binary.BigEndian.PutUint32(w[:], out)
	if err := d.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r[:]), nil
}

// WriteReg32 sends a 32 bits value, most significant byte first, and skips
// the read phase.
func (d *Device) WriteReg32(v uint32) error {
	var w [4]byte
	binary.BigEndian.PutUint32(w[:], v)
	return d.Tx(w[:], nil)
}

// Session is a device's exclusive hold on its bus, returned by
// Device.Acquire. Its transfers run without claiming the bus again.
//
// A Session belongs to the goroutine that acquired it.
type Session struct {
	d    *Device
	done bool
}

func (s *Session) String() string {
	return fmt.Sprintf("spibus.Session{%s}", s.d)
}

// Duplex implements conn.Conn.
func (s *Session) Duplex() conn.Duplex {
	return s.d.Duplex()
}

// Tx implements conn.Conn. It takes the same buffers as Device.Tx.
func (s *Session) Tx(w, r []byte) error {
	if s.done {
		return fmt.Errorf("%w: %s already released", ErrInvalidArgument, s)
	}
	w, err := txBuffers(w, r)
	if err != nil || len(w) == 0 {
		return err
	}
	return s.d.tx(w, r)
}

// WriteReg16 sends a 16 bits value, most significant byte first.
func (s *Session) WriteReg16(v uint16) error {
	var w [2]byte
	binary.BigEndian.PutUint16(w[:], v)
	return s.Tx(w[:], nil)
}

// Release gives the bus back. A Session can be released once.
func (s *Session) Release() error {
	if s.done {
		return fmt.Errorf("%w: %s already released", ErrInvalidArgument, s)
	}
	s.done = true
	return s.d.bus.release(s.d)
}

var (
	_ conn.Conn = &Device{}
	_ conn.Conn = &Session{}
)
