// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spibus

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

var (
	// ErrInvalidArgument is returned for bad pins, clock settings or buffers.
	ErrInvalidArgument = errors.New("spibus: invalid argument")
	// ErrBusy is returned when the bus stayed owned by another device past
	// the bus timeout.
	ErrBusy = errors.New("spibus: bus busy")
	// ErrClosed is returned when using a closed bus or device.
	ErrClosed = errors.New("spibus: closed")
	// ErrDevicesAttached is returned by Bus.Close while devices are still
	// attached to the bus.
	ErrDevicesAttached = errors.New("spibus: devices still attached")
)

// Opts is the physical configuration of a bus.
type Opts struct {
	// Pins routed to the controller. Leave nil when the board hardwires them;
	// they are then taken from the port if it implements spi.Pins.
	CLK  gpio.PinOut
	MOSI gpio.PinOut
	MISO gpio.PinIn
	// Bits is the word size. 0 means 8.
	Bits int
	// Timeout is how long a transaction waits for another device to release
	// the bus. 0 means DefaultOpts.Timeout.
	Timeout time.Duration
	// Reserved lists GPIO numbers the system uses for something else (flash,
	// console, ...). Routing a bus or chip select pin to one of them fails.
	Reserved []int
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Bits:    8,
	Timeout: time.Second,
}

// Bus is an open handle to a SPI controller shared by several devices.
type Bus struct {
	port     spi.Port
	clk      gpio.PinOut
	mosi     gpio.PinOut
	miso     gpio.PinIn
	bits     int
	timeout  time.Duration
	reserved []int

	// sem holds a token while a device owns the bus.
	sem chan struct{}

	mu      sync.Mutex
	owner   *Device
	devices map[*Device]struct{}
	conns   map[connKey]spi.Conn
	closed  bool
}

type connKey struct {
	f    physic.Frequency
	mode spi.Mode
	bits int
}

// Open opens the SPI port by name from the periph registry and returns a Bus
// on it. Use "" for the first available port.
func Open(name string, opts *Opts) (*Bus, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spibus: %w", err)
	}
	b, err := New(p, opts)
	if err != nil {
		return nil, multierr.Combine(err, p.Close())
	}
	return b, nil
}

// New returns a Bus that arbitrates access to p.
//
// The Bus takes ownership of p: Close closes it if it implements io.Closer.
func New(p spi.Port, opts *Opts) (*Bus, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil port", ErrInvalidArgument)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	b := &Bus{
		port:     p,
		clk:      opts.CLK,
		mosi:     opts.MOSI,
		miso:     opts.MISO,
		bits:     opts.Bits,
		timeout:  opts.Timeout,
		reserved: opts.Reserved,
		sem:      make(chan struct{}, 1),
		devices:  map[*Device]struct{}{},
		conns:    map[connKey]spi.Conn{},
	}
	if b.bits == 0 {
		b.bits = DefaultOpts.Bits
	}
	if b.bits < 0 || b.bits > 32 {
		return nil, fmt.Errorf("%w: %d bits per word", ErrInvalidArgument, b.bits)
	}
	if b.timeout <= 0 {
		b.timeout = DefaultOpts.Timeout
	}
	if err := checkOptsPins(opts); err != nil {
		return nil, err
	}
	if pins, ok := p.(spi.Pins); ok {
		// Ports report gpio.INVALID for lines they do not know about.
		if b.clk == nil {
			if c := pins.CLK(); c != gpio.INVALID {
				b.clk = c
			}
		}
		if b.mosi == nil {
			if m := pins.MOSI(); m != gpio.INVALID {
				b.mosi = m
			}
		}
		if b.miso == nil {
			if m := pins.MISO(); m != gpio.INVALID {
				b.miso = m
			}
		}
	}
	var used []pin.Pin
	for _, p := range []pin.Pin{b.clk, b.mosi, b.miso} {
		if p == nil {
			continue
		}
		if err := b.checkPin(p, used); err != nil {
			return nil, err
		}
		used = append(used, p)
	}
	return b, nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("spibus.Bus{%s}", b.port)
}

// Close releases the controller.
//
// Closing a nil or already closed Bus is a no-op. Close fails with
// ErrDevicesAttached while devices are attached; the bus stays usable then.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	if n := len(b.devices); n != 0 {
		return fmt.Errorf("%w: %d on %s", ErrDevicesAttached, n, b)
	}
	b.closed = true
	b.conns = nil
	if c, ok := b.port.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("spibus: closing %s: %w", b.port, err)
		}
	}
	return nil
}

// NewDevice attaches a device to the bus.
func (b *Bus) NewDevice(opts *DeviceOpts) (*Device, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: nil device options", ErrInvalidArgument)
	}
	if opts.Mode&^spi.Mode3 != 0 {
		return nil, fmt.Errorf("%w: clock mode %d", ErrInvalidArgument, int(opts.Mode))
	}
	if opts.Speed <= 0 {
		return nil, fmt.Errorf("%w: clock speed %s", ErrInvalidArgument, opts.Speed)
	}
	if opts.CS == gpio.INVALID {
		return nil, fmt.Errorf("%w: use nil for CS to use the controller chip select, do not use gpio.INVALID", ErrInvalidArgument)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("%w: %s", ErrClosed, b)
	}
	if err := b.checkCS(opts.CS); err != nil {
		return nil, err
	}

	mode := opts.Mode
	if opts.CS != nil {
		// The chip select is driven by this package, not by the controller.
		mode |= spi.NoCS
	}
	k := connKey{f: opts.Speed, mode: mode, bits: b.bits}
	c, ok := b.conns[k]
	if !ok {
		var err error
		if c, err = b.port.Connect(opts.Speed, mode, b.bits); err != nil {
			return nil, fmt.Errorf("spibus: connecting to %s: %w", b.port, err)
		}
		b.conns[k] = c
	}
	if opts.CS != nil {
		if err := opts.CS.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("spibus: deselecting %s: %w", opts.CS, err)
		}
	}
	d := &Device{
		bus:   b,
		c:     c,
		cs:    opts.CS,
		mode:  opts.Mode,
		speed: opts.Speed,
	}
	b.devices[d] = struct{}{}
	return d, nil
}

// checkCS verifies cs can select a new device. b.mu must be held.
func (b *Bus) checkCS(cs gpio.PinOut) error {
	if cs == nil {
		for d := range b.devices {
			if d.cs == nil {
				return fmt.Errorf("%w: %s already uses the controller chip select", ErrInvalidArgument, d)
			}
		}
		return nil
	}
	used := []pin.Pin{}
	for _, p := range []pin.Pin{b.clk, b.mosi, b.miso} {
		if p != nil {
			used = append(used, p)
		}
	}
	for d := range b.devices {
		if d.cs != nil {
			used = append(used, d.cs)
		}
	}
	return b.checkPin(cs, used)
}

// checkOptsPins rejects gpio.INVALID in caller supplied pins. nil means
// hardwired.
func checkOptsPins(opts *Opts) error {
	if opts.CLK == gpio.INVALID || opts.MOSI == gpio.INVALID || opts.MISO == gpio.INVALID {
		return fmt.Errorf("%w: use nil for hardwired bus pins, do not use gpio.INVALID", ErrInvalidArgument)
	}
	return nil
}

func (b *Bus) checkPin(p pin.Pin, used []pin.Pin) error {
	if p == gpio.INVALID {
		return fmt.Errorf("%w: gpio.INVALID routed to the bus", ErrInvalidArgument)
	}
	n := p.Number()
	if n < 0 {
		return nil
	}
	for _, r := range b.reserved {
		if n == r {
			return fmt.Errorf("%w: %s is reserved by the system", ErrInvalidArgument, p)
		}
	}
	for _, u := range used {
		if u.Number() == n {
			return fmt.Errorf("%w: %s conflicts with %s", ErrInvalidArgument, p, u)
		}
	}
	return nil
}

// acquire claims the bus for d, waiting at most b.timeout for the current
// owner to release it. It does not nest: a second acquire for the same device
// waits like any other.
func (b *Bus) acquire(d *Device) error {
	b.mu.Lock()
	closed := d.closed
	b.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: %s", ErrClosed, d)
	}

	t := time.NewTimer(b.timeout)
	defer t.Stop()
	select {
	case b.sem <- struct{}{}:
	case <-t.C:
		return fmt.Errorf("%w: %s not released within %s", ErrBusy, b, b.timeout)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if d.closed {
		<-b.sem
		return fmt.Errorf("%w: %s", ErrClosed, d)
	}
	b.owner = d
	return nil
}

// release gives back the token taken by a successful acquire for d.
func (b *Bus) release(d *Device) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner != d {
		return fmt.Errorf("%w: release of %s without matching acquire", ErrInvalidArgument, b)
	}
	b.owner = nil
	<-b.sem
	return nil
}
