// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen

import (
	"fmt"

	"github.com/GermanBionicSystems/lcd/spibus"
	"periph.io/x/conn/v3/gpio"
)

// SPI is an Interface over a 4-wire SPI device: the data/command line is Low
// for commands and High for parameters and pixels.
//
// An SPI is driven by one goroutine at a time, like the panel that owns it.
type SPI struct {
	d  *spibus.Device
	dc gpio.PinOut
	// s is set between Acquire and Release.
	s *spibus.Session
}

// NewSPI returns an Interface that talks to the panel through d.
//
// # Wiring
//
// Connect SDA to SPI_MOSI, SCL to SPI_CLK, CS to the device chip select and
// D/C to the dc pin. 3-wire (9 bits) SPI is not supported.
func NewSPI(d *spibus.Device, dc gpio.PinOut) (*SPI, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil spi device", ErrInvalidArgument)
	}
	if dc == nil || dc == gpio.INVALID {
		return nil, fmt.Errorf("%w: a data/command pin is required", ErrInvalidArgument)
	}
	if err := dc.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("screen: %s: %w", dc, err)
	}
	return &SPI{d: d, dc: dc}, nil
}

func (s *SPI) String() string {
	return fmt.Sprintf("screen.SPI{%s, %s}", s.d, s.dc)
}

// WriteCommand implements Interface.
func (s *SPI) WriteCommand(cmd uint16) error {
	if err := s.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("screen: %s: %w", s.dc, err)
	}
	return s.conn().WriteReg16(cmd)
}

// WriteData implements Interface.
func (s *SPI) WriteData(data uint16) error {
	if err := s.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("screen: %s: %w", s.dc, err)
	}
	return s.conn().WriteReg16(data)
}

// Write implements Interface.
func (s *SPI) Write(p []byte) error {
	if err := s.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("screen: %s: %w", s.dc, err)
	}
	return s.conn().Tx(p, nil)
}

// Read implements Interface.
func (s *SPI) Read(p []byte) error {
	if err := s.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("screen: %s: %w", s.dc, err)
	}
	return s.conn().Tx(nil, p)
}

// Acquire implements Interface.
//
// Transfers made through s until Release run on the held bus.
func (s *SPI) Acquire() error {
	if s.s != nil {
		return fmt.Errorf("%w: %s already acquired", ErrInvalidArgument, s)
	}
	h, err := s.d.Acquire()
	if err != nil {
		return err
	}
	s.s = h
	return nil
}

// Release implements Interface.
func (s *SPI) Release() error {
	if s.s == nil {
		return fmt.Errorf("%w: release of %s without matching acquire", ErrInvalidArgument, s)
	}
	h := s.s
	s.s = nil
	return h.Release()
}

type regConn interface {
	Tx(w, r []byte) error
	WriteReg16(v uint16) error
}

func (s *SPI) conn() regConn {
	if s.s != nil {
		return s.s
	}
	return s.d
}

var _ Interface = &SPI{}
