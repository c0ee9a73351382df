// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Control bytes prefixed to every I²C write.
const (
	i2cCommand byte = 0x00
	i2cData    byte = 0x40
)

// I2C is an Interface over an I²C bus. Each write starts with a control byte
// telling commands from data.
type I2C struct {
	c   i2c.Dev
	sem chan struct{}
}

// NewI2C returns an Interface that talks to the panel at addr on b.
func NewI2C(b i2c.Bus, addr uint16) (*I2C, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil i2c bus", ErrInvalidArgument)
	}
	if addr == 0 || addr > 0x3FF {
		return nil, fmt.Errorf("%w: i2c address %#x", ErrInvalidArgument, addr)
	}
	return &I2C{c: i2c.Dev{Bus: b, Addr: addr}, sem: make(chan struct{}, 1)}, nil
}

func (i *I2C) String() string {
	return fmt.Sprintf("screen.I2C{%s}", &i.c)
}

// WriteCommand implements Interface.
func (i *I2C) WriteCommand(cmd uint16) error {
	return i.tx([]byte{i2cCommand, byte(cmd >> 8), byte(cmd)}, nil)
}

// WriteData implements Interface.
func (i *I2C) WriteData(data uint16) error {
	return i.tx([]byte{i2cData, byte(data >> 8), byte(data)}, nil)
}

// Write implements Interface.
func (i *I2C) Write(p []byte) error {
	w := make([]byte, 1+len(p))
	w[0] = i2cData
	copy(w[1:], p)
	return i.tx(w, nil)
}

// Read implements Interface.
func (i *I2C) Read(p []byte) error {
	return i.tx([]byte{i2cData}, p)
}

// Acquire implements Interface.
//
// The I²C bus serializes each transaction on its own; Acquire only keeps
// other users of this Interface out of the bracket.
func (i *I2C) Acquire() error {
	i.sem <- struct{}{}
	return nil
}

// Release implements Interface.
func (i *I2C) Release() error {
	select {
	case <-i.sem:
		return nil
	default:
		return errors.New("screen: release without matching acquire")
	}
}

func (i *I2C) tx(w, r []byte) error {
	if err := i.c.Tx(w, r); err != nil {
		return fmt.Errorf("screen: %s: %w", &i.c, err)
	}
	return nil
}

var _ Interface = &I2C{}
