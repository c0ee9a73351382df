// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ResetHold is how long the reset line is held in each state by HardReset.
const ResetHold = 100 * time.Millisecond

// Reg is one entry of a register table.
type Reg struct {
	Addr uint16
	Val  uint16
	// Cmd marks a bare command: Val is not sent.
	Cmd bool
	// Delay is slept after the entry is sent.
	Delay time.Duration
}

// Sequence is a register table sent in order, typically a vendor
// initialization sequence.
type Sequence []Reg

// Send writes every entry of s through i. It stops at the first failure and
// reports which entry failed.
func (s Sequence) Send(i Interface) error {
	for n, r := range s {
		var err error
		if r.Cmd {
			err = i.WriteCommand(r.Addr)
		} else {
			err = WriteReg(i, r.Addr, r.Val)
		}
		if err != nil {
			return fmt.Errorf("screen: entry %d, register %#04x: %w", n, r.Addr, err)
		}
		if r.Delay > 0 {
			time.Sleep(r.Delay)
		}
	}
	return nil
}

// WriteReg writes val to the register addr.
func WriteReg(i Interface, addr, val uint16) error {
	if err := i.WriteCommand(addr); err != nil {
		return err
	}
	return i.WriteData(val)
}

// HardReset pulses the reset line: active for ResetHold, then inactive for
// ResetHold so the controller is ready when it returns.
func HardReset(p gpio.PinOut, active gpio.Level) error {
	if err := p.Out(active); err != nil {
		return fmt.Errorf("screen: asserting reset %s: %w", p, err)
	}
	time.Sleep(ResetHold)
	if err := p.Out(!active); err != nil {
		return fmt.Errorf("screen: releasing reset %s: %w", p, err)
	}
	time.Sleep(ResetHold)
	return nil
}

// SetBacklight turns the backlight on.
func SetBacklight(p gpio.PinOut, active gpio.Level) error {
	if err := p.Out(active); err != nil {
		return fmt.Errorf("screen: backlight %s: %w", p, err)
	}
	return nil
}
