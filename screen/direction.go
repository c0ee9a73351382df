// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package screen

import "fmt"

// Direction is the order in which the panel scans logical pixels.
//
// The names read as horizontal then vertical: LRTB is left to right then top
// to bottom, the native direction of the controller. Directions starting
// with TB or BT swap the axes.
type Direction uint

// The eight scan directions.
const (
	LRTB Direction = iota
	LRBT
	RLTB
	RLBT
	TBLR
	BTLR
	TBRL
	BTRL

	// DirMax is the number of scan directions.
	DirMax
)

// Packed flags, an alternative spelling of the scan directions. They can be
// OR'ed together: MirrorX|MirrorY is RLBT.
const (
	MirrorY Direction = 0x20
	MirrorX Direction = 0x40
	SwapXY  Direction = 0x80
)

// Normalize maps d to one of the eight scan directions.
//
// Values above DirMax are taken as packed flags and shifted right by 5 bits,
// so SwapXY|MirrorX becomes TBRL. Anything still outside LRTB..BTRL after
// that fails with ErrInvalidArgument: DirMax itself, or 256 which shifts to
// 8. Small values between DirMax and MirrorY shift to LRTB.
func (d Direction) Normalize() (Direction, error) {
	n := d
	if n > DirMax {
		n >>= 5
	}
	if n >= DirMax {
		return 0, fmt.Errorf("%w: direction %d", ErrInvalidArgument, uint(d))
	}
	return n, nil
}

// MirroredY reports whether the normalized direction scans bottom to top in
// the native vertical axis.
func (d Direction) MirroredY() bool {
	return d&1 != 0
}

// MirroredX reports whether the normalized direction scans right to left in
// the native horizontal axis.
func (d Direction) MirroredX() bool {
	return d&2 != 0
}

// Swapped reports whether the normalized direction exchanges the axes.
func (d Direction) Swapped() bool {
	return d&4 != 0
}

var directionNames = [...]string{"LRTB", "LRBT", "RLTB", "RLBT", "TBLR", "BTLR", "TBRL", "BTRL"}

func (d Direction) String() string {
	if d < DirMax {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%#x)", uint(d))
}
