// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rm68120

import (
	"time"

	"github.com/GermanBionicSystems/lcd/screen"
)

// Controller RAM size in the native direction.
const (
	nativeWidth  = 480
	nativeHeight = 800
)

// Commands and registers. The RM68120 addresses every parameter of a command
// as its own 16 bits register: CASET+1 is the second parameter of CASET.
const (
	cmdSWRESET uint16 = 0x0100
	cmdSLPOUT  uint16 = 0x1100
	cmdINVOFF  uint16 = 0x2000
	cmdINVON   uint16 = 0x2100
	cmdDISPOFF uint16 = 0x2800
	cmdDISPON  uint16 = 0x2900
	regCASET   uint16 = 0x2A00
	regRASET   uint16 = 0x2B00
	cmdRAMWR   uint16 = 0x2C00
	regMADCTL  uint16 = 0x3600
)

// MADCTL bits.
const (
	madctlMY  = 0x80
	madctlMX  = 0x40
	madctlMV  = 0x20
	madctlRGB = 0x08
)

// gammaCurve is loaded in each of the six gamma tables, D1xx to D6xx: red,
// green and blue, positive then negative.
var gammaCurve = [53]byte{
	0x00, 0x00, 0x1B, 0x44, 0x62, 0x00, 0x7B, 0xA1, 0xC0, 0xEE,
	0x55, 0x10, 0x2C, 0x43, 0x57, 0x55, 0x68, 0x78, 0x87, 0x94,
	0x55, 0xA0, 0xAC, 0xB6, 0xC1, 0x55, 0xCB, 0xCD, 0xD6, 0xDF,
	0x95, 0xE8, 0xF1, 0xFA, 0x02, 0xAA, 0x0B, 0x13, 0x1D, 0x26,
	0xAA, 0x30, 0x3C, 0x4A, 0x63, 0xEA, 0x79, 0xA6, 0xD0, 0x20,
	0x0F, 0x8E, 0xFF,
}

// Page 1 registers following the gamma tables.
var powerRegs = screen.Sequence{
	// Boost: AVDD, AVEE.
	{Addr: 0xB000, Val: 0x05},
	{Addr: 0xB001, Val: 0x05},
	{Addr: 0xB002, Val: 0x05},
	{Addr: 0xB100, Val: 0x05},
	{Addr: 0xB101, Val: 0x05},
	{Addr: 0xB102, Val: 0x05},

	// Boost ratios: AVDD, AVEE, VCL, VGH, VGL.
	{Addr: 0xB600, Val: 0x34},
	{Addr: 0xB601, Val: 0x34},
	{Addr: 0xB603, Val: 0x34},
	{Addr: 0xB700, Val: 0x24},
	{Addr: 0xB701, Val: 0x24},
	{Addr: 0xB702, Val: 0x24},
	{Addr: 0xB800, Val: 0x24},
	{Addr: 0xB801, Val: 0x24},
	{Addr: 0xB802, Val: 0x24},
	{Addr: 0xBA00, Val: 0x14},
	{Addr: 0xBA01, Val: 0x14},
	{Addr: 0xBA02, Val: 0x14},
	{Addr: 0xB900, Val: 0x24},
	{Addr: 0xB901, Val: 0x24},
	{Addr: 0xB902, Val: 0x24},

	// Positive and negative gamma voltages.
	{Addr: 0xBC00, Val: 0x00},
	{Addr: 0xBC01, Val: 0xA0},
	{Addr: 0xBC02, Val: 0x00},
	{Addr: 0xBD00, Val: 0x00},
	{Addr: 0xBD01, Val: 0xA0},
	{Addr: 0xBD02, Val: 0x00},

	// VCOM.
	{Addr: 0xBE01, Val: 0x3D},
}

// Page 0: display options.
var displayRegs = screen.Sequence{
	{Addr: 0xB400, Val: 0x10},
	{Addr: 0xBC00, Val: 0x05},
	{Addr: 0xBC01, Val: 0x05},
	{Addr: 0xBC02, Val: 0x05},
	{Addr: 0xB700, Val: 0x22},
	{Addr: 0xB701, Val: 0x22},
	{Addr: 0xC80B, Val: 0x2A},
	{Addr: 0xC80C, Val: 0x2A},
	{Addr: 0xC80F, Val: 0x2A},
	{Addr: 0xC810, Val: 0x2A},
	{Addr: 0xD000, Val: 0x01},
	{Addr: 0xB300, Val: 0x10},
	{Addr: 0xBD02, Val: 0x07},
	{Addr: 0xBE02, Val: 0x07},
	{Addr: 0xBF02, Val: 0x07},
}

// Page 2.
var page2Regs = screen.Sequence{
	{Addr: 0xC301, Val: 0xA9},
	{Addr: 0xFE01, Val: 0x94},
	// Oscillator.
	{Addr: 0xF600, Val: 0x60},
	// Tearing effect on.
	{Addr: 0x3500, Val: 0x00},
}

// selectPage enables the manufacturer command set page n.
func selectPage(n uint16) screen.Sequence {
	return screen.Sequence{
		{Addr: 0xF000, Val: 0x55},
		{Addr: 0xF001, Val: 0xAA},
		{Addr: 0xF002, Val: 0x52},
		{Addr: 0xF003, Val: 0x08},
		{Addr: 0xF004, Val: n},
	}
}

// initSequence is the vendor power up sequence, sent as is by Init.
var initSequence = buildInitSequence()

func buildInitSequence() screen.Sequence {
	s := screen.Sequence{{Addr: cmdSWRESET, Cmd: true, Delay: 10 * time.Millisecond}}
	s = append(s, selectPage(1)...)
	for table := uint16(0xD100); table <= 0xD600; table += 0x100 {
		for i, v := range gammaCurve {
			s = append(s, screen.Reg{Addr: table + uint16(i), Val: uint16(v)})
		}
	}
	s = append(s, powerRegs...)
	s = append(s, selectPage(0)...)
	s = append(s, displayRegs...)
	s = append(s, selectPage(2)...)
	s = append(s, page2Regs...)
	s = append(s,
		screen.Reg{Addr: cmdSLPOUT, Cmd: true, Delay: 100 * time.Millisecond},
		screen.Reg{Addr: cmdDISPON, Cmd: true, Delay: 100 * time.Millisecond},
		// 16 bits per pixel. MADCTL is overwritten by SetDirection at the end of
		// Init.
		screen.Reg{Addr: 0x3A00, Val: 0x55},
		screen.Reg{Addr: regMADCTL, Val: 0xA3},
	)
	return s
}
