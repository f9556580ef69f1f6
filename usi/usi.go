// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usi

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Mode selects how many clock edges the edge counter accepts before the
// overflow flag sets.
type Mode uint8

const (
	// ShiftByte shifts one byte, MSB first. The counter overflows after 16
	// clock edges.
	ShiftByte Mode = iota
	// ShiftBit shifts a single bit, used for the acknowledge bit. The counter
	// overflows after 2 clock edges.
	ShiftBit
)

// Edges returns the number of clock edges counted before the overflow flag
// sets.
func (m Mode) Edges() int {
	if m == ShiftBit {
		return 2
	}
	return 16
}

// preset is the value loaded in the 4-bit edge counter.
func (m Mode) preset() uint8 {
	return uint8(16-m.Edges()) & counterMask
}

func (m Mode) String() string {
	switch m {
	case ShiftByte:
		return "ShiftByte"
	case ShiftBit:
		return "ShiftBit"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Direction is the direction of the data line.
type Direction uint8

const (
	// Output lets the port latch and the shift register drive SDA.
	Output Direction = iota
	// Input releases SDA so a peer can drive it.
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "Input"
	}
	return "Output"
}

const counterMask = 0x0f

var (
	// ErrNotConfigured is returned when the clock is strobed before Configure.
	ErrNotConfigured = errors.New("usi: unit is not configured")
	// ErrInUse is returned when a pin is already owned by another unit.
	ErrInUse = errors.New("usi: pin already in use")
	// ErrHalted is returned by a unit after Halt.
	ErrHalted = errors.New("usi: unit is halted")
)

// Unit is the register level view of a USI in two-wire mode, as used by a
// bus master.
//
// The port latches (SetSCL, SetSDA) are combined with the shift register the
// same way the hardware does: SDA is pulled low when it is an output and
// either its port latch or the output latch (data register MSB) is low.
type Unit interface {
	conn.Resource

	// Configure puts the unit in two-wire master mode with an external clock
	// and software clock strobe.
	Configure() error
	// SetSCL writes the SCL port latch.
	SetSCL(l gpio.Level) error
	// SetSDA writes the SDA port latch.
	SetSDA(l gpio.Level) error
	// ReadSCL returns the level of the SCL pin.
	ReadSCL() gpio.Level
	// SetSDADirection switches the direction of the SDA pin.
	SetSDADirection(d Direction) error
	// Load writes the data register.
	Load(b byte) error
	// Data returns the data register.
	Data() byte
	// ClearFlags clears the status flags and resets the edge counter.
	ClearFlags()
	// Arm clears the status flags and presets the edge counter for m.
	Arm(m Mode)
	// Strobe toggles the clock and counts one edge.
	Strobe() error
	// Done reports whether the edge counter overflowed.
	Done() bool
}
