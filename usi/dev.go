// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usi

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
)

// Dev is a USI emulated on two GPIO pins.
//
// A line is pulled low with Out(gpio.Low) and released with
// In(gpio.PullUp, gpio.NoEdge), so the pins behave as open-drain outputs
// even when the host only supports push-pull.
type Dev struct {
	mu  sync.Mutex
	scl gpio.PinIO
	sda gpio.PinIO

	sclPort gpio.Level
	sdaPort gpio.Level
	dir     Direction

	data     byte
	latch    bool // output latch, high when the data register MSB was 1
	counter  uint8
	armed    bool
	overflow bool

	sclHigh    bool // last SCL level seen on the pin
	sdaDrive   int8 // -1 unknown, 0 released, 1 pulled low
	sclDrive   int8
	configured bool
	halted     bool
	err        error // SDA failure seen by ReadSCL, reported by the next Strobe or SetSCL
}

// New returns a unit that owns scl and sda.
//
// New does not drive the pins. A pin can only be owned by one unit at a
// time; Halt gives it back.
func New(scl, sda gpio.PinIO) (*Dev, error) {
	if scl == nil || sda == nil {
		return nil, errors.New("usi: both SCL and SDA pins are required")
	}
	if scl.Name() == sda.Name() {
		return nil, fmt.Errorf("usi: SCL and SDA must be different pins, got %s twice", scl)
	}
	if err := claim(scl, sda); err != nil {
		return nil, err
	}
	return &Dev{
		scl:      scl,
		sda:      sda,
		sclPort:  gpio.High,
		sdaPort:  gpio.High,
		dir:      Output,
		data:     0xff,
		latch:    true,
		sclHigh:  bool(scl.Read()),
		sdaDrive: -1,
		sclDrive: -1,
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("usi(%s, %s)", d.scl, d.sda)
}

// Halt implements conn.Resource.
//
// It releases both lines and the pin ownership. The unit can't be used
// afterward.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return nil
	}
	d.halted = true
	d.configured = false
	release(d.scl, d.sda)
	return multierr.Combine(
		d.sda.In(gpio.PullUp, gpio.NoEdge),
		d.scl.In(gpio.PullUp, gpio.NoEdge),
	)
}

// SCL implements i2c.Pins.
func (d *Dev) SCL() gpio.PinIO {
	return d.scl
}

// SDA implements i2c.Pins.
func (d *Dev) SDA() gpio.PinIO {
	return d.sda
}

// Configure implements Unit.
func (d *Dev) Configure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	d.armed = false
	d.err = nil
	d.sclDrive, d.sdaDrive = -1, -1
	if err := d.applySCL(); err != nil {
		return err
	}
	d.observe()
	// Reloading the mode resets the output latch.
	d.latch = d.data&0x80 != 0
	d.configured = true
	return d.applySDA()
}

// SetSCL implements Unit.
func (d *Dev) SetSCL(l gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	if err := d.pending(); err != nil {
		return err
	}
	d.sclPort = l
	if err := d.applySCL(); err != nil {
		return err
	}
	d.observe()
	return d.applySDA()
}

// SetSDA implements Unit.
func (d *Dev) SetSDA(l gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	d.sdaPort = l
	return d.applySDA()
}

// ReadSCL implements Unit.
//
// A rising edge that was delayed by a peer stretching the clock is shifted
// in when it is first seen here. An error driving SDA is returned by the
// next Strobe or SetSCL.
func (d *Dev) ReadSCL() gpio.Level {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return d.scl.Read()
	}
	d.observe()
	// The output latch may have become transparent.
	if err := d.applySDA(); err != nil && d.err == nil {
		d.err = err
	}
	return gpio.Level(d.sclHigh)
}

// SetSDADirection implements Unit.
func (d *Dev) SetSDADirection(dir Direction) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	d.dir = dir
	return d.applySDA()
}

// Load implements Unit.
func (d *Dev) Load(b byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	d.data = b
	return d.applySDA()
}

// Data implements Unit.
func (d *Dev) Data() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

// ClearFlags implements Unit.
func (d *Dev) ClearFlags() {
	d.mu.Lock()
	d.overflow = false
	d.armed = false
	d.counter = 0
	d.mu.Unlock()
}

// Arm implements Unit.
func (d *Dev) Arm(m Mode) {
	d.mu.Lock()
	d.overflow = false
	d.armed = true
	d.counter = m.preset()
	d.mu.Unlock()
}

// Strobe implements Unit.
func (d *Dev) Strobe() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	if !d.configured {
		return ErrNotConfigured
	}
	if err := d.pending(); err != nil {
		return err
	}
	d.sclPort = !d.sclPort
	d.counter = (d.counter + 1) & counterMask
	if d.counter == 0 {
		d.overflow = true
		d.armed = false
	}
	if err := d.applySCL(); err != nil {
		return err
	}
	d.observe()
	return d.applySDA()
}

// Done implements Unit.
func (d *Dev) Done() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overflow
}

// pending returns and clears the error recorded by ReadSCL.
func (d *Dev) pending() error {
	err := d.err
	d.err = nil
	return err
}

// observe samples SCL and shifts the data register on a rising edge.
//
// Edges outside an armed transfer, like the one of a stop condition, leave
// the data register alone.
func (d *Dev) observe() {
	high := bool(d.scl.Read())
	if high && !d.sclHigh && d.armed {
		d.data = d.data<<1 | byte(bit(d.sda.Read()))
	}
	d.sclHigh = high
}

// applySCL drives SCL from its port latch.
func (d *Dev) applySCL() error {
	low := d.sclPort == gpio.Low
	if d.sclDrive >= 0 && (d.sclDrive == 1) == low {
		return nil
	}
	if err := drive(d.scl, low); err != nil {
		return err
	}
	d.sclDrive = int8(bit(gpio.Level(low)))
	return nil
}

// applySDA drives SDA from its direction, its port latch and the output
// latch. The output latch is transparent while SCL is low.
func (d *Dev) applySDA() error {
	if !d.sclHigh {
		d.latch = d.data&0x80 != 0
	}
	low := d.dir == Output && (d.sdaPort == gpio.Low || !d.latch)
	if d.sdaDrive >= 0 && (d.sdaDrive == 1) == low {
		return nil
	}
	if err := drive(d.sda, low); err != nil {
		return err
	}
	d.sdaDrive = int8(bit(gpio.Level(low)))
	return nil
}

func drive(p gpio.PinIO, low bool) error {
	if low {
		return p.Out(gpio.Low)
	}
	return p.In(gpio.PullUp, gpio.NoEdge)
}

func bit(l gpio.Level) byte {
	if l {
		return 1
	}
	return 0
}

var _ Unit = &Dev{}
var _ i2c.Pins = &Dev{}
