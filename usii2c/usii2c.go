// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usii2c

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/usii2c/usi"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3/cpu"
)

// Ack is the acknowledge bit of a byte, as seen on SDA.
type Ack byte

const (
	// ACK is a low acknowledge bit: the receiver accepted the byte.
	ACK Ack = 0
	// NACK is a high acknowledge bit.
	NACK Ack = 1
)

func (a Ack) String() string {
	if a == ACK {
		return "ACK"
	}
	return "NACK"
}

// Values loaded in the data register before clocking the master's
// acknowledge out. Only the MSB reaches SDA, so 0x00 pulls it low (ACK) and
// 0xff releases it (NACK); 1 and 0 would both acknowledge.
const (
	ackMore byte = 0x00
	ackLast byte = 0xff
)

// Opts holds the bus timing.
type Opts struct {
	// Setup is the settle time around the SDA edge of start and stop
	// conditions.
	Setup time.Duration
	// BusFree is the time the bus stays idle after a stop condition.
	BusFree time.Duration
	// Low is the delay before each rising clock strobe.
	Low time.Duration
	// High is the delay between SCL reading high and the falling strobe.
	High time.Duration
	// Timeout bounds every busy wait: SCL reading high and the end of a
	// shift. Zero waits forever, which allows a device to stretch the clock
	// for as long as it wants.
	Timeout time.Duration
	// Delay waits for exactly the given duration. It defaults to cpu.Nanospin.
	Delay func(time.Duration)
}

// DefaultOpts is standard mode timing.
//
// BusFree is longer than Setup. That was found sufficient with the devices
// it was tested with; nothing stronger is guaranteed.
var DefaultOpts = Opts{
	Setup:   5 * time.Microsecond,
	BusFree: 6 * time.Microsecond,
	Low:     5 * time.Microsecond,
	High:    4 * time.Microsecond,
}

// units holds the units in use, by name. Unit implementations need not be
// comparable.
var (
	unitsMu sync.Mutex
	units   = map[string]bool{}
)

// Dev is an I²C master driving a USI unit.
type Dev struct {
	mu   sync.Mutex
	u    usi.Unit
	name string
	opts Opts
}

// New returns an I²C master using u and puts the bus in its idle state.
//
// Zero durations in opts take the DefaultOpts value. Only one Dev can drive
// a unit at a time; Close releases it.
func New(u usi.Unit, opts *Opts) (*Dev, error) {
	if u == nil {
		return nil, errors.New("usii2c: unit is required")
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	o.fill()
	name := u.String()
	unitsMu.Lock()
	if units[name] {
		unitsMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrInUse, name)
	}
	units[name] = true
	unitsMu.Unlock()
	d := &Dev{u: u, name: name, opts: o}
	if err := d.init(); err != nil {
		d.release()
		return nil, err
	}
	return d, nil
}

func (o *Opts) fill() {
	if o.Setup == 0 {
		o.Setup = DefaultOpts.Setup
	}
	if o.BusFree == 0 {
		o.BusFree = DefaultOpts.BusFree
	}
	if o.Low == 0 {
		o.Low = DefaultOpts.Low
	}
	if o.High == 0 {
		o.High = DefaultOpts.High
	}
	if o.Delay == nil {
		o.Delay = cpu.Nanospin
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("usii2c(%s)", d.u)
}

// Close implements io.Closer.
//
// It halts the unit, releasing both lines, and frees it for another Dev.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.u.Halt()
	d.release()
	return err
}

func (d *Dev) release() {
	unitsMu.Lock()
	delete(units, d.name)
	unitsMu.Unlock()
}

// Init puts the bus back in its idle state: both lines released, the data
// register filled with ones and the status cleared.
//
// New already does this; Init is only needed to recover from an aborted
// transfer.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.init()
}

// Start emits a start condition, or a repeated start in a transaction.
func (d *Dev) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.start()
}

// Stop emits a stop condition.
func (d *Dev) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

// WriteByte shifts b out MSB first and returns the acknowledge of the
// receiver.
//
// SDA is an input while the acknowledge is clocked in.
func (d *Dev) WriteByte(b byte) (Ack, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeByte(b)
}

// ReadByte shifts a byte in. When more is true the byte is acknowledged so
// the device sends another one; otherwise a NACK ends the read.
func (d *Dev) ReadByte(more bool) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readByte(more)
}

// WriteAddress sends the address byte of a 7-bit address, with the R/W bit
// low for a write and high for a read.
func (d *Dev) WriteAddress(addr uint16, write bool) (Ack, error) {
	b, err := Address(addr, write)
	if err != nil {
		return NACK, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeByte(b)
}

// Address returns the address byte: addr in bits 7..1 and the R/W bit in
// bit 0.
func Address(addr uint16, write bool) (byte, error) {
	if addr > 0x7f {
		return 0, fmt.Errorf("%w: %#x", ErrAddress, addr)
	}
	b := byte(addr) << 1
	if !write {
		b |= 1
	}
	return b, nil
}

func (d *Dev) init() error {
	if err := d.u.SetSDADirection(usi.Output); err != nil {
		return err
	}
	if err := d.u.SetSDA(gpio.High); err != nil {
		return err
	}
	if err := d.u.SetSCL(gpio.High); err != nil {
		return err
	}
	if err := d.u.Load(0xff); err != nil {
		return err
	}
	if err := d.u.Configure(); err != nil {
		return err
	}
	d.u.ClearFlags()
	return nil
}

// start ends with SCL low and SDA released, ready for the first bit.
func (d *Dev) start() error {
	if err := d.u.SetSDA(gpio.High); err != nil {
		return err
	}
	if err := d.u.SetSCL(gpio.High); err != nil {
		return err
	}
	if err := d.waitSCL("start"); err != nil {
		return err
	}
	d.opts.Delay(d.opts.Setup)
	if err := d.u.SetSDA(gpio.Low); err != nil {
		return err
	}
	d.opts.Delay(d.opts.Setup)
	if err := d.u.SetSCL(gpio.Low); err != nil {
		return err
	}
	return d.u.SetSDA(gpio.High)
}

// stop ends with both lines released.
func (d *Dev) stop() error {
	if err := d.u.SetSDA(gpio.Low); err != nil {
		return err
	}
	if err := d.u.SetSCL(gpio.High); err != nil {
		return err
	}
	if err := d.waitSCL("stop"); err != nil {
		return err
	}
	d.opts.Delay(d.opts.Setup)
	if err := d.u.SetSDA(gpio.High); err != nil {
		return err
	}
	d.opts.Delay(d.opts.BusFree)
	return nil
}

func (d *Dev) writeByte(b byte) (ack Ack, err error) {
	if err = d.u.Load(b); err != nil {
		return NACK, err
	}
	if _, err = d.transfer(usi.ShiftByte); err != nil {
		return NACK, err
	}
	g, err := d.input()
	defer func() { err = multierr.Append(err, g.restore()) }()
	if err != nil {
		return NACK, err
	}
	v, err := d.transfer(usi.ShiftBit)
	if err != nil {
		return NACK, err
	}
	return Ack(v & 1), nil
}

func (d *Dev) readByte(more bool) (b byte, err error) {
	g, err := d.input()
	defer func() { err = multierr.Append(err, g.restore()) }()
	if err != nil {
		return 0, err
	}
	if b, err = d.transfer(usi.ShiftByte); err != nil {
		return 0, err
	}
	if err = g.restore(); err != nil {
		return 0, err
	}
	a := ackLast
	if more {
		a = ackMore
	}
	if err = d.u.Load(a); err != nil {
		return 0, err
	}
	if _, err = d.transfer(usi.ShiftBit); err != nil {
		return 0, err
	}
	return b, nil
}

var _ Master = &Dev{}
