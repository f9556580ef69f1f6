// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usii2c

import (
	"fmt"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// MaxSpeed is the only bus speed supported: standard mode.
const MaxSpeed = 100 * physic.KiloHertz

// Master is a byte level I²C master.
type Master interface {
	Start() error
	Stop() error
	WriteByte(b byte) (Ack, error)
	ReadByte(more bool) (byte, error)
}

// Transact runs one i2c.Bus style transaction on m.
//
// It writes w then reads len(r) bytes, with a repeated start in between
// when both are set. When both are empty, only the address is sent with the
// write bit, which probes for a device. The last byte read is not
// acknowledged. A stop condition always ends the transaction.
func Transact(m Master, addr uint16, w, r []byte) (err error) {
	wa, err := Address(addr, true)
	if err != nil {
		return err
	}
	ra, _ := Address(addr, false)
	if err := m.Start(); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, m.Stop()) }()
	if len(w) != 0 || len(r) == 0 {
		if err := sendAddress(m, addr, wa); err != nil {
			return err
		}
		for i, b := range w {
			ack, err := m.WriteByte(b)
			if err != nil {
				return err
			}
			if ack != ACK {
				return fmt.Errorf("%w: byte %d of %d written to %#x", ErrNACK, i, len(w), addr)
			}
		}
	}
	if len(r) == 0 {
		return nil
	}
	if len(w) != 0 {
		if err := m.Start(); err != nil {
			return err
		}
	}
	if err := sendAddress(m, addr, ra); err != nil {
		return err
	}
	for i := range r {
		if r[i], err = m.ReadByte(i != len(r)-1); err != nil {
			return err
		}
	}
	return nil
}

func sendAddress(m Master, addr uint16, b byte) error {
	ack, err := m.WriteByte(b)
	if err != nil {
		return err
	}
	if ack != ACK {
		return fmt.Errorf("%w: %#x", ErrNoDevice, addr)
	}
	return nil
}

// master exposes the unlocked operations of a Dev whose lock is held.
type master struct {
	d *Dev
}

func (m master) Start() error                     { return m.d.start() }
func (m master) Stop() error                      { return m.d.stop() }
func (m master) WriteByte(b byte) (Ack, error)    { return m.d.writeByte(b) }
func (m master) ReadByte(more bool) (byte, error) { return m.d.readByte(more) }

// Tx implements i2c.Bus.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Transact(master{d}, addr, w, r)
}

// SetSpeed implements i2c.Bus.
//
// The timing is fixed by Opts; any speed up to MaxSpeed is accepted and
// ignored.
func (d *Dev) SetSpeed(f physic.Frequency) error {
	if f <= 0 || f > MaxSpeed {
		return fmt.Errorf("usii2c: invalid speed %s; only standard mode up to %s is supported", f, MaxSpeed)
	}
	return nil
}

// SCL implements i2c.Pins.
func (d *Dev) SCL() gpio.PinIO {
	if p, ok := d.u.(i2c.Pins); ok {
		return p.SCL()
	}
	return gpio.INVALID
}

// SDA implements i2c.Pins.
func (d *Dev) SDA() gpio.PinIO {
	if p, ok := d.u.(i2c.Pins); ok {
		return p.SDA()
	}
	return gpio.INVALID
}

// Register makes a bus opened by open available through i2creg.Open.
func Register(name string, aliases []string, number int, open func() (*Dev, error)) error {
	return i2creg.Register(name, aliases, number, func() (i2c.BusCloser, error) {
		d, err := open()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

var _ i2c.BusCloser = &Dev{}
var _ i2c.Pins = &Dev{}
