// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usii2c

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/usii2c/usi"
	"periph.io/x/conn/v3/gpio"
)

// transfer clocks m.Edges() edges through the unit and returns what was
// shifted in. The data register is refilled with ones afterward, which
// releases SDA.
//
// Each clock pulse: wait Low, rising strobe, wait for SCL to read high,
// wait High, falling strobe. Pulses repeat until the edge counter overflows.
func (d *Dev) transfer(m usi.Mode) (byte, error) {
	if err := d.u.SetSCL(gpio.Low); err != nil {
		return 0, err
	}
	d.u.Arm(m)
	deadline := d.deadline()
	for {
		d.opts.Delay(d.opts.Low)
		if err := d.u.Strobe(); err != nil {
			return 0, err
		}
		if err := d.waitSCL("transfer"); err != nil {
			return 0, err
		}
		d.opts.Delay(d.opts.High)
		if err := d.u.Strobe(); err != nil {
			return 0, err
		}
		if d.u.Done() {
			break
		}
		if expired(deadline) {
			return 0, fmt.Errorf("usii2c: %s never completed: %w", m, ErrTimeout)
		}
	}
	v := d.u.Data()
	return v, d.u.Load(0xff)
}

// waitSCL busy-waits until SCL reads high. A device may hold it low to
// stretch the clock.
func (d *Dev) waitSCL(op string) error {
	deadline := d.deadline()
	for d.u.ReadSCL() == gpio.Low {
		if expired(deadline) {
			return fmt.Errorf("usii2c: %s: SCL held low: %w", op, ErrTimeout)
		}
	}
	return nil
}

// deadline returns the zero time when waits are unbounded.
func (d *Dev) deadline() time.Time {
	if d.opts.Timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d.opts.Timeout)
}

func expired(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}

// inputGuard holds SDA as an input until restore is called. restore can be
// called more than once, so it is safe to both defer it and call it early.
type inputGuard struct {
	u    usi.Unit
	done bool
}

// input releases SDA to let the device drive it. The caller must defer
// restore on the returned guard, even when an error is returned.
func (d *Dev) input() (*inputGuard, error) {
	return &inputGuard{u: d.u}, d.u.SetSDADirection(usi.Input)
}

func (g *inputGuard) restore() error {
	if g.done {
		return nil
	}
	g.done = true
	return g.u.SetSDADirection(usi.Output)
}
