// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sim

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type line int

const (
	lineSCL line = iota
	lineSDA
)

// Pin is the master's connection to one line of a Bus.
//
// The line is open-drain: Out(gpio.Low) pulls it low, Out(gpio.High) and In
// release it.
type Pin struct {
	bus  *Bus
	line line
	name string
	num  int

	// Protected by bus.mu.
	low  bool
	out  bool
	pull gpio.Pull
}

func (p *Pin) String() string {
	return p.name
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.name
}

// Number implements pin.Pin.
func (p *Pin) Number() int {
	return p.num
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	if !p.out {
		return "In/" + p.level().String()
	}
	return "Out/" + p.level().String()
}

// In implements gpio.PinIn.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return errors.New("sim: edge detection is not supported")
	}
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	p.out = false
	p.low = false
	if pull != gpio.PullNoChange {
		p.pull = pull
	}
	p.bus.settle()
	return nil
}

// Read implements gpio.PinIn.
func (p *Pin) Read() gpio.Level {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	return p.level()
}

// WaitForEdge implements gpio.PinIn. Edges are never reported.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return false
}

// Pull implements gpio.PinIn.
func (p *Pin) Pull() gpio.Pull {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	return p.pull
}

// DefaultPull implements gpio.PinIn.
func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	p.out = true
	p.low = l == gpio.Low
	p.bus.settle()
	return nil
}

// PWM implements gpio.PinOut.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("sim: PWM is not supported")
}

func (p *Pin) level() gpio.Level {
	if p.line == lineSCL {
		return p.bus.scl
	}
	return p.bus.sda
}

var _ gpio.PinIO = &Pin{}
