// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usi

import (
	"errors"
	"testing"

	"github.com/GermanBionicSystems/usii2c/sim"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// newLoopback returns a unit over two test pins that read back what is
// driven on them.
func newLoopback(t *testing.T) (*Dev, *gpiotest.Pin, *gpiotest.Pin) {
	scl := &gpiotest.Pin{N: t.Name() + "_SCL", Num: 0, L: gpio.High}
	sda := &gpiotest.Pin{N: t.Name() + "_SDA", Num: 1, L: gpio.High}
	d, err := New(scl, sda)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := d.Halt(); err != nil {
			t.Error(err)
		}
	})
	return d, scl, sda
}

func TestMode(t *testing.T) {
	data := []struct {
		m      Mode
		edges  int
		preset uint8
		s      string
	}{
		{ShiftByte, 16, 0, "ShiftByte"},
		{ShiftBit, 2, 14, "ShiftBit"},
	}
	for _, line := range data {
		if e := line.m.Edges(); e != line.edges {
			t.Errorf("%s.Edges() = %d", line.m, e)
		}
		if p := line.m.preset(); p != line.preset {
			t.Errorf("%s.preset() = %d", line.m, p)
		}
		if s := line.m.String(); s != line.s {
			t.Errorf("String() = %q", s)
		}
	}
	if s := Mode(7).String(); s != "Mode(7)" {
		t.Fatal(s)
	}
	if Input.String() != "Input" || Output.String() != "Output" {
		t.Fatal("unexpected Direction strings")
	}
}

func TestNewErrors(t *testing.T) {
	p := &gpiotest.Pin{N: "TestNewErrors_P", L: gpio.High}
	if _, err := New(nil, p); err == nil {
		t.Fatal("nil SCL must fail")
	}
	if _, err := New(p, p); err == nil {
		t.Fatal("same pin twice must fail")
	}
	d, scl, _ := newLoopback(t)
	other := &gpiotest.Pin{N: "TestNewErrors_other", L: gpio.High}
	if _, err := New(scl, other); !errors.Is(err, ErrInUse) {
		t.Fatalf("New() = %v, want ErrInUse", err)
	}
	// A failed claim must not keep the free pin.
	d2, err := New(other, p)
	if err != nil {
		t.Fatal(err)
	}
	if err := d2.Halt(); err != nil {
		t.Fatal(err)
	}
	if d.SCL() != scl {
		t.Fatal("SCL() must return the SCL pin")
	}
}

func TestHalt(t *testing.T) {
	scl := &gpiotest.Pin{N: "TestHalt_SCL", L: gpio.High}
	sda := &gpiotest.Pin{N: "TestHalt_SDA", L: gpio.High}
	d, err := New(scl, sda)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSCL(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if scl.L != gpio.High || scl.P != gpio.PullUp {
		t.Fatal("Halt must release SCL")
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSCL(gpio.Low); !errors.Is(err, ErrHalted) {
		t.Fatalf("SetSCL() = %v, want ErrHalted", err)
	}
	if err := d.Strobe(); !errors.Is(err, ErrHalted) {
		t.Fatalf("Strobe() = %v, want ErrHalted", err)
	}
	d2, err := New(scl, sda)
	if err != nil {
		t.Fatalf("pins must be free after Halt: %v", err)
	}
	if err := d2.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestStrobeNotConfigured(t *testing.T) {
	d, _, _ := newLoopback(t)
	if err := d.Strobe(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Strobe() = %v, want ErrNotConfigured", err)
	}
}

func TestOverflow(t *testing.T) {
	d, _, _ := newLoopback(t)
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	for _, m := range []Mode{ShiftByte, ShiftBit, ShiftByte} {
		d.Arm(m)
		for i := range m.Edges() {
			if d.Done() {
				t.Fatalf("%s: overflow after %d edges", m, i)
			}
			if err := d.Strobe(); err != nil {
				t.Fatal(err)
			}
		}
		if !d.Done() {
			t.Fatalf("%s: no overflow after %d edges", m, m.Edges())
		}
	}
	d.ClearFlags()
	if d.Done() {
		t.Fatal("ClearFlags must clear the overflow flag")
	}
}

func TestShiftLoopback(t *testing.T) {
	d, scl, sda := newLoopback(t)
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSCL(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if scl.L != gpio.Low {
		t.Fatal("SCL must be pulled low")
	}
	for _, v := range []byte{0x00, 0xa5, 0x5a, 0xff, 0x01, 0x80} {
		if err := d.Load(v); err != nil {
			t.Fatal(err)
		}
		if sda.L != gpio.Level(v&0x80 != 0) {
			t.Fatalf("0x%02x: SDA = %s", v, sda.L)
		}
		d.Arm(ShiftByte)
		for !d.Done() {
			if err := d.Strobe(); err != nil {
				t.Fatal(err)
			}
		}
		if got := d.Data(); got != v {
			t.Fatalf("shifted 0x%02x, read back 0x%02x", v, got)
		}
	}
}

func TestSDA(t *testing.T) {
	d, _, sda := newLoopback(t)
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSCL(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if err := d.Load(0x00); err != nil {
		t.Fatal(err)
	}
	if sda.L != gpio.Low {
		t.Fatal("a zero MSB must pull SDA low")
	}
	if err := d.SetSDADirection(Input); err != nil {
		t.Fatal(err)
	}
	if sda.L != gpio.High {
		t.Fatal("an input must release SDA")
	}
	if err := d.SetSDADirection(Output); err != nil {
		t.Fatal(err)
	}
	if err := d.Load(0xff); err != nil {
		t.Fatal(err)
	}
	if sda.L != gpio.High {
		t.Fatal("a one MSB must release SDA")
	}
	if err := d.SetSDA(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if sda.L != gpio.Low {
		t.Fatal("the port latch must pull SDA low")
	}
}

func TestOutputLatchFrozen(t *testing.T) {
	d, _, sda := newLoopback(t)
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	// SCL is high: loading the data register must not change SDA.
	if err := d.Load(0x00); err != nil {
		t.Fatal(err)
	}
	if sda.L != gpio.High {
		t.Fatal("output latch must hold while SCL is high")
	}
	if err := d.SetSCL(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if sda.L != gpio.Low {
		t.Fatal("output latch must follow the MSB while SCL is low")
	}
}

// failingPin is a test pin whose Out fails while fail is set.
type failingPin struct {
	*gpiotest.Pin
	fail bool
}

func (p *failingPin) Out(l gpio.Level) error {
	if p.fail {
		return errors.New("out failed")
	}
	return p.Pin.Out(l)
}

func TestReadSCLError(t *testing.T) {
	scl := &gpiotest.Pin{N: t.Name() + "_SCL", Num: 0, L: gpio.High}
	sda := &failingPin{Pin: &gpiotest.Pin{N: t.Name() + "_SDA", Num: 1, L: gpio.High}}
	d, err := New(scl, sda)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Halt()
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	if err := d.Load(0x00); err != nil {
		t.Fatal(err)
	}
	// Another device pulls SCL low, the output latch opens and SDA must be
	// driven low.
	scl.L = gpio.Low
	sda.fail = true
	if d.ReadSCL() != gpio.Low {
		t.Fatal("expected SCL low")
	}
	sda.fail = false
	if err := d.Strobe(); err == nil {
		t.Fatal("Strobe() should report the SDA failure")
	}
	if err := d.Strobe(); err != nil {
		t.Fatal(err)
	}
	if sda.L != gpio.Low {
		t.Fatal("SDA should follow the output latch")
	}
}

func TestStretchedEdge(t *testing.T) {
	b := sim.New()
	scl, sda := b.Pins()
	d, err := New(scl, sda)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Halt()
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSCL(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if err := d.Load(0x80); err != nil {
		t.Fatal(err)
	}
	d.Arm(ShiftBit)
	b.HoldClock(true)
	if err := d.Strobe(); err != nil {
		t.Fatal(err)
	}
	if d.ReadSCL() != gpio.Low {
		t.Fatal("held clock must read low")
	}
	if got := d.Data(); got != 0x80 {
		t.Fatalf("shifted before the rising edge: 0x%02x", got)
	}
	b.HoldClock(false)
	if d.ReadSCL() != gpio.High {
		t.Fatal("released clock must read high")
	}
	if got := d.Data(); got != 0x01 {
		t.Fatalf("Data() = 0x%02x, want 0x01", got)
	}
	if s := d.String(); s != "usi("+scl.String()+", "+sda.String()+")" {
		t.Fatal(s)
	}
}
