// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sim simulates an open-drain two-wire bus.
//
// Each line is pulled high unless a participant pulls it low. The master
// gets a pair of gpio.PinIO through Pins; peers like Target are attached
// with Attach and react synchronously to every level change. The bus keeps
// a virtual clock advanced by Delay, so timing loops run instantly while
// the recorded trace keeps realistic timestamps.
package sim

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Event is a change of the line levels.
type Event struct {
	At  time.Duration
	SCL gpio.Level
	SDA gpio.Level
}

func (e Event) String() string {
	return fmt.Sprintf("%s SCL=%s SDA=%s", e.At, e.SCL, e.SDA)
}

// Peer is a device on the bus other than the master.
type Peer interface {
	// Sense is called each time the line levels change, with the bus lock
	// held. It returns whether the peer pulls SCL and SDA low.
	Sense(scl, sda gpio.Level) (holdSCL, holdSDA bool)
}

type peer struct {
	p        Peer
	scl, sda bool
}

// maxSettle bounds the number of reactions to a single change.
const maxSettle = 16

var busCount int32

// Bus is a simulated two-wire bus.
type Bus struct {
	mu     sync.Mutex
	id     int32
	now    time.Duration
	scl    gpio.Level
	sda    gpio.Level
	held   bool
	master [2]*Pin
	peers  []peer
	events []Event
}

// New returns an idle bus, both lines high.
func New() *Bus {
	b := &Bus{id: atomic.AddInt32(&busCount, 1) - 1, scl: gpio.High, sda: gpio.High}
	b.master[lineSCL] = &Pin{bus: b, line: lineSCL, name: fmt.Sprintf("SIM%d_SCL", b.id), num: 0, pull: gpio.PullUp}
	b.master[lineSDA] = &Pin{bus: b, line: lineSDA, name: fmt.Sprintf("SIM%d_SDA", b.id), num: 1, pull: gpio.PullUp}
	b.events = []Event{{SCL: gpio.High, SDA: gpio.High}}
	return b
}

func (b *Bus) String() string {
	return fmt.Sprintf("sim%d", b.id)
}

// Pins returns the master's pins.
func (b *Bus) Pins() (scl, sda *Pin) {
	return b.master[lineSCL], b.master[lineSDA]
}

// Attach adds a peer to the bus.
func (b *Bus) Attach(p Peer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs, hd := p.Sense(b.scl, b.sda)
	b.peers = append(b.peers, peer{p: p, scl: hs, sda: hd})
	b.settle()
}

// HoldClock pulls SCL low from outside the bus master, as a peer stretching
// the clock or a stuck device would.
func (b *Bus) HoldClock(hold bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.held = hold
	b.settle()
}

// Delay advances the virtual clock. It has the signature of a busy-wait
// delay so it can replace one.
func (b *Bus) Delay(d time.Duration) {
	b.mu.Lock()
	b.now += d
	b.mu.Unlock()
}

// Now returns the virtual clock.
func (b *Bus) Now() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now
}

// Levels returns the current line levels.
func (b *Bus) Levels() (scl, sda gpio.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scl, b.sda
}

// Trace returns a copy of the recorded events. The first event is the
// state of the bus when recording started.
func (b *Bus) Trace() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// ResetTrace drops the recorded events and restarts recording from the
// current levels.
func (b *Bus) ResetTrace() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = []Event{{At: b.now, SCL: b.scl, SDA: b.sda}}
}

// settle recomputes the wired-AND levels until no participant reacts
// anymore. Must be called with the lock held.
func (b *Bus) settle() {
	for range maxSettle {
		scl := !b.held && !b.master[lineSCL].low
		sda := !b.master[lineSDA].low
		for _, p := range b.peers {
			scl = scl && !p.scl
			sda = sda && !p.sda
		}
		if gpio.Level(scl) == b.scl && gpio.Level(sda) == b.sda {
			return
		}
		b.scl, b.sda = gpio.Level(scl), gpio.Level(sda)
		b.events = append(b.events, Event{At: b.now, SCL: b.scl, SDA: b.sda})
		for i := range b.peers {
			b.peers[i].scl, b.peers[i].sda = b.peers[i].p.Sense(b.scl, b.sda)
		}
	}
	panic("sim: bus does not settle")
}
