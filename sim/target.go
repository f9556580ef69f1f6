// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sim

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

type targetState uint8

const (
	stIdle targetState = iota
	stAddr
	stWrite
	stRead
)

// Target is a register file device with a 7-bit address, the way most I²C
// EEPROMs and sensors behave.
//
// The first byte of a write selects the register, the following bytes are
// stored at consecutive registers. A read returns consecutive registers
// starting at the current one. The register pointer wraps at 256.
type Target struct {
	// Addr is the 7-bit address the target answers to.
	Addr uint8
	// Mem is the register file.
	Mem [256]byte
	// Ptr is the register pointer.
	Ptr byte
	// NackAfter, when positive, is the number of bytes the target accepts in
	// one write before answering NACK.
	NackAfter int

	// Received holds every byte acknowledged in a write, register bytes
	// included.
	Received []byte
	// Sent holds every byte put on the bus in a read.
	Sent []byte
	// MasterAcks holds the acknowledge sent by the master after each byte of
	// a read, true for ACK.
	MasterAcks []bool

	state   targetState
	prevSCL gpio.Level
	prevSDA gpio.Level
	bit     int
	shift   byte
	inAck   bool
	read    bool
	ptrSet  bool
	count   int
	out     byte
	ackOut  bool
	sdaLow  bool
}

// NewTarget returns a target at addr with its register file zeroed.
func NewTarget(addr uint8) *Target {
	return &Target{Addr: addr, prevSCL: gpio.High, prevSDA: gpio.High}
}

func (t *Target) String() string {
	return fmt.Sprintf("target(0x%02x)", t.Addr)
}

// Sense implements Peer.
func (t *Target) Sense(scl, sda gpio.Level) (bool, bool) {
	c, d := bool(scl), bool(sda)
	pc, pd := bool(t.prevSCL), bool(t.prevSDA)
	switch {
	case c && pc && pd && !d:
		// Start or repeated start.
		t.state = stAddr
		t.bit, t.shift = 0, 0
		t.inAck = false
		t.sdaLow = false
	case c && pc && !pd && d:
		// Stop.
		t.state = stIdle
		t.inAck = false
		t.sdaLow = false
	case c && !pc:
		t.rise(sda)
	case !c && pc:
		t.fall()
	}
	t.prevSCL, t.prevSDA = scl, sda
	return false, t.sdaLow
}

func (t *Target) rise(sda gpio.Level) {
	switch t.state {
	case stAddr, stWrite:
		if !t.inAck {
			t.shift = t.shift<<1 | bit(sda)
			t.bit++
		}
	case stRead:
		if t.inAck {
			t.ackOut = sda == gpio.Low
			t.MasterAcks = append(t.MasterAcks, t.ackOut)
			return
		}
		t.bit++
	}
}

func (t *Target) fall() {
	switch {
	case t.state == stIdle:
	case !t.inAck && t.bit == 8:
		t.inAck = true
		t.ack()
	case t.inAck:
		t.inAck = false
		t.bit, t.shift = 0, 0
		t.next()
	case t.state == stRead:
		t.sdaLow = t.out&(0x80>>uint(t.bit)) == 0
	}
}

// ack runs at the end of the eighth clock of a byte.
func (t *Target) ack() {
	switch t.state {
	case stAddr:
		if t.shift>>1 != t.Addr {
			// Not for us; stay silent until the next start.
			t.state = stIdle
			t.inAck = false
			return
		}
		t.read = t.shift&1 == 1
		t.sdaLow = true
	case stWrite:
		if t.NackAfter > 0 && t.count >= t.NackAfter {
			t.sdaLow = false
			return
		}
		t.count++
		t.Received = append(t.Received, t.shift)
		if !t.ptrSet {
			t.Ptr = t.shift
			t.ptrSet = true
		} else {
			t.Mem[t.Ptr] = t.shift
			t.Ptr++
		}
		t.sdaLow = true
	case stRead:
		// Let the master drive its acknowledge.
		t.sdaLow = false
	}
}

// next runs at the end of the acknowledge clock.
func (t *Target) next() {
	switch t.state {
	case stAddr:
		if t.read {
			t.state = stRead
			t.load()
			return
		}
		t.state = stWrite
		t.count = 0
		t.ptrSet = false
		t.sdaLow = false
	case stWrite:
		t.sdaLow = false
	case stRead:
		if t.ackOut {
			t.load()
			return
		}
		t.state = stIdle
		t.sdaLow = false
	}
}

func (t *Target) load() {
	t.out = t.Mem[t.Ptr]
	t.Ptr++
	t.Sent = append(t.Sent, t.out)
	t.sdaLow = t.out&0x80 == 0
}

func bit(l gpio.Level) byte {
	if l {
		return 1
	}
	return 0
}

var _ Peer = &Target{}
