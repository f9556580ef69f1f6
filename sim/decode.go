// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the kind of a decoded Symbol.
type Kind uint8

const (
	// Start is a start or repeated start condition.
	Start Kind = iota
	// Stop is a stop condition.
	Stop
	// Byte is eight data bits, most significant first.
	Byte
	// Ack is a ninth bit with SDA low.
	Ack
	// Nack is a ninth bit with SDA released.
	Nack
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "Start"
	case Stop:
		return "Stop"
	case Byte:
		return "Byte"
	case Ack:
		return "Ack"
	case Nack:
		return "Nack"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Symbol is a protocol element found in a trace.
type Symbol struct {
	Kind  Kind
	Value byte // Only for Byte.
	At    time.Duration
	// Index is the position in the trace of the event that completed the
	// symbol.
	Index int
}

// String returns the usual logic analyzer notation: S, P, A, N or the byte
// in hexadecimal.
func (s Symbol) String() string {
	switch s.Kind {
	case Start:
		return "S"
	case Stop:
		return "P"
	case Ack:
		return "A"
	case Nack:
		return "N"
	default:
		return fmt.Sprintf("0x%02x", s.Value)
	}
}

// Decode reads the I²C protocol out of a trace.
//
// A change of SDA while SCL stays high is a start (falling) or a stop
// (rising). Data bits are sampled on SCL rising edges: eight bits form a
// Byte, the ninth is the acknowledge. Bits seen outside a start/stop pair
// are ignored.
func Decode(events []Event) []Symbol {
	if len(events) == 0 {
		return nil
	}
	var out []Symbol
	prev := events[0]
	active := false
	bits := 0
	var v byte
	for i, e := range events[1:] {
		idx := i + 1
		scl, sda := bool(e.SCL), bool(e.SDA)
		pscl, psda := bool(prev.SCL), bool(prev.SDA)
		switch {
		case pscl && scl && psda && !sda:
			out = append(out, Symbol{Kind: Start, At: e.At, Index: idx})
			active = true
			bits, v = 0, 0
		case pscl && scl && !psda && sda:
			out = append(out, Symbol{Kind: Stop, At: e.At, Index: idx})
			active = false
		case !pscl && scl && active:
			if bits < 8 {
				v = v<<1 | bit(e.SDA)
				bits++
				if bits == 8 {
					out = append(out, Symbol{Kind: Byte, Value: v, At: e.At, Index: idx})
				}
				break
			}
			k := Ack
			if sda {
				k = Nack
			}
			out = append(out, Symbol{Kind: k, At: e.At, Index: idx})
			bits, v = 0, 0
		}
		prev = e
	}
	return out
}

// Format joins the symbols with spaces, e.g. "S 0xa0 A 0x01 A P".
func Format(symbols []Symbol) string {
	s := make([]string, len(symbols))
	for i, sym := range symbols {
		s[i] = sym.String()
	}
	return strings.Join(s, " ")
}

// Bytes returns the values of the Byte symbols.
func Bytes(symbols []Symbol) []byte {
	var b []byte
	for _, s := range symbols {
		if s.Kind == Byte {
			b = append(b, s.Value)
		}
	}
	return b
}
