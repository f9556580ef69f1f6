// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package usii2c implements an I²C master on top of a USI shift register
// unit, without any protocol hardware.
//
// The start and stop conditions are driven through the port latches; bytes
// and acknowledge bits are shifted by strobing the clock until the unit's
// edge counter overflows. Only single master, standard mode transfers are
// supported.
//
// Every wait is a busy wait. A device holding SCL low blocks the master
// until it releases the clock, unless Opts.Timeout is set.
//
// The byte level operations (Start, WriteAddress, WriteByte, ReadByte, Stop)
// report NACK as a value and leave recovery to the caller, who must issue
// Stop to release the bus. Dev also implements i2c.Bus, which turns a NACK
// into ErrNoDevice or ErrNACK and always ends with a stop condition.
//
// WriteByte and ReadByte are not io.ByteWriter and io.ByteReader: one returns
// the acknowledge bit, the other takes the acknowledge to send. go vet's
// stdmethods check reports them for that reason.
//
// # Specification
//
// https://www.nxp.com/docs/en/user-guide/UM10204.pdf
package usii2c
