// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usii2c

import "errors"

var (
	// ErrTimeout is returned when a busy wait exceeds Opts.Timeout.
	ErrTimeout = errors.New("usii2c: timeout")
	// ErrNoDevice signals that no device acknowledged the address.
	ErrNoDevice = errors.New("usii2c: no device acknowledged the address")
	// ErrNACK signals that the device did not acknowledge a data byte.
	ErrNACK = errors.New("usii2c: NACK received")
	// ErrAddress is returned for addresses that don't fit in 7 bits.
	ErrAddress = errors.New("usii2c: invalid 7-bit address")
	// ErrInUse is returned when the unit is already driven by another Dev.
	ErrInUse = errors.New("usii2c: unit already in use")
)
