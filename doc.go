// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package usii2c is a container for a software I²C master built on the
// two-wire mode of a USI shift register.
//
// The usi package emulates the shift register over two GPIO pins, usii2c is
// the bus master on top of it, sim is a simulated bus to run it without
// hardware and wave draws what happened on that bus.
package usii2c
