// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package usi implements the shift register half of a Universal Serial
// Interface (USI) in two-wire mode on top of two GPIO pins.
//
// Small microcontrollers without a TWI peripheral pair an 8-bit shift
// register and a 4-bit edge counter with a software clock strobe. Software
// drives the start and stop conditions through the port latches and lets the
// unit shift bits on the clock edges it strobes. Dev emulates that unit on
// any periph gpio.PinIO so the same master logic runs on a host GPIO header
// or on a simulated bus.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/Appnotes/Atmel-2561-Using-the-USI-module-as-a-I2C-master_AP-Note_AVR310.pdf
package usi
