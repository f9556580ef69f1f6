// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// usii2c talks to I²C devices through a USI master bit-banged on two GPIO
// pins, or through a simulated bus.
//
// Examples:
//
//	usii2c --scl GPIO5 --sda GPIO6 scan
//	usii2c --sim tx --addr 0x50 --write 00 --read 4
//	usii2c trace --addr 0x50 --write 10de --png trace.png
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
