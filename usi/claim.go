// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usi

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

var (
	claimMu sync.Mutex
	claimed = map[string]bool{}
)

// claim records ownership of pins, keyed by pin name. It fails without
// claiming anything if one of them is already owned.
func claim(pins ...gpio.PinIO) error {
	claimMu.Lock()
	defer claimMu.Unlock()
	for _, p := range pins {
		if claimed[p.Name()] {
			return fmt.Errorf("%w: %s", ErrInUse, p)
		}
	}
	for _, p := range pins {
		claimed[p.Name()] = true
	}
	return nil
}

func release(pins ...gpio.PinIO) {
	claimMu.Lock()
	defer claimMu.Unlock()
	for _, p := range pins {
		delete(claimed, p.Name())
	}
}
