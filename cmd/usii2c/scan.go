// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/usii2c/usii2c"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
)

// Addresses outside this range are reserved.
const (
	firstAddr = 0x08
	lastAddr  = 0x77
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "list the addresses that acknowledge.",
	Long:  `Probe every non reserved 7-bit address with an empty write.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		c, err := readConfig(cmd)
		if err != nil {
			return err
		}
		d, _, err := c.open()
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, d.Close()) }()
		found, err := scan(d)
		if err != nil {
			return err
		}
		for _, a := range found {
			fmt.Printf("0x%02x\n", a)
		}
		log.Infof("%s: %d device(s) found", d, len(found))
		return nil
	},
}

// scan returns the addresses that acknowledge a probe.
func scan(b i2c.Bus) ([]uint16, error) {
	var found []uint16
	for a := uint16(firstAddr); a <= lastAddr; a++ {
		err := b.Tx(a, nil, nil)
		if errors.Is(err, usii2c.ErrNoDevice) {
			continue
		}
		if err != nil {
			return found, fmt.Errorf("probing %#x: %w", a, err)
		}
		log.Debugf("%#x acknowledged", a)
		found = append(found, a)
	}
	return found, nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
