// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"time"

	"github.com/GermanBionicSystems/usii2c/sim"
	"github.com/GermanBionicSystems/usii2c/wave"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var traceCmd = &cobra.Command{
	Use:   "trace --addr A [--write HEX] [--read N] [--png FILE]",
	Short: "draw the waveform of a simulated transaction.",
	Long: `Run one transaction on the simulated bus and draw SCL and SDA, on the
terminal or in a PNG file. The transaction always runs on the simulator.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := readTx(cmd)
		if err != nil {
			return err
		}
		c, err := readConfig(cmd)
		if err != nil {
			return err
		}
		c.sim = true
		events, err := record(c, t)
		if err != nil {
			return err
		}
		log.Debugf("%d events: %s", len(events), sim.Format(sim.Decode(events)))
		out, err := cmd.Flags().GetString("png")
		if err != nil {
			return err
		}
		if out != "" {
			return writePNG(out, events)
		}
		step, err := cmd.Flags().GetDuration("step")
		if err != nil {
			return err
		}
		term := wave.NewTerm(&wave.TermOpts{Step: step})
		return multierr.Append(term.Render(events), term.Halt())
	},
}

// record runs t on a simulated bus and returns the trace. A failed
// transaction is logged, not returned: its waveform is still worth a look.
func record(c *config, t *transaction) ([]sim.Event, error) {
	d, b, err := c.open()
	if err != nil {
		return nil, err
	}
	if err := d.Tx(t.addr, t.write, make([]byte, t.read)); err != nil {
		log.Warn(err)
	}
	events := b.Trace()
	return events, d.Close()
}

func writePNG(name string, events []sim.Event) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	if err := wave.PNG(f, events, nil); err != nil {
		return err
	}
	log.Infof("wrote %s", name)
	return nil
}

func init() {
	rootCmd.AddCommand(traceCmd)
	addTxFlags(traceCmd)
	traceCmd.Flags().String("png", "", "write a PNG image instead of drawing on the terminal")
	traceCmd.Flags().Duration("step", time.Microsecond, "time covered by one terminal column")
}
