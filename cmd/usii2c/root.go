// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/usii2c/sim"
	"github.com/GermanBionicSystems/usii2c/usi"
	"github.com/GermanBionicSystems/usii2c/usii2c"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "usii2c",
	Short: "Talk to I²C devices over a bit-banged USI master.",
	Long: `Talk to I²C devices over a USI master bit-banged on two GPIO pins.
With --sim, a simulated bus with register file devices is used instead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// config is the bus selection shared by all commands.
type config struct {
	sim     bool
	scl     string
	sda     string
	timeout time.Duration
	devices []uint
}

func readConfig(cmd *cobra.Command) (*config, error) {
	c := &config{sim: getFlag(cmd, "sim")}
	var err error
	if c.scl, err = cmd.Flags().GetString("scl"); err != nil {
		return nil, err
	}
	if c.sda, err = cmd.Flags().GetString("sda"); err != nil {
		return nil, err
	}
	if c.timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if c.devices, err = cmd.Flags().GetUintSlice("sim-device"); err != nil {
		return nil, err
	}
	return c, nil
}

// open returns the master selected by c. The simulated bus is nil when
// real pins are used.
func (c *config) open() (*usii2c.Dev, *sim.Bus, error) {
	if c.sim {
		return c.openSim()
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	scl := gpioreg.ByName(c.scl)
	if scl == nil {
		return nil, nil, fmt.Errorf("no pin %q", c.scl)
	}
	sda := gpioreg.ByName(c.sda)
	if sda == nil {
		return nil, nil, fmt.Errorf("no pin %q", c.sda)
	}
	log.Debugf("using %s as SCL and %s as SDA", scl, sda)
	u, err := usi.New(scl, sda)
	if err != nil {
		return nil, nil, err
	}
	d, err := usii2c.New(u, &usii2c.Opts{Timeout: c.timeout})
	if err != nil {
		return nil, nil, multierr.Append(err, u.Halt())
	}
	return d, nil, nil
}

func (c *config) openSim() (*usii2c.Dev, *sim.Bus, error) {
	b := sim.New()
	for _, a := range c.devices {
		if a > 0x7f {
			return nil, nil, fmt.Errorf("invalid simulated device address %#x", a)
		}
		t := sim.NewTarget(uint8(a))
		// Recognizable content: each register holds its own address.
		for i := range t.Mem {
			t.Mem[i] = byte(i)
		}
		b.Attach(t)
		log.Debugf("%s: attached %s", b, t)
	}
	scl, sda := b.Pins()
	u, err := usi.New(scl, sda)
	if err != nil {
		return nil, nil, err
	}
	d, err := usii2c.New(u, &usii2c.Opts{Timeout: c.timeout, Delay: b.Delay})
	if err != nil {
		return nil, nil, multierr.Append(err, u.Halt())
	}
	b.ResetTrace()
	return d, b, nil
}

// getFlag returns a boolean flag, or exits if it is not defined.
func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		log.Fatal(err)
	}
	return r
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Bool("sim", false, "use a simulated bus instead of GPIO pins")
	rootCmd.PersistentFlags().String("scl", "GPIO5", "name of the SCL pin")
	rootCmd.PersistentFlags().String("sda", "GPIO6", "name of the SDA pin")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Millisecond, "give up when SCL is held low for longer; 0 waits forever")
	rootCmd.PersistentFlags().UintSlice("sim-device", []uint{0x50, 0x68}, "addresses of the simulated devices")
}
