// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/GermanBionicSystems/usii2c/sim"
	"github.com/GermanBionicSystems/usii2c/usii2c"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var txCmd = &cobra.Command{
	Use:   "tx --addr A [--write HEX] [--read N]",
	Short: "run one transaction.",
	Long: `Write the bytes given in hexadecimal, then read N bytes after a repeated
start. Without --write and --read, the device is only probed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		t, err := readTx(cmd)
		if err != nil {
			return err
		}
		c, err := readConfig(cmd)
		if err != nil {
			return err
		}
		d, b, err := c.open()
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, d.Close()) }()
		r := make([]byte, t.read)
		log.Debugf("%s: tx(%#x, %x, %d)", d, t.addr, t.write, t.read)
		if err := d.Tx(t.addr, t.write, r); err != nil {
			return err
		}
		if b != nil {
			log.Debugf("%s: %s", b, sim.Format(sim.Decode(b.Trace())))
		}
		if len(r) != 0 {
			fmt.Println(hex.EncodeToString(r))
		}
		return nil
	},
}

// transaction is what tx and trace run.
type transaction struct {
	addr  uint16
	write []byte
	read  int
}

func readTx(cmd *cobra.Command) (*transaction, error) {
	t := &transaction{}
	var err error
	if t.addr, err = cmd.Flags().GetUint16("addr"); err != nil {
		return nil, err
	}
	w, err := cmd.Flags().GetString("write")
	if err != nil {
		return nil, err
	}
	w = strings.TrimPrefix(strings.ReplaceAll(w, " ", ""), "0x")
	if t.write, err = hex.DecodeString(w); err != nil {
		return nil, fmt.Errorf("--write: %w", err)
	}
	if t.read, err = cmd.Flags().GetInt("read"); err != nil {
		return nil, err
	}
	if t.read < 0 {
		return nil, errors.New("--read must not be negative")
	}
	pec, err := cmd.Flags().GetBool("pec")
	if err != nil {
		return nil, err
	}
	if pec && len(t.write) != 0 {
		if t.write, err = usii2c.AppendPEC(t.addr, t.write); err != nil {
			return nil, err
		}
	}
	return t, nil
}

//nolint:errcheck
func addTxFlags(cmd *cobra.Command) {
	cmd.Flags().Uint16("addr", 0, "7-bit device address")
	cmd.Flags().String("write", "", "bytes to write, in hexadecimal")
	cmd.Flags().Int("read", 0, "number of bytes to read")
	cmd.Flags().Bool("pec", false, "append the SMBus packet error code to the written bytes")
	cmd.MarkFlagRequired("addr")
}

func init() {
	rootCmd.AddCommand(txCmd)
	addTxFlags(txCmd)
}
