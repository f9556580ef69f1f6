// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package wave renders a simulated bus trace as a timing diagram, either on
// the terminal with ANSI colors or as a PNG image.
//
// Useful to look at what the master does without a logic analyzer.
package wave

import (
	"bytes"
	"errors"
	"image/color"
	"io"
	"os"
	"strings"
	"time"

	"github.com/GermanBionicSystems/usii2c/sim"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// TermOpts represents the options available for the terminal renderer.
type TermOpts struct {
	// Step is the time covered by one column. Every event gets at least one
	// column, even when no time passed since the previous one.
	Step time.Duration
	// Width is the number of columns per line; longer traces wrap.
	Width   int
	Palette *ansi256.Palette
	// High and Low are the colors of the two line levels.
	High color.NRGBA
	Low  color.NRGBA

	_ struct{}
}

// DefaultTermOpts shows one column per microsecond.
var DefaultTermOpts = TermOpts{
	Step:  time.Microsecond,
	Width: 100,
	High:  color.NRGBA{0x40, 0xd0, 0x40, 0xff},
	Low:   color.NRGBA{0x10, 0x20, 0x60, 0xff},
}

// Term renders traces to a terminal.
type Term struct {
	w       io.Writer
	color   bool
	opts    TermOpts
	palette ansi256.Palette

	buf bytes.Buffer
}

// NewTerm returns a Term that writes to stdout.
//
// Colors are only used when stdout is a terminal.
func NewTerm(opts *TermOpts) *Term {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return NewTermWriter(colorable.NewColorableStdout(), true, opts)
	}
	return NewTermWriter(colorable.NewNonColorable(os.Stdout), false, opts)
}

// NewTermWriter returns a Term that writes to w. Without color, levels are
// drawn with '‾' and '_'.
func NewTermWriter(w io.Writer, colored bool, opts *TermOpts) *Term {
	o := DefaultTermOpts
	if opts != nil {
		o = *opts
	}
	if o.Step <= 0 {
		o.Step = DefaultTermOpts.Step
	}
	if o.Width <= 0 {
		o.Width = DefaultTermOpts.Width
	}
	if o.High == o.Low {
		o.High, o.Low = DefaultTermOpts.High, DefaultTermOpts.Low
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Term{w: w, color: colored, opts: o, palette: *p}
}

func (t *Term) String() string {
	return "Term"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes.
func (t *Term) Halt() error {
	if !t.color {
		return nil
	}
	_, err := io.WriteString(t.w, "\033[0m")
	return err
}

// Render writes the SCL and SDA rows of events followed by a row with the
// decoded protocol symbols.
func (t *Term) Render(events []sim.Event) error {
	if len(events) == 0 {
		return errors.New("wave: empty trace")
	}
	cols := columns(events, t.opts.Step)
	for start := 0; start < len(cols); start += t.opts.Width {
		end := min(start+t.opts.Width, len(cols))
		t.buf.Reset()
		t.row("SCL ", cols[start:end], func(c column) gpio.Level { return c.scl })
		t.row("SDA ", cols[start:end], func(c column) gpio.Level { return c.sda })
		var labels strings.Builder
		for _, c := range cols[start:end] {
			labels.WriteRune(c.label)
		}
		_, _ = t.buf.WriteString("    " + strings.TrimRight(labels.String(), " ") + "\n")
		if _, err := t.buf.WriteTo(t.w); err != nil {
			return err
		}
	}
	return nil
}

func (t *Term) row(name string, cols []column, level func(column) gpio.Level) {
	_, _ = t.buf.WriteString(name)
	for _, c := range cols {
		l := bool(level(c))
		switch {
		case t.color && l:
			_, _ = t.buf.WriteString(t.palette.Block(t.opts.High))
		case t.color:
			_, _ = t.buf.WriteString(t.palette.Block(t.opts.Low))
		case l:
			_, _ = t.buf.WriteRune('‾')
		default:
			_, _ = t.buf.WriteRune('_')
		}
	}
	if t.color {
		_, _ = t.buf.WriteString("\033[0m")
	}
	_ = t.buf.WriteByte('\n')
}

// column is one character cell of the diagram.
type column struct {
	scl, sda gpio.Level
	label    rune
}

// columns lays events out on a grid of step wide cells. The symbols decoded
// from events are written in the label cells starting at the event that
// completed them, when the cells are free.
func columns(events []sim.Event, step time.Duration) []column {
	starts := make([]int, len(events))
	var cols []column
	for i, e := range events {
		starts[i] = len(cols)
		n := 1
		if i+1 < len(events) {
			n = max(1, int((events[i+1].At-e.At+step-1)/step))
		}
		for range n {
			cols = append(cols, column{scl: e.SCL, sda: e.SDA, label: ' '})
		}
	}
	for _, s := range sim.Decode(events) {
		text := []rune(s.String())
		at := starts[s.Index]
		if at+len(text) > len(cols) {
			continue
		}
		if !free(cols, at, len(text)) {
			continue
		}
		for i, r := range text {
			cols[at+i].label = r
		}
	}
	return cols
}

// free reports whether n label cells from at are blank and not glued to a
// previous label.
func free(cols []column, at, n int) bool {
	if at > 0 && cols[at-1].label != ' ' {
		return false
	}
	for _, c := range cols[at : at+n] {
		if c.label != ' ' {
			return false
		}
	}
	return true
}

var _ conn.Resource = &Term{}
