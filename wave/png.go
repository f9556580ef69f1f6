// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package wave

import (
	"errors"
	"image"
	"io"
	"sync"
	"time"

	"github.com/GermanBionicSystems/usii2c/sim"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// PNGOpts represents the options of a PNG timing diagram.
type PNGOpts struct {
	// Scale is the number of pixels per microsecond.
	Scale float64
	// Row is the height in pixels of one signal row.
	Row int
	// FontSize is the size in points of the labels.
	FontSize float64

	_ struct{}
}

// DefaultPNGOpts fits a few bytes of standard mode traffic in a screen width.
var DefaultPNGOpts = PNGOpts{
	Scale:    4,
	Row:      40,
	FontSize: 12,
}

const (
	margin   = 48
	minWidth = 200
)

var parseFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// PNG encodes the timing diagram of events as a PNG image.
func PNG(w io.Writer, events []sim.Event, opts *PNGOpts) error {
	dc, err := draw(events, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// Image returns the timing diagram of events.
func Image(events []sim.Event, opts *PNGOpts) (image.Image, error) {
	dc, err := draw(events, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func draw(events []sim.Event, opts *PNGOpts) (*gg.Context, error) {
	if len(events) == 0 {
		return nil, errors.New("wave: empty trace")
	}
	o := DefaultPNGOpts
	if opts != nil {
		o = *opts
	}
	if o.Scale <= 0 {
		o.Scale = DefaultPNGOpts.Scale
	}
	if o.Row <= 0 {
		o.Row = DefaultPNGOpts.Row
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultPNGOpts.FontSize
	}
	f, err := parseFont()
	if err != nil {
		return nil, err
	}
	t0 := events[0].At
	x := func(at time.Duration) float64 {
		return margin + float64(at-t0)/float64(time.Microsecond)*o.Scale
	}
	last := x(events[len(events)-1].At) + o.Scale*4
	width := max(minWidth, int(last)+margin)
	height := 3*o.Row + margin

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: o.FontSize}))

	// Signal rows.
	for row, name := range []string{"SCL", "SDA"} {
		top := float64(margin/2 + row*o.Row)
		high, low := top+4, top+float64(o.Row)-8
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(name, margin/2, (high+low)/2, 0.5, 0.5)
		y := func(e sim.Event) float64 {
			l := e.SCL
			if row == 1 {
				l = e.SDA
			}
			if l {
				return high
			}
			return low
		}
		dc.SetRGB(0.1, 0.4, 0.1)
		dc.SetLineWidth(2)
		prev := y(events[0])
		dc.MoveTo(x(events[0].At), prev)
		for _, e := range events[1:] {
			dc.LineTo(x(e.At), prev)
			prev = y(e)
			dc.LineTo(x(e.At), prev)
		}
		dc.LineTo(last, prev)
		dc.Stroke()
	}

	// Decoded symbols, with a marker under the event that completed them.
	top := float64(margin/2 + 2*o.Row)
	for _, s := range sim.Decode(events) {
		sx := x(events[s.Index].At)
		dc.SetRGB(0.6, 0.6, 0.6)
		dc.SetLineWidth(1)
		dc.DrawLine(sx, float64(margin/2), sx, top)
		dc.Stroke()
		dc.SetRGB(0.1, 0.1, 0.5)
		dc.DrawStringAnchored(s.String(), sx, top+float64(o.Row)/2, 0.5, 0.5)
	}
	return dc, nil
}
