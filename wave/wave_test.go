// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package wave

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/usii2c/sim"
	"github.com/GermanBionicSystems/usii2c/usi"
	"github.com/GermanBionicSystems/usii2c/usii2c"
	"periph.io/x/conn/v3/gpio"
)

// startStop is a start condition followed by a stop condition.
var startStop = []sim.Event{
	{At: 0, SCL: gpio.High, SDA: gpio.High},
	{At: 2 * time.Microsecond, SCL: gpio.High, SDA: gpio.Low},
	{At: 4 * time.Microsecond, SCL: gpio.High, SDA: gpio.High},
}

func TestTermPlain(t *testing.T) {
	data := []struct {
		name  string
		width int
		want  string
	}{
		{"one line", 0, "SCL ‾‾‾‾‾\nSDA ‾‾__‾\n      S P\n"},
		{"wrapped", 3, "SCL ‾‾‾\nSDA ‾‾_\n      S\nSCL ‾‾\nSDA _‾\n     P\n"},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			var buf bytes.Buffer
			term := NewTermWriter(&buf, false, &TermOpts{Step: time.Microsecond, Width: line.width})
			if err := term.Render(startStop); err != nil {
				t.Fatal(err)
			}
			if got := buf.String(); got != line.want {
				t.Fatalf("Render() =\n%s\nwant\n%s", got, line.want)
			}
			if err := term.Halt(); err != nil {
				t.Fatal(err)
			}
			if term.String() != "Term" {
				t.Fatal(term.String())
			}
		})
	}
}

func TestTermColor(t *testing.T) {
	var buf bytes.Buffer
	term := NewTermWriter(&buf, true, nil)
	if err := term.Render(startStop); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "\033[") || strings.ContainsRune(out, '‾') {
		t.Fatalf("expected ANSI blocks, got %q", out)
	}
	buf.Reset()
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\033[0m" {
		t.Fatalf("Halt() wrote %q", buf.String())
	}
}

func TestTermEmpty(t *testing.T) {
	if err := NewTermWriter(&bytes.Buffer{}, false, nil).Render(nil); err == nil {
		t.Fatal("expected an error")
	}
}

func TestTermTransaction(t *testing.T) {
	b := sim.New()
	b.Attach(sim.NewTarget(0x50))
	scl, sda := b.Pins()
	u, err := usi.New(scl, sda)
	if err != nil {
		t.Fatal(err)
	}
	d, err := usii2c.New(u, &usii2c.Opts{Delay: b.Delay})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	b.ResetTrace()
	if err := d.Tx(0x50, []byte{0x01}, nil); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := NewTermWriter(&buf, false, &TermOpts{Width: 10000}).Render(b.Trace()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) != 4 || lines[3] != "" {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if got := strings.Fields(lines[2]); strings.Join(got, " ") != "S 0xa0 A 0x01 A P" {
		t.Fatalf("labels = %q", lines[2])
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(&buf, startStop, nil); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != minWidth || b.Dy() != 3*DefaultPNGOpts.Row+margin {
		t.Fatalf("bounds = %s", b)
	}
	if c := color.GrayModel.Convert(img.At(0, 0)).(color.Gray); c.Y != 0xff {
		t.Fatalf("background = %v", c)
	}
	// On the high level of SCL.
	if c := color.GrayModel.Convert(img.At(60, margin/2+4)).(color.Gray); c.Y == 0xff {
		t.Fatal("SCL is not drawn")
	}
}

func TestImageScale(t *testing.T) {
	events := []sim.Event{
		{At: 0, SCL: gpio.High, SDA: gpio.High},
		{At: 100 * time.Microsecond, SCL: gpio.Low, SDA: gpio.High},
	}
	img, err := Image(events, &PNGOpts{Scale: 10})
	if err != nil {
		t.Fatal(err)
	}
	// 100µs at 10px/µs, 4 trailing µs and both margins.
	if got, want := img.Bounds().Dx(), margin+1000+40+margin; got != want {
		t.Fatalf("width = %d, want %d", got, want)
	}
	if _, err := Image(nil, nil); err == nil {
		t.Fatal("expected an error")
	}
}
