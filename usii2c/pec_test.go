// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usii2c

import (
	"bytes"
	"errors"
	"testing"
)

func TestPEC(t *testing.T) {
	var tests = []struct {
		msg    [][]byte
		result byte
	}{
		{msg: nil, result: 0x00},
		{msg: [][]byte{[]byte("123456789")}, result: 0xf4},
		{msg: [][]byte{[]byte("1234"), []byte("56789")}, result: 0xf4},
		{msg: [][]byte{{0x01}}, result: 0x07},
	}
	for _, test := range tests {
		if res := PEC(test.msg...); res != test.result {
			t.Errorf("PEC(%q) = 0x%02x, want 0x%02x", test.msg, res, test.result)
		}
	}
}

func TestAppendPEC(t *testing.T) {
	w := []byte{0x10, 0x20}
	got, err := AppendPEC(0x50, w)
	if err != nil {
		t.Fatal(err)
	}
	want := append([]byte{0x10, 0x20}, PEC([]byte{0xa0, 0x10, 0x20}))
	if !bytes.Equal(got, want) {
		t.Fatalf("AppendPEC() = %#v, want %#v", got, want)
	}
	if len(w) != 2 {
		t.Fatal("input must not be modified")
	}
	if _, err := AppendPEC(0x80, w); !errors.Is(err, ErrAddress) {
		t.Fatalf("AppendPEC() = %v, want ErrAddress", err)
	}
}
