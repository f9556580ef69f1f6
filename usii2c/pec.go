// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package usii2c

// PEC returns the SMBus packet error code of the bytes of a message, address
// bytes included: a CRC-8 with polynomial x⁸+x²+x+1 and a zero initial
// value.
func PEC(msg ...[]byte) byte {
	var crc byte
	for _, b := range msg {
		for _, val := range b {
			crc ^= val
			for range 8 {
				if crc&0x80 == 0 {
					crc <<= 1
				} else {
					crc = crc<<1 ^ 0x07
				}
			}
		}
	}
	return crc
}

// AppendPEC returns w followed by the packet error code of a write of w to
// addr.
func AppendPEC(addr uint16, w []byte) ([]byte, error) {
	a, err := Address(addr, true)
	if err != nil {
		return nil, err
	}
	return append(w[:len(w):len(w)], PEC([]byte{a}, w)), nil
}
