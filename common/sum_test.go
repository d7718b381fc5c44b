// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "testing"

func TestSum8(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result byte
	}{
		{bytes: nil, result: 0x00},
		{bytes: []byte{0x02, 0x8a, 0x00, 0xc3}, result: 0x4f},
		{bytes: []byte{0x01, 0x5c, 0x00, 0xef}, result: 0x4c},
		{bytes: []byte{0xff, 0xff, 0xff, 0xff}, result: 0xfc},
	}
	for _, test := range tests {
		res := Sum8(test.bytes)
		if res != test.result {
			t.Errorf("Sum8(%#v)!=0x%02x received 0x%02x", test.bytes, test.result, res)
		}
	}
}

func TestSystemClock(t *testing.T) {
	var c Clock = SystemClock{}
	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Errorf("clock went backwards: %v then %v", a, b)
	}
}
