// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains helpers shared by the thermometer packages: the
// additive checksum used by single-wire sensors and an injectable monotonic
// clock.
package common

// Sum8 returns the sum of bytes truncated to 8 bits. AOSONG single-wire
// sensors (DHT22/AM2302) append this value to their frames.
func Sum8(bytes []byte) byte {
	var sum byte
	for _, val := range bytes {
		sum += val
	}
	return sum
}
