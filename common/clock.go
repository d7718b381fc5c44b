// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "time"

// Clock is a monotonic time source. Drivers that measure pulse widths or
// enforce deadlines by polling take a Clock so tests can step time by hand.
type Clock interface {
	// Now returns the current instant. Successive calls never go backwards.
	Now() time.Time
}

// SystemClock reads the monotonic clock of the host via time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

var _ Clock = SystemClock{}
