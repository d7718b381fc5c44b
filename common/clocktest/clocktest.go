// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package clocktest is meant to be used to test drivers that take a
// common.Clock.
package clocktest

import (
	"sync"
	"time"

	"github.com/GermanBionicSystems/thermometer/common"
)

// Epoch is the instant a zero Clock reports.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Clock is a manually stepped common.Clock. The zero value starts at Epoch.
//
// It is safe for concurrent use.
type Clock struct {
	sync.Mutex
	elapsed time.Duration
}

// Now implements common.Clock.
func (c *Clock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return Epoch.Add(c.elapsed)
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()
	if d > 0 {
		c.elapsed += d
	}
}

// Elapsed returns how far the clock moved since Epoch.
func (c *Clock) Elapsed() time.Duration {
	c.Lock()
	defer c.Unlock()
	return c.elapsed
}

var _ common.Clock = &Clock{}
