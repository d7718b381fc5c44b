// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// GPIOMonoBacklight switches a monochrome backlight with a single GPIO line,
// usually through a transistor. Any non-zero intensity is full on.
type GPIOMonoBacklight struct {
	blPin     gpio.PinOut
	activeLow bool
}

// NewBacklight returns a backlight that is on while blPin is high.
func NewBacklight(blPin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{blPin: blPin}
}

// NewBacklightActiveLow returns a backlight that is on while blPin is low,
// as with a PNP transistor.
func NewBacklightActiveLow(blPin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{blPin: blPin, activeLow: true}
}

// Backlight turns the display backlight on or off.
func (bl *GPIOMonoBacklight) Backlight(intensity display.Intensity) error {
	on := intensity != 0
	if err := bl.blPin.Out(gpio.Level(on != bl.activeLow)); err != nil {
		return fmt.Errorf("hd44780: backlight %s out: %w", bl.blPin, err)
	}
	return nil
}

var _ display.DisplayBacklight = &GPIOMonoBacklight{}
