// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780_test

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/thermometer/hd44780"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// This example drives a 16x2 module wired to a Raspberry Pi in 4 bit mode.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	var pins []gpio.PinOut
	for _, name := range []string{"GPIO16", "GPIO21", "GPIO20", "GPIO19", "GPIO18", "GPIO17", "GPIO25"} {
		p := gpioreg.ByName(name)
		if p == nil {
			log.Fatalf("no pin %s", name)
		}
		pins = append(pins, p)
	}
	bl := hd44780.NewBacklight(pins[6])
	lcd, err := hd44780.New(pins[0], pins[1], [4]gpio.PinOut{pins[2], pins[3], pins[4], pins[5]}, bl, 2, 16)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("lcd=", lcd.String())

	degree := [8]byte{0x06, 0x09, 0x09, 0x06, 0x00, 0x00, 0x00, 0x00}
	_ = lcd.SetCustomChar(0, degree)
	_ = lcd.MoveTo(1, 1)
	_, _ = lcd.WriteString("Line 1 \x00")
	_ = lcd.MoveTo(2, 2)
	_, _ = lcd.WriteString("Line 2")
	time.Sleep(5 * time.Second)

	errs := displaytest.TestTextDisplay(lcd, true)
	for _, e := range errs {
		if !errors.Is(e, display.ErrNotImplemented) {
			log.Println(e)
		}
	}
	_ = lcd.Halt()
}
