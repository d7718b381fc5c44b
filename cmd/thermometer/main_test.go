// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/GermanBionicSystems/thermometer/consolelcd"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func init() {
	for i, n := range []string{"LCD_RS", "LCD_E", "LCD_D4", "LCD_D5", "LCD_D6", "LCD_D7"} {
		if err := gpioreg.Register(&gpiotest.Pin{N: n, Num: 100 + i}); err != nil {
			panic(err)
		}
	}
}

func TestLCDPins(t *testing.T) {
	rs, e, data, err := lcdPins("LCD_RS, LCD_E,LCD_D4,LCD_D5,LCD_D6,LCD_D7")
	if err != nil {
		t.Fatal(err)
	}
	if rs.Name() != "LCD_RS" || e.Name() != "LCD_E" || data[0].Name() != "LCD_D4" || data[3].Name() != "LCD_D7" {
		t.Errorf("pins out of order: %s %s %v", rs, e, data)
	}
	if _, _, _, err := lcdPins("LCD_RS,LCD_E"); err == nil {
		t.Error("short list accepted")
	}
	if _, _, _, err := lcdPins("LCD_RS,LCD_E,LCD_D4,LCD_D5,LCD_D6,NOPE"); err == nil {
		t.Error("unknown pin accepted")
	}
}

func TestTextDisplay(t *testing.T) {
	d, err := textDisplay(true, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(*consolelcd.Dev); !ok {
		t.Errorf("-console returned %T", d)
	}
	if _, err := textDisplay(false, "LCD_RS", ""); err == nil {
		t.Error("bad -lcd accepted")
	}
}
