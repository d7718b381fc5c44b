// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi LCD display chipset HD-44780 wired in
// 4 bit mode to discrete GPIO lines: RS, E and D4-D7. R/W must be tied low.
//
// Writes are synchronous. Every nibble is latched with a pulse on E followed
// by a fixed delay, since the busy flag can't be read with R/W grounded.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// Instructions, from table 6 of the datasheet.
const (
	cmdClear        byte = 0x01
	cmdHome         byte = 0x02
	cmdEntryMode    byte = 0x04
	cmdDisplay      byte = 0x08
	cmdShift        byte = 0x10
	cmdFunction     byte = 0x20
	cmdSetCGRAMAddr byte = 0x40
	cmdSetDDRAMAddr byte = 0x80

	entryIncrement byte = 0x02
	displayOn      byte = 0x04
	cursorOn       byte = 0x02
	blinkOn        byte = 0x01
	shiftRight     byte = 0x04
	twoLines       byte = 0x08
)

const (
	delayPowerOn  = 20 * time.Millisecond
	delayReset    = 5 * time.Millisecond
	delayClear    = 2 * time.Millisecond
	delayEnable   = time.Microsecond
	delayNibble   = 40 * time.Microsecond
	customChars   = 8
	customCharLen = 8
)

// DDRAM address of the first column of each row, for 16 and 20 column
// modules.
var rowOffsets = [][]byte{{0x00, 0x40, 0x10, 0x50}, {0x00, 0x40, 0x14, 0x54}}

// HD44780 is a character LCD in 4 bit mode.
//
// Implements display.TextDisplay and display.DisplayBacklight.
type HD44780 struct {
	rs        gpio.PinOut
	e         gpio.PinOut
	data      [4]gpio.PinOut
	backlight display.DisplayBacklight
	rows      int
	cols      int
	on        bool
	cursor    bool
	blink     bool
}

// New takes the register select, enable and D4-D7 lines and returns the
// display initialized, cleared and switched on. bl may be nil if the
// backlight isn't switchable.
func New(rs, e gpio.PinOut, data [4]gpio.PinOut, bl display.DisplayBacklight, rows, cols int) (*HD44780, error) {
	if rs == nil || e == nil {
		return nil, errors.New("hd44780: RS and E are required")
	}
	for i, p := range data {
		if p == nil {
			return nil, fmt.Errorf("hd44780: D%d is required", i+4)
		}
	}
	if rows < 1 || rows > 4 || cols < 1 || cols > 40 {
		return nil, fmt.Errorf("hd44780: unsupported geometry %dx%d", rows, cols)
	}
	lcd := &HD44780{
		rs:        rs,
		e:         e,
		data:      data,
		backlight: bl,
		rows:      rows,
		cols:      cols,
		on:        true,
	}
	return lcd, lcd.init()
}

// Init the display. In 4 bit mode the controller must first be forced into a
// known 8 bit state before switching, see figure 24 of the datasheet.
func (lcd *HD44780) init() error {
	for _, p := range append([]gpio.PinOut{lcd.rs, lcd.e}, lcd.data[:]...) {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("hd44780: %s out: %w", p, err)
		}
	}
	time.Sleep(delayPowerOn)
	if err := lcd.writeNibble(0x03); err != nil {
		return err
	}
	time.Sleep(delayReset)
	if err := lcd.writeNibble(0x03); err != nil {
		return err
	}
	time.Sleep(delayReset / 5)
	if err := lcd.writeNibble(0x03); err != nil {
		return err
	}
	if err := lcd.writeNibble(0x02); err != nil {
		return err
	}

	function := cmdFunction
	if lcd.rows > 1 {
		function |= twoLines
	}
	if err := lcd.command(function); err != nil {
		return err
	}
	if err := lcd.command(cmdDisplay); err != nil {
		return err
	}
	if err := lcd.Clear(); err != nil {
		return err
	}
	if err := lcd.command(cmdEntryMode | entryIncrement); err != nil {
		return err
	}
	if err := lcd.Display(true); err != nil {
		return err
	}
	return lcd.Backlight(0xff)
}

// AutoScroll is not supported by this device. Returns
// display.ErrNotImplemented.
func (lcd *HD44780) AutoScroll(enabled bool) error {
	return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
}

// Clear clears the screen and moves the cursor to the first position.
func (lcd *HD44780) Clear() error {
	err := lcd.command(cmdClear)
	time.Sleep(delayClear)
	return err
}

// Cols returns the number of columns the display supports.
func (lcd *HD44780) Cols() int {
	return lcd.cols
}

// Cursor sets the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (lcd *HD44780) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			lcd.cursor = false
			lcd.blink = false
		case display.CursorUnderline:
			lcd.cursor = true
		case display.CursorBlink, display.CursorBlock:
			lcd.blink = true
		default:
			return fmt.Errorf("hd44780: unexpected cursor: %d", mode)
		}
	}
	return lcd.command(lcd.displayControl())
}

// Home moves the cursor to (MinRow(), MinCol()).
func (lcd *HD44780) Home() error {
	err := lcd.command(cmdHome)
	time.Sleep(delayClear)
	return err
}

// MinCol returns the min column position.
func (lcd *HD44780) MinCol() int {
	return 1
}

// MinRow returns the min row position.
func (lcd *HD44780) MinRow() int {
	return 1
}

// Move moves the cursor forward or backward.
func (lcd *HD44780) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		return lcd.command(cmdShift)
	case display.Forward:
		return lcd.command(cmdShift | shiftRight)
	default:
		return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
	}
}

// MoveTo moves the cursor to an arbitrary position, 1 based.
func (lcd *HD44780) MoveTo(row, col int) error {
	if row < lcd.MinRow() || row > lcd.rows || col < lcd.MinCol() || col > lcd.cols {
		return fmt.Errorf("hd44780: MoveTo(%d,%d) value out of range", row, col)
	}
	offsets := rowOffsets[0]
	if lcd.cols != 16 {
		offsets = rowOffsets[1]
	}
	return lcd.command(cmdSetDDRAMAddr | (offsets[row-1] + byte(col-1)))
}

// Rows returns the number of rows the display supports.
func (lcd *HD44780) Rows() int {
	return lcd.rows
}

func (lcd *HD44780) String() string {
	return fmt.Sprintf("hd44780{RS:%s, E:%s, D4:%s} %dx%d", lcd.rs, lcd.e, lcd.data[0], lcd.rows, lcd.cols)
}

// Display turns the display on or off. The content is retained.
func (lcd *HD44780) Display(on bool) error {
	lcd.on = on
	return lcd.command(lcd.displayControl())
}

// Write writes bytes at the cursor position. Bytes are character codes of the
// controller's ROM; codes 0-7 are the custom characters.
func (lcd *HD44780) Write(p []byte) (n int, err error) {
	if err = lcd.rs.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("hd44780: %s out: %w", lcd.rs, err)
	}
	for _, b := range p {
		if err = lcd.writeByte(b); err != nil {
			return
		}
		n++
	}
	return
}

// WriteString writes a string at the cursor position.
func (lcd *HD44780) WriteString(text string) (int, error) {
	return lcd.Write([]byte(text))
}

// SetCustomChar programs the 5x8 pattern of character code 0-7. Only the
// low 5 bits of each row are used. The cursor moves to the home position.
func (lcd *HD44780) SetCustomChar(code byte, pattern [customCharLen]byte) error {
	if code >= customChars {
		return fmt.Errorf("hd44780: custom character %d out of range", code)
	}
	if err := lcd.command(cmdSetCGRAMAddr | code*customCharLen); err != nil {
		return err
	}
	for i := range pattern {
		pattern[i] &= 0x1f
	}
	if _, err := lcd.Write(pattern[:]); err != nil {
		return err
	}
	return lcd.command(cmdSetDDRAMAddr)
}

// Halt clears the display, turns the backlight off, and turns the display off.
func (lcd *HD44780) Halt() error {
	err := lcd.Clear()
	if errBL := lcd.Backlight(0); err == nil {
		err = errBL
	}
	if errOff := lcd.Display(false); err == nil {
		err = errOff
	}
	return err
}

// Backlight turns the display's backlight on or off. It does nothing when
// no backlight control was supplied to New.
func (lcd *HD44780) Backlight(intensity display.Intensity) error {
	if lcd.backlight == nil {
		return nil
	}
	return lcd.backlight.Backlight(intensity)
}

func (lcd *HD44780) displayControl() byte {
	val := cmdDisplay
	if lcd.on {
		val |= displayOn
	}
	if lcd.cursor {
		val |= cursorOn
	}
	if lcd.blink {
		val |= blinkOn
	}
	return val
}

func (lcd *HD44780) command(cmd byte) error {
	if err := lcd.rs.Out(gpio.Low); err != nil {
		return fmt.Errorf("hd44780: %s out: %w", lcd.rs, err)
	}
	return lcd.writeByte(cmd)
}

func (lcd *HD44780) writeByte(b byte) error {
	if err := lcd.writeNibble(b >> 4); err != nil {
		return err
	}
	return lcd.writeNibble(b & 0x0f)
}

// writeNibble puts value on D4-D7 and latches it with a pulse on E.
func (lcd *HD44780) writeNibble(value byte) error {
	for i, p := range lcd.data {
		if err := p.Out(gpio.Level(value&(1<<i) != 0)); err != nil {
			return fmt.Errorf("hd44780: %s out: %w", p, err)
		}
	}
	if err := lcd.e.Out(gpio.High); err != nil {
		return fmt.Errorf("hd44780: %s out: %w", lcd.e, err)
	}
	time.Sleep(delayEnable)
	if err := lcd.e.Out(gpio.Low); err != nil {
		return fmt.Errorf("hd44780: %s out: %w", lcd.e, err)
	}
	time.Sleep(delayNibble)
	return nil
}

var _ display.TextDisplay = &HD44780{}
var _ display.DisplayBacklight = &HD44780{}
var _ conn.Resource = &HD44780{}
