// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package consolelcd implements a character LCD display.TextDisplay that
// outputs to terminal (stdout) using ANSI color codes.
//
// Useful while the HD44780 module is still in the mail, or to watch a
// headless station over ssh.
package consolelcd

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	Rows int
	Cols int
	// W receives the rendered frames. Defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette
	// Lit is the border color while the backlight is on.
	Lit color.NRGBA

	_ struct{}
}

// DefaultOpts is a 16x2 module with a yellow-green backlight.
var DefaultOpts = Opts{
	Rows: 2,
	Cols: 16,
	Lit:  color.NRGBA{R: 0x9a, G: 0xcd, B: 0x32, A: 0xff},
}

// romA00 maps the codes of the HD44780 A00 character ROM that differ from
// ASCII and are useful for a thermometer.
var romA00 = map[byte]rune{
	0x5c: '¥',
	0x7e: '→',
	0x7f: '←',
	0xa5: '·',
	0xdf: '°',
	0xe4: 'µ',
	0xf4: 'Ω',
}

// Dev is a character LCD emulator that outputs to the console.
type Dev struct {
	w         io.Writer
	rows      int
	cols      int
	palette   ansi256.Palette
	lit       color.NRGBA
	grid      [][]byte
	row, col  int
	on        bool
	cursor    bool
	blink     bool
	intensity display.Intensity
	drawn     bool

	buf bytes.Buffer
}

// New returns a Dev that displays at the console. If opts is nil,
// DefaultOpts is used.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	rows, cols := opts.Rows, opts.Cols
	if rows <= 0 {
		rows = DefaultOpts.Rows
	}
	if cols <= 0 {
		cols = DefaultOpts.Cols
	}
	lit := opts.Lit
	if lit == (color.NRGBA{}) {
		lit = DefaultOpts.Lit
	}
	d := &Dev{
		w:         w,
		rows:      rows,
		cols:      cols,
		palette:   *p,
		lit:       lit,
		grid:      make([][]byte, rows),
		on:        true,
		intensity: 0xff,
	}
	for i := range d.grid {
		d.grid[i] = bytes.Repeat([]byte{' '}, cols)
	}
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("ConsoleLCD %dx%d", d.rows, d.cols)
}

// Halt implements conn.Resource.
//
// It blanks the display and resets the terminal colors.
func (d *Dev) Halt() error {
	d.on = false
	d.intensity = 0
	if _, err := d.refresh(); err != nil {
		return err
	}
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// AutoScroll is not supported. Returns display.ErrNotImplemented.
func (d *Dev) AutoScroll(enabled bool) error {
	return fmt.Errorf("consolelcd: %w", display.ErrNotImplemented)
}

// Clear blanks the display and moves the cursor home.
func (d *Dev) Clear() error {
	for _, r := range d.grid {
		for i := range r {
			r[i] = ' '
		}
	}
	d.row, d.col = 0, 0
	_, err := d.refresh()
	return err
}

// Cols returns the number of columns.
func (d *Dev) Cols() int {
	return d.cols
}

// Rows returns the number of rows.
func (d *Dev) Rows() int {
	return d.rows
}

// MinCol returns the min column position.
func (d *Dev) MinCol() int {
	return 1
}

// MinRow returns the min row position.
func (d *Dev) MinRow() int {
	return 1
}

// Cursor records the cursor mode. The console rendering doesn't show it.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			d.cursor, d.blink = false, false
		case display.CursorUnderline:
			d.cursor = true
		case display.CursorBlink, display.CursorBlock:
			d.blink = true
		default:
			return fmt.Errorf("consolelcd: unexpected cursor: %d", mode)
		}
	}
	return nil
}

// Home moves the cursor to the first position.
func (d *Dev) Home() error {
	d.row, d.col = 0, 0
	return nil
}

// Move moves the cursor one position. It stops at the edges.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		d.col = max(d.col-1, 0)
	case display.Forward:
		d.col = min(d.col+1, d.cols-1)
	case display.Up:
		d.row = max(d.row-1, 0)
	case display.Down:
		d.row = min(d.row+1, d.rows-1)
	default:
		return fmt.Errorf("consolelcd: unexpected direction: %d", dir)
	}
	return nil
}

// MoveTo moves the cursor to an arbitrary position, 1 based.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > d.rows || col < d.MinCol() || col > d.cols {
		return fmt.Errorf("consolelcd: MoveTo(%d,%d) value out of range", row, col)
	}
	d.row, d.col = row-1, col-1
	return nil
}

// Display turns the display on or off. The content is retained.
func (d *Dev) Display(on bool) error {
	d.on = on
	_, err := d.refresh()
	return err
}

// Backlight sets the border color: lit for any non-zero intensity.
func (d *Dev) Backlight(intensity display.Intensity) error {
	d.intensity = intensity
	_, err := d.refresh()
	return err
}

// Write puts character codes at the cursor and redraws the console. Bytes
// past the end of the row are dropped, as on a module with no line wrap.
func (d *Dev) Write(p []byte) (int, error) {
	for _, b := range p {
		if d.col < d.cols {
			d.grid[d.row][d.col] = b
			d.col++
		}
	}
	if _, err := d.refresh(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString writes a string at the cursor.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Text returns the content of the display as it would be read off the
// glass, one string per row.
func (d *Dev) Text() []string {
	out := make([]string, d.rows)
	for i, r := range d.grid {
		out[i] = d.decode(r)
	}
	return out
}

func (d *Dev) decode(r []byte) string {
	var b bytes.Buffer
	for _, c := range r {
		switch {
		case !d.on:
			b.WriteByte(' ')
		case romA00[c] != 0:
			b.WriteRune(romA00[c])
		case c >= 0x20 && c < 0x7e:
			b.WriteByte(c)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

func (d *Dev) refresh() (int, error) {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	if d.drawn {
		// Go back up over the previous frame.
		fmt.Fprintf(&d.buf, "\033[%dA", d.rows+2)
	}
	border := color.NRGBA{A: 0xff}
	if d.intensity != 0 {
		border = d.lit
	}
	edge := d.palette.Block(border)
	bar := bytes.Repeat([]byte(edge), (d.cols+5)/2)
	_, _ = d.buf.WriteString("\r\033[0m")
	_, _ = d.buf.Write(bar)
	_, _ = d.buf.WriteString("\033[0m\n")
	for _, r := range d.grid {
		_, _ = d.buf.WriteString("\r")
		_, _ = d.buf.WriteString(edge)
		_, _ = d.buf.WriteString(d.decode(r))
		_, _ = d.buf.WriteString(edge)
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, _ = d.buf.WriteString("\r")
	_, _ = d.buf.Write(bar)
	_, _ = d.buf.WriteString("\033[0m\n")
	d.drawn = true
	n, err := d.buf.WriteTo(d.w)
	return int(n), err
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ fmt.Stringer = &Dev{}
