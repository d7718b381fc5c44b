// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"
)

// Screen shows the two lines produced by Lines.
type Screen interface {
	Render(lines [2]string) error
}

// Screens renders on several screens, for example an LCD and its web mirror.
type Screens []Screen

// Render renders on every screen and returns all the failures.
func (s Screens) Render(lines [2]string) error {
	var errs []error
	for _, scr := range s {
		if err := scr.Render(lines); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CustomCharSetter is implemented by character displays with programmable
// glyphs, like hd44780.HD44780.
type CustomCharSetter interface {
	SetCustomChar(code byte, pattern [8]byte) error
}

// Character codes on an HD44780 with the A00 ROM.
const (
	codeArrowDown byte = 0x01
	codeArrowUp   byte = 0x02
	codeDegree    byte = 0xdf
)

var (
	arrowDownPattern = [8]byte{0x04, 0x04, 0x04, 0x04, 0x15, 0x0e, 0x04, 0x00}
	arrowUpPattern   = [8]byte{0x04, 0x0e, 0x15, 0x04, 0x04, 0x04, 0x04, 0x00}
)

// TextScreen renders on a character display.
type TextScreen struct {
	d      display.TextDisplay
	arrows bool
}

// NewTextScreen returns a TextScreen on d. When d implements
// CustomCharSetter the trend arrows are programmed as glyphs; otherwise they
// are shown as ^ and v.
func NewTextScreen(d display.TextDisplay) (*TextScreen, error) {
	s := &TextScreen{d: d}
	if cs, ok := d.(CustomCharSetter); ok {
		if err := cs.SetCustomChar(codeArrowDown, arrowDownPattern); err != nil {
			return nil, fmt.Errorf("thermo: %w", err)
		}
		if err := cs.SetCustomChar(codeArrowUp, arrowUpPattern); err != nil {
			return nil, fmt.Errorf("thermo: %w", err)
		}
		s.arrows = true
	}
	return s, nil
}

// Render clears the display and writes the lines on the first two rows.
func (s *TextScreen) Render(lines [2]string) error {
	if err := s.d.Clear(); err != nil {
		return err
	}
	for i, l := range lines {
		if err := s.d.MoveTo(s.d.MinRow()+i, s.d.MinCol()); err != nil {
			return err
		}
		if _, err := s.d.Write(s.encode(l)); err != nil {
			return err
		}
	}
	return nil
}

// encode maps a line to character codes.
func (s *TextScreen) encode(line string) []byte {
	out := make([]byte, 0, len(line))
	for _, r := range line {
		switch {
		case r == '°':
			out = append(out, codeDegree)
		case r == '↑' && s.arrows:
			out = append(out, codeArrowUp)
		case r == '↑':
			out = append(out, '^')
		case r == '↓' && s.arrows:
			out = append(out, codeArrowDown)
		case r == '↓':
			out = append(out, 'v')
		case r < 0x80:
			out = append(out, byte(r))
		default:
			out = append(out, '?')
		}
	}
	return out
}

// ImageScreen renders on a pixel display such as an OLED or e-paper panel.
type ImageScreen struct {
	d    display.Drawer
	face font.Face
	Fg   color.Color
	Bg   color.Color
}

// NewImageScreen returns an ImageScreen on d drawing with the Go Regular
// font at size points. A size of zero selects the fixed 7x13 bitmap font,
// which has no arrows.
func NewImageScreen(d display.Drawer, size float64) (*ImageScreen, error) {
	s := &ImageScreen{d: d, face: basicfont.Face7x13, Fg: color.White, Bg: color.Black}
	if size > 0 {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("thermo: %w", err)
		}
		s.face = truetype.NewFace(f, &truetype.Options{Size: size})
	}
	return s, nil
}

// Render draws each line vertically centered in its half of the display.
func (s *ImageScreen) Render(lines [2]string) error {
	b := s.d.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetColor(s.Bg)
	dc.Clear()
	dc.SetColor(s.Fg)
	dc.SetFontFace(s.face)
	h := float64(b.Dy()) / float64(len(lines))
	for i, l := range lines {
		dc.DrawStringAnchored(l, 2, h*float64(i)+h/2, 0, 0.5)
	}
	return s.d.Draw(b, dc.Image(), image.Point{})
}
