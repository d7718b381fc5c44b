// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht22test is meant to be used to test drivers of single-wire
// DHT22/AM2302 sensors.
//
// Sensor is a gpio.PinIO that plays back the waveform a real sensor puts on
// the line after the host sends its start pulse. Timing follows a
// clocktest.Clock so a test can step through the protocol one microsecond at
// a time.
package dht22test

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/GermanBionicSystems/thermometer/common"
	"github.com/GermanBionicSystems/thermometer/common/clocktest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Timing of the sensor response, from the AM2302 datasheet.
const (
	DefaultResponseDelay = 20 * time.Microsecond
	DefaultResponseLow   = 80 * time.Microsecond
	DefaultResponseHigh  = 80 * time.Microsecond
	DefaultBitLow        = 50 * time.Microsecond
	DefaultZero          = 26 * time.Microsecond
	DefaultOne           = 70 * time.Microsecond
)

// Encode returns the 40 bit frame a sensor sends for the given readings in
// tenths, with a valid checksum.
func Encode(humidity uint16, temperature int16) uint64 {
	t := uint16(temperature)
	if temperature < 0 {
		t = uint16(-temperature) | 0x8000
	}
	b := []byte{byte(humidity >> 8), byte(humidity), byte(t >> 8), byte(t)}
	return FromBytes(b[0], b[1], b[2], b[3], common.Sum8(b))
}

// FromBytes assembles a 40 bit frame from its five bytes, as sent on the
// wire.
func FromBytes(b0, b1, b2, b3, sum byte) uint64 {
	return uint64(b0)<<32 | uint64(b1)<<24 | uint64(b2)<<16 | uint64(b3)<<8 | uint64(sum)
}

type segment struct {
	l gpio.Level
	d time.Duration
}

// Sensor simulates a DHT22 on a single line.
//
// The line idles high. When the host drives it low and then switches it back
// to input, the sensor answers with Frame unless Silent is set. Zero and One
// set the high time of the data bits; Bits limits how many bits are sent
// before the sensor goes quiet. Stall freezes the line part way through the
// answer instead.
type Sensor struct {
	gpiotest.Pin

	Clock  *clocktest.Clock
	Frame  uint64
	Silent bool
	Zero   time.Duration
	One    time.Duration
	Bits   int
	// Stall, if positive, stops the answer after that many segments and
	// holds the level of the last one. The segments are the response delay
	// (high), the response (low, then high), then the low and high phase of
	// every bit.
	Stall int
	// Step is how far Clock moves after every Read, to stand in for the time
	// a poll takes. Zero leaves the clock to the test.
	Step time.Duration

	mu       sync.Mutex
	driving  bool
	lowSince time.Time
	released time.Time
	wave     []segment
	// Pulses records the length of every start pulse the host sent.
	Pulses []time.Duration
	// Pulls records the pull passed to every In call.
	Pulls []gpio.Pull
}

// New returns a Sensor that will answer with frame.
func New(clock *clocktest.Clock, frame uint64) *Sensor {
	return &Sensor{
		Pin:   gpiotest.Pin{N: "DHT22", Num: 4, L: gpio.High},
		Clock: clock,
		Frame: frame,
		Bits:  40,
	}
}

// Out implements gpio.PinOut.
func (s *Sensor) Out(l gpio.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == gpio.Low && !s.driving {
		s.driving = true
		s.lowSince = s.Clock.Now()
	}
	s.wave = nil
	return nil
}

// In implements gpio.PinIn.
func (s *Sensor) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return fmt.Errorf("dht22test: edge detection not supported")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pulls = append(s.Pulls, pull)
	if !s.driving {
		return nil
	}
	s.driving = false
	s.released = s.Clock.Now()
	s.Pulses = append(s.Pulses, s.released.Sub(s.lowSince))
	if !s.Silent {
		s.wave = s.waveform()
	}
	return nil
}

// Read implements gpio.PinIn.
func (s *Sensor) Read() gpio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.level()
	if s.Step > 0 {
		s.Clock.Advance(s.Step)
	}
	return l
}

func (s *Sensor) level() gpio.Level {
	if s.driving {
		return gpio.Low
	}
	t := s.Clock.Now().Sub(s.released)
	for _, seg := range s.wave {
		if t < seg.d {
			return seg.l
		}
		t -= seg.d
	}
	return gpio.High
}

func (s *Sensor) waveform() []segment {
	zero, one := s.Zero, s.One
	if zero == 0 {
		zero = DefaultZero
	}
	if one == 0 {
		one = DefaultOne
	}
	w := []segment{
		{gpio.High, DefaultResponseDelay},
		{gpio.Low, DefaultResponseLow},
		{gpio.High, DefaultResponseHigh},
	}
	for i := 0; i < 40 && i < s.Bits; i++ {
		h := zero
		if s.Frame&(1<<(39-i)) != 0 {
			h = one
		}
		w = append(w, segment{gpio.Low, DefaultBitLow}, segment{gpio.High, h})
	}
	w = append(w, segment{gpio.Low, DefaultBitLow})
	if s.Stall > 0 && s.Stall <= len(w) {
		w = w[:s.Stall]
		w[len(w)-1].d = time.Duration(math.MaxInt64)
	}
	return w
}

// Driving reports whether the host currently holds the line low.
func (s *Sensor) Driving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driving
}

var _ gpio.PinIO = &Sensor{}
