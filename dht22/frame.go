// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht22

import (
	"fmt"

	"github.com/GermanBionicSystems/thermometer/common"
	"periph.io/x/conn/v3/physic"
)

// Reading is one measurement in fixed point tenths: Temperature 269 is
// 26.9°C and Humidity 658 is 65.8%RH.
type Reading struct {
	Humidity    uint16
	Temperature int16
}

// Env converts the reading to physical units.
func (r Reading) Env(e *physic.Env) {
	e.Temperature = physic.ZeroCelsius + (physic.Celsius/10)*physic.Temperature(r.Temperature)
	e.Humidity = physic.RelativeHumidity(r.Humidity) * physic.MilliRH
	e.Pressure = 0
}

func (r Reading) String() string {
	return fmt.Sprintf("%s°C %s%%rH", tenths(int(r.Temperature)), tenths(int(r.Humidity)))
}

func tenths(v int) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%d", sign, v/10, v%10)
}

// Frame is the 40 bit payload of a measurement as it arrives on the wire,
// most significant bit first, in the low bits of the value:
//
//	humidity high, humidity low, temperature high, temperature low, checksum
type Frame uint64

// Bytes returns the five bytes of the frame in wire order.
func (f Frame) Bytes() [5]byte {
	return [5]byte{byte(f >> 32), byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)}
}

// Valid reports whether the checksum byte equals the sum of the four
// content bytes truncated to 8 bits.
func (f Frame) Valid() bool {
	b := f.Bytes()
	return common.Sum8(b[:4]) == b[4]
}

// Decode validates the frame and extracts the reading. Temperature is sent
// as sign and magnitude: bit 15 set means below zero.
func (f Frame) Decode() (Reading, error) {
	b := f.Bytes()
	if sum := common.Sum8(b[:4]); sum != b[4] {
		return Reading{}, fmt.Errorf("%w: received 0x%02x, computed 0x%02x", ErrChecksum, b[4], sum)
	}
	t := int16(b[2]&0x7f)<<8 | int16(b[3])
	if b[2]&0x80 != 0 {
		t = -t
	}
	return Reading{Humidity: uint16(b[0])<<8 | uint16(b[1]), Temperature: t}, nil
}

func (f Frame) String() string {
	b := f.Bytes()
	return fmt.Sprintf("% x", b[:])
}
