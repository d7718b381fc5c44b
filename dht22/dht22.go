// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht22 drives the AOSONG DHT22 (AM2302) temperature/humidity sensor
// over its single-wire protocol.
//
// The driver is a state machine advanced by Advance, which is meant to be
// called on every iteration of a host loop. Each call does at most one pin
// access and one state transition, so the sensor can share a thread with a
// display refresh or a button poll. All protocol deadlines are checked
// against a common.Clock; the driver never sleeps.
//
// A measurement cycle is:
//
//	host holds the line low for 10ms, then releases it
//	sensor pulls low ~80µs, high ~80µs
//	40 bits: low ~50µs, then high ~26µs for 0 or ~70µs for 1
//	2s cooldown before the next measurement
//
// Any edge that does not arrive within 1ms, or a frame with a bad checksum,
// moves the driver to StateError until Reset is called. The last good
// reading is kept across failures.
//
// Polling pin levels at microsecond resolution requires a memory mapped GPIO
// driver, such as periph.io/x/host/v3/bcm283x.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/Digital+humidity+and+temperature+sensor+AM2302.pdf
package dht22

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/thermometer/common"
	"github.com/puzpuzpuz/xsync/v3"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// State is the phase of the protocol the driver is in.
type State uint8

const (
	// StateReady is idle; a measurement may be triggered.
	StateReady State = iota
	// StateTrigger holds the line low to wake the sensor.
	StateTrigger
	// StateWaitForResponse waits for the sensor to pull the line low.
	StateWaitForResponse
	// StateResponseLow waits for the end of the ~80µs low response.
	StateResponseLow
	// StateResponseHigh waits for the end of the ~80µs high response.
	StateResponseHigh
	// StateBitLowTime waits for the end of the low phase of a bit.
	StateBitLowTime
	// StateBitHighTime times the high phase of a bit.
	StateBitHighTime
	// StateCooldown waits out the minimum interval between measurements.
	StateCooldown
	// StateError holds a failed measurement until Reset.
	StateError
)

var stateNames = [...]string{
	StateReady:           "Ready",
	StateTrigger:         "Trigger",
	StateWaitForResponse: "WaitForResponse",
	StateResponseLow:     "ResponseLow",
	StateResponseHigh:    "ResponseHigh",
	StateBitLowTime:      "BitLowTime",
	StateBitHighTime:     "BitHighTime",
	StateCooldown:        "Cooldown",
	StateError:           "Error",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// awaited is the line level that ends each waiting state.
var awaited = [...]gpio.Level{
	StateWaitForResponse: gpio.Low,
	StateResponseLow:     gpio.High,
	StateResponseHigh:    gpio.Low,
	StateBitLowTime:      gpio.High,
	StateBitHighTime:     gpio.Low,
}

const (
	// TriggerDuration is the minimum length of the start pulse.
	TriggerDuration = 10 * time.Millisecond
	// Timeout bounds every wait for an edge from the sensor.
	Timeout = time.Millisecond
	// CooldownDuration is the minimum interval between two measurements.
	CooldownDuration = 2 * time.Second

	// A bit whose high phase lasts longer than this is a 1.
	bitThreshold = 48 * time.Microsecond
	frameBits    = 40
)

var (
	// ErrTimeout is reported when the sensor does not produce an expected
	// edge in time.
	ErrTimeout = errors.New("dht22: timeout waiting for sensor")
	// ErrChecksum is reported when a complete frame fails validation.
	ErrChecksum = errors.New("dht22: checksum mismatch")
	// ErrHalted is returned by Sense once Halt was called.
	ErrHalted = errors.New("dht22: halted")
)

// Opts holds the configuration of a Dev.
type Opts struct {
	// Clock is the time source for all protocol deadlines.
	Clock common.Clock
	// Pull is applied whenever the line is switched to input. Use gpio.Float
	// when the board has an external pull-up resistor.
	Pull gpio.Pull
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{
	Clock: common.SystemClock{},
	Pull:  gpio.PullUp,
}

// Dev is a handle to a DHT22 sensor on one GPIO line.
//
// Dev is safe for concurrent use, but a measurement cycle is only reliable
// when a single loop calls Advance.
type Dev struct {
	pin   gpio.PinIO
	clock common.Clock
	pull  gpio.Pull
	// sleep is used by the blocking helpers in sense.go only.
	sleep func(time.Duration)

	mu       sync.Mutex
	state    State
	since    time.Time
	bits     uint64
	n        int
	err      error
	shutdown chan struct{}
	halted   bool
	wg       sync.WaitGroup

	rmu     *xsync.RBMutex
	reading Reading
}

// New binds a sensor to pin p and returns it in StateReady. The pin is
// switched to input. If opts is nil, DefaultOpts is used.
func New(p gpio.PinIO, opts *Opts) (*Dev, error) {
	if p == nil {
		return nil, errors.New("dht22: pin is nil")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	clock := opts.Clock
	if clock == nil {
		clock = common.SystemClock{}
	}
	d := &Dev{
		pin:   p,
		clock: clock,
		pull:  opts.Pull,
		sleep: time.Sleep,
		rmu:   xsync.NewRBMutex(),
	}
	if err := p.In(d.pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("dht22: %s in: %w", p, err)
	}
	d.transition(StateReady)
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("dht22{%s}", d.pin)
}

// TriggerMeasurement starts a measurement cycle and drives the line low.
//
// It returns false without doing anything unless the driver is in
// StateReady, so at most one measurement is ever in flight. A pin failure
// ends the accepted cycle in StateError.
func (d *Dev) TriggerMeasurement() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted || d.state != StateReady {
		return false
	}
	d.bits = 0
	d.n = 0
	d.err = nil
	d.transition(StateTrigger)
	if err := d.pin.Out(gpio.Low); err != nil {
		d.fail(fmt.Errorf("dht22: %s out: %w", d.pin, err))
	}
	return true
}

// Advance performs the work of the current state: it samples the line once
// and makes at most one state transition. It returns immediately in
// StateReady and StateError.
func (d *Dev) Advance() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return
	}
	switch d.state {
	case StateReady, StateError:
	case StateTrigger:
		if d.elapsed(d.clock.Now()) < TriggerDuration {
			return
		}
		if err := d.pin.In(d.pull, gpio.NoEdge); err != nil {
			d.fail(fmt.Errorf("dht22: %s in: %w", d.pin, err))
			return
		}
		d.transition(StateWaitForResponse)
	case StateCooldown:
		if d.elapsed(d.clock.Now()) >= CooldownDuration {
			d.transition(StateReady)
		}
	default:
		d.await()
	}
}

// await handles the states that wait for an edge from the sensor.
func (d *Dev) await() {
	l := d.pin.Read()
	now := d.clock.Now()
	if l != awaited[d.state] {
		if d.elapsed(now) > Timeout {
			d.fail(fmt.Errorf("%w: %s after %d bits", ErrTimeout, d.state, d.n))
		}
		return
	}
	if d.state != StateBitHighTime {
		d.transition(d.state + 1)
		return
	}
	d.bits <<= 1
	if d.elapsed(now) > bitThreshold {
		d.bits |= 1
	}
	d.n++
	if d.n < frameBits {
		d.transition(StateBitLowTime)
		return
	}
	r, err := Frame(d.bits).Decode()
	if err != nil {
		d.fail(err)
		return
	}
	d.rmu.Lock()
	d.reading = r
	d.rmu.Unlock()
	d.transition(StateCooldown)
}

// Reset returns the driver to StateReady from any state, typically to clear
// StateError. The last reading is kept. A start pulse in progress is
// released.
func (d *Dev) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return
	}
	if d.state == StateTrigger {
		_ = d.pin.In(d.pull, gpio.NoEdge)
	}
	d.err = nil
	d.transition(StateReady)
}

// State returns the current protocol state.
func (d *Dev) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsReady reports whether a measurement can be triggered: nothing is in
// flight and no error is pending.
func (d *Dev) IsReady() bool {
	return d.State() == StateReady
}

// HasError reports whether the last measurement failed and Reset was not
// called since.
func (d *Dev) HasError() bool {
	return d.State() == StateError
}

// Transmitting reports whether the sensor is sending its response or data
// bits. Advance must then be called at least every few microseconds, so the
// host loop should skip any slow work.
func (d *Dev) Transmitting() bool {
	s := d.State()
	return s >= StateWaitForResponse && s <= StateBitHighTime
}

// Err returns the reason for StateError, wrapping ErrTimeout, ErrChecksum or
// a pin error. It returns nil in any other state.
func (d *Dev) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Reading returns the last validated measurement, whatever the current
// state. It is the zero Reading until a measurement succeeds.
func (d *Dev) Reading() Reading {
	t := d.rmu.RLock()
	defer d.rmu.RUnlock(t)
	return d.reading
}

// Temperature returns the last validated temperature in tenths of °C.
func (d *Dev) Temperature() int16 {
	return d.Reading().Temperature
}

// Humidity returns the last validated relative humidity in tenths of %.
func (d *Dev) Humidity() uint16 {
	return d.Reading().Humidity
}

// Halt stops a running SenseContinuous, waits for it to return and releases
// the line: it is left as a floating input. Afterwards the Dev no longer
// touches the pin; TriggerMeasurement returns false and Sense ErrHalted.
//
// Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	d.halted = true
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	d.mu.Unlock()
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("dht22: %s in: %w", d.pin, err)
	}
	return d.pin.Halt()
}

func (d *Dev) isHalted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.halted
}

func (d *Dev) transition(s State) {
	d.state = s
	d.since = d.clock.Now()
}

func (d *Dev) fail(err error) {
	d.err = err
	d.transition(StateError)
}

// elapsed returns the time spent in the current state at now, in whole
// microseconds.
func (d *Dev) elapsed(now time.Time) time.Duration {
	return now.Sub(d.since).Truncate(time.Microsecond)
}

var _ conn.Resource = &Dev{}
