// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/GermanBionicSystems/thermometer/common"
	"periph.io/x/conn/v3/gpio"
)

// Sensor is the non-blocking driver the loop polls, implemented by
// dht22.Dev.
type Sensor interface {
	TriggerMeasurement() bool
	Advance()
	Reset()
	IsReady() bool
	HasError() bool
	Err() error
	Transmitting() bool
	Temperature() int16
	Humidity() uint16
}

// Greeting is shown while the first measurement runs.
var Greeting = [2]string{"Hi there! :)", "Switch: Min-Max"}

// LoopOpts holds the configuration of a Loop.
type LoopOpts struct {
	// Interval is the time between two triggered measurements.
	Interval time.Duration
	// Warmup is waited before the first measurement; the sensor needs about
	// a second after power on.
	Warmup time.Duration
	// Idle is slept on each tick while the sensor is not transmitting.
	Idle time.Duration
	// LED, if set, is lit while a measurement is in progress.
	LED gpio.PinOut
	// Held, if set, reports whether the button is pressed.
	Held func() bool
	Clock  common.Clock
	Logger *slog.Logger
}

// DefaultLoopOpts is the recommended configuration.
var DefaultLoopOpts = LoopOpts{
	Interval: 30 * time.Second,
	Warmup:   time.Second,
	Idle:     time.Millisecond,
	Clock:    common.SystemClock{},
}

// Loop runs the sensor and the application in one goroutine.
type Loop struct {
	sensor Sensor
	app    *App
	opts   LoopOpts
	log    *slog.Logger
	sleep  func(time.Duration)

	last time.Time
}

// NewLoop returns a Loop. If opts is nil, DefaultLoopOpts is used; a zero
// Interval or Idle takes its default.
func NewLoop(s Sensor, app *App, opts *LoopOpts) (*Loop, error) {
	if s == nil || app == nil {
		return nil, errors.New("thermo: sensor and app are required")
	}
	if opts == nil {
		opts = &DefaultLoopOpts
	}
	o := *opts
	if o.Interval <= 0 {
		o.Interval = DefaultLoopOpts.Interval
	}
	if o.Idle <= 0 {
		o.Idle = DefaultLoopOpts.Idle
	}
	if o.Clock == nil {
		o.Clock = common.SystemClock{}
	}
	l := &Loop{sensor: s, app: app, opts: o, log: o.Logger, sleep: time.Sleep}
	if l.log == nil {
		l.log = slog.Default()
	}
	return l, nil
}

// Run shows the greeting, takes the first measurement to seed the
// application, then calls Tick until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.app.screen.Render(Greeting); err != nil {
		l.log.Warn("greeting", "err", err)
	}
	l.setLED(gpio.High)
	if l.opts.Warmup > 0 {
		l.sleep(l.opts.Warmup)
	}

	l.sensor.TriggerMeasurement()
	l.last = l.opts.Clock.Now()
	for !l.sensor.IsReady() && !l.sensor.HasError() {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.idle()
		l.sensor.Advance()
	}
	if l.sensor.HasError() {
		l.log.Warn("first measurement", "err", l.sensor.Err())
	}
	l.app.Init(l.sensor.Temperature(), l.sensor.Humidity())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Tick()
		l.idle()
	}
}

// Tick runs one iteration of the loop.
func (l *Loop) Tick() {
	l.setLED(!gpio.Level(l.sensor.IsReady()))

	if now := l.opts.Clock.Now(); now.Sub(l.last) > l.opts.Interval {
		l.last = now
		if l.sensor.TriggerMeasurement() {
			l.log.Debug("measure")
		}
	}
	if l.sensor.IsReady() {
		l.app.Update(l.sensor.Temperature(), l.sensor.Humidity())
	}
	if l.sensor.HasError() {
		l.log.Warn("measurement failed", "err", l.sensor.Err())
		l.sensor.Reset()
	}
	// Rendering takes milliseconds and would lose bits.
	if !l.sensor.Transmitting() {
		held := l.opts.Held != nil && l.opts.Held()
		if err := l.app.Task(held); err != nil {
			l.log.Warn("render", "err", err)
		}
	}
	l.sensor.Advance()
}

func (l *Loop) idle() {
	if !l.sensor.Transmitting() {
		l.sleep(l.opts.Idle)
	}
}

func (l *Loop) setLED(v gpio.Level) {
	if l.opts.LED == nil {
		return
	}
	if err := l.opts.LED.Out(v); err != nil {
		l.log.Warn("led", "err", err)
	}
}
