// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermo is the thermometer application: it keeps the current,
// minimum and maximum readings with their trend, renders them on a two line
// screen and reacts to a single push button.
//
// A short press toggles between the current readings and the min/max
// values. Holding the button for a second resets min/max to the current
// readings.
//
// Loop ties the application to a sensor in a single cooperative loop.
package thermo

import (
	"log/slog"
	"sync"
	"time"

	"github.com/GermanBionicSystems/thermometer/common"
)

// Mode selects what the screen shows.
type Mode uint8

const (
	// ModeCurrent shows the latest readings with their trend.
	ModeCurrent Mode = iota
	// ModeMinMax shows the extremes since start or the last reset.
	ModeMinMax
)

func (m Mode) String() string {
	if m == ModeMinMax {
		return "MinMax"
	}
	return "Current"
}

// Tendency is the direction of the last change of a reading.
type Tendency uint8

const (
	Steady Tendency = iota
	Rising
	Falling
)

// Rune returns the symbol shown next to a reading.
func (t Tendency) Rune() rune {
	switch t {
	case Rising:
		return '↑'
	case Falling:
		return '↓'
	default:
		return '='
	}
}

func (t Tendency) String() string {
	switch t {
	case Rising:
		return "Rising"
	case Falling:
		return "Falling"
	default:
		return "Steady"
	}
}

const (
	// DebounceDuration is the minimum interval between two presses.
	DebounceDuration = 250 * time.Millisecond
	// LongPressDuration is how long the button must be held to reset
	// min/max.
	LongPressDuration = time.Second
)

// Snapshot is the state of the application. Temperatures are in tenths of
// °C, humidities in tenths of %RH.
type Snapshot struct {
	Mode             Mode
	Temperature      int16
	MinTemperature   int16
	MaxTemperature   int16
	TemperatureTrend Tendency
	Humidity         uint16
	MinHumidity      uint16
	MaxHumidity      uint16
	HumidityTrend    Tendency
}

// AppOpts holds the configuration of an App.
type AppOpts struct {
	Clock  common.Clock
	Logger *slog.Logger
}

// DefaultAppOpts is the recommended configuration.
var DefaultAppOpts = AppOpts{
	Clock: common.SystemClock{},
}

// App is the thermometer user interface. It is safe for concurrent use so
// that button presses can be delivered from another goroutine.
type App struct {
	screen Screen
	clock  common.Clock
	log    *slog.Logger

	mu      sync.Mutex
	s       Snapshot
	dirty   bool
	pressed time.Time
}

// NewApp returns an App that renders on screen. If opts is nil,
// DefaultAppOpts is used.
func NewApp(screen Screen, opts *AppOpts) *App {
	if opts == nil {
		opts = &DefaultAppOpts
	}
	a := &App{screen: screen, clock: opts.Clock, log: opts.Logger}
	if a.clock == nil {
		a.clock = common.SystemClock{}
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

// Init sets the current, minimum and maximum values to the first reading.
func (a *App) Init(temp int16, hum uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.s = Snapshot{
		Mode:           a.s.Mode,
		Temperature:    temp,
		MinTemperature: temp,
		MaxTemperature: temp,
		Humidity:       hum,
		MinHumidity:    hum,
		MaxHumidity:    hum,
	}
	a.dirty = true
}

// Update records a new reading. Nothing happens if it equals the current
// one; otherwise the trends are recomputed, min/max widened and the screen
// scheduled for refresh.
func (a *App) Update(temp int16, hum uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &a.s
	if temp == s.Temperature && hum == s.Humidity {
		return
	}
	s.TemperatureTrend = trend(int(temp), int(s.Temperature))
	s.Temperature = temp
	s.MinTemperature = min(s.MinTemperature, temp)
	s.MaxTemperature = max(s.MaxTemperature, temp)

	s.HumidityTrend = trend(int(hum), int(s.Humidity))
	s.Humidity = hum
	s.MinHumidity = min(s.MinHumidity, hum)
	s.MaxHumidity = max(s.MaxHumidity, hum)
	a.dirty = true
	a.log.Info("reading", "temperature", tenths(int(temp)), "humidity", tenths(int(hum)))
}

func trend(now, before int) Tendency {
	switch {
	case now > before:
		return Rising
	case now < before:
		return Falling
	default:
		return Steady
	}
}

// Press toggles the display mode. Presses closer than DebounceDuration to
// the previous one are contact bounce and ignored.
func (a *App) Press() {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.clock.Now()
	if !a.pressed.IsZero() && now.Sub(a.pressed) < DebounceDuration {
		return
	}
	a.pressed = now
	if a.s.Mode == ModeCurrent {
		a.s.Mode = ModeMinMax
	} else {
		a.s.Mode = ModeCurrent
	}
	a.dirty = true
	a.log.Debug("button", "mode", a.s.Mode)
}

// Task is called on every iteration of the host loop. held is the current
// state of the button. If it has been held for longer than
// LongPressDuration since the last press, min/max are reset to the current
// readings. The screen is redrawn when anything changed.
func (a *App) Task(held bool) error {
	a.mu.Lock()
	now := a.clock.Now()
	if held && !a.pressed.IsZero() && now.Sub(a.pressed) > LongPressDuration {
		s := &a.s
		s.MinTemperature, s.MaxTemperature = s.Temperature, s.Temperature
		s.MinHumidity, s.MaxHumidity = s.Humidity, s.Humidity
		a.pressed = now
		a.dirty = true
		a.log.Info("min/max reset")
	}
	if !a.dirty {
		a.mu.Unlock()
		return nil
	}
	a.dirty = false
	lines := Lines(a.s)
	a.mu.Unlock()

	if err := a.screen.Render(lines); err != nil {
		a.mu.Lock()
		a.dirty = true
		a.mu.Unlock()
		return err
	}
	return nil
}

// Snapshot returns a copy of the application state.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s
}
