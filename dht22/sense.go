// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht22

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"
)

// idlePoll is how long the blocking helpers sleep while nothing can happen
// on the line.
const idlePoll = time.Millisecond

// Sense runs one complete measurement and returns its result. It waits out
// a cooldown if one is in progress and polls the line without sleeping
// while the sensor transmits.
//
// On failure the driver is reset so the next call can try again, and the
// cause is returned. After Halt it returns ErrHalted. Implements
// physic.SenseEnv.
func (d *Dev) Sense(e *physic.Env) error {
	e.Temperature = 0
	e.Pressure = 0
	e.Humidity = 0
	for !d.TriggerMeasurement() {
		if d.isHalted() {
			return ErrHalted
		}
		switch d.State() {
		case StateError:
			d.Reset()
		case StateTrigger, StateCooldown:
			d.sleep(idlePoll)
			d.Advance()
		default:
			d.Advance()
		}
	}
	for {
		if d.isHalted() {
			return ErrHalted
		}
		switch d.State() {
		case StateCooldown:
			d.Reading().Env(e)
			return nil
		case StateError:
			err := d.Err()
			d.Reset()
			return err
		case StateTrigger:
			d.sleep(idlePoll)
		}
		d.Advance()
	}
}

// SenseContinuous measures every interval and sends the readings on the
// returned channel. Failed measurements are skipped. The minimum interval is
// CooldownDuration. To stop, call Halt.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < CooldownDuration {
		return nil, errors.New("dht22: invalid duration. minimum 2 seconds")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return nil, ErrHalted
	}
	if d.shutdown != nil {
		return nil, errors.New("dht22: sense continuous already running")
	}
	d.shutdown = make(chan struct{})
	ch := make(chan physic.Env, 16)
	d.wg.Add(1)
	go func(shutdown <-chan struct{}) {
		defer d.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				e := physic.Env{}
				if err := d.Sense(&e); err == nil {
					select {
					case ch <- e:
					default:
					}
				}
			}
		}
	}(d.shutdown)
	return ch, nil
}

// Precision returns the resolution of the readings: 0.1°C and 0.1%RH.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Celsius / 10
	e.Pressure = 0
	e.Humidity = physic.MilliRH
}

var _ physic.SenseEnv = &Dev{}
