// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// edgeTimeout bounds each wait for an edge so Halt is noticed.
const edgeTimeout = 100 * time.Millisecond

// Button is a push button between a GPIO line and ground. The line is pulled
// up, so a press is a falling edge.
type Button struct {
	pin     gpio.PinIn
	onPress func()
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewButton configures p and calls onPress from a goroutine on every falling
// edge. Debouncing is left to the callback, see App.Press.
func NewButton(p gpio.PinIn, onPress func()) (*Button, error) {
	if p == nil {
		return nil, errors.New("thermo: button pin is nil")
	}
	if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("thermo: %s in: %w", p, err)
	}
	b := &Button{pin: p, onPress: onPress, done: make(chan struct{})}
	b.wg.Add(1)
	go b.watch()
	return b, nil
}

func (b *Button) watch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		default:
		}
		if b.pin.WaitForEdge(edgeTimeout) && b.onPress != nil {
			b.onPress()
		}
	}
}

// Held reports whether the button is currently pressed.
func (b *Button) Held() bool {
	return b.pin.Read() == gpio.Low
}

func (b *Button) String() string {
	return fmt.Sprintf("Button{%s}", b.pin)
}

// Halt stops watching the line and leaves it as a floating input without
// edge detection.
func (b *Button) Halt() error {
	select {
	case <-b.done:
		return nil
	default:
	}
	close(b.done)
	b.wg.Wait()
	if err := b.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("thermo: %s in: %w", b.pin, err)
	}
	return nil
}
