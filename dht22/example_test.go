// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht22_test

import (
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/thermometer/dht22"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Example drives the state machine from a polling loop, the way it is meant
// to share a thread with other periodic tasks.
func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	p := gpioreg.ByName("GPIO4")
	if p == nil {
		log.Fatal("no GPIO4")
	}
	dev, err := dht22.New(p, &dht22.DefaultOpts)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()

	dev.TriggerMeasurement()
	for !dev.IsReady() && !dev.HasError() {
		dev.Advance()
		// Other tasks go here. They must return within a few microseconds
		// while the sensor transmits.
	}
	if dev.HasError() {
		log.Fatal(dev.Err())
	}
	fmt.Println(dev.Reading())
}

// ExampleDev_Sense uses the blocking physic.SenseEnv interface.
func ExampleDev_Sense() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	dev, err := dht22.New(gpioreg.ByName("GPIO4"), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()

	e := physic.Env{}
	for range 3 {
		if err := dev.Sense(&e); err != nil {
			log.Println(err)
			continue
		}
		fmt.Printf("%8s %9s\n", e.Temperature, e.Humidity)
	}
}

func ExampleDev_SenseContinuous() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	dev, err := dht22.New(gpioreg.ByName("GPIO4"), nil)
	if err != nil {
		log.Fatal(err)
	}
	ch, err := dev.SenseContinuous(5 * time.Second)
	if err != nil {
		log.Fatal(err)
	}
	go func() {
		time.Sleep(time.Minute)
		_ = dev.Halt()
	}()
	for e := range ch {
		fmt.Printf("%8s %9s\n", e.Temperature, e.Humidity)
	}
}
