// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermometer is a container for the packages of a DHT22 room
// thermometer: the sensor driver, the display drivers and the application
// that ties them together.
//
// The sensor driver lives in dht22. The program is in cmd/thermometer.
package thermometer
