// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import "fmt"

// Lines formats s as two 16 column lines:
//
//	Temp:  21.5 °C ↑      Min  -3.5C 41.0%
//	Hum:   45.0 %  =      Max  24.1C 65.5%
func Lines(s Snapshot) [2]string {
	if s.Mode == ModeMinMax {
		return [2]string{
			fmt.Sprintf("Min %5sC%5s%%", tenths(int(s.MinTemperature)), tenths(int(s.MinHumidity))),
			fmt.Sprintf("Max %5sC%5s%%", tenths(int(s.MaxTemperature)), tenths(int(s.MaxHumidity))),
		}
	}
	return [2]string{
		fmt.Sprintf("Temp: %5s °C %c", tenths(int(s.Temperature)), s.TemperatureTrend.Rune()),
		fmt.Sprintf("Hum:  %5s %%  %c", tenths(int(s.Humidity)), s.HumidityTrend.Rune()),
	}
}

// tenths formats a fixed point value in tenths, keeping the sign of values
// between -1 and 0.
func tenths(v int) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%d", sign, v/10, v%10)
}
