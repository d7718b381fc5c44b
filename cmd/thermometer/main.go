// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermometer shows the temperature and humidity measured by a DHT22 on a
// 16x2 character LCD, with a push button to switch to the min/max values.
//
// Without an LCD, -console draws the screen in the terminal and -http
// mirrors it to web browsers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/thermometer/consolelcd"
	"github.com/GermanBionicSystems/thermometer/dht22"
	"github.com/GermanBionicSystems/thermometer/hd44780"
	"github.com/GermanBionicSystems/thermometer/thermo"
	"github.com/GermanBionicSystems/thermometer/webscreen"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no pin %q", name)
	}
	return p, nil
}

// lcdPins parses "RS,E,D4,D5,D6,D7".
func lcdPins(list string) (rs, e gpio.PinOut, data [4]gpio.PinOut, err error) {
	names := strings.Split(list, ",")
	if len(names) != 6 {
		return nil, nil, data, fmt.Errorf("-lcd needs 6 pins, got %q", list)
	}
	var pins [6]gpio.PinOut
	for i, n := range names {
		if pins[i], err = pinByName(strings.TrimSpace(n)); err != nil {
			return nil, nil, data, err
		}
	}
	copy(data[:], pins[2:])
	return pins[0], pins[1], data, nil
}

// textDisplay returns the hd44780 LCD or its console emulation.
func textDisplay(useConsole bool, pins, bl string) (display.TextDisplay, error) {
	if useConsole {
		return consolelcd.New(nil), nil
	}
	rs, e, data, err := lcdPins(pins)
	if err != nil {
		return nil, err
	}
	var backlight display.DisplayBacklight
	if bl != "" {
		p, err := pinByName(bl)
		if err != nil {
			return nil, err
		}
		backlight = hd44780.NewBacklight(p)
	}
	return hd44780.New(rs, e, data, backlight, 2, 16)
}

// senseOnce prints a single measurement.
func senseOnce(d *dht22.Dev) error {
	var e physic.Env
	if err := d.Sense(&e); err != nil {
		return err
	}
	fmt.Printf("%8s %9s\n", e.Temperature, e.Humidity)
	return nil
}

func mainImpl() error {
	dhtName := flag.String("dht", "GPIO9", "DHT22 data pin")
	noPull := flag.Bool("float", false, "disable the internal pull-up on the DHT22 data pin")
	once := flag.Bool("once", false, "print one measurement and exit")
	swName := flag.String("switch", "GPIO14", "push button pin, empty to disable")
	ledName := flag.String("led", "GPIO25", "status LED pin, empty to disable")
	lcd := flag.String("lcd", "GPIO16,GPIO21,GPIO20,GPIO19,GPIO18,GPIO17", "HD44780 RS,E,D4,D5,D6,D7 pins")
	blName := flag.String("bl", "", "HD44780 backlight pin")
	useConsole := flag.Bool("console", false, "draw the screen in the terminal instead of an HD44780")
	httpAddr := flag.String("http", "", "serve the screen to web browsers on this address, e.g. :8080")
	fontSize := flag.Float64("font", 12, "font size of the web screen, 0 for a bitmap font")
	interval := flag.Duration("interval", 30*time.Second, "time between measurements")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn or error")
	logConsole := flag.Bool("log-console", false, "human readable logs")
	logSource := flag.Bool("log-source", false, "log source file and line")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if *interval < dht22.CooldownDuration {
		return fmt.Errorf("-interval must be at least %s", dht22.CooldownDuration)
	}

	level, err := parseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, level, *logConsole, *logSource)
	slog.SetDefault(logger)

	if _, err := host.Init(); err != nil {
		return err
	}

	p, err := pinByName(*dhtName)
	if err != nil {
		return err
	}
	opts := dht22.DefaultOpts
	if *noPull {
		opts.Pull = gpio.Float
	}
	dev, err := dht22.New(p, &opts)
	if err != nil {
		return err
	}
	defer dev.Halt()
	if *once {
		return senseOnce(dev)
	}

	td, err := textDisplay(*useConsole, *lcd, *blName)
	if err != nil {
		return err
	}
	defer td.(interface{ Halt() error }).Halt()
	ts, err := thermo.NewTextScreen(td)
	if err != nil {
		return err
	}
	screens := thermo.Screens{ts}

	if *httpAddr != "" {
		web := webscreen.New(&webscreen.Opts{Width: 160, Height: 48, Logger: logger})
		defer web.Halt()
		is, err := thermo.NewImageScreen(web, *fontSize)
		if err != nil {
			return err
		}
		screens = append(screens, is)
		ln, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: web, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http", "err", err)
			}
		}()
		defer srv.Close()
		logger.Info("serving", "addr", ln.Addr().String())
	}

	app := thermo.NewApp(screens, &thermo.AppOpts{Logger: logger})
	lopts := thermo.DefaultLoopOpts
	lopts.Interval = *interval
	lopts.Logger = logger
	if *ledName != "" {
		if lopts.LED, err = pinByName(*ledName); err != nil {
			return err
		}
	}
	if *swName != "" {
		p, err := pinByName(*swName)
		if err != nil {
			return err
		}
		btn, err := thermo.NewButton(p, app.Press)
		if err != nil {
			return err
		}
		defer btn.Halt()
		lopts.Held = btn.Held
	}
	loop, err := thermo.NewLoop(dev, app, &lopts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("started", "sensor", dev.String(), "display", fmt.Sprint(td), "interval", *interval)
	if err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "thermometer: %s.\n", err)
		os.Exit(1)
	}
}
