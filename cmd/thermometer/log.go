// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"io"
	"log/slog"

	"github.com/phsym/console-slog"
)

// newLogger returns a JSON logger with the time under "ts", or a colored
// human readable one when console is set.
func newLogger(w io.Writer, level slog.Leveler, console, source bool) *slog.Logger {
	if console {
		return slog.New(consoleHandler(w, level, source))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: source,
		Level:     level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Key = "ts"
			}
			return a
		},
	}))
}

func consoleHandler(w io.Writer, level slog.Leveler, source bool) slog.Handler {
	return console.NewHandler(w, &console.HandlerOptions{
		AddSource: source,
		Level:     level,
	})
}

// parseLevel accepts the slog level names: debug, info, warn, error.
func parseLevel(s string) (*slog.LevelVar, error) {
	v := &slog.LevelVar{}
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}
	return v, nil
}
