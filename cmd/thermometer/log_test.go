// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerJSON(t *testing.T) {
	var b bytes.Buffer
	lvl, err := parseLevel("warn")
	if err != nil {
		t.Fatal(err)
	}
	log := newLogger(&b, lvl, false, false)
	log.Info("hidden")
	log.Warn("measurement failed", "err", "timeout")
	var rec map[string]any
	if err := json.Unmarshal(b.Bytes(), &rec); err != nil {
		t.Fatalf("%v: %q", err, b.String())
	}
	if _, ok := rec["ts"]; !ok {
		t.Errorf("no ts key: %v", rec)
	}
	if _, ok := rec["time"]; ok {
		t.Errorf("time key kept: %v", rec)
	}
	if rec["msg"] != "measurement failed" || rec["err"] != "timeout" {
		t.Errorf("unexpected record %v", rec)
	}

	lvl.Set(slog.LevelDebug)
	b.Reset()
	log.Debug("measure")
	if !strings.Contains(b.String(), "measure") {
		t.Errorf("level change ignored: %q", b.String())
	}
}

func TestNewLoggerConsole(t *testing.T) {
	var b bytes.Buffer
	log := newLogger(&b, slog.LevelInfo, true, false)
	log.Info("reading", "temperature", "19.5")
	if s := b.String(); !strings.Contains(s, "reading") || !strings.Contains(s, "19.5") {
		t.Errorf("unexpected output %q", s)
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "INFO", "warn", "error"} {
		if _, err := parseLevel(s); err != nil {
			t.Errorf("parseLevel(%q): %v", s, err)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("parseLevel(loud) succeeded")
	}
}
