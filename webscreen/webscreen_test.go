// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webscreen

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	d := New(nil)
	if got := d.Bounds(); got != image.Rect(0, 0, 128, 32) {
		t.Errorf("Bounds()=%v", got)
	}
	if s := d.String(); s != "WebScreen{128x32}" {
		t.Errorf("String()=%q", s)
	}
	d = New(&Opts{Width: 16, Height: -1})
	if got := d.Bounds(); got != image.Rect(0, 0, 128, 32) {
		t.Errorf("invalid size not replaced: %v", got)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestOnce(t *testing.T) {
	d := New(&Opts{Width: 8, Height: 4})
	white := image.NewUniform(color.White)
	if err := d.Draw(image.Rect(0, 0, 4, 4), white, image.Point{}); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(d)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/?once")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Content-Type %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0xffff {
		t.Errorf("drawn pixel is %v", img.At(1, 1))
	}
	if r, _, _, a := img.At(6, 1).RGBA(); r != 0 || a != 0xffff {
		t.Errorf("background pixel is %v", img.At(6, 1))
	}
}

func TestStatus(t *testing.T) {
	d := New(&Opts{Width: 8, Height: 8})
	srv := httptest.NewServer(d)
	defer srv.Close()
	for _, line := range []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusMethodNotAllowed},
		{http.MethodPut, http.StatusMethodNotAllowed},
		{http.MethodHead, http.StatusOK},
	} {
		req, err := http.NewRequest(line.method, srv.URL+"/", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != line.want {
			t.Errorf("%s: status %d, want %d", line.method, resp.StatusCode, line.want)
		}
	}
}

func TestStream(t *testing.T) {
	d := New(&Opts{Width: 8, Height: 8})
	srv := httptest.NewServer(d)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "multipart/x-mixed-replace" || params["boundary"] == "" {
		t.Fatalf("Content-Type %q", resp.Header.Get("Content-Type"))
	}
	mr := multipart.NewReader(resp.Body, params["boundary"])

	levels := []uint8{0, 0x40, 0x80, 0xff}
	for i, l := range levels {
		p, err := mr.NextPart()
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		b, err := io.ReadAll(p)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if n, _ := strconv.Atoi(p.Header.Get("Content-Length")); n != len(b) {
			t.Errorf("#%d: Content-Length %d, read %d", i, n, len(b))
		}
		img, err := png.Decode(bytes.NewReader(b))
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if got := img.At(0, 0).(color.RGBA).R; got != l {
			t.Errorf("#%d: pixel %d, want %d", i, got, l)
		}
		if i+1 < len(levels) {
			g := image.NewUniform(color.RGBA{R: levels[i+1], A: 0xff})
			if err := d.Draw(d.Bounds(), g, image.Point{}); err != nil {
				t.Fatal(err)
			}
		}
	}

	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if _, err := mr.NextPart(); err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("stream not ended by Halt: %v", err)
	}
}

func TestStreamPart(t *testing.T) {
	var b bytes.Buffer
	s := newStream(&b)
	if err := s.writePart("text/plain", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.writePart("text/plain", []byte("bc")); err != nil {
		t.Fatal(err)
	}
	want := "--" + s.boundary + "\r\n" +
		"Content-Type: text/plain\r\nContent-Length: 1\r\n\r\na\r\n--" + s.boundary + "\r\n" +
		"Content-Type: text/plain\r\nContent-Length: 2\r\n\r\nbc\r\n--" + s.boundary + "\r\n"
	if got := b.String(); got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
	if len(s.boundary) < 30 {
		t.Errorf("boundary %q too short", s.boundary)
	}
}
