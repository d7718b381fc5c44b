// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package webscreen is a display.Drawer that mirrors a small screen to web
// browsers, so a station without a display attached can still be read.
//
// A GET request receives the current image and then a new one after every
// Draw, as a "multipart/x-mixed-replace" stream of PNG images (the "MJPEG"
// protocol of IP cameras, https://en.wikipedia.org/wiki/Motion_JPEG). Add
// "?once" to the URL to get a single PNG image instead.
package webscreen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"net/http"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// Opts holds the configuration of a Display.
type Opts struct {
	// Width and Height of the image in pixels.
	Width, Height int
	// Logger receives request failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOpts is the size of a 128x32 OLED module.
var DefaultOpts = Opts{Width: 128, Height: 32}

// Display keeps the last drawn image and serves it over HTTP.
type Display struct {
	log *slog.Logger
	enc png.Encoder

	mu      sync.Mutex
	img     *image.RGBA
	encoded []byte
	changed chan struct{}
	done    chan struct{}
}

// New returns a black Display. If opts is nil, DefaultOpts is used.
func New(opts *Opts) *Display {
	if opts == nil {
		opts = &DefaultOpts
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultOpts.Width, DefaultOpts.Height
	}
	d := &Display{
		log:     opts.Logger,
		enc:     png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: &bufferPool{}},
		img:     image.NewRGBA(image.Rect(0, 0, w, h)),
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	// A new RGBA image is transparent.
	draw.Draw(d.img, d.img.Bounds(), image.Black, image.Point{}, draw.Src)
	return d
}

func (d *Display) String() string {
	return fmt.Sprintf("WebScreen{%dx%d}", d.img.Rect.Dx(), d.img.Rect.Dy())
}

// Halt ends all the streams being served. Further requests get a single
// image.
func (d *Display) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.done:
	default:
		close(d.done)
	}
	return nil
}

// ColorModel implements display.Drawer.
func (d *Display) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer.
func (d *Display) Bounds() image.Rectangle {
	return d.img.Rect
}

// Draw implements display.Drawer and wakes up all the streams.
func (d *Display) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	draw.Draw(d.img, r, src, sp, draw.Src)
	d.encoded = nil
	close(d.changed)
	d.changed = make(chan struct{})
	return nil
}

// frame returns the PNG encoding of the current image and a channel closed
// on the next Draw.
func (d *Display) frame() ([]byte, <-chan struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.encoded == nil {
		var b bytes.Buffer
		if err := d.enc.Encode(&b, d.img); err != nil {
			return nil, nil, fmt.Errorf("webscreen: %w", err)
		}
		d.encoded = b.Bytes()
	}
	return d.encoded, d.changed, nil
}

// ServeHTTP implements http.Handler.
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	if _, once := r.URL.Query()["once"]; once || r.Method == http.MethodHead {
		d.serveImage(w)
		return
	}
	select {
	case <-d.done:
		d.serveImage(w)
		return
	default:
	}
	d.serveStream(w, r)
}

func (d *Display) serveImage(w http.ResponseWriter) {
	b, _, err := d.frame()
	if err != nil {
		d.log.Error("encode", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
}

func (d *Display) serveStream(w http.ResponseWriter, r *http.Request) {
	s := newStream(w)
	w.Header().Set("Content-Type", s.contentType())
	w.Header().Set("Cache-Control", "no-store")
	flusher, _ := w.(http.Flusher)
	for {
		b, changed, err := d.frame()
		if err != nil {
			d.log.Error("encode", "err", err)
			return
		}
		if err := s.writePart("image/png", b); err != nil {
			// The client went away.
			d.log.Debug("stream", "remote", r.RemoteAddr, "err", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		select {
		case <-changed:
		case <-d.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// bufferPool shares the PNG encoder scratch space between requests.
type bufferPool struct {
	p sync.Pool
}

func (b *bufferPool) Get() *png.EncoderBuffer {
	buf, _ := b.p.Get().(*png.EncoderBuffer)
	return buf
}

func (b *bufferPool) Put(buf *png.EncoderBuffer) {
	b.p.Put(buf)
}

var _ display.Drawer = &Display{}
var _ conn.Resource = &Display{}
var _ http.Handler = &Display{}
