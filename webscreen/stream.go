// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webscreen

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
)

// stream writes a never ending multipart body. Each part is followed by its
// closing boundary so the client can show it immediately; mime/multipart
// only writes a boundary when the next part starts.
type stream struct {
	w        io.Writer
	boundary string
	started  bool
	buf      bytes.Buffer
}

func newStream(w io.Writer) *stream {
	// Only used for its random boundary.
	return &stream{w: w, boundary: multipart.NewWriter(io.Discard).Boundary()}
}

func (s *stream) contentType() string {
	return mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{"boundary": s.boundary})
}

// writePart sends one part with its headers and trailing boundary.
func (s *stream) writePart(contentType string, body []byte) error {
	s.buf.Reset()
	if !s.started {
		fmt.Fprintf(&s.buf, "--%s\r\n", s.boundary)
		s.started = true
	}
	fmt.Fprintf(&s.buf, "Content-Type: %s\r\nContent-Length: %d\r\n\r\n", contentType, len(body))
	s.buf.Write(body)
	fmt.Fprintf(&s.buf, "\r\n--%s\r\n", s.boundary)
	_, err := s.buf.WriteTo(s.w)
	return err
}
