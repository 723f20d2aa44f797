package core

// streaming.go cleans CSV bytes on the fly so imports never hold a whole
// file in memory. Windows exports often start with a UTF-8 byte order mark
// and spreadsheets saved in legacy encodings carry bytes that are not valid
// UTF-8; both would otherwise leak into the first header name or a cell.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CountingReader counts the bytes handed to its caller.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// WrapForStreaming strips a leading BOM from r, replaces invalid UTF-8 bytes
// with '?', and counts what comes out.
func WrapForStreaming(r io.Reader) *CountingReader {
	return &CountingReader{r: &utf8Sanitizer{r: skipBOM(r)}}
}

// skipBOM drops a leading UTF-8 byte order mark. A partial mark is kept.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer replaces each byte that is not part of a valid UTF-8
// sequence with '?'. A multi-byte sequence split across reads is held back
// until the rest arrives.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.pending)
	s.pending = append(s.pending[:0], s.pending[n:]...)

	var err error
	if n < len(p) {
		var m int
		m, err = s.r.Read(p[n:])
		n += m
	}
	if n == 0 {
		return 0, err
	}

	data := p[:n]
	if err == nil {
		if tail := incompleteTail(data); tail > 0 {
			s.pending = append(s.pending, data[len(data)-tail:]...)
			data = data[:len(data)-tail]
		}
	}
	return sanitizeInPlace(data), err
}

// incompleteTail returns how many trailing bytes of data start a multi-byte
// sequence that is not finished yet.
func incompleteTail(data []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if !utf8.RuneStart(b) {
			continue
		}
		if b >= utf8.RuneSelf && !utf8.FullRune(data[len(data)-i:]) {
			return i
		}
		return 0
	}
	return 0
}

// sanitizeInPlace rewrites invalid bytes as '?' and returns the new length.
// Replacement never grows the data, so it can be done in place.
func sanitizeInPlace(data []byte) int {
	if utf8.Valid(data) {
		return len(data)
	}

	w := 0
	for r := 0; r < len(data); {
		c, size := utf8.DecodeRune(data[r:])
		if c == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			r++
			continue
		}
		w += copy(data[w:], data[r:r+size])
		r += size
	}
	return w
}
