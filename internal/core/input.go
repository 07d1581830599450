package core

// input.go normalizes raw CSV bytes before parsing.
//
// Spreadsheet exports on Windows often start with a UTF-8 BOM and
// occasionally contain bytes from a legacy code page. Both would leak into
// the first header name or into record text, so they are handled here:
//
//   - BOMSkippingReader drops a leading 0xEF 0xBB 0xBF
//   - UTF8SanitizingReader replaces invalid UTF-8 sequences with U+FFFD

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader. The first call peeks at the leading bytes and
// discards them if they form a BOM.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if head, _ := b.r.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// UTF8SanitizingReader replaces invalid UTF-8 with the replacement character.
// Multi-byte sequences split across reads are carried over to the next call.
type UTF8SanitizingReader struct {
	r       io.Reader
	pending []byte // undecoded tail of the previous chunk
	out     []byte // sanitized bytes not yet returned
	err     error
}

// NewUTF8SanitizingReader creates a new sanitizing reader.
func NewUTF8SanitizingReader(r io.Reader) *UTF8SanitizingReader {
	return &UTF8SanitizingReader{r: r}
}

// Read implements io.Reader.
func (s *UTF8SanitizingReader) Read(p []byte) (int, error) {
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *UTF8SanitizingReader) fill() {
	buf := make([]byte, 4096)
	n, err := s.r.Read(buf)
	chunk := append(s.pending, buf[:n]...)
	s.pending = nil
	s.err = err

	atEOF := err != nil
	for len(chunk) > 0 {
		r, size := utf8.DecodeRune(chunk)
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(chunk) {
				s.pending = append(s.pending, chunk...)
				return
			}
			s.out = utf8.AppendRune(s.out, utf8.RuneError)
			chunk = chunk[1:]
			continue
		}
		s.out = append(s.out, chunk[:size]...)
		chunk = chunk[size:]
	}
}

// NormalizeInput applies BOM skipping and UTF-8 sanitization in that order.
func NormalizeInput(r io.Reader) io.Reader {
	return NewUTF8SanitizingReader(NewBOMSkippingReader(r))
}
