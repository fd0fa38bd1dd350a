package object

import (
	"bufio"
	"io"
	"strings"
)

// Direction classifies a Stream's allowed I/O operations.
type Direction uint8

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionIO
)

// Stream is the character/byte I/O abstraction the reader and the
// external interfaces are built on. Only character-level
// read/peek/write is in scope here; formatted output beyond that is an
// external collaborator.
type Stream struct {
	Dir    Direction
	Name   string // for diagnostics: "<string>", a file path, "<stdin>"
	reader *bufio.Reader
	writer io.Writer
	closed bool

	// peeked holds a character preview-char has already consumed from
	// reader but read-char has not yet claimed.
	peeked     rune
	hasPeeked  bool
	peekIsEOF  bool
}

func (s *Stream) Kind() Kind          { return KindStream }
func (s *Stream) SelfEvaluating() bool { return true }

// NewStringInputStream wraps a string for character-at-a-time reading.
func NewStringInputStream(s string) *Stream {
	return &Stream{Dir: DirectionInput, Name: "<string>", reader: bufio.NewReader(strings.NewReader(s))}
}

// NewOutputStream wraps an io.Writer (e.g. os.Stdout, a strings.Builder).
func NewOutputStream(w io.Writer, name string) *Stream {
	return &Stream{Dir: DirectionOutput, Name: name, writer: w}
}

// NewFileInputStream wraps an io.Reader backed by an open file.
func NewFileInputStream(r io.Reader, name string) *Stream {
	return &Stream{Dir: DirectionInput, Name: name, reader: bufio.NewReader(r)}
}

// NewIOStream wraps a combined input/output backing (e.g. a network
// connection or an in-memory io.ReadWriter), satisfying both
// input-stream-p and output-stream-p.
func NewIOStream(r io.Reader, w io.Writer, name string) *Stream {
	return &Stream{Dir: DirectionIO, Name: name, reader: bufio.NewReader(r), writer: w}
}

// ReadChar consumes and returns the next character, or (0, false) at
// end of stream.
func (s *Stream) ReadChar() (rune, bool) {
	if s.hasPeeked {
		s.hasPeeked = false
		if s.peekIsEOF {
			return 0, false
		}
		return s.peeked, true
	}
	if s.reader == nil {
		return 0, false
	}
	r, _, err := s.reader.ReadRune()
	if err != nil {
		return 0, false
	}
	return r, true
}

// PreviewChar returns the next character without consuming it.
func (s *Stream) PreviewChar() (rune, bool) {
	if !s.hasPeeked {
		if s.reader == nil {
			s.hasPeeked, s.peekIsEOF = true, true
			return 0, false
		}
		r, _, err := s.reader.ReadRune()
		s.hasPeeked = true
		if err != nil {
			s.peekIsEOF = true
			return 0, false
		}
		s.peeked = r
		s.peekIsEOF = false
	}
	if s.peekIsEOF {
		return 0, false
	}
	return s.peeked, true
}

// WriteChar writes a single character to an output stream.
func (s *Stream) WriteChar(r rune) error {
	if s.writer == nil {
		return io.ErrClosedPipe
	}
	_, err := s.writer.Write([]byte(string(r)))
	return err
}

// WriteString writes a string to an output stream.
func (s *Stream) WriteString(str string) error {
	if s.writer == nil {
		return io.ErrClosedPipe
	}
	_, err := io.WriteString(s.writer, str)
	return err
}

func (s *Stream) InputStreamP() bool  { return s.Dir == DirectionInput || s.Dir == DirectionIO }
func (s *Stream) OutputStreamP() bool { return s.Dir == DirectionOutput || s.Dir == DirectionIO }
func (s *Stream) OpenStreamP() bool   { return !s.closed }
func (s *Stream) Close()              { s.closed = true }

// ReadyP reports whether a character is available without blocking.
// For the in-memory/string/file backings used here, a stream is ready
// whenever it is open and not at end-of-stream.
func (s *Stream) ReadyP() bool {
	if s.closed || !s.InputStreamP() {
		return false
	}
	_, ok := s.PreviewChar()
	return ok
}
