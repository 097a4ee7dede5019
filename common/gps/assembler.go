package gps

import (
	"errors"
	"io"
)

const (
	sentenceStart = '$'
	sentenceEnd   = '\n'

	// NMEA sentences are at most 82 chars but some receivers run long.
	assemblerCap = 128
	readChunk    = 256
)

// Assembler turns a raw byte stream into candidate NMEA sentences. It never
// fails: anything that does not look like part of a sentence is dropped.
type Assembler struct {
	buf     []byte
	open    bool
	scratch []byte
}

func NewAssembler() *Assembler {
	return &Assembler{
		buf:     make([]byte, 0, assemblerCap),
		scratch: make([]byte, readChunk),
	}
}

// Reset discards any partially assembled sentence.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
	a.open = false
}

// Feed consumes p and calls emit for every sentence completed by it.
// A '$' restarts the sentence even if the previous one never terminated.
func (a *Assembler) Feed(p []byte, emit func(string)) {
	for _, c := range p {
		switch {
		case c == sentenceStart:
			a.buf = append(a.buf[:0], c)
			a.open = true
		case c == sentenceEnd:
			if a.open && len(a.buf) > 0 {
				s := string(a.buf)
				a.Reset()
				if emit != nil {
					emit(s)
				}
			}
		case a.open && c >= 32 && c <= 126:
			a.buf = append(a.buf, c)
		}
	}
}

// Drain reads whatever r has buffered and feeds it through the assembler.
// It returns once a read yields no data; a serial port opened with a
// ReadTimeout reports that as io.EOF, which is not an error here. A short
// read means the driver buffer is empty, so Drain stops there too rather
// than chasing a receiver that never stops talking.
func (a *Assembler) Drain(r io.Reader, emit func(string)) (int, error) {
	if a.scratch == nil {
		a.scratch = make([]byte, readChunk)
	}
	total := 0
	for {
		n, err := r.Read(a.scratch)
		if n > 0 {
			total += n
			a.Feed(a.scratch[:n], emit)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
		if n < len(a.scratch) {
			return total, nil
		}
	}
}
