package gps

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaudRates are tried in order; the last one is the fallback.
var DefaultBaudRates = []int{4800, 9600, 38400, 115200}

const (
	DefaultProbeWindow   = 5 * time.Second
	DefaultProbeRequired = 2
	DefaultProbePoll     = 10 * time.Millisecond

	// any talker that looks like GPS chatter counts as evidence
	probePrefix    = "$GP"
	probeMinLength = 8
)

// Link is an open serial connection at one baud rate.
type Link interface {
	io.ReadCloser
	// Flush discards data received but not yet read.
	Flush() error
}

// Dialer opens the receiver's link at a given baud rate.
type Dialer interface {
	Open(baud int) (Link, error)
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(baud int) (Link, error)

func (f DialerFunc) Open(baud int) (Link, error) { return f(baud) }

// Outcome is the result of a probe. AutoDetected is false when no candidate
// produced enough sentences and Rate is only the fallback.
type Outcome struct {
	Rate         int  `json:"rate"`
	AutoDetected bool `json:"auto_detected"`
}

// Prober finds the baud rate the receiver talks at by trying each
// candidate for a bounded window. Zero fields take the Default values.
type Prober struct {
	Dialer       Dialer
	Candidates   []int
	Window       time.Duration
	Required     int
	PollInterval time.Duration
	Log          *logrus.Entry
}

// Probe runs the detection once. The first candidate to yield Required
// qualifying sentences inside its window wins. If none does, the last
// candidate is returned with AutoDetected false. An error is returned only
// when ctx ends first, alongside the fallback outcome.
func (p *Prober) Probe(ctx context.Context) (Outcome, error) {
	candidates := p.Candidates
	if len(candidates) == 0 {
		candidates = DefaultBaudRates
	}
	log := p.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	fallback := Outcome{Rate: candidates[len(candidates)-1]}

	log.Info("Detecting GPS baud rate")
	for _, baud := range candidates {
		if err := ctx.Err(); err != nil {
			return fallback, err
		}
		l := log.WithField("baud", baud)
		l.Info("Trying baud rate")
		n, err := p.tryRate(ctx, baud, l)
		if err != nil {
			l.WithError(err).Warn("Could not open GPS link")
			continue
		}
		if n >= p.required() {
			l.WithField("sentences", n).Info("Found valid NMEA data")
			return Outcome{Rate: baud, AutoDetected: true}, nil
		}
		if err := ctx.Err(); err != nil {
			return fallback, err
		}
		l.WithField("sentences", n).Info("No valid NMEA data")
	}
	log.WithField("baud", fallback.Rate).Warn("Could not detect GPS baud rate, using fallback")
	return fallback, nil
}

// tryRate counts qualifying sentences at one rate until the window closes
// or enough have been seen. A read error ends the window early.
func (p *Prober) tryRate(ctx context.Context, baud int, log *logrus.Entry) (int, error) {
	link, err := p.Dialer.Open(baud)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = link.Close()
	}()
	// whatever arrived before this rate was set is garbage
	if err := link.Flush(); err != nil {
		log.WithError(err).Debug("Flush failed")
	}

	window := p.Window
	if window <= 0 {
		window = DefaultProbeWindow
	}
	poll := p.PollInterval
	if poll <= 0 {
		poll = DefaultProbePoll
	}
	wctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	need := p.required()
	valid := 0
	asm := NewAssembler()
	count := func(s string) {
		if qualifies(s) {
			valid++
			log.WithField("sentence", s).Debug("Found NMEA")
		}
	}
	for valid < need {
		if _, err := asm.Drain(link, count); err != nil {
			log.WithError(err).Warn("Error reading GPS link")
			return valid, nil
		}
		if valid >= need {
			break
		}
		select {
		case <-wctx.Done():
			return valid, nil
		case <-time.After(poll):
		}
	}
	return valid, nil
}

func (p *Prober) required() int {
	if p.Required <= 0 {
		return DefaultProbeRequired
	}
	return p.Required
}

func qualifies(s string) bool {
	return len(s) > probeMinLength && strings.HasPrefix(s, probePrefix)
}
