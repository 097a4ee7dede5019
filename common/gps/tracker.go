package gps

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// View is an immutable copy of the tracker state for other goroutines.
type View struct {
	Satellites []Satellite `json:"satellites"`
	Count      int         `json:"count"`
	Fix        Fix         `json:"fix"`
	Sentences  uint64      `json:"sentences"`
}

// Observer is told about every assembled sentence.
type Observer interface {
	SentenceSeen(gsv, fix bool)
	SatellitesInView(n int)
}

// Tracker owns the assembler, GSV parser and fix tracker. Only the
// goroutine calling Poll or Run may touch them; everyone else reads View.
type Tracker struct {
	asm    *Assembler
	parser *Parser
	fix    *FixTracker
	obs    Observer
	log    *logrus.Entry

	sentences uint64
	view      atomic.Value // View
}

type TrackerOption func(*Tracker)

func WithObserver(o Observer) TrackerOption {
	return func(t *Tracker) {
		t.obs = o
	}
}

func WithLogger(l *logrus.Entry) TrackerOption {
	return func(t *Tracker) {
		t.log = l
	}
}

func WithParser(p *Parser) TrackerOption {
	return func(t *Tracker) {
		t.parser = p
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		asm:    NewAssembler(),
		parser: NewParser(),
		fix:    NewFixTracker(),
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(t)
	}
	t.view.Store(View{Satellites: []Satellite{}})
	return t
}

// Handle routes one complete sentence.
func (t *Tracker) Handle(sentence string) {
	t.sentences++
	gsv := t.parser.Parse(sentence)
	fix := false
	if !gsv {
		fix = t.fix.Feed(sentence)
	}
	if t.obs != nil {
		t.obs.SentenceSeen(gsv, fix)
	}
}

// Poll processes whatever r has buffered and publishes a new View.
func (t *Tracker) Poll(r io.Reader) error {
	_, err := t.asm.Drain(r, t.Handle)
	t.publish()
	return err
}

// Run polls r every interval until ctx ends or the link fails.
func (t *Tracker) Run(ctx context.Context, r io.Reader, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := t.Poll(r); err != nil {
			t.log.WithError(err).Error("Error reading GPS link")
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tracker) View() View {
	return t.view.Load().(View)
}

func (t *Tracker) publish() {
	v := View{
		Satellites: t.parser.Snapshot(),
		Count:      t.parser.Count(),
		Fix:        t.fix.Fix(),
		Sentences:  t.sentences,
	}
	t.view.Store(v)
	if t.obs != nil {
		t.obs.SatellitesInView(v.Count)
	}
}
