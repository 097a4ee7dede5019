package gps

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLink hands out queued chunks one per Read. Stale data sits in front
// of the queue until Flush drops it.
type fakeLink struct {
	stale  []string
	chunks []string
	closed bool
}

func (l *fakeLink) Read(p []byte) (int, error) {
	q := &l.chunks
	if len(l.stale) > 0 {
		q = &l.stale
	}
	if len(*q) == 0 {
		return 0, io.EOF
	}
	n := copy(p, (*q)[0])
	(*q)[0] = (*q)[0][n:]
	if (*q)[0] == "" {
		*q = (*q)[1:]
	}
	return n, nil
}

func (l *fakeLink) Flush() error {
	l.stale = nil
	return nil
}

func (l *fakeLink) Close() error {
	l.closed = true
	return nil
}

type fakeDialer struct {
	mu     sync.Mutex
	links  map[int]*fakeLink
	fail   map[int]error
	opened []int
}

func (d *fakeDialer) Open(baud int) (Link, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, baud)
	if err := d.fail[baud]; err != nil {
		return nil, err
	}
	if l, ok := d.links[baud]; ok {
		return l, nil
	}
	l := &fakeLink{}
	if d.links == nil {
		d.links = map[int]*fakeLink{}
	}
	d.links[baud] = l
	return l, nil
}

func quietLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func TestProber_AcceptsFirstTalkingRate(t *testing.T) {
	d := &fakeDialer{links: map[int]*fakeLink{
		// stale sentences from before the rate change must not count
		4800: {stale: []string{"$GPGGA,123519,4807.038,N\r\n$GPGGA,123519,4807.038,N\r\n"}},
		9600: {chunks: []string{
			"$GPGSV,3,1,12,01,05,001,80*7F\r\n",
			"junk$GPRMC,123519,A,4807.038,N\r\n",
		}},
		38400: {chunks: []string{"$GPGGA,1,2,3,4\r\n$GPGGA,1,2,3,4\r\n"}},
	}}
	p := &Prober{Dialer: d, Window: 50 * time.Millisecond, PollInterval: time.Millisecond, Log: quietLog()}

	got, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Rate: 9600, AutoDetected: true}, got)
	assert.Equal(t, []int{4800, 9600}, d.opened)
	assert.True(t, d.links[4800].closed)
	assert.True(t, d.links[9600].closed)
}

func TestProber_FallbackWhenSilent(t *testing.T) {
	d := &fakeDialer{}
	window := 20 * time.Millisecond
	p := &Prober{Dialer: d, Window: window, PollInterval: time.Millisecond, Log: quietLog()}

	start := time.Now()
	got, err := p.Probe(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, Outcome{Rate: 115200, AutoDetected: false}, got)
	assert.Equal(t, DefaultBaudRates, d.opened)
	assert.GreaterOrEqual(t, elapsed, time.Duration(len(DefaultBaudRates))*window)
	assert.Less(t, elapsed, time.Duration(len(DefaultBaudRates))*window+time.Second)
	for _, l := range d.links {
		assert.True(t, l.closed)
	}
}

func TestProber_SentenceQualification(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   bool
	}{
		{
			name:   "two gps sentences",
			chunks: []string{"$GPGGA,1,2,3\n", "$GPVTG,1,2,3\n"},
			want:   true,
		},
		{
			name:   "too short",
			chunks: []string{"$GPGGA,1\n", "$GPGGA,1\n", "$GPGGA,1\n"},
			want:   false,
		},
		{
			name:   "other talker",
			chunks: []string{"$GNGGA,1,2,3\n", "$GLGSV,1,2,3\n"},
			want:   false,
		},
		{
			name:   "only one",
			chunks: []string{"$GPGGA,1,2,3\n", "$GPGGA,1,2"},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDialer{links: map[int]*fakeLink{4800: {chunks: tt.chunks}}}
			p := &Prober{
				Dialer:       d,
				Candidates:   []int{4800, 9600},
				Window:       20 * time.Millisecond,
				PollInterval: time.Millisecond,
				Log:          quietLog(),
			}
			got, err := p.Probe(context.Background())
			require.NoError(t, err)
			if tt.want {
				assert.Equal(t, Outcome{Rate: 4800, AutoDetected: true}, got)
			} else {
				assert.Equal(t, Outcome{Rate: 9600, AutoDetected: false}, got)
			}
		})
	}
}

func TestProber_OpenFailureSkipsCandidate(t *testing.T) {
	d := &fakeDialer{
		fail: map[int]error{4800: errors.New("no such device")},
		links: map[int]*fakeLink{
			9600: {chunks: []string{"$GPGGA,1,2,3\r\n$GPGGA,1,2,3\r\n"}},
		},
	}
	p := &Prober{Dialer: d, Window: 20 * time.Millisecond, PollInterval: time.Millisecond, Log: quietLog()}

	got, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Rate: 9600, AutoDetected: true}, got)
}

func TestProber_CanceledContext(t *testing.T) {
	d := &fakeDialer{}
	p := &Prober{Dialer: d, Window: time.Second, Log: quietLog()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := p.Probe(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Outcome{Rate: 115200, AutoDetected: false}, got)
	assert.Empty(t, d.opened)
}

func TestProber_CancelDuringWindow(t *testing.T) {
	d := &fakeDialer{}
	p := &Prober{Dialer: d, Window: time.Minute, PollInterval: time.Millisecond, Log: quietLog()}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	got, err := p.Probe(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, got.AutoDetected)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, []int{4800}, d.opened)
}

func TestProber_LogsOutcome(t *testing.T) {
	l, hook := test.NewNullLogger()
	d := &fakeDialer{}
	p := &Prober{Dialer: d, Candidates: []int{4800}, Window: 5 * time.Millisecond, PollInterval: time.Millisecond, Log: logrus.NewEntry(l)}

	_, err := p.Probe(context.Background())
	require.NoError(t, err)
	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, 4800, last.Data["baud"])
}
