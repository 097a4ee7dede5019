package gps

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	gsv, fix, other int
	inView          int
}

func (o *countingObserver) SentenceSeen(gsv, fix bool) {
	switch {
	case gsv:
		o.gsv++
	case fix:
		o.fix++
	default:
		o.other++
	}
}

func (o *countingObserver) SatellitesInView(n int) { o.inView = n }

func TestTracker_Poll(t *testing.T) {
	obs := &countingObserver{}
	tr := NewTracker(WithObserver(obs), WithLogger(quietLog()))
	assert.Equal(t, View{Satellites: []Satellite{}}, tr.View())

	stream := strings.Join([]string{
		gsvSample,
		nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"),
		"$GPTXT,01,01,02,ANTSTATUS=OK*3B",
		"",
	}, "\r\n")
	require.NoError(t, tr.Poll(strings.NewReader(stream)))

	v := tr.View()
	assert.Equal(t, 4, v.Count)
	assert.Len(t, v.Satellites, 4)
	assert.True(t, v.Fix.Valid)
	assert.InDelta(t, 48.1173, v.Fix.Lat, 1e-6)
	assert.Equal(t, uint64(3), v.Sentences)

	assert.Equal(t, 1, obs.gsv)
	assert.Equal(t, 1, obs.fix)
	assert.Equal(t, 1, obs.other)
	assert.Equal(t, 4, obs.inView)
}

func TestTracker_ViewIsStableCopy(t *testing.T) {
	tr := NewTracker(WithLogger(quietLog()))
	require.NoError(t, tr.Poll(strings.NewReader(gsvSample+"\r\n")))
	v := tr.View()

	require.NoError(t, tr.Poll(strings.NewReader("$GPGSV,1,1,01,09,09,009,09\r\n")))
	assert.Equal(t, 1, v.Satellites[0].ID)
	assert.Equal(t, 4, v.Count)
	assert.Equal(t, 9, tr.View().Satellites[0].ID)
}

// lockedReader feeds one line per Read until exhausted, then fails.
type lockedReader struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (r *lockedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return 0, r.err
	}
	n := copy(p, r.lines[0])
	r.lines = r.lines[1:]
	return n, nil
}

func TestTracker_RunStopsOnLinkError(t *testing.T) {
	boom := errors.New("unplugged")
	r := &lockedReader{lines: []string{gsvSample + "\r\n"}, err: boom}
	tr := NewTracker(WithLogger(quietLog()))

	err := tr.Run(context.Background(), r, time.Millisecond)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, tr.View().Count)
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	tr := NewTracker(WithLogger(quietLog()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- tr.Run(ctx, strings.NewReader(""), time.Millisecond)
	}()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTracker_WithParserPrefix(t *testing.T) {
	tr := NewTracker(WithParser(NewParser(WithPrefix("$GNGSV"))), WithLogger(quietLog()))
	require.NoError(t, tr.Poll(strings.NewReader(gsvSample+"\r\n$GNGSV,1,1,01,65,10,100,30\r\n")))
	assert.Equal(t, []Satellite{{ID: 65, Elevation: 10, Azimuth: 100, SNR: 30, Valid: true}}, tr.View().Satellites)
}
