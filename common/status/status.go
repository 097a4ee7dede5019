// Package status drives the tracker's RGB status LED over GPIO.
//
// Solid red while searching for a fix, three blue flashes once the link is
// up, one purple flash per upload and two yellow blinks on upload errors.
package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Pin is the part of gpio.PinOut the indicator needs.
type Pin interface {
	Out(l gpio.Level) error
}

type Color struct {
	R, G, B gpio.Level
}

var (
	Off    = Color{}
	Red    = Color{R: gpio.High}
	Blue   = Color{B: gpio.High}
	Purple = Color{R: gpio.High, B: gpio.High}
	Yellow = Color{R: gpio.High, G: gpio.High}
)

// Indicator is safe for use from several goroutines; blinks serialize.
type Indicator struct {
	mu      sync.Mutex
	r, g, b Pin
	log     *logrus.Entry
	sleep   func(ctx context.Context, d time.Duration) error
}

func New(r, g, b Pin) *Indicator {
	return &Indicator{
		r:     r,
		g:     g,
		b:     b,
		log:   logrus.WithField("component", "status"),
		sleep: sleepCtx,
	}
}

// Open looks the three pins up by name. periph's host.Init must have run.
func Open(red, green, blue string) (*Indicator, error) {
	pins := make([]Pin, 0, 3)
	for _, name := range []string{red, green, blue} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio pin %q not found", name)
		}
		pins = append(pins, p)
	}
	return New(pins[0], pins[1], pins[2]), nil
}

// Set shows c until the next call.
func (i *Indicator) Set(c Color) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.setLocked(c)
}

// Blink flashes c times times, each on and off phase lasting d, and leaves
// the LED off.
func (i *Indicator) Blink(ctx context.Context, c Color, times int, d time.Duration) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for n := 0; n < times; n++ {
		if err := i.setLocked(c); err != nil {
			return err
		}
		if err := i.sleep(ctx, d); err != nil {
			_ = i.setLocked(Off)
			return err
		}
		if err := i.setLocked(Off); err != nil {
			return err
		}
		if err := i.sleep(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (i *Indicator) Searching() error { return i.Set(Red) }

func (i *Indicator) LinkUp(ctx context.Context) error {
	return i.Blink(ctx, Blue, 3, 150*time.Millisecond)
}

func (i *Indicator) Sent(ctx context.Context) error {
	return i.Blink(ctx, Purple, 1, 200*time.Millisecond)
}

func (i *Indicator) Failed(ctx context.Context) error {
	return i.Blink(ctx, Yellow, 2, 200*time.Millisecond)
}

func (i *Indicator) setLocked(c Color) error {
	for _, p := range []struct {
		pin Pin
		l   gpio.Level
	}{{i.r, c.R}, {i.g, c.G}, {i.b, c.B}} {
		if err := p.pin.Out(p.l); err != nil {
			i.log.WithError(err).Error("Could not write to pin")
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
