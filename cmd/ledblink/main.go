package main

// ledblink cycles the status LED through every pattern the tracker uses,
// to check the wiring.

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/samiam2013/skywatch/common/status"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"periph.io/x/host/v3"
)

func main() {
	red := pflag.String("red", "GPIO5", "GPIO name of the red channel")
	green := pflag.String("green", "GPIO6", "GPIO name of the green channel")
	blue := pflag.String("blue", "GPIO4", "GPIO name of the blue channel")
	pflag.Parse()

	if _, err := host.Init(); err != nil {
		logrus.WithError(err).Fatal("Failed to host.Init() for periphio")
	}
	led, err := status.Open(*red, *green, *blue)
	if err != nil {
		logrus.WithError(err).Fatal("Could not open status LED")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	defer func() {
		_ = led.Set(status.Off)
	}()

	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		if err := cycle(ctx, led); err != nil {
			if ctx.Err() == nil {
				logrus.WithError(err).Error("Could not write to pin")
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

type patterns interface {
	Searching() error
	LinkUp(ctx context.Context) error
	Sent(ctx context.Context) error
	Failed(ctx context.Context) error
}

func cycle(ctx context.Context, p patterns) error {
	logrus.Info("searching")
	if err := p.Searching(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
	}
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"link up", p.LinkUp},
		{"sent", p.Sent},
		{"failed", p.Failed},
	}
	for _, s := range steps {
		logrus.Info(s.name)
		if err := s.run(ctx); err != nil {
			return err
		}
	}
	return nil
}
