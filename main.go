package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samiam2013/skywatch/common/config"
	"github.com/samiam2013/skywatch/common/gps"
	"github.com/samiam2013/skywatch/common/metrics"
	"github.com/samiam2013/skywatch/common/serial"
	"github.com/samiam2013/skywatch/common/status"
	"github.com/samiam2013/skywatch/common/upload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"periph.io/x/host/v3"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "Path to YAML config")
		device     = pflag.StringP("device", "d", "", "Serial device of the GPS receiver (overrides config)")
		logLevel   = pflag.String("log-level", "", "Log level (overrides config)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Could not load config")
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logrus.WithError(err).Fatal("Bad log level")
	}
	logrus.SetLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logrus.Info("skywatch starting")

	led := openStatus(cfg.Status)
	if led != nil {
		_ = led.Searching()
	}

	var collector *metrics.Collector
	if cfg.Metrics.Bind != "" {
		reg := prometheus.NewRegistry()
		collector, err = metrics.New(reg)
		if err != nil {
			logrus.WithError(err).Fatal("Could not register metrics")
		}
		go serveMetrics(ctx, cfg.Metrics.Bind, collector.Handler())
	}

	dialer := serial.Dialer{Device: cfg.Serial.Device, ReadTimeout: cfg.Serial.ReadTimeout}
	prober := &gps.Prober{
		Dialer:       dialer,
		Candidates:   cfg.Serial.BaudCandidates,
		Window:       cfg.Serial.ProbeWindow,
		PollInterval: cfg.Serial.PollInterval,
		Log:          logrus.WithField("device", cfg.Serial.Device),
	}
	outcome, err := prober.Probe(ctx)
	if err != nil {
		logrus.WithError(err).Info("Stopped before the GPS baud rate was known")
		return
	}
	if outcome.AutoDetected {
		logrus.WithField("baud", outcome.Rate).Info("GPS initialized at detected baud rate")
	} else {
		logrus.WithField("baud", outcome.Rate).Warn("GPS baud rate detection failed, initialized at default baud rate")
	}
	if collector != nil {
		collector.SetProbeOutcome(outcome)
	}

	port, err := dialer.OpenPort(outcome.Rate)
	if err != nil {
		logrus.WithError(err).Fatal("Could not open serial port")
	}
	defer port.Close()

	if led != nil {
		_ = led.LinkUp(ctx)
	}

	opts := []gps.TrackerOption{gps.WithParser(gps.NewParser(gps.WithPrefix(cfg.GSVPrefix())))}
	if collector != nil {
		opts = append(opts, gps.WithObserver(collector))
	}
	tracker := gps.NewTracker(opts...)

	linkErr := make(chan error, 1)
	go func() {
		linkErr <- tracker.Run(ctx, port, cfg.Serial.PollInterval)
	}()

	var uploader *upload.Uploader
	var uploadC <-chan time.Time
	if cfg.Upload.URL != "" {
		uploader, err = upload.New(cfg.Upload.URL, cfg.Upload.Timeout, cfg.Upload.MaxSatellites)
		if err != nil {
			logrus.WithError(err).Fatal("Could not set up uploader")
		}
		t := time.NewTicker(cfg.Upload.Interval)
		defer t.Stop()
		uploadC = t.C
	}
	reportT := time.NewTicker(cfg.Report.Interval)
	defer reportT.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("skywatch stopping")
			return
		case err := <-linkErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Fatal("Error reading serial port")
			}
			return
		case <-reportT.C:
			report(logrus.StandardLogger(), tracker.View())
		case <-uploadC:
			v := tracker.View()
			if !v.Fix.Valid {
				if led != nil {
					_ = led.Searching()
				}
				continue
			}
			code, err := uploader.Send(ctx, v)
			if collector != nil {
				collector.UploadDone(err)
			}
			if err != nil {
				logrus.WithError(err).Warn("Upload failed")
				if led != nil {
					_ = led.Failed(ctx)
				}
				continue
			}
			logrus.WithField("code", code).Debug("Server response")
			if led != nil {
				_ = led.Sent(ctx)
			}
		}
	}
}

func openStatus(cfg config.StatusConfig) *status.Indicator {
	if !cfg.Enable {
		return nil
	}
	if _, err := host.Init(); err != nil {
		logrus.WithError(err).Error("Failed to host.Init() for periphio, status LED disabled")
		return nil
	}
	led, err := status.Open(cfg.RedPin, cfg.GreenPin, cfg.BluePin)
	if err != nil {
		logrus.WithError(err).Error("Status LED disabled")
		return nil
	}
	return led
}

func serveMetrics(ctx context.Context, bind string, h http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: bind, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	logrus.WithField("bind", bind).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Error("Metrics server stopped")
	}
}
