package main

// logger prints every new satellite snapshot as CSV lines:
// unix_micro,slot,id,elevation,azimuth,snr,direction

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/samiam2013/skywatch/common/gps"
	"github.com/samiam2013/skywatch/common/serial"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	device := pflag.StringP("device", "d", "/dev/ttyACM0", "Serial device of the GPS receiver")
	baud := pflag.IntP("baud", "b", 0, "Baud rate; 0 probes for it")
	pflag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dialer := serial.Dialer{Device: *device}
	rate := *baud
	if rate == 0 {
		outcome, err := (&gps.Prober{Dialer: dialer}).Probe(ctx)
		if err != nil {
			return
		}
		rate = outcome.Rate
	}
	port, err := dialer.OpenPort(rate)
	if err != nil {
		logrus.WithError(err).Fatal("Could not open serial port")
	}
	defer port.Close()

	tracker := gps.NewTracker()
	fmt.Println("unix_micro,slot,id,elevation,azimuth,snr,direction")
	var last uint64
	for ctx.Err() == nil {
		if err := tracker.Poll(port); err != nil {
			logrus.WithError(err).Fatal("Error reading serial port")
		}
		v := tracker.View()
		if v.Sentences != last {
			last = v.Sentences
			writeCSV(os.Stdout, time.Now(), v)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func writeCSV(w io.Writer, now time.Time, v gps.View) {
	for i, s := range v.Satellites {
		fmt.Fprintf(w, "%d,%d,%d,%d,%d,%d,%s\n",
			now.UnixMicro(), i, s.ID, s.Elevation, s.Azimuth, s.SNR, gps.Direction(float64(s.Azimuth)))
	}
}
