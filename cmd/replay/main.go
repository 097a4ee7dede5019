package main

// a simple command line tool to run a captured NMEA log through the
// tracker offline and print what it would have seen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samiam2013/skywatch/common/gps"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	var (
		filepath string
		talker   string
		asJSON   bool
	)
	pflag.StringVarP(&filepath, "file", "f", "gps.log", "Path to the raw NMEA capture")
	pflag.StringVar(&talker, "talker", "GP", "Talker id of the GSV sentences to decode")
	pflag.BoolVar(&asJSON, "json", false, "Print the final view as JSON")
	pflag.Parse()

	f, err := os.Open(filepath)
	if err != nil {
		logrus.WithError(err).Fatal("Couldn't open file")
	}
	defer f.Close()

	v, err := replay(f, "$"+talker+"GSV")
	if err != nil {
		logrus.WithError(err).Fatal("Couldn't read capture")
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			logrus.WithError(err).Fatal("Couldn't encode view")
		}
		return
	}
	printView(os.Stdout, v)
}

// replay pushes the whole capture through a tracker and returns its final
// view.
func replay(r io.Reader, prefix string) (gps.View, error) {
	tr := gps.NewTracker(gps.WithParser(gps.NewParser(gps.WithPrefix(prefix))))
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if perr := tr.Poll(bytes.NewReader(buf[:n])); perr != nil {
				return tr.View(), perr
			}
		}
		if errors.Is(err, io.EOF) {
			return tr.View(), nil
		}
		if err != nil {
			return tr.View(), err
		}
	}
}

func printView(w io.Writer, v gps.View) {
	fmt.Fprintf(w, "sentences: %d\n", v.Sentences)
	if v.Fix.Valid {
		fmt.Fprintf(w, "fix: %.6f,%.6f alt %.1fm sats %d\n", v.Fix.Lat, v.Fix.Long, v.Fix.AltMeters, v.Fix.NumSats)
	} else {
		fmt.Fprintln(w, "fix: none")
	}
	fmt.Fprintf(w, "satellites in view: %d\n", v.Count)
	for _, s := range v.Satellites {
		fmt.Fprintf(w, "  %3d %-2s el %2d az %3d snr %2d\n", s.ID, gps.Direction(float64(s.Azimuth)), s.Elevation, s.Azimuth, s.SNR)
	}
}
