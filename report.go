package main

import (
	"github.com/samiam2013/skywatch/common/gps"
	"github.com/sirupsen/logrus"
)

// signalClass buckets an SNR the way the console report labels it.
func signalClass(snr int) string {
	switch {
	case snr > 80:
		return "strong"
	case snr > 60:
		return "medium"
	default:
		return "weak"
	}
}

func report(log logrus.FieldLogger, v gps.View) {
	fields := logrus.Fields{"satellites": v.Count, "sentences": v.Sentences}
	if !v.Fix.Valid {
		log.WithFields(fields).Info("Waiting for GPS lock")
		return
	}
	fields["lat"] = v.Fix.Lat
	fields["lng"] = v.Fix.Long
	fields["alt_m"] = v.Fix.AltMeters
	fields["speed_kph"] = v.Fix.SpeedKPH
	fields["course"] = v.Fix.Course
	log.WithFields(fields).Info("GPS status")
	for _, s := range v.Satellites {
		log.WithFields(logrus.Fields{
			"id":        s.ID,
			"direction": gps.Direction(float64(s.Azimuth)),
			"elevation": s.Elevation,
			"snr":       s.SNR,
			"signal":    signalClass(s.SNR),
		}).Info("Satellite")
	}
}
