package gps

import (
	"time"

	"github.com/adrianmo/go-nmea"
)

// Fix is the receiver's latest position solution.
type Fix struct {
	Lat       float64   `json:"lat"`
	Long      float64   `json:"lng"`
	AltMeters float64   `json:"alt_m"`
	SpeedKPH  float64   `json:"speed_kph"`
	Course    float64   `json:"course"`
	NumSats   int64     `json:"sats"`
	TimeStr   string    `json:"time,omitempty"`
	Valid     bool      `json:"valid"`
	Updated   time.Time `json:"-"`
}

// FixTracker folds RMC, GGA and GLL sentences into a Fix.
type FixTracker struct {
	fix Fix
	now func() time.Time
}

func NewFixTracker() *FixTracker {
	return &FixTracker{now: time.Now}
}

func (f *FixTracker) Fix() Fix { return f.fix }

// Feed applies one sentence and reports whether the fix changed. Sentences
// go-nmea cannot parse, including ones with a bad checksum, are skipped.
func (f *FixTracker) Feed(sentence string) bool {
	if len(sentence) == 0 || sentence[0] != '$' {
		return false
	}
	s, err := nmea.Parse(sentence)
	if err != nil {
		return false
	}
	switch s.DataType() {
	case nmea.TypeRMC:
		m := s.(nmea.RMC)
		f.fix.Valid = m.Validity == nmea.ValidRMC
		if f.fix.Valid {
			f.fix.Lat = m.Latitude
			f.fix.Long = m.Longitude
			f.fix.SpeedKPH = m.Speed * 1.852 // knots
			f.fix.Course = m.Course
			f.fix.TimeStr = m.Time.String()
		}
	case nmea.TypeGGA:
		m := s.(nmea.GGA)
		f.fix.NumSats = m.NumSatellites
		if m.FixQuality != nmea.Invalid {
			f.fix.Lat = m.Latitude
			f.fix.Long = m.Longitude
			f.fix.AltMeters = m.Altitude
		}
	case nmea.TypeGLL:
		m := s.(nmea.GLL)
		f.fix.Valid = m.Validity == nmea.ValidGLL
		if f.fix.Valid {
			f.fix.Lat = m.Latitude
			f.fix.Long = m.Longitude
			f.fix.TimeStr = m.Time.String()
		}
	default:
		return false
	}
	f.fix.Updated = f.now()
	return true
}
