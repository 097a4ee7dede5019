// Package upload reports fixes to the collector over HTTP GET.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samiam2013/skywatch/common/gps"
	"github.com/sirupsen/logrus"
)

// ErrNoFix is returned by Send when the view has no valid position.
var ErrNoFix = errors.New("upload: no valid fix")

type Uploader struct {
	endpoint      string
	client        *http.Client
	maxSatellites int
	log           *logrus.Entry
}

// New returns an uploader for endpoint. maxSatellites caps sat_data to
// keep the URL short; zero leaves sat_data out.
func New(endpoint string, timeout time.Duration, maxSatellites int) (*Uploader, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("upload: bad url %q: %w", endpoint, err)
	}
	return &Uploader{
		endpoint:      endpoint,
		client:        &http.Client{Timeout: timeout},
		maxSatellites: maxSatellites,
		log:           logrus.WithField("component", "upload"),
	}, nil
}

// URL builds the request URL for v:
// ?lat=..&lng=..&sats=..&sat_data=id,el,az,snr|id,el,az,snr
func (u *Uploader) URL(v gps.View) (string, error) {
	base, err := url.Parse(u.endpoint)
	if err != nil {
		return "", err
	}
	q := base.Query()
	q.Set("lat", strconv.FormatFloat(v.Fix.Lat, 'f', 6, 64))
	q.Set("lng", strconv.FormatFloat(v.Fix.Long, 'f', 6, 64))
	q.Set("sats", strconv.FormatInt(v.Fix.NumSats, 10))
	if data := satData(v.Satellites, u.maxSatellites); data != "" {
		q.Set("sat_data", data)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Send uploads v and returns the HTTP status code.
func (u *Uploader) Send(ctx context.Context, v gps.View) (int, error) {
	if !v.Fix.Valid {
		return 0, ErrNoFix
	}
	target, err := u.URL(v)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	u.log.WithField("url", target).Debug("Sending GET")
	resp, err := u.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("upload: server returned %s", resp.Status)
	}
	return resp.StatusCode, nil
}

func satData(sats []gps.Satellite, limit int) string {
	if limit <= 0 || len(sats) == 0 {
		return ""
	}
	if len(sats) > limit {
		sats = sats[:limit]
	}
	parts := make([]string, 0, len(sats))
	for _, s := range sats {
		parts = append(parts, fmt.Sprintf("%d,%d,%d,%d", s.ID, s.Elevation, s.Azimuth, s.SNR))
	}
	return strings.Join(parts, "|")
}
