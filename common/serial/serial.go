// Package serial opens the receiver's UART through github.com/tarm/serial.
package serial

import (
	"fmt"
	"time"

	"github.com/samiam2013/skywatch/common/gps"
	tarm "github.com/tarm/serial"
)

// DefaultReadTimeout keeps reads short so draining the port never stalls
// the control loop for long.
const DefaultReadTimeout = 50 * time.Millisecond

// Dialer opens one device at whatever baud rate the prober asks for.
type Dialer struct {
	Device      string
	ReadTimeout time.Duration
}

// Config builds the tarm/serial config for baud, 8N1.
func (d Dialer) Config(baud int) *tarm.Config {
	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &tarm.Config{
		Name:        d.Device,
		Baud:        baud,
		ReadTimeout: timeout,
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	}
}

// Open returns the port as a gps.Link; *tarm.Port already has Flush.
func (d Dialer) Open(baud int) (gps.Link, error) {
	port, err := d.OpenPort(baud)
	if err != nil {
		return nil, err
	}
	return port, nil
}

func (d Dialer) OpenPort(baud int) (*tarm.Port, error) {
	port, err := tarm.OpenPort(d.Config(baud))
	if err != nil {
		return nil, fmt.Errorf("open %s at %d baud: %w", d.Device, baud, err)
	}
	return port, nil
}

var _ gps.Dialer = Dialer{}
