package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/samiam2013/skywatch/common/gps"
	"github.com/stretchr/testify/assert"
)

func Test_writeCSV(t *testing.T) {
	var buf bytes.Buffer
	now := time.UnixMicro(1_700_000_000_000_000)
	writeCSV(&buf, now, gps.View{Satellites: []gps.Satellite{
		{ID: 1, Elevation: 5, Azimuth: 1, SNR: 80, Valid: true},
		{ID: 2, Elevation: 40, Azimuth: 270, SNR: 85, Valid: true},
	}})
	assert.Equal(t,
		"1700000000000000,0,1,5,1,80,N\n"+
			"1700000000000000,1,2,40,270,85,W\n",
		buf.String())
}
