package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewReadingRoundTrip(t *testing.T) {
	temp := 21.337
	r := NewReading(45, temp, 1700000000)

	assert.True(t, r.Valid())
	assert.Equal(t, 45, r.Humidity())
	assert.Equal(t, int64(1700000000), r.LastUpdated())
	assert.Equal(t, math.Float64bits(temp), math.Float64bits(r.Temperature()))
	assert.Equal(t, KindNone, r.Kind())
	assert.Empty(t, r.ErrorMessage())
}

func TestFailed(t *testing.T) {
	r := Failed(KindServerReported, "sensor offline")

	assert.False(t, r.Valid())
	assert.Equal(t, KindServerReported, r.Kind())
	assert.Equal(t, "sensor offline", r.ErrorMessage())
	assert.Equal(t, "error(server_reported): sensor offline", r.String())
}

func TestFormatLastUpdated(t *testing.T) {
	epoch := NewReading(0, 0, 0)
	assert.Equal(t, "Thu, 1 Jan 00:00", epoch.FormatLastUpdated(time.UTC))

	stockholm := time.FixedZone("CET", 3600)
	r := NewReading(50, 20.5, 1446369000) // 2015-11-01 09:10:00 UTC
	assert.Equal(t, "Sun, 1 Nov 10:10", r.FormatLastUpdated(stockholm))

	// Same input, same output.
	assert.Equal(t, epoch.LastUpdatedString(), epoch.LastUpdatedString())
	assert.Equal(t, time.Unix(0, 0).In(time.Local).Format(lastUpdatedLayout), epoch.LastUpdatedString())
}

func TestFormatTemperature(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{21, "21.0"},
		{21.5, "21.5"},
		{-3.25, "-3.25"},
		{0, "0.0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTemperature(tt.in))
	}
}

func TestReadingString(t *testing.T) {
	r := NewReading(40, 19, 0)
	assert.Equal(t, "19.0:40 timestamp:"+r.LastUpdatedString(), r.String())
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "malformed_json", KindMalformedJSON.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())
}
