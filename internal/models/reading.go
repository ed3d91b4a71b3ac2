package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// lastUpdatedLayout renders as e.g. "Thu, 1 Jan 00:00".
const lastUpdatedLayout = "Mon, 2 Jan 15:04"

// Reading is the result of one fetch/parse cycle: either valid sensor values
// or a classified failure. The zero value is a valid reading of 0℃, 0% that was
// never updated.
type Reading struct {
	temperature float64
	humidity    int
	lastUpdated int64
	failure     *Failure
}

// Failure describes why a Reading could not be produced.
type Failure struct {
	Kind    ErrorKind
	Message string
}

// NewReading creates a valid reading.
func NewReading(humidity int, temperature float64, lastUpdated int64) Reading {
	return Reading{
		temperature: temperature,
		humidity:    humidity,
		lastUpdated: lastUpdated,
	}
}

// Failed creates a failed reading carrying a user-facing message.
func Failed(kind ErrorKind, message string) Reading {
	return Reading{failure: &Failure{Kind: kind, Message: message}}
}

// Temperature in degrees Celsius. Meaningless when the reading failed.
func (r Reading) Temperature() float64 {
	return r.temperature
}

// Humidity in percent. Meaningless when the reading failed.
func (r Reading) Humidity() int {
	return r.humidity
}

// LastUpdated returns the server supplied timestamp in unix seconds.
func (r Reading) LastUpdated() int64 {
	return r.lastUpdated
}

func (r Reading) Valid() bool {
	return r.failure == nil
}

// Kind returns KindNone for valid readings.
func (r Reading) Kind() ErrorKind {
	if r.failure == nil {
		return KindNone
	}
	return r.failure.Kind
}

// ErrorMessage returns the failure message, or "" for a valid reading.
func (r Reading) ErrorMessage() string {
	if r.failure == nil {
		return ""
	}
	return r.failure.Message
}

// LastUpdatedString formats the timestamp in local time.
func (r Reading) LastUpdatedString() string {
	return r.FormatLastUpdated(time.Local)
}

// FormatLastUpdated formats the timestamp in the given location.
func (r Reading) FormatLastUpdated(loc *time.Location) string {
	return time.Unix(r.lastUpdated, 0).In(loc).Format(lastUpdatedLayout)
}

// FormatTemperature renders a temperature the way the widget always has: with
// at least one decimal, so 21 becomes "21.0".
func FormatTemperature(t float64) string {
	s := strconv.FormatFloat(t, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func (r Reading) String() string {
	if r.failure != nil {
		return fmt.Sprintf("error(%s): %s", r.failure.Kind, r.failure.Message)
	}
	return fmt.Sprintf("%s:%d timestamp:%s",
		FormatTemperature(r.temperature),
		r.humidity,
		r.LastUpdatedString())
}
