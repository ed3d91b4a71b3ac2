// Package parser turns the sensor server's JSON reply into a models.Reading.
//
// The accepted wire format is
//
//	{ "lastUpdated": "1446369000",
//	  "data": [ {"name": "temp", "value": "21.5"},
//	            {"name": "humidity", "value": "45"} ] }
//
// or, when the server cannot serve the sensor, { "error": "<message>" }.
// Parse never fails: every problem becomes a failed Reading.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/weatherwidget/internal/models"
)

const (
	fieldTemperature = "temp"
	fieldHumidity    = "humidity"
)

// FieldPolicy decides what happens to data entries with an unknown name.
type FieldPolicy int

const (
	// IgnoreUnknownFields skips unknown entries and keeps the reading.
	IgnoreUnknownFields FieldPolicy = iota
	// StrictFields fails the whole reading on the first unknown entry.
	StrictFields
)

var (
	errMissingField = errors.New("missing field")
	errUnknownField = errors.New("unexpected sensor field")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Parser struct {
	policy FieldPolicy
	logger *logrus.Logger
}

func New(policy FieldPolicy, logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Parser{policy: policy, logger: logger}
}

type sensorField struct {
	Name  *string `json:"name"`
	Value *string `json:"value"`
}

// Parse decodes a sensor reply.
func (p *Parser) Parse(body []byte) models.Reading {
	body = bytes.TrimPrefix(body, utf8BOM)
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.Failed(models.KindEmptyResponse, models.MsgEmptyResponse)
	}

	if !utf8.Valid(body) {
		return models.Failed(models.KindDecode, models.MsgDecode)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		p.logger.WithError(err).Debug("sensor reply is not a JSON object")
		return malformed()
	}
	rawData, ok := obj["data"]
	if !ok {
		return p.serverError(obj)
	}

	reading, err := p.parseData(obj["lastUpdated"], rawData)
	if errors.Is(err, errUnknownField) {
		return models.Failed(models.KindUnexpectedField, models.MsgUnexpectedField)
	}
	if err != nil {
		p.logger.WithError(err).Debug("could not parse sensor data")
		return malformed()
	}
	return reading
}

// serverError handles replies without a data node: the sensor is missing or
// invalid and the server explains why in "error".
func (p *Parser) serverError(obj map[string]json.RawMessage) models.Reading {
	var msg string
	if raw, ok := obj["error"]; ok {
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = ""
		}
	}
	if msg == "" {
		return models.Failed(models.KindServerReported, models.MsgUnknownServer)
	}
	p.logger.WithField("error", msg).Debug("sensor server reported an error")
	return models.Failed(models.KindServerReported, msg)
}

func (p *Parser) parseData(rawLastUpdated, rawData json.RawMessage) (models.Reading, error) {
	if rawLastUpdated == nil {
		return models.Reading{}, fmt.Errorf("lastUpdated: %w", errMissingField)
	}
	var lastUpdatedStr string
	if err := json.Unmarshal(rawLastUpdated, &lastUpdatedStr); err != nil {
		return models.Reading{}, fmt.Errorf("lastUpdated: %w", err)
	}
	lastUpdated, err := strconv.ParseInt(lastUpdatedStr, 10, 64)
	if err != nil {
		return models.Reading{}, fmt.Errorf("lastUpdated: %w", err)
	}

	var fields []sensorField
	if err := json.Unmarshal(rawData, &fields); err != nil {
		return models.Reading{}, fmt.Errorf("data: %w", err)
	}

	var (
		temperature     float64
		humidity        int
		haveTemperature bool
		haveHumidity    bool
	)
	for i, f := range fields {
		if f.Name == nil || f.Value == nil {
			return models.Reading{}, fmt.Errorf("data[%d]: %w", i, errMissingField)
		}
		switch *f.Name {
		case fieldTemperature:
			temperature, err = strconv.ParseFloat(*f.Value, 64)
			if err != nil {
				return models.Reading{}, fmt.Errorf("data[%d] temp: %w", i, err)
			}
			haveTemperature = true
		case fieldHumidity:
			humidity, err = strconv.Atoi(*f.Value)
			if err != nil {
				return models.Reading{}, fmt.Errorf("data[%d] humidity: %w", i, err)
			}
			haveHumidity = true
		default:
			if p.policy == StrictFields {
				return models.Reading{}, fmt.Errorf("data[%d] %q: %w", i, *f.Name, errUnknownField)
			}
			p.logger.WithField("name", *f.Name).Debug("ignoring unknown sensor field")
		}
	}

	if !haveTemperature {
		return models.Reading{}, fmt.Errorf("temp: %w", errMissingField)
	}
	if !haveHumidity {
		return models.Reading{}, fmt.Errorf("humidity: %w", errMissingField)
	}

	return models.NewReading(humidity, temperature, lastUpdated), nil
}

func malformed() models.Reading {
	return models.Failed(models.KindMalformedJSON, models.MsgMalformedJSON)
}
