package models

// ErrorKind classifies why a fetch/parse cycle failed.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTimeout
	KindNetwork
	KindResponseTooLarge
	KindDecode
	KindMalformedJSON
	KindServerReported
	KindUnexpectedField
	KindEmptyResponse
)

// User-facing messages for failures that do not carry a server supplied text.
const (
	MsgTimeout         = "Could not contact server. Socket timeout"
	MsgNetwork         = "Unable to retrieve sensor data. URL may be invalid."
	MsgDecode          = "could not decode response"
	MsgMalformedJSON   = "could not parse the sensor reply (json)"
	MsgUnknownServer   = "the sensor server reported an unknown error"
	MsgUnexpectedField = "unexpected sensor field"
	MsgEmptyResponse   = "No response from the sensor server"
)

var kindNames = map[ErrorKind]string{
	KindNone:             "none",
	KindTimeout:          "timeout",
	KindNetwork:          "network",
	KindResponseTooLarge: "response_too_large",
	KindDecode:           "decode",
	KindMalformedJSON:    "malformed_json",
	KindServerReported:   "server_reported",
	KindUnexpectedField:  "unexpected_field",
	KindEmptyResponse:    "empty_response",
}

// String returns a stable label suitable for logs and metrics.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}
