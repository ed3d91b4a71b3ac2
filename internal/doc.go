// Package weatherwidget keeps display targets up to date with the readings of
// a remote temperature/humidity sensor.
//
// # Architecture
//
// The service is structured into several key packages:
//   - models: the Reading value and its failure taxonomy
//   - parser: sensor reply JSON to Reading
//   - api: bounded HTTP fetcher and the fetch/parse pipeline
//   - scheduler: refresh cycles and the periodic cron schedule
//   - display: per-target views of the latest reading
//   - grpc: health service reporting the sensor state
//   - httpapi: views, manual refresh and metrics over HTTP
//   - config, metrics: ambient wiring
//
// Key Features
//
//   - Failure tolerance:
//     Every fetch produces a Reading. Timeouts, network errors, oversized or
//     malformed replies and server reported errors become failed readings
//     with a message shown in place of the values.
//
//   - Bounded requests:
//     15s connect timeout, 10s read timeout and a byte ceiling on the reply.
//
//   - Non-blocking refresh:
//     Triggers mark targets as loading and return; the fetch runs in its own
//     goroutine and renders when it completes.
//
// Example Usage
//
//	reader := api.NewSensorReader(
//	    api.NewSensorFetcher(api.DefaultFetcherConfig(), logger),
//	    parser.New(parser.IgnoreUnknownFields, logger),
//	    nil, logger,
//	)
//	reading := reader.Read(ctx, "http://sensor.example:666/json/sensor/info?id=135")
//	if !reading.Valid() {
//	    fmt.Println(reading.ErrorMessage())
//	}
//
// For more information about specific packages, see their respective
// documentation.
package weatherwidget
