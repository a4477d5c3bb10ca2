// Package influxdb records alarm telemetry in InfluxDB v2.
//
// Three measurements are written, all tagged with device_id:
//
//	alarm_events    one point per decoded notification (alerting tag)
//	alarm_requests  one point per connection (status tag, duration_ms)
//	alarm_buzzer    one point per sounded pattern (reason tag)
//
// Writes go through the client's non-blocking batched write API and so
// never delay the response to a notification.
package influxdb
