package influxdb

import (
	"context"
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sidingsmedia/alarm/internal/alarm"
)

// Measurement names.
const (
	MeasurementEvents   = "alarm_events"
	MeasurementRequests = "alarm_requests"
	MeasurementBuzzer   = "alarm_buzzer"
)

// Record writes ev to the alarm_events measurement. It satisfies
// alarm.EventSink and never blocks on the network.
func (c *Client) Record(_ context.Context, ev alarm.Received) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(
		MeasurementEvents,
		map[string]string{
			"device_id": c.deviceID,
			"alerting":  strconv.FormatBool(ev.Alerting),
		},
		map[string]interface{}{
			"event_id": ev.ID.String(),
			"state":    ev.State,
		},
		ev.Timestamp,
	)
	c.writeAPI.WritePoint(point)
	return nil
}

// ObserveRequest writes the outcome of one connection to alarm_requests.
func (c *Client) ObserveRequest(status int, elapsed time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementRequests,
		map[string]string{
			"device_id": c.deviceID,
			"status":    strconv.Itoa(status),
		},
		map[string]interface{}{
			"duration_ms": float64(elapsed) / float64(time.Millisecond),
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteBuzzerActivation records one sounded pattern.
func (c *Client) WriteBuzzerActivation(reason string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementBuzzer,
		map[string]string{
			"device_id": c.deviceID,
			"reason":    reason,
		},
		map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}
