package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sidingsmedia/alarm/internal/alarm"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends payload to topic.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// eventPayload is the JSON body published on the event topic.
type eventPayload struct {
	EventID   string `json:"event_id"`
	DeviceID  string `json:"device_id"`
	State     string `json:"state"`
	Alerting  bool   `json:"alerting"`
	Timestamp string `json:"timestamp"`
}

// Record publishes ev on the device event topic. It satisfies alarm.EventSink.
func (c *Client) Record(_ context.Context, ev alarm.Received) error {
	payload, err := json.Marshal(eventPayload{
		EventID:   ev.ID.String(),
		DeviceID:  c.topics.DeviceID,
		State:     ev.State,
		Alerting:  ev.Alerting,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("%w: encoding event: %w", ErrPublishFailed, err)
	}
	return c.Publish(c.topics.Event(), payload, byte(c.cfg.QoS), false)
}
