package main

import (
	"context"
	"time"
)

// telemetryCheckInterval is how often the MQTT and InfluxDB feeds are probed.
const telemetryCheckInterval = time.Minute

// healthChecker is satisfied by *mqtt.Client and *influxdb.Client.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type healthLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// monitorTelemetry probes each feed every interval until ctx is done,
// logging a warning when a feed goes down and an info line when it comes
// back. Feeds start out assumed healthy since Connect just succeeded.
func monitorTelemetry(ctx context.Context, interval time.Duration, checks map[string]healthChecker, log healthLogger) error {
	healthy := make(map[string]bool, len(checks))
	for name := range checks {
		healthy[name] = true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for name, c := range checks {
			err := c.HealthCheck(ctx)
			if ctx.Err() != nil {
				return nil
			}
			switch {
			case err != nil && healthy[name]:
				log.Warn("telemetry feed unhealthy", "feed", name, "error", err)
			case err == nil && !healthy[name]:
				log.Info("telemetry feed recovered", "feed", name)
			}
			healthy[name] = err == nil
		}
	}
}
