// Package mqtt publishes alarm notifications to an MQTT broker.
//
// The client is optional (mqtt.enabled). When connected it keeps a
// retained online/offline status for the device, backed by a Last Will so
// a crash is visible to subscribers, and publishes one message per
// decoded notification.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Device.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	d := alarm.NewDispatcher(bz, alarm.WithSink(client))
package mqtt
