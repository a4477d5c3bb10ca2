package mqtt

// DefaultTopicPrefix is used when the configuration leaves it empty.
const DefaultTopicPrefix = "alarm"

// Topics builds the topics for one alarm device:
//
//	<prefix>/<device>/status  retained online/offline status (and LWT)
//	<prefix>/<device>/event   one message per received notification
type Topics struct {
	Prefix   string
	DeviceID string
}

func (t Topics) base() string {
	prefix := t.Prefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/" + t.DeviceID
}

// Status returns the retained device status topic.
func (t Topics) Status() string {
	return t.base() + "/status"
}

// Event returns the notification event topic.
func (t Topics) Event() string {
	return t.base() + "/event"
}
