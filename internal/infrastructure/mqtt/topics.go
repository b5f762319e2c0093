package mqtt

import "fmt"

// Topic prefixes for the glowstate MQTT surface.
//
// All topics use the scheme: glowstate/{category}/{name}
const (
	// TopicPrefix is the base for all glowstate topics.
	TopicPrefix = "glowstate"

	// TopicPrefixEvent is the base for batch lifecycle events.
	TopicPrefixEvent = "glowstate/event"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "glowstate/system"
)

// Topics provides builders for glowstate MQTT topics.
// Using these helpers keeps topic naming consistent across publishers
// and subscribers.
type Topics struct{}

// Event returns the topic for a batch lifecycle event.
//
// Example: glowstate/event/capture
func (Topics) Event(kind string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvent, kind)
}

// CaptureEvent returns the capture batch completion topic.
func (t Topics) CaptureEvent() string {
	return t.Event("capture")
}

// RestoreEvent returns the restore batch completion topic.
func (t Topics) RestoreEvent() string {
	return t.Event("restore")
}

// SystemStatus returns the service status topic carrying the retained
// online/offline payload and the LWT.
//
// Example: glowstate/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllEvents returns a pattern matching every batch lifecycle event.
//
// Pattern: glowstate/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/+", TopicPrefixEvent)
}

// AllTopics returns a pattern matching every glowstate topic.
// Use with caution, this receives all traffic.
//
// Pattern: glowstate/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
