package models

import "time"

// EventType defines the type of CRUD event.
type EventType string

const (
	EventCreate   EventType = "create"
	EventUpdate   EventType = "update"
	EventDelete   EventType = "delete"
	EventAnything EventType = "*"

	// Health events emitted per outcome after each bulk dispatch
	EventDeviceFailure  EventType = "device_failure"
	EventDeviceRecovery EventType = "device_recovery"
)

// Event represents a CRUD event for status-cache synchronization.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// DeviceFailureEvent reports one failed command outcome for a TV.
type DeviceFailureEvent struct {
	IPAddress string
	Reason    string
	Timestamp time.Time
}

// DeviceRecoveryEvent reports a successful command outcome, clearing
// accumulated failure history for the TV.
type DeviceRecoveryEvent struct {
	IPAddress string
	Timestamp time.Time
}
