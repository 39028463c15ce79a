package telemetry

import "time"

type EventType string

const (
	EventPlantRegistered  EventType = "plant_registered"
	EventPlantUpdated     EventType = "plant_updated"
	EventPlantRemoved     EventType = "plant_removed"
	EventTaskCompleted    EventType = "task_completed"
	EventTasksRegenerated EventType = "tasks_regenerated"
	EventCareInfoFetched  EventType = "care_info_fetched"
	EventOTPRequested     EventType = "otp_requested"
	EventSessionStarted   EventType = "session_started"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
