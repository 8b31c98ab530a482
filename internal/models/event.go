package models

// Event is a telemetry record posted to the events endpoint
type Event struct {
	Name      string         `json:"event_name"`
	Version   string         `json:"event_version"`
	SessionID string         `json:"session_id"`
	LeadID    *string        `json:"lead_id"`
	Payload   map[string]any `json:"payload"`
}

type EventAck struct {
	OK           bool `json:"ok"`
	Deduplicated bool `json:"deduplicated"`
}
