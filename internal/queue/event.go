// Package queue carries domain events between the API and background
// consumers over RabbitMQ.
package queue

// Queue names.  The default exchange routes by queue name.
const (
	QueueSOSAlert           = "sos.alert"
	QueueBloodRequestPosted = "blood_request.posted"
)

// SOSAlertEvent is published for every accepted SOS alert.  Lat/Lng are nil
// when the caller sent no usable location.
type SOSAlertEvent struct {
	AlertID          string   `json:"alert_id"`
	UserID           *uint64  `json:"user_id,omitempty"`
	EmergencyType    string   `json:"emergency_type"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
	ClientTimestamp  string   `json:"client_timestamp,omitempty"`
	ReceivedAt       string   `json:"received_at"`
	NearestHospitals []string `json:"nearest_hospitals,omitempty"`
}

// BloodRequestPostedEvent is published after a blood request is stored.
type BloodRequestPostedEvent struct {
	RequestID  uint64  `json:"request_id"`
	UserID     *uint64 `json:"user_id,omitempty"`
	BloodGroup string  `json:"blood_group"`
	Hospital   string  `json:"hospital"`
	Urgency    string  `json:"urgency"`
	Contact    string  `json:"contact"`
	Location   string  `json:"location"`
	PostedAt   string  `json:"posted_at"`
}
