package models

import "time"

const (
	CallRinging  = "ringing"
	CallCalling  = "calling"
	CallAccepted = "accepted"
	CallRejected = "rejected"
	CallEnded    = "ended"
	CallMissed   = "missed"
)

// Call is one call attempt's lifecycle record. RoomID is a globally unique
// correlation token, never reused.
type Call struct {
	ID           string     `json:"id"`
	Caller       string     `json:"caller"`
	CallerType   string     `json:"callerType"`
	Receiver     string     `json:"receiver"`
	ReceiverType string     `json:"receiverType"`
	Status       string     `json:"status"`
	RoomID       string     `json:"roomId"`
	StartedAt    time.Time  `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}
