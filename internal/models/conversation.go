package models

import "time"

// Conversation is the aggregate of all messages between exactly two users.
// UnreadCount is keyed by participant id.
type Conversation struct {
	ID           string         `json:"id"`
	Participants []string       `json:"participants"`
	Messages     []ChatMessage  `json:"messages"`
	LastMessage  *LastMessage   `json:"lastMessage,omitempty"`
	UnreadCount  map[string]int `json:"unreadCount"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	// Populated on conversation listings only.
	OtherParticipant *UserSummary `json:"otherParticipant,omitempty"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
	ReadBy    []string  `json:"readBy"`
}

// LastMessage is the cached copy of the most recent message. Timestamp
// mirrors CreatedAt on pushes so clients get both field names.
type LastMessage struct {
	Content   string     `json:"content"`
	SenderID  string     `json:"senderId"`
	CreatedAt time.Time  `json:"createdAt"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MessageView is the flat message shape returned by the history endpoint.
type MessageView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

// OtherParticipantID returns the participant that is not userID.
func (c *Conversation) OtherParticipantID(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
