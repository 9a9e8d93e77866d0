package realtime

import "github.com/venturelink/backend/internal/models"

// Store is the persistence surface the realtime handlers need. The database
// package provides the Postgres implementation; tests supply an in-memory
// fake so handlers run without a live transport or datastore.
type Store interface {
	AppendMessage(senderID, receiverID, content string) (*models.Conversation, error)
	MarkRead(conversationID, userID string) (*models.Conversation, error)

	CreateCall(call *models.Call) error
	GetCall(id string) (*models.Call, error)
	UpdateCallStatus(id, status string) error
	MarkCallMissed(id string) (bool, error)
	MarkCallEnded(id string) error

	SetOnline(userID, role string, online bool) error
}
