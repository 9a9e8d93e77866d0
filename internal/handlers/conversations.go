package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/venturelink/backend/internal/auth"
	"github.com/venturelink/backend/internal/database"
	"github.com/venturelink/backend/internal/models"
)

// ConversationStore is the persistence surface the conversation handlers
// need. *database.Store implements it; tests supply a fake.
type ConversationStore interface {
	GetConversationsForUser(userID string) ([]models.Conversation, error)
	GetMessagesBetween(userA, userB string) ([]models.MessageView, error)
	AppendMessage(senderID, receiverID, content string) (*models.Conversation, error)
	MarkRead(conversationID, userID string) (*models.Conversation, error)
	TotalUnread(userID string) (int, error)
	DeleteConversation(conversationID, requesterID string) error
}

// GetConversations lists the requester's conversations, most recently
// updated first, with the other participant populated.
func GetConversations(store ConversationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)
		conversations, err := store.GetConversationsForUser(userID)
		if err != nil {
			slog.Error("failed to list conversations", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, conversations)
	}
}

// GetMessagesWith returns the flat message history between the requester
// and another user.
func GetMessagesWith(store ConversationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)
		otherID := mux.Vars(r)["userId"]

		messages, err := store.GetMessagesBetween(userID, otherID)
		if err != nil {
			slog.Error("failed to get messages", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, messages)
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// SendMessage is the REST path for sending; the realtime event is the
// primary one but the client falls back to this when the socket is down.
func SendMessage(store ConversationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)

		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ReceiverID == "" {
			writeError(w, http.StatusBadRequest, "receiverId is required")
			return
		}

		conversation, err := store.AppendMessage(userID, req.ReceiverID, req.Content)
		if err != nil {
			slog.Error("failed to send message", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, conversation)
	}
}

func MarkConversationRead(store ConversationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)
		conversationID := mux.Vars(r)["conversationId"]

		conversation, err := store.MarkRead(conversationID, userID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				writeError(w, http.StatusNotFound, "conversation not found")
				return
			}
			slog.Error("failed to mark conversation read", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, conversation)
	}
}

// UnreadCount sums the requester's unread counters across conversations.
func UnreadCount(store ConversationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)
		total, err := store.TotalUnread(userID)
		if err != nil {
			slog.Error("failed to get unread count", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"totalUnread": total})
	}
}

func DeleteConversation(store ConversationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(auth.UserIDKey).(string)
		conversationID := mux.Vars(r)["conversationId"]

		if err := store.DeleteConversation(conversationID, userID); err != nil {
			switch {
			case errors.Is(err, database.ErrNotFound):
				writeError(w, http.StatusNotFound, "conversation not found")
			case errors.Is(err, database.ErrUnauthorized):
				writeError(w, http.StatusForbidden, "not a participant of this conversation")
			default:
				slog.Error("failed to delete conversation", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "conversation deleted"})
	}
}
