package realtime

import (
	"log/slog"

	"github.com/venturelink/backend/internal/models"
)

// HandleSendMessage appends the message, echoes the updated conversation to
// the sender, and pushes it to the receiver's connection when one exists.
// Offline receivers see the message on their next conversations fetch.
func HandleSendMessage(c *Client, payload SendMessagePayload) {
	conv, err := c.hub.store.AppendMessage(c.UserID, payload.ReceiverID, payload.Content)
	if err != nil {
		slog.Error("failed to send message", "error", err, "user_id", c.UserID)
		sendError(c, TypeMessageError, err.Error())
		return
	}

	data, err := NewWSMessage(TypeMessageSent, conv)
	if err != nil {
		return
	}
	c.trySend(data)

	if c.hub.Lookup(payload.ReceiverID) == nil {
		return
	}
	push, err := NewWSMessage(TypeNewMessage, withLastMessageTimestamp(conv))
	if err != nil {
		return
	}
	c.hub.SendToUser(payload.ReceiverID, push)
}

// withLastMessageTimestamp mirrors lastMessage.createdAt into a timestamp
// field on the pushed copy, which is what clients render from.
func withLastMessageTimestamp(conv *models.Conversation) *models.Conversation {
	if conv.LastMessage == nil {
		return conv
	}
	out := *conv
	last := *conv.LastMessage
	ts := last.CreatedAt
	last.Timestamp = &ts
	out.LastMessage = &last
	return &out
}

// HandleMarkAsRead bulk-marks the conversation read for the acting user,
// echoes the aggregate back, and notifies the other participant.
func HandleMarkAsRead(c *Client, payload MarkAsReadPayload) {
	conv, err := c.hub.store.MarkRead(payload.ConversationID, c.UserID)
	if err != nil {
		slog.Error("failed to mark read", "error", err, "user_id", c.UserID)
		sendError(c, TypeReadError, err.Error())
		return
	}

	data, err := NewWSMessage(TypeMessagesRead, conv)
	if err != nil {
		return
	}
	c.trySend(data)

	for _, participant := range conv.Participants {
		if participant == c.UserID {
			continue
		}
		notice, err := NewWSMessage(TypeMessageRead, MessageReadPayload{
			ConversationID: payload.ConversationID,
			UserID:         c.UserID,
		})
		if err != nil {
			return
		}
		c.hub.SendToUser(participant, notice)
	}
}

// HandleTyping relays the typing flag to the receiver if connected. No
// persistence, no server-side debouncing.
func HandleTyping(c *Client, payload TypingPayload) {
	data, err := NewWSMessage(TypeUserTyping, UserTypingPayload{
		UserID:   c.UserID,
		IsTyping: payload.IsTyping,
	})
	if err != nil {
		return
	}
	c.hub.SendToUser(payload.ReceiverID, data)
}
