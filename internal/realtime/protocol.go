package realtime

import "encoding/json"

// Client -> server events.
const (
	TypeSendMessage  = "sendMessage"
	TypeMarkAsRead   = "markAsRead"
	TypeTyping       = "typing"
	TypeInitiateCall = "initiateCall"
	TypeAcceptCall   = "acceptCall"
	TypeRejectCall   = "rejectCall"
	TypeEndCall      = "endCall"
)

// Server -> client events.
const (
	TypeMessageSent   = "messageSent"
	TypeNewMessage    = "newMessage"
	TypeMessagesRead  = "messagesRead"
	TypeMessageRead   = "messageRead"
	TypeUserTyping    = "userTyping"
	TypeIncomingCall  = "incomingCall"
	TypeCallInitiated = "callInitiated"
	TypeCallAccepted  = "callAccepted"
	TypeCallStarted   = "callStarted"
	TypeCallRejected  = "callRejected"
	TypeCallEnded     = "callEnded"
	TypeCallMissed    = "callMissed"
	TypeCallError     = "callError"
	TypeMessageError  = "messageError"
	TypeReadError     = "readError"
)

// TypeWebRTCSignal flows both directions.
const TypeWebRTCSignal = "webrtcSignal"

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

type MarkAsReadPayload struct {
	ConversationID string `json:"conversationId"`
}

type MessageReadPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

type UserTypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type InitiateCallPayload struct {
	ReceiverID   string `json:"receiverId"`
	ReceiverType string `json:"receiverType"`
}

type IncomingCallPayload struct {
	CallID     string `json:"callId"`
	CallerID   string `json:"callerId"`
	CallerType string `json:"callerType"`
	RoomID     string `json:"roomId"`
}

type CallRoomPayload struct {
	CallID string `json:"callId"`
	RoomID string `json:"roomId"`
}

type CallPayload struct {
	CallID string `json:"callId"`
}

type SignalPayload struct {
	CallID string          `json:"callId"`
	Signal json.RawMessage `json:"signal"`
	To     string          `json:"to,omitempty"`
	From   string          `json:"from,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewWSMessage(msgType string, payload interface{}) ([]byte, error) {
	var p json.RawMessage
	if payload != nil {
		var err error
		p, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	msg := WSMessage{Type: msgType, Payload: p}
	return json.Marshal(msg)
}
