package realtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/venturelink/backend/internal/models"
)

const invalidCallMessage = "invalid call"

// HandleInitiateCall creates a ringing call session, arms the answer timer,
// and notifies both parties. An offline receiver never sees the ring; the
// timeout path is the only missed-call notice.
func HandleInitiateCall(c *Client, payload InitiateCallPayload) {
	roomID := fmt.Sprintf("call_%s_%s_%d", c.UserID, payload.ReceiverID, time.Now().UnixMilli())
	call := &models.Call{
		ID:           uuid.NewString(),
		Caller:       c.UserID,
		CallerType:   c.Role,
		Receiver:     payload.ReceiverID,
		ReceiverType: payload.ReceiverType,
		Status:       models.CallRinging,
		RoomID:       roomID,
	}
	if err := c.hub.store.CreateCall(call); err != nil {
		slog.Error("failed to create call", "error", err, "user_id", c.UserID)
		sendError(c, TypeCallError, err.Error())
		return
	}

	c.hub.startRingTimer(call.ID)

	incoming, err := NewWSMessage(TypeIncomingCall, IncomingCallPayload{
		CallID:     call.ID,
		CallerID:   c.UserID,
		CallerType: c.Role,
		RoomID:     roomID,
	})
	if err != nil {
		return
	}
	c.hub.SendToUser(payload.ReceiverID, incoming)

	initiated, err := NewWSMessage(TypeCallInitiated, CallRoomPayload{CallID: call.ID, RoomID: roomID})
	if err != nil {
		return
	}
	c.trySend(initiated)
}

// HandleAcceptCall moves a ringing call to accepted. Only the session's
// receiver may accept; the answer timer is cancelled either way so a stale
// timer cannot fire for an answered call.
func HandleAcceptCall(c *Client, payload CallPayload) {
	c.hub.cancelRingTimer(payload.CallID)

	call, err := c.hub.store.GetCall(payload.CallID)
	if err != nil {
		sendError(c, TypeCallError, err.Error())
		return
	}
	if call == nil || call.Receiver != c.UserID {
		sendError(c, TypeCallError, invalidCallMessage)
		return
	}

	if err := c.hub.store.UpdateCallStatus(payload.CallID, models.CallAccepted); err != nil {
		sendError(c, TypeCallError, err.Error())
		return
	}

	accepted, err := NewWSMessage(TypeCallAccepted, CallRoomPayload{CallID: call.ID, RoomID: call.RoomID})
	if err != nil {
		return
	}
	c.hub.SendToUser(call.Caller, accepted)

	started, err := NewWSMessage(TypeCallStarted, CallRoomPayload{CallID: call.ID, RoomID: call.RoomID})
	if err != nil {
		return
	}
	c.trySend(started)
}

// HandleRejectCall moves a ringing call to rejected and notifies the caller
// only.
func HandleRejectCall(c *Client, payload CallPayload) {
	c.hub.cancelRingTimer(payload.CallID)

	call, err := c.hub.store.GetCall(payload.CallID)
	if err != nil {
		sendError(c, TypeCallError, err.Error())
		return
	}
	if call == nil || call.Receiver != c.UserID {
		sendError(c, TypeCallError, invalidCallMessage)
		return
	}

	if err := c.hub.store.UpdateCallStatus(payload.CallID, models.CallRejected); err != nil {
		sendError(c, TypeCallError, err.Error())
		return
	}

	rejected, err := NewWSMessage(TypeCallRejected, CallPayload{CallID: call.ID})
	if err != nil {
		return
	}
	c.hub.SendToUser(call.Caller, rejected)
}

// HandleEndCall stamps the session ended and notifies the other party.
func HandleEndCall(c *Client, payload CallPayload) {
	call, err := c.hub.store.GetCall(payload.CallID)
	if err != nil {
		sendError(c, TypeCallError, err.Error())
		return
	}
	if call == nil {
		return
	}

	if err := c.hub.store.MarkCallEnded(payload.CallID); err != nil {
		sendError(c, TypeCallError, err.Error())
		return
	}

	other := call.Receiver
	if c.UserID != call.Caller {
		other = call.Caller
	}
	ended, err := NewWSMessage(TypeCallEnded, CallPayload{CallID: call.ID})
	if err != nil {
		return
	}
	c.hub.SendToUser(other, ended)
}

// HandleSignal relays an opaque negotiation payload to the target user,
// annotated with the sender. No buffering, no ordering guarantee beyond the
// transport's.
func HandleSignal(c *Client, payload SignalPayload) {
	data, err := NewWSMessage(TypeWebRTCSignal, SignalPayload{
		CallID: payload.CallID,
		Signal: payload.Signal,
		From:   c.UserID,
	})
	if err != nil {
		return
	}
	c.hub.SendToUser(payload.To, data)
}

func (h *Hub) startRingTimer(callID string) {
	h.timerMu.Lock()
	h.callTimers[callID] = time.AfterFunc(h.RingTimeout, func() {
		h.ringTimedOut(callID)
	})
	h.timerMu.Unlock()
}

func (h *Hub) cancelRingTimer(callID string) {
	h.timerMu.Lock()
	if t, ok := h.callTimers[callID]; ok {
		t.Stop()
		delete(h.callTimers, callID)
	}
	h.timerMu.Unlock()
}

// ringTimedOut fires when a call was neither accepted nor rejected within
// the ring window. The conditional store update makes the missed transition
// happen at most once even if a cancel races the timer.
func (h *Hub) ringTimedOut(callID string) {
	h.timerMu.Lock()
	delete(h.callTimers, callID)
	h.timerMu.Unlock()

	call, err := h.store.GetCall(callID)
	if err != nil {
		slog.Error("failed to load timed-out call", "error", err, "call_id", callID)
		return
	}
	if call == nil || call.Status != models.CallRinging {
		return
	}

	missed, err := h.store.MarkCallMissed(callID)
	if err != nil {
		slog.Error("failed to mark call missed", "error", err, "call_id", callID)
		return
	}
	if !missed {
		return
	}

	data, err := NewWSMessage(TypeCallMissed, CallPayload{CallID: callID})
	if err != nil {
		return
	}
	h.SendToUser(call.Caller, data)
	h.SendToUser(call.Receiver, data)
}
