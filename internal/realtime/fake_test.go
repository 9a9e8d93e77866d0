package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/venturelink/backend/internal/database"
	"github.com/venturelink/backend/internal/models"
)

const shortWindow = 50 * time.Millisecond

// memStore is an in-memory Store for exercising handlers without Postgres.
type memStore struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	byPair        map[string]string
	calls         map[string]*models.Call
	online        map[string]bool

	appendErr error
}

func newMemStore() *memStore {
	return &memStore{
		conversations: make(map[string]*models.Conversation),
		byPair:        make(map[string]string),
		calls:         make(map[string]*models.Call),
		online:        make(map[string]bool),
	}
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

func (s *memStore) AppendMessage(senderID, receiverID, content string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return nil, s.appendErr
	}

	key := pairKey(senderID, receiverID)
	id, ok := s.byPair[key]
	if !ok {
		id = uuid.NewString()
		s.byPair[key] = id
		s.conversations[id] = &models.Conversation{
			ID:           id,
			Participants: []string{senderID, receiverID},
			Messages:     []models.ChatMessage{},
			UnreadCount:  map[string]int{},
			CreatedAt:    time.Now(),
		}
	}

	conv := s.conversations[id]
	now := time.Now()
	conv.Messages = append(conv.Messages, models.ChatMessage{
		ID:        uuid.NewString(),
		Content:   content,
		SenderID:  senderID,
		CreatedAt: now,
		ReadBy:    []string{senderID},
	})
	conv.LastMessage = &models.LastMessage{Content: content, SenderID: senderID, CreatedAt: now}
	conv.UnreadCount[receiverID]++
	conv.UpdatedAt = now
	return copyConversation(conv), nil
}

func (s *memStore) MarkRead(conversationID, userID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, database.ErrNotFound)
	}
	for i := range conv.Messages {
		if !contains(conv.Messages[i].ReadBy, userID) {
			conv.Messages[i].ReadBy = append(conv.Messages[i].ReadBy, userID)
		}
	}
	conv.UnreadCount[userID] = 0
	return copyConversation(conv), nil
}

func (s *memStore) FindConversation(userA, userB string) *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPair[pairKey(userA, userB)]
	if !ok {
		return nil
	}
	return copyConversation(s.conversations[id])
}

func (s *memStore) CreateCall(call *models.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call.StartedAt = time.Now()
	c := *call
	s.calls[call.ID] = &c
	return nil
}

func (s *memStore) GetCall(id string) (*models.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[id]
	if !ok {
		return nil, nil
	}
	c := *call
	return &c, nil
}

func (s *memStore) UpdateCallStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[id]
	if !ok {
		return fmt.Errorf("call %s: %w", id, database.ErrNotFound)
	}
	call.Status = status
	return nil
}

func (s *memStore) MarkCallMissed(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[id]
	if !ok || call.Status != models.CallRinging {
		return false, nil
	}
	call.Status = models.CallMissed
	return true, nil
}

func (s *memStore) MarkCallEnded(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[id]
	if !ok {
		return fmt.Errorf("call %s: %w", id, database.ErrNotFound)
	}
	now := time.Now()
	call.Status = models.CallEnded
	call.EndedAt = &now
	return nil
}

func (s *memStore) SetOnline(userID, role string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[userID] = online
	return nil
}

func (s *memStore) callStatus(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if call, ok := s.calls[id]; ok {
		return call.Status
	}
	return ""
}

func copyConversation(conv *models.Conversation) *models.Conversation {
	out := *conv
	out.Participants = append([]string(nil), conv.Participants...)
	out.Messages = make([]models.ChatMessage, len(conv.Messages))
	for i, m := range conv.Messages {
		out.Messages[i] = m
		out.Messages[i].ReadBy = append([]string(nil), m.ReadBy...)
	}
	out.UnreadCount = make(map[string]int, len(conv.UnreadCount))
	for k, v := range conv.UnreadCount {
		out.UnreadCount[k] = v
	}
	if conv.LastMessage != nil {
		last := *conv.LastMessage
		out.LastMessage = &last
	}
	return &out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// connect registers a test client directly in the hub's map, bypassing the
// run loop; handlers only need Lookup and the send channel.
func connect(h *Hub, userID, role string) *Client {
	c := &Client{
		hub:    h,
		UserID: userID,
		Role:   role,
		send:   make(chan []byte, 16),
	}
	h.mu.Lock()
	h.clients[userID] = c
	h.mu.Unlock()
	return c
}

// recvEvent waits for the next event on the client's send channel and
// asserts its type.
func recvEvent(t *testing.T, c *Client, wantType string) json.RawMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if msg.Type != wantType {
			t.Fatalf("expected event %q, got %q", wantType, msg.Type)
		}
		return msg.Payload
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event %q", wantType)
	}
	return nil
}

// expectNoEvent asserts the client receives nothing within the window.
func expectNoEvent(t *testing.T, c *Client, window time.Duration) {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		_ = json.Unmarshal(data, &msg)
		t.Fatalf("expected no event, got %q", msg.Type)
	case <-time.After(window):
	}
}

func decodePayload(t *testing.T, payload json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(payload, v); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
}
