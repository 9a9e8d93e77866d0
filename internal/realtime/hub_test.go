package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturelink/backend/internal/models"
)

func TestLastConnectWins(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, nil)

	first := &Client{hub: hub, UserID: "alice", Role: models.RoleEntrepreneur, send: make(chan []byte, 16)}
	hub.addClient(first)
	assert.Same(t, first, hub.Lookup("alice"))

	second := &Client{hub: hub, UserID: "alice", Role: models.RoleEntrepreneur, send: make(chan []byte, 16)}
	hub.addClient(second)
	assert.Same(t, second, hub.Lookup("alice"))

	// The replaced connection's send channel is closed.
	_, open := <-first.send
	assert.False(t, open)
}

func TestStaleDisconnectKeepsNewConnection(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, nil)

	first := &Client{hub: hub, UserID: "alice", Role: models.RoleEntrepreneur, send: make(chan []byte, 16)}
	hub.addClient(first)
	second := &Client{hub: hub, UserID: "alice", Role: models.RoleEntrepreneur, send: make(chan []byte, 16)}
	hub.addClient(second)

	// The first connection's read pump eventually unregisters; that must
	// not evict the replacement or flip the online flag.
	hub.removeClient(first)
	assert.Same(t, second, hub.Lookup("alice"))
	assert.True(t, store.online["alice"])
}

func TestReplacedConnectionDropsSelfEcho(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, nil)
	bob := connect(hub, "bob", models.RoleInvestor)

	stale := &Client{hub: hub, UserID: "alice", Role: models.RoleEntrepreneur, send: make(chan []byte, 16)}
	hub.addClient(stale)
	replacement := &Client{hub: hub, UserID: "alice", Role: models.RoleEntrepreneur, send: make(chan []byte, 16)}
	hub.addClient(replacement)

	// The replaced connection's read pump can still dispatch an event it had
	// already decoded. Its echo must be dropped, not sent on the closed
	// channel; the message itself still goes through.
	HandleSendMessage(stale, SendMessagePayload{ReceiverID: "bob", Content: "in flight"})

	recvEvent(t, bob, TypeNewMessage)
	expectNoEvent(t, replacement, shortWindow)

	conv := store.FindConversation("alice", "bob")
	require.NotNil(t, conv)
	assert.Equal(t, 1, conv.UnreadCount["bob"])
}

func TestOnlineFlagFollowsConnectionLifetime(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, nil)

	client := &Client{hub: hub, UserID: "alice", Role: models.RoleEntrepreneur, send: make(chan []byte, 16)}
	hub.addClient(client)
	assert.True(t, store.online["alice"])

	hub.removeClient(client)
	assert.False(t, store.online["alice"])
	assert.Nil(t, hub.Lookup("alice"))
}

func TestSendToOfflineUserIsDropped(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, nil)
	hub.SendToUser("nobody", []byte(`{"type":"newMessage"}`))
}

func TestDispatchRoutesInboundEvents(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, nil)
	alice := connect(hub, "alice", models.RoleEntrepreneur)
	bob := connect(hub, "bob", models.RoleInvestor)

	raw := []byte(`{"type":"sendMessage","payload":{"receiverId":"bob","content":"via dispatch"}}`)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	alice.handleMessage(msg)

	var echoed models.Conversation
	decodePayload(t, recvEvent(t, alice, TypeMessageSent), &echoed)
	require.NotNil(t, echoed.LastMessage)
	assert.Equal(t, "via dispatch", echoed.LastMessage.Content)
	recvEvent(t, bob, TypeNewMessage)
}

func TestDispatchIgnoresUnknownEvent(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, nil)
	alice := connect(hub, "alice", models.RoleEntrepreneur)

	alice.handleMessage(WSMessage{Type: "bogus", Payload: json.RawMessage(`{}`)})
	expectNoEvent(t, alice, shortWindow)
}

func TestShutdownClosesClientsAndTimers(t *testing.T) {
	store := newMemStore()
	hub := NewHub(store, nil)
	alice := connect(hub, "alice", models.RoleEntrepreneur)
	connect(hub, "bob", models.RoleInvestor)
	initiated := initiate(t, hub, alice, "bob")

	hub.Shutdown()

	assert.Nil(t, hub.Lookup("alice"))
	hub.timerMu.Lock()
	_, armed := hub.callTimers[initiated.CallID]
	hub.timerMu.Unlock()
	assert.False(t, armed)
}
