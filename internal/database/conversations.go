package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/venturelink/backend/internal/models"
)

// orderPair normalizes a participant pair so lookups are order-independent.
func orderPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// FindConversation returns the conversation whose participant set is
// exactly {userA, userB}, or nil if none exists.
func (s *Store) FindConversation(userA, userB string) (*models.Conversation, error) {
	pa, pb := orderPair(userA, userB)
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM conversations WHERE participant_a = $1 AND participant_b = $2`,
		pa, pb,
	).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return s.getConversation(id)
}

func (s *Store) getConversation(id string) (*models.Conversation, error) {
	var (
		c           models.Conversation
		pa, pb      string
		ua, ub      int
		lastContent sql.NullString
		lastSender  sql.NullString
		lastAt      sql.NullTime
	)
	err := s.db.QueryRow(
		`SELECT id, participant_a, participant_b, unread_a, unread_b,
		        last_message_content, last_message_sender, last_message_at,
		        created_at, updated_at
		 FROM conversations WHERE id = $1`,
		id,
	).Scan(&c.ID, &pa, &pb, &ua, &ub, &lastContent, &lastSender, &lastAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	c.Participants = []string{pa, pb}
	c.UnreadCount = map[string]int{pa: ua, pb: ub}
	if lastContent.Valid {
		c.LastMessage = &models.LastMessage{
			Content:   lastContent.String,
			SenderID:  lastSender.String,
			CreatedAt: lastAt.Time,
		}
	}

	rows, err := s.db.Query(
		`SELECT id, content, sender_id, read_by, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at, id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.ChatMessage
		var readBy pq.StringArray
		if err := rows.Scan(&m.ID, &m.Content, &m.SenderID, &readBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ReadBy = []string(readBy)
		c.Messages = append(c.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if c.Messages == nil {
		c.Messages = []models.ChatMessage{}
	}
	return &c, nil
}

// AppendMessage appends a message from senderID to receiverID, creating the
// conversation on first contact. The sender starts in the message's readBy
// set and the receiver's unread counter goes up by one.
func (s *Store) AppendMessage(senderID, receiverID, content string) (*models.Conversation, error) {
	pa, pb := orderPair(senderID, receiverID)
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var convID string
	err = tx.QueryRow(
		`SELECT id FROM conversations WHERE participant_a = $1 AND participant_b = $2 FOR UPDATE`,
		pa, pb,
	).Scan(&convID)
	if err == sql.ErrNoRows {
		convID = uuid.NewString()
		_, err = tx.Exec(
			`INSERT INTO conversations (id, participant_a, participant_b, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $4)`,
			convID, pa, pb, now,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO messages (id, conversation_id, sender_id, content, read_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), convID, senderID, content, pq.Array([]string{senderID}), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	unreadCol := "unread_a"
	if receiverID == pb {
		unreadCol = "unread_b"
	}
	_, err = tx.Exec(fmt.Sprintf(
		`UPDATE conversations
		 SET %s = %s + 1, last_message_content = $2, last_message_sender = $3,
		     last_message_at = $4, updated_at = $4
		 WHERE id = $1`, unreadCol, unreadCol),
		convID, content, senderID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return s.getConversation(convID)
}

// MarkRead adds userID to every message's readBy set and zeroes that
// user's unread counter.
func (s *Store) MarkRead(conversationID, userID string) (*models.Conversation, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var pa, pb string
	err = tx.QueryRow(
		`SELECT participant_a, participant_b FROM conversations WHERE id = $1 FOR UPDATE`,
		conversationID,
	).Scan(&pa, &pb)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE messages SET read_by = array_append(read_by, $2)
		 WHERE conversation_id = $1 AND NOT (read_by @> ARRAY[$2::uuid])`,
		conversationID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	if userID == pa || userID == pb {
		unreadCol := "unread_a"
		if userID == pb {
			unreadCol = "unread_b"
		}
		_, err = tx.Exec(fmt.Sprintf(
			`UPDATE conversations SET %s = 0 WHERE id = $1`, unreadCol),
			conversationID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reset unread count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return s.getConversation(conversationID)
}

// DeleteConversation removes the aggregate. Only a participant may delete.
func (s *Store) DeleteConversation(conversationID, requesterID string) error {
	var pa, pb string
	err := s.db.QueryRow(
		`SELECT participant_a, participant_b FROM conversations WHERE id = $1`,
		conversationID,
	).Scan(&pa, &pb)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
		}
		return fmt.Errorf("failed to get conversation: %w", err)
	}
	if requesterID != pa && requesterID != pb {
		return fmt.Errorf("delete conversation %s: %w", conversationID, ErrUnauthorized)
	}
	_, err = s.db.Exec(`DELETE FROM conversations WHERE id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// GetConversationsForUser returns every conversation the user participates
// in, most recently updated first, with the other participant populated.
func (s *Store) GetConversationsForUser(userID string) ([]models.Conversation, error) {
	rows, err := s.db.Query(
		`SELECT id FROM conversations
		 WHERE participant_a = $1 OR participant_b = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	conversations := make([]models.Conversation, 0, len(ids))
	for _, id := range ids {
		conv, err := s.getConversation(id)
		if err != nil {
			return nil, err
		}
		if conv == nil {
			continue
		}
		other, err := s.getUserSummary(conv.OtherParticipantID(userID))
		if err != nil {
			return nil, err
		}
		conv.OtherParticipant = other
		conversations = append(conversations, *conv)
	}
	return conversations, nil
}

// TotalUnread sums the user's unread counters across all conversations.
// Recomputed per request, no caching.
func (s *Store) TotalUnread(userID string) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN participant_a = $1 THEN unread_a ELSE unread_b END), 0)
		 FROM conversations WHERE participant_a = $1 OR participant_b = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum unread counts: %w", err)
	}
	return total, nil
}

// GetMessagesBetween returns the flat message history between two users,
// oldest first. An absent conversation yields an empty list.
func (s *Store) GetMessagesBetween(userA, userB string) ([]models.MessageView, error) {
	conv, err := s.FindConversation(userA, userB)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return []models.MessageView{}, nil
	}
	views := make([]models.MessageView, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		views = append(views, models.MessageView{
			ID:        m.ID,
			Content:   m.Content,
			SenderID:  m.SenderID,
			Timestamp: m.CreatedAt,
		})
	}
	return views, nil
}
