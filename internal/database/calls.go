package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/venturelink/backend/internal/models"
)

func (s *Store) CreateCall(call *models.Call) error {
	err := s.db.QueryRow(
		`INSERT INTO calls (id, caller, caller_type, receiver, receiver_type, status, room_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING started_at`,
		call.ID, call.Caller, call.CallerType, call.Receiver, call.ReceiverType, call.Status, call.RoomID,
	).Scan(&call.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}
	return nil
}

func (s *Store) GetCall(id string) (*models.Call, error) {
	var c models.Call
	var endedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, caller, caller_type, receiver, receiver_type, status, room_id, started_at, ended_at
		 FROM calls WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Caller, &c.CallerType, &c.Receiver, &c.ReceiverType, &c.Status, &c.RoomID, &c.StartedAt, &endedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	if endedAt.Valid {
		c.EndedAt = &endedAt.Time
	}
	return &c, nil
}

func (s *Store) UpdateCallStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE calls SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update call status: %w", err)
	}
	return nil
}

// MarkCallMissed transitions a still-ringing call to missed. Returns false
// when the call already left the ringing state, so a late timer fire is a
// no-op.
func (s *Store) MarkCallMissed(id string) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE calls SET status = $1 WHERE id = $2 AND status = $3`,
		models.CallMissed, id, models.CallRinging,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark call missed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) MarkCallEnded(id string) error {
	_, err := s.db.Exec(
		`UPDATE calls SET status = $1, ended_at = $2 WHERE id = $3`,
		models.CallEnded, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark call ended: %w", err)
	}
	return nil
}
