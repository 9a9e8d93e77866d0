package database

import (
	"database/sql"
	"fmt"

	"github.com/venturelink/backend/internal/models"
)

func (s *Store) CreateUser(name, email, passwordHash, role string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4)
		 RETURNING id, name, email, role, avatar_url, is_online, created_at`,
		name, email, passwordHash, role,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.AvatarURL, &u.IsOnline, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		`SELECT id, name, email, password, role, avatar_url, is_online, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.AvatarURL, &u.IsOnline, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		`SELECT id, name, email, role, avatar_url, is_online, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.AvatarURL, &u.IsOnline, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) getUserSummary(id string) (*models.UserSummary, error) {
	var u models.UserSummary
	err := s.db.QueryRow(
		`SELECT id, name, email, role, avatar_url, is_online FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.AvatarURL, &u.IsOnline)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user summary: %w", err)
	}
	return &u, nil
}

// SetOnline flips the persisted online flag for the role-specific record.
func (s *Store) SetOnline(userID, role string, online bool) error {
	_, err := s.db.Exec(
		`UPDATE users SET is_online = $1 WHERE id = $2 AND role = $3`,
		online, userID, role,
	)
	if err != nil {
		return fmt.Errorf("failed to set online status: %w", err)
	}
	return nil
}
