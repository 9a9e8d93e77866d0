package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist and the caller
	// needs to distinguish that from a datastore failure.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the acting user is not allowed to
	// perform the operation, e.g. deleting a conversation they are not in.
	ErrUnauthorized = errors.New("unauthorized")
)

func InitDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Store carries the database handle for all persistence operations.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}
