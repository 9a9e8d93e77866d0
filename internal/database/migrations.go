package database

import "database/sql"

const schema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name       VARCHAR(100) NOT NULL,
    email      VARCHAR(255) UNIQUE NOT NULL,
    password   TEXT NOT NULL,
    role       VARCHAR(20) NOT NULL CHECK (role IN ('entrepreneur', 'investor')),
    avatar_url TEXT DEFAULT '',
    is_online  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);

CREATE TABLE IF NOT EXISTS conversations (
    id                   UUID PRIMARY KEY,
    participant_a        UUID NOT NULL,
    participant_b        UUID NOT NULL,
    unread_a             INTEGER NOT NULL DEFAULT 0,
    unread_b             INTEGER NOT NULL DEFAULT 0,
    last_message_content TEXT,
    last_message_sender  UUID,
    last_message_at      TIMESTAMPTZ,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (participant_a < participant_b),
    UNIQUE (participant_a, participant_b)
);
CREATE INDEX IF NOT EXISTS idx_conversations_participant_a ON conversations (participant_a);
CREATE INDEX IF NOT EXISTS idx_conversations_participant_b ON conversations (participant_b);

CREATE TABLE IF NOT EXISTS messages (
    id              UUID PRIMARY KEY,
    conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    sender_id       UUID NOT NULL,
    content         TEXT NOT NULL,
    read_by         UUID[] NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages (conversation_id, created_at);

CREATE TABLE IF NOT EXISTS calls (
    id            UUID PRIMARY KEY,
    caller        UUID NOT NULL,
    caller_type   VARCHAR(20) NOT NULL,
    receiver      UUID NOT NULL,
    receiver_type VARCHAR(20) NOT NULL,
    status        VARCHAR(10) NOT NULL DEFAULT 'ringing'
                  CHECK (status IN ('ringing', 'calling', 'accepted', 'rejected', 'ended', 'missed')),
    room_id       TEXT UNIQUE NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    ended_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_calls_caller ON calls (caller);
CREATE INDEX IF NOT EXISTS idx_calls_receiver ON calls (receiver);
`

func RunMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
