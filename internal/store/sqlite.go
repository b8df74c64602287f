package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore is the durable Store implementation. A single slots table holds
// the three strings; SQLite runs in WAL mode with one writer connection.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the slot database at the given path. Safe to
// call repeatedly; the schema is applied idempotently.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent handler calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) setSlot(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) getSlot(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) clearSlots(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
			return fmt.Errorf("clear slot %s: %w", key, err)
		}
	}
	return nil
}

// SaveCredential writes the device id and PIN slots.
func (s *SQLiteStore) SaveCredential(ctx context.Context, deviceID, pin string) error {
	if err := s.setSlot(ctx, slotDeviceID, deviceID); err != nil {
		return err
	}
	return s.setSlot(ctx, slotPIN, pin)
}

// LoadCredential reads both credential slots. Either slot missing reads back
// as no credential.
func (s *SQLiteStore) LoadCredential(ctx context.Context) (Credential, bool, error) {
	deviceID, ok, err := s.getSlot(ctx, slotDeviceID)
	if err != nil || !ok {
		return Credential{}, false, err
	}
	pin, ok, err := s.getSlot(ctx, slotPIN)
	if err != nil || !ok {
		return Credential{}, false, err
	}
	return Credential{DeviceID: deviceID, PIN: pin}, true, nil
}

// ClearCredential removes the device id and PIN slots.
func (s *SQLiteStore) ClearCredential(ctx context.Context) error {
	return s.clearSlots(ctx, slotDeviceID, slotPIN)
}

// SaveSession writes the session slot.
func (s *SQLiteStore) SaveSession(ctx context.Context, sessionID string) error {
	return s.setSlot(ctx, slotSession, sessionID)
}

// LoadSession reads the session slot.
func (s *SQLiteStore) LoadSession(ctx context.Context) (string, bool, error) {
	return s.getSlot(ctx, slotSession)
}

// ClearSession removes the session slot.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	return s.clearSlots(ctx, slotSession)
}
