// Package sqlite stores review-request events and the OpenAlex topic table
// in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/platform/storage/sqlitemigrate"
	"github.com/prereview/prereview/internal/reviewrequest"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements reviewrequest.Store.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ reviewrequest.Store = (*Store)(nil)

// Open opens and migrates the event database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitemigrate.Open(ctx, path, migrations, "migrations")
	if err != nil {
		return nil, err
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendEvents stores events atomically in the given order.
func (s *Store) AppendEvents(ctx context.Context, events ...reviewrequest.Event) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(events) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	recordedAt := s.now().UTC().UnixMilli()
	for _, event := range events {
		eventType, payload, err := reviewrequest.Encode(event)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO review_request_events (request_id, event_type, payload_json, recorded_at) VALUES (?, ?, ?, ?)`,
			event.RequestID().String(), eventType, payload, recordedAt,
		); err != nil {
			return fmt.Errorf("append %s: %w", eventType, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// ListEvents returns every event in append order.
func (s *Store) ListEvents(ctx context.Context) ([]reviewrequest.Event, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT event_type, payload_json FROM review_request_events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []reviewrequest.Event
	for rows.Next() {
		var eventType string
		var payload []byte
		if err := rows.Scan(&eventType, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event, err := reviewrequest.Decode(eventType, payload)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LoadTopics returns the known topic to subfield mapping.
func (s *Store) LoadTopics(ctx context.Context) (reviewrequest.TopicTable, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT topic_id, subfield_id FROM openalex_topics`)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	defer rows.Close()

	table := reviewrequest.TopicTable{}
	for rows.Next() {
		var topicID, subfieldID string
		if err := rows.Scan(&topicID, &subfieldID); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		table[openalex.TopicID(topicID)] = openalex.SubfieldID(subfieldID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return table, nil
}

// SaveTopics upserts topics and their subfields.
func (s *Store) SaveTopics(ctx context.Context, topics []openalex.Topic) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	updatedAt := s.now().UTC().UnixMilli()
	for _, topic := range topics {
		if topic.ID == "" || topic.Subfield == "" {
			continue
		}
		if _, err := s.sqlDB.ExecContext(ctx,
			`INSERT INTO openalex_topics (topic_id, name, subfield_id, subfield_name, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(topic_id) DO UPDATE SET
			    name = excluded.name,
			    subfield_id = excluded.subfield_id,
			    subfield_name = excluded.subfield_name,
			    updated_at = excluded.updated_at`,
			string(topic.ID), topic.Name, string(topic.Subfield), topic.SubfieldName, updatedAt,
		); err != nil {
			return fmt.Errorf("save topic %s: %w", topic.ID, err)
		}
	}
	return nil
}
