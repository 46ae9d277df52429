package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore persists the audit trail in the moderation_audit table. It
// sits on its own database/sql handle: the trail is append-only and written
// after a moderation commit, never inside one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a lib/pq database handle for the audit store.
func OpenPostgres(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit db: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_audit (
			id, action, account_id, submission_id, actor_id,
			operation, identity_id, reason, error,
			request_id, client_ip, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		event.ID, string(event.Action), event.AccountID, event.SubmissionID, event.ActorID,
		event.Operation, event.IdentityID, event.Reason, event.Error,
		event.RequestID, event.ClientIP, event.UserAgent, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, account_id, submission_id, actor_id,
			operation, identity_id, reason, error,
			request_id, client_ip, user_agent, created_at
		FROM moderation_audit
		WHERE account_id = $1
		ORDER BY created_at`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e      Event
			action string
		)
		err := rows.Scan(
			&e.ID, &action, &e.AccountID, &e.SubmissionID, &e.ActorID,
			&e.Operation, &e.IdentityID, &e.Reason, &e.Error,
			&e.RequestID, &e.ClientIP, &e.UserAgent, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		events = append(events, e)
	}
	return events, rows.Err()
}
