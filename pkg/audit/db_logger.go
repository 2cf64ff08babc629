package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// DBLogger persists audit entries in a SQL table, so the admin console can
// page and filter them without scanning flat files. The schema targets
// sqlite but sticks to portable SQL.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger and ensures the
// audit_log table exists.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	logger := &DBLogger{db: db}
	if err := logger.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate audit schema: %w", err)
	}
	return logger, nil
}

func (l *DBLogger) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TIMESTAMP NOT NULL,
			action TEXT NOT NULL,
			outcome TEXT NOT NULL,
			actor_email TEXT,
			actor_name TEXT,
			actor_role TEXT,
			target_type TEXT,
			target_id TEXT,
			ip TEXT,
			user_agent TEXT,
			meta TEXT,
			error TEXT
		)`
	_, err := l.db.Exec(query)
	return err
}

// Record inserts one entry.
func (l *DBLogger) Record(ctx context.Context, entry *Entry) error {
	var actorEmail, actorName, actorRole string
	if entry.Actor != nil {
		actorEmail = entry.Actor.Email
		actorName = entry.Actor.Name
		actorRole = entry.Actor.Role
	}

	var targetType, targetID string
	if entry.Target != nil {
		targetType = entry.Target.Type
		targetID = entry.Target.ID
	}

	var meta []byte
	if len(entry.Meta) > 0 {
		var err error
		meta, err = json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode audit meta: %w", err)
		}
	}

	query := `
		INSERT INTO audit_log (
			timestamp, action, outcome, actor_email, actor_name, actor_role,
			target_type, target_id, ip, user_agent, meta, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := l.db.ExecContext(ctx, query,
		entry.Timestamp,
		string(entry.Action),
		string(entry.Outcome),
		actorEmail,
		actorName,
		actorRole,
		targetType,
		targetID,
		entry.IP,
		entry.UserAgent,
		string(meta),
		entry.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Search queries persisted entries, newest first.
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	query := `
		SELECT timestamp, action, outcome, actor_email, actor_name, actor_role,
		       target_type, target_id, ip, user_agent, meta, error
		FROM audit_log
		WHERE 1=1`
	var args []interface{}

	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(filter.Action))
	}
	if filter.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, string(filter.Outcome))
	}
	if filter.ActorEmail != "" {
		query += ` AND actor_email = ?`
		args = append(args, filter.ActorEmail)
	}
	if filter.TargetType != "" {
		query += ` AND target_type = ?`
		args = append(args, filter.TargetType)
	}
	if filter.TargetID != "" {
		query += ` AND target_id = ?`
		args = append(args, filter.TargetID)
	}
	if filter.StartTime != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *filter.EndTime)
	}

	query += ` ORDER BY timestamp DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Purge deletes entries older than cutoff and returns the number removed.
func (l *DBLogger) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM audit_log WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit log: %w", err)
	}
	return res.RowsAffected()
}

// Close is a no-op; the caller owns the *sql.DB.
func (l *DBLogger) Close() error { return nil }

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		entry                            Entry
		actorEmail, actorName, actorRole sql.NullString
		targetType, targetID             sql.NullString
		meta                             sql.NullString
	)

	err := rows.Scan(
		&entry.Timestamp,
		&entry.Action,
		&entry.Outcome,
		&actorEmail,
		&actorName,
		&actorRole,
		&targetType,
		&targetID,
		&entry.IP,
		&entry.UserAgent,
		&meta,
		&entry.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	if actorEmail.String != "" {
		entry.Actor = &Actor{Email: actorEmail.String, Name: actorName.String, Role: actorRole.String}
	}
	if targetType.String != "" {
		entry.Target = &Target{Type: targetType.String, ID: targetID.String}
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &entry.Meta); err != nil {
			entry.Meta = nil
		}
	}
	return &entry, nil
}
