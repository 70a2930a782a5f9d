// Package postgres persists audit entries in the audit_log table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"aide/internal/audit"
	id "aide/pkg/domain"
)

// Store writes ledger rows through database/sql (pgx stdlib driver).
// Rows are insert-only; no update or delete statement exists here on purpose.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertColumns = `
	id, timestamp, actor_id, actor_type, action,
	resource_type, resource_id, details,
	ip_address, user_agent, request_id, client_name, client_os
`

func (s *Store) InsertOne(ctx context.Context, entry audit.Entry) error {
	details, err := marshalDetails(entry.Details)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO audit_log (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`, insertColumns)
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		entry.Timestamp,
		nullable(entry.ActorID),
		entry.ActorType,
		entry.Action,
		nullable(entry.ResourceType),
		nullable(entry.ResourceID),
		details,
		nullable(entry.IPAddress),
		nullable(entry.UserAgent),
		nullable(entry.RequestID),
		nullable(entry.ClientName),
		nullable(entry.ClientOS),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// InsertBatch applies all entries in one transaction, preserving order.
func (s *Store) InsertBatch(ctx context.Context, entries []audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO audit_log (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`, insertColumns)
	for _, entry := range entries {
		details, err := marshalDetails(entry.Details)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query,
			uuid.UUID(entry.ID),
			entry.Timestamp,
			nullable(entry.ActorID),
			entry.ActorType,
			entry.Action,
			nullable(entry.ResourceType),
			nullable(entry.ResourceID),
			details,
			nullable(entry.IPAddress),
			nullable(entry.UserAgent),
			nullable(entry.RequestID),
			nullable(entry.ClientName),
			nullable(entry.ClientOS),
		); err != nil {
			return fmt.Errorf("insert audit batch entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit batch: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, filter audit.Filter, page audit.Page) (audit.QueryResult, error) {
	query := `
		SELECT id, timestamp, actor_id, actor_type, action,
		       resource_type, resource_id, details,
		       ip_address, user_agent, request_id, client_name, client_os
		FROM audit_log
		WHERE 1=1`
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.ActorID != "" {
		add(" AND actor_id = $%d", filter.ActorID)
	}
	if filter.ActorType != "" {
		add(" AND actor_type = $%d", filter.ActorType)
	}
	if filter.Action != "" {
		add(" AND action = $%d", filter.Action)
	}
	if filter.ResourceType != "" {
		add(" AND resource_type = $%d", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		add(" AND resource_id = $%d", filter.ResourceID)
	}
	if filter.Since != nil {
		add(" AND timestamp >= $%d", *filter.Since)
	}
	if filter.Until != nil {
		add(" AND timestamp <= $%d", *filter.Until)
	}

	return s.queryPage(ctx, query, args, page)
}

func (s *Store) ByResource(ctx context.Context, resourceType, resourceID string) ([]audit.Entry, error) {
	query := `
		SELECT id, timestamp, actor_id, actor_type, action,
		       resource_type, resource_id, details,
		       ip_address, user_agent, request_id, client_name, client_os
		FROM audit_log
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY timestamp ASC`
	rows, err := s.db.QueryContext(ctx, query, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("query audit by resource: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ByActor(ctx context.Context, actorID string, page audit.Page) (audit.QueryResult, error) {
	query := `
		SELECT id, timestamp, actor_id, actor_type, action,
		       resource_type, resource_id, details,
		       ip_address, user_agent, request_id, client_name, client_os
		FROM audit_log
		WHERE actor_id = $1`
	return s.queryPage(ctx, query, []any{actorID}, page)
}

// queryPage appends ordering and offset pagination. The opaque cursor is a
// numeric offset; it is produced here and only ever handed back here.
func (s *Store) queryPage(ctx context.Context, query string, args []any, page audit.Page) (audit.QueryResult, error) {
	offset := 0
	if page.Cursor != "" {
		if n, err := strconv.Atoi(page.Cursor); err == nil && n > 0 {
			offset = n
		}
	}

	args = append(args, page.Limit+1, offset)
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return audit.QueryResult{}, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return audit.QueryResult{}, err
	}

	result := audit.QueryResult{Entries: entries}
	if len(entries) > page.Limit {
		result.Entries = entries[:page.Limit]
		result.HasMore = true
		result.NextCursor = strconv.Itoa(offset + page.Limit)
	}
	return result, nil
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			entry      audit.Entry
			entryID    uuid.UUID
			actorID    sql.NullString
			resType    sql.NullString
			resID      sql.NullString
			details    []byte
			ipAddress  sql.NullString
			userAgent  sql.NullString
			requestID  sql.NullString
			clientName sql.NullString
			clientOS   sql.NullString
		)
		if err := rows.Scan(
			&entryID, &entry.Timestamp, &actorID, &entry.ActorType, &entry.Action,
			&resType, &resID, &details,
			&ipAddress, &userAgent, &requestID, &clientName, &clientOS,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = id.AuditEventID(entryID)
		entry.ActorID = actorID.String
		entry.ResourceType = resType.String
		entry.ResourceID = resID.String
		entry.IPAddress = ipAddress.String
		entry.UserAgent = userAgent.String
		entry.RequestID = requestID.String
		entry.ClientName = clientName.String
		entry.ClientOS = clientOS.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func marshalDetails(details map[string]any) ([]byte, error) {
	if len(details) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode audit details: %w", err)
	}
	return payload, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
