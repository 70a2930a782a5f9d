// Package postgres persists governed resources. Status transitions are
// conditional UPDATEs: the WHERE clause carries the expected prior status,
// so a transition that lost a race affects zero rows instead of
// double-applying.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"aide/internal/governance/models"
	"aide/internal/governance/service"
	id "aide/pkg/domain"
	"aide/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const resourceColumns = `
	id, type, title, content, category, tags,
	author_id, reviewer_id, status, version,
	active, scope, activated_at, published_at, created_at, updated_at
`

func (s *Store) Create(ctx context.Context, r *models.Resource) error {
	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	query := fmt.Sprintf(`
		INSERT INTO resources (%s)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`, resourceColumns)
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), r.Type, r.Title, r.Content, nullable(r.Category), tags,
		r.AuthorID, nullable(r.ReviewerID), string(r.Status), r.Version,
		r.Active, nullable(r.Scope), r.ActivatedAt, r.PublishedAt, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE id = $1`, resourceColumns)
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(resourceID))
	resource, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return resource, nil
}

// Update writes content and metadata columns only. Lifecycle columns
// (status, reviewer, published_at, active) are owned by UpdateStatus and
// ActivateExclusive.
func (s *Store) Update(ctx context.Context, r *models.Resource) error {
	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE resources
		SET title = $2, content = $3, category = $4, tags = $5,
		    version = $6, updated_at = $7
		WHERE id = $1`,
		uuid.UUID(r.ID), r.Title, r.Content, nullable(r.Category), tags,
		r.Version, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, resourceID id.ResourceID, from, to models.Status, change service.StatusChange) (*models.Resource, error) {
	var (
		reviewer    any
		setReviewer bool
	)
	if change.ReviewerID != nil {
		setReviewer = true
		reviewer = nullable(*change.ReviewerID)
	}

	query := fmt.Sprintf(`
		UPDATE resources
		SET status = $3,
		    reviewer_id = CASE WHEN $4 THEN $5 ELSE reviewer_id END,
		    published_at = COALESCE($6, published_at),
		    updated_at = $7
		WHERE id = $1 AND status = $2
		RETURNING %s`, resourceColumns)

	row := s.db.QueryRowContext(ctx, query,
		uuid.UUID(resourceID), string(from), string(to),
		setReviewer, reviewer, change.PublishedAt, change.UpdatedAt,
	)
	resource, err := scanResource(row)
	if err == nil {
		return resource, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update resource status: %w", err)
	}

	// Zero rows: distinguish a missing resource from a lost race.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1)`,
		uuid.UUID(resourceID),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("update resource status: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrStaleStatus
}

func (s *Store) CreateVersionSnapshot(ctx context.Context, snapshot models.VersionSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resource_versions (resource_id, version, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (resource_id, version) DO NOTHING`,
		uuid.UUID(snapshot.ResourceID), snapshot.Version, snapshot.Title, snapshot.Content, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert version snapshot: %w", err)
	}
	return nil
}

func (s *Store) ListVersionHistory(ctx context.Context, resourceID id.ResourceID) ([]models.VersionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT resource_id, version, title, content, created_at
		FROM resource_versions
		WHERE resource_id = $1
		ORDER BY version ASC`,
		uuid.UUID(resourceID),
	)
	if err != nil {
		return nil, fmt.Errorf("list version history: %w", err)
	}
	defer rows.Close()

	var history []models.VersionSnapshot
	for rows.Next() {
		var (
			snapshot models.VersionSnapshot
			rid      uuid.UUID
		)
		if err := rows.Scan(&rid, &snapshot.Version, &snapshot.Title, &snapshot.Content, &snapshot.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version snapshot: %w", err)
		}
		snapshot.ResourceID = id.ResourceID(rid)
		history = append(history, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate version history: %w", err)
	}
	return history, nil
}

func (s *Store) List(ctx context.Context, resourceType string, filter service.Filter, page service.Page) (service.ListResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE type = $1`, resourceColumns)
	args := []any{resourceType}

	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.Status != "" {
		add(" AND status = $%d", string(filter.Status))
	}
	if filter.AuthorID != "" {
		add(" AND author_id = $%d", filter.AuthorID)
	}
	if filter.Category != "" {
		add(" AND category = $%d", filter.Category)
	}

	offset := 0
	if page.Cursor != "" {
		if n, err := strconv.Atoi(page.Cursor); err == nil && n > 0 {
			offset = n
		}
	}
	args = append(args, page.Limit+1, offset)
	query += fmt.Sprintf(" ORDER BY created_at ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return service.ListResult{}, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var items []*models.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return service.ListResult{}, fmt.Errorf("scan resource: %w", err)
		}
		items = append(items, resource)
	}
	if err := rows.Err(); err != nil {
		return service.ListResult{}, fmt.Errorf("iterate resources: %w", err)
	}

	result := service.ListResult{Items: items}
	if len(items) > page.Limit {
		result.Items = items[:page.Limit]
		result.HasMore = true
		result.NextCursor = strconv.Itoa(offset + page.Limit)
	}
	return result, nil
}

// ActivateExclusive makes the given published resource the single active
// holder in its scope, deactivating the previous holder in the same
// transaction.
func (s *Store) ActivateExclusive(ctx context.Context, resourceID id.ResourceID, now time.Time) (*models.Resource, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin activation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var resType string
	var scope sql.NullString
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT type, scope, status FROM resources WHERE id = $1 FOR UPDATE`,
		uuid.UUID(resourceID),
	).Scan(&resType, &scope, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock resource for activation: %w", err)
	}
	if models.Status(status) != models.StatusPublished {
		return nil, sentinel.ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE resources
		SET active = FALSE, updated_at = $3
		WHERE type = $1 AND scope IS NOT DISTINCT FROM $2 AND active = TRUE`,
		resType, scope, now,
	); err != nil {
		return nil, fmt.Errorf("deactivate previous holder: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE resources
		SET active = TRUE, activated_at = $2, updated_at = $2
		WHERE id = $1
		RETURNING %s`, resourceColumns)
	resource, err := scanResource(tx.QueryRowContext(ctx, query, uuid.UUID(resourceID), now))
	if err != nil {
		return nil, fmt.Errorf("activate resource: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit activation: %w", err)
	}
	return resource, nil
}

// ActiveInScope returns the current active holder for a type and scope.
func (s *Store) ActiveInScope(ctx context.Context, resourceType, scope string) (*models.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM resources
		WHERE type = $1 AND scope IS NOT DISTINCT FROM $2 AND active = TRUE`, resourceColumns)
	resource, err := scanResource(s.db.QueryRowContext(ctx, query, resourceType, nullable(scope)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get active resource: %w", err)
	}
	return resource, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*models.Resource, error) {
	var (
		r           models.Resource
		rid         uuid.UUID
		category    sql.NullString
		tags        []byte
		reviewer    sql.NullString
		status      string
		scope       sql.NullString
		activatedAt sql.NullTime
		publishedAt sql.NullTime
	)
	if err := row.Scan(
		&rid, &r.Type, &r.Title, &r.Content, &category, &tags,
		&r.AuthorID, &reviewer, &status, &r.Version,
		&r.Active, &scope, &activatedAt, &publishedAt, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.ID = id.ResourceID(rid)
	r.Category = category.String
	r.ReviewerID = reviewer.String
	r.Status = models.Status(status)
	r.Scope = scope.String
	if activatedAt.Valid {
		t := activatedAt.Time
		r.ActivatedAt = &t
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		r.PublishedAt = &t
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &r.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &r, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation matches postgres error code 23505 without importing the
// driver's error type into the store's public surface.
func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	return errors.As(err, &c) && c.SQLState() == "23505"
}
