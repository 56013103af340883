// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"org-messaging/internal/model"
)

const uniqueViolation = "23505"

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{DB: db}, nil
}

// EnsureSchema creates the tables and the partial unique index that makes
// the store the final authority on active-title uniqueness.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS organizations (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			concurrency INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID NOT NULL,
			organization_id UUID NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (organization_id, id)
		) PARTITION BY LIST (organization_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS messages_org_active_title
			ON messages (organization_id, title) WHERE is_active`,
		`CREATE TABLE IF NOT EXISTS message_events (
			id UUID PRIMARY KEY,
			organization_id UUID NOT NULL,
			message_id UUID NOT NULL,
			action TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// EnsurePartition creates an organization partition if not exists
func (s *Storage) EnsurePartition(orgID uuid.UUID) error {
	partitionName := fmt.Sprintf("messages_%s", partitionSuffix(orgID))
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s PARTITION OF messages
		FOR VALUES IN ('%s')`, partitionName, orgID.String())

	_, err := s.DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create partition: %w", err)
	}
	return nil
}

func partitionSuffix(orgID uuid.UUID) string {
	out := make([]byte, 0, 32)
	for _, c := range orgID.String() {
		if c != '-' {
			out = append(out, byte(c))
		}
	}
	return string(out)
}

func (s *Storage) FindActiveByTitle(ctx context.Context, orgID uuid.UUID, title string) (*model.Message, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, organization_id, title, content, is_active, created_at, updated_at
		FROM messages
		WHERE organization_id = $1 AND title = $2 AND is_active
	`, orgID, title)
	return scanMessage(row)
}

func (s *Storage) GetByID(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*model.Message, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, organization_id, title, content, is_active, created_at, updated_at
		FROM messages
		WHERE organization_id = $1 AND id = $2
	`, orgID, id)
	return scanMessage(row)
}

func scanMessage(row *sql.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.OrganizationID, &m.Title, &m.Content, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return &m, nil
}

func (s *Storage) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Message, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, organization_id, title, content, is_active, created_at, updated_at
		FROM messages
		WHERE organization_id = $1
		ORDER BY created_at, id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.Title, &m.Content, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Storage) Insert(ctx context.Context, m *model.Message) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO messages (id, organization_id, title, content, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.OrganizationID, m.Title, m.Content, m.IsActive, m.CreatedAt, m.UpdatedAt)
	return mapUniqueViolation(err)
}

func (s *Storage) Update(ctx context.Context, m *model.Message) (*model.Message, error) {
	row := s.DB.QueryRowContext(ctx, `
		UPDATE messages
		SET title = $1, content = $2, is_active = $3, updated_at = $4
		WHERE organization_id = $5 AND id = $6
		RETURNING id, organization_id, title, content, is_active, created_at, updated_at
	`, m.Title, m.Content, m.IsActive, m.UpdatedAt, m.OrganizationID, m.ID)

	var out model.Message
	err := row.Scan(&out.ID, &out.OrganizationID, &out.Title, &out.Content, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &out, nil
}

func (s *Storage) Delete(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM messages WHERE organization_id = $1 AND id = $2
	`, orgID, id)
	if err != nil {
		return false, fmt.Errorf("delete failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// mapUniqueViolation turns postgres unique-index errors into the typed
// storage errors the logic layer understands. Violations surface under the
// per-partition index name, so match on the primary key suffix rather than
// the parent index name.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if strings.Contains(pqErr.Constraint, "pkey") {
			return ErrDuplicateID
		}
		return ErrDuplicateTitle
	}
	return fmt.Errorf("exec failed: %w", err)
}

func (s *Storage) InsertEvent(ctx context.Context, e *model.MessageEvent) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO message_events (id, organization_id, message_id, action, title, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.OrganizationID, e.MessageID, e.Action, e.Title, e.OccurredAt)
	return err
}

func (s *Storage) ListEventsByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.MessageEvent, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, organization_id, message_id, action, title, occurred_at
		FROM message_events
		WHERE organization_id = $1
		ORDER BY occurred_at, id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	events := make([]model.MessageEvent, 0)
	for rows.Next() {
		var e model.MessageEvent
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.MessageID, &e.Action, &e.Title, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Storage) CreateOrganization(org *model.Organization) error {
	_, err := s.DB.Exec(`
		INSERT INTO organizations (id, name, concurrency) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, org.ID, org.Name, org.Concurrency)
	return err
}

func (s *Storage) DeleteOrganization(id uuid.UUID) error {
	_, err := s.DB.Exec(`DELETE FROM organizations WHERE id = $1`, id)
	return err
}

func (s *Storage) ListOrganizations() ([]model.Organization, error) {
	rows, err := s.DB.Query(`SELECT id, name, concurrency, created_at FROM organizations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Concurrency, &o.CreatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func (s *Storage) UpdateOrganizationConcurrency(orgID uuid.UUID, workers int) error {
	_, err := s.DB.Exec(`
		UPDATE organizations
		SET concurrency = $1
		WHERE id = $2
	`, workers, orgID)
	return err
}
