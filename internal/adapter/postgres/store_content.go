package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/PromptDesk/internal/domain/prompt"
)

const recordColumns = `id, tenant_id, owner_id, kind, name, description, content, created_at, updated_at`

func scanRecord(row scannable) (prompt.Record, error) {
	var r prompt.Record
	err := row.Scan(&r.ID, &r.TenantID, &r.OwnerID, &r.Kind, &r.Name, &r.Description, &r.Content, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) CreateRecord(ctx context.Context, r *prompt.Record) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO content_records (id, tenant_id, owner_id, kind, name, description, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.TenantID, r.OwnerID, r.Kind, r.Name, r.Description, r.Content, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create record: %w", mapPgError(err))
	}
	return nil
}

// UpdateRecord replaces the mutable fields of a record within its tenant.
// Owner and kind are fixed at creation.
func (s *Store) UpdateRecord(ctx context.Context, r *prompt.Record) error {
	r.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE content_records SET name = $3, description = $4, content = $5, updated_at = $6
		WHERE id = $1 AND tenant_id = $2`,
		r.ID, r.TenantID, r.Name, r.Description, r.Content, r.UpdatedAt)
	return oneRow(tag, err, "update record %s", r.ID)
}

func (s *Store) GetRecord(ctx context.Context, tenantID, id string) (*prompt.Record, error) {
	r, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM content_records WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err != nil {
		return nil, rowErr(err, "get record %s", id)
	}
	return &r, nil
}

// ListRecords returns a tenant's records, filtered by kind unless kind is empty.
func (s *Store) ListRecords(ctx context.Context, tenantID string, kind prompt.Kind) ([]prompt.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM content_records
		WHERE tenant_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY name, created_at`, tenantID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", mapPgError(err))
	}
	records, err := collect(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return records, nil
}

func (s *Store) CreateExecution(ctx context.Context, e *prompt.Execution) error {
	e.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO executions (id, record_id, tenant_id, user_id, model, success, latency_ms, cost_usd, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.RecordID, e.TenantID, e.UserID, e.Model, e.Success, e.LatencyMS, e.CostUSD, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create execution: %w", mapPgError(err))
	}
	return nil
}
