package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/PromptDesk/internal/domain/stats"
)

func (s *Store) Stats(ctx context.Context) (*stats.Summary, error) {
	var sum stats.Summary
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM tenants),
			(SELECT count(*) FROM tenants WHERE is_active),
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM users WHERE is_active),
			(SELECT count(*) FROM api_tokens),
			(SELECT count(*) FROM api_tokens WHERE revoked_at IS NULL),
			(SELECT count(*) FROM content_records),
			(SELECT count(*) FROM executions)`).Scan(
		&sum.Tenants, &sum.ActiveTenants, &sum.Users, &sum.ActiveUsers,
		&sum.APITokens, &sum.ActiveAPITokens, &sum.Records, &sum.Executions)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &sum, nil
}
