package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/emailtype/internal/domain"
	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/ignite/emailtype/internal/service/suppression"
	"github.com/lib/pq"
)

// domainMajorOrder sorts rows exactly like emailaddr.Compare. The "C"
// collation makes Postgres compare bytes, matching the Go comparison.
const domainMajorOrder = `email_domain COLLATE "C", email_local COLLATE "C"`

// SuppressionRepo implements suppression.Repository against PostgreSQL.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

func (r *SuppressionRepo) IsSuppressed(ctx context.Context, orgID string, addr emailaddr.Address) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM email_suppressions
			WHERE organization_id = $1 AND email = $2 AND active = true
		)`, orgID, addr,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check suppression: %w", err)
	}
	return exists, nil
}

func (r *SuppressionRepo) FilterSuppressed(ctx context.Context, orgID string, addrs []emailaddr.Address) ([]emailaddr.Address, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(addrs))
	for i, a := range addrs {
		texts[i] = a.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT email FROM email_suppressions
		WHERE organization_id = $1 AND active = true AND email = ANY($2)
		ORDER BY `+domainMajorOrder,
		orgID, pq.Array(texts),
	)
	if err != nil {
		return nil, fmt.Errorf("filter suppressed: %w", err)
	}
	defer rows.Close()

	var out []emailaddr.Address
	for rows.Next() {
		var a emailaddr.Address
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan suppressed email: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Suppress inserts s, or reactivates the existing row for the same org and
// address. s.ID and s.CreatedAt are set from the stored row.
func (r *SuppressionRepo) Suppress(ctx context.Context, s *domain.Suppression) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO email_suppressions
			(id, organization_id, email, email_local, email_domain, email_hash,
			 reason, source, isp, dsn_code, dsn_diag, source_ip, campaign_id,
			 active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, true, NOW(), NOW())
		ON CONFLICT (organization_id, email) DO UPDATE
		SET reason = EXCLUDED.reason, source = EXCLUDED.source, active = true, updated_at = NOW()
		RETURNING id, created_at
	`, s.ID, s.OrganizationID, s.Email, s.Email.Local(), s.Email.Domain(), int64(s.Email.Hash()),
		s.Reason, s.Source, s.ISP, s.DSNCode, s.DSNDiag, s.SourceIP, s.CampaignID,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("suppress: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Remove(ctx context.Context, orgID string, addr emailaddr.Address) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_suppressions SET active = false, updated_at = NOW()
		WHERE organization_id = $1 AND email = $2 AND active = true
	`, orgID, addr)
	if err != nil {
		return fmt.Errorf("remove suppression: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return suppression.ErrNotFound
	}
	return nil
}

// listWhere builds the WHERE clause shared by List's count and page queries.
func listWhere(orgID string, f suppression.ListFilter) (string, []interface{}) {
	conds := []string{"organization_id = $1", "active = true"}
	args := []interface{}{orgID}
	add := func(col, val string) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.Reason != "" {
		add("reason", f.Reason)
	}
	if f.Source != "" {
		add("source", f.Source)
	}
	if f.Domain != "" {
		add("email_domain", f.Domain)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *SuppressionRepo) List(ctx context.Context, orgID string, f suppression.ListFilter) ([]domain.Suppression, int, error) {
	where, args := listWhere(orgID, f)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_suppressions`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppressions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}

	q := `
		SELECT id, email, email_hash, reason, source,
		       COALESCE(isp,''), COALESCE(dsn_code,''), COALESCE(campaign_id,''), created_at
		FROM email_suppressions` + where +
		fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", domainMajorOrder, len(args)+1, len(args)+2)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suppression
	for rows.Next() {
		var (
			s    domain.Suppression
			hash int64
		)
		if err := rows.Scan(&s.ID, &s.Email, &hash, &s.Reason, &s.Source,
			&s.ISP, &s.DSNCode, &s.CampaignID, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan suppression: %w", err)
		}
		s.OrganizationID = orgID
		s.Hash = uint32(hash)
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *SuppressionRepo) Count(ctx context.Context, orgID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM email_suppressions WHERE organization_id = $1 AND active = true`,
		orgID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count suppressions: %w", err)
	}
	return n, nil
}

func (r *SuppressionRepo) AllAddresses(ctx context.Context, orgID string) ([]emailaddr.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email FROM email_suppressions WHERE organization_id = $1 AND active = true ORDER BY `+domainMajorOrder,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("all suppressed addresses: %w", err)
	}
	defer rows.Close()

	var out []emailaddr.Address
	for rows.Next() {
		var a emailaddr.Address
		if err := rows.Scan(&a); err != nil {
			var verr *emailaddr.ValidationError
			if errors.As(err, &verr) {
				return nil, fmt.Errorf("stored address %q is invalid: %w", verr.Input, err)
			}
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
