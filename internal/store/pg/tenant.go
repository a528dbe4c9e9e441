package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	"github.com/dropDatabas3/tenantcore/internal/domain/types"
)

type tenantRepo struct {
	pool *pgxpool.Pool
}

func (r *tenantRepo) GetTenant(ctx context.Context, tenantID string) (*repository.Tenant, error) {
	const query = `SELECT id, name, slug FROM tenant WHERE id = $1`

	var ten repository.Tenant
	err := withCaller(ctx, r.pool, func(q querier) error {
		return q.QueryRow(ctx, query, tenantID).Scan(&ten.ID, &ten.Name, &ten.Slug)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ten, nil
}

func (r *tenantRepo) ListMemberships(ctx context.Context, userID string) ([]types.TenantMembership, error) {
	const query = `
		SELECT m.tenant_id, COALESCE(m.role, ''), t.name, m.is_primary
		FROM tenant_membership m
		JOIN tenant t ON t.id = m.tenant_id
		WHERE m.user_id = $1
		ORDER BY t.name
	`
	var out []types.TenantMembership
	err := withCaller(ctx, r.pool, func(q querier) error {
		rows, err := q.Query(ctx, query, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m types.TenantMembership
			var rawRole string
			if err := rows.Scan(&m.TenantID, &rawRole, &m.DisplayName, &m.IsPrimary); err != nil {
				return err
			}
			// Normalización en el boundary: nada upstream ve roles crudos.
			m.Role = types.NormalizeRole(rawRole)
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tenantRepo) GetMembership(ctx context.Context, userID, tenantID string) (*types.TenantMembership, error) {
	const query = `
		SELECT m.tenant_id, COALESCE(m.role, ''), t.name, m.is_primary
		FROM tenant_membership m
		JOIN tenant t ON t.id = m.tenant_id
		WHERE m.user_id = $1 AND m.tenant_id = $2
	`
	var m types.TenantMembership
	var rawRole string
	err := withCaller(ctx, r.pool, func(q querier) error {
		return q.QueryRow(ctx, query, userID, tenantID).Scan(&m.TenantID, &rawRole, &m.DisplayName, &m.IsPrimary)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Role = types.NormalizeRole(rawRole)
	return &m, nil
}
