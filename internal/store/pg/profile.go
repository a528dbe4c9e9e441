package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
)

type profileRepo struct {
	pool *pgxpool.Pool
}

func (r *profileRepo) GetProfile(ctx context.Context, userID string) (*repository.Profile, error) {
	const query = `
		SELECT user_id, active_tenant_id, COALESCE(role, ''), created_at, updated_at
		FROM user_profile
		WHERE user_id = $1
	`
	var prof repository.Profile
	err := withCaller(ctx, r.pool, func(q querier) error {
		return q.QueryRow(ctx, query, userID).Scan(
			&prof.UserID, &prof.ActiveTenantID, &prof.RawRole,
			&prof.CreatedAt, &prof.UpdatedAt,
		)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// SetActiveTenant es el único write path del core. Un solo UPDATE keyed por
// user_id, condicionado a la membership: dos switches concurrentes del mismo
// usuario se serializan en el row lock y el puntero siempre termina en uno
// de los dos valores pedidos, nunca en un estado intermedio.
func (r *profileRepo) SetActiveTenant(ctx context.Context, userID, tenantID string) error {
	const update = `
		UPDATE user_profile
		SET active_tenant_id = $2, updated_at = now()
		WHERE user_id = $1
		  AND EXISTS (
			SELECT 1 FROM tenant_membership m
			WHERE m.user_id = $1 AND m.tenant_id = $2
		  )
	`
	return withCaller(ctx, r.pool, func(q querier) error {
		tag, err := q.Exec(ctx, update, userID, tenantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		// El update no tocó filas: desambiguar para el error mapper.
		// Estas lecturas corren solo en el camino de fallo.
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tenant WHERE id = $1)`, tenantID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		// Tenant existe pero no hay membership (o no hay perfil).
		return repository.ErrAccessDenied
	})
}
