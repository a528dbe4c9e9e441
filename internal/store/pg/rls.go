package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
)

// insufficient_privilege: una policy de row-level security rechazó la query.
const sqlstateInsufficientPrivilege = "42501"

// toDomainErr traduce errores del driver a los sentinels del dominio. Un
// rechazo de RLS es un acceso denegado del caller, no un error interno del
// backend; el resto pasa sin tocar (pgx.ErrNoRows incluido, lo desambiguan
// los repos).
func toDomainErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlstateInsufficientPrivilege {
		return repository.ErrAccessDenied
	}
	return err
}

// withCaller ejecuta f dentro de una transacción que expone la credencial
// del caller como GUC local (request.credential). Las policies de row-level
// security del schema la usan para derivar el usuario efectivo: los lookups
// del resolver corren con los mismos permisos que una query directa del
// cliente, nunca con privilegios elevados.
//
// Si no hay credencial en el ctx (dev sin RLS), se ejecuta directo sobre el
// pool.
func withCaller(ctx context.Context, pool *pgxpool.Pool, f func(q querier) error) error {
	cred := repository.Credential(ctx)
	if cred == "" {
		return toDomainErr(f(pool))
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT set_config('request.credential', $1, true)`, cred); err != nil {
		return err
	}
	if err := f(tx); err != nil {
		return toDomainErr(err)
	}
	return tx.Commit(ctx)
}

// querier es el subconjunto común de pgxpool.Pool y pgx.Tx que usan los repos.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
