// Package pg implementa repository.Store sobre PostgreSQL con pgx.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
)

// Store agrupa los repos pg sobre un pool compartido.
type Store struct {
	pool     *pgxpool.Pool
	profiles *profileRepo
	tenants  *tenantRepo
}

// Config del pool.
type Config struct {
	DSN             string
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// New abre el pool y verifica la conexión.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: dsn inválido: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return &Store{
		pool:     pool,
		profiles: &profileRepo{pool: pool},
		tenants:  &tenantRepo{pool: pool},
	}, nil
}

func (s *Store) Profiles() repository.ProfileRepository { return s.profiles }
func (s *Store) Tenants() repository.TenantRepository   { return s.tenants }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
