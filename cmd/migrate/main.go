// migrate aplica las migraciones embebidas del esquema core contra Postgres.
// Idempotente: lleva un registro en schema_migrations y saltea lo aplicado.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/tenantcore/internal/config"
	migrations "github.com/dropDatabas3/tenantcore/migrations/postgres"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "ruta del config YAML (vacío = env DATABASE_DSN)")
	flag.Parse()

	var dsn string
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		dsn = cfg.Storage.DSN
	} else {
		dsn = os.Getenv("DATABASE_DSN")
	}
	if dsn == "" {
		log.Fatal("falta el DSN (flag -config o env DATABASE_DSN)")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}

	entries, err := migrations.CoreFS.ReadDir(migrations.CoreDir)
	if err != nil {
		log.Fatalf("leer migraciones embebidas: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		var exists bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, name,
		).Scan(&exists); err != nil {
			log.Fatalf("chequear %s: %v", name, err)
		}
		if exists {
			continue
		}

		sqlBytes, err := migrations.CoreFS.ReadFile(path.Join(migrations.CoreDir, name))
		if err != nil {
			log.Fatalf("leer %s: %v", name, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			log.Fatalf("begin %s: %v", name, err)
		}
		if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatalf("exec %s: %v", name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (name) VALUES ($1)`, name,
		); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatalf("registrar %s: %v", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			log.Fatalf("commit %s: %v", name, err)
		}
		log.Printf("aplicada %s", name)
		applied++
	}

	if applied == 0 {
		log.Println("nada para aplicar")
	} else {
		log.Printf("%d migración(es) aplicadas", applied)
	}
}
