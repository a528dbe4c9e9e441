// seed carga datos de demo contra Postgres: un par de tenants, un usuario
// con memberships y el puntero de tenant activo ya apuntando al primario.
// Pensado para entornos de dev; es idempotente vía upserts.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/tenantcore/internal/config"
)

func strEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

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

	userID := strEnv("SEED_USER_ID", "user-demo")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	tenants := []struct {
		id, name, slug string
	}{
		{"tnt-acme", "Acme Corp", "acme"},
		{"tnt-globex", "Globex", "globex"},
	}
	for _, t := range tenants {
		if _, err := pool.Exec(ctx, `
			INSERT INTO tenant (id, name, slug) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug`,
			t.id, t.name, t.slug,
		); err != nil {
			log.Fatalf("tenant %s: %v", t.id, err)
		}
	}

	memberships := []struct {
		tenantID, role string
		primary        bool
	}{
		{"tnt-acme", "admin", true},
		{"tnt-globex", "member", false},
	}
	for _, m := range memberships {
		if _, err := pool.Exec(ctx, `
			INSERT INTO tenant_membership (user_id, tenant_id, role, display_name, is_primary)
			SELECT $1, $2, $3, t.name, $4 FROM tenant t WHERE t.id = $2
			ON CONFLICT (user_id, tenant_id) DO UPDATE
				SET role = EXCLUDED.role, is_primary = EXCLUDED.is_primary`,
			userID, m.tenantID, m.role, m.primary,
		); err != nil {
			log.Fatalf("membership %s: %v", m.tenantID, err)
		}
	}

	// Puntero activo: arranca en el tenant primario.
	if _, err := pool.Exec(ctx, `
		INSERT INTO user_profile (user_id, active_tenant_id, role)
		VALUES ($1, 'tnt-acme', 'admin')
		ON CONFLICT (user_id) DO UPDATE SET active_tenant_id = EXCLUDED.active_tenant_id`,
		userID,
	); err != nil {
		log.Fatalf("profile: %v", err)
	}

	log.Printf("seed listo: user=%s tenants=%d", userID, len(tenants))
}
