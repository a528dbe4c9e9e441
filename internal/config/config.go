package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
	} `yaml:"server"`

	Storage struct {
		// pg | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	// Identity: parámetros para verificar tokens del identity provider externo.
	// Este core nunca emite credenciales, solo las verifica.
	Identity struct {
		Issuer string `yaml:"issuer"`
		// hs256 | eddsa
		Alg string `yaml:"alg"`
		// Secreto compartido (hs256) o public key hex (eddsa).
		Secret    string `yaml:"secret"`
		PublicKey string `yaml:"public_key"`
		// Tolerancia de clock para exp/nbf.
		Leeway string `yaml:"leeway"`
	} `yaml:"identity"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Switch  struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"switch"`
	} `yaml:"rate"`

	Permissions struct {
		// Timeout total de la resolución advisory (primario + fallback).
		Timeout string `yaml:"timeout"`
		// TTL del cache advisory (0 = sin cache).
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"permissions"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default retorna una configuración usable sin archivo YAML (dev/tests).
func Default() *Config {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c
}

func (c *Config) applyDefaults() {
	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Identity.Alg == "" {
		c.Identity.Alg = "hs256"
	}
	if c.Identity.Leeway == "" {
		c.Identity.Leeway = "30s"
	}
	if c.Rate.Switch.Limit == 0 {
		c.Rate.Switch.Limit = 10
	}
	if c.Rate.Switch.Window == "" {
		c.Rate.Switch.Window = "1m"
	}
	if c.Permissions.Timeout == "" {
		c.Permissions.Timeout = "3s"
	}
	if c.Permissions.CacheTTL == "" {
		c.Permissions.CacheTTL = "30s"
	}
}

// applyEnvOverrides pisa valores del YAML con variables de entorno.
// Útil en containers donde no queremos montar archivos de config.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("CACHE_KIND"); v != "" {
		c.Cache.Kind = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("IDENTITY_ISSUER"); v != "" {
		c.Identity.Issuer = v
	}
	if v := os.Getenv("IDENTITY_ALG"); v != "" {
		c.Identity.Alg = v
	}
	if v := os.Getenv("IDENTITY_SECRET"); v != "" {
		c.Identity.Secret = v
	}
	if v := os.Getenv("IDENTITY_PUBLIC_KEY"); v != "" {
		c.Identity.PublicKey = v
	}
	if v, ok := getEnvInt("RATE_SWITCH_LIMIT"); ok {
		c.Rate.Switch.Limit = v
	}
}

// Validate chequea coherencia y parseabilidad de duraciones.
func (c *Config) Validate() error {
	for name, d := range map[string]string{
		"server.read_timeout":      c.Server.ReadTimeout,
		"server.write_timeout":     c.Server.WriteTimeout,
		"cache.memory.default_ttl": c.Cache.Memory.DefaultTTL,
		"identity.leeway":          c.Identity.Leeway,
		"rate.switch.window":       c.Rate.Switch.Window,
		"permissions.timeout":      c.Permissions.Timeout,
		"permissions.cache_ttl":    c.Permissions.CacheTTL,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("config: %s inválido: %w", name, err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("config: storage.postgres.conn_max_lifetime inválido: %w", err)
		}
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "pg":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("config: storage.driver=pg requiere storage.dsn")
		}
	case "memory":
	default:
		return fmt.Errorf("config: storage.driver desconocido: %q", c.Storage.Driver)
	}

	switch strings.ToLower(c.Identity.Alg) {
	case "hs256":
		if strings.EqualFold(c.App.Env, "prod") && c.Identity.Secret == "" {
			return fmt.Errorf("config: identity.secret es obligatorio en prod con hs256")
		}
	case "eddsa":
		if c.Identity.PublicKey == "" {
			return fmt.Errorf("config: identity.alg=eddsa requiere identity.public_key")
		}
	default:
		return fmt.Errorf("config: identity.alg desconocido: %q", c.Identity.Alg)
	}
	return nil
}

// MustDuration parsea una duración ya validada por Validate.
func MustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func getEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
