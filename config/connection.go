package config

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

func NewConnection(cfg *Config) (*sql.DB, error) {
	if !cfg.HasDatabase() {
		return nil, errors.New("postgres is not configured (set PG_HOST and PG_DBNAME)")
	}
	return sql.Open("postgres", ConnString(cfg))
}

func ConnString(cfg *Config) string {
	connStr := fmt.Sprintf("host=%s dbname=%s sslmode=%s", cfg.PgHost, cfg.PgDBName, cfg.PgSSLMode)
	if cfg.PgPort != "" {
		connStr += " port=" + cfg.PgPort
	}
	if cfg.PgUser != "" {
		connStr += " user=" + cfg.PgUser
	}
	if cfg.PgPass != "" {
		connStr += " password=" + cfg.PgPass
	}
	return connStr
}
