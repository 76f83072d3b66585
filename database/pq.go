package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/starbooks/monitoring-api/config"
)

// DSN builds the PostgreSQL connection string shared by gorm and lib/pq
func DSN(env *config.Environment) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)
}

// OpenSQL opens a plain database/sql pool on the lib/pq driver, used where
// raw statements such as pg_notify are issued
func OpenSQL(env *config.Environment) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(env))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
