package storage

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgres opens and pings a Postgres connection.
func NewPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
