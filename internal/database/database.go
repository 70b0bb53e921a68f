package database

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// New creates a new SQLite connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	dsn := dataSourceName
	memory := strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
	if !memory {
		if strings.Contains(dsn, "?") {
			dsn += "&" + pragmas
		} else {
			dsn += "?" + pragmas
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		// Every connection to an in-memory database sees its own copy.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
