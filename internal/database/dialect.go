package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// SQLite file path
	Path string

	// PostgreSQL/MySQL connection URL
	URL string
}

// Dialect describes one supported SQL backend. Queries are written with ?
// placeholders and rewritten per backend.
type Dialect struct {
	Name   string
	driver string

	numberedParams bool
	lastInsertID   bool
	trueLiteral    string
	idColumn       string
	timeColumn     string

	dsn       func(DialectConfig) string
	afterOpen func(*sql.DB) error
}

var (
	SQLite = &Dialect{
		Name:         "sqlite",
		driver:       "sqlite3",
		lastInsertID: true,
		trueLiteral:  "1",
		idColumn:     "INTEGER PRIMARY KEY AUTOINCREMENT",
		timeColumn:   "DATETIME DEFAULT CURRENT_TIMESTAMP",
		// Pragmas go in the DSN so every pooled connection gets them.
		dsn: func(c DialectConfig) string {
			return appendParams(c.Path, "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
		},
	}

	Postgres = &Dialect{
		Name:           "postgres",
		driver:         "postgres",
		numberedParams: true,
		trueLiteral:    "TRUE",
		idColumn:       "BIGSERIAL PRIMARY KEY",
		timeColumn:     "TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP",
		dsn:            func(c DialectConfig) string { return c.URL },
	}

	MySQL = &Dialect{
		Name:         "mysql",
		driver:       "mysql",
		lastInsertID: true,
		trueLiteral:  "TRUE",
		idColumn:     "BIGINT AUTO_INCREMENT PRIMARY KEY",
		timeColumn:   "DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)",
		// parseTime makes DATETIME columns scan into time.Time
		dsn: func(c DialectConfig) string {
			if strings.Contains(c.URL, "parseTime=") {
				return c.URL
			}
			return appendParams(c.URL, "parseTime=true")
		},
		afterOpen: func(db *sql.DB) error {
			_, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1")
			return err
		},
	}
)

// DialectFor maps a DATABASE_TYPE value to its dialect
func DialectFor(databaseType string) (*Dialect, error) {
	switch strings.ToLower(databaseType) {
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", databaseType)
}

func appendParams(base, params string) string {
	if strings.Contains(base, "?") {
		return base + "&" + params
	}
	return base + "?" + params
}

// DriverName returns the driver name for sql.Open
func (d *Dialect) DriverName() string { return d.driver }

// DSN returns the data source name for the connection
func (d *Dialect) DSN(c DialectConfig) string { return d.dsn(c) }

// SupportsLastInsertId reports whether sql.Result.LastInsertId works.
// PostgreSQL needs a RETURNING clause instead.
func (d *Dialect) SupportsLastInsertId() bool { return d.lastInsertID }

// MigrationsSubdir names the directory holding this backend's migrations
func (d *Dialect) MigrationsSubdir() string { return d.Name }

// BoolValue returns the SQL literal for a boolean
func (d *Dialect) BoolValue(b bool) string {
	switch {
	case !b && d.trueLiteral == "1":
		return "0"
	case !b:
		return "FALSE"
	}
	return d.trueLiteral
}

// CreateMigrationsTableQuery returns the SQL for the migrations tracking table
func (d *Dialect) CreateMigrationsTableQuery() string {
	filename := "TEXT UNIQUE NOT NULL"
	if d == MySQL {
		filename = "VARCHAR(255) UNIQUE NOT NULL"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS migrations (
	id %s,
	filename %s,
	executed_at %s
)`, d.idColumn, filename, d.timeColumn)
}

// configure applies pool settings shared by every backend, then any
// backend specific session setup.
func (d *Dialect) configure(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
	if d.afterOpen != nil {
		return d.afterOpen(db)
	}
	return nil
}

// RewriteQuery converts ? placeholders to $1, $2, ... for backends that need
// numbered parameters. Question marks inside single-quoted literals are kept.
func (d *Dialect) RewriteQuery(query string) string {
	if !d.numberedParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			quoted = !quoted
		}
		if c == '?' && !quoted {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
