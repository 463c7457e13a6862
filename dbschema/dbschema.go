// Package dbschema provides database connections with dialect detection and
// access to the matching schema introspection reader.
package dbschema

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver

	"github.com/talentbridge/crmsync/dbschema/mysql"
	"github.com/talentbridge/crmsync/dbschema/postgres"
	"github.com/talentbridge/crmsync/dbschema/sqlite"
	"github.com/talentbridge/crmsync/dbschema/types"
)

// Supported dialect identifiers, derived from the connection URL scheme.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// DatabaseConnection wraps a sql.DB together with its dialect and schema
// reader. The job uses a single connection for migration and loading; sqlite
// additionally pins the pool to one connection so in-memory databases behave.
type DatabaseConnection struct {
	db      *sql.DB
	dialect string
	reader  types.SchemaReader
}

// ConnectToDatabase opens a connection for the given URL. Supported schemes:
// postgres:// (pgx), mysql:// and sqlite:// (path after the scheme, ":memory:"
// for in-memory).
func ConnectToDatabase(dbURL string) (*DatabaseConnection, error) {
	dialect, err := DialectFromURL(dbURL)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect {
	case DialectPostgres:
		db, err = sql.Open("pgx", dbURL)
	case DialectMySQL:
		var dsn string
		dsn, err = mysqlDSN(dbURL)
		if err == nil {
			db, err = sql.Open("mysql", dsn)
		}
	case DialectSQLite:
		path := strings.TrimPrefix(dbURL, "sqlite://")
		db, err = sql.Open("sqlite", path)
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", dialect, err)
	}

	conn := &DatabaseConnection{db: db, dialect: dialect}
	switch dialect {
	case DialectPostgres:
		conn.reader = postgres.NewReader(db, "")
	case DialectMySQL:
		conn.reader = mysql.NewReader(db)
	case DialectSQLite:
		conn.reader = sqlite.NewReader(db)
	}
	return conn, nil
}

// DialectFromURL derives the dialect from a connection URL scheme.
func DialectFromURL(dbURL string) (string, error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return DialectPostgres, nil
	case strings.HasPrefix(dbURL, "mysql://"):
		return DialectMySQL, nil
	case strings.HasPrefix(dbURL, "sqlite://"):
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported database URL %q (expected postgres://, mysql:// or sqlite://)", redactURL(dbURL))
}

// Dialect returns the connection's dialect identifier.
func (c *DatabaseConnection) Dialect() string {
	return c.dialect
}

// DB returns the underlying sql.DB.
func (c *DatabaseConnection) DB() *sql.DB {
	return c.db
}

// Reader returns the schema introspection reader for this dialect.
func (c *DatabaseConnection) Reader() types.SchemaReader {
	return c.reader
}

// Close closes the underlying connection pool.
func (c *DatabaseConnection) Close() error {
	return c.db.Close()
}

// mysqlDSN converts a mysql:// URL into a go-sql-driver DSN.
func mysqlDSN(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("invalid mysql URL: %w", err)
	}
	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	// Timestamps must come back as time.Time for coercion-free scanning.
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}
	for key, values := range u.Query() {
		if len(values) > 0 {
			cfg.Params[key] = values[0]
		}
	}
	return cfg.FormatDSN(), nil
}

// redactURL strips credentials from a URL before it appears in an error.
func redactURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<unparseable url>"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.Redacted()
}
