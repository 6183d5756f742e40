package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:gradekeeper.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/gradekeeper?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS students (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'student',
  section_id TEXT NOT NULL DEFAULT '',
  github_user TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS problems (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  strategy TEXT NOT NULL DEFAULT '',
  params_json TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS problem_sets (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  num_required INTEGER NOT NULL DEFAULT 0,
  avg_method TEXT NOT NULL DEFAULT '',
  requirement TEXT NOT NULL DEFAULT '',
  items_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
  problem_set_id TEXT NOT NULL REFERENCES problem_sets(id) ON DELETE CASCADE,
  repo_url TEXT NOT NULL DEFAULT '',
  site_url TEXT NOT NULL DEFAULT '',
  rubric_json TEXT NOT NULL DEFAULT '',
  grade INTEGER NOT NULL DEFAULT 0,
  sync_state TEXT NOT NULL DEFAULT 'pending',
  sync_message TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  graded_at INTEGER
);

CREATE TABLE IF NOT EXISTS judge_results (
  submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
  problem_id TEXT NOT NULL,
  checks_passed INTEGER NOT NULL DEFAULT 0,
  checks_run INTEGER NOT NULL DEFAULT 0,
  style_score INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (submission_id, problem_id)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS students (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'student',
  section_id TEXT NOT NULL DEFAULT '',
  github_user TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS problems (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  strategy TEXT NOT NULL DEFAULT '',
  params_json TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS problem_sets (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  num_required INTEGER NOT NULL DEFAULT 0,
  avg_method TEXT NOT NULL DEFAULT '',
  requirement TEXT NOT NULL DEFAULT '',
  items_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
  problem_set_id TEXT NOT NULL REFERENCES problem_sets(id) ON DELETE CASCADE,
  repo_url TEXT NOT NULL DEFAULT '',
  site_url TEXT NOT NULL DEFAULT '',
  rubric_json TEXT NOT NULL DEFAULT '',
  grade INTEGER NOT NULL DEFAULT 0,
  sync_state TEXT NOT NULL DEFAULT 'pending',
  sync_message TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  graded_at BIGINT
);

CREATE TABLE IF NOT EXISTS judge_results (
  submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
  problem_id TEXT NOT NULL,
  checks_passed INTEGER NOT NULL DEFAULT 0,
  checks_run INTEGER NOT NULL DEFAULT 0,
  style_score INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (submission_id, problem_id)
);
`
