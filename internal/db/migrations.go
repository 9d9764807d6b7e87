package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	statements := []struct {
		name  string
		query string
	}{
		{"receipts", `
			CREATE TABLE IF NOT EXISTS receipts (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				email        TEXT NOT NULL,
				name         TEXT NOT NULL,
				cells        TEXT NOT NULL DEFAULT '',
				submitted_at DATETIME NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_receipts_email ON receipts(email, submitted_at);
		`},
		{"counters", `
			CREATE TABLE IF NOT EXISTS counters (
				name       TEXT PRIMARY KEY,
				value      INTEGER NOT NULL DEFAULT 0,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
		`},
		{"visitor_estimates", `
			CREATE TABLE IF NOT EXISTS visitor_estimates (
				id          INTEGER PRIMARY KEY CHECK(id = 1),
				count       INTEGER NOT NULL,
				computed_at DATETIME NOT NULL
			);
		`},
		{"schedule_snapshots", `
			CREATE TABLE IF NOT EXISTS schedule_snapshots (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				payload    TEXT NOT NULL,
				fetched_at DATETIME NOT NULL
			);
		`},
	}

	for _, st := range statements {
		if _, err := s.db.Exec(st.query); err != nil {
			return fmt.Errorf("creating %s table: %w", st.name, err)
		}
	}

	return nil
}
