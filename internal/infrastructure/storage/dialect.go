package storage

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const ledgerTable = "ledger_entries"

// dialect captures what differs between the supported SQL engines.
type dialect struct {
	driver      string
	placeholder sq.PlaceholderFormat
	schema      []string
}

var dialects = map[string]dialect{
	"sqlite": {
		driver:      "sqlite",
		placeholder: sq.Question,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS ledger_entries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				link TEXT NOT NULL UNIQUE,
				source TEXT NOT NULL,
				message_id INTEGER,
				published_at BIGINT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS ledger_entries_published_at_idx ON ledger_entries (published_at)`,
		},
	},
	"postgres": {
		driver:      "postgres",
		placeholder: sq.Dollar,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS ledger_entries (
				id BIGSERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				link TEXT NOT NULL UNIQUE,
				source TEXT NOT NULL,
				message_id BIGINT,
				published_at BIGINT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS ledger_entries_published_at_idx ON ledger_entries (published_at)`,
		},
	},
}

func lookupDialect(name string) (dialect, error) {
	if name == "" {
		name = "sqlite"
	}
	d, ok := dialects[name]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
	return d, nil
}
