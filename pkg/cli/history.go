package cli

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// history persists REPL input lines across sessions in a small sqlite
// database under the user's home directory, the same durability a shell's
// .bash_history gives a user but queryable rather than a flat file.
type history struct {
	db *sql.DB
}

func openHistory() (*history, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	path := filepath.Join(home, ".lumen_history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		line TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &history{db: db}, nil
}

func (h *history) record(line string) {
	if h == nil || h.db == nil {
		return
	}
	_, _ = h.db.Exec(`INSERT INTO history (line) VALUES (?)`, line)
}

func (h *history) close() {
	if h == nil || h.db == nil {
		return
	}
	h.db.Close()
}
