package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// HistoryName is the pull history database kept in snapshot directory.
// Hidden, so it is never taken for a version.
const HistoryName = ".spritec.db"

const historySchema = `
CREATE TABLE IF NOT EXISTS pulls (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	version   TEXT    NOT NULL,
	url       TEXT    NOT NULL,
	pulled_at INTEGER NOT NULL,
	resources INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS pulls_version ON pulls(version);
`

// Pull describes single successful pull.
type Pull struct {
	Version   string
	URL       string
	PulledAt  time.Time
	Resources int
}

// History records pulls made into snapshot directory.
type History struct {
	conn *sqlite.Conn
}

// OpenHistory opens (creating when necessary) pull history of snapshot
// directory dir.
func OpenHistory(dir string) (*History, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create snapshot directory: %w", err)
	}
	conn, err := sqlite.OpenConn(filepath.Join(dir, HistoryName), sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("unable to open pull history: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, historySchema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare pull history: %w", err)
	}
	return &History{conn: conn}, nil
}

func (h *History) Close() error {
	return h.conn.Close()
}

// Record adds p to history.
func (h *History) Record(p Pull) error {
	err := sqlitex.Execute(h.conn,
		`INSERT INTO pulls (version, url, pulled_at, resources) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{p.Version, p.URL, p.PulledAt.UnixMilli(), p.Resources}})
	if err != nil {
		return fmt.Errorf("unable to record pull of %s: %w", p.Version, err)
	}
	return nil
}

// Last returns the most recent pull of every version.
func (h *History) Last() (map[string]Pull, error) {
	pulls := make(map[string]Pull)
	// rows come in order, later pulls overwrite earlier ones
	err := sqlitex.Execute(h.conn,
		`SELECT version, url, pulled_at, resources FROM pulls ORDER BY pulled_at, id`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			p := Pull{
				Version:   stmt.ColumnText(0),
				URL:       stmt.ColumnText(1),
				PulledAt:  time.UnixMilli(stmt.ColumnInt64(2)),
				Resources: stmt.ColumnInt(3),
			}
			pulls[p.Version] = p
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("unable to read pull history: %w", err)
	}
	return pulls, nil
}
