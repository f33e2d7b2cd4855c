package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-web/structs"
	_ "github.com/mattn/go-sqlite3"
)

// memoryDSN is a named shared-cache in-memory database: every pooled
// connection sees the same tables and nothing outlives the process.
const memoryDSN = "file:snake_results?mode=memory&cache=shared"

const createResultsTableSQL = `
CREATE TABLE IF NOT EXISTS Results (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    SessionID TEXT,
    Score INTEGER,
    Ticks INTEGER,
    Length INTEGER,
    Outcome TEXT,
    FinishedAt INTEGER
);
`

const createResultsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_results_score ON Results (Score DESC);
`

// Open opens the in-memory results database and creates its tables.
func Open() (*sql.DB, error) {
	return open(memoryDSN)
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// A shared in-memory database disappears when its last connection closes.
	db.SetConnMaxLifetime(0)
	db.SetMaxIdleConns(1)
	if err := InitializeDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func executeSQL(db *sql.DB, sqlStatement string) error {
	if _, err := db.Exec(sqlStatement); err != nil {
		return fmt.Errorf("executing %q: %w", sqlStatement, err)
	}
	return nil
}

func InitializeDatabase(db *sql.DB) error {
	for _, stmt := range []string{createResultsTableSQL, createResultsIndexSQL} {
		if err := executeSQL(db, stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordResult stores a finished game.
func RecordResult(db *sql.DB, r structs.Result) error {
	_, err := db.Exec("INSERT INTO Results (SessionID, Score, Ticks, Length, Outcome, FinishedAt) VALUES (?, ?, ?, ?, ?, ?)",
		r.SessionID, r.Score, r.Ticks, r.Length, r.Outcome, r.FinishedAt)
	if err != nil {
		return err
	}
	glog.V(1).Infof("recorded result for %s: score %d (%s)", r.SessionID, r.Score, r.Outcome)
	return nil
}

// MaxScores caps how many rows TopScores returns.
const MaxScores = 100

// TopScores returns up to limit results, best score first. Non-positive
// limits mean 10; limits above MaxScores are capped.
func TopScores(db *sql.DB, limit int) ([]structs.Result, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxScores {
		limit = MaxScores
	}
	rows, err := db.Query("SELECT SessionID, Score, Ticks, Length, Outcome, FinishedAt FROM Results ORDER BY Score DESC, Ticks ASC, ID ASC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []structs.Result{}
	for rows.Next() {
		var r structs.Result
		if err := rows.Scan(&r.SessionID, &r.Score, &r.Ticks, &r.Length, &r.Outcome, &r.FinishedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
