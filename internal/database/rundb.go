package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bcsdweb/linkpatrol/internal/model"
)

// RunDB provides SQLite-based storage for run history.
// It manages connection pooling and provides methods for saving and
// querying completed runs.
//
// Design decision: We keep a single database file for all runs rather
// than one file per run. History queries span runs by definition, and
// backing up the history stays a one-file copy.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "linkpatrol.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per completed check run. snapshot_json holds the full
	-- issues.json document; the other columns exist for listing runs
	-- without deserializing it.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		checker_version TEXT,
		issue_count INTEGER NOT NULL,
		tool_error_count INTEGER NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed run snapshot.
// Uses UPSERT so re-saving the same run ID replaces the stored row.
func (rdb *RunDB) SaveRun(ctx context.Context, snapshot *model.RunSnapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	query := `
	INSERT INTO runs (run_id, checker_version, issue_count, tool_error_count, snapshot_json)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		checker_version = excluded.checker_version,
		issue_count = excluded.issue_count,
		tool_error_count = excluded.tool_error_count,
		snapshot_json = excluded.snapshot_json,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err = rdb.db.ExecContext(ctx, query,
		snapshot.RunID,
		snapshot.CheckerVersion,
		len(snapshot.Issues),
		len(snapshot.ToolErrors),
		string(snapshotJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRunByID retrieves a run snapshot by its run identifier.
// Returns nil without error when the run is not stored.
func (rdb *RunDB) GetRunByID(ctx context.Context, runID string) (*model.RunSnapshot, error) {
	query := `
	SELECT snapshot_json FROM runs
	WHERE run_id = ?
	`

	var snapshotJSON string
	err := rdb.db.QueryRowContext(ctx, query, runID).Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var snapshot model.RunSnapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snapshot, nil
}

// GetLatestRun retrieves the most recent stored run.
// Returns nil without error when no runs are stored.
func (rdb *RunDB) GetLatestRun(ctx context.Context) (*model.RunSnapshot, error) {
	query := `
	SELECT snapshot_json FROM runs
	ORDER BY run_id DESC
	LIMIT 1
	`

	var snapshotJSON string
	err := rdb.db.QueryRowContext(ctx, query).Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var snapshot model.RunSnapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snapshot, nil
}

// GetPreviousRun retrieves the most recent stored run whose ID sorts
// before the given run ID. Returns nil without error when no earlier
// run is stored.
func (rdb *RunDB) GetPreviousRun(ctx context.Context, runID string) (*model.RunSnapshot, error) {
	query := `
	SELECT snapshot_json FROM runs
	WHERE run_id < ?
	ORDER BY run_id DESC
	LIMIT 1
	`

	var snapshotJSON string
	err := rdb.db.QueryRowContext(ctx, query, runID).Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get previous run: %w", err)
	}

	var snapshot model.RunSnapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snapshot, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for listing run history without loading full snapshots.
type RunMetadata struct {
	// ID is the unique identifier of the row in the database.
	ID int64

	// RunID is the timestamped run identifier.
	RunID string

	// Timestamp is when the run row was written.
	Timestamp time.Time

	// CheckerVersion is the linkchecker version line recorded for the run.
	CheckerVersion string

	// IssueCount is the number of broken link findings in the run.
	IssueCount int

	// ToolErrorCount is the number of sites where linkchecker itself failed.
	ToolErrorCount int
}

// ListRuns retrieves metadata for stored runs, most recent first.
// A limit of 0 or less returns all runs.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, run_id, timestamp, checker_version, issue_count, tool_error_count
	FROM runs
	ORDER BY run_id DESC
	`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var version sql.NullString

		if err := rows.Scan(&meta.ID, &meta.RunID, &timestamp, &version, &meta.IssueCount, &meta.ToolErrorCount); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.CheckerVersion = version.String

		results = append(results, meta)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
