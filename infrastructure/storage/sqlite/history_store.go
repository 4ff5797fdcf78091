package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/felixgeelhaar/shrdlu/domain/history"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

const historySchema = `
	CREATE TABLE IF NOT EXISTS plan_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		goal TEXT NOT NULL,
		outcome TEXT NOT NULL,
		actions TEXT NOT NULL DEFAULT '',
		cost REAL NOT NULL DEFAULT 0,
		expanded INTEGER NOT NULL DEFAULT 0,
		heuristic TEXT NOT NULL DEFAULT '',
		cached INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		duration_ns INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_plan_history_outcome ON plan_history(outcome);
	CREATE INDEX IF NOT EXISTS idx_plan_history_created_at ON plan_history(created_at);
`

const historyColumns = "id, goal, outcome, actions, cost, expanded, heuristic, cached, error, duration_ns, created_at"

// HistoryStore is a SQLite-backed plan history.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore opens the database and, if configured, creates the schema.
func NewHistoryStore(cfg Config, opts ...Option) (*HistoryStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &HistoryStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewHistoryStoreFromDB creates a store over an existing connection.
func NewHistoryStoreFromDB(db *sql.DB) (*HistoryStore, error) {
	s := &HistoryStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HistoryStore) migrate() error {
	if _, err := s.db.Exec(historySchema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Append inserts a record.
func (s *HistoryStore) Append(ctx context.Context, r history.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return history.ErrInvalidID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plan_history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Goal, string(r.Outcome), r.Actions, r.Cost, r.Expanded, r.Heuristic,
		r.Cached, r.Error, int64(r.Duration), r.CreatedAt.UnixNano(),
	)
	if isUniqueViolation(err) {
		return history.ErrExists
	}
	return err
}

// Get returns a record by ID.
func (s *HistoryStore) Get(ctx context.Context, id string) (history.Record, error) {
	if err := ctx.Err(); err != nil {
		return history.Record{}, err
	}
	if id == "" {
		return history.Record{}, history.ErrInvalidID
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM plan_history WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Record{}, history.ErrNotFound
	}
	return r, err
}

// List returns matching records, newest first.
func (s *HistoryStore) List(ctx context.Context, f history.Filter) ([]history.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	where, args := whereClause(f)
	query := `SELECT ` + historyColumns + ` FROM plan_history` + where + ` ORDER BY created_at DESC, seq DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []history.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary aggregates matching records in SQL. Limit is ignored.
func (s *HistoryStore) Summary(ctx context.Context, f history.Filter) (history.Summary, error) {
	if err := ctx.Err(); err != nil {
		return history.Summary{}, err
	}

	where, args := whereClause(f)
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(cached), 0),
			COALESCE(AVG(CASE WHEN outcome IN (?, ?) THEN cost END), 0),
			COALESCE(AVG(CASE WHEN outcome IN (?, ?) THEN duration_ns END), 0)
		FROM plan_history` + where
	ok := []any{
		string(plan.OutcomePlanned), string(plan.OutcomeAlreadyTrue),
		string(plan.OutcomePlanned), string(plan.OutcomeAlreadyTrue),
		string(plan.OutcomePlanned), string(plan.OutcomeAlreadyTrue),
	}

	var (
		sum   history.Summary
		avgNs float64
	)
	err := s.db.QueryRowContext(ctx, query, append(ok, args...)...).Scan(
		&sum.Total, &sum.Planned, &sum.AlreadyTrue, &sum.CacheHits, &sum.AverageCost, &avgNs,
	)
	if err != nil {
		return history.Summary{}, err
	}
	sum.Failed = sum.Total - sum.Planned - sum.AlreadyTrue
	sum.AverageDuration = time.Duration(avgNs)
	return sum, nil
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func whereClause(f history.Filter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if len(f.Outcomes) > 0 {
		marks := make([]string, len(f.Outcomes))
		for i, o := range f.Outcomes {
			marks[i] = "?"
			args = append(args, string(o))
		}
		conditions = append(conditions, "outcome IN ("+strings.Join(marks, ", ")+")")
	}
	if !f.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if f.GoalContains != "" {
		conditions = append(conditions, "instr(goal, ?) > 0")
		args = append(args, f.GoalContains)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (history.Record, error) {
	var (
		r        history.Record
		outcome  string
		duration int64
		created  int64
	)
	err := row.Scan(&r.ID, &r.Goal, &outcome, &r.Actions, &r.Cost, &r.Expanded,
		&r.Heuristic, &r.Cached, &r.Error, &duration, &created)
	if err != nil {
		return history.Record{}, err
	}
	r.Outcome = plan.Outcome(outcome)
	r.Duration = time.Duration(duration)
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

var _ history.Store = (*HistoryStore)(nil)
