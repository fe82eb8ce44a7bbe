package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/devlevel/internal/api"
	"github.com/soaringjerry/devlevel/internal/services"
)

const timeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

var _ api.Store = (*SQLiteStore)(nil)

// Open creates the parent directory of path if needed and opens the database
// with the sqlite3 driver.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func NewSQLiteStore(db *sql.DB, logger *log.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if logger == nil {
		logger = log.Default()
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, logger: logger.WithPrefix("sqlite")}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) logErr(op string, err error) {
	if err != nil {
		s.logger.Error("query failed", "op", op, "err", err)
	}
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func formatDay(t time.Time) string { return t.UTC().Format(services.DayLayout) }

func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(services.DayLayout, s, time.UTC)
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(timeLayout, s) }

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

type scanner interface {
	Scan(dest ...any) error
}

// Users

func (s *SQLiteStore) AddUser(ctx context.Context, u *services.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PassHash, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return services.NewConflictError("email exists")
	}
	s.logErr("add user", err)
	return err
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*services.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, pass_hash, created_at FROM users WHERE email = ?`, email)
	return s.scanUser("find user by email", row)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*services.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, pass_hash, created_at FROM users WHERE id = ?`, id)
	return s.scanUser("get user", row)
}

func (s *SQLiteStore) scanUser(op string, row scanner) (*services.User, error) {
	var (
		u       services.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PassHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logErr(op, err)
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("%s: created_at: %w", op, err)
	}
	u.CreatedAt = t
	return &u, nil
}

// Entries

const entryColumns = `id, user_id, day, entry_type, project_name, description, learned,
	difficulty, autonomy_score, deep_work_block_completed, interruption_managed_well,
	created_at, updated_at`

func (s *SQLiteStore) InsertEntry(ctx context.Context, e *services.Entry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO daily_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, formatDay(e.Date), string(e.Kind), e.ProjectName, e.Description, e.Learned,
		nullInt(e.Difficulty), nullFloat(e.AutonomyScore),
		boolToInt64(e.DeepWorkBlockCompleted), boolToInt64(e.InterruptionManagedWell),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	s.logErr("insert entry", err)
	return err
}

func (s *SQLiteStore) GetEntry(ctx context.Context, userID, id string) (*services.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM daily_entries WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	s.logErr("get entry", err)
	return e, err
}

func (s *SQLiteStore) UpdateEntry(ctx context.Context, e *services.Entry) error {
	res, err := s.db.ExecContext(ctx, `UPDATE daily_entries SET
			day = ?, entry_type = ?, project_name = ?, description = ?, learned = ?,
			difficulty = ?, autonomy_score = ?, deep_work_block_completed = ?,
			interruption_managed_well = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		formatDay(e.Date), string(e.Kind), e.ProjectName, e.Description, e.Learned,
		nullInt(e.Difficulty), nullFloat(e.AutonomyScore),
		boolToInt64(e.DeepWorkBlockCompleted), boolToInt64(e.InterruptionManagedWell),
		formatTime(e.UpdatedAt), e.ID, e.UserID)
	if err != nil {
		s.logErr("update entry", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("entry not found")
	}
	return nil
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM daily_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		s.logErr("delete entry", err)
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) ListEntries(ctx context.Context, userID string, q services.EntryQuery) ([]*services.Entry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + entryColumns + ` FROM daily_entries WHERE user_id = ?`)
	args := []any{userID}
	if q.From != nil {
		sb.WriteString(` AND day >= ?`)
		args = append(args, formatDay(*q.From))
	}
	if q.To != nil {
		sb.WriteString(` AND day <= ?`)
		args = append(args, formatDay(*q.To))
	}
	sb.WriteString(` ORDER BY day DESC, created_at DESC`)
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		s.logErr("list entries", err)
		return nil, err
	}
	defer rows.Close()
	out := []*services.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			s.logErr("scan entry", err)
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row scanner) (*services.Entry, error) {
	var (
		e                       services.Entry
		kind, dayStr            string
		created, updated        string
		difficulty              sql.NullInt64
		autonomy                sql.NullFloat64
		deepWork, interruptions int64
	)
	if err := row.Scan(&e.ID, &e.UserID, &dayStr, &kind, &e.ProjectName, &e.Description, &e.Learned,
		&difficulty, &autonomy, &deepWork, &interruptions, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if e.Date, err = parseDay(dayStr); err != nil {
		return nil, fmt.Errorf("entry %s day: %w", e.ID, err)
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("entry %s created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("entry %s updated_at: %w", e.ID, err)
	}
	e.Kind = services.EntryKind(kind)
	e.Difficulty = intPtr(difficulty)
	e.AutonomyScore = floatPtr(autonomy)
	e.DeepWorkBlockCompleted = deepWork != 0
	e.InterruptionManagedWell = interruptions != 0
	return &e, nil
}

// Reflections

const reflectionColumns = `id, user_id, week_start, what_did_i_learn, where_did_i_improve,
	main_challenge, autonomy_average, created_at, updated_at`

func (s *SQLiteStore) InsertReflection(ctx context.Context, r *services.Reflection) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO weekly_reflections (`+reflectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, formatDay(r.WeekStart), r.WhatDidILearn, r.WhereDidIImprove,
		r.MainChallenge, nullFloat(r.AutonomyAverage), formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	if isUniqueViolation(err) {
		return services.NewConflictError("reflection already exists for this week")
	}
	s.logErr("insert reflection", err)
	return err
}

func (s *SQLiteStore) GetReflectionByWeek(ctx context.Context, userID string, weekStart time.Time) (*services.Reflection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reflectionColumns+` FROM weekly_reflections WHERE user_id = ? AND week_start = ?`,
		userID, formatDay(weekStart))
	r, err := scanReflection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	s.logErr("get reflection", err)
	return r, err
}

func (s *SQLiteStore) UpdateReflection(ctx context.Context, r *services.Reflection) error {
	res, err := s.db.ExecContext(ctx, `UPDATE weekly_reflections SET
			what_did_i_learn = ?, where_did_i_improve = ?, main_challenge = ?,
			autonomy_average = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.WhatDidILearn, r.WhereDidIImprove, r.MainChallenge, nullFloat(r.AutonomyAverage),
		formatTime(r.UpdatedAt), r.ID, r.UserID)
	if err != nil {
		s.logErr("update reflection", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("reflection not found")
	}
	return nil
}

func (s *SQLiteStore) ListReflections(ctx context.Context, userID string, limit int) ([]*services.Reflection, error) {
	query := `SELECT ` + reflectionColumns + ` FROM weekly_reflections WHERE user_id = ? ORDER BY week_start DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logErr("list reflections", err)
		return nil, err
	}
	defer rows.Close()
	out := []*services.Reflection{}
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			s.logErr("scan reflection", err)
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReflection(row scanner) (*services.Reflection, error) {
	var (
		r                services.Reflection
		week             string
		created, updated string
		autonomyAvg      sql.NullFloat64
	)
	if err := row.Scan(&r.ID, &r.UserID, &week, &r.WhatDidILearn, &r.WhereDidIImprove,
		&r.MainChallenge, &autonomyAvg, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if r.WeekStart, err = parseDay(week); err != nil {
		return nil, fmt.Errorf("reflection %s week_start: %w", r.ID, err)
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("reflection %s created_at: %w", r.ID, err)
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("reflection %s updated_at: %w", r.ID, err)
	}
	r.AutonomyAverage = floatPtr(autonomyAvg)
	return &r, nil
}

// Experiments

const experimentColumns = `id, user_id, name, description, start_day, end_day, target_metric,
	created_at, updated_at`

func (s *SQLiteStore) InsertExperiment(ctx context.Context, exp *services.Experiment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO experiments (`+experimentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.UserID, exp.Name, exp.Description, formatDay(exp.StartDate), formatDay(exp.EndDate),
		exp.TargetMetric, formatTime(exp.CreatedAt), formatTime(exp.UpdatedAt)); err != nil {
		s.logErr("insert experiment", err)
		return err
	}
	for _, rec := range exp.ComplianceLog {
		if err := upsertCompliance(ctx, tx, exp.ID, rec); err != nil {
			s.logErr("insert compliance", err)
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetExperiment(ctx context.Context, userID, id string) (*services.Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE id = ? AND user_id = ?`, id, userID)
	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logErr("get experiment", err)
		return nil, err
	}
	logs, err := s.complianceLogs(ctx, `WHERE experiment_id = ?`, id)
	if err != nil {
		return nil, err
	}
	exp.ComplianceLog = logs[id]
	if exp.ComplianceLog == nil {
		exp.ComplianceLog = []services.ComplianceRecord{}
	}
	return exp, nil
}

// UpdateExperiment rewrites the experiment's own columns; the compliance log
// is only changed through UpsertComplianceRecord.
func (s *SQLiteStore) UpdateExperiment(ctx context.Context, exp *services.Experiment) error {
	res, err := s.db.ExecContext(ctx, `UPDATE experiments SET
			name = ?, description = ?, start_day = ?, end_day = ?, target_metric = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		exp.Name, exp.Description, formatDay(exp.StartDate), formatDay(exp.EndDate), exp.TargetMetric,
		formatTime(exp.UpdatedAt), exp.ID, exp.UserID)
	if err != nil {
		s.logErr("update experiment", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("experiment not found")
	}
	return nil
}

func (s *SQLiteStore) DeleteExperiment(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM experiments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		s.logErr("delete experiment", err)
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) ListExperiments(ctx context.Context, userID string) ([]*services.Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		s.logErr("list experiments", err)
		return nil, err
	}
	out := []*services.Experiment{}
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			rows.Close()
			s.logErr("scan experiment", err)
			return nil, err
		}
		out = append(out, exp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	logs, err := s.complianceLogs(ctx,
		`WHERE experiment_id IN (SELECT id FROM experiments WHERE user_id = ?)`, userID)
	if err != nil {
		return nil, err
	}
	for _, exp := range out {
		exp.ComplianceLog = logs[exp.ID]
		if exp.ComplianceLog == nil {
			exp.ComplianceLog = []services.ComplianceRecord{}
		}
	}
	return out, nil
}

// UpsertComplianceRecord replaces the record of rec's day. The primary key on
// (experiment_id, day) keeps one record per day.
func (s *SQLiteStore) UpsertComplianceRecord(ctx context.Context, userID, experimentID string, rec services.ComplianceRecord, updatedAt time.Time) (*services.Experiment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	var found int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM experiments WHERE id = ? AND user_id = ?`, experimentID, userID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logErr("find experiment", err)
		return nil, err
	}
	if err := upsertCompliance(ctx, tx, experimentID, rec); err != nil {
		s.logErr("upsert compliance", err)
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE experiments SET updated_at = ? WHERE id = ?`,
		formatTime(updatedAt), experimentID); err != nil {
		s.logErr("touch experiment", err)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetExperiment(ctx, userID, experimentID)
}

func upsertCompliance(ctx context.Context, tx *sql.Tx, experimentID string, rec services.ComplianceRecord) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO compliance_log (experiment_id, day, completed, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (experiment_id, day) DO UPDATE SET completed = excluded.completed, value = excluded.value`,
		experimentID, formatDay(services.DayOf(rec.Date, time.UTC)), boolToInt64(rec.Completed), nullFloat(rec.Value))
	return err
}

func (s *SQLiteStore) complianceLogs(ctx context.Context, where string, args ...any) (map[string][]services.ComplianceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT experiment_id, day, completed, value FROM compliance_log `+where+` ORDER BY experiment_id, day`, args...)
	if err != nil {
		s.logErr("list compliance", err)
		return nil, err
	}
	defer rows.Close()
	out := map[string][]services.ComplianceRecord{}
	for rows.Next() {
		var (
			expID, dayStr string
			completed     int64
			value         sql.NullFloat64
		)
		if err := rows.Scan(&expID, &dayStr, &completed, &value); err != nil {
			s.logErr("scan compliance", err)
			return nil, err
		}
		d, err := parseDay(dayStr)
		if err != nil {
			return nil, fmt.Errorf("compliance %s day: %w", expID, err)
		}
		out[expID] = append(out[expID], services.ComplianceRecord{Date: d, Completed: completed != 0, Value: floatPtr(value)})
	}
	return out, rows.Err()
}

func scanExperiment(row scanner) (*services.Experiment, error) {
	var (
		exp              services.Experiment
		start, end       string
		created, updated string
	)
	if err := row.Scan(&exp.ID, &exp.UserID, &exp.Name, &exp.Description, &start, &end,
		&exp.TargetMetric, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if exp.StartDate, err = parseDay(start); err != nil {
		return nil, fmt.Errorf("experiment %s start_day: %w", exp.ID, err)
	}
	if exp.EndDate, err = parseDay(end); err != nil {
		return nil, fmt.Errorf("experiment %s end_day: %w", exp.ID, err)
	}
	if exp.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("experiment %s created_at: %w", exp.ID, err)
	}
	if exp.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("experiment %s updated_at: %w", exp.ID, err)
	}
	return &exp, nil
}
