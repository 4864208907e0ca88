package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

// Columns a statement may set, keyed by document field name.
var updatableColumns = map[string]string{
	"title":   "title",
	"done":    "done",
	"deleted": "deleted",
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// OpenSQLite opens path, applies migrations and returns a ready repository.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) InsertTask(ctx context.Context, in Task) error {
	if in.ID == "" {
		return errors.New("storage: task id is required")
	}
	updated := in.UpdatedAt
	if updated.IsZero() {
		updated = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, done, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.Title, boolInt(in.Done), boolInt(in.Deleted), updated.Format(sqliteTimeLayout),
	)
	if isConstraintErr(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, in.ID)
	}
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, done, deleted, updated_at
		FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

// UpdateTaskField sets one document field. title takes a string; done and
// deleted take a bool.
func (r *SQLiteRepository) UpdateTaskField(ctx context.Context, id, field string, value any) error {
	column, ok := updatableColumns[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	arg, err := columnValue(field, value)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		arg, r.now().Format(sqliteTimeLayout), id,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error) {
	query := `SELECT id, title, done, deleted, updated_at FROM tasks`
	if !filter.IncludeDeleted {
		query += ` WHERE deleted = 0`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func columnValue(field string, value any) (any, error) {
	switch field {
	case "title":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("storage: title must be a string, got %T", value)
		}
		return s, nil
	default:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("storage: %s must be a bool, got %T", field, value)
		}
		return boolInt(b), nil
	}
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (Task, error) {
	var out Task
	var done, deleted int
	var updated string
	if err := s.Scan(&out.ID, &out.Title, &done, &deleted, &updated); err != nil {
		return Task{}, err
	}
	updatedAt, err := time.Parse(sqliteTimeLayout, updated)
	if err != nil {
		return Task{}, err
	}
	out.Done = done == 1
	out.Deleted = deleted == 1
	out.UpdatedAt = updatedAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
