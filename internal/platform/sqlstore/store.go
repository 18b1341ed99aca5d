package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/phrazzld/taskwatch/internal/platform/logger"
	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
)

// Store implements store.DurableStore for one scope row.
type Store struct {
	db      store.DBTX
	dialect Dialect
	scope   string
	backend string
}

// New creates a Store for scope. Migrate must have run on db first.
func New(db store.DBTX, dialect Dialect, scope string) (*Store, error) {
	if _, err := dialect.driverName(); err != nil {
		return nil, err
	}
	if scope == "" {
		return nil, fmt.Errorf("scope cannot be empty")
	}
	return &Store{db: db, dialect: dialect, scope: scope, backend: string(dialect)}, nil
}

const loadQuery = `
	SELECT task_id, lecture_id, status, error_kind, error_message, error_at, is_polling, updated_at
	FROM task_descriptors
	WHERE scope = $1
`

const saveQuery = `
	INSERT INTO task_descriptors
		(scope, task_id, lecture_id, status, error_kind, error_message, error_at, is_polling, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (scope) DO UPDATE SET
		task_id = excluded.task_id,
		lecture_id = excluded.lecture_id,
		status = excluded.status,
		error_kind = excluded.error_kind,
		error_message = excluded.error_message,
		error_at = excluded.error_at,
		is_polling = excluded.is_polling,
		updated_at = excluded.updated_at
`

// Load implements store.DurableStore.
func (s *Store) Load(ctx context.Context) (task.Descriptor, error) {
	var (
		d            task.Descriptor
		status       string
		errorKind    string
		errorMessage string
		errorAt      sql.NullTime
		updatedAt    sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, s.rebind(loadQuery), s.scope).Scan(
		&d.TaskID,
		&d.LectureID,
		&status,
		&errorKind,
		&errorMessage,
		&errorAt,
		&d.IsPolling,
		&updatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if store.IsNotFoundError(mapped) {
			return task.Descriptor{}, mapped
		}
		logger.FromContext(ctx).ErrorContext(ctx, "failed to load descriptor",
			"backend", s.backend,
			"scope", s.scope,
			"error", err)
		return task.Descriptor{}, store.NewStoreError(s.backend, "load", "query failed", mapped)
	}

	d.Status = task.Status(status)
	if !d.Status.IsValid() {
		return task.Descriptor{}, store.NewStoreError(s.backend, "load", "unknown status in row",
			fmt.Errorf("%w: %q", store.ErrCorruptSnapshot, status))
	}
	if errorKind != "" || errorMessage != "" {
		d.Error = &task.TaskError{
			Kind:    task.ErrorKind(errorKind),
			Message: errorMessage,
		}
		if errorAt.Valid {
			d.Error.At = errorAt.Time.UTC()
		}
	}
	if updatedAt.Valid {
		d.UpdatedAt = updatedAt.Time.UTC()
	}
	return d, nil
}

// Save implements store.DurableStore.
func (s *Store) Save(ctx context.Context, d task.Descriptor) error {
	var (
		errorKind    string
		errorMessage string
		errorAt      sql.NullTime
	)
	if d.Error != nil {
		errorKind = string(d.Error.Kind)
		errorMessage = d.Error.Message
		errorAt = sql.NullTime{Time: d.Error.At.UTC(), Valid: !d.Error.At.IsZero()}
	}
	updatedAt := sql.NullTime{Time: d.UpdatedAt.UTC(), Valid: !d.UpdatedAt.IsZero()}

	_, err := s.db.ExecContext(ctx, s.rebind(saveQuery),
		s.scope,
		d.TaskID,
		d.LectureID,
		string(d.Status),
		errorKind,
		errorMessage,
		errorAt,
		d.IsPolling,
		updatedAt,
	)
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "failed to save descriptor",
			"backend", s.backend,
			"scope", s.scope,
			"task_id", d.TaskID,
			"error", err)
		return store.NewStoreError(s.backend, "save", "upsert failed", MapError(err))
	}
	return nil
}

// rebind converts $N placeholders to ? for SQLite.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j > i+1 {
				b.WriteByte('?')
				i = j - 1
				continue
			}
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

var _ store.DurableStore = (*Store)(nil)
