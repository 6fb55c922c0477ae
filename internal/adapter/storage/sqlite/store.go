package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA foreign_keys = ON",
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

func NewStore(dataDir string) (*Store, error) {
	registerHook()

	dbPath := filepath.Join(dataDir, "greenfx.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite (WAL allows concurrent reads but only one writer)
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const jobColumns = `id, effect, duration_seconds, font_id, font_size, text_color,
	inline_text, upload_name, upload_content, status, progress, error_message,
	artifact_path, artifact_size, checksum, created_at, started_at, completed_at`

func (s *Store) Save(job *domain.Job) error {
	_, err := s.db.Exec(`
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Effect), job.Params.DurationSeconds, job.Params.FontID,
		job.Params.FontSize, job.Params.TextColor, job.Params.InlineText,
		job.Params.UploadName, job.Params.UploadContent, string(job.Status),
		job.Progress, job.ErrorMessage, job.ArtifactPath, job.ArtifactSize,
		job.Checksum, job.CreatedAt, job.StartedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) Get(id string) (*domain.Job, error) {
	row := s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Claim pops the oldest queued job and marks it running in one statement.
// The single-writer connection makes this the serialization point for the
// queue.
func (s *Store) Claim() (*domain.Job, error) {
	row := s.db.QueryRow(`
		UPDATE jobs SET status = ?, started_at = ?
		WHERE id = (
			SELECT id FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1
		)
		RETURNING `+jobColumns,
		string(domain.JobStatusRunning), time.Now().UTC(), string(domain.JobStatusQueued))
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// UpdateProgress only ever raises progress; stale writes are ignored.
func (s *Store) UpdateProgress(id string, progress int) error {
	_, err := s.db.Exec(`
		UPDATE jobs SET progress = ?
		WHERE id = ? AND status = ? AND progress < ?`,
		progress, id, string(domain.JobStatusRunning), progress)
	if err != nil {
		return fmt.Errorf("update progress for %s: %w", id, err)
	}
	return nil
}

func (s *Store) Complete(job *domain.Job) error {
	res, err := s.db.Exec(`
		UPDATE jobs SET status = ?, progress = 100, error_message = '',
			artifact_path = ?, artifact_size = ?, checksum = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.JobStatusCompleted), job.ArtifactPath, job.ArtifactSize,
		job.Checksum, job.CompletedAt, job.ID, string(domain.JobStatusRunning))
	if err != nil {
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	return requireRow(res, job.ID)
}

func (s *Store) Fail(id string, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE jobs SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(domain.JobStatusFailed), errMsg, time.Now().UTC(), id,
		string(domain.JobStatusQueued), string(domain.JobStatusRunning))
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return nil
}

func (s *Store) CancelQueued(id string, reason string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE jobs SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.JobStatusFailed), reason, time.Now().UTC(), id,
		string(domain.JobStatusQueued))
	if err != nil {
		return false, fmt.Errorf("cancel queued job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CountByStatus(status domain.JobStatus) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM jobs WHERE status = ?`, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s jobs: %w", status, err)
	}
	return n, nil
}

// ListExpired returns terminal jobs whose retention clock (completion time,
// falling back to creation time) passed before the cutoff.
func (s *Store) ListExpired(before time.Time) ([]*domain.Job, error) {
	rows, err := s.db.Query(`
		SELECT `+jobColumns+` FROM jobs
		WHERE status IN (?, ?) AND COALESCE(completed_at, created_at) < ?`,
		string(domain.JobStatusCompleted), string(domain.JobStatusFailed), before)
	if err != nil {
		return nil, fmt.Errorf("list expired jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

func (s *Store) ResetStalled() error {
	_, err := s.db.Exec(`
		UPDATE jobs SET status = ?, error_message = ?, completed_at = ?
		WHERE status = ?`,
		string(domain.JobStatusFailed), "interrupted by restart", time.Now().UTC(),
		string(domain.JobStatusRunning))
	if err != nil {
		return fmt.Errorf("reset stalled jobs: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job    domain.Job
		effect string
		status string
	)
	err := row.Scan(
		&job.ID, &effect, &job.Params.DurationSeconds, &job.Params.FontID,
		&job.Params.FontSize, &job.Params.TextColor, &job.Params.InlineText,
		&job.Params.UploadName, &job.Params.UploadContent, &status,
		&job.Progress, &job.ErrorMessage, &job.ArtifactPath, &job.ArtifactSize,
		&job.Checksum, &job.CreatedAt, &job.StartedAt, &job.CompletedAt)
	if err != nil {
		return nil, err
	}
	job.Effect = domain.EffectKind(effect)
	job.Status = domain.JobStatus(status)
	return &job, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s not in expected state: %w", id, domain.ErrNotFound)
	}
	return nil
}

var _ port.JobStore = (*Store)(nil)
