package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/classtream/lectures-client/domain"
)

const jobsChannel = "videos_changed"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id    TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	role  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS videos (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	video_url  TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE OR REPLACE FUNCTION notify_videos_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('videos_changed', '');
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS videos_changed ON videos;
CREATE TRIGGER videos_changed
	AFTER INSERT OR UPDATE OR DELETE ON videos
	FOR EACH STATEMENT EXECUTE FUNCTION notify_videos_changed();
`

// Store is the Postgres-backed remote store holding the `users` and
// `videos` collections. The client core only reads jobs; the write methods
// serve the dev backend, which stands in for the out-of-process writers.
type Store struct {
	db     *sql.DB
	dsn    string
	logger *zap.Logger
}

func NewStore(db *sql.DB, dsn string, logger *zap.Logger) *Store {
	return &Store{db: db, dsn: dsn, logger: logger}
}

// Migrate creates the collections and the change-notification trigger.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// UserRole returns the stored role for a principal; found is false when the
// principal has never signed in before.
func (s *Store) UserRole(ctx context.Context, principalID string) (domain.Role, bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, principalID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query user role: %w", err)
	}
	return domain.Role(role), true, nil
}

// CreateUserIfAbsent initializes a principal record. ON CONFLICT DO NOTHING
// makes concurrent first sign-ins converge on a single row: the role is
// written at most once and never rewritten here.
func (s *Store) CreateUserIfAbsent(ctx context.Context, principalID, email string, role domain.Role) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, role) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		principalID, email, string(role))
	if err != nil {
		return fmt.Errorf("failed to initialize user record: %w", err)
	}
	return nil
}

// ListJobs returns the full current state of the videos collection,
// newest-first with id as the tie-breaker.
func (s *Store) ListJobs(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, video_url, summary, created_at FROM videos ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		var status string
		if err := rows.Scan(&j.ID, &j.Title, &status, &j.VideoURL, &j.Summary, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		j.Status = domain.JobStatus(status)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over videos: %w", err)
	}
	return jobs, nil
}

// InsertJob records a freshly uploaded video. The row trigger notifies all
// open subscriptions.
func (s *Store) InsertJob(ctx context.Context, job domain.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, title, status, video_url, summary, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.Title, string(job.Status), job.VideoURL, job.Summary, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

// UpdateJobStatus advances a job through the pipeline.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status = $1, summary = COALESCE(NULLIF($2::text, ''), summary) WHERE id = $3`,
		string(status), summary, jobID)
	if err != nil {
		return fmt.Errorf("failed to update video status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("video %s: %w", jobID, domain.ErrNotFound)
	}
	return nil
}

// TransitionJob moves a job from one status to another atomically. The
// update applies only when the row still holds the expected status, so
// concurrent or replayed requests cannot rewind the pipeline.
func (s *Store) TransitionJob(ctx context.Context, jobID string, from, to domain.JobStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), jobID, string(from))
	if err != nil {
		return fmt.Errorf("failed to transition video status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM videos WHERE id = $1`, jobID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("video %s: %w", jobID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read video status: %w", err)
	}
	return fmt.Errorf("video %s is %s, not %s: %w", jobID, current, from, domain.ErrInvalidTransition)
}

// SubscribeJobs opens a standing LISTEN on the videos channel and delivers
// the full ordered snapshot on connect and after every mutation.
func (s *Store) SubscribeJobs(ctx context.Context) (domain.Subscription, error) {
	sub := &jobSubscription{
		snapshots: make(chan []domain.Job),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
		logger:    s.logger,
	}
	sub.listener = pq.NewListener(s.dsn, 2*time.Second, time.Minute, sub.listenerEvent)
	return startSubscription(ctx, sub, s.ListJobs)
}
