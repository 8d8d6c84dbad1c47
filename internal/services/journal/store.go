package journal

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store journals segments and motion intervals in PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and applies pending migrations
func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	log.Info().Msg("Journal database ready")
	return &Store{pool: pool}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Name() string { return "journal" }

// Handle records segment closes and motion intervals; other events are ignored
func (s *Store) Handle(ctx context.Context, event models.Event) error {
	switch event.Type {
	case models.EventSegmentClosed, models.EventSegmentDiscarded:
		if event.Segment == nil {
			return nil
		}
		return s.InsertSegment(ctx, event.CameraID, *event.Segment)
	case models.EventMotionStarted:
		_, err := s.StartMotion(ctx, event.CameraID, event.SessionID, event.Timestamp)
		return err
	case models.EventMotionEnded:
		return s.EndMotion(ctx, event.SessionID, event.Timestamp)
	}
	return nil
}

func (s *Store) InsertSegment(ctx context.Context, cameraID string, seg models.Segment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO segments (camera_id, session_id, name, path, started_at, ended_at, frames, size_bytes, continuation, discarded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		cameraID, seg.SessionID, seg.Name, seg.Path, seg.StartedAt, seg.EndedAt,
		seg.Frames, seg.SizeBytes, seg.Continuation, seg.Discarded)
	if err != nil {
		return fmt.Errorf("insert segment %s: %w", seg.Name, err)
	}
	return nil
}

// StartMotion opens a motion interval and returns its id
func (s *Store) StartMotion(ctx context.Context, cameraID, sessionID string, at time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		"INSERT INTO motion_events (camera_id, session_id, started_at) VALUES ($1, $2, $3) RETURNING id",
		cameraID, sessionID, at).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert motion event: %w", err)
	}
	return id, nil
}

// EndMotion closes the session's most recent open interval
func (s *Store) EndMotion(ctx context.Context, sessionID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE motion_events SET ended_at = $2
		WHERE id = (
			SELECT id FROM motion_events
			WHERE session_id = $1 AND ended_at IS NULL
			ORDER BY started_at DESC
			LIMIT 1
		)`, sessionID, at)
	if err != nil {
		return fmt.Errorf("close motion event: %w", err)
	}
	return nil
}

// RecentSegments returns the newest journaled segments, discarded ones included
func (s *Store) RecentSegments(ctx context.Context, limit int) ([]models.Segment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, name, path, started_at, ended_at, frames, size_bytes, continuation, discarded
		FROM segments
		ORDER BY started_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Segment
	for rows.Next() {
		var seg models.Segment
		if err := rows.Scan(&seg.SessionID, &seg.Name, &seg.Path, &seg.StartedAt, &seg.EndedAt,
			&seg.Frames, &seg.SizeBytes, &seg.Continuation, &seg.Discarded); err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// MotionEvents returns intervals that started at or after since, newest first
func (s *Store) MotionEvents(ctx context.Context, since time.Time, limit int) ([]models.MotionEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, camera_id, session_id, started_at, ended_at
		FROM motion_events
		WHERE started_at >= $1
		ORDER BY started_at DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MotionEvent
	for rows.Next() {
		var ev models.MotionEvent
		if err := rows.Scan(&ev.ID, &ev.CameraID, &ev.SessionID, &ev.StartedAt, &ev.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
