package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/onhighmng/melhor-saude-backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListEligibleProviders returns active, approved providers. The ordering is
// fixed (rating DESC, id ASC) so that score ties resolve the same way on
// every run.
func (s *Store) ListEligibleProviders(ctx context.Context) ([]models.Provider, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, pillars, specializations, languages, rating, total_sessions, years_experience, session_type, active, approved, updated_at
		FROM providers
		WHERE active AND approved
		ORDER BY rating DESC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProviders(rows)
}

func (s *Store) ListProviders(ctx context.Context, pillar string) ([]models.Provider, error) {
	query := `
		SELECT id, name, pillars, specializations, languages, rating, total_sessions, years_experience, session_type, active, approved, updated_at
		FROM providers
		WHERE active AND approved`
	var args []any
	if pillar != "" {
		args = append(args, pillar)
		query += ` AND $1 = ANY(pillars)`
	}
	query += ` ORDER BY rating DESC, id ASC`

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProviders(rows)
}

func scanProviders(rows pgx.Rows) ([]models.Provider, error) {
	var out []models.Provider
	for rows.Next() {
		var p models.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Pillars, &p.Specializations, &p.Languages, &p.Rating, &p.TotalSessions, &p.YearsExperience, &p.SessionType, &p.Active, &p.Approved, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountNearTermBookings counts a provider's confirmed or pending bookings
// starting within the given window from now.
func (s *Store) CountNearTermBookings(ctx context.Context, providerID string, within time.Duration) (int, error) {
	var count int
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM bookings
		WHERE provider_id = $1
		  AND status IN ('confirmed', 'pending')
		  AND starts_at >= NOW()
		  AND starts_at < NOW() + $2::interval
	`, providerID, within).Scan(&count)
	return count, err
}

func (s *Store) InsertCase(ctx context.Context, c models.Case) error {
	var lang, sessionType, timePref string
	if c.Preferences != nil {
		lang = c.Preferences.Language
		sessionType = c.Preferences.SessionType
		timePref = c.Preferences.TimePreference
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cases (id, user_id, pillar, priority, case_type, preferred_language, preferred_session, time_preference, description, urgency_level, previous_sessions, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, c.ID, c.UserID, c.Pillar, c.Priority, c.CaseType, lang, sessionType, timePref, c.Details.Description, c.Details.UrgencyLevel, c.Details.PreviousSessions, c.CreatedAt)
	return err
}

func (s *Store) GetCaseByID(ctx context.Context, caseID string) (models.CaseRecord, error) {
	var record models.CaseRecord
	err := s.Pool.QueryRow(ctx, `
		SELECT id, user_id, pillar, priority, case_type, preferred_language, preferred_session, description, urgency_level, previous_sessions, created_at
		FROM cases
		WHERE id = $1
	`, caseID).Scan(
		&record.ID, &record.UserID, &record.Pillar, &record.Priority, &record.CaseType,
		&record.PreferredLanguage, &record.PreferredSession, &record.Description,
		&record.UrgencyLevel, &record.PreviousSessions, &record.CreatedAt,
	)
	return record, err
}

func (s *Store) AppendLog(ctx context.Context, entry models.AssignmentLog) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO assignment_logs (id, case_id, provider_id, match_score, method, reason, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.CaseID, entry.ProviderID, entry.MatchScore, entry.Method, entry.Reason, entry.Status, entry.CreatedAt)
	return err
}

func (s *Store) ListLogs(ctx context.Context, since time.Time) ([]models.AssignmentLog, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, case_id, provider_id, match_score, method, reason, status, created_at
		FROM assignment_logs
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

func (s *Store) ProviderLogs(ctx context.Context, providerID string, since time.Time) ([]models.AssignmentLog, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, case_id, provider_id, match_score, method, reason, status, created_at
		FROM assignment_logs
		WHERE provider_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`, providerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

func scanLogs(rows pgx.Rows) ([]models.AssignmentLog, error) {
	var out []models.AssignmentLog
	for rows.Next() {
		var entry models.AssignmentLog
		var reason *string
		if err := rows.Scan(&entry.ID, &entry.CaseID, &entry.ProviderID, &entry.MatchScore, &entry.Method, &reason, &entry.Status, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if reason != nil {
			entry.Reason = *reason
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ResolveAssignment moves the most recent "assigned" entry for the case to a
// terminal status. pgx.ErrNoRows comes back when the case has no open
// assignment.
func (s *Store) ResolveAssignment(ctx context.Context, caseID string, status string) error {
	var id string
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT id FROM assignment_logs
			WHERE case_id = $1 AND status = $2
			ORDER BY created_at DESC
			LIMIT 1
		`, caseID, models.LogStatusAssigned).Scan(&id)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE assignment_logs SET status = $1 WHERE id = $2`, status, id)
		return err
	})
}

// ListStaleAssignments returns entries still "assigned" past the acceptance
// window, for the timeout sweeper.
func (s *Store) ListStaleAssignments(ctx context.Context, olderThan time.Duration) ([]models.AssignmentLog, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, case_id, provider_id, match_score, method, reason, status, created_at
		FROM assignment_logs
		WHERE status = $1 AND created_at < NOW() - $2::interval
		ORDER BY created_at ASC
	`, models.LogStatusAssigned, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}
