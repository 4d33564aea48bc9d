package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

const resumeColumns = `id, user_id, raw_text, structured, status, error, file_name, file_path,
	mime_type, version, active_version, created_at, updated_at`

func (s *Store) GetByUser(ctx context.Context, userID string) (*entities.Resume, error) {
	var (
		r          entities.Resume
		structured sql.NullString
		errMsg     sql.NullString
		status     string
	)
	err := s.queryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE user_id = ?`, userID).Scan(
		&r.ID, &r.UserID, &r.RawText, &structured, &status, &errMsg, &r.FileName, &r.FilePath,
		&r.MimeType, &r.Version, &r.ActiveVersion, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying resume: %w", err)
	}

	r.Status = entities.ResumeStatus(status)
	r.Error = errMsg.String
	if structured.Valid && structured.String != "" {
		var st entities.StructuredResume
		if err := json.Unmarshal([]byte(structured.String), &st); err != nil {
			return nil, fmt.Errorf("decoding structured resume: %w", err)
		}
		r.Structured = &st
	}
	return &r, nil
}

func (s *Store) Replace(ctx context.Context, r *entities.Resume) error {
	structured, err := encodeStructured(r.Structured)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, `INSERT INTO resumes (`+resumeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			id = excluded.id,
			raw_text = excluded.raw_text,
			structured = excluded.structured,
			status = excluded.status,
			error = excluded.error,
			file_name = excluded.file_name,
			file_path = excluded.file_path,
			mime_type = excluded.mime_type,
			version = excluded.version,
			active_version = excluded.active_version,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		r.ID, r.UserID, r.RawText, structured, string(r.Status), nullString(r.Error), r.FileName, r.FilePath,
		r.MimeType, r.Version, r.ActiveVersion, r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting resume: %w", err)
	}
	return nil
}

func (s *Store) SaveStructured(ctx context.Context, resumeID, version string, st *entities.StructuredResume) error {
	structured, err := encodeStructured(st)
	if err != nil {
		return err
	}
	return s.versioned(ctx, `UPDATE resumes SET structured = ?, updated_at = ? WHERE id = ? AND version = ?`,
		structured, s.now(), resumeID, version)
}

func (s *Store) Activate(ctx context.Context, resumeID, version string) error {
	return s.versioned(ctx, `UPDATE resumes SET active_version = version, status = ?, error = NULL, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(entities.StatusProcessed), s.now(), resumeID, version)
}

func (s *Store) MarkFailed(ctx context.Context, resumeID, version, msg string) error {
	return s.versioned(ctx, `UPDATE resumes SET status = ?, error = ?, updated_at = ? WHERE id = ? AND version = ?`,
		string(entities.StatusError), msg, s.now(), resumeID, version)
}

func (s *Store) PrepareVersion(ctx context.Context, resumeID, version string) error {
	res, err := s.exec(ctx, `UPDATE resumes SET version = ?, updated_at = ? WHERE id = ?`, version, s.now(), resumeID)
	if err != nil {
		return fmt.Errorf("preparing version: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("resume")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	if _, err := s.exec(ctx, `DELETE FROM resumes WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting resume: %w", err)
	}
	return nil
}

// versioned runs a conditional update and reports supersession when no row matched.
func (s *Store) versioned(ctx context.Context, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating resume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return apperr.Superseded()
	}
	return nil
}

func encodeStructured(st *entities.StructuredResume) (sql.NullString, error) {
	if st == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding structured resume: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// --- users ---

func (s *Store) SetHasResume(ctx context.Context, userID string, has bool) error {
	_, err := s.exec(ctx, `INSERT INTO users (user_id, has_resume) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET has_resume = excluded.has_resume`, userID, has)
	if err != nil {
		return fmt.Errorf("updating user flag: %w", err)
	}
	return nil
}

func (s *Store) HasResume(ctx context.Context, userID string) (bool, error) {
	var has bool
	err := s.queryRow(ctx, `SELECT has_resume FROM users WHERE user_id = ?`, userID).Scan(&has)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying user flag: %w", err)
	}
	return has, nil
}
