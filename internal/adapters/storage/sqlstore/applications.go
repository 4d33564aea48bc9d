package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

// --- feedback ---

func (s *Store) Save(ctx context.Context, fb *entities.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = s.now()
	}
	_, err := s.exec(ctx, `INSERT INTO feedback
		(id, user_id, url, field_id, field_name, original_suggestion, user_correction, confidence, incorporated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.UserID, fb.URL, fb.FieldID, fb.FieldName, fb.OriginalSuggestion, fb.UserCorrection,
		string(fb.Confidence), fb.Incorporated, fb.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting feedback: %w", err)
	}
	return nil
}

func (s *Store) MarkIncorporated(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `UPDATE feedback SET incorporated = ? WHERE id = ?`, true, id); err != nil {
		return fmt.Errorf("updating feedback: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID, url string) ([]entities.Feedback, error) {
	query := `SELECT id, user_id, url, field_id, field_name, original_suggestion, user_correction, confidence, incorporated, created_at
		FROM feedback WHERE user_id = ?`
	args := []any{userID}
	if url != "" {
		query += ` AND url = ?`
		args = append(args, url)
	}
	query += ` ORDER BY created_at`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var out []entities.Feedback
	for rows.Next() {
		var (
			fb   entities.Feedback
			conf string
		)
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.URL, &fb.FieldID, &fb.FieldName, &fb.OriginalSuggestion,
			&fb.UserCorrection, &conf, &fb.Incorporated, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		fb.Confidence = entities.ConfidenceTier(conf)
		out = append(out, fb)
	}
	return out, rows.Err()
}

// --- applications ---

func (s *Store) GetByURL(ctx context.Context, userID, url string) (*entities.Application, error) {
	var app entities.Application
	err := s.queryRow(ctx, `SELECT id, user_id, url, title, created_at, updated_at
		FROM applications WHERE user_id = ? AND url = ?`, userID, url).Scan(
		&app.ID, &app.UserID, &app.URL, &app.Title, &app.CreatedAt, &app.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying application: %w", err)
	}

	rows, err := s.query(ctx, `SELECT field_id, field_name, field_type, label, placeholder, required, value, confidence, correction
		FROM form_fields WHERE application_id = ? ORDER BY field_id`, app.ID)
	if err != nil {
		return nil, fmt.Errorf("querying form fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f          entities.FormField
			conf       string
			correction sql.NullString
		)
		if err := rows.Scan(&f.FieldID, &f.FieldName, &f.FieldType, &f.Label, &f.Placeholder, &f.Required,
			&f.Value, &conf, &correction); err != nil {
			return nil, fmt.Errorf("scanning form field: %w", err)
		}
		f.ApplicationID = app.ID
		f.Confidence = entities.ConfidenceTier(conf)
		if correction.Valid {
			c := correction.String
			f.Correction = &c
		}
		app.Fields = append(app.Fields, f)
	}
	return &app, rows.Err()
}

// UpsertFields keeps existing corrections when a field is suggested again.
func (s *Store) UpsertFields(ctx context.Context, app *entities.Application) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO applications (id, user_id, url, title, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, url) DO UPDATE SET
				title = CASE WHEN excluded.title <> '' THEN excluded.title ELSE applications.title END,
				updated_at = excluded.updated_at`),
			uuid.NewString(), app.UserID, app.URL, app.Title, now, now)
		if err != nil {
			return fmt.Errorf("upserting application: %w", err)
		}

		var id string
		if err := tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM applications WHERE user_id = ? AND url = ?`),
			app.UserID, app.URL).Scan(&id); err != nil {
			return fmt.Errorf("reading application id: %w", err)
		}
		app.ID = id

		for _, f := range app.Fields {
			_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO form_fields
				(application_id, field_id, field_name, field_type, label, placeholder, required, value, confidence)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (application_id, field_id) DO UPDATE SET
					field_name = excluded.field_name,
					field_type = excluded.field_type,
					label = excluded.label,
					placeholder = excluded.placeholder,
					required = excluded.required,
					value = excluded.value,
					confidence = excluded.confidence`),
				id, f.FieldID, f.FieldName, f.FieldType, f.Label, f.Placeholder, f.Required, f.Value, string(f.Confidence))
			if err != nil {
				return fmt.Errorf("upserting field %s: %w", f.FieldID, err)
			}
		}
		return nil
	})
}

func (s *Store) SetCorrection(ctx context.Context, applicationID, fieldID, correction string) (bool, error) {
	res, err := s.exec(ctx, `UPDATE form_fields SET correction = ? WHERE application_id = ? AND field_id = ?`,
		correction, applicationID, fieldID)
	if err != nil {
		return false, fmt.Errorf("updating correction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}
