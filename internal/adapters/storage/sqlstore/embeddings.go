package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

// WriteVersion inserts the whole set in one transaction. Vectors are stored as
// JSON arrays and must share one dimensionality.
func (s *Store) WriteVersion(ctx context.Context, segments []entities.SegmentEmbedding) error {
	if len(segments) == 0 {
		return nil
	}
	dims := len(segments[0].Vector)
	for _, seg := range segments {
		if len(seg.Vector) == 0 || len(seg.Vector) != dims {
			return fmt.Errorf("segment %s: vector dimensionality %d, want %d", seg.SegmentID, len(seg.Vector), dims)
		}
	}

	insert := s.rebind(`INSERT INTO segment_embeddings
		(id, user_id, resume_id, version, segment_type, segment_id, text, vector, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for _, seg := range segments {
			vector, err := json.Marshal(seg.Vector)
			if err != nil {
				return fmt.Errorf("encoding vector: %w", err)
			}
			meta, err := json.Marshal(seg.Metadata)
			if err != nil {
				return fmt.Errorf("encoding metadata: %w", err)
			}
			created := seg.CreatedAt
			if created.IsZero() {
				created = s.now()
			}
			if _, err := stmt.ExecContext(ctx, seg.ID, seg.UserID, seg.ResumeID, seg.Version, string(seg.SegmentType),
				seg.SegmentID, seg.Text, string(vector), string(meta), created.UTC()); err != nil {
				return fmt.Errorf("inserting segment %s: %w", seg.SegmentID, err)
			}
		}
		return nil
	})
}

func (s *Store) ListVersion(ctx context.Context, userID, version string) ([]entities.SegmentEmbedding, error) {
	rows, err := s.query(ctx, `SELECT id, user_id, resume_id, version, segment_type, segment_id, text, vector, metadata, created_at
		FROM segment_embeddings WHERE user_id = ? AND version = ? ORDER BY segment_id`, userID, version)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var out []entities.SegmentEmbedding
	for rows.Next() {
		var (
			seg     entities.SegmentEmbedding
			segType string
			vector  string
			meta    sql.NullString
		)
		if err := rows.Scan(&seg.ID, &seg.UserID, &seg.ResumeID, &seg.Version, &segType, &seg.SegmentID,
			&seg.Text, &vector, &meta, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		seg.SegmentType = entities.SegmentType(segType)
		if err := json.Unmarshal([]byte(vector), &seg.Vector); err != nil {
			return nil, fmt.Errorf("decoding vector: %w", err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &seg.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata: %w", err)
			}
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

func (s *Store) DeleteVersion(ctx context.Context, userID, version string) error {
	if _, err := s.exec(ctx, `DELETE FROM segment_embeddings WHERE user_id = ? AND version = ?`, userID, version); err != nil {
		return fmt.Errorf("deleting embedding version: %w", err)
	}
	return nil
}

// DeleteInactive keeps keep and whatever version the resume row currently owns,
// so a newer job's partial writes survive garbage collection.
func (s *Store) DeleteInactive(ctx context.Context, userID, keep string) error {
	_, err := s.exec(ctx, `DELETE FROM segment_embeddings
		WHERE user_id = ? AND version <> ?
		AND version NOT IN (SELECT version FROM resumes WHERE user_id = ?)`, userID, keep, userID)
	if err != nil {
		return fmt.Errorf("deleting inactive embeddings: %w", err)
	}
	return nil
}

func (s *Store) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.exec(ctx, `DELETE FROM segment_embeddings WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting embeddings: %w", err)
	}
	return nil
}

// CountVersion reports how many embeddings a version holds.
func (s *Store) CountVersion(ctx context.Context, userID, version string) (int, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM segment_embeddings WHERE user_id = ? AND version = ?`, userID, version).Scan(&n)
	return n, err
}
