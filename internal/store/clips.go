package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateClip inserts a pending clip for the given job.
func (s *Store) CreateClip(ctx context.Context, jobID string, start, end, score float64, reason string) (*Clip, error) {
	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO clips (
            id, job_id, start_sec, end_sec, score, reason, status,
            video_path, srt_path, vtt_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		jobID,
		start,
		end,
		score,
		reason,
		ClipPending,
		nil,
		nil,
		nil,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert clip: %w", err)
	}
	return s.GetClip(ctx, id)
}

// GetClip fetches a clip by identifier. Returns (nil, nil) when absent.
func (s *Store) GetClip(ctx context.Context, id string) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE id = ?`, id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	return clip, nil
}

// UpdateClip persists changes to an existing clip.
func (s *Store) UpdateClip(ctx context.Context, clip *Clip) error {
	if clip == nil {
		return errors.New("clip is nil")
	}
	clip.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE clips
         SET start_sec = ?, end_sec = ?, score = ?, reason = ?, status = ?,
             video_path = ?, srt_path = ?, vtt_path = ?, updated_at = ?
         WHERE id = ?`,
		clip.Start,
		clip.End,
		clip.Score,
		clip.Reason,
		clip.Status,
		nullableString(clip.VideoPath),
		nullableString(clip.SRTPath),
		nullableString(clip.VTTPath),
		clip.UpdatedAt.Format(time.RFC3339Nano),
		clip.ID,
	)
	if err != nil {
		return fmt.Errorf("update clip: %w", err)
	}
	return nil
}

// ListClips returns a job's clips in score-descending order.
func (s *Store) ListClips(ctx context.Context, jobID string) ([]*Clip, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+clipColumns+` FROM clips WHERE job_id = ? ORDER BY score DESC, created_at`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

const clipColumns = "id, job_id, start_sec, end_sec, score, reason, status, video_path, srt_path, vtt_path, created_at, updated_at"

func scanClip(scanner interface{ Scan(dest ...any) error }) (*Clip, error) {
	var (
		id         string
		jobID      string
		start      float64
		end        float64
		score      float64
		reason     string
		statusStr  string
		videoPath  sql.NullString
		srtPath    sql.NullString
		vttPath    sql.NullString
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&start,
		&end,
		&score,
		&reason,
		&statusStr,
		&videoPath,
		&srtPath,
		&vttPath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	clip := &Clip{
		ID:        id,
		JobID:     jobID,
		Start:     start,
		End:       end,
		Score:     score,
		Reason:    reason,
		Status:    ClipStatus(statusStr),
		VideoPath: videoPath.String,
		SRTPath:   srtPath.String,
		VTTPath:   vttPath.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		clip.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		clip.UpdatedAt = updated
	}
	return clip, nil
}
