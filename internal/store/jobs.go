package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewJobInput carries the fields required to create a job.
type NewJobInput struct {
	SourceType SourceType
	SourceURL  string
	UploadID   string
	Options    JobOptions
}

// CreateJob inserts a new pending job and returns it.
func (s *Store) CreateJob(ctx context.Context, input NewJobInput) (*Job, error) {
	input.Options.Normalize()
	optionsJSON, err := json.Marshal(input.Options)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}

	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, source_type, source_url, upload_id, status, stage, progress,
            options_json, error_message, metadata_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		input.SourceType,
		nullableString(input.SourceURL),
		nullableString(input.UploadID),
		JobPending,
		StageQueued,
		0,
		string(optionsJSON),
		nil,
		nil,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a job by identifier. Returns (nil, nil) when absent.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// UpdateJob persists changes to an existing job.
func (s *Store) UpdateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	optionsJSON, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	var metadataJSON any
	if job.Metadata != nil {
		data, err := json.Marshal(job.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadataJSON = string(data)
	}

	job.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET source_type = ?, source_url = ?, upload_id = ?, status = ?, stage = ?,
             progress = ?, options_json = ?, error_message = ?, metadata_json = ?, updated_at = ?
         WHERE id = ?`,
		job.SourceType,
		nullableString(job.SourceURL),
		nullableString(job.UploadID),
		job.Status,
		job.Stage,
		job.Progress,
		string(optionsJSON),
		nullableString(job.Error),
		metadataJSON,
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// SetJobStage updates the stage-tracking fields in one statement.
func (s *Store) SetJobStage(ctx context.Context, id string, status JobStatus, stage Stage, progress int, errorMessage string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, stage = ?, progress = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status,
		stage,
		progress,
		nullableString(errorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set job stage: %w", err)
	}
	return nil
}

// SetJobProgress updates only the progress column.
func (s *Store) SetJobProgress(ctx context.Context, id string, progress int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?`,
		progress,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set job progress: %w", err)
	}
	return nil
}

// ListJobs returns jobs filtered by status set (or all jobs when no status is
// provided), newest first.
func (s *Store) ListJobs(ctx context.Context, statuses ...JobStatus) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job (and its clips via cascade) by identifier.
func (s *Store) DeleteJob(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// JobStats returns a count of jobs grouped by status.
func (s *Store) JobStats(ctx context.Context) (map[JobStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[JobStatus]int)
	for rows.Next() {
		var status JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const jobColumns = "id, source_type, source_url, upload_id, status, stage, progress, options_json, error_message, metadata_json, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id          string
		sourceType  string
		sourceURL   sql.NullString
		uploadID    sql.NullString
		statusStr   string
		stageStr    string
		progress    int
		optionsJSON string
		errMessage  sql.NullString
		metadata    sql.NullString
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&id,
		&sourceType,
		&sourceURL,
		&uploadID,
		&statusStr,
		&stageStr,
		&progress,
		&optionsJSON,
		&errMessage,
		&metadata,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:         id,
		SourceType: SourceType(sourceType),
		SourceURL:  sourceURL.String,
		UploadID:   uploadID.String,
		Status:     JobStatus(statusStr),
		Stage:      Stage(stageStr),
		Progress:   progress,
		Error:      errMessage.String,
	}
	if err := json.Unmarshal([]byte(optionsJSON), &job.Options); err != nil {
		return nil, fmt.Errorf("decode job options: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		meta := &JobMetadata{}
		if err := json.Unmarshal([]byte(metadata.String), meta); err != nil {
			return nil, fmt.Errorf("decode job metadata: %w", err)
		}
		job.Metadata = meta
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
