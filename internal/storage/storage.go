// Package storage owns the on-disk layout for job artifacts: one directory
// per job holding the transcript plus rendered clip videos and caption files.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"clipforge/internal/subtitles"
)

// Layout maps job and clip identifiers to artifact paths under the jobs
// directory.
type Layout struct {
	jobsDir string
}

// NewLayout returns a layout rooted at jobsDir.
func NewLayout(jobsDir string) *Layout {
	return &Layout{jobsDir: jobsDir}
}

// JobsDir returns the root directory that holds per-job directories.
func (l *Layout) JobsDir() string {
	return l.jobsDir
}

// JobDir returns the artifact directory for a job.
func (l *Layout) JobDir(jobID string) string {
	return filepath.Join(l.jobsDir, jobID)
}

// TranscriptPath returns the location of a job's transcript JSON.
func (l *Layout) TranscriptPath(jobID string) string {
	return filepath.Join(l.JobDir(jobID), "transcript.json")
}

// ClipVideoPath returns the rendered video location for a clip.
func (l *Layout) ClipVideoPath(jobID, clipID string) string {
	return filepath.Join(l.JobDir(jobID), "clip-"+clipID+".mp4")
}

// ClipSRTPath returns the SRT caption location for a clip.
func (l *Layout) ClipSRTPath(jobID, clipID string) string {
	return filepath.Join(l.JobDir(jobID), "clip-"+clipID+".srt")
}

// ClipVTTPath returns the WebVTT caption location for a clip.
func (l *Layout) ClipVTTPath(jobID, clipID string) string {
	return filepath.Join(l.JobDir(jobID), "clip-"+clipID+".vtt")
}

// EnsureJobDir creates the job directory if needed.
func (l *Layout) EnsureJobDir(jobID string) (string, error) {
	dir := l.JobDir(jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create job directory: %w", err)
	}
	return dir, nil
}

// RemoveJobDir deletes a job's artifact directory and everything in it.
func (l *Layout) RemoveJobDir(jobID string) error {
	return os.RemoveAll(l.JobDir(jobID))
}

// WriteTranscript persists the transcript as indented JSON next to the job's
// clips.
func (l *Layout) WriteTranscript(jobID string, transcript subtitles.Transcript) error {
	if _, err := l.EnsureJobDir(jobID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(l.TranscriptPath(jobID), data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// ReadTranscript loads a previously persisted transcript. A missing file
// returns os.ErrNotExist via the underlying read.
func (l *Layout) ReadTranscript(jobID string) (subtitles.Transcript, error) {
	data, err := os.ReadFile(l.TranscriptPath(jobID))
	if err != nil {
		return subtitles.Transcript{}, err
	}
	var transcript subtitles.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return subtitles.Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}
	return transcript, nil
}

// WriteCaptions writes a clip's SRT and its VTT derivation in one step.
func (l *Layout) WriteCaptions(jobID, clipID, srt string) error {
	if _, err := l.EnsureJobDir(jobID); err != nil {
		return err
	}
	if err := os.WriteFile(l.ClipSRTPath(jobID, clipID), []byte(srt), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	if err := os.WriteFile(l.ClipVTTPath(jobID, clipID), []byte(subtitles.SRTToVTT(srt)), 0o644); err != nil {
		return fmt.Errorf("write vtt: %w", err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
