package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a job in a transport-friendly format.
type Job struct {
	ID         string      `json:"id"`
	SourceType string      `json:"sourceType"`
	SourceURL  string      `json:"sourceUrl,omitempty"`
	UploadID   string      `json:"uploadId,omitempty"`
	Status     string      `json:"status"`
	Stage      string      `json:"stage"`
	Progress   int         `json:"progress"`
	Options    JobOptions  `json:"options"`
	Error      string      `json:"error,omitempty"`
	Metadata   *JobDetails `json:"metadata,omitempty"`
	CreatedAt  string      `json:"createdAt,omitempty"`
	UpdatedAt  string      `json:"updatedAt,omitempty"`
}

// JobOptions mirrors per-job processing options on the wire.
type JobOptions struct {
	Language       string `json:"language"`
	ClipCount      int    `json:"clipCount"`
	DurationPreset string `json:"durationPreset"`
	Subtitles      string `json:"subtitles"`
	SmartCrop      bool   `json:"smartCrop"`
}

// JobDetails carries resolved source metadata.
type JobDetails struct {
	Title    string `json:"title,omitempty"`
	Provider string `json:"provider,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Clip describes a rendered highlight.
type Clip struct {
	ID        string  `json:"id"`
	JobID     string  `json:"jobId"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
	Status    string  `json:"status"`
	VideoPath string  `json:"videoPath,omitempty"`
	SRTPath   string  `json:"srtPath,omitempty"`
	VTTPath   string  `json:"vttPath,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// SubmitJobRequest is the POST /api/jobs payload.
type SubmitJobRequest struct {
	URL      string      `json:"url,omitempty"`
	UploadID string      `json:"uploadId,omitempty"`
	Options  *JobOptions `json:"options,omitempty"`
}

// RerenderRequest is the POST /api/jobs/{id}/clips/{clipId}/rerender payload.
type RerenderRequest struct {
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	BurnSubtitles bool    `json:"burnSubtitles"`
	SmartCrop     bool    `json:"smartCrop"`
}

// JobResponse wraps a job and its clips.
type JobResponse struct {
	Job   Job    `json:"job"`
	Clips []Clip `json:"clips"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// StatsResponse provides job counts keyed by status plus queue depth.
type StatsResponse struct {
	Counts      map[string]int `json:"counts"`
	QueueLength int64          `json:"queueLength"`
}

// ErrorResponse carries a user-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DependencyStatus captures availability of an external tool.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DBPath       string             `json:"dbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Workers      int                `json:"workers"`
	Stats        StatsResponse      `json:"stats"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}
