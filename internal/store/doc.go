// Package store persists jobs and clips in SQLite and defines the status,
// stage, and option models that the pipeline mutates as a job progresses.
package store
