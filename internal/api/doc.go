// Package api defines wire-format types and the submission service for the
// HTTP API layer. It translates internal job and clip models into
// transport-friendly DTOs so consumers never couple to storage types.
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (store.JobStatus, store.Stage) are exposed as lowercase strings and
// timestamps as RFC3339 with milliseconds.
package api
