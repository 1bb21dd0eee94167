// Package services holds cross-cutting helpers shared by pipeline stages:
// sentinel error markers with stage-tagged wrapping and context annotation
// for job, stage, and correlation identifiers.
package services
