// Package daemon runs the long-lived ClipForge process: it enforces
// single-instance execution with a lock file, serves the HTTP API, supervises
// worker child processes, and ingests files dropped into the inbox directory.
package daemon
