// Command clipforge is the ClipForge CLI and daemon entry point. It serves
// the HTTP API and worker pool (serve), runs a single worker process
// (worker), submits and inspects jobs (jobs), re-renders and generates
// individual clips (clip), and reports runtime status (status).
package main
