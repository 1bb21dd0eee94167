// Package render shells out to ffmpeg and ffprobe: vertical 9:16 clip
// encoding, container probing, and the silencedetect-based audio energy
// profile consumed by highlight detection.
package render
