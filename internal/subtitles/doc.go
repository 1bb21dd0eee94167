// Package subtitles models transcripts and converts them between the
// transcript JSON artifact, SubRip sidecars, and WebVTT.
package subtitles
