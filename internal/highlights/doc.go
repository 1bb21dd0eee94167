// Package highlights picks clip-worthy segments out of a source video.
//
// The engine is pure: it consumes a transcript and a pre-computed audio
// energy profile and returns scored time ranges. Candidates come from two
// generators (transcript windows and sustained loud runs), get a weighted
// audio/text score, are trimmed of leading and trailing silence, and finally
// pass through greedy overlap suppression so the returned highlights do not
// repeat the same moment.
package highlights
