// Package command runs external media tools. It provides bounded stderr
// tails for error reporting and a helper for piping one tool's stdout into
// another under a shared timeout.
package command
