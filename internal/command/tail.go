package command

import (
	"io"
	"strings"
	"sync"
)

// DefaultTailLines bounds how much tool stderr is kept for error reports.
const DefaultTailLines = 80

// Tail retains the most recent lines written by external tools, each line
// prefixed with the tool name. It is safe for concurrent writers, which
// matters when two piped processes report stderr at once.
type Tail struct {
	mu      sync.Mutex
	limit   int
	lines   []string
	partial map[string]string
}

// NewTail returns a tail keeping at most limit lines; non-positive limits
// fall back to DefaultTailLines.
func NewTail(limit int) *Tail {
	if limit <= 0 {
		limit = DefaultTailLines
	}
	return &Tail{limit: limit, partial: make(map[string]string)}
}

// Push splits chunk into lines and appends each as "[tag] line", evicting the
// oldest entries past the limit. Incomplete trailing lines are buffered until
// the next chunk completes them.
func (t *Tail) Push(tag, chunk string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	text := t.partial[tag] + chunk
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	t.partial[tag] = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if line == "" {
			continue
		}
		t.lines = append(t.lines, "["+tag+"] "+line)
		if len(t.lines) > t.limit {
			t.lines = t.lines[1:]
		}
	}
}

// String flushes any buffered partial lines and returns the retained tail.
func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := append([]string(nil), t.lines...)
	for tag, rest := range t.partial {
		if rest != "" {
			lines = append(lines, "["+tag+"] "+rest)
		}
	}
	return strings.Join(lines, "\n")
}

// Writer returns an io.Writer that pushes everything written to it under tag.
// Attach it as a command's Stderr.
func (t *Tail) Writer(tag string) io.Writer {
	return &tailWriter{tail: t, tag: tag}
}

type tailWriter struct {
	tail *Tail
	tag  string
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.tail.Push(w.tag, string(p))
	return len(p), nil
}
