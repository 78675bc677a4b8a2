package lsnplog

import (
	"container/ring"
	"sync"
)

// Ring is a bounded, timestamp-free in-memory log sink: an io.Writer
// adapter that keeps only the last size lines, for the REPL's "recent
// log output" convenience. Adapted from the teacher's minilog.Ring,
// trimmed of its own timestamp prefix since lsnplog sinks already
// prepend level and call site.
type Ring struct {
	size int

	mu sync.Mutex
	r  *ring.Ring
}

// NewRing returns a Ring sink retaining the last size lines.
func NewRing(size int) *Ring {
	return &Ring{r: ring.New(size), size: size}
}

// Write implements io.Writer, storing p as one log line.
func (l *Ring) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.r = l.r.Next()
	l.r.Value = string(p)
	return len(p), nil
}

// Dump returns the retained lines, oldest first.
func (l *Ring) Dump() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := make([]string, 0, l.size)
	l.r.Next().Do(func(v interface{}) {
		if v == nil {
			return
		}
		res = append(res, v.(string))
	})
	return res
}
