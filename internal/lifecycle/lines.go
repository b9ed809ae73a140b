package lifecycle

import "sync"

// DefaultBufferCap is the number of output lines kept per server.
const DefaultBufferCap = 1000

// LineBuffer is a thread-safe fixed-capacity ring of output lines.
// On overflow the oldest line is dropped.
type LineBuffer struct {
	mu    sync.RWMutex
	lines []string
	start int
	count int
}

// NewLineBuffer creates a buffer holding at most capacity lines.
func NewLineBuffer(capacity int) *LineBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCap
	}
	return &LineBuffer{lines: make([]string, capacity)}
}

// Append adds a line, evicting the oldest when the buffer is full.
func (b *LineBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := (b.start + b.count) % len(b.lines)
	b.lines[end] = line
	if b.count < len(b.lines) {
		b.count++
		return
	}
	b.start = (b.start + 1) % len(b.lines)
}

// Lines returns all buffered lines, oldest first.
func (b *LineBuffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.lines[(b.start+i)%len(b.lines)]
	}
	return out
}

// Tail returns the newest n lines, oldest first. n larger than the
// buffered count returns everything.
func (b *LineBuffer) Tail(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	first := b.count - n
	for i := 0; i < n; i++ {
		out[i] = b.lines[(b.start+first+i)%len(b.lines)]
	}
	return out
}

// Len returns the number of buffered lines.
func (b *LineBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Reset clears the buffer.
func (b *LineBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = 0
	b.count = 0
}
