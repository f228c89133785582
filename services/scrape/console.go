package scrape

import (
	"fmt"
	"sync"
	"time"
	"wtbmonitor-backend/lib/timezone"
)

const consoleCapacity = 200

// Entry is one line of scrape progress output. Index increases
// monotonically for the lifetime of the process, so clients can poll
// with the last index they saw.
type Entry struct {
	Index   uint64    `json:"index"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Console is a bounded in-memory log of scrape progress, kept so the
// dashboard can tail a running scrape without a log pipeline. Oldest
// entries are dropped once the buffer is full.
type Console struct {
	mu      sync.Mutex
	next    uint64
	entries []Entry
}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Logf(format string, args ...any) {
	entry := Entry{
		Time:    timezone.Now(),
		Message: fmt.Sprintf(format, args...),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry.Index = c.next
	c.next++
	c.entries = append(c.entries, entry)
	if len(c.entries) > consoleCapacity {
		c.entries = c.entries[len(c.entries)-consoleCapacity:]
	}
}

// Drain consumes one source's progress events until the producer
// closes the channel, appending each to the buffer. The returned
// channel closes once everything was drained.
func (c *Console) Drain(events <-chan string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for message := range events {
			c.Logf("%s", message)
		}
	}()
	return done
}

// Since returns every retained entry with an index at or above the
// given one. Since(0) returns the whole buffer.
func (c *Console) Since(index uint64) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []Entry{}
	for _, entry := range c.entries {
		if entry.Index >= index {
			out = append(out, entry)
		}
	}
	return out
}
