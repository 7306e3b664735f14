// Package convo holds the conversation log and its append-only transcript.
package convo

import (
	"fmt"
	log "log/slog"
	"os"
	"sync"
	"time"
)

const TimeLayout = "2006-01-02 15:04:05"

type Speaker int

const (
	Assistant Speaker = iota
	User
)

func (s Speaker) String() string {
	if s == User {
		return "user"
	}
	return "assistant"
}

// Entry is one completed utterance. Entries are never mutated.
type Entry struct {
	Speaker Speaker
	Text    string
	Time    time.Time
}

func NewEntry(s Speaker, text string) Entry {
	return Entry{Speaker: s, Text: text, Time: time.Now()}
}

// Log is the in-memory, ordered conversation shown to the user.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Clear drops every in-memory entry. The transcript file is untouched.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Transcript appends entries to a text file, one line each:
//
//	2006-01-02 15:04:05 - ELISA: text
type Transcript struct {
	mu   sync.Mutex
	path string

	assistantName string
	userLabel     string
}

func NewTranscript(path, assistantName, userLabel string) *Transcript {
	return &Transcript{path: path, assistantName: assistantName, userLabel: userLabel}
}

func (t *Transcript) Prefix(s Speaker) string {
	if s == User {
		return t.userLabel
	}
	return t.assistantName
}

func (t *Transcript) Line(e Entry) string {
	return fmt.Sprintf("%s - %s: %s\n", e.Time.Format(TimeLayout), t.Prefix(e.Speaker), e.Text)
}

func (t *Transcript) Append(e Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}

	if _, err := f.WriteString(t.Line(e)); err != nil {
		f.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	return f.Close()
}

// Record appends e to the log and persists it. A failed write is logged;
// the in-memory log is updated regardless.
func Record(l *Log, t *Transcript, e Entry) {
	l.Append(e)
	if t == nil {
		return
	}
	if err := t.Append(e); err != nil {
		log.Error("Failed to save conversation", "err", err)
	}
}
