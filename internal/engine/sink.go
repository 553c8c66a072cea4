// Package engine executes ordered automation steps against the live desktop.
package engine

import (
	"log/slog"
	"sync"
	"time"
)

// Level classifies a log event for the UI surface.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Sink receives user-facing log events. The engine never owns a presentation
// technology; callers pass whatever sink they want to render with.
type Sink interface {
	Log(level Level, msg string)
}

// SlogSink forwards events to the process-wide structured logger.
type SlogSink struct{}

func (SlogSink) Log(level Level, msg string) {
	switch level {
	case LevelDebug:
		slog.Debug(msg)
	case LevelWarning:
		slog.Warn(msg)
	case LevelError:
		slog.Error(msg)
	default:
		slog.Info(msg, "level", string(level))
	}
}

// Entry is one buffered log event.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

// Buffer is a bounded in-memory sink with a non-blocking event channel so a
// server can replay recent events to new clients and broadcast live ones.
type Buffer struct {
	mu       sync.RWMutex
	entries  []Entry
	maxSize  int
	eventsCh chan Entry
}

// NewBuffer creates a buffer keeping at most maxEntries recent events.
func NewBuffer(maxEntries, eventBuffer int) *Buffer {
	return &Buffer{
		entries:  make([]Entry, 0, maxEntries),
		maxSize:  maxEntries,
		eventsCh: make(chan Entry, eventBuffer),
	}
}

// Log stores the event and emits it without blocking; slow consumers drop
// events rather than stalling a run.
func (b *Buffer) Log(level Level, msg string) {
	e := Entry{Timestamp: time.Now(), Level: level, Message: msg}

	b.mu.Lock()
	b.entries = append(b.entries, e)
	if len(b.entries) > b.maxSize {
		b.entries = b.entries[len(b.entries)-b.maxSize:]
	}
	b.mu.Unlock()

	select {
	case b.eventsCh <- e:
	default:
	}
}

// Recent returns a copy of the buffered entries, oldest first.
func (b *Buffer) Recent() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Events returns the live event channel.
func (b *Buffer) Events() <-chan Entry {
	return b.eventsCh
}

// MultiSink fans one event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Log(level Level, msg string) {
	for _, s := range m {
		s.Log(level, msg)
	}
}
