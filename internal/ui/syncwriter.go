package ui

import (
	"io"
	"sync"
	"time"
)

// File is the subset of *os.File the SyncWriter needs.
type File interface {
	io.WriteCloser
	Sync() error
}

// SyncWriter wraps a log file and syncs it to disk on an interval, so a
// pipeline tailing the file sees lines while extver is still running.
type SyncWriter struct {
	f        File
	mu       sync.Mutex
	dirty    bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration
}

// NewSyncWriter starts a SyncWriter. A zero interval means 200ms.
func NewSyncWriter(f File, interval time.Duration) *SyncWriter {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	sw := &SyncWriter{
		f:        f,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		interval: interval,
	}
	go sw.syncLoop()
	return sw
}

func (sw *SyncWriter) syncLoop() {
	defer close(sw.doneCh)
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = sw.Sync()
		case <-sw.stopCh:
			_ = sw.Sync()
			return
		}
	}
}

func (sw *SyncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	n, err := sw.f.Write(p)
	if n > 0 {
		sw.dirty = true
	}
	return n, err
}

// Sync forces an immediate sync if anything was written since the last one.
func (sw *SyncWriter) Sync() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if !sw.dirty {
		return nil
	}
	sw.dirty = false
	return sw.f.Sync()
}

// Close stops the sync loop and closes the underlying file.
func (sw *SyncWriter) Close() error {
	close(sw.stopCh)
	<-sw.doneCh
	return sw.f.Close()
}

var _ io.WriteCloser = (*SyncWriter)(nil)

// TimestampWriter prepends a timestamp to each write. The logger writes one
// line per call, so every line gets its own stamp.
type TimestampWriter struct {
	w   io.Writer
	now func() time.Time
}

func NewTimestampWriter(w io.Writer) *TimestampWriter {
	return &TimestampWriter{w: w, now: time.Now}
}

func (tw *TimestampWriter) Write(p []byte) (int, error) {
	prefixed := "[" + tw.now().Format(timestampLayout) + "] " + string(p)
	if _, err := io.WriteString(tw.w, prefixed); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Sync forwards to the wrapped writer if it supports it.
func (tw *TimestampWriter) Sync() error {
	if s, ok := tw.w.(syncer); ok {
		return s.Sync()
	}
	return nil
}

// Close forwards to the wrapped writer if it supports it.
func (tw *TimestampWriter) Close() error {
	if c, ok := tw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
