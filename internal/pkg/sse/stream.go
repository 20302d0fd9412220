package sse

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrStreamClosed is returned by Send after Close or once a write has failed
var ErrStreamClosed = errors.New("stream closed")

// Stream writes events to one HTTP response. Send is safe for concurrent use.
type Stream struct {
	mu        sync.Mutex
	w         gin.ResponseWriter
	closed    bool
	heartbeat time.Duration
	stop      chan struct{}
}

// New prepares a stream over c. heartbeat <= 0 disables keep-alive comments.
func New(c *gin.Context, heartbeat time.Duration) *Stream {
	return &Stream{
		w:         c.Writer,
		heartbeat: heartbeat,
		stop:      make(chan struct{}),
	}
}

// Start writes the event-stream headers and starts the heartbeat
func (s *Stream) Start() {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.w.Flush()

	if s.heartbeat > 0 {
		go s.keepAlive()
	}
}

// Send writes one event and flushes it
func (s *Stream) Send(eventType string, data interface{}) error {
	return s.write(Event{Type: eventType, Data: data}.Format())
}

// Close stops the heartbeat. Further sends fail with ErrStreamClosed.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.stop)
}

func (s *Stream) write(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}

	if _, err := io.WriteString(s.w, frame); err != nil {
		// the client is gone
		s.closed = true
		close(s.stop)
		return fmt.Errorf("%w: write event: %v", ErrStreamClosed, err)
	}
	s.w.Flush()
	return nil
}

func (s *Stream) keepAlive() {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.write(": heartbeat\n\n"); err != nil {
				return
			}
		}
	}
}
