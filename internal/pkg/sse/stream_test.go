package sse

import (
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStream() (*Stream, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return New(c, 0), w
}

func TestEvent_Format(t *testing.T) {
	assert.Equal(t, "event: ping\ndata: {\"n\":1}\n\n", Event{Type: "ping", Data: map[string]int{"n": 1}}.Format())
	assert.Equal(t, "data: null\n\n", Event{}.Format())
	assert.Contains(t, Event{Type: "bad", Data: make(chan int)}.Format(), `"error"`)
}

func TestStream_SendAndClose(t *testing.T) {
	s, w := newTestStream()
	s.Start()
	require.NoError(t, s.Send("hello", "world"))

	s.Close()
	s.Close()
	assert.True(t, errors.Is(s.Send("late", nil), ErrStreamClosed))

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "event: hello\ndata: \"world\"\n\n", w.Body.String())
}

// brokenPipe accepts the first write and fails every later one
type brokenPipe struct {
	*httptest.ResponseRecorder
	writes int
}

func (w *brokenPipe) Write(b []byte) (int, error) {
	w.writes++
	if w.writes > 1 {
		return 0, errors.New("broken pipe")
	}
	return w.ResponseRecorder.Write(b)
}

func (w *brokenPipe) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func TestStream_WriteFailureClosesStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := &brokenPipe{ResponseRecorder: httptest.NewRecorder()}
	c, _ := gin.CreateTestContext(w)
	s := New(c, 0)
	s.Start()

	require.NoError(t, s.Send("first", nil))
	assert.ErrorIs(t, s.Send("second", nil), ErrStreamClosed)
	assert.ErrorIs(t, s.Send("third", nil), ErrStreamClosed)
	assert.Equal(t, 2, w.writes)
	s.Close()
}

func TestProgressTracker(t *testing.T) {
	s, w := newTestStream()
	s.Start()
	tracker := NewProgressTracker(s, 3)

	require.NoError(t, tracker.Start())
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 1 {
				_ = tracker.RecordFailure(i, "boom")
				return
			}
			_ = tracker.RecordSuccess(i, "ok")
		}(i)
	}
	wg.Wait()
	require.NoError(t, tracker.Complete())

	succeeded, failed := tracker.Stats()
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)

	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: "+EventItemSuccess+"\n"))
	assert.Equal(t, 1, strings.Count(body, "event: "+EventItemFailed+"\n"))
	assert.True(t, strings.HasPrefix(body, "event: "+EventBatchStart+"\n"))
	assert.Contains(t, body, `"succeeded":2`)
}
