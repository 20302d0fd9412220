package sse

import (
	"fmt"
	"sync/atomic"
)

// Event types sent by ProgressTracker
const (
	EventBatchStart    = "batch-start"
	EventItemSuccess   = "item-success"
	EventItemFailed    = "item-failed"
	EventBatchComplete = "batch-complete"
	EventBatchError    = "batch-error"
)

// ProgressTracker reports a batch of items over a stream
type ProgressTracker struct {
	stream    *Stream
	total     int
	completed atomic.Int32
	succeeded atomic.Int32
	failed    atomic.Int32
}

func NewProgressTracker(stream *Stream, total int) *ProgressTracker {
	return &ProgressTracker{stream: stream, total: total}
}

// Start announces the batch size
func (t *ProgressTracker) Start() error {
	return t.stream.Send(EventBatchStart, map[string]interface{}{
		"total":   t.total,
		"message": fmt.Sprintf("Starting batch of %d items", t.total),
	})
}

// RecordSuccess counts a finished item. index is zero-based.
func (t *ProgressTracker) RecordSuccess(index int, data interface{}) error {
	t.succeeded.Add(1)
	return t.stream.Send(EventItemSuccess, t.itemEvent(index, data))
}

// RecordFailure counts a failed item
func (t *ProgressTracker) RecordFailure(index int, data interface{}) error {
	t.failed.Add(1)
	return t.stream.Send(EventItemFailed, t.itemEvent(index, data))
}

// Fail reports an error that ended the batch early
func (t *ProgressTracker) Fail(err error) error {
	return t.stream.Send(EventBatchError, map[string]interface{}{
		"completed": int(t.completed.Load()),
		"total":     t.total,
		"message":   err.Error(),
	})
}

// Complete sends the final counts
func (t *ProgressTracker) Complete() error {
	succeeded, failed := t.Stats()
	return t.stream.Send(EventBatchComplete, map[string]interface{}{
		"total":     t.total,
		"succeeded": succeeded,
		"failed":    failed,
		"message":   fmt.Sprintf("Batch completed: %d succeeded, %d failed", succeeded, failed),
	})
}

// Stats returns the success and failure counts so far
func (t *ProgressTracker) Stats() (succeeded, failed int) {
	return int(t.succeeded.Load()), int(t.failed.Load())
}

func (t *ProgressTracker) itemEvent(index int, data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"index":     index,
		"completed": int(t.completed.Add(1)),
		"total":     t.total,
		"data":      data,
	}
}
