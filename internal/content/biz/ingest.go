package biz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lk2023060901/perspectize-backend/internal/pkg/cachekey"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/format"
	"github.com/lk2023060901/perspectize-backend/internal/youtube"
	"go.uber.org/zap"
)

// IngestStatus is the result of ingesting one URL
type IngestStatus string

const (
	StatusCreated IngestStatus = "created"
	StatusUpdated IngestStatus = "updated"
	StatusError   IngestStatus = "error"
)

const msgExtractionFailed = "identifier extraction failed"

// IngestOutcome reports what happened to one input URL
type IngestOutcome struct {
	URL     string       `json:"url"`
	Status  IngestStatus `json:"status"`
	VideoID string       `json:"videoId,omitempty"`
	Name    string       `json:"name,omitempty"`
	Message string       `json:"message,omitempty"`
	// Hint is the user-facing text for error rows
	Hint string `json:"hint,omitempty"`
}

// VideoSource resolves a video identifier to validated metadata and the raw
// upstream document
type VideoSource interface {
	GetVideo(ctx context.Context, videoID string) (*youtube.Video, []byte, error)
}

// Ingest resolves and persists every URL independently. The outcome slice
// matches the input order. Only store failures abort the batch; on
// cancellation the outcomes of URLs already started are returned together
// with ctx.Err().
func (uc *ContentUseCase) Ingest(ctx context.Context, urls []string) ([]IngestOutcome, error) {
	return uc.IngestWithProgress(ctx, urls, nil)
}

// ProgressFunc receives each outcome as soon as its URL is done. With a
// worker pool it is called from several goroutines.
type ProgressFunc func(index int, outcome IngestOutcome)

// IngestWithProgress is Ingest reporting every finished URL to progress
func (uc *ContentUseCase) IngestWithProgress(ctx context.Context, urls []string, progress ProgressFunc) ([]IngestOutcome, error) {
	if progress == nil {
		progress = func(int, IngestOutcome) {}
	}
	if len(urls) == 0 {
		return nil, ErrEmptyURLList
	}

	start := time.Now()
	outcomes := make([]IngestOutcome, len(urls))
	started := make([]bool, len(urls))

	var err error
	if uc.pool != nil && len(urls) > 1 {
		err = uc.ingestParallel(ctx, urls, outcomes, started, progress)
	} else {
		err = uc.ingestSequential(ctx, urls, outcomes, started, progress)
	}

	result := make([]IngestOutcome, 0, len(urls))
	changed := false
	for i, o := range outcomes {
		if !started[i] || o.Status == "" {
			continue
		}
		if o.Status != StatusError {
			changed = true
		}
		uc.metrics.RecordIngestOutcome(string(o.Status))
		result = append(result, o)
	}
	uc.metrics.ObserveBatch(len(urls), time.Since(start))

	if changed {
		// use a fresh context so a cancelled batch still drops stale entries
		uc.cache.Invalidate(context.WithoutCancel(ctx), cachekey.ContentLists(), cachekey.ContentDetails())
	}

	if err != nil {
		uc.logger.Error("ingestion aborted",
			zap.Int("urls", len(urls)),
			zap.Int("completed", len(result)),
			zap.Error(err),
		)
		return result, err
	}
	return result, nil
}

func (uc *ContentUseCase) ingestSequential(ctx context.Context, urls []string, outcomes []IngestOutcome, started []bool, progress ProgressFunc) error {
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		started[i] = true

		o, err := uc.ingestOne(ctx, u)
		if err != nil {
			return err
		}
		outcomes[i] = o
		progress(i, o)
	}
	return nil
}

func (uc *ContentUseCase) ingestParallel(ctx context.Context, urls []string, outcomes []IngestOutcome, started []bool, progress ProgressFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		infraErr error
	)

	poolErr := uc.pool.ForEach(ctx, len(urls), func(ctx context.Context, i int) {
		if ctx.Err() != nil {
			return
		}
		started[i] = true

		o, err := uc.ingestOne(ctx, urls[i])
		if err != nil {
			mu.Lock()
			if infraErr == nil {
				infraErr = err
			}
			mu.Unlock()
			cancel()
			return
		}
		outcomes[i] = o
		progress(i, o)
	})

	if infraErr != nil {
		return infraErr
	}
	return poolErr
}

// ingestOne runs the per-URL steps. A non-nil error is an infrastructure
// failure; everything else is reported in the outcome.
func (uc *ContentUseCase) ingestOne(ctx context.Context, rawURL string) (IngestOutcome, error) {
	out := IngestOutcome{URL: rawURL}

	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		return failed(out, msgExtractionFailed), nil
	}
	out.VideoID = videoID

	video, body, err := uc.source.GetVideo(ctx, videoID)
	if err != nil {
		return failed(out, upstreamMessage(err)), nil
	}

	seconds, err := youtube.ParseDuration(video.ContentDetails.Duration)
	if err != nil {
		uc.logger.Warn("skipping video with unparseable duration",
			zap.String("video_id", videoID),
			zap.String("duration", video.ContentDetails.Duration),
		)
		return failed(out, fmt.Sprintf("invalid duration: %v", err)), nil
	}

	url := rawURL
	units := LengthUnitsSeconds
	item := &Content{
		URL:         &url,
		Name:        video.Snippet.Title,
		ContentType: ContentTypeYouTube,
		Length:      &seconds,
		LengthUnits: &units,
		Response:    body,
	}
	out.Name = item.Name

	created, err := uc.repo.Upsert(ctx, item)
	switch {
	case errors.Is(err, ErrNameConflict):
		return failed(out, fmt.Sprintf("content with name '%s' already exists", item.Name)), nil
	case err != nil && ctx.Err() != nil:
		return failed(out, ctx.Err().Error()), nil
	case err != nil:
		return out, fmt.Errorf("upsert content %q: %w", rawURL, err)
	}

	if created {
		out.Status = StatusCreated
	} else {
		out.Status = StatusUpdated
	}
	return out, nil
}

func failed(out IngestOutcome, msg string) IngestOutcome {
	out.Status = StatusError
	out.Message = msg
	out.Hint = format.VideoFailureMessage(msg)
	return out
}

func upstreamMessage(err error) string {
	var apiErr *youtube.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, youtube.ErrVideoNotFound), errors.Is(err, youtube.ErrMalformedResponse):
		return youtube.ErrVideoNotFound.Error()
	default:
		return err.Error()
	}
}
