package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/perspectize-backend/internal/content/biz"
	apperrors "github.com/lk2023060901/perspectize-backend/internal/pkg/errors"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/format"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/response"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/sse"
	"github.com/lk2023060901/perspectize-backend/internal/youtube"
	"go.uber.org/zap"
)

const streamHeartbeat = 15 * time.Second

// VideoFetcher returns the raw upstream document for a video
type VideoFetcher interface {
	FetchVideo(ctx context.Context, videoID string) ([]byte, error)
}

// ContentService serves content queries and YouTube ingestion
type ContentService struct {
	uc       *biz.ContentUseCase
	videos   VideoFetcher
	ingestMW []gin.HandlerFunc
	logger   *logger.Logger
}

// NewContentService creates the content HTTP service. ingestMiddleware runs
// in front of the ingestion routes only.
func NewContentService(uc *biz.ContentUseCase, videos VideoFetcher, logger *logger.Logger, ingestMiddleware ...gin.HandlerFunc) *ContentService {
	return &ContentService{
		uc:       uc,
		videos:   videos,
		ingestMW: ingestMiddleware,
		logger:   logger,
	}
}

// ListContentRequest are the query parameters of GET /content
type ListContentRequest struct {
	First             *int   `form:"first"`
	After             string `form:"after"`
	SortBy            string `form:"sortBy"`
	SortOrder         string `form:"sortOrder"`
	Search            string `form:"search"`
	ContentType       string `form:"contentType"`
	MinLength         *int   `form:"minLength"`
	MaxLength         *int   `form:"maxLength"`
	IncludeTotalCount bool   `form:"includeTotalCount"`
}

type ContentResponse struct {
	ID                 int64           `json:"id"`
	URL                *string         `json:"url,omitempty"`
	Name               string          `json:"name"`
	ContentType        string          `json:"contentType"`
	Length             *int            `json:"length"`
	LengthUnits        *string         `json:"lengthUnits"`
	LengthDisplay      string          `json:"lengthDisplay"`
	ViewCount          *int64          `json:"viewCount,omitempty"`
	ViewCountDisplay   string          `json:"viewCountDisplay"`
	PublishedDisplay   string          `json:"publishedDisplay"`
	DescriptionPreview string          `json:"descriptionPreview"`
	Response           json.RawMessage `json:"response,omitempty"`
	CreatedAt          string          `json:"createdAt"`
	UpdatedAt          string          `json:"updatedAt"`
}

type ContentListResponse struct {
	Items       []*ContentResponse `json:"items"`
	HasNextPage bool               `json:"hasNextPage"`
	EndCursor   string             `json:"endCursor,omitempty"`
	TotalCount  *int64             `json:"totalCount,omitempty"`
}

// ListContent handles GET /content
func (s *ContentService) ListContent(c *gin.Context) {
	var req ListContentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	page, err := s.uc.List(c.Request.Context(), biz.ListParams{
		First:             req.First,
		After:             req.After,
		SortBy:            biz.SortField(req.SortBy),
		SortOrder:         biz.SortOrder(req.SortOrder),
		Search:            req.Search,
		ContentType:       req.ContentType,
		MinLength:         req.MinLength,
		MaxLength:         req.MaxLength,
		IncludeTotalCount: req.IncludeTotalCount,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	items := make([]*ContentResponse, len(page.Items))
	for i, item := range page.Items {
		items[i] = toContentResponse(item)
	}
	response.Success(c, &ContentListResponse{
		Items:       items,
		HasNextPage: page.HasNextPage,
		EndCursor:   page.EndCursor,
		TotalCount:  page.TotalCount,
	})
}

// GetContentByName handles GET /content/:name
func (s *ContentService) GetContentByName(c *gin.Context) {
	name := c.Param("name")

	item, err := s.uc.GetByName(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, biz.ErrContentNotFound) {
			response.ErrorWithCode(c, apperrors.ErrContentNotFound, fmt.Sprintf("Content with name '%s' not found", name))
			return
		}
		s.handleError(c, err)
		return
	}

	response.Success(c, toContentResponse(item))
}

// GetContentByID handles GET /content/id/:id
func (s *ContentService) GetContentByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "id must be a positive integer")
		return
	}

	item, err := s.uc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, biz.ErrContentNotFound) {
			response.ErrorWithCode(c, apperrors.ErrContentNotFound, fmt.Sprintf("Content with id %d not found", id))
			return
		}
		s.handleError(c, err)
		return
	}

	response.Success(c, toContentResponse(item))
}

// IngestVideos handles POST and PUT /youtube/videos. The body is a JSON
// array of URLs.
func (s *ContentService) IngestVideos(c *gin.Context) {
	urls, ok := bindURLs(c)
	if !ok {
		return
	}

	outcomes, err := s.uc.Ingest(c.Request.Context(), urls)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, outcomes)
}

// StreamIngestVideos handles POST /youtube/videos/stream. Outcomes are sent
// as server-sent events while the batch runs.
func (s *ContentService) StreamIngestVideos(c *gin.Context) {
	urls, ok := bindURLs(c)
	if !ok {
		return
	}
	if len(urls) == 0 {
		s.handleError(c, biz.ErrEmptyURLList)
		return
	}

	stream := sse.New(c, streamHeartbeat)
	stream.Start()
	defer stream.Close()

	// a gone client stops the batch so no further upstream calls are made
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	log := s.logger.WithContext(ctx)

	tracker := sse.NewProgressTracker(stream, len(urls))
	if err := tracker.Start(); err != nil {
		log.Warn("ingest stream closed before start", zap.Error(err))
		return
	}

	_, err := s.uc.IngestWithProgress(ctx, urls, func(i int, o biz.IngestOutcome) {
		var sendErr error
		if o.Status == biz.StatusError {
			sendErr = tracker.RecordFailure(i, o)
		} else {
			sendErr = tracker.RecordSuccess(i, o)
		}
		if errors.Is(sendErr, sse.ErrStreamClosed) {
			cancel()
		}
	})
	if err != nil && ctx.Err() != nil {
		succeeded, failed := tracker.Stats()
		log.Warn("ingest stream closed by client, batch cancelled",
			zap.Int("urls", len(urls)),
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
		)
		return
	}
	if err != nil {
		log.Error("streamed ingestion aborted", zap.Error(err))
		if sendErr := tracker.Fail(errors.New("ingestion aborted")); sendErr != nil {
			log.Warn("failed to report aborted ingestion", zap.Error(sendErr))
		}
		return
	}
	if err := tracker.Complete(); err != nil {
		log.Warn("failed to send batch summary", zap.Error(err))
	}
}

// bindURLs reads the JSON array body. An empty body yields no URLs.
func bindURLs(c *gin.Context) ([]string, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "failed to read request body")
		return nil, false
	}

	var urls []string
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &urls); err != nil {
			response.ErrorWithCode(c, apperrors.ErrInvalidParams, "request body must be a JSON array of URLs")
			return nil, false
		}
	}
	return urls, true
}

// GetVideo handles GET /youtube/video?videoId= and passes the upstream
// document through unchanged
func (s *ContentService) GetVideo(c *gin.Context) {
	videoID := strings.TrimSpace(c.Query("videoId"))
	if videoID == "" {
		response.BadRequest(c, "videoId is required")
		return
	}

	body, err := s.videos.FetchVideo(c.Request.Context(), videoID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// handleError maps domain errors to responses
func (s *ContentService) handleError(c *gin.Context, err error) {
	var apiErr *youtube.APIError
	switch {
	case errors.Is(err, biz.ErrContentNotFound):
		response.ErrorWithCode(c, apperrors.ErrContentNotFound, "")
	case errors.Is(err, biz.ErrInvalidListParams):
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
	case errors.Is(err, biz.ErrEmptyURLList):
		response.ErrorWithCode(c, apperrors.ErrEmptyURLList, "")
	case errors.As(err, &apiErr):
		response.ErrorWithCode(c, apperrors.ErrYouTubeAPI, apiErr.Error())
	case errors.Is(err, youtube.ErrVideoNotFound), errors.Is(err, youtube.ErrMalformedResponse):
		response.ErrorWithCode(c, apperrors.ErrVideoNotFound, "")
	case errors.Is(err, youtube.ErrMissingAPIKey):
		response.ErrorWithCode(c, apperrors.ErrServiceUnavail, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ErrorWithCode(c, apperrors.ErrServiceUnavail, "request cancelled")
	default:
		s.logger.WithContext(c.Request.Context()).Error("internal error", zap.Error(err))
		response.InternalError(c, "internal server error")
	}
}

func toContentResponse(item *biz.Content) *ContentResponse {
	stats := item.Stats()
	return &ContentResponse{
		ID:                 item.ID,
		URL:                item.URL,
		Name:               item.Name,
		ContentType:        item.ContentType,
		Length:             item.Length,
		LengthUnits:        item.LengthUnits,
		LengthDisplay:      format.FormatDuration(item.Length, item.LengthUnits),
		ViewCount:          stats.ViewCount,
		ViewCountDisplay:   format.FormatCount(stats.ViewCount),
		PublishedDisplay:   format.FormatPublishDate(stats.PublishedAt),
		DescriptionPreview: format.TruncateDescription(stats.Description, 0),
		Response:           item.Response,
		CreatedAt:          item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          item.UpdatedAt.Format(time.RFC3339),
	}
}

// RegisterRoutes mounts the content and YouTube routes
func (s *ContentService) RegisterRoutes(r *gin.RouterGroup) {
	content := r.Group("/content")
	{
		content.GET("", s.ListContent)
		content.GET("/id/:id", s.GetContentByID)
		content.GET("/:name", s.GetContentByName)
	}

	yt := r.Group("/youtube")
	{
		ingest := append(append([]gin.HandlerFunc{}, s.ingestMW...), s.IngestVideos)
		yt.POST("/videos", ingest...)
		yt.PUT("/videos", ingest...)
		yt.POST("/videos/stream", append(append([]gin.HandlerFunc{}, s.ingestMW...), s.StreamIngestVideos)...)
		yt.GET("/video", s.GetVideo)
	}
}
