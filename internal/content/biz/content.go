package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/perspectize-backend/internal/pkg/cache"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/cachekey"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/metrics"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/workerpool"
)

const (
	ContentTypeYouTube = "youtube"
	LengthUnitsSeconds = "seconds"

	cacheArea = "content"
)

// Content is one catalogued media item
type Content struct {
	ID          int64           `json:"id"`
	URL         *string         `json:"url,omitempty"`
	Name        string          `json:"name"`
	ContentType string          `json:"contentType"`
	Length      *int            `json:"length,omitempty"`
	LengthUnits *string         `json:"lengthUnits,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// SortField is a sortable content column
type SortField string

const (
	SortByCreatedAt SortField = "CREATED_AT"
	SortByUpdatedAt SortField = "UPDATED_AT"
	SortByName      SortField = "NAME"
)

// SortOrder is ASC or DESC
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// ListParams selects one page of content
type ListParams struct {
	First             *int
	After             string
	SortBy            SortField
	SortOrder         SortOrder
	ContentType       string
	MinLength         *int
	MaxLength         *int
	Search            string
	IncludeTotalCount bool

	// resolved by Normalize
	Limit   int
	AfterID int64
}

// Normalize applies defaults and validates the parameters
func (p *ListParams) Normalize() error {
	limit, err := database.PageSize(p.First)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidListParams, err)
	}
	p.Limit = limit

	if p.After != "" {
		id, err := database.DecodeCursor(p.After)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidListParams, err)
		}
		p.AfterID = id
	}

	p.SortBy = SortField(strings.ToUpper(string(p.SortBy)))
	switch p.SortBy {
	case "":
		p.SortBy = SortByCreatedAt
	case SortByCreatedAt, SortByUpdatedAt, SortByName:
	default:
		return fmt.Errorf("%w: unknown sort field %q", ErrInvalidListParams, p.SortBy)
	}

	p.SortOrder = SortOrder(strings.ToUpper(string(p.SortOrder)))
	switch p.SortOrder {
	case "":
		p.SortOrder = SortDesc
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalidListParams, p.SortOrder)
	}

	if p.MinLength != nil && p.MaxLength != nil && *p.MinLength > *p.MaxLength {
		return fmt.Errorf("%w: minLength greater than maxLength", ErrInvalidListParams)
	}
	p.Search = strings.TrimSpace(p.Search)
	return nil
}

func (p *ListParams) cacheFilters() cachekey.ListFilters {
	return cachekey.ListFilters{
		SortBy:      string(p.SortBy),
		SortOrder:   string(p.SortOrder),
		Search:      p.Search,
		First:       p.Limit,
		After:       p.After,
		ContentType: p.ContentType,
		MinLength:   p.MinLength,
		MaxLength:   p.MaxLength,
		WithTotal:   p.IncludeTotalCount,
	}
}

// Page is one page of a cursor-paginated listing
type Page struct {
	Items       []*Content `json:"items"`
	HasNextPage bool       `json:"hasNextPage"`
	EndCursor   string     `json:"endCursor,omitempty"`
	TotalCount  *int64     `json:"totalCount,omitempty"`
}

// ContentRepo persists content items
type ContentRepo interface {
	// Upsert inserts c or updates the row that owns c.URL, reporting which
	// happened. A name owned by another row yields ErrNameConflict.
	Upsert(ctx context.Context, c *Content) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*Content, error)
	GetByName(ctx context.Context, name string) (*Content, error)
	List(ctx context.Context, params *ListParams) (*Page, error)
}

// ContentUseCase holds the content queries and the ingestion pipeline
type ContentUseCase struct {
	repo    ContentRepo
	source  VideoSource
	cache   *cache.Cache
	pool    *workerpool.Pool
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// Option customizes a ContentUseCase
type Option func(*ContentUseCase)

// WithCache enables read-through caching of lists and details
func WithCache(c *cache.Cache) Option {
	return func(uc *ContentUseCase) { uc.cache = c }
}

// WithPool ingests batches in parallel on pool
func WithPool(p *workerpool.Pool) Option {
	return func(uc *ContentUseCase) { uc.pool = p }
}

// WithMetrics records ingestion outcomes on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *ContentUseCase) { uc.metrics = m }
}

// NewContentUseCase creates a new content use case
func NewContentUseCase(repo ContentRepo, source VideoSource, log *logger.Logger, opts ...Option) *ContentUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	uc := &ContentUseCase{repo: repo, source: source, logger: log}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// GetByID returns one item
func (uc *ContentUseCase) GetByID(ctx context.Context, id int64) (*Content, error) {
	if id <= 0 {
		return nil, ErrContentNotFound
	}
	return cache.Fetch(ctx, uc.cache, cacheArea, cachekey.ContentDetail(fmt.Sprint(id)), func(ctx context.Context) (*Content, error) {
		return uc.repo.GetByID(ctx, id)
	})
}

// GetByName returns the item with the exact name
func (uc *ContentUseCase) GetByName(ctx context.Context, name string) (*Content, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrContentNotFound
	}
	return cache.Fetch(ctx, uc.cache, cacheArea, cachekey.ContentByName(name), func(ctx context.Context) (*Content, error) {
		return uc.repo.GetByName(ctx, name)
	})
}

// List returns one page of content
func (uc *ContentUseCase) List(ctx context.Context, params ListParams) (*Page, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, uc.cache, cacheArea, cachekey.ContentList(params.cacheFilters()), func(ctx context.Context) (*Page, error) {
		return uc.repo.List(ctx, &params)
	})
}
