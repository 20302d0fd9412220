package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/perspectize-backend/internal/perspective/biz"
	apperrors "github.com/lk2023060901/perspectize-backend/internal/pkg/errors"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// PerspectiveService serves the perspective CRUD routes
type PerspectiveService struct {
	uc     *biz.PerspectiveUseCase
	logger *logger.Logger
}

func NewPerspectiveService(uc *biz.PerspectiveUseCase, logger *logger.Logger) *PerspectiveService {
	return &PerspectiveService{
		uc:     uc,
		logger: logger,
	}
}

// PerspectiveRequest is the body of POST and PUT. On PUT every field is
// optional and userId is ignored.
type PerspectiveRequest struct {
	Claim              *string                 `json:"claim"`
	UserID             int64                   `json:"userId"`
	ContentID          *int64                  `json:"contentId"`
	Quality            *int                    `json:"quality"`
	Agreement          *int                    `json:"agreement"`
	Importance         *int                    `json:"importance"`
	Confidence         *int                    `json:"confidence"`
	Like               *string                 `json:"like"`
	Privacy            *biz.Privacy            `json:"privacy"`
	Description        *string                 `json:"description"`
	Category           *string                 `json:"category"`
	ReviewStatus       *biz.ReviewStatus       `json:"reviewStatus"`
	Parts              []int64                 `json:"parts"`
	Labels             []string                `json:"labels"`
	CategorizedRatings []biz.CategorizedRating `json:"categorizedRatings"`
}

type ListPerspectivesRequest struct {
	First             *int   `form:"first"`
	After             string `form:"after"`
	SortBy            string `form:"sortBy"`
	SortOrder         string `form:"sortOrder"`
	UserID            *int64 `form:"userId"`
	ContentID         *int64 `form:"contentId"`
	Privacy           string `form:"privacy"`
	IncludeTotalCount bool   `form:"includeTotalCount"`
}

type PerspectiveResponse struct {
	*biz.Perspective
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type PerspectiveListResponse struct {
	Items       []*PerspectiveResponse `json:"items"`
	HasNextPage bool                   `json:"hasNextPage"`
	EndCursor   string                 `json:"endCursor,omitempty"`
	TotalCount  *int64                 `json:"totalCount,omitempty"`
}

func (s *PerspectiveService) CreatePerspective(c *gin.Context) {
	var req PerspectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrPerspectiveInvalidInput, err.Error())
		return
	}

	in := biz.CreateInput{
		UserID:             req.UserID,
		ContentID:          req.ContentID,
		Quality:            req.Quality,
		Agreement:          req.Agreement,
		Importance:         req.Importance,
		Confidence:         req.Confidence,
		Like:               req.Like,
		Privacy:            req.Privacy,
		Description:        req.Description,
		Category:           req.Category,
		ReviewStatus:       req.ReviewStatus,
		Parts:              req.Parts,
		Labels:             req.Labels,
		CategorizedRatings: req.CategorizedRatings,
	}
	if req.Claim != nil {
		in.Claim = *req.Claim
	}

	p, err := s.uc.Create(c.Request.Context(), in)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Created(c, toResponse(p))
}

func (s *PerspectiveService) GetPerspective(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := s.uc.Get(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, toResponse(p))
}

func (s *PerspectiveService) ListPerspectives(c *gin.Context) {
	var req ListPerspectivesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	params := biz.ListParams{
		First:             req.First,
		After:             req.After,
		SortBy:            biz.SortField(req.SortBy),
		UserID:            req.UserID,
		ContentID:         req.ContentID,
		IncludeTotalCount: req.IncludeTotalCount,
	}
	switch strings.ToUpper(req.SortOrder) {
	case "", "DESC":
		params.Descending = true
	case "ASC":
	default:
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "sortOrder must be ASC or DESC")
		return
	}
	if req.Privacy != "" {
		privacy := biz.Privacy(strings.ToUpper(req.Privacy))
		params.Privacy = &privacy
	}

	page, err := s.uc.List(c.Request.Context(), params)
	if err != nil {
		s.handleError(c, err)
		return
	}

	items := make([]*PerspectiveResponse, len(page.Items))
	for i, p := range page.Items {
		items[i] = toResponse(p)
	}
	response.Success(c, &PerspectiveListResponse{
		Items:       items,
		HasNextPage: page.HasNextPage,
		EndCursor:   page.EndCursor,
		TotalCount:  page.TotalCount,
	})
}

func (s *PerspectiveService) UpdatePerspective(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req PerspectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrPerspectiveInvalidInput, err.Error())
		return
	}

	p, err := s.uc.Update(c.Request.Context(), biz.UpdateInput{
		ID:                 id,
		Claim:              req.Claim,
		ContentID:          req.ContentID,
		Quality:            req.Quality,
		Agreement:          req.Agreement,
		Importance:         req.Importance,
		Confidence:         req.Confidence,
		Like:               req.Like,
		Privacy:            req.Privacy,
		Description:        req.Description,
		Category:           req.Category,
		ReviewStatus:       req.ReviewStatus,
		Parts:              req.Parts,
		Labels:             req.Labels,
		CategorizedRatings: req.CategorizedRatings,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, toResponse(p))
}

func (s *PerspectiveService) DeletePerspective(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.uc.Delete(c.Request.Context(), id); err != nil {
		s.handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "perspective deleted successfully", nil)
}

// handleError attaches a business code to err and renders it
func (s *PerspectiveService) handleError(c *gin.Context, err error) {
	var code int
	switch {
	case errors.Is(err, biz.ErrPerspectiveNotFound):
		code = apperrors.ErrPerspectiveNotFound
	case errors.Is(err, biz.ErrInvalidRating):
		code = apperrors.ErrPerspectiveRange
	case errors.Is(err, biz.ErrDuplicateClaim):
		code = apperrors.ErrPerspectiveDuplicate
	case errors.Is(err, biz.ErrInvalidInput):
		code = apperrors.ErrPerspectiveInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = apperrors.ErrServiceUnavail
	default:
		s.logger.WithContext(c.Request.Context()).Error("perspective request failed", zap.Error(err))
		response.InternalError(c, "internal server error")
		return
	}
	response.HandleError(c, apperrors.Wrap(err, code))
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "invalid perspective id")
		return 0, false
	}
	return id, true
}

func toResponse(p *biz.Perspective) *PerspectiveResponse {
	return &PerspectiveResponse{
		Perspective: p,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *PerspectiveService) RegisterRoutes(r *gin.RouterGroup) {
	perspectives := r.Group("/perspectives")
	{
		perspectives.GET("", s.ListPerspectives)
		perspectives.GET("/:id", s.GetPerspective)
		perspectives.POST("", s.CreatePerspective)
		perspectives.PUT("/:id", s.UpdatePerspective)
		perspectives.DELETE("/:id", s.DeletePerspective)
	}
}
