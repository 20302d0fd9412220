package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	MaxClaimLength = 255
	MinRating      = 0
	MaxRating      = 10000
)

// Privacy controls who may see a perspective
type Privacy string

const (
	PrivacyPublic  Privacy = "PUBLIC"
	PrivacyPrivate Privacy = "PRIVATE"
)

// ReviewStatus tracks moderation of a perspective
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// CategorizedRating is a rating scoped to a named category
type CategorizedRating struct {
	Category string `json:"category"`
	Rating   int    `json:"rating"`
}

// Perspective is a user's claim about a piece of content, with optional
// ratings on a 0..10000 scale
type Perspective struct {
	ID                 int64               `json:"id"`
	Claim              string              `json:"claim"`
	UserID             int64               `json:"userId"`
	ContentID          *int64              `json:"contentId,omitempty"`
	Quality            *int                `json:"quality,omitempty"`
	Agreement          *int                `json:"agreement,omitempty"`
	Importance         *int                `json:"importance,omitempty"`
	Confidence         *int                `json:"confidence,omitempty"`
	Like               *string             `json:"like,omitempty"`
	Privacy            Privacy             `json:"privacy"`
	Description        *string             `json:"description,omitempty"`
	Category           *string             `json:"category,omitempty"`
	ReviewStatus       *ReviewStatus       `json:"reviewStatus,omitempty"`
	Parts              []int64             `json:"parts,omitempty"`
	Labels             []string            `json:"labels,omitempty"`
	CategorizedRatings []CategorizedRating `json:"categorizedRatings,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// CreateInput carries the fields of a new perspective
type CreateInput struct {
	Claim              string
	UserID             int64
	ContentID          *int64
	Quality            *int
	Agreement          *int
	Importance         *int
	Confidence         *int
	Like               *string
	Privacy            *Privacy
	Description        *string
	Category           *string
	ReviewStatus       *ReviewStatus
	Parts              []int64
	Labels             []string
	CategorizedRatings []CategorizedRating
}

// UpdateInput carries a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	ID                 int64
	Claim              *string
	ContentID          *int64
	Quality            *int
	Agreement          *int
	Importance         *int
	Confidence         *int
	Like               *string
	Privacy            *Privacy
	Description        *string
	Category           *string
	ReviewStatus       *ReviewStatus
	Parts              []int64
	Labels             []string
	CategorizedRatings []CategorizedRating
}

// SortField is a sortable perspective column
type SortField string

const (
	SortByCreatedAt SortField = "CREATED_AT"
	SortByUpdatedAt SortField = "UPDATED_AT"
)

// ListParams selects one page of perspectives
type ListParams struct {
	First             *int
	After             string
	SortBy            SortField
	Descending        bool
	UserID            *int64
	ContentID         *int64
	Privacy           *Privacy
	IncludeTotalCount bool

	Limit   int
	AfterID int64
}

// Normalize applies defaults and validates the parameters
func (p *ListParams) Normalize() error {
	limit, err := database.PageSize(p.First)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p.Limit = limit

	if p.After != "" {
		id, err := database.DecodeCursor(p.After)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		p.AfterID = id
	}

	p.SortBy = SortField(strings.ToUpper(string(p.SortBy)))
	switch p.SortBy {
	case "":
		p.SortBy = SortByCreatedAt
	case SortByCreatedAt, SortByUpdatedAt:
	default:
		return fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, p.SortBy)
	}

	if p.Privacy != nil {
		if err := validatePrivacy(*p.Privacy); err != nil {
			return err
		}
	}
	return nil
}

// Page is one page of perspectives
type Page struct {
	Items       []*Perspective `json:"items"`
	HasNextPage bool           `json:"hasNextPage"`
	EndCursor   string         `json:"endCursor,omitempty"`
	TotalCount  *int64         `json:"totalCount,omitempty"`
}

// PerspectiveRepo persists perspectives. Create and Update report a taken
// (user, claim) pair as ErrDuplicateClaim and an unknown user or content as
// ErrInvalidInput.
type PerspectiveRepo interface {
	Create(ctx context.Context, p *Perspective) error
	GetByID(ctx context.Context, id int64) (*Perspective, error)
	GetByUserAndClaim(ctx context.Context, userID int64, claim string) (*Perspective, error)
	Update(ctx context.Context, p *Perspective) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params *ListParams) (*Page, error)
}

// PerspectiveUseCase contains business logic for perspectives
type PerspectiveUseCase struct {
	repo   PerspectiveRepo
	logger *logger.Logger
}

func NewPerspectiveUseCase(repo PerspectiveRepo, log *logger.Logger) *PerspectiveUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &PerspectiveUseCase{repo: repo, logger: log}
}

func (uc *PerspectiveUseCase) Create(ctx context.Context, in CreateInput) (*Perspective, error) {
	claim, err := validateClaim(in.Claim)
	if err != nil {
		return nil, err
	}
	if in.UserID <= 0 {
		return nil, fmt.Errorf("%w: userId must be a positive integer", ErrInvalidInput)
	}
	if err := validateRatings(map[string]*int{
		"quality":    in.Quality,
		"agreement":  in.Agreement,
		"importance": in.Importance,
		"confidence": in.Confidence,
	}, in.CategorizedRatings); err != nil {
		return nil, err
	}

	privacy := PrivacyPublic
	if in.Privacy != nil {
		if err := validatePrivacy(*in.Privacy); err != nil {
			return nil, err
		}
		privacy = *in.Privacy
	}
	if in.ReviewStatus != nil {
		if err := validateReviewStatus(*in.ReviewStatus); err != nil {
			return nil, err
		}
	}

	if err := uc.checkClaimFree(ctx, in.UserID, claim, 0); err != nil {
		return nil, err
	}

	p := &Perspective{
		Claim:              claim,
		UserID:             in.UserID,
		ContentID:          in.ContentID,
		Quality:            in.Quality,
		Agreement:          in.Agreement,
		Importance:         in.Importance,
		Confidence:         in.Confidence,
		Like:               in.Like,
		Privacy:            privacy,
		Description:        in.Description,
		Category:           in.Category,
		ReviewStatus:       in.ReviewStatus,
		Parts:              in.Parts,
		Labels:             in.Labels,
		CategorizedRatings: in.CategorizedRatings,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Info("perspective created",
		zap.Int64("perspective_id", p.ID),
		zap.Int64("user_id", p.UserID),
	)
	return p, nil
}

func (uc *PerspectiveUseCase) Get(ctx context.Context, id int64) (*Perspective, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be a positive integer", ErrInvalidInput)
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *PerspectiveUseCase) List(ctx context.Context, params ListParams) (*Page, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}
	return uc.repo.List(ctx, &params)
}

func (uc *PerspectiveUseCase) Update(ctx context.Context, in UpdateInput) (*Perspective, error) {
	p, err := uc.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Claim != nil {
		claim, err := validateClaim(*in.Claim)
		if err != nil {
			return nil, err
		}
		if claim != p.Claim {
			if err := uc.checkClaimFree(ctx, p.UserID, claim, p.ID); err != nil {
				return nil, err
			}
		}
		p.Claim = claim
	}

	if err := validateRatings(map[string]*int{
		"quality":    in.Quality,
		"agreement":  in.Agreement,
		"importance": in.Importance,
		"confidence": in.Confidence,
	}, in.CategorizedRatings); err != nil {
		return nil, err
	}
	if in.Privacy != nil {
		if err := validatePrivacy(*in.Privacy); err != nil {
			return nil, err
		}
		p.Privacy = *in.Privacy
	}
	if in.ReviewStatus != nil {
		if err := validateReviewStatus(*in.ReviewStatus); err != nil {
			return nil, err
		}
		p.ReviewStatus = in.ReviewStatus
	}

	setIfPresent(&p.Quality, in.Quality)
	setIfPresent(&p.Agreement, in.Agreement)
	setIfPresent(&p.Importance, in.Importance)
	setIfPresent(&p.Confidence, in.Confidence)
	setIfPresent(&p.ContentID, in.ContentID)
	setIfPresent(&p.Like, in.Like)
	setIfPresent(&p.Description, in.Description)
	setIfPresent(&p.Category, in.Category)
	if in.Parts != nil {
		p.Parts = in.Parts
	}
	if in.Labels != nil {
		p.Labels = in.Labels
	}
	if in.CategorizedRatings != nil {
		p.CategorizedRatings = in.CategorizedRatings
	}

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *PerspectiveUseCase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be a positive integer", ErrInvalidInput)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.WithContext(ctx).Info("perspective deleted", zap.Int64("perspective_id", id))
	return nil
}

// checkClaimFree fails when userID already holds claim on a perspective
// other than selfID
func (uc *PerspectiveUseCase) checkClaimFree(ctx context.Context, userID int64, claim string, selfID int64) error {
	existing, err := uc.repo.GetByUserAndClaim(ctx, userID, claim)
	if err != nil {
		if errors.Is(err, ErrPerspectiveNotFound) {
			return nil
		}
		return fmt.Errorf("check claim: %w", err)
	}
	if existing.ID != selfID {
		return fmt.Errorf("%w: '%s'", ErrDuplicateClaim, claim)
	}
	return nil
}

func setIfPresent[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

func validateClaim(claim string) (string, error) {
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return "", fmt.Errorf("%w: claim is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(claim) > MaxClaimLength {
		return "", fmt.Errorf("%w: claim must be %d characters or less", ErrInvalidInput, MaxClaimLength)
	}
	return claim, nil
}

// ValidRating reports whether v is absent or within MinRating..MaxRating
func ValidRating(v *int) bool {
	return v == nil || (*v >= MinRating && *v <= MaxRating)
}

func validateRatings(named map[string]*int, categorized []CategorizedRating) error {
	for _, name := range []string{"quality", "agreement", "importance", "confidence"} {
		if v := named[name]; !ValidRating(v) {
			return fmt.Errorf("%w: %s is %d", ErrInvalidRating, name, *v)
		}
	}
	for _, cr := range categorized {
		rating := cr.Rating
		if !ValidRating(&rating) {
			return fmt.Errorf("%w: categorized rating for '%s' is %d", ErrInvalidRating, cr.Category, rating)
		}
	}
	return nil
}

func validatePrivacy(p Privacy) error {
	switch p {
	case PrivacyPublic, PrivacyPrivate:
		return nil
	}
	return fmt.Errorf("%w: unknown privacy %q", ErrInvalidInput, p)
}

func validateReviewStatus(s ReviewStatus) error {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return nil
	}
	return fmt.Errorf("%w: unknown review status %q", ErrInvalidInput, s)
}
