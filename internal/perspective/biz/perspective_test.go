package biz

import (
	"context"
	"strings"
	"testing"

	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	items  map[int64]*Perspective
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[int64]*Perspective{}}
}

func (r *memRepo) Create(ctx context.Context, p *Perspective) error {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*Perspective, error) {
	if p, ok := r.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrPerspectiveNotFound
}

func (r *memRepo) GetByUserAndClaim(ctx context.Context, userID int64, claim string) (*Perspective, error) {
	for _, p := range r.items {
		if p.UserID == userID && p.Claim == claim {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPerspectiveNotFound
}

func (r *memRepo) Update(ctx context.Context, p *Perspective) error {
	if _, ok := r.items[p.ID]; !ok {
		return ErrPerspectiveNotFound
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return ErrPerspectiveNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) List(ctx context.Context, params *ListParams) (*Page, error) {
	page := &Page{}
	for id := int64(1); id <= r.nextID; id++ {
		if p, ok := r.items[id]; ok && (params.UserID == nil || p.UserID == *params.UserID) {
			page.Items = append(page.Items, p)
		}
	}
	return page, nil
}

func intp(v int) *int { return &v }

func TestCreate_Validation(t *testing.T) {
	uc := NewPerspectiveUseCase(newMemRepo(), logger.NewNop())
	ctx := context.Background()
	private := PrivacyPrivate
	bogus := Privacy("FRIENDS")
	badStatus := ReviewStatus("MAYBE")

	tests := []struct {
		name    string
		in      CreateInput
		wantErr error
	}{
		{name: "empty claim", in: CreateInput{Claim: "   ", UserID: 1}, wantErr: ErrInvalidInput},
		{name: "long claim", in: CreateInput{Claim: strings.Repeat("c", 256), UserID: 1}, wantErr: ErrInvalidInput},
		{name: "no user", in: CreateInput{Claim: "x"}, wantErr: ErrInvalidInput},
		{name: "quality too high", in: CreateInput{Claim: "x", UserID: 1, Quality: intp(10001)}, wantErr: ErrInvalidRating},
		{name: "negative confidence", in: CreateInput{Claim: "x", UserID: 1, Confidence: intp(-1)}, wantErr: ErrInvalidRating},
		{
			name:    "categorized out of range",
			in:      CreateInput{Claim: "x", UserID: 1, CategorizedRatings: []CategorizedRating{{Category: "style", Rating: 20000}}},
			wantErr: ErrInvalidRating,
		},
		{name: "bad privacy", in: CreateInput{Claim: "x", UserID: 1, Privacy: &bogus}, wantErr: ErrInvalidInput},
		{name: "bad review status", in: CreateInput{Claim: "x", UserID: 1, ReviewStatus: &badStatus}, wantErr: ErrInvalidInput},
		{name: "bounds are inclusive", in: CreateInput{Claim: "edges", UserID: 1, Quality: intp(0), Agreement: intp(10000)}},
		{name: "private", in: CreateInput{Claim: "secret", UserID: 1, Privacy: &private}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Create(ctx, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreate_RangeErrorIsNotConflict(t *testing.T) {
	uc := NewPerspectiveUseCase(newMemRepo(), logger.NewNop())
	_, err := uc.Create(context.Background(), CreateInput{Claim: "x", UserID: 1, Importance: intp(99999)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRating)
	assert.NotErrorIs(t, err, ErrDuplicateClaim)
	assert.Contains(t, err.Error(), "importance")
}

func TestCreate_DefaultsAndDuplicates(t *testing.T) {
	uc := NewPerspectiveUseCase(newMemRepo(), logger.NewNop())
	ctx := context.Background()

	p, err := uc.Create(ctx, CreateInput{Claim: "  The sky is blue  ", UserID: 1, Labels: []string{"science"}})
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue", p.Claim)
	assert.Equal(t, PrivacyPublic, p.Privacy)

	_, err = uc.Create(ctx, CreateInput{Claim: "The sky is blue", UserID: 1})
	assert.ErrorIs(t, err, ErrDuplicateClaim)

	// same claim from another user is fine
	_, err = uc.Create(ctx, CreateInput{Claim: "The sky is blue", UserID: 2})
	assert.NoError(t, err)
}

func TestUpdate_Partial(t *testing.T) {
	uc := NewPerspectiveUseCase(newMemRepo(), logger.NewNop())
	ctx := context.Background()

	p, err := uc.Create(ctx, CreateInput{Claim: "first", UserID: 1, Quality: intp(5000), Labels: []string{"a"}})
	require.NoError(t, err)
	_, err = uc.Create(ctx, CreateInput{Claim: "second", UserID: 1})
	require.NoError(t, err)

	approved := ReviewApproved
	updated, err := uc.Update(ctx, UpdateInput{ID: p.ID, Agreement: intp(7000), ReviewStatus: &approved})
	require.NoError(t, err)
	assert.Equal(t, "first", updated.Claim)
	assert.Equal(t, 5000, *updated.Quality)
	assert.Equal(t, 7000, *updated.Agreement)
	assert.Equal(t, []string{"a"}, updated.Labels)
	assert.Equal(t, ReviewApproved, *updated.ReviewStatus)

	// re-saving the same claim is not a duplicate of itself
	same := "first"
	_, err = uc.Update(ctx, UpdateInput{ID: p.ID, Claim: &same})
	assert.NoError(t, err)

	taken := "second"
	_, err = uc.Update(ctx, UpdateInput{ID: p.ID, Claim: &taken})
	assert.ErrorIs(t, err, ErrDuplicateClaim)

	_, err = uc.Update(ctx, UpdateInput{ID: p.ID, Quality: intp(10001)})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = uc.Update(ctx, UpdateInput{ID: 404})
	assert.ErrorIs(t, err, ErrPerspectiveNotFound)
}

func TestDeleteAndList(t *testing.T) {
	repo := newMemRepo()
	uc := NewPerspectiveUseCase(repo, logger.NewNop())
	ctx := context.Background()

	p, err := uc.Create(ctx, CreateInput{Claim: "a", UserID: 1})
	require.NoError(t, err)
	_, err = uc.Create(ctx, CreateInput{Claim: "b", UserID: 2})
	require.NoError(t, err)

	var user int64 = 1
	page, err := uc.List(ctx, ListParams{UserID: &user})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = uc.List(ctx, ListParams{SortBy: "CLAIM"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, uc.Delete(ctx, p.ID))
	assert.ErrorIs(t, uc.Delete(ctx, p.ID), ErrPerspectiveNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, 0), ErrInvalidInput)
}
