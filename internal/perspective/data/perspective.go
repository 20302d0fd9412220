package data

import (
	"context"
	"fmt"
	"time"

	contentdata "github.com/lk2023060901/perspectize-backend/internal/content/data"
	"github.com/lk2023060901/perspectize-backend/internal/perspective/biz"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	userdata "github.com/lk2023060901/perspectize-backend/internal/user/data"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PerspectivePO is the perspectives table. The User and Content fields only
// carry the foreign key constraints for migrations.
type PerspectivePO struct {
	ID                 int64                                      `gorm:"primaryKey;autoIncrement"`
	Claim              string                                     `gorm:"size:255;not null;uniqueIndex:idx_perspectives_user_claim,priority:2"`
	UserID             int64                                      `gorm:"not null;uniqueIndex:idx_perspectives_user_claim,priority:1"`
	ContentID          *int64                                     `gorm:"index:idx_perspectives_content"`
	Like               *string                                    `gorm:"column:like;type:text"`
	Quality            *int                                       `gorm:""`
	Agreement          *int                                       `gorm:""`
	Importance         *int                                       `gorm:""`
	Confidence         *int                                       `gorm:""`
	Privacy            string                                     `gorm:"size:16;not null"`
	Description        *string                                    `gorm:"type:text"`
	Category           *string                                    `gorm:"size:100"`
	ReviewStatus       *string                                    `gorm:"size:16"`
	Parts              datatypes.JSONSlice[int64]                 `gorm:"type:jsonb"`
	Labels             datatypes.JSONSlice[string]                `gorm:"type:jsonb"`
	CategorizedRatings datatypes.JSONSlice[biz.CategorizedRating] `gorm:"type:jsonb"`
	CreatedAt          time.Time                                  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time                                  `gorm:"not null;default:CURRENT_TIMESTAMP"`

	User    *userdata.UserPO       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Content *contentdata.ContentPO `gorm:"foreignKey:ContentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (PerspectivePO) TableName() string {
	return "perspectives"
}

var sortColumns = map[biz.SortField]string{
	biz.SortByCreatedAt: "created_at",
	biz.SortByUpdatedAt: "updated_at",
}

// PerspectiveRepo implements biz.PerspectiveRepo on PostgreSQL
type PerspectiveRepo struct {
	db *database.DB
}

func NewPerspectiveRepo(db *database.DB) biz.PerspectiveRepo {
	return &PerspectiveRepo{db: db}
}

func (r *PerspectiveRepo) Create(ctx context.Context, p *biz.Perspective) error {
	po := fromPerspective(p)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(po).Error; err != nil {
		return mapWriteError(err)
	}

	p.ID = po.ID
	p.CreatedAt = po.CreatedAt
	p.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *PerspectiveRepo) GetByID(ctx context.Context, id int64) (*biz.Perspective, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PerspectiveRepo) GetByUserAndClaim(ctx context.Context, userID int64, claim string) (*biz.Perspective, error) {
	return r.first(ctx, "user_id = ? AND claim = ?", userID, claim)
}

func (r *PerspectiveRepo) first(ctx context.Context, query string, args ...interface{}) (*biz.Perspective, error) {
	var po PerspectivePO
	if err := r.db.WithContext(ctx).Where(query, args...).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrPerspectiveNotFound
		}
		return nil, err
	}
	return toPerspective(&po), nil
}

// Update writes every column of p except id and created_at
func (r *PerspectiveRepo) Update(ctx context.Context, p *biz.Perspective) error {
	po := fromPerspective(p)
	tx := r.db.WithContext(ctx).Model(&PerspectivePO{}).Where("id = ?", p.ID).
		Select("*").Omit("id", "created_at", clause.Associations).
		Updates(po)
	if tx.Error != nil {
		return mapWriteError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return biz.ErrPerspectiveNotFound
	}
	p.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *PerspectiveRepo) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&PerspectivePO{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return biz.ErrPerspectiveNotFound
	}
	return nil
}

// List pages with a keyset on (sort column, id). params must be normalized.
func (r *PerspectiveRepo) List(ctx context.Context, params *biz.ListParams) (*biz.Page, error) {
	col, ok := sortColumns[params.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort field %q", biz.ErrInvalidInput, params.SortBy)
	}
	dir, op := "ASC", ">"
	if params.Descending {
		dir, op = "DESC", "<"
	}

	q := r.db.WithContext(ctx).Model(&PerspectivePO{})
	if params.UserID != nil {
		q = q.Where("user_id = ?", *params.UserID)
	}
	if params.ContentID != nil {
		q = q.Where("content_id = ?", *params.ContentID)
	}
	if params.Privacy != nil {
		q = q.Where("privacy = ?", string(*params.Privacy))
	}

	page := &biz.Page{}
	if params.IncludeTotalCount {
		var total int64
		if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return nil, err
		}
		page.TotalCount = &total
	}

	if params.AfterID > 0 {
		q = q.Where(fmt.Sprintf("(%s, id) %s (SELECT %s, id FROM perspectives WHERE id = ?)", col, op, col), params.AfterID)
	}

	var pos []PerspectivePO
	err := q.Order(fmt.Sprintf("%s %s, id %s", col, dir, dir)).
		Limit(params.Limit + 1).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	if len(pos) > params.Limit {
		page.HasNextPage = true
		pos = pos[:params.Limit]
	}

	page.Items = make([]*biz.Perspective, len(pos))
	for i := range pos {
		page.Items[i] = toPerspective(&pos[i])
	}
	if n := len(page.Items); n > 0 {
		page.EndCursor = database.EncodeCursor(page.Items[n-1].ID)
	}
	return page, nil
}

func mapWriteError(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", biz.ErrDuplicateClaim, database.ConstraintName(err))
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced user or content does not exist", biz.ErrInvalidInput)
	}
	return err
}

func fromPerspective(p *biz.Perspective) *PerspectivePO {
	po := &PerspectivePO{
		ID:                 p.ID,
		Claim:              p.Claim,
		UserID:             p.UserID,
		ContentID:          p.ContentID,
		Like:               p.Like,
		Quality:            p.Quality,
		Agreement:          p.Agreement,
		Importance:         p.Importance,
		Confidence:         p.Confidence,
		Privacy:            string(p.Privacy),
		Description:        p.Description,
		Category:           p.Category,
		Parts:              datatypes.JSONSlice[int64](p.Parts),
		Labels:             datatypes.JSONSlice[string](p.Labels),
		CategorizedRatings: datatypes.JSONSlice[biz.CategorizedRating](p.CategorizedRatings),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.ReviewStatus != nil {
		s := string(*p.ReviewStatus)
		po.ReviewStatus = &s
	}
	return po
}

func toPerspective(po *PerspectivePO) *biz.Perspective {
	p := &biz.Perspective{
		ID:                 po.ID,
		Claim:              po.Claim,
		UserID:             po.UserID,
		ContentID:          po.ContentID,
		Like:               po.Like,
		Quality:            po.Quality,
		Agreement:          po.Agreement,
		Importance:         po.Importance,
		Confidence:         po.Confidence,
		Privacy:            biz.Privacy(po.Privacy),
		Description:        po.Description,
		Category:           po.Category,
		Parts:              []int64(po.Parts),
		Labels:             []string(po.Labels),
		CategorizedRatings: []biz.CategorizedRating(po.CategorizedRatings),
		CreatedAt:          po.CreatedAt,
		UpdatedAt:          po.UpdatedAt,
	}
	if po.ReviewStatus != nil {
		s := biz.ReviewStatus(*po.ReviewStatus)
		p.ReviewStatus = &s
	}
	return p
}
