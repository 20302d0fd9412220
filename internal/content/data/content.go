package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/perspectize-backend/internal/content/biz"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentPO is the content table
type ContentPO struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	URL         *string        `gorm:"type:text;uniqueIndex:idx_content_url"`
	Name        string         `gorm:"type:text;not null;uniqueIndex:idx_content_name"`
	ContentType string         `gorm:"size:50;not null;index:idx_content_type"`
	Length      *int           `gorm:"index:idx_content_length"`
	LengthUnits *string        `gorm:"size:20"`
	Response    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ContentPO) TableName() string {
	return "content"
}

// upsertSQL lets the unique index on url arbitrate concurrent ingestion of
// the same URL. xmax is 0 only for freshly inserted tuples.
const upsertSQL = `INSERT INTO content (url, name, content_type, length, length_units, response, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (url) DO UPDATE SET
	name = EXCLUDED.name,
	length = EXCLUDED.length,
	length_units = EXCLUDED.length_units,
	response = EXCLUDED.response,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

var sortColumns = map[biz.SortField]string{
	biz.SortByCreatedAt: "created_at",
	biz.SortByUpdatedAt: "updated_at",
	biz.SortByName:      "name",
}

// ContentRepo implements biz.ContentRepo on PostgreSQL
type ContentRepo struct {
	db *database.DB
}

// NewContentRepo creates the content repository
func NewContentRepo(db *database.DB) biz.ContentRepo {
	return &ContentRepo{db: db}
}

type upsertRow struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Inserted  bool
}

// Upsert inserts or updates by url in a single statement
func (r *ContentRepo) Upsert(ctx context.Context, c *biz.Content) (bool, error) {
	now := time.Now().UTC()

	var row upsertRow
	tx := r.db.WithContext(ctx).Raw(upsertSQL,
		c.URL, c.Name, c.ContentType, c.Length, c.LengthUnits, datatypes.JSON(c.Response), now, now,
	).Scan(&row)
	if err := tx.Error; err != nil {
		if database.IsUniqueViolation(err) && strings.Contains(database.ConstraintName(err), "name") {
			return false, fmt.Errorf("%w: %s", biz.ErrNameConflict, c.Name)
		}
		return false, err
	}
	if tx.RowsAffected == 0 {
		return false, fmt.Errorf("upsert returned no row for %q", c.Name)
	}

	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return row.Inserted, nil
}

func (r *ContentRepo) GetByID(ctx context.Context, id int64) (*biz.Content, error) {
	var po ContentPO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrContentNotFound
		}
		return nil, err
	}
	return toContent(&po), nil
}

func (r *ContentRepo) GetByName(ctx context.Context, name string) (*biz.Content, error) {
	var po ContentPO
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrContentNotFound
		}
		return nil, err
	}
	return toContent(&po), nil
}

// List pages with a keyset on (sort column, id). params must be normalized.
func (r *ContentRepo) List(ctx context.Context, params *biz.ListParams) (*biz.Page, error) {
	col, ok := sortColumns[params.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort field %q", biz.ErrInvalidListParams, params.SortBy)
	}
	dir, op := "DESC", "<"
	if params.SortOrder == biz.SortAsc {
		dir, op = "ASC", ">"
	}

	q := r.db.WithContext(ctx).Model(&ContentPO{})
	if params.ContentType != "" {
		q = q.Where("content_type = ?", params.ContentType)
	}
	if params.MinLength != nil {
		q = q.Where("length >= ?", *params.MinLength)
	}
	if params.MaxLength != nil {
		q = q.Where("length <= ?", *params.MaxLength)
	}
	if params.Search != "" {
		q = q.Where("name ILIKE ?", "%"+escapeLike(params.Search)+"%")
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
		q = q.Where(fmt.Sprintf("(%s, id) %s (SELECT %s, id FROM content WHERE id = ?)", col, op, col), params.AfterID)
	}

	var pos []ContentPO
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

	page.Items = make([]*biz.Content, len(pos))
	for i := range pos {
		page.Items[i] = toContent(&pos[i])
	}
	if n := len(page.Items); n > 0 {
		page.EndCursor = database.EncodeCursor(page.Items[n-1].ID)
	}
	return page, nil
}

func toContent(po *ContentPO) *biz.Content {
	return &biz.Content{
		ID:          po.ID,
		URL:         po.URL,
		Name:        po.Name,
		ContentType: po.ContentType,
		Length:      po.Length,
		LengthUnits: po.LengthUnits,
		Response:    []byte(po.Response),
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
