package data

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	"github.com/lk2023060901/perspectize-backend/internal/user/biz"
	"gorm.io/gorm"
)

// perspectivesTable is referenced by name so this package does not import
// the perspective domain
const perspectivesTable = "perspectives"

// UserPO represents the database model
type UserPO struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Username  string    `gorm:"size:24;not null;uniqueIndex:idx_users_username"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:idx_users_email"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (UserPO) TableName() string {
	return "users"
}

// UserRepo implements biz.UserRepo interface
type UserRepo struct {
	db *database.DB
	tm *database.TransactionManager
}

func NewUserRepo(db *database.DB) biz.UserRepo {
	return &UserRepo{db: db, tm: database.NewTransactionManager(db)}
}

func (r *UserRepo) Create(ctx context.Context, user *biz.User) error {
	po := &UserPO{
		Username: user.Username,
		Email:    user.Email,
	}

	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return mapWriteError(err)
	}

	user.ID = po.ID
	user.CreatedAt = po.CreatedAt
	user.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*biz.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*biz.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*biz.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepo) first(ctx context.Context, query string, arg interface{}) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).Where(query, arg).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrUserNotFound
		}
		return nil, err
	}
	return toUser(&po), nil
}

// List pages by ascending id. params must be normalized.
func (r *UserRepo) List(ctx context.Context, params *biz.ListParams) (*biz.Page, error) {
	q := r.db.WithContext(ctx).Model(&UserPO{})
	if params.AfterID > 0 {
		q = q.Where("id > ?", params.AfterID)
	}

	var pos []UserPO
	if err := q.Order("id ASC").Limit(params.Limit + 1).Find(&pos).Error; err != nil {
		return nil, err
	}

	page := &biz.Page{}
	if len(pos) > params.Limit {
		page.HasNextPage = true
		pos = pos[:params.Limit]
	}

	page.Items = make([]*biz.User, len(pos))
	for i := range pos {
		page.Items[i] = toUser(&pos[i])
	}
	if n := len(page.Items); n > 0 {
		page.EndCursor = database.EncodeCursor(page.Items[n-1].ID)
	}
	return page, nil
}

func (r *UserRepo) Update(ctx context.Context, user *biz.User) error {
	user.UpdatedAt = time.Now().UTC()
	tx := r.db.WithContext(ctx).Model(&UserPO{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"username":   user.Username,
		"email":      user.Email,
		"updated_at": user.UpdatedAt,
	})
	if tx.Error != nil {
		return mapWriteError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return biz.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id, heirID int64) error {
	return r.tm.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Table(perspectivesTable).Where("user_id = ?", id).
			Updates(map[string]interface{}{"user_id": heirID, "updated_at": time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("reassign perspectives: %w", err)
		}

		res := tx.Where("id = ?", id).Delete(&UserPO{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return biz.ErrUserNotFound
		}
		return nil
	})
}

func (r *UserRepo) Ensure(ctx context.Context, username, email string) (*biz.User, error) {
	var po UserPO
	err := r.db.WithContext(ctx).
		Where(UserPO{Username: username}).
		Attrs(UserPO{Email: email}).
		FirstOrCreate(&po).Error
	if err != nil {
		return nil, err
	}
	return toUser(&po), nil
}

func mapWriteError(err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", biz.ErrUserExists, database.ConstraintName(err))
	}
	return err
}

func toUser(po *UserPO) *biz.User {
	return &biz.User{
		ID:        po.ID,
		Username:  po.Username,
		Email:     po.Email,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}
