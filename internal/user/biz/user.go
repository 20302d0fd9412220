package biz

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lk2023060901/perspectize-backend/internal/pkg/cache"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/cachekey"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	// DeletedUsername owns the perspectives of deleted users
	DeletedUsername = "[deleted]"
	// SystemUsername owns records created before users were tracked
	SystemUsername = "[system]"

	MaxUsernameLength = 24

	cacheArea = "users"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var sentinels = map[string]string{
	DeletedUsername: "deleted@system.local",
	SystemUsername:  "system@system.local",
}

// User represents the domain model
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsSentinel reports whether u is one of the built-in system users
func (u *User) IsSentinel() bool {
	_, ok := sentinels[u.Username]
	return ok
}

// ListParams selects one page of users ordered by id
type ListParams struct {
	First *int
	After string

	Limit   int
	AfterID int64
}

// Normalize applies defaults and validates the parameters
func (p *ListParams) Normalize() error {
	limit, err := database.PageSize(p.First)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	p.Limit = limit

	if p.After != "" {
		id, err := database.DecodeCursor(p.After)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidUser, err)
		}
		p.AfterID = id
	}
	return nil
}

// Page is one page of users
type Page struct {
	Items       []*User `json:"items"`
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   string  `json:"endCursor,omitempty"`
}

// UpdateInput carries a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	ID       int64
	Username *string
	Email    *string
}

// UserRepo defines the interface for user data operations
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, params *ListParams) (*Page, error)
	Update(ctx context.Context, user *User) error
	// Delete hands the user's perspectives to heirID and removes the user
	// in one transaction
	Delete(ctx context.Context, id, heirID int64) error
	// Ensure returns the user named username, creating it when missing
	Ensure(ctx context.Context, username, email string) (*User, error)
}

// UserUseCase contains business logic for user operations
type UserUseCase struct {
	repo   UserRepo
	cache  *cache.Cache
	logger *logger.Logger
}

// NewUserUseCase creates the user use case. c may be nil.
func NewUserUseCase(repo UserRepo, c *cache.Cache, log *logger.Logger) *UserUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &UserUseCase{repo: repo, cache: c, logger: log}
}

// EnsureSentinels creates the system users if they are missing
func (uc *UserUseCase) EnsureSentinels(ctx context.Context) error {
	for _, name := range []string{DeletedUsername, SystemUsername} {
		u, err := uc.repo.Ensure(ctx, name, sentinels[name])
		if err != nil {
			return fmt.Errorf("ensure sentinel %s: %w", name, err)
		}
		uc.logger.Debug("sentinel user ready", zap.String("username", name), zap.Int64("id", u.ID))
	}
	return nil
}

func (uc *UserUseCase) CreateUser(ctx context.Context, username, email string) (*User, error) {
	username, err := validateUsername(username)
	if err != nil {
		return nil, err
	}
	email, err = validateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := uc.checkUnique(ctx, 0, username, email); err != nil {
		return nil, err
	}

	user := &User{Username: username, Email: email}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.invalidate(ctx)
	uc.logger.WithContext(ctx).Info("user created",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return user, nil
}

func (uc *UserUseCase) GetUser(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be a positive integer", ErrInvalidUser)
	}
	return cache.Fetch(ctx, uc.cache, cacheArea, cachekey.UserDetail(strconv.FormatInt(id, 10)), func(ctx context.Context) (*User, error) {
		return uc.repo.GetByID(ctx, id)
	})
}

func (uc *UserUseCase) GetByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidUser)
	}
	return uc.repo.GetByUsername(ctx, username)
}

func (uc *UserUseCase) ListUsers(ctx context.Context, params ListParams) (*Page, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}
	key := cachekey.UserList(cachekey.ListFilters{First: params.Limit, After: params.After})
	return cache.Fetch(ctx, uc.cache, cacheArea, key, func(ctx context.Context) (*Page, error) {
		return uc.repo.List(ctx, &params)
	})
}

func (uc *UserUseCase) UpdateUser(ctx context.Context, in UpdateInput) (*User, error) {
	user, err := uc.GetUser(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if user.IsSentinel() {
		return nil, ErrSentinelUser
	}

	username, email := user.Username, user.Email
	if in.Username != nil {
		if username, err = validateUsername(*in.Username); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if email, err = validateEmail(*in.Email); err != nil {
			return nil, err
		}
	}

	changedName := ""
	if username != user.Username {
		changedName = username
	}
	changedEmail := ""
	if email != user.Email {
		changedEmail = email
	}
	if err := uc.checkUnique(ctx, user.ID, changedName, changedEmail); err != nil {
		return nil, err
	}

	updated := *user
	updated.Username = username
	updated.Email = email
	if err := uc.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	uc.invalidate(ctx)
	return &updated, nil
}

// DeleteUser reassigns the user's perspectives to the [deleted] user and
// removes the user
func (uc *UserUseCase) DeleteUser(ctx context.Context, id int64) error {
	user, err := uc.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.IsSentinel() {
		return ErrSentinelUser
	}

	heir, err := uc.repo.GetByUsername(ctx, DeletedUsername)
	if err != nil {
		return fmt.Errorf("find %s user: %w", DeletedUsername, err)
	}
	if err := uc.repo.Delete(ctx, id, heir.ID); err != nil {
		return err
	}

	uc.invalidate(ctx)
	uc.logger.WithContext(ctx).Info("user deleted",
		zap.Int64("user_id", id),
		zap.Int64("heir_id", heir.ID),
	)
	return nil
}

// checkUnique rejects a username or email already held by a user other than
// selfID. Empty values are not checked.
func (uc *UserUseCase) checkUnique(ctx context.Context, selfID int64, username, email string) error {
	if username != "" {
		u, err := uc.repo.GetByUsername(ctx, username)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("check username: %w", err)
		}
		if u != nil && u.ID != selfID {
			return fmt.Errorf("%w: username %q is taken", ErrUserExists, username)
		}
	}
	if email != "" {
		u, err := uc.repo.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("check email: %w", err)
		}
		if u != nil && u.ID != selfID {
			return fmt.Errorf("%w: email %q is registered", ErrUserExists, email)
		}
	}
	return nil
}

func (uc *UserUseCase) invalidate(ctx context.Context) {
	uc.cache.Invalidate(context.WithoutCancel(ctx), cachekey.UserLists(), cachekey.UserDetails())
}

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", ErrInvalidUser)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", fmt.Errorf("%w: username must be %d characters or less", ErrInvalidUser, MaxUsernameLength)
	}
	if _, ok := sentinels[username]; ok {
		return "", fmt.Errorf("%w: username %q is reserved", ErrInvalidUser, username)
	}
	return username, nil
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidUser)
	}
	if !emailRegex.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email format", ErrInvalidUser)
	}
	return email, nil
}
