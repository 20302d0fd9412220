package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/perspectize-backend/internal/pkg/errors"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/format"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/response"
	"github.com/lk2023060901/perspectize-backend/internal/user/biz"
	"go.uber.org/zap"
)

type UserService struct {
	uc     *biz.UserUseCase
	logger *logger.Logger
}

func NewUserService(uc *biz.UserUseCase, logger *logger.Logger) *UserService {
	return &UserService{
		uc:     uc,
		logger: logger,
	}
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type ListUsersRequest struct {
	First *int   `form:"first"`
	After string `form:"after"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type UserListResponse struct {
	Items       []*UserResponse `json:"items"`
	HasNextPage bool            `json:"hasNextPage"`
	EndCursor   string          `json:"endCursor,omitempty"`
}

func (s *UserService) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrUserInvalidInput, err.Error())
		return
	}

	user, err := s.uc.CreateUser(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		if errors.Is(err, biz.ErrUserExists) {
			response.ErrorWithCode(c, apperrors.ErrUserExists, format.UserFailureMessage(err.Error()))
			return
		}
		s.handleError(c, err)
		return
	}

	response.Created(c, toResponse(user))
}

func (s *UserService) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := s.uc.GetUser(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, toResponse(user))
}

func (s *UserService) GetUserByUsername(c *gin.Context) {
	username := c.Param("username")

	user, err := s.uc.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, biz.ErrUserNotFound) {
			response.ErrorWithCode(c, apperrors.ErrUserNotFound, fmt.Sprintf("User with username '%s' not found", username))
			return
		}
		s.handleError(c, err)
		return
	}

	response.Success(c, toResponse(user))
}

func (s *UserService) ListUsers(c *gin.Context) {
	var req ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	page, err := s.uc.ListUsers(c.Request.Context(), biz.ListParams{First: req.First, After: req.After})
	if err != nil {
		s.handleError(c, err)
		return
	}

	items := make([]*UserResponse, len(page.Items))
	for i, user := range page.Items {
		items[i] = toResponse(user)
	}
	response.Success(c, &UserListResponse{
		Items:       items,
		HasNextPage: page.HasNextPage,
		EndCursor:   page.EndCursor,
	})
}

func (s *UserService) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrUserInvalidInput, err.Error())
		return
	}

	user, err := s.uc.UpdateUser(c.Request.Context(), biz.UpdateInput{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, toResponse(user))
}

func (s *UserService) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.uc.DeleteUser(c.Request.Context(), id); err != nil {
		s.handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "user deleted successfully", nil)
}

func (s *UserService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrUserNotFound):
		response.ErrorWithCode(c, apperrors.ErrUserNotFound, "")
	case errors.Is(err, biz.ErrUserExists):
		response.ErrorWithCode(c, apperrors.ErrUserExists, err.Error())
	case errors.Is(err, biz.ErrInvalidUser):
		response.ErrorWithCode(c, apperrors.ErrUserInvalidInput, err.Error())
	case errors.Is(err, biz.ErrSentinelUser):
		response.ErrorWithCode(c, apperrors.ErrUserProtected, "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ErrorWithCode(c, apperrors.ErrServiceUnavail, "request cancelled")
	default:
		s.logger.WithContext(c.Request.Context()).Error("user request failed", zap.Error(err))
		response.InternalError(c, "internal server error")
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "invalid user id")
		return 0, false
	}
	return id, true
}

func toResponse(user *biz.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *UserService) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", s.CreateUser)
		users.GET("", s.ListUsers)
		users.GET("/by-username/:username", s.GetUserByUsername)
		users.GET("/:id", s.GetUser)
		users.PUT("/:id", s.UpdateUser)
		users.DELETE("/:id", s.DeleteUser)
	}
}
