package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/perspectize-backend/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSuccess(t *testing.T) {
	w, body := render(t, func(c *gin.Context) { Success(c, gin.H{"id": 1}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, apperrors.Success, body.Code)
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, body.Data)
}

func TestCreatedWithNilData(t *testing.T) {
	w, body := render(t, func(c *gin.Context) { Created(c, nil) })
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, map[string]interface{}{}, body.Data)
}

func TestHandleError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", apperrors.New(apperrors.ErrContentNotFound, "abc"))
	w, body := render(t, func(c *gin.Context) { HandleError(c, err) })

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrContentNotFound, body.Code)
	assert.Equal(t, "Content not found: abc", body.Message)
}

func TestErrorWithCode(t *testing.T) {
	w, body := render(t, func(c *gin.Context) {
		ErrorWithCode(c, apperrors.ErrPerspectiveDuplicate, "")
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Claim already exists for user", body.Message)

	w, body = render(t, func(c *gin.Context) { BadRequest(c, "videoId is required") })
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Equal(t, "videoId is required", body.Message)
}
