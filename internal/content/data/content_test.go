package data

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lk2023060901/perspectize-backend/internal/content/biz"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

var contentColumns = []string{"id", "url", "name", "content_type", "length", "length_units", "response", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (biz.ContentRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := database.DefaultConfig()
	cfg.PrepareStmt = false
	db, err := database.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg, logger.NewNop())
	require.NoError(t, err)
	return NewContentRepo(db), mock
}

func newContent() *biz.Content {
	url := "https://youtu.be/abc"
	length := 65
	units := biz.LengthUnitsSeconds
	return &biz.Content{
		URL:         &url,
		Name:        "A video",
		ContentType: biz.ContentTypeYouTube,
		Length:      &length,
		LengthUnits: &units,
		Response:    []byte(`{"items":[]}`),
	}
}

func TestContentRepo_Upsert(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name        string
		inserted    bool
		wantCreated bool
	}{
		{name: "insert", inserted: true, wantCreated: true},
		{name: "update", inserted: false, wantCreated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`(?s)INSERT INTO content .+ ON CONFLICT \(url\) DO UPDATE SET .+ RETURNING id, created_at, updated_at, \(xmax = 0\) AS inserted`).
				WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "inserted"}).
					AddRow(42, now, now, tt.inserted))

			c := newContent()
			created, err := repo.Upsert(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.Equal(t, int64(42), c.ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestContentRepo_Upsert_NameConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`INSERT INTO content`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_content_name"})

	_, err := repo.Upsert(context.Background(), newContent())
	assert.ErrorIs(t, err, biz.ErrNameConflict)
}

func TestContentRepo_Upsert_StoreError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`INSERT INTO content`).
		WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})

	_, err := repo.Upsert(context.Background(), newContent())
	require.Error(t, err)
	assert.NotErrorIs(t, err, biz.ErrNameConflict)
}

func TestContentRepo_GetByName(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "content" WHERE name = \$1`).
		WillReturnRows(sqlmock.NewRows(contentColumns).
			AddRow(7, "https://youtu.be/abc", "A video", "youtube", 65, "seconds", []byte(`{"items":[]}`), now, now))

	c, err := repo.GetByName(context.Background(), "A video")
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	require.NotNil(t, c.Length)
	assert.Equal(t, 65, *c.Length)
	assert.JSONEq(t, `{"items":[]}`, string(c.Response))
}

func TestContentRepo_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT \* FROM "content" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(contentColumns))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, biz.ErrContentNotFound)
}

func TestContentRepo_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	first := 2
	params := &biz.ListParams{
		First:             &first,
		ContentType:       "youtube",
		Search:            "50%",
		IncludeTotalCount: true,
	}
	require.NoError(t, params.Normalize())

	mock.ExpectQuery(`SELECT count\(\*\) FROM "content" WHERE content_type = \$1 AND name ILIKE \$2`).
		WithArgs("youtube", `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	rows := sqlmock.NewRows(contentColumns)
	for id := 3; id >= 1; id-- {
		rows.AddRow(id, nil, "video", "youtube", nil, nil, nil, now, now)
	}
	mock.ExpectQuery(`SELECT \* FROM "content" WHERE content_type = \$1 AND name ILIKE \$2 ORDER BY created_at DESC, id DESC LIMIT`).
		WillReturnRows(rows)

	page, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasNextPage)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, int64(5), *page.TotalCount)
	assert.Equal(t, database.EncodeCursor(2), page.EndCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepo_List_AfterCursor(t *testing.T) {
	repo, mock := newMockRepo(t)

	params := &biz.ListParams{
		After:     database.EncodeCursor(10),
		SortBy:    biz.SortByName,
		SortOrder: biz.SortAsc,
	}
	require.NoError(t, params.Normalize())

	mock.ExpectQuery(`WHERE \(name, id\) > \(SELECT name, id FROM content WHERE id = \$1\) ORDER BY name ASC, id ASC`).
		WillReturnRows(sqlmock.NewRows(contentColumns))

	page, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.EndCursor)
	assert.Nil(t, page.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
}
