package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"blog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "$2a$10$secret-hash-value"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestGORMPostRepository_CreateAndGet(t *testing.T) {
	db := setupSQLite(t)
	users := NewGORMUserRepository(db)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	author := createUser(t, users, "writer")
	post := &models.Post{Title: "Hello", Slug: "hello", Excerpt: "An excerpt", Content: "Body", AuthorID: &author.ID}
	require.NoError(t, repo.Create(ctx, post))

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)

	got, err := repo.GetBySlug(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	require.NotNil(t, got.Author)
	assert.Equal(t, models.Author{ID: author.ID, Username: "writer"}, *got.Author)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-hash-value")

	byID, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", byID.Slug)

	_, err = repo.GetBySlug(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestGORMPostRepository_DuplicateSlug(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Post{Title: "A", Slug: "same", Excerpt: "x", Content: "y"}))
	err := repo.Create(ctx, &models.Post{Title: "B", Slug: "same", Excerpt: "x", Content: "y"})
	assert.ErrorIs(t, err, models.ErrSlugTaken)
}

func TestGORMPostRepository_ListOrdering(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		require.NoError(t, repo.Create(ctx, &models.Post{Title: fmt.Sprintf("Post %d", i), Slug: fmt.Sprintf("post-%d", i), Excerpt: "x", Content: "y"}))
		time.Sleep(2 * time.Millisecond)
	}

	newest, err := repo.List(ctx, ListOptions{OrderBy: NewestFirst, Limit: 2})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "post-4", newest[0].Slug)
	assert.Equal(t, "post-3", newest[1].Slug)

	oldest, err := repo.List(ctx, ListOptions{OrderBy: OldestFirst})
	require.NoError(t, err)
	require.Len(t, oldest, 4)
	assert.Equal(t, "post-1", oldest[0].Slug)
	assert.Nil(t, oldest[0].Author)
}

func TestGORMPostRepository_ListOrderingTieBreak(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"b", "c", "a"} {
		record := postRecord{ID: id, Title: id, Slug: "slug-" + id, Excerpt: "x", Content: "y", CreatedAt: stamp, UpdatedAt: stamp}
		require.NoError(t, db.Create(&record).Error)
	}

	newest, err := repo.List(ctx, ListOptions{OrderBy: NewestFirst})
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{newest[0].ID, newest[1].ID, newest[2].ID})

	oldest, err := repo.List(ctx, ListOptions{OrderBy: OldestFirst})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, []string{oldest[0].ID, oldest[1].ID, oldest[2].ID})
}

func TestGORMPostRepository_ListByAuthor(t *testing.T) {
	db := setupSQLite(t)
	users := NewGORMUserRepository(db)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	require.NoError(t, repo.Create(ctx, &models.Post{Title: "A", Slug: "a", Excerpt: "x", Content: "y", AuthorID: &alice.ID}))
	require.NoError(t, repo.Create(ctx, &models.Post{Title: "B", Slug: "b", Excerpt: "x", Content: "y", AuthorID: &bob.ID}))

	posts, err := repo.ListByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "a", posts[0].Slug)
}

func TestGORMPostRepository_Update(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "Old", Slug: "old", Excerpt: "x", Content: "y"}
	require.NoError(t, repo.Create(ctx, post))
	created := post.CreatedAt
	time.Sleep(2 * time.Millisecond)

	post.Title = "New"
	post.Slug = "new"
	require.NoError(t, repo.Update(ctx, post))
	assert.Equal(t, "New", post.Title)
	assert.True(t, post.UpdatedAt.After(created))
	assert.True(t, post.CreatedAt.Equal(created))

	_, err := repo.GetBySlug(ctx, "old")
	assert.ErrorIs(t, err, models.ErrPostNotFound)

	missing := &models.Post{ID: "missing", Title: "T", Slug: "t", Excerpt: "x", Content: "y"}
	assert.ErrorIs(t, repo.Update(ctx, missing), models.ErrPostNotFound)

	require.NoError(t, repo.Create(ctx, &models.Post{Title: "Other", Slug: "other", Excerpt: "x", Content: "y"}))
	post.Slug = "other"
	assert.ErrorIs(t, repo.Update(ctx, post), models.ErrSlugTaken)
}

func TestGORMPostRepository_Delete(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "Gone", Slug: "gone", Excerpt: "x", Content: "y"}
	require.NoError(t, repo.Create(ctx, post))

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err := repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, models.ErrPostNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, post.ID), models.ErrPostNotFound)
}

func TestGORMPostRepository_DanglingAuthor(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	author := createUser(t, NewGORMUserRepository(db), "leaving")
	require.NoError(t, repo.Create(ctx, &models.Post{Title: "Orphan", Slug: "orphan", Excerpt: "x", Content: "y", AuthorID: &author.ID}))
	require.NoError(t, db.Exec("DELETE FROM users WHERE id = ?", author.ID).Error)

	got, err := repo.GetBySlug(ctx, "orphan")
	require.NoError(t, err)
	assert.Nil(t, got.Author)
}

func TestGORMPostRepository_StoreFaults(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGORMPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .* FROM "posts"`).WillReturnError(errors.New("connection reset by peer"))
	_, err := repo.List(ctx, ListOptions{})
	var storeErr *models.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, models.PublicFaultMessage, storeErr.PublicMessage())
	assert.Contains(t, storeErr.Error(), "connection reset by peer")

	mock.ExpectQuery(`SELECT .* FROM "posts"`).WillReturnError(errors.New("connection reset by peer"))
	_, err = repo.GetBySlug(ctx, "hello")
	assert.True(t, models.IsStoreError(err))
	assert.NotErrorIs(t, err, models.ErrPostNotFound)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "posts"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	err = repo.Delete(ctx, "p1")
	assert.True(t, models.IsStoreError(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGORMPostRepository_NotFoundWithoutWrite(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGORMPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Post{ID: "missing", Title: "T", Slug: "t", Excerpt: "x", Content: "y"})
	assert.ErrorIs(t, err, models.ErrPostNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
