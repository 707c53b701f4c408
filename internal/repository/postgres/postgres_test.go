package postgres

import (
	"PIVOT-Backend/internal/domain"
	"PIVOT-Backend/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupStorage spins up a throwaway PostgreSQL container and migrates the
// schema. Requires a Docker daemon; skipped in -short runs.
func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("pivot_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Link{}))

	return New(db, zap.NewNop())
}

func TestPostgresStorage(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		limit := int64(5)
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		link := &domain.Link{
			Code:       "abcd2345",
			URL:        "https://example.com",
			OSURLs:     domain.OSURLMap{domain.OSAndroid: "https://a.example"},
			ClickLimit: &limit,
			ExpiresAt:  &expires,
			IsActive:   true,
		}
		require.NoError(t, storage.SaveLink(ctx, link))
		assert.NotZero(t, link.ID)

		got, err := storage.GetLink(ctx, "abcd2345")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.URL)
		assert.Equal(t, domain.OSURLMap{domain.OSAndroid: "https://a.example"}, got.OSURLs)
		require.NotNil(t, got.ClickLimit)
		assert.Equal(t, int64(5), *got.ClickLimit)
		require.NotNil(t, got.ExpiresAt)
		assert.WithinDuration(t, expires, *got.ExpiresAt, time.Second)
	})

	t.Run("duplicate code", func(t *testing.T) {
		err := storage.SaveLink(ctx, &domain.Link{Code: "abcd2345", URL: "https://other.example", IsActive: true})
		assert.ErrorIs(t, err, repository.ErrCodeExists)
	})

	t.Run("code exists", func(t *testing.T) {
		exists, err := storage.CodeExists(ctx, "abcd2345")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = storage.CodeExists(ctx, "zzzz9999")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := storage.GetLink(ctx, "zzzz9999")
		assert.ErrorIs(t, err, repository.ErrCodeNotFound)
	})

	t.Run("find and count click", func(t *testing.T) {
		require.NoError(t, storage.SaveLink(ctx, &domain.Link{Code: "clicky42", URL: "https://example.com", IsActive: true}))

		link, err := storage.FindLinkAndCountClick(ctx, "clicky42")
		require.NoError(t, err)
		assert.Equal(t, int64(1), link.Clicks, "returned row carries the post-increment count")
		assert.Equal(t, "https://example.com", link.URL)

		link, err = storage.FindLinkAndCountClick(ctx, "clicky42")
		require.NoError(t, err)
		assert.Equal(t, int64(2), link.Clicks)

		_, err = storage.FindLinkAndCountClick(ctx, "zzzz9999")
		assert.ErrorIs(t, err, repository.ErrCodeNotFound)
	})

	t.Run("concurrent clicks lose no increments", func(t *testing.T) {
		require.NoError(t, storage.SaveLink(ctx, &domain.Link{Code: "parallel", URL: "https://example.com", IsActive: true}))

		const n = 50
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, err := storage.FindLinkAndCountClick(ctx, "parallel")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		link, err := storage.GetLink(ctx, "parallel")
		require.NoError(t, err)
		assert.Equal(t, int64(n), link.Clicks)
	})

	t.Run("deactivate", func(t *testing.T) {
		require.NoError(t, storage.SaveLink(ctx, &domain.Link{Code: "shutoff1", URL: "https://example.com", IsActive: true}))
		require.NoError(t, storage.DeactivateLink(ctx, "shutoff1"))

		link, err := storage.GetLink(ctx, "shutoff1")
		require.NoError(t, err)
		assert.False(t, link.IsActive)

		assert.ErrorIs(t, storage.DeactivateLink(ctx, "zzzz9999"), repository.ErrCodeNotFound)
	})
}
