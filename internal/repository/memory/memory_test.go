package memory

import (
	"PIVOT-Backend/internal/domain"
	"PIVOT-Backend/internal/repository"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorage_SaveLink(t *testing.T) {
	storage := New()
	ctx := context.Background()

	link := &domain.Link{Code: "abc12345", URL: "https://example.com", IsActive: true}
	require.NoError(t, storage.SaveLink(ctx, link))
	assert.NotZero(t, link.ID)

	err := storage.SaveLink(ctx, &domain.Link{Code: "abc12345", URL: "https://other.example"})
	assert.ErrorIs(t, err, repository.ErrCodeExists)
}

func TestMemStorage_GetLink(t *testing.T) {
	storage := New()
	ctx := context.Background()

	_, err := storage.GetLink(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrCodeNotFound)

	require.NoError(t, storage.SaveLink(ctx, &domain.Link{Code: "abc12345", URL: "https://example.com", IsActive: true}))

	link, err := storage.GetLink(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.URL)

	// The returned copy must not alias the stored record.
	link.URL = "https://mutated.example"
	again, err := storage.GetLink(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", again.URL)
}

func TestMemStorage_CodeExists(t *testing.T) {
	storage := New()
	ctx := context.Background()

	exists, err := storage.CodeExists(ctx, "abc12345")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, storage.SaveLink(ctx, &domain.Link{Code: "abc12345", URL: "https://example.com"}))

	exists, err = storage.CodeExists(ctx, "abc12345")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemStorage_FindLinkAndCountClick(t *testing.T) {
	storage := New()
	ctx := context.Background()

	_, err := storage.FindLinkAndCountClick(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrCodeNotFound)

	require.NoError(t, storage.SaveLink(ctx, &domain.Link{Code: "abc12345", URL: "https://example.com", IsActive: true}))

	link, err := storage.FindLinkAndCountClick(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.Clicks, "returned row carries the post-increment count")

	link, err = storage.FindLinkAndCountClick(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, int64(2), link.Clicks)
}

func TestMemStorage_DeactivateLink(t *testing.T) {
	storage := New()
	ctx := context.Background()

	assert.ErrorIs(t, storage.DeactivateLink(ctx, "missing"), repository.ErrCodeNotFound)

	require.NoError(t, storage.SaveLink(ctx, &domain.Link{Code: "abc12345", URL: "https://example.com", IsActive: true}))
	require.NoError(t, storage.DeactivateLink(ctx, "abc12345"))

	link, err := storage.GetLink(ctx, "abc12345")
	require.NoError(t, err)
	assert.False(t, link.IsActive)
}

func TestMemStorage_ConcurrentClicks(t *testing.T) {
	storage := New()
	ctx := context.Background()

	require.NoError(t, storage.SaveLink(ctx, &domain.Link{Code: "abc12345", URL: "https://example.com", IsActive: true}))

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := storage.FindLinkAndCountClick(ctx, "abc12345")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	link, err := storage.GetLink(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, int64(n), link.Clicks, "no increment may be lost")
}
