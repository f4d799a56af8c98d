package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/storage"
)

func setupTestRepositories(t *testing.T) (storage.ContentRepository, storage.ChunkRepository, *Backend) {
	t.Helper()

	contentRepo, chunkRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)

	t.Cleanup(func() {
		chunkRepo.Close()
		contentRepo.Close()
		backend.Close()
	})

	return contentRepo, chunkRepo, backend
}

func TestAddContentItemAssignsDefaults(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	item := &core.ContentItem{
		Type:  core.TypeImage,
		Title: "Vacation photo",
	}

	added, err := contentRepo.AddContentItems(ctx, item)
	require.NoError(t, err)
	require.Len(t, added, 1)

	assert.NotZero(t, added[0].Id)
	assert.Equal(t, core.StatusPending, added[0].Status)
	assert.False(t, added[0].CreatedAt.IsZero())
	assert.Equal(t, added[0].CreatedAt, added[0].UpdatedAt)
}

func TestAddContentItemStableIDForURL(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	first := &core.ContentItem{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/post",
		Title:     "First title",
	}
	_, err := contentRepo.AddContentItems(ctx, first)
	require.NoError(t, err)

	// Re-adding the same source resolves to the same record
	second := &core.ContentItem{
		Type:      core.TypeWebpage,
		SourceURL: "https://example.com/post",
		Title:     "Second title",
	}
	_, err = contentRepo.AddContentItems(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)

	stored, err := contentRepo.GetContentItem(ctx, first.Id)
	require.NoError(t, err)
	assert.Equal(t, "Second title", stored.Title)
}

func TestAddContentItemDistinctUploads(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	a := &core.ContentItem{Type: core.TypeImage, Title: "one"}
	b := &core.ContentItem{Type: core.TypeImage, Title: "two"}
	_, err := contentRepo.AddContentItems(ctx, a, b)
	require.NoError(t, err)

	assert.NotZero(t, a.Id)
	assert.NotZero(t, b.Id)
	assert.NotEqual(t, a.Id, b.Id)
}

func TestGetContentItemNotFound(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)

	_, err := contentRepo.GetContentItem(context.Background(), 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateContentItem(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	item := &core.ContentItem{Type: core.TypeDocument, SourceURL: "https://example.com/doc.md", Title: "Draft"}
	_, err := contentRepo.AddContentItems(ctx, item)
	require.NoError(t, err)
	created := item.CreatedAt

	item.Title = "Final"
	item.Status = core.StatusCompleted
	item.CompletedAt = time.Now().UTC()
	_, err = contentRepo.UpdateContentItems(ctx, item)
	require.NoError(t, err)

	stored, err := contentRepo.GetContentItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, "Final", stored.Title)
	assert.Equal(t, core.StatusCompleted, stored.Status)
	assert.Equal(t, created, stored.CreatedAt)
	assert.False(t, stored.CompletedAt.IsZero())
}

func TestUpdateContentItemNotFound(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)

	missing := &core.ContentItem{Id: 999, Type: core.TypeImage, Title: "ghost"}
	_, err := contentRepo.UpdateContentItems(context.Background(), missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteContentItems(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	item := &core.ContentItem{Type: core.TypeImage, Title: "doomed"}
	_, err := contentRepo.AddContentItems(ctx, item)
	require.NoError(t, err)

	require.NoError(t, contentRepo.DeleteContentItems(ctx, item.Id))

	_, err = contentRepo.GetContentItem(ctx, item.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting again reports not found
	assert.ErrorIs(t, contentRepo.DeleteContentItems(ctx, item.Id), storage.ErrNotFound)
}

func TestGetContentItemsSkipsMissing(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	a := &core.ContentItem{Type: core.TypeImage, Title: "a"}
	b := &core.ContentItem{Type: core.TypeImage, Title: "b"}
	_, err := contentRepo.AddContentItems(ctx, a, b)
	require.NoError(t, err)

	items, err := contentRepo.GetContentItems(ctx, a.Id, 424242, b.Id)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGetContentItemsByStatus(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	done := &core.ContentItem{Type: core.TypeWebpage, SourceURL: "https://example.com/a", Status: core.StatusCompleted}
	failed := &core.ContentItem{Type: core.TypeWebpage, SourceURL: "https://example.com/b", Status: core.StatusFailed, ErrorMessage: "boom"}
	pending := &core.ContentItem{Type: core.TypeImage, Title: "c"}
	_, err := contentRepo.AddContentItems(ctx, done, failed, pending)
	require.NoError(t, err)

	completed, err := contentRepo.GetContentItemsByStatus(ctx, core.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.Id, completed[0].Id)

	pendings, err := contentRepo.GetContentItemsByStatus(ctx, core.StatusPending)
	require.NoError(t, err)
	require.Len(t, pendings, 1)
	assert.Equal(t, pending.Id, pendings[0].Id)
}

func TestGetRecentContentItemsOrder(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	var ids []core.ID
	for _, title := range []string{"oldest", "middle", "newest"} {
		item := &core.ContentItem{Type: core.TypeImage, Title: title, Status: core.StatusCompleted}
		_, err := contentRepo.AddContentItems(ctx, item)
		require.NoError(t, err)
		ids = append(ids, item.Id)
		time.Sleep(5 * time.Millisecond) // distinct creation timestamps
	}

	recent, err := contentRepo.GetRecentContentItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "newest", recent[0].Title)
	assert.Equal(t, "middle", recent[1].Title)
	assert.Equal(t, ids[2], recent[0].Id)
}

func TestGetRecentContentItemsOnlyCompleted(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)
	ctx := context.Background()

	fixtures := []struct {
		title  string
		status core.Status
	}{
		{"done-old", core.StatusCompleted},
		{"stuck", core.StatusProcessing},
		{"done-new", core.StatusCompleted},
		{"broken", core.StatusFailed},
	}
	for _, f := range fixtures {
		item := &core.ContentItem{Type: core.TypeImage, Title: f.title, Status: f.status}
		_, err := contentRepo.AddContentItems(ctx, item)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond) // distinct creation timestamps
	}

	// The scan must skip the trailing failed and the processing item and
	// still fill the limit with both completed items.
	recent, err := contentRepo.GetRecentContentItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "done-new", recent[0].Title)
	assert.Equal(t, "done-old", recent[1].Title)
	for _, item := range recent {
		assert.Equal(t, core.StatusCompleted, item.Status)
	}
}

func TestGetRecentContentItemsEmpty(t *testing.T) {
	contentRepo, _, _ := setupTestRepositories(t)

	recent, err := contentRepo.GetRecentContentItems(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
