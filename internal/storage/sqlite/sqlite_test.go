package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/shopclerk/internal/core"
)

func newTestDB(t *testing.T) *CatalogRepo {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "clerk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCatalogRepo(db)
}

func TestCatalogRepo_SeededData(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t)

	products, err := repo.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)
	for _, p := range products {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.Greater(t, p.Price, 0.0)
	}

	categories, err := repo.ListActiveCategories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, categories)
	for _, c := range categories {
		assert.NotEmpty(t, c.Slug)
	}

	pages, err := repo.ListDocPages(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, pages)
	for _, page := range pages {
		assert.NotEmpty(t, page.Title)
		assert.NotEmpty(t, page.Body)
		assert.NotEmpty(t, page.Tags, "seeded pages carry tags")
	}
}

func TestConversationsRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB(ctx, filepath.Join(t.TempDir(), "clerk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewConversationsRepo(db)

	now := time.Now().UTC().Truncate(time.Second)
	conv := core.Conversation{
		ConversationID: "c1",
		UserID:         "u1",
		Messages: []core.Message{
			{ID: "m1", Role: core.RoleUser, Content: "find a table", Timestamp: now},
			{
				ID: "m2", Role: core.RoleAgent, Content: "Here's what I found", Timestamp: now,
				Metadata: map[string]any{"intent": "product_search"},
			},
		},
		Meta: core.ConversationMeta{StartTime: now, LastUpdate: now, MessageCount: 2},
	}
	require.NoError(t, repo.Upsert(ctx, conv))

	got, err := repo.FindByConversationID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 2, got.Meta.MessageCount)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "m1", got.Messages[0].ID)
	assert.Equal(t, core.RoleUser, got.Messages[0].Role)
	assert.Equal(t, "product_search", got.Messages[1].Metadata["intent"])
}

func TestConversationsRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB(ctx, filepath.Join(t.TempDir(), "clerk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewConversationsRepo(db)

	_, err = repo.FindByConversationID(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrConversationNotFound)
}

func TestConversationsRepo_UpsertReplacesMessages(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB(ctx, filepath.Join(t.TempDir(), "clerk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewConversationsRepo(db)

	now := time.Now().UTC()
	conv := core.Conversation{
		ConversationID: "c1",
		Meta:           core.ConversationMeta{StartTime: now, LastUpdate: now},
	}
	for i := 0; i < 5; i++ {
		conv.Messages = append(conv.Messages, core.Message{
			ID: string(rune('a' + i)), Role: core.RoleUser, Content: "msg", Timestamp: now,
		})
	}
	conv.Meta.MessageCount = len(conv.Messages)
	require.NoError(t, repo.Upsert(ctx, conv))

	// Compression on the live side shrank the history; the mirror follows.
	conv.Messages = conv.Messages[3:]
	conv.Meta.MessageCount = len(conv.Messages)
	require.NoError(t, repo.Upsert(ctx, conv))

	got, err := repo.FindByConversationID(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, "d", got.Messages[0].ID)
}
