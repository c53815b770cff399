package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyxlabs/recall/pkg/models"
)

func TestAddTagsThenDeleteTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMemory(ctx, "user-1", &models.Memory{OwnerUserID: "user-1", Content: "buy milk"})
	require.NoError(t, err)

	require.NoError(t, s.AddTags(ctx, "user-1", m.ID, []string{"groceries", "urgent"}, models.TagConfirmed))
	require.NoError(t, s.DeleteTag(ctx, "user-1", m.ID, "urgent"))
	require.Error(t, s.DeleteTag(ctx, "user-1", m.ID, "urgent"), "deleting a tag twice must fail")
}

func TestExpireSuggestedTagsRemovesOnlyStale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMemory(ctx, "user-1", &models.Memory{OwnerUserID: "user-1", Content: "buy milk"})
	require.NoError(t, err)

	require.NoError(t, s.AddTags(ctx, "user-1", m.ID, []string{"fresh"}, models.TagSuggested))
	count, err := s.ExpireSuggestedTags(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count, "a freshly suggested tag must not be expired yet")

	db := s.DB()
	_, err = db.ExecContext(ctx, `UPDATE memory_tags SET suggested_at = $1 WHERE memory_id = $2 AND tag = 'fresh'`,
		time.Now().UTC().Add(-8*24*time.Hour), m.ID)
	require.NoError(t, err)

	count, err = s.ExpireSuggestedTags(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
