package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxlabs/recall/pkg/models"
	"github.com/nyxlabs/recall/pkg/store"
	util "github.com/nyxlabs/recall/test/util"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db := util.SetupTestDatabase(t)
	return store.New(db)
}

func TestCreateMemoryWithoutMediaStartsConfirmed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMemory(ctx, "user-1", &models.Memory{OwnerUserID: "user-1", Content: "buy milk"})
	require.NoError(t, err)
	require.Equal(t, models.MemoryConfirmed, m.Status)
	require.Nil(t, m.PendingExpiresAt)

	got, err := s.GetMemory(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, "buy milk", got.Content)
}

func TestCreateMemoryWithMediaStartsPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMemory(ctx, "user-1", &models.Memory{
		OwnerUserID: "user-1",
		Media:       &models.MediaRef{Type: "image", BlobHandle: "blob-1", LocalPath: "photo.jpg"},
	})
	require.NoError(t, err)
	require.Equal(t, models.MemoryPending, m.Status)
	require.NotNil(t, m.PendingExpiresAt)
}

func TestUpdateMemoryAppliesPartialPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMemory(ctx, "user-1", &models.Memory{OwnerUserID: "user-1", Content: "buy milk"})
	require.NoError(t, err)

	newContent := "buy oat milk"
	updated, err := s.UpdateMemory(ctx, "user-1", m.ID, store.MemoryPatch{Content: &newContent})
	require.NoError(t, err)
	require.Equal(t, "buy oat milk", updated.Content)
	require.Equal(t, models.MemoryConfirmed, updated.Status, "unrelated fields must be left untouched")
}

func TestUpdateMemoryRejectsInvalidStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMemory(ctx, "user-1", &models.Memory{OwnerUserID: "user-1", Content: "buy milk"})
	require.NoError(t, err)

	bogus := models.MemoryStatus("not-a-real-status")
	_, err = s.UpdateMemory(ctx, "user-1", m.ID, store.MemoryPatch{Status: &bogus})
	require.Error(t, err)
}

func TestDeleteMemoryRemovesIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.CreateMemory(ctx, "user-1", &models.Memory{OwnerUserID: "user-1", Content: "buy milk"})
	require.NoError(t, err)

	removed, err := s.DeleteMemory(ctx, "user-1", m.ID)
	require.NoError(t, err)
	require.Equal(t, m.ID, removed.ID)

	_, err = s.GetMemory(ctx, m.ID)
	require.Error(t, err)
}
