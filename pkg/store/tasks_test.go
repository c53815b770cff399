package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxlabs/recall/pkg/models"
	"github.com/nyxlabs/recall/pkg/store"
)

func TestCreateTaskDefaultsToNotDone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, "user-1", &models.Task{OwnerUserID: "user-1", Description: "buy milk"})
	require.NoError(t, err)
	require.Equal(t, models.TaskNotDone, task.State)
}

func TestListTasksFiltersByState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, "user-1", &models.Task{OwnerUserID: "user-1", Description: "buy milk"})
	require.NoError(t, err)
	done, err := s.CreateTask(ctx, "user-1", &models.Task{OwnerUserID: "user-1", Description: "taxes", State: models.TaskDone})
	require.NoError(t, err)

	state := models.TaskDone
	tasks, err := s.ListTasks(ctx, "user-1", &state, 50)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, done.ID, tasks[0].ID)
}

func TestUpdateTaskRejectsInvalidState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, "user-1", &models.Task{OwnerUserID: "user-1", Description: "buy milk"})
	require.NoError(t, err)

	bogus := models.TaskState("WHENEVER")
	_, err = s.UpdateTask(ctx, "user-1", task.ID, store.TaskPatch{State: &bogus})
	require.Error(t, err)
}

func TestDeleteTaskRemovesIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, "user-1", &models.Task{OwnerUserID: "user-1", Description: "buy milk"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(ctx, "user-1", task.ID))
	_, err = s.GetTask(ctx, task.ID)
	require.Error(t, err)
}
