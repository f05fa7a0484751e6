package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"snapfeed/internal/model"
	appErr "snapfeed/internal/pkg/errors"
	"snapfeed/internal/pkg/timeutil"
	"snapfeed/internal/repo"
	"snapfeed/test/testutil"
)

func TestUserRepoCreateAndLookup(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           "user-1",
		Email:        "a@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		Status:       "I am new!",
		Ctime:        now,
		Mtime:        now,
	}
	require.NoError(t, users.Create(context.Background(), user))

	fetched, err := users.GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "user-1", fetched.ID)
	require.Equal(t, "Alice", fetched.Name)

	_, err = users.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestUserRepoDuplicateEmailConflicts(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	now := timeutil.NowUnix()
	first := &model.User{ID: "user-1", Email: "dup@example.com", Name: "A", PasswordHash: "h", Status: "s", Ctime: now, Mtime: now}
	second := &model.User{ID: "user-2", Email: "dup@example.com", Name: "B", PasswordHash: "h", Status: "s", Ctime: now, Mtime: now}

	require.NoError(t, users.Create(context.Background(), first))
	require.ErrorIs(t, users.Create(context.Background(), second), appErr.ErrConflict)
}

func TestUserRepoUpdateStatus(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	now := timeutil.NowUnix()
	user := &model.User{ID: "user-1", Email: "a@example.com", Name: "A", PasswordHash: "h", Status: "old", Ctime: now, Mtime: now}
	require.NoError(t, users.Create(context.Background(), user))

	require.NoError(t, users.UpdateStatus(context.Background(), "user-1", "shipping", timeutil.NowUnix()))
	fetched, err := users.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "shipping", fetched.Status)

	require.ErrorIs(t, users.UpdateStatus(context.Background(), "missing", "x", now), appErr.ErrNotFound)
}
