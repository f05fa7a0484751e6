package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"snapfeed/internal/model"
	"snapfeed/internal/pkg/timeutil"
	"snapfeed/internal/repo"
	"snapfeed/test/testutil"
)

func TestUploadRepoOrphanListing(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	seedUser(t, db, "user-1")
	posts := repo.NewPostRepo(db)
	uploads := repo.NewUploadRepo(db)
	now := timeutil.NowUnix()

	// attached.png is referenced by a post, orphan.png is not.
	require.NoError(t, uploads.Create(context.Background(), &model.Upload{
		ID: "up-1", UserID: "user-1", FileKey: "attached.png", Ctime: now - 7200,
	}))
	require.NoError(t, uploads.Create(context.Background(), &model.Upload{
		ID: "up-2", UserID: "user-1", FileKey: "orphan.png", Ctime: now - 7200,
	}))
	require.NoError(t, uploads.Create(context.Background(), &model.Upload{
		ID: "up-3", UserID: "user-1", FileKey: "fresh.png", Ctime: now,
	}))
	require.NoError(t, posts.Create(context.Background(), &model.Post{
		ID: "post-1", Title: "t", Content: "c", ImageKey: "attached.png", CreatorID: "user-1", Ctime: now, Mtime: now,
	}))

	orphans, err := uploads.ListOrphansBefore(context.Background(), now-3600)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	require.Equal(t, "orphan.png", orphans[0].FileKey)

	require.NoError(t, uploads.DeleteByFileKey(context.Background(), "orphan.png"))
	orphans, err = uploads.ListOrphansBefore(context.Background(), now-3600)
	require.NoError(t, err)
	require.Empty(t, orphans)
}
