package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"snapfeed/internal/filestore"
	"snapfeed/internal/model"
	"snapfeed/internal/pkg/timeutil"
	"snapfeed/internal/repo"
)

type UploadService struct {
	uploads *repo.UploadRepo
	store   filestore.Store
}

func NewUploadService(uploads *repo.UploadRepo, store filestore.Store) *UploadService {
	return &UploadService{uploads: uploads, store: store}
}

func (s *UploadService) Record(ctx context.Context, userID, fileKey string) error {
	if userID == "" || fileKey == "" {
		return nil
	}
	return s.uploads.Create(ctx, &model.Upload{
		ID:      newID(),
		UserID:  userID,
		FileKey: fileKey,
		Ctime:   timeutil.NowUnix(),
	})
}

// ReleaseOrphans removes uploads older than ttl that no post references.
// Object deletion is best-effort; the ledger row goes away regardless so a
// wedged object is retried at most once.
func (s *UploadService) ReleaseOrphans(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := timeutil.NowUnix() - int64(ttl/time.Second)
	orphans, err := s.uploads.ListOrphansBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, orphan := range orphans {
		if err := s.store.Delete(ctx, orphan.FileKey); err != nil {
			logutil.GetLogger(ctx).Warn("failed to delete orphan upload",
				zap.String("key", orphan.FileKey), zap.Error(err))
		}
		if err := s.uploads.DeleteByFileKey(ctx, orphan.FileKey); err != nil {
			logutil.GetLogger(ctx).Warn("failed to drop orphan upload record",
				zap.String("key", orphan.FileKey), zap.Error(err))
			continue
		}
		released++
	}
	return released, nil
}
