package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"snapfeed/internal/service"
)

// UploadCleanupJob releases images that were uploaded but never ended up
// attached to a post, e.g. when a create request failed after the upload.
type UploadCleanupJob struct {
	uploads *service.UploadService
	ttl     time.Duration
}

func NewUploadCleanupJob(uploads *service.UploadService, ttl time.Duration) *UploadCleanupJob {
	return &UploadCleanupJob{uploads: uploads, ttl: ttl}
}

func (j *UploadCleanupJob) Name() string {
	return "upload_cleanup"
}

func (j *UploadCleanupJob) Run(ctx context.Context) error {
	released, err := j.uploads.ReleaseOrphans(ctx, j.ttl)
	if err != nil {
		return err
	}
	if released > 0 {
		logutil.GetLogger(ctx).Info("released orphan uploads", zap.Int("count", released))
	}
	return nil
}
