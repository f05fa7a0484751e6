package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"snapfeed/internal/model"
	"snapfeed/internal/pkg/dbutil"
)

type UploadRepo struct {
	db *sql.DB
}

func NewUploadRepo(db *sql.DB) *UploadRepo {
	return &UploadRepo{db: db}
}

func (r *UploadRepo) Create(ctx context.Context, upload *model.Upload) error {
	data := map[string]interface{}{
		"id":       upload.ID,
		"user_id":  upload.UserID,
		"file_key": upload.FileKey,
		"ctime":    upload.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("uploads", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil && dbutil.IsConflict(err) {
		// A re-recorded key is not an error.
		return nil
	}
	return err
}

func (r *UploadRepo) DeleteByFileKey(ctx context.Context, fileKey string) error {
	where := map[string]interface{}{"file_key": fileKey}
	sqlStr, args, err := builder.BuildDelete("uploads", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListOrphansBefore returns uploads recorded before the cutoff whose key no
// post references anymore.
func (r *UploadRepo) ListOrphansBefore(ctx context.Context, cutoff int64) ([]model.Upload, error) {
	sqlStr := `SELECT u.id, u.user_id, u.file_key, u.ctime FROM uploads u
		LEFT JOIN posts p ON p.image_key = u.file_key
		WHERE u.ctime < ? AND p.id IS NULL`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{cutoff})
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	uploads := make([]model.Upload, 0)
	for rows.Next() {
		var upload model.Upload
		if err := rows.Scan(&upload.ID, &upload.UserID, &upload.FileKey, &upload.Ctime); err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, rows.Err()
}
