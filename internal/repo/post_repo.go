package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"snapfeed/internal/model"
	"snapfeed/internal/pkg/dbutil"
	appErr "snapfeed/internal/pkg/errors"
)

var postFields = []string{"id", "title", "content", "image_key", "creator_id", "ctime", "mtime"}

type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

func (r *PostRepo) Create(ctx context.Context, post *model.Post) error {
	data := map[string]interface{}{
		"id":         post.ID,
		"title":      post.Title,
		"content":    post.Content,
		"image_key":  post.ImageKey,
		"creator_id": post.CreatorID,
		"ctime":      post.Ctime,
		"mtime":      post.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("posts", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	where := map[string]interface{}{"id": postID}
	sqlStr, args, err := builder.BuildSelect("posts", where, postFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var post model.Post
	if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.ImageKey, &post.CreatorID, &post.Ctime, &post.Mtime); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns a page of posts in creation order, newest first. The id
// tiebreak keeps pages disjoint when posts share a ctime.
func (r *PostRepo) List(ctx context.Context, limit, offset uint) ([]model.Post, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc, id desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("posts", where, postFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.scanPosts(ctx, sqlStr, args)
}

func (r *PostRepo) ListByCreator(ctx context.Context, creatorID string) ([]model.Post, error) {
	where := map[string]interface{}{
		"creator_id": creatorID,
		"_orderby":   "ctime desc, id desc",
	}
	sqlStr, args, err := builder.BuildSelect("posts", where, postFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.scanPosts(ctx, sqlStr, args)
}

func (r *PostRepo) scanPosts(ctx context.Context, sqlStr string, args []interface{}) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	posts := make([]model.Post, 0)
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.ImageKey, &post.CreatorID, &post.Ctime, &post.Mtime); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *PostRepo) Count(ctx context.Context) (int64, error) {
	sqlStr, args, err := builder.BuildSelect("posts", nil, []string{"count(1)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var total int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostRepo) Update(ctx context.Context, post *model.Post) error {
	where := map[string]interface{}{"id": post.ID}
	update := map[string]interface{}{
		"title":     post.Title,
		"content":   post.Content,
		"image_key": post.ImageKey,
		"mtime":     post.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("posts", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	where := map[string]interface{}{"id": postID}
	sqlStr, args, err := builder.BuildDelete("posts", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// CountByImageKey reports how many posts still reference a stored image.
func (r *PostRepo) CountByImageKey(ctx context.Context, imageKey string) (int64, error) {
	where := map[string]interface{}{"image_key": imageKey}
	sqlStr, args, err := builder.BuildSelect("posts", where, []string{"count(1)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var total int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
