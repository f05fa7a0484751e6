package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"snapfeed/internal/filestore"
	"snapfeed/internal/model"
	"snapfeed/internal/notify"
	appErr "snapfeed/internal/pkg/errors"
	"snapfeed/internal/pkg/timeutil"
	"snapfeed/internal/repo"
)

type PostService struct {
	posts    *repo.PostRepo
	users    *repo.UserRepo
	uploads  *repo.UploadRepo
	store    filestore.Store
	notifier notify.Publisher
	pageSize int
}

// PostView is a post joined with its creator summary, the shape the feed
// and change events expose.
type PostView struct {
	model.Post
	Creator model.CreatorSummary `json:"creator"`
}

// NewPostService panics on a nil notifier: publishing before the change
// notifier exists is a wiring bug, not a runtime condition to tolerate.
func NewPostService(posts *repo.PostRepo, users *repo.UserRepo, uploads *repo.UploadRepo, store filestore.Store, notifier notify.Publisher, pageSize int) *PostService {
	if notifier == nil {
		panic("post service: change notifier not initialised")
	}
	if pageSize <= 0 {
		pageSize = 2
	}
	return &PostService{
		posts:    posts,
		users:    users,
		uploads:  uploads,
		store:    store,
		notifier: notifier,
		pageSize: pageSize,
	}
}

func (s *PostService) PageSize() int {
	return s.pageSize
}

func (s *PostService) Create(ctx context.Context, creatorID, title, content, imageKey string) (*PostView, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrUnauthorized
		}
		return nil, err
	}
	now := timeutil.NowUnix()
	post := &model.Post{
		ID:        newID(),
		Title:     title,
		Content:   content,
		ImageKey:  imageKey,
		CreatorID: creatorID,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	view := &PostView{Post: *post, Creator: model.CreatorSummary{ID: creator.ID, Name: creator.Name}}
	// Published only after the insert committed, so a listener can always
	// read what it was notified about.
	s.notifier.Publish(notify.Event{Action: notify.ActionCreate, Post: view})
	return view, nil
}

// List returns one page of the feed, newest first, plus the total count.
// Pages are 1-indexed.
func (s *PostService) List(ctx context.Context, page int) ([]PostView, int64, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	offset := uint(page-1) * uint(s.pageSize)
	posts, err := s.posts.List(ctx, uint(s.pageSize), offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.withCreators(ctx, posts)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *PostService) Get(ctx context.Context, postID string) (*PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	views, err := s.withCreators(ctx, []model.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PostService) ListByCreator(ctx context.Context, creatorID string) ([]PostView, error) {
	posts, err := s.posts.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return s.withCreators(ctx, posts)
}

// Update enforces the existence check before the ownership check: a missing
// post is 404 even for a stranger, an existing foreign post is 403.
func (s *PostService) Update(ctx context.Context, userID, postID, title, content, imageKey string) (*PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != userID {
		return nil, appErr.ErrForbidden
	}
	oldKey := post.ImageKey
	post.Title = title
	post.Content = content
	post.ImageKey = imageKey
	post.Mtime = timeutil.NowUnix()
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	if imageKey != oldKey {
		s.releaseImage(ctx, oldKey)
	}
	views, err := s.withCreators(ctx, []model.Post{*post})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(notify.Event{Action: notify.ActionUpdate, Post: &views[0]})
	return &views[0], nil
}

func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.CreatorID != userID {
		return appErr.ErrForbidden
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	s.releaseImage(ctx, post.ImageKey)
	s.notifier.Publish(notify.Event{Action: notify.ActionDelete, Post: postID})
	return nil
}

// releaseImage drops the stored object and its ledger row. Failures are
// logged and swallowed; cleanup must never fail the triggering request.
func (s *PostService) releaseImage(ctx context.Context, imageKey string) {
	if imageKey == "" {
		return
	}
	if err := s.store.Delete(ctx, imageKey); err != nil {
		logutil.GetLogger(ctx).Warn("failed to release image", zap.String("key", imageKey), zap.Error(err))
	}
	if err := s.uploads.DeleteByFileKey(ctx, imageKey); err != nil {
		logutil.GetLogger(ctx).Warn("failed to drop upload record", zap.String("key", imageKey), zap.Error(err))
	}
}

func (s *PostService) withCreators(ctx context.Context, posts []model.Post) ([]PostView, error) {
	creators := make(map[string]model.CreatorSummary, len(posts))
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		summary, ok := creators[post.CreatorID]
		if !ok {
			user, err := s.users.GetByID(ctx, post.CreatorID)
			if err != nil {
				if !appErr.IsNotFound(err) {
					return nil, err
				}
				summary = model.CreatorSummary{ID: post.CreatorID}
			} else {
				summary = model.CreatorSummary{ID: user.ID, Name: user.Name}
			}
			creators[post.CreatorID] = summary
		}
		views = append(views, PostView{Post: post, Creator: summary})
	}
	return views, nil
}
