package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/inkfeed/inkfeed/internal/attachment"
	"github.com/inkfeed/inkfeed/internal/events"
	"github.com/inkfeed/inkfeed/internal/metrics"
	"github.com/inkfeed/inkfeed/internal/model"
	"github.com/inkfeed/inkfeed/internal/repository"
)

// PageSize is the number of posts per feed page.
const PageSize = 2

// FeedService handles post business logic.
type FeedService struct {
	posts     PostStore
	users     UserStore
	files     attachment.Store
	cleaner   attachment.Cleaner
	publisher events.Publisher
	logger    *slog.Logger
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewFeedService creates a new FeedService.
func NewFeedService(
	posts PostStore,
	users UserStore,
	files attachment.Store,
	cleaner attachment.Cleaner,
	publisher events.Publisher,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *FeedService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &FeedService{
		posts:     posts,
		users:     users,
		files:     files,
		cleaner:   cleaner,
		publisher: publisher,
		logger:    logger.With("component", "feed.service"),
		metrics:   recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PostInput carries the editable text of a post.
type PostInput struct {
	Title   string
	Content string
}

func (in PostInput) fields() postFields {
	return postFields{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
	}
}

// ListPosts returns one page of the feed. Pages below 1 are treated as 1.
func (s *FeedService) ListPosts(ctx context.Context, page int) (*model.PostPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.posts.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	posts, err := s.posts.ListPosts(ctx, (page-1)*PageSize, PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &model.PostPage{Posts: posts, TotalItems: total}, nil
}

// GetPost retrieves a post by ID.
func (s *FeedService) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// CreatePost stores the image and a new post owned by requesterID.
// A nil image is a validation failure.
func (s *FeedService) CreatePost(ctx context.Context, requesterID string, input PostInput, image *attachment.Upload) (*model.Post, error) {
	fields := input.fields()
	if err := check(fields); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, &ValidationError{Message: MsgNoImageAdded, Err: ErrImageMissing}
	}

	creator, err := s.users.GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}

	ref, err := s.files.Save(ctx, *image)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	now := s.now()
	post := &model.Post{
		ID:        ulid.Make().String(),
		Title:     fields.Title,
		Content:   fields.Content,
		ImageURL:  ref,
		Creator:   model.Creator{ID: creator.ID, Name: creator.Name},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.cleaner.DeleteFile(ref)
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.metrics.IncPostCreated()
	s.publish(ctx, events.TypePostCreated, post)

	return post, nil
}

// UpdateInput describes a post edit. Image takes precedence over KeepImage,
// which must name the image the post already has.
type UpdateInput struct {
	PostInput
	Image     *attachment.Upload
	KeepImage string
}

// UpdatePost edits a post owned by requesterID. Existence and ownership are
// checked before the input. A replaced image is handed to the cleaner once
// the new version is stored.
func (s *FeedService) UpdatePost(ctx context.Context, requesterID, postID string, input UpdateInput) (*model.Post, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(requesterID) {
		return nil, ErrNotCreator
	}

	fields := input.fields()
	if err := check(fields); err != nil {
		return nil, err
	}
	if input.Image == nil && strings.TrimSpace(input.KeepImage) == "" {
		return nil, &ValidationError{Message: MsgNoImageProvided, Err: ErrImageMissing}
	}

	oldRef := post.ImageURL
	newRef := oldRef
	if input.Image != nil {
		newRef, err = s.files.Save(ctx, *input.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
	} else if strings.TrimSpace(input.KeepImage) != oldRef {
		verr := newValidationError(FieldError{
			Field:    "image",
			Value:    input.KeepImage,
			Message:  "Image does not belong to this post.",
			Location: "body",
		})
		verr.Err = ErrImageMissing
		return nil, verr
	}

	updated := *post
	updated.Title = fields.Title
	updated.Content = fields.Content
	updated.ImageURL = newRef
	updated.UpdatedAt = s.now()

	if err := s.posts.UpdatePost(ctx, &updated); err != nil {
		if newRef != oldRef {
			s.cleaner.DeleteFile(newRef)
		}
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	if newRef != oldRef {
		s.cleaner.DeleteFile(oldRef)
	}

	s.metrics.IncPostUpdated()
	s.publish(ctx, events.TypePostUpdated, &updated)

	return &updated, nil
}

// DeletePost removes a post owned by requesterID along with its image.
func (s *FeedService) DeletePost(ctx context.Context, requesterID, postID string) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsOwnedBy(requesterID) {
		return ErrNotCreator
	}

	if err := s.posts.DeletePost(ctx, post.ID, post.Creator.ID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.cleaner.DeleteFile(post.ImageURL)

	s.metrics.IncPostDeleted()
	s.publish(ctx, events.TypePostDeleted, post)

	return nil
}

func (s *FeedService) publish(ctx context.Context, typ events.Type, post *model.Post) {
	event := events.Event{
		Type:       typ,
		PostID:     post.ID,
		CreatorID:  post.Creator.ID,
		Title:      post.Title,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish post event",
			"type", string(typ),
			"post_id", post.ID,
			"error", err,
		)
	}
}
