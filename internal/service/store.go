package service

import (
	"context"

	"github.com/inkfeed/inkfeed/internal/model"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserStatus(ctx context.Context, id, status string) error
}

// PostStore persists posts and keeps each owner's post set in step.
type PostStore interface {
	CountPosts(ctx context.Context) (int64, error)
	ListPosts(ctx context.Context, offset, limit int) ([]*model.Post, error)
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	CreatePost(ctx context.Context, post *model.Post) error
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, postID, creatorID string) error
}
