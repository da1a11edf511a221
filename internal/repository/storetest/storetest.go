// Package storetest holds the behaviour every user and post store must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfeed/inkfeed/internal/model"
	"github.com/inkfeed/inkfeed/internal/repository"
)

// Store is the combined surface exercised by the suite.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserStatus(ctx context.Context, id, status string) error
	CountPosts(ctx context.Context) (int64, error)
	ListPosts(ctx context.Context, offset, limit int) ([]*model.Post, error)
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	CreatePost(ctx context.Context, post *model.Post) error
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, postID, creatorID string) error
}

// Run executes the suite. newStore must return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("posts", func(t *testing.T) { testPosts(t, newStore(t)) })
	t.Run("pagination", func(t *testing.T) { testPagination(t, newStore(t)) })
}

// NewUser builds a user with a unique ID and email.
func NewUser(name string) *model.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	id := ulid.Make().String()
	return &model.User{
		ID:           id,
		Email:        fmt.Sprintf("%s-%s@example.com", name, id),
		Name:         name,
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuv",
		Status:       model.DefaultStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewPost builds a post owned by creatorID created at the given time.
func NewPost(creatorID string, createdAt time.Time) *model.Post {
	createdAt = createdAt.UTC().Truncate(time.Millisecond)
	return &model.Post{
		ID:        ulid.Make().String(),
		Title:     "A title",
		Content:   "Some content",
		ImageURL:  "images/cat.png",
		Creator:   model.Creator{ID: creatorID},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()
	user := NewUser("ann")

	require.NoError(t, s.CreateUser(ctx, user))
	require.ErrorIs(t, s.CreateUser(ctx, &model.User{
		ID: ulid.Make().String(), Email: user.Email, Name: "dup", PasswordHash: "x", Status: model.DefaultStatus,
		CreatedAt: user.CreatedAt, UpdatedAt: user.UpdatedAt,
	}), repository.ErrEmailExists)

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
	assert.Equal(t, user.Name, byID.Name)
	assert.Equal(t, user.PasswordHash, byID.PasswordHash)
	assert.Equal(t, model.DefaultStatus, byID.Status)
	assert.Empty(t, byID.PostIDs)

	byEmail, err := s.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	require.NoError(t, s.UpdateUserStatus(ctx, user.ID, "writing"))
	updated, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "writing", updated.Status)

	_, err = s.GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = s.GetUserByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
	require.ErrorIs(t, s.UpdateUserStatus(ctx, "missing", "x"), repository.ErrUserNotFound)
}

func testPosts(t *testing.T, s Store) {
	ctx := context.Background()
	user := NewUser("bob")
	require.NoError(t, s.CreateUser(ctx, user))

	post := NewPost(user.ID, time.Now())
	require.NoError(t, s.CreatePost(ctx, post))

	got, err := s.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.ImageURL, got.ImageURL)
	assert.Equal(t, user.ID, got.Creator.ID)
	assert.Equal(t, user.Name, got.Creator.Name)

	owner, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, owner.PostIDs)

	post.Title = "New title"
	post.ImageURL = "images/dog.png"
	post.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.UpdatePost(ctx, post))

	got, err = s.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, "images/dog.png", got.ImageURL)
	assert.Equal(t, user.ID, got.Creator.ID)

	require.NoError(t, s.DeletePost(ctx, post.ID, user.ID))
	_, err = s.GetPostByID(ctx, post.ID)
	require.ErrorIs(t, err, repository.ErrPostNotFound)

	owner, err = s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotContains(t, owner.PostIDs, post.ID)

	require.ErrorIs(t, s.DeletePost(ctx, post.ID, user.ID), repository.ErrPostNotFound)
	require.ErrorIs(t, s.UpdatePost(ctx, post), repository.ErrPostNotFound)

	orphan := NewPost("ghost", time.Now())
	require.ErrorIs(t, s.CreatePost(ctx, orphan), repository.ErrUserNotFound)
	_, err = s.GetPostByID(ctx, orphan.ID)
	require.ErrorIs(t, err, repository.ErrPostNotFound)
}

func testPagination(t *testing.T, s Store) {
	ctx := context.Background()
	user := NewUser("cy")
	require.NoError(t, s.CreateUser(ctx, user))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 5)
	for i := range ids {
		post := NewPost(user.ID, base.Add(time.Duration(i)*time.Minute))
		ids[i] = post.ID
		require.NoError(t, s.CreatePost(ctx, post))
	}

	total, err := s.CountPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	first, err := s.ListPosts(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, ids[0], first[0].ID)
	assert.Equal(t, ids[1], first[1].ID)
	assert.Equal(t, user.Name, first[0].Creator.Name)

	last, err := s.ListPosts(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, ids[4], last[0].ID)

	beyond, err := s.ListPosts(ctx, 6, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}
