// Package memstore is an in-process store used for local development and tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/inkfeed/inkfeed/internal/model"
	"github.com/inkfeed/inkfeed/internal/repository"
)

// Store keeps users and posts in maps guarded by a single mutex.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
	posts   map[string]*model.Post
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		posts:   make(map[string]*model.Post),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() {}

// CreateUser stores a copy of user. Emails are unique.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return repository.ErrEmailExists
	}

	stored := cloneUser(user)
	if stored.PostIDs == nil {
		stored.PostIDs = []string{}
	}
	s.users[user.ID] = stored
	s.byEmail[user.Email] = user.ID
	return nil
}

// GetUserByID returns a copy of the user.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// GetUserByEmail returns a copy of the user registered with email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(s.users[id]), nil
}

// UpdateUserStatus replaces the user's status text.
func (s *Store) UpdateUserStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Status = status
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// CountPosts returns the number of stored posts.
func (s *Store) CountPosts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

// ListPosts returns posts ordered by creation time then ID.
func (s *Store) ListPosts(_ context.Context, offset, limit int) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*model.Post, 0, len(s.posts))
	for _, post := range s.posts {
		all = append(all, post)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) || limit <= 0 {
		return []*model.Post{}, nil
	}
	end := min(offset+limit, len(all))

	page := make([]*model.Post, 0, end-offset)
	for _, post := range all[offset:end] {
		page = append(page, s.withCreatorName(post))
	}
	return page, nil
}

// GetPostByID returns a copy of the post.
func (s *Store) GetPostByID(_ context.Context, id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	return s.withCreatorName(post), nil
}

// CreatePost stores the post and appends it to the creator's owned-post set.
func (s *Store) CreatePost(_ context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.users[post.Creator.ID]
	if !ok {
		return repository.ErrUserNotFound
	}

	stored := *post
	s.posts[post.ID] = &stored
	owner.PostIDs = append(owner.PostIDs, post.ID)
	return nil
}

// UpdatePost replaces title, content, image and updated time.
func (s *Store) UpdatePost(_ context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[post.ID]
	if !ok {
		return repository.ErrPostNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.ImageURL = post.ImageURL
	stored.UpdatedAt = post.UpdatedAt
	return nil
}

// DeletePost removes the post and its entry in the creator's owned-post set.
func (s *Store) DeletePost(_ context.Context, postID, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return repository.ErrPostNotFound
	}
	delete(s.posts, postID)

	if owner, ok := s.users[creatorID]; ok {
		owner.PostIDs = slices.DeleteFunc(owner.PostIDs, func(id string) bool { return id == postID })
	}
	return nil
}

// withCreatorName copies post and fills the creator name. Caller holds the lock.
func (s *Store) withCreatorName(post *model.Post) *model.Post {
	out := *post
	if owner, ok := s.users[post.Creator.ID]; ok {
		out.Creator.Name = owner.Name
	}
	return &out
}

func cloneUser(user *model.User) *model.User {
	out := *user
	out.PostIDs = slices.Clone(user.PostIDs)
	return &out
}
