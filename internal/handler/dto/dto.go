// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/inkfeed/inkfeed/internal/model"
	"github.com/inkfeed/inkfeed/internal/service"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message    string               `json:"message"`
	Errors     []service.FieldError `json:"errors,omitempty"`
	StatusCode int                  `json:"statusCode"`
}

// MessageResponse carries a bare confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SignupResponse is returned after an account is created.
type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Status string `json:"status"`
}

// UpdateStatusRequest is the body of PATCH /status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CreatorResponse identifies the author of a post.
type CreatorResponse struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// PostResponse represents a post in API responses.
type PostResponse struct {
	ID        string          `json:"_id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	ImageURL  string          `json:"imageUrl"`
	Creator   CreatorResponse `json:"creator"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PostListResponse is one page of the feed.
type PostListResponse struct {
	Message    string         `json:"message"`
	Posts      []PostResponse `json:"posts"`
	TotalItems int64          `json:"totalItems"`
}

// PostEnvelope wraps a single post with a message.
type PostEnvelope struct {
	Message string       `json:"message"`
	Post    PostResponse `json:"post"`
}

// CreatePostResponse is returned after a post is created.
type CreatePostResponse struct {
	Message string          `json:"message"`
	Post    PostResponse    `json:"post"`
	Creator CreatorResponse `json:"creator"`
}

// PostJSONRequest is the JSON form of a post edit. Image names the
// currently attached image.
type PostJSONRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

// ToCreatorResponse converts a model.Creator.
func ToCreatorResponse(c model.Creator) CreatorResponse {
	return CreatorResponse{ID: c.ID, Name: c.Name}
}

// ToPostResponse converts a model.Post to PostResponse.
func ToPostResponse(p *model.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Creator:   ToCreatorResponse(p.Creator),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToPostListResponse converts a page of posts.
func ToPostListResponse(message string, page *model.PostPage) PostListResponse {
	posts := make([]PostResponse, 0, len(page.Posts))
	for _, p := range page.Posts {
		posts = append(posts, ToPostResponse(p))
	}
	return PostListResponse{
		Message:    message,
		Posts:      posts,
		TotalItems: page.TotalItems,
	}
}
