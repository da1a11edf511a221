package model

import "time"

// Creator is the public projection of a post's author.
type Creator struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Post is a feed entry with exactly one image attachment.
// Creator.ID is fixed at creation and never changes.
type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsOwnedBy reports whether userID created the post.
func (p *Post) IsOwnedBy(userID string) bool {
	return userID != "" && p.Creator.ID == userID
}

// PostPage is one page of the feed plus the unfiltered total.
type PostPage struct {
	Posts      []*Post
	TotalItems int64
}
