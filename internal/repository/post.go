package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inkfeed/inkfeed/internal/model"
)

const postColumns = `
	p.id, p.title, p.content, p.image_url, p.creator_id, u.name, p.created_at, p.updated_at`

// CountPosts returns the total number of posts.
func (r *Repository) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListPosts returns up to limit posts after skipping offset, oldest first.
func (r *Repository) ListPosts(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.creator_id
		ORDER BY p.created_at ASC, p.id ASC
		OFFSET $1 LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// GetPostByID retrieves a post with its creator's name.
func (r *Repository) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.creator_id
		WHERE p.id = $1
	`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}

	return post, nil
}

// CreatePost inserts the post and adds it to its creator's owned-post set atomically.
func (r *Repository) CreatePost(ctx context.Context, post *model.Post) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO posts (id, title, content, image_url, creator_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			post.ID,
			post.Title,
			post.Content,
			post.ImageURL,
			post.Creator.ID,
			post.CreatedAt,
			post.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create post: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_posts (user_id, post_id, added_at)
			VALUES ($1, $2, $3)
		`, post.Creator.ID, post.ID, post.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to add post to owner: %w", err)
		}

		return nil
	})
}

// UpdatePost replaces the mutable fields of a post. The creator never changes.
func (r *Repository) UpdatePost(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, image_url = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.ImageURL,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	return nil
}

// DeletePost removes the post and its owned-post entry atomically.
func (r *Repository) DeletePost(ctx context.Context, postID, creatorID string) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM user_posts WHERE user_id = $1 AND post_id = $2`,
			creatorID, postID,
		); err != nil {
			return fmt.Errorf("failed to remove post from owner: %w", err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID)
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrPostNotFound
		}

		return nil
	})
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var post model.Post
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.ImageURL,
		&post.Creator.ID,
		&post.Creator.Name,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
