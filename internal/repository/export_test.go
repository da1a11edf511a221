package repository

import "context"

// TruncateAll empties every table. Test-only.
func TruncateAll(ctx context.Context, r *Repository) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE user_posts, posts, users`)
	return err
}
