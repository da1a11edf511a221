// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/inkfeed/inkfeed/internal/model"
)

// PNG is the smallest byte sequence http.DetectContentType reports as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with a fake name and a unique email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	now := time.Now().UTC()
	id := ulid.Make().String()
	return &model.User{
		ID:           id,
		Email:        fmt.Sprintf("%s.%s@example.com", gofakeit.Username(), id),
		Name:         gofakeit.Name(),
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuv",
		Status:       model.DefaultStatus,
		PostIDs:      []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestPost creates a post by creator with fake title and content.
func NewTestPost(t testing.TB, creator *model.User) *model.Post {
	t.Helper()
	now := time.Now().UTC()
	return &model.Post{
		ID:        ulid.Make().String(),
		Title:     PostTitle(),
		Content:   PostContent(),
		ImageURL:  "images/" + ulid.Make().String() + "-cover.png",
		Creator:   model.Creator{ID: creator.ID, Name: creator.Name},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PostTitle returns a fake title long enough to pass validation.
func PostTitle() string {
	return gofakeit.Sentence(3 + gofakeit.Number(0, 5))
}

// PostContent returns fake paragraphs long enough to pass validation.
func PostContent() string {
	return gofakeit.Paragraph(1, 3, 12, " ")
}

// Email returns a unique fake email address.
func Email() string {
	return fmt.Sprintf("%s.%s@example.com", gofakeit.Username(), ulid.Make().String())
}
