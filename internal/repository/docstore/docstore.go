// Package docstore implements the user and post stores on MongoDB.
//
// Users embed their owned-post set as an array of post IDs. Multi-document
// writes are paired with compensating writes that undo the first step when the
// second fails.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inkfeed/inkfeed/internal/model"
	"github.com/inkfeed/inkfeed/internal/repository"
)

const (
	usersCollection = "users"
	postsCollection = "posts"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	PasswordHash string    `bson:"password"`
	Status       string    `bson:"status"`
	Posts        []string  `bson:"posts"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

type postDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	ImageURL  string    `bson:"imageUrl"`
	Creator   string    `bson:"creator"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store provides MongoDB access methods.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	posts  *mongo.Collection
	logger *slog.Logger
}

// New connects to MongoDB, verifies the connection and ensures indexes.
func New(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		users:  db.Collection(usersCollection),
		posts:  db.Collection(postsCollection),
		logger: logger.With("component", "docstore"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create posts order index: %w", err)
	}

	return nil
}

// Ping checks MongoDB connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Warn("failed to disconnect from mongo", "error", err)
	}
}

// CreateUser inserts a new user document.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	doc := userDoc{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Status:       user.Status,
		Posts:        []string{},
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}

// UpdateUserStatus replaces the user's status text.
func (s *Store) UpdateUserStatus(ctx context.Context, id, status string) error {
	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// CountPosts returns the total number of posts.
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	count, err := s.posts.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListPosts returns up to limit posts after skipping offset, oldest first.
func (s *Store) ListPosts(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	var docs []postDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	names, err := s.creatorNames(ctx, docs)
	if err != nil {
		return nil, err
	}

	posts := make([]*model.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toModel(names[doc.Creator]))
	}
	return posts, nil
}

func (s *Store) creatorNames(ctx context.Context, docs []postDoc) (map[string]string, error) {
	names := make(map[string]string, len(docs))
	if len(docs) == 0 {
		return names, nil
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.Creator)
	}

	cursor, err := s.users.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load creators: %w", err)
	}

	var creators []userDoc
	if err := cursor.All(ctx, &creators); err != nil {
		return nil, fmt.Errorf("failed to decode creators: %w", err)
	}
	for _, c := range creators {
		names[c.ID] = c.Name
	}
	return names, nil
}

// GetPostByID retrieves a post with its creator's name.
func (s *Store) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	var doc postDoc
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	names, err := s.creatorNames(ctx, []postDoc{doc})
	if err != nil {
		return nil, err
	}
	return doc.toModel(names[doc.Creator]), nil
}

// CreatePost inserts the post, then pushes it onto the creator's owned-post set.
// The insert is rolled back when the creator update fails.
func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	doc := postDoc{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		Creator:   post.Creator.ID,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}

	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": post.Creator.ID},
		bson.M{"$push": bson.M{"posts": post.ID}},
	)
	if err == nil && result.MatchedCount == 0 {
		err = repository.ErrUserNotFound
	}
	if err != nil {
		s.compensate(ctx, "remove orphan post", post.ID, func(ctx context.Context) error {
			_, err := s.posts.DeleteOne(ctx, bson.M{"_id": post.ID})
			return err
		})
		if errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to add post to owner: %w", err)
	}

	return nil
}

// UpdatePost replaces the mutable fields of a post.
func (s *Store) UpdatePost(ctx context.Context, post *model.Post) error {
	result, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": post.ID},
		bson.M{"$set": bson.M{
			"title":     post.Title,
			"content":   post.Content,
			"imageUrl":  post.ImageURL,
			"updatedAt": post.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrPostNotFound
	}
	return nil
}

// DeletePost pulls the post from the creator's owned-post set, then deletes it.
// The pull is restored when the delete fails.
func (s *Store) DeletePost(ctx context.Context, postID, creatorID string) error {
	if _, err := s.users.UpdateOne(ctx,
		bson.M{"_id": creatorID},
		bson.M{"$pull": bson.M{"posts": postID}},
	); err != nil {
		return fmt.Errorf("failed to remove post from owner: %w", err)
	}

	result, err := s.posts.DeleteOne(ctx, bson.M{"_id": postID})
	if err != nil {
		s.compensate(ctx, "restore owned post", postID, func(ctx context.Context) error {
			_, err := s.users.UpdateOne(ctx,
				bson.M{"_id": creatorID},
				bson.M{"$addToSet": bson.M{"posts": postID}},
			)
			return err
		})
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrPostNotFound
	}
	return nil
}

// compensate runs an undo step detached from the request's cancellation.
func (s *Store) compensate(ctx context.Context, action, postID string, undo func(context.Context) error) {
	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := undo(undoCtx); err != nil {
		s.logger.Error("compensating write failed",
			"action", action,
			"post_id", postID,
			"error", err,
		)
	}
}

func (d userDoc) toModel() *model.User {
	posts := d.Posts
	if posts == nil {
		posts = []string{}
	}
	return &model.User{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		Status:       d.Status,
		PostIDs:      posts,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (d postDoc) toModel(creatorName string) *model.Post {
	return &model.Post{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		Creator:   model.Creator{ID: d.Creator, Name: creatorName},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
