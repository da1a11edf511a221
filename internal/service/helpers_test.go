package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkfeed/inkfeed/internal/attachment"
	"github.com/inkfeed/inkfeed/internal/auth"
	"github.com/inkfeed/inkfeed/internal/events"
	"github.com/inkfeed/inkfeed/internal/metrics"
	"github.com/inkfeed/inkfeed/internal/repository/memstore"
	"github.com/inkfeed/inkfeed/internal/testutil"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

// fakeFiles keeps saved refs in memory.
type fakeFiles struct {
	mu    sync.Mutex
	n     int
	saved []string
	err   error
}

func (f *fakeFiles) Save(_ context.Context, upload attachment.Upload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, upload.Body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	ref := fmt.Sprintf("images/%d-%s", f.n, upload.Filename)
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *fakeFiles) Remove(context.Context, string) error {
	return errors.New("fakeFiles: remove goes through the cleaner")
}

// recordingCleaner remembers every ref handed to DeleteFile.
type recordingCleaner struct {
	mu   sync.Mutex
	refs []string
}

func (c *recordingCleaner) DeleteFile(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs = append(c.refs, ref)
}

func (c *recordingCleaner) Deleted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.refs...)
}

// recordingPublisher remembers published events and can fail on demand.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memstore.Store
	tokens    *auth.TokenManager
	files     *fakeFiles
	cleaner   *recordingCleaner
	publisher *recordingPublisher
	recorder  *metrics.InMemoryRecorder
	auth      *AuthService
	feed      *FeedService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memstore.New(),
		tokens:    auth.NewTokenManager(testSecret, auth.DefaultTokenTTL),
		files:     &fakeFiles{},
		cleaner:   &recordingCleaner{},
		publisher: &recordingPublisher{},
		recorder:  metrics.NewInMemory(),
	}
	logger := testutil.DiscardLogger()
	f.auth = NewAuthService(f.store, f.tokens, logger, f.recorder)
	f.feed = NewFeedService(f.store, f.store, f.files, f.cleaner, f.publisher, logger, f.recorder)
	return f
}

func (f *fixture) signup(t *testing.T, name string) string {
	t.Helper()
	id, err := f.auth.Signup(context.Background(), SignupInput{
		Email:    testutil.Email(),
		Name:     name,
		Password: "secret12",
	})
	require.NoError(t, err)
	return id
}

func pngUpload(name string) *attachment.Upload {
	return &attachment.Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(testutil.PNG)),
		Body:        bytes.NewReader(testutil.PNG),
	}
}

func validInput() PostInput {
	return PostInput{Title: testutil.PostTitle(), Content: testutil.PostContent()}
}

func requireValidation(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}
