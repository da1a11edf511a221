package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/stretchr/testify/require"

	"github.com/inkfeed/inkfeed/internal/attachment"
	"github.com/inkfeed/inkfeed/internal/auth"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/internal/handler"
	"github.com/inkfeed/inkfeed/internal/metrics"
	"github.com/inkfeed/inkfeed/internal/repository/memstore"
	"github.com/inkfeed/inkfeed/internal/service"
	"github.com/inkfeed/inkfeed/internal/testutil"
)

// contractClient sends requests to an in-process server and checks every
// response against docs/api/openapi.yaml.
type contractClient struct {
	t      *testing.T
	base   string
	router routers.Router
}

func newContractClient(t *testing.T) *contractClient {
	t.Helper()

	root, err := testutil.ProjectRoot()
	require.NoError(t, err)

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(filepath.Join(root, "docs", "api", "openapi.yaml"))
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	logger := testutil.DiscardLogger()
	recorder := metrics.NewInMemory()
	store := memstore.New()
	files, err := attachment.NewLocalStore(filepath.Join(t.TempDir(), "images"))
	require.NoError(t, err)
	cleaner := attachment.NewInlineCleaner(files, logger, recorder)

	cfg := &config.Config{
		AppEnv:             "development",
		MaxUploadSize:      1 << 20,
		MaxRequestBodySize: 1 << 20,
		CORSAllowedOrigins: "*",
	}
	authSvc := service.NewAuthService(store, auth.NewTokenManager("contract-test-secret-0123456789abcdef", time.Hour), logger, recorder)
	feedSvc := service.NewFeedService(store, store, files, cleaner, nil, logger, recorder)

	srv := httptest.NewServer(newRouter(routerDeps{
		cfg:     cfg,
		logger:  logger,
		auth:    authSvc,
		feed:    feedSvc,
		health:  handler.NewHealthHandler(handler.Dependency{Name: "store", Checker: store}),
		metrics: recorder,
	}))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = cleaner.Wait(ctx)
	})

	doc.Servers = openapi3.Servers{{URL: srv.URL}}
	router, err := gorillamux.NewRouter(doc)
	require.NoError(t, err)

	return &contractClient{t: t, base: srv.URL, router: router}
}

// do sends the request, validates the response and decodes it into out.
func (c *contractClient) do(req *http.Request, wantStatus int, out any) {
	c.t.Helper()

	route, pathParams, err := c.router.FindRoute(req)
	require.NoError(c.t, err, "%s %s is not documented", req.Method, req.URL.Path)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	require.Equal(c.t, wantStatus, resp.StatusCode, "body: %s", body)

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			IncludeResponseStatus: true,
		},
	}
	require.NoError(c.t, openapi3filter.ValidateResponse(context.Background(), input), "body: %s", body)

	if out != nil {
		require.NoError(c.t, json.Unmarshal(body, out))
	}
}

func (c *contractClient) jsonRequest(method, path, token string, body any) *http.Request {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (c *contractClient) postForm(method, path, token string, image []byte) *http.Request {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(c.t, mw.WriteField("title", testutil.PostTitle()))
	require.NoError(c.t, mw.WriteField("content", testutil.PostContent()))
	if image != nil {
		part, err := mw.CreateFormFile("image", "cover.png")
		require.NoError(c.t, err)
		_, err = part.Write(image)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestContract_Health(t *testing.T) {
	c := newContractClient(t)
	c.do(c.jsonRequest(http.MethodGet, "/healthz", "", nil), http.StatusOK, nil)
	c.do(c.jsonRequest(http.MethodGet, "/readyz", "", nil), http.StatusOK, nil)
}

func TestContract_AccountFlow(t *testing.T) {
	c := newContractClient(t)
	email := testutil.Email()

	signup := map[string]string{"email": email, "name": "Ada", "password": "secret1"}
	var created struct {
		UserID string `json:"userId"`
	}
	c.do(c.jsonRequest(http.MethodPost, "/signup", "", signup), http.StatusCreated, &created)
	require.NotEmpty(t, created.UserID)

	var dup struct {
		Errors []service.FieldError `json:"errors"`
	}
	c.do(c.jsonRequest(http.MethodPost, "/signup", "", signup), http.StatusUnprocessableEntity, &dup)
	require.NotEmpty(t, dup.Errors)

	c.do(c.jsonRequest(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "wrong-pass"}), http.StatusUnauthorized, nil)

	var login struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	c.do(c.jsonRequest(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "secret1"}), http.StatusOK, &login)
	require.Equal(t, created.UserID, login.UserID)

	c.do(c.jsonRequest(http.MethodGet, "/status", "", nil), http.StatusUnauthorized, nil)
	c.do(c.jsonRequest(http.MethodPatch, "/status", login.Token, map[string]string{"status": "Writing"}), http.StatusOK, nil)

	var status struct {
		Status string `json:"status"`
	}
	c.do(c.jsonRequest(http.MethodGet, "/status", login.Token, nil), http.StatusOK, &status)
	require.Equal(t, "Writing", status.Status)
}

func TestContract_PostFlow(t *testing.T) {
	c := newContractClient(t)
	email := testutil.Email()

	c.do(c.jsonRequest(http.MethodPost, "/signup", "", map[string]string{"email": email, "name": "Ada", "password": "secret1"}), http.StatusCreated, nil)
	var login struct {
		Token string `json:"token"`
	}
	c.do(c.jsonRequest(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "secret1"}), http.StatusOK, &login)

	c.do(c.postForm(http.MethodPost, "/posts", "", testutil.PNG), http.StatusUnauthorized, nil)
	c.do(c.postForm(http.MethodPost, "/posts", login.Token, nil), http.StatusUnprocessableEntity, nil)

	var created struct {
		Post struct {
			ID       string `json:"_id"`
			ImageURL string `json:"imageUrl"`
		} `json:"post"`
	}
	c.do(c.postForm(http.MethodPost, "/posts", login.Token, testutil.PNG), http.StatusCreated, &created)
	require.NotEmpty(t, created.Post.ID)

	var page struct {
		TotalItems int64 `json:"totalItems"`
	}
	c.do(c.jsonRequest(http.MethodGet, "/posts?page=1", "", nil), http.StatusOK, &page)
	require.EqualValues(t, 1, page.TotalItems)

	path := "/posts/" + created.Post.ID
	c.do(c.jsonRequest(http.MethodGet, path, "", nil), http.StatusOK, nil)

	edit := map[string]string{"title": "Edited title", "content": "Edited content", "image": created.Post.ImageURL}
	c.do(c.jsonRequest(http.MethodPut, path, login.Token, edit), http.StatusOK, nil)

	c.do(c.jsonRequest(http.MethodDelete, path, login.Token, nil), http.StatusOK, nil)
	c.do(c.jsonRequest(http.MethodGet, path, "", nil), http.StatusNotFound, nil)
}
