package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inkfeed/inkfeed/internal/attachment"
	"github.com/inkfeed/inkfeed/internal/auth"
	"github.com/inkfeed/inkfeed/internal/handler/dto"
	"github.com/inkfeed/inkfeed/internal/middleware"
	"github.com/inkfeed/inkfeed/internal/service"
)

// multipartMemory is how much of a multipart body is held in memory
// before parts spill to temp files.
const multipartMemory = 4 << 20

var (
	errBodyTooLarge       = errors.New("request body too large")
	errUnsupportedContent = errors.New("unsupported content type")
)

// FeedHandler handles HTTP requests for post operations.
type FeedHandler struct {
	svc       *service.FeedService
	logger    *slog.Logger
	maxUpload int64
}

// NewFeedHandler creates a new FeedHandler. maxUpload caps post bodies in bytes.
func NewFeedHandler(svc *service.FeedService, logger *slog.Logger, maxUpload int64) *FeedHandler {
	return &FeedHandler{svc: svc, logger: logger, maxUpload: maxUpload}
}

// List handles GET /posts.
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListPosts(r.Context(), parsePage(r.URL.Query().Get("page")))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToPostListResponse(MsgPostsFetched, page))
}

// Create handles POST /posts.
func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	defer form.close()

	post, err := h.svc.CreatePost(r.Context(), auth.UserIDFromContext(r.Context()), form.input, form.image)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("post_created",
		"post_id", post.ID,
		"creator_id", post.Creator.ID,
	)

	writeJSON(w, http.StatusCreated, dto.CreatePostResponse{
		Message: MsgPostCreated,
		Post:    dto.ToPostResponse(post),
		Creator: dto.ToCreatorResponse(post.Creator),
	})
}

// Get handles GET /posts/{postId}.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PostEnvelope{Message: MsgPostFetched, Post: dto.ToPostResponse(post)})
}

// Update handles PUT /posts/{postId}.
func (h *FeedHandler) Update(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	defer form.close()

	post, err := h.svc.UpdatePost(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "postId"), service.UpdateInput{
		PostInput: form.input,
		Image:     form.image,
		KeepImage: form.keepImage,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("post_updated", "post_id", post.ID)

	writeJSON(w, http.StatusOK, dto.PostEnvelope{Message: MsgPostUpdated, Post: dto.ToPostResponse(post)})
}

// Delete handles DELETE /posts/{postId}.
func (h *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postId")
	if err := h.svc.DeletePost(r.Context(), auth.UserIDFromContext(r.Context()), postID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("post_deleted", "post_id", postID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: MsgPostDeleted})
}

// parsePage reads the page query parameter. Missing or malformed values mean page 1.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// postForm is a decoded post body.
type postForm struct {
	input     service.PostInput
	keepImage string
	image     *attachment.Upload
	closers   []io.Closer
	multipart *multipart.Form
}

func (f *postForm) close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	if f.multipart != nil {
		_ = f.multipart.RemoveAll()
	}
}

// readForm decodes a post from multipart, urlencoded or JSON bodies and
// writes an error response when it cannot.
func (h *FeedHandler) readForm(w http.ResponseWriter, r *http.Request) (*postForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	form, err := h.decodeForm(r)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, middleware.MsgPayloadTooLarge, nil)
		case errors.Is(err, errUnsupportedContent):
			writeError(w, http.StatusUnsupportedMediaType, MsgInvalidBody, nil)
		default:
			h.logger.Warn("invalid post body",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			writeError(w, http.StatusBadRequest, MsgInvalidBody, nil)
		}
		return nil, false
	}
	return form, true
}

func (h *FeedHandler) decodeForm(r *http.Request) (*postForm, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, errUnsupportedContent
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, bodyError(err)
		}
		form := &postForm{
			input:     service.PostInput{Title: r.FormValue("title"), Content: r.FormValue("content")},
			keepImage: r.FormValue("image"),
			multipart: r.MultipartForm,
		}
		if err := h.attachImage(r, form); err != nil {
			form.close()
			return nil, err
		}
		return form, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		return &postForm{
			input:     service.PostInput{Title: r.PostFormValue("title"), Content: r.PostFormValue("content")},
			keepImage: r.PostFormValue("image"),
		}, nil

	case "application/json":
		var req dto.PostJSONRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, bodyError(err)
		}
		return &postForm{
			input:     service.PostInput{Title: req.Title, Content: req.Content},
			keepImage: req.Image,
		}, nil

	default:
		return nil, errUnsupportedContent
	}
}

// attachImage opens the "image" part. Parts that are not png or jpeg
// images are ignored, leaving the post without a new image.
func (h *FeedHandler) attachImage(r *http.Request, form *postForm) error {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return err
	}
	form.closers = append(form.closers, file)

	upload, err := attachment.SniffImage(header.Filename, header.Size, file)
	if errors.Is(err, attachment.ErrUnsupportedType) {
		h.logger.Info("ignoring non-image upload",
			"filename", header.Filename,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		return nil
	}
	if err != nil {
		return err
	}
	form.image = &upload
	return nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return err
}
