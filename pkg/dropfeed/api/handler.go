package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/dropfeed/pkg/dropfeed"
	"github.com/tendant/dropfeed/pkg/dropfeed/markdown"
)

const maxAdminBodyBytes = 1 << 20

// Handler serves the reader and admin endpoints
type Handler struct {
	service       dropfeed.Service
	auth          Authenticator
	renderer      markdown.Renderer
	strictUpdates bool
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithRenderer sets the markdown renderer used by the preview endpoint
func WithRenderer(renderer markdown.Renderer) HandlerOption {
	return func(h *Handler) {
		h.renderer = renderer
	}
}

// WithStrictUpdates answers 404 instead of {"id": null} when an update
// targets an unknown id
func WithStrictUpdates(strict bool) HandlerOption {
	return func(h *Handler) {
		h.strictUpdates = strict
	}
}

// NewHandler creates a new handler
func NewHandler(service dropfeed.Service, auth Authenticator, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:  service,
		auth:     auth,
		renderer: markdown.NewRenderer(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every route on r
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)

	r.Get("/content/latest", h.LatestContent)
	r.Get("/airdrops/{category}", h.ListAirdrops)

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminOnly(h.auth))
		r.Use(middleware.RequestSize(maxAdminBodyBytes))

		r.Post("/content", h.UpsertContent)
		r.Post("/content/preview", h.PreviewContent)
		r.Post("/airdrop", h.UpsertAirdrop)
		r.Post("/airdrop/clear", h.ClearAirdrops)
	})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, OKResponse{OK: true})
}

// Ready reports whether the store is reachable
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		slog.Error("Readiness check failed", "error", err)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, OKResponse{OK: false, Error: "store unavailable"})
		return
	}
	render.JSON(w, r, OKResponse{OK: true})
}

// LatestContent returns the most recently published post
func (h *Handler) LatestContent(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.LatestPost(r.Context())
	if err != nil {
		writeServiceError(w, r, "load latest post", err)
		return
	}
	render.JSON(w, r, LatestResponse{Item: toLatestItem(post)})
}

// ListAirdrops returns the visible airdrops of the category in the path
func (h *Handler) ListAirdrops(w http.ResponseWriter, r *http.Request) {
	category, err := dropfeed.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	items, err := h.service.ListAirdrops(r.Context(), category)
	if err != nil {
		writeServiceError(w, r, "list airdrops", err)
		return
	}
	render.JSON(w, r, AirdropListResponse{Items: toAirdropItems(items)})
}

// UpsertContent creates or updates a post
func (h *Handler) UpsertContent(w http.ResponseWriter, r *http.Request) {
	var req UpsertContentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := parseOptionalID(req.ID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	saved, err := h.service.UpsertPost(r.Context(), dropfeed.UpsertPostRequest{
		ID:      id,
		Title:   req.Title,
		BodyMD:  req.BodyMD,
		Publish: req.Publish,
	})
	h.writeUpsertResult(w, r, "save post", saved, err)
}

// PreviewContent renders markdown to HTML without storing anything
func (h *Handler) PreviewContent(w http.ResponseWriter, r *http.Request) {
	var req PreviewContentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BodyMD == "" {
		writeError(w, r, http.StatusBadRequest, "body_md required")
		return
	}

	html, err := h.renderer.Render(req.BodyMD)
	if err != nil {
		writeServiceError(w, r, "render preview", err)
		return
	}
	render.JSON(w, r, PreviewResponse{HTML: html})
}

// UpsertAirdrop creates or updates an airdrop
func (h *Handler) UpsertAirdrop(w http.ResponseWriter, r *http.Request) {
	var req UpsertAirdropRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := parseOptionalID(req.ID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	saved, err := h.service.UpsertAirdrop(r.Context(), dropfeed.UpsertAirdropRequest{
		ID:       id,
		Category: req.Category,
		Name:     req.Name,
		Subtitle: req.Subtitle,
		Score:    req.Score,
		Amount:   req.Amount,
		TimeText: req.TimeText,
		Badge:    req.Badge,
		Sort:     req.Sort,
		Publish:  req.Publish,
	})
	h.writeUpsertResult(w, r, "save airdrop", saved, err)
}

// ClearAirdrops permanently deletes airdrops of one category, or all of
// them when no valid category is given
func (h *Handler) ClearAirdrops(w http.ResponseWriter, r *http.Request) {
	var req ClearAirdropsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ClearAirdrops(r.Context(), dropfeed.ClearAirdropsRequest{Category: req.Category}); err != nil {
		writeServiceError(w, r, "clear airdrops", err)
		return
	}
	render.JSON(w, r, OKResponse{OK: true})
}

func (h *Handler) writeUpsertResult(w http.ResponseWriter, r *http.Request, op string, id uuid.UUID, err error) {
	if err != nil {
		if dropfeed.IsNotFound(err) && !h.strictUpdates {
			render.JSON(w, r, IDResponse{ID: nil})
			return
		}
		writeServiceError(w, r, op, err)
		return
	}
	s := id.String()
	render.JSON(w, r, IDResponse{ID: &s})
}

// decodeBody decodes a JSON body; an empty body decodes as {}.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// parseOptionalID treats a missing or empty id as "create".
func parseOptionalID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
