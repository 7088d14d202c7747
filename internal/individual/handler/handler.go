// Package handler is the thin HTTP layer over the individual service. It
// parses paths, query strings, and bodies, and renders the JSON envelope;
// business rules live in the service.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"persreg/internal/individual/models"
	"persreg/internal/platform/metrics"
	"persreg/internal/platform/middleware"
	dErrors "persreg/pkg/domain-errors"
	"persreg/pkg/platform/httputil"
	"persreg/pkg/requestcontext"
)

// uuidPattern constrains the {id} route segment so malformed ids fall
// through to the not-found envelope instead of reaching a handler.
const uuidPattern = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

// Service defines the operations the HTTP layer dispatches to.
type Service interface {
	List(ctx context.Context, q models.ListQuery) (*models.ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Individual, error)
	Create(ctx context.Context, req models.CreateRequest) (*models.Individual, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateRequest) (*models.Individual, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
}

// Pinger is the slice of the persistence gateway the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles the individuals API endpoints.
type Handler struct {
	logger         *slog.Logger
	service        Service
	metrics        *metrics.Metrics
	pinger         Pinger
	requestTimeout time.Duration
}

// New creates an individuals Handler. pinger may be nil when no database is
// wired (handler tests run against the in-memory store).
func New(service Service, logger *slog.Logger, m *metrics.Metrics, pinger Pinger, requestTimeout time.Duration) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		metrics:        m,
		pinger:         pinger,
		requestTimeout: requestTimeout,
	}
}

// Register mounts all routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	sub := chi.NewRouter()
	sub.Use(middleware.Recovery(h.logger))
	sub.Use(middleware.RequestID)
	sub.Use(middleware.RequestTime)
	sub.Use(middleware.Logger(h.logger))
	sub.Use(middleware.Timeout(h.requestTimeout))
	sub.Use(middleware.ContentTypeJSON)
	sub.Use(middleware.Latency(h.metrics))

	// Anything that doesn't match a route — including a malformed id
	// segment — gets the same not-found envelope the API has always used.
	sub.NotFound(httputil.WriteRouteNotFound)
	sub.MethodNotAllowed(httputil.WriteRouteNotFound)

	sub.Route("/individuals", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{id:"+uuidPattern+"}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Patch("/", h.handleRestore)
		})
	})
	sub.Get("/healthz", h.handleHealth)

	r.Mount("/", sub)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := models.ListQuery{
		Search:  query.Get("search"),
		Deleted: query.Get("deleted") == "true",
		Page:    intQueryParam(query.Get("page")),
		Limit:   intQueryParam(query.Get("limit")),
	}

	result, err := h.service.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rows := result.Rows
	if rows == nil {
		rows = []*models.Individual{}
	}
	httputil.WriteList(w, rows, httputil.Pagination{
		Page:       result.Page,
		Limit:      result.Limit,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	ind, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, ind)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ind, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, ind)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ind, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, ind)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.SoftDelete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteMessage(w, "individual deleted")
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Restore(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteMessage(w, "individual restored")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "health check failed",
				"request_id", requestcontext.RequestID(r.Context()),
				"error", err.Error(),
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "database unreachable"))
			return
		}
	}
	httputil.WriteMessage(w, "pong")
}

// pathID parses the id segment. The route pattern already guarantees the
// UUID shape; a parse failure means the route table and pattern diverged,
// which is answered like any other unmatched path.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteRouteNotFound(w, r)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "request failed",
			"request_id", requestcontext.RequestID(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "request rejected",
			"request_id", requestcontext.RequestID(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

// decodeBody reads the full payload. An empty or unparsable body is the
// client's fault, not a server fault.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return dErrors.New(dErrors.CodeValidation, "request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "request body is not valid JSON")
	}
	return nil
}

// intQueryParam parses a positive integer; anything else resolves to zero
// and lets the service clamp it to the default.
func intQueryParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
