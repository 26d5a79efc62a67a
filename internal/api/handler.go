// Package api exposes the data service over HTTP/JSON, with Server-Sent
// Event streams carrying collection snapshots.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"restaurant-ops/internal/common/logger"
	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/notifier"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 32 << 20
)

// Service is what the HTTP layer needs from the data service.
type Service interface {
	RemoteConfigured() bool

	Reservations(ctx context.Context) ([]domain.Reservation, error)
	Orders(ctx context.Context) ([]domain.Order, error)
	Guests(ctx context.Context) ([]domain.CrmEntry, error)
	Documents(ctx context.Context) ([]domain.DocumentFile, error)

	SubscribeReservations(fn notifier.Listener[domain.Reservation]) func()
	SubscribeOrders(fn notifier.Listener[domain.Order]) func()
	SubscribeGuests(fn notifier.Listener[domain.CrmEntry]) func()
	SubscribeDocuments(fn notifier.Listener[domain.DocumentFile]) func()

	AddReservation(ctx context.Context, in domain.NewReservation) (domain.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) error
	CheckInGuest(ctx context.Context, id string) error
	PlaceOrder(ctx context.Context, in domain.NewOrder) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	ToggleBlockUser(ctx context.Context, id string) (domain.CrmEntry, error)
	UploadDocument(ctx context.Context, up domain.DocumentUpload) (domain.DocumentFile, error)
	SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error

	SearchGlobal(ctx context.Context, query string) ([]domain.SearchResult, error)

	SignIn(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	Session(ctx context.Context) (domain.Session, error)
}

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

type Deps struct {
	Service  Service
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer // /metrics is omitted when nil
	Checks   map[string]Check
	// Heartbeat is the SSE keep-alive interval.
	Heartbeat time.Duration
}

type Handler struct {
	svc       Service
	log       *logger.Logger
	checks    map[string]Check
	heartbeat time.Duration
}

func NewRouter(deps Deps) http.Handler {
	h := &Handler{
		svc:       deps.Service,
		log:       deps.Logger.With("api"),
		checks:    deps.Checks,
		heartbeat: deps.Heartbeat,
	}
	if h.log == nil {
		h.log = logger.Nop()
	}
	if h.heartbeat <= 0 {
		h.heartbeat = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)

	r.Get("/healthz", h.health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.getSession)
		r.Post("/session/sign-in", h.signIn)
		r.Post("/session/sign-out", h.signOut)

		r.Get("/reservations", h.listReservations)
		r.Post("/reservations", h.addReservation)
		r.Patch("/reservations/{id}/status", h.updateReservationStatus)
		r.Post("/reservations/{id}/check-in", h.checkIn)

		r.Get("/orders", h.listOrders)
		r.Post("/orders", h.placeOrder)
		r.Patch("/orders/{id}/status", h.updateOrderStatus)

		r.Get("/guests", h.listGuests)
		r.Post("/guests/{id}/toggle-block", h.toggleBlock)

		r.Get("/documents", h.listDocuments)
		r.Post("/documents", h.uploadDocument)
		r.Patch("/documents/{id}/status", h.setDocumentStatus)

		r.Get("/search", h.search)
		r.Get("/stream/{collection}", h.stream)
	})
	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("http_request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	code := http.StatusOK
	status := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, map[string]any{
		"status": http.StatusText(code),
		"remote": h.svc.RemoteConfigured(),
		"checks": status,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Session(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.SignIn(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, h.svc.Reservations)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, h.svc.Orders)
}

func (h *Handler) listGuests(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, h.svc.Guests)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, h.svc.Documents)
}

func list[T any](h *Handler, w http.ResponseWriter, r *http.Request, read func(context.Context) ([]T, error)) {
	items, err := read(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) addReservation(w http.ResponseWriter, r *http.Request) {
	var req domain.NewReservation
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.AddReservation(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateReservationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.UpdateReservationStatus(r.Context(), chi.URLParam(r, "id"), domain.ReservationStatus(req.Status)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CheckInGuest(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.NewOrder
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.svc.PlaceOrder(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleBlock(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.ToggleBlockUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: multipart field \"file\": %v", domain.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	doc, err := h.svc.UploadDocument(r.Context(), domain.DocumentUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) setDocumentStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.SetDocumentStatus(r.Context(), chi.URLParam(r, "id"), domain.DocumentStatus(req.Status)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.SearchGlobal(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
