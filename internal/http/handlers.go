package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mongoadapter "github.com/robertarktes/clinic-front-desk/internal/adapters/mongo"
	"github.com/robertarktes/clinic-front-desk/internal/adapters/postgres"
	redisadapter "github.com/robertarktes/clinic-front-desk/internal/adapters/redis"
	"github.com/robertarktes/clinic-front-desk/internal/config"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
	"github.com/robertarktes/clinic-front-desk/internal/idempotency"
	"github.com/robertarktes/clinic-front-desk/internal/queue"
	"github.com/robertarktes/clinic-front-desk/internal/reporting"
)

type Handlers struct {
	cfg      *config.Config
	engine   *queue.Engine
	repo     *postgres.Repository
	reporter *reporting.Reporter
	cache    *redisadapter.Cache
	idemp    *idempotency.Idempotency
	audit    *mongoadapter.AuditLogger
}

func NewHandlers(cfg *config.Config, engine *queue.Engine, repo *postgres.Repository, reporter *reporting.Reporter, cache *redisadapter.Cache, idemp *idempotency.Idempotency, audit *mongoadapter.AuditLogger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		engine:   engine,
		repo:     repo,
		reporter: reporter,
		cache:    cache,
		idemp:    idemp,
		audit:    audit,
	}
}

type ticketResponse struct {
	ID          uuid.UUID  `json:"id"`
	Day         string     `json:"day"`
	Number      int        `json:"number"`
	PatientID   uuid.UUID  `json:"patient_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CalledAt    *time.Time `json:"called_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toTicketResponse(t domain.Ticket) ticketResponse {
	return ticketResponse{
		ID:          t.ID,
		Day:         t.Day.String(),
		Number:      t.Number,
		PatientID:   t.PatientID,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		CalledAt:    t.CalledAt,
		CompletedAt: t.CompletedAt,
	}
}

// TakeTicket issues today's next queue number to the patient.
func (h *Handlers) TakeTicket(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if replayed := h.replay(w, r, key); replayed {
		return
	}

	var req struct {
		PatientID uuid.UUID `json:"patient_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PatientID == uuid.Nil {
		http.Error(w, "patient_id is required", http.StatusBadRequest)
		return
	}

	ticket, err := h.engine.TakeTicket(r.Context(), req.PatientID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateSnapshot(r, ticket.Day)
	if h.audit != nil {
		h.audit.LogTicketIssued(r.Context(), ticket)
	}

	h.respond(w, r, key, http.StatusCreated, toTicketResponse(ticket))
}

// GetQueue returns the live snapshot; with patient_id the caller's own
// ticket and wait estimate are included.
func (h *Handlers) GetQueue(w http.ResponseWriter, r *http.Request) {
	var patientID *uuid.UUID
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid patient_id", http.StatusBadRequest)
			return
		}
		patientID = &id
	}

	// The anonymous view is cacheable; a personal view never is.
	if patientID == nil {
		if cached, err := h.cache.GetSnapshot(r.Context(), h.engine.Today()); err == nil && cached != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		}
	}

	snap, err := h.engine.Snapshot(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"day":            snap.Day.String(),
		"status":         snap.Status,
		"current_number": snap.CurrentNumber,
		"total_waiting":  snap.TotalWaiting,
		"last_updated":   snap.UpdatedAt.Format("15:04"),
	}
	if snap.OwnTicket != nil {
		resp["your_ticket"] = toTicketResponse(*snap.OwnTicket)
		resp["estimated_wait"] = formatEstimate(snap.Estimate)
	}

	if patientID == nil {
		if err := h.cache.SetSnapshot(r.Context(), snap.Day, resp, h.cfg.SnapshotTTL); err != nil {
			requestLogger(r.Context()).WithError(err).Warn("failed to cache queue snapshot")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CallNext completes the currently served ticket and calls the oldest
// waiting one.
func (h *Handlers) CallNext(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if replayed := h.replay(w, r, key); replayed {
		return
	}

	day, ok := h.dayFromRequest(w, r)
	if !ok {
		return
	}

	ticket, err := h.engine.CallNext(r.Context(), day)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateSnapshot(r, day)
	if h.audit != nil {
		h.audit.LogTicketCalled(r.Context(), ticket)
	}

	h.respond(w, r, key, http.StatusOK, toTicketResponse(ticket))
}

func (h *Handlers) CancelTicket(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	ticket, err := h.engine.CancelTicket(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateSnapshot(r, ticket.Day)
	if h.audit != nil {
		h.audit.LogTicketCancelled(r.Context(), ticket)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTicketResponse(ticket))
}

// ListTickets serves the staff management table for a day.
func (h *Handlers) ListTickets(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayFromQuery(w, r)
	if !ok {
		return
	}

	tickets, err := h.repo.ListForDay(r.Context(), day)
	if err != nil {
		writeError(w, err)
		return
	}
	setting, err := h.repo.GetSetting(r.Context(), day)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]map[string]interface{}, 0, len(tickets))
	for _, t := range tickets {
		item := map[string]interface{}{
			"ticket": toTicketResponse(t),
		}
		if setting != nil {
			if est := queue.EstimateWait(t, *setting); est != nil {
				item["estimated_wait"] = formatEstimate(est)
			}
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"day":     day.String(),
		"tickets": items,
	})
}

func (h *Handlers) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day    string `json:"day"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	day := h.engine.Today()
	if req.Day != "" {
		parsed, err := parseDay(req.Day)
		if err != nil {
			http.Error(w, "invalid day", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	status := domain.QueueStatus(req.Status)
	if err := h.engine.ToggleStatus(r.Context(), day, status); err != nil {
		writeError(w, err)
		return
	}

	h.invalidateSnapshot(r, day)
	if h.audit != nil {
		h.audit.LogStatusChanged(r.Context(), day, status)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day                   string `json:"day"`
		StartTime             string `json:"start_time"`
		EndTime               string `json:"end_time"`
		AverageServiceMinutes int    `json:"average_service_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	day := h.engine.Today()
	if req.Day != "" {
		parsed, err := parseDay(req.Day)
		if err != nil {
			http.Error(w, "invalid day", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	if err := h.engine.UpdateHours(r.Context(), day, req.StartTime, req.EndTime, req.AverageServiceMinutes); err != nil {
		writeError(w, err)
		return
	}

	h.invalidateSnapshot(r, day)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) QueueReport(w http.ResponseWriter, r *http.Request) {
	day, ok := h.dayFromQuery(w, r)
	if !ok {
		return
	}

	report, err := h.reporter.Queue(r.Context(), day)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (h *Handlers) ComplaintReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Complaints(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

// invalidateSnapshot drops the cached day view after a mutation. A
// failed delete only risks serving a stale view until the TTL, so it
// is logged rather than failing the request.
func (h *Handlers) invalidateSnapshot(r *http.Request, day domain.Day) {
	if err := h.cache.InvalidateSnapshot(r.Context(), day); err != nil {
		requestLogger(r.Context()).WithError(err).
			WithField("day", day.String()).
			Warn("failed to invalidate queue snapshot")
	}
}

// replay serves a stored idempotent response if one exists.
func (h *Handlers) replay(w http.ResponseWriter, r *http.Request, key string) bool {
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return true
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Body)
		return true
	}
	return false
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, key string, status int, v interface{}) {
	data, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: status, Body: data})
}

func (h *Handlers) dayFromQuery(w http.ResponseWriter, r *http.Request) (domain.Day, bool) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return h.engine.Today(), true
	}
	day, err := parseDay(raw)
	if err != nil {
		http.Error(w, "invalid day", http.StatusBadRequest)
		return "", false
	}
	return day, true
}

func (h *Handlers) dayFromRequest(w http.ResponseWriter, r *http.Request) (domain.Day, bool) {
	var req struct {
		Day string `json:"day"`
	}
	// Body is optional; an empty or absent body means today.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Day == "" {
		return h.engine.Today(), true
	}
	day, err := parseDay(req.Day)
	if err != nil {
		http.Error(w, "invalid day", http.StatusBadRequest)
		return "", false
	}
	return day, true
}

func parseDay(raw string) (domain.Day, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "", err
	}
	return domain.DayOf(t), nil
}

// formatEstimate renders a wait estimate for display; an empty string
// means no estimate is available.
func formatEstimate(est *queue.WaitEstimate) string {
	if est == nil {
		return ""
	}
	if est.NextInLine {
		return "Next in line"
	}
	mins := int(est.Wait.Minutes())
	if mins < 60 {
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := mins / 60
	rem := mins % 60
	out := fmt.Sprintf("%d hour", hours)
	if hours > 1 {
		out += "s"
	}
	if rem > 0 {
		out += fmt.Sprintf(" %d minute", rem)
		if rem > 1 {
			out += "s"
		}
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		http.Error(w, vErr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrDuplicateActiveTicket):
		http.Error(w, "you already have an active queue number", http.StatusConflict)
	case errors.Is(err, domain.ErrQueueClosed):
		http.Error(w, "queue is currently closed", http.StatusConflict)
	case errors.Is(err, domain.ErrQueueEmpty):
		http.Error(w, "no patients waiting in queue", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, "ticket state does not allow this action", http.StatusConflict)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrSerializationFailure):
		http.Error(w, "conflict, try again", http.StatusConflict)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrConcurrency):
		w.Header().Set("Retry-After", "1")
		http.Error(w, "queue is busy, retry", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
