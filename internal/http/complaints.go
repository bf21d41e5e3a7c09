package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/clinic-front-desk/internal/adapters/postgres"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

type complaintResponse struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Response    *string    `json:"response,omitempty"`
	RespondedBy *uuid.UUID `json:"responded_by,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toComplaintResponse(c domain.Complaint) complaintResponse {
	return complaintResponse{
		ID:          c.ID,
		PatientID:   c.PatientID,
		Title:       c.Title,
		Category:    string(c.Category),
		Description: c.Description,
		Status:      string(c.Status),
		Response:    c.Response,
		RespondedBy: c.RespondedBy,
		RespondedAt: c.RespondedAt,
		CreatedAt:   c.CreatedAt,
	}
}

func (h *Handlers) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientID   uuid.UUID `json:"patient_id"`
		Title       string    `json:"title"`
		Category    string    `json:"category"`
		Description string    `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PatientID == uuid.Nil {
		http.Error(w, "patient_id is required", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		writeError(w, domain.Invalid("title", "must not be empty"))
		return
	}
	if req.Description == "" {
		writeError(w, domain.Invalid("description", "must not be empty"))
		return
	}
	category := domain.ComplaintCategory(req.Category)
	if !category.Valid() {
		writeError(w, domain.Invalid("category", "unknown category"))
		return
	}

	complaint := domain.NewComplaint(req.PatientID, req.Title, category, req.Description)
	if err := h.repo.CreateComplaint(r.Context(), complaint); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toComplaintResponse(complaint))
}

func (h *Handlers) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	complaint, err := h.repo.GetComplaint(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toComplaintResponse(*complaint))
}

func (h *Handlers) ListComplaints(w http.ResponseWriter, r *http.Request) {
	filter := postgres.ComplaintFilter{
		Status:   domain.ComplaintStatus(r.URL.Query().Get("status")),
		Category: domain.ComplaintCategory(r.URL.Query().Get("category")),
	}
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid patient_id", http.StatusBadRequest)
			return
		}
		filter.PatientID = &id
	}

	complaints, err := h.repo.ListComplaints(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]complaintResponse, 0, len(complaints))
	for _, c := range complaints {
		resp = append(resp, toComplaintResponse(c))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"complaints": resp})
}

// RespondComplaint records a staff response and a resolution status in
// one step.
func (h *Handlers) RespondComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status      string    `json:"status"`
		Response    string    `json:"response"`
		ResponderID uuid.UUID `json:"responder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status := domain.ComplaintStatus(req.Status)
	if !status.Valid() {
		writeError(w, domain.Invalid("status", "unknown status"))
		return
	}
	if req.Response == "" {
		writeError(w, domain.Invalid("response", "must not be empty"))
		return
	}

	if err := h.repo.RespondComplaint(r.Context(), id, status, req.Response, req.ResponderID, time.Now()); err != nil {
		writeError(w, err)
		return
	}

	complaint, err := h.repo.GetComplaint(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toComplaintResponse(*complaint))
}

func (h *Handlers) UpdateComplaintStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status := domain.ComplaintStatus(req.Status)
	if !status.Valid() {
		writeError(w, domain.Invalid("status", "unknown status"))
		return
	}

	if err := h.repo.UpdateComplaintStatus(r.Context(), id, status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteComplaint(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
