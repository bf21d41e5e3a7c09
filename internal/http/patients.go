package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

type patientRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NIK        string `json:"nik"`
	BPJS       bool   `json:"bpjs"`
	BPJSNumber string `json:"bpjs_number"`
	Address    string `json:"address"`
	Gender     string `json:"gender"`
	Birthdate  string `json:"birthdate"`
}

func (req patientRequest) validate() error {
	if req.Name == "" {
		return domain.Invalid("name", "must not be empty")
	}
	if req.NIK == "" {
		return domain.Invalid("nik", "must not be empty")
	}
	if req.BPJS && req.BPJSNumber == "" {
		return domain.Invalid("bpjs_number", "required for BPJS patients")
	}
	if req.Gender != "" && req.Gender != "male" && req.Gender != "female" {
		return domain.Invalid("gender", "must be male or female")
	}
	return nil
}

func (req patientRequest) birthdate() (*time.Time, error) {
	if req.Birthdate == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		return nil, domain.Invalid("birthdate", "must be formatted as 2006-01-02")
	}
	return &t, nil
}

type patientResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	NIK        string    `json:"nik"`
	BPJS       bool      `json:"bpjs"`
	BPJSNumber string    `json:"bpjs_number,omitempty"`
	Address    string    `json:"address,omitempty"`
	Gender     string    `json:"gender,omitempty"`
	Birthdate  string    `json:"birthdate,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPatientResponse(p domain.Patient) patientResponse {
	resp := patientResponse{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		NIK:        p.NIK,
		BPJS:       p.BPJS,
		BPJSNumber: p.BPJSNumber,
		Address:    p.Address,
		Gender:     p.Gender,
		CreatedAt:  p.CreatedAt,
	}
	if p.Birthdate != nil {
		resp.Birthdate = p.Birthdate.Format("2006-01-02")
	}
	return resp
}

func (h *Handlers) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}
	birthdate, err := req.birthdate()
	if err != nil {
		writeError(w, err)
		return
	}

	patient := domain.NewPatient(req.Name, req.Email, req.Phone, req.NIK, req.BPJS, req.BPJSNumber, req.Address, req.Gender, birthdate)
	if err := h.repo.CreatePatient(r.Context(), patient); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPatientResponse(patient))
}

func (h *Handlers) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	patient, err := h.repo.GetPatient(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPatientResponse(*patient))
}

func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.repo.ListPatients(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]patientResponse, 0, len(patients))
	for _, p := range patients {
		resp = append(resp, toPatientResponse(p))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"patients": resp})
}

func (h *Handlers) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}
	birthdate, err := req.birthdate()
	if err != nil {
		writeError(w, err)
		return
	}

	patient := domain.Patient{
		ID:         id,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		NIK:        req.NIK,
		BPJS:       req.BPJS,
		BPJSNumber: req.BPJSNumber,
		Address:    req.Address,
		Gender:     req.Gender,
		Birthdate:  birthdate,
	}
	if err := h.repo.UpdatePatient(r.Context(), patient); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPatientResponse(patient))
}

func (h *Handlers) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeletePatient(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
