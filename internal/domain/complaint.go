package domain

import (
	"time"

	"github.com/google/uuid"
)

type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "pending"
	ComplaintInProgress ComplaintStatus = "in_progress"
	ComplaintResolved   ComplaintStatus = "resolved"
	ComplaintRejected   ComplaintStatus = "rejected"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintPending, ComplaintInProgress, ComplaintResolved, ComplaintRejected:
		return true
	}
	return false
}

type ComplaintCategory string

const (
	CategoryService   ComplaintCategory = "service"
	CategoryFacility  ComplaintCategory = "facility"
	CategoryStaff     ComplaintCategory = "staff"
	CategoryWaiting   ComplaintCategory = "waiting"
	CategoryTreatment ComplaintCategory = "treatment"
	CategoryOther     ComplaintCategory = "other"
)

func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryService, CategoryFacility, CategoryStaff, CategoryWaiting, CategoryTreatment, CategoryOther:
		return true
	}
	return false
}

type Complaint struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	Title       string
	Category    ComplaintCategory
	Description string
	Status      ComplaintStatus
	Response    *string
	RespondedBy *uuid.UUID
	RespondedAt *time.Time
	CreatedAt   time.Time
}

func NewComplaint(patientID uuid.UUID, title string, category ComplaintCategory, description string) Complaint {
	return Complaint{
		ID:          uuid.New(),
		PatientID:   patientID,
		Title:       title,
		Category:    category,
		Description: description,
		Status:      ComplaintPending,
	}
}
