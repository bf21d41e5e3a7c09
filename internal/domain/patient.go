package domain

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Phone      string
	NIK        string
	BPJS       bool
	BPJSNumber string
	Address    string
	Gender     string
	Birthdate  *time.Time
	CreatedAt  time.Time
}

func NewPatient(name, email, phone, nik string, bpjs bool, bpjsNumber, address, gender string, birthdate *time.Time) Patient {
	return Patient{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Phone:      phone,
		NIK:        nik,
		BPJS:       bpjs,
		BPJSNumber: bpjsNumber,
		Address:    address,
		Gender:     gender,
		Birthdate:  birthdate,
	}
}
