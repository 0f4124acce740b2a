package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeInPerson = "presencial"
	TypeOnline   = "online"

	StatusScheduled = "Agendada"

	DateLayout = "2006-01-02"
)

// SlotTimes are the only bookable times of day.
var SlotTimes = []string{"09:00", "10:30", "14:00", "15:30", "17:00"}

type Doctor struct {
	ID               int    `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	Specialty        string `json:"specialty" yaml:"specialty"`
	Type             string `json:"appointment_type" yaml:"appointment_type"`
	NextAvailability string `json:"next_availability" yaml:"next_availability"`
}

type Appointment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`
	DoctorID  int       `json:"doctor_id" db:"doctor_id"`

	DoctorName string `json:"doctor" db:"doctor_name"`
	Specialty  string `json:"specialty" db:"specialty"`
	Type       string `json:"type" db:"type"`

	Date   string `json:"date" db:"date"`
	Time   string `json:"time" db:"time"`
	Reason string `json:"reason,omitempty" db:"reason"`
	Status string `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BookRequest is the body of POST /appointments.
type BookRequest struct {
	DoctorID  int    `json:"doctor_id" validate:"required,min=1"`
	PatientID string `json:"patient_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}
