package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrSlotTaken      = errors.New("slot already booked")
	ErrInvalidSlot    = errors.New("time is not a bookable slot")
	ErrPastDate       = errors.New("date is in the past")
)

type Service interface {
	Doctors(specialty, typ string) []Doctor
	Book(ctx context.Context, req BookRequest) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
}

type service struct {
	repo      Repository
	directory *Directory
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, directory *Directory, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:      repo,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) Doctors(specialty, typ string) []Doctor {
	return s.directory.Filter(specialty, typ)
}

func (s *service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	doctor, ok := s.directory.ByID(req.DoctorID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDoctorNotFound, req.DoctorID)
	}
	if !validSlot(req.Time) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, req.Time)
	}

	now := s.now()
	date, err := time.ParseInLocation(DateLayout, req.Date, now.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return nil, fmt.Errorf("%w: %s", ErrPastDate, req.Date)
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("invalid patient id: %w", err)
	}

	a := &Appointment{
		ID:         uuid.New(),
		PatientID:  patientID,
		DoctorID:   doctor.ID,
		DoctorName: doctor.Name,
		Specialty:  doctor.Specialty,
		Type:       doctor.Type,
		Date:       req.Date,
		Time:       req.Time,
		Reason:     req.Reason,
		Status:     StatusScheduled,
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", a.ID.String()),
		zap.Int("doctor_id", a.DoctorID),
		zap.String("date", a.Date),
		zap.String("time", a.Time))
	return a, nil
}

func (s *service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func validSlot(t string) bool {
	for _, slot := range SlotTimes {
		if slot == t {
			return true
		}
	}
	return false
}
