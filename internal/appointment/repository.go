package appointment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const uniqueViolation = "23505"

func (r *postgresRepo) Create(ctx context.Context, a *Appointment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, doctor_name, specialty, type, date, time, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.PatientID, a.DoctorID, a.DoctorName, a.Specialty, a.Type,
		a.Date, a.Time, a.Reason, a.Status, a.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrSlotTaken
	}
	return err
}

func (r *postgresRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, patient_id, doctor_id, doctor_name, specialty, type, to_char(date, 'YYYY-MM-DD'), time, reason, status, created_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY date, time
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.DoctorID, &a.DoctorName, &a.Specialty, &a.Type,
			&a.Date, &a.Time, &a.Reason, &a.Status, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
