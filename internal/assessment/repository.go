package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("assessment not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Assessment, error)
	Save(ctx context.Context, a *Assessment) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const selectColumns = `id, patient_id, conditions, recommendations, symptoms, source, uf, fhir_condition_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	var a Assessment
	var conditionsJSON, recommendationsJSON, symptomsJSON []byte
	var uf, fhirID sql.NullString

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&conditionsJSON,
		&recommendationsJSON,
		&symptomsJSON,
		&a.Source,
		&uf,
		&fhirID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.UF = uf.String
	a.FHIRConditionID = fhirID.String

	if err := json.Unmarshal(conditionsJSON, &a.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal(recommendationsJSON, &a.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal(symptomsJSON, &a.Symptoms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal symptoms: %w", err)
	}
	return &a, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM assessments WHERE id = $1`, id)

	a, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM assessments WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Save(ctx context.Context, a *Assessment) error {
	conditionsJSON, err := json.Marshal(a.Conditions)
	if err != nil {
		return err
	}
	recommendationsJSON, err := json.Marshal(a.Recommendations)
	if err != nil {
		return err
	}
	symptomsJSON, err := json.Marshal(a.Symptoms)
	if err != nil {
		return err
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = time.Now()

	query := `
		INSERT INTO assessments (id, patient_id, conditions, recommendations, symptoms, source, uf, fhir_condition_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			conditions = $3,
			recommendations = $4,
			symptoms = $5,
			source = $6,
			uf = NULLIF($7, ''),
			fhir_condition_id = NULLIF($8, ''),
			updated_at = $10
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.PatientID, conditionsJSON, recommendationsJSON, symptomsJSON,
		a.Source, a.UF, a.FHIRConditionID, a.CreatedAt, a.UpdatedAt)
	return err
}
