package assessment

import (
	"time"

	"github.com/google/uuid"

	"mediassist/internal/diagnosis"
)

// Assessment is a diagnosis result kept in a patient's history.
type Assessment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`

	Conditions      []diagnosis.ScoredCondition `json:"possible_conditions" db:"conditions"`
	Recommendations []string                    `json:"recommendations" db:"recommendations"`
	Symptoms        []string                    `json:"analyzed_symptoms" db:"symptoms"`

	Source diagnosis.Source `json:"source" db:"source"`
	UF     string           `json:"uf,omitempty" db:"uf"`

	// Set once the assessment has been mirrored to the FHIR server
	FHIRConditionID string `json:"fhir_condition_id,omitempty" db:"fhir_condition_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (a *Assessment) Result() diagnosis.Result {
	return diagnosis.Result{
		PossibleConditions: a.Conditions,
		Recommendations:    a.Recommendations,
		AnalyzedSymptoms:   a.Symptoms,
	}
}

// DiagnoseRequest is the body of POST /diagnosis. Symptoms is decoded
// loosely so that non-string elements can be reported precisely.
type DiagnoseRequest struct {
	Symptoms  []any  `json:"symptoms"`
	PatientID string `json:"patient_id" validate:"omitempty,uuid"`
	Age       int    `json:"age" validate:"omitempty,min=0,max=120"`
	Sex       string `json:"sex" validate:"omitempty,oneof=male female"`
	UF        string `json:"uf" validate:"omitempty,len=2,alpha"`
	Save      bool   `json:"save"`
}

// DiagnoseResponse extends the diagnosis result with provenance.
type DiagnoseResponse struct {
	diagnosis.Result
	Source       diagnosis.Source `json:"source"`
	Degraded     bool             `json:"degraded,omitempty"`
	AssessmentID *uuid.UUID       `json:"assessment_id,omitempty"`
	// Set with AssessmentID so anonymous callers can fetch their history
	PatientID    *uuid.UUID       `json:"patient_id,omitempty"`
}

// SaveRequest is the body of POST /assessments.
type SaveRequest struct {
	PatientID          string                      `json:"patient_id" validate:"required,uuid"`
	PossibleConditions []diagnosis.ScoredCondition `json:"possible_conditions" validate:"required,min=1,dive"`
	Recommendations    []string                    `json:"recommendations"`
	AnalyzedSymptoms   []string                    `json:"analyzed_symptoms" validate:"required,min=1"`
	Source             diagnosis.Source            `json:"source" validate:"omitempty,oneof=catalog infermedica"`
	UF                 string                      `json:"uf" validate:"omitempty,len=2,alpha"`
}
