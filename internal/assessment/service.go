package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mediassist/internal/diagnosis"
	"mediassist/internal/platform/fhir"
	"mediassist/internal/provider"
)

var ErrUnknownCondition = errors.New("unknown condition")

// DiagnosisProvider resolves a request to a result, falling back to the
// catalog when a live provider fails.
type DiagnosisProvider interface {
	Resolve(ctx context.Context, req diagnosis.Request) (diagnosis.Outcome, error)
}

// CaseCounter reports recent regional cases for a UF.
type CaseCounter interface {
	RecentCases(ctx context.Context, uf string) (int, error)
}

// DrugLabeler looks up drug label information.
type DrugLabeler interface {
	DrugLabel(ctx context.Context, name string) (*provider.DrugLabel, error)
}

// ConditionRecorder mirrors assessments to an external health record.
type ConditionRecorder interface {
	Configured() bool
	CreateCondition(ctx context.Context, c fhir.Condition) (string, error)
}

// ReportService defines the interface for sending reports
type ReportService interface {
	SendAssessmentReport(ctx context.Context, a Assessment) error
}

// Treatment is the common drug for a condition with its label.
type Treatment struct {
	Condition string              `json:"condition"`
	Drug      string              `json:"drug"`
	Label     *provider.DrugLabel `json:"label"`
}

// DiagnoseInput is a validated diagnosis request.
type DiagnoseInput struct {
	Symptoms  []string
	PatientID uuid.UUID
	Age       int
	Sex       string
	UF        string
	Save      bool
}

type Service interface {
	Diagnose(ctx context.Context, in DiagnoseInput) (*DiagnoseResponse, error)
	Save(ctx context.Context, a *Assessment) error
	Get(ctx context.Context, id uuid.UUID) (*Assessment, error)
	History(ctx context.Context, patientID uuid.UUID) ([]Assessment, error)
	Symptoms() []string
	Conditions() []diagnosis.Condition
	Treatment(ctx context.Context, condition string) (*Treatment, error)
	SendReport(ctx context.Context, id uuid.UUID) error
}

// Deps groups the optional collaborators of the service. Nil members
// disable the corresponding feature.
type Deps struct {
	Cases   CaseCounter
	Drugs   DrugLabeler
	Records ConditionRecorder
	Reports ReportService
}

type service struct {
	repo     Repository
	scorer   *diagnosis.Scorer
	provider DiagnosisProvider
	deps     Deps
	logger   *zap.Logger
}

func NewService(repo Repository, scorer *diagnosis.Scorer, p DiagnosisProvider, deps Deps, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:     repo,
		scorer:   scorer,
		provider: p,
		deps:     deps,
		logger:   logger,
	}
}

func (s *service) Diagnose(ctx context.Context, in DiagnoseInput) (*DiagnoseResponse, error) {
	outcome, err := s.provider.Resolve(ctx, diagnosis.Request{
		Symptoms: in.Symptoms,
		Age:      in.Age,
		Sex:      in.Sex,
	})
	if err != nil {
		return nil, fmt.Errorf("diagnosis failed: %w", err)
	}

	result := outcome.Result
	uf := strings.ToUpper(in.UF)
	if uf != "" && s.deps.Cases != nil {
		cases, err := s.deps.Cases.RecentCases(ctx, uf)
		if err != nil {
			s.logger.Warn("regional case count unavailable", zap.String("uf", uf), zap.Error(err))
		} else {
			raised := s.scorer.ApplyRegionalIncidence(result, cases)
			if outcome.Source != diagnosis.SourceCatalog {
				// Catalog advice is only merged into catalog results
				raised.Recommendations = result.Recommendations
			}
			result = raised
		}
	}

	resp := &DiagnoseResponse{
		Result:   result,
		Source:   outcome.Source,
		Degraded: outcome.Degraded,
	}

	if in.Save && len(in.Symptoms) > 0 {
		a := &Assessment{
			ID:              uuid.New(),
			PatientID:       in.PatientID,
			Conditions:      result.PossibleConditions,
			Recommendations: result.Recommendations,
			Symptoms:        result.AnalyzedSymptoms,
			Source:          outcome.Source,
			UF:              uf,
		}
		if err := s.Save(ctx, a); err != nil {
			return nil, err
		}
		resp.AssessmentID = &a.ID
		resp.PatientID = &a.PatientID
	}

	s.logger.Info("diagnosis completed",
		zap.Int("symptoms", len(in.Symptoms)),
		zap.Int("conditions", len(result.PossibleConditions)),
		zap.String("source", string(outcome.Source)),
		zap.Bool("degraded", outcome.Degraded))
	return resp, nil
}

// Save stores an assessment and mirrors its top condition to the FHIR
// server when one is configured. A FHIR failure does not fail the save.
func (s *service) Save(ctx context.Context, a *Assessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Source == "" {
		a.Source = diagnosis.SourceCatalog
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}

	if s.deps.Records == nil || !s.deps.Records.Configured() {
		return nil
	}
	top, ok := a.Result().Top()
	if !ok {
		return nil
	}
	cond := fhir.NewCondition(a.PatientID.String(), top.Name, a.Symptoms, time.Now())
	id, err := s.deps.Records.CreateCondition(ctx, cond)
	if err != nil {
		s.logger.Error("failed to record condition in FHIR server",
			zap.String("assessment_id", a.ID.String()), zap.Error(err))
		return nil
	}
	a.FHIRConditionID = id
	if err := s.repo.Save(ctx, a); err != nil {
		s.logger.Error("failed to store FHIR condition id",
			zap.String("assessment_id", a.ID.String()), zap.Error(err))
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) History(ctx context.Context, patientID uuid.UUID) ([]Assessment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *service) Symptoms() []string {
	return s.scorer.Catalog().Symptoms()
}

func (s *service) Conditions() []diagnosis.Condition {
	return s.scorer.Catalog().Conditions()
}

func (s *service) Treatment(ctx context.Context, condition string) (*Treatment, error) {
	drug, ok := s.scorer.Catalog().Treatment(condition)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCondition, condition)
	}
	if s.deps.Drugs == nil {
		return nil, diagnosis.ErrUnavailable
	}
	label, err := s.deps.Drugs.DrugLabel(ctx, drug)
	if err != nil {
		return nil, err
	}
	return &Treatment{Condition: condition, Drug: drug, Label: label}, nil
}

func (s *service) SendReport(ctx context.Context, id uuid.UUID) error {
	if s.deps.Reports == nil {
		return diagnosis.ErrUnavailable
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.deps.Reports.SendAssessmentReport(ctx, *a); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}
