package assessment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediassist/internal/diagnosis"
	"mediassist/internal/platform/fhir"
	"mediassist/internal/provider"
)

type memRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]Assessment
	saves int
	err   error
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[uuid.UUID]Assessment{}}
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Assessment{}
	for _, a := range r.items {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) Save(_ context.Context, a *Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves++
	r.items[a.ID] = *a
	return nil
}

type stubCases struct {
	cases int
	err   error
}

func (s stubCases) RecentCases(context.Context, string) (int, error) {
	return s.cases, s.err
}

type stubDrugs struct {
	label *provider.DrugLabel
	err   error
	asked string
}

func (s *stubDrugs) DrugLabel(_ context.Context, name string) (*provider.DrugLabel, error) {
	s.asked = name
	return s.label, s.err
}

type stubRecords struct {
	id   string
	err  error
	sent []fhir.Condition
}

func (s *stubRecords) Configured() bool { return true }

func (s *stubRecords) CreateCondition(_ context.Context, c fhir.Condition) (string, error) {
	s.sent = append(s.sent, c)
	return s.id, s.err
}

type stubReports struct {
	sent []Assessment
	err  error
}

func (s *stubReports) SendAssessmentReport(_ context.Context, a Assessment) error {
	s.sent = append(s.sent, a)
	return s.err
}

func newTestService(repo Repository, deps Deps) Service {
	scorer := diagnosis.NewScorer(diagnosis.DefaultCatalog())
	p := diagnosis.NewFallbackProvider(nil, diagnosis.NewCatalogProvider(scorer), nil)
	return NewService(repo, scorer, p, deps, nil)
}

func TestService_Diagnose(t *testing.T) {
	svc := newTestService(newMemRepo(), Deps{})

	resp, err := svc.Diagnose(context.Background(), DiagnoseInput{Symptoms: []string{"febre", "tosse"}})
	require.NoError(t, err)

	assert.Equal(t, diagnosis.SourceCatalog, resp.Source)
	assert.False(t, resp.Degraded)
	assert.Nil(t, resp.AssessmentID)
	require.NotEmpty(t, resp.PossibleConditions)
	assert.Equal(t, "Gripe", resp.PossibleConditions[0].Name)
}

func TestService_DiagnoseAppliesRegionalIncidence(t *testing.T) {
	svc := newTestService(newMemRepo(), Deps{Cases: stubCases{cases: 5000}})

	resp, err := svc.Diagnose(context.Background(), DiagnoseInput{
		Symptoms: []string{"febre", "tosse"},
		UF:       "sp",
	})
	require.NoError(t, err)

	top := resp.PossibleConditions[0]
	assert.Equal(t, "COVID-19", top.Name)
	assert.InDelta(t, 0.8, top.Probability, 1e-9)
	assert.Contains(t, top.Description, "5000")
	assert.Contains(t, resp.Recommendations, "Procure um médico o mais breve possível")
}

type stubProvider struct {
	outcome diagnosis.Outcome
}

func (p stubProvider) Resolve(context.Context, diagnosis.Request) (diagnosis.Outcome, error) {
	return p.outcome, nil
}

func TestService_RegionalIncidenceKeepsLiveRecommendations(t *testing.T) {
	scorer := diagnosis.NewScorer(diagnosis.DefaultCatalog())
	live := stubProvider{outcome: diagnosis.Outcome{
		Result: diagnosis.Result{
			PossibleConditions: []diagnosis.ScoredCondition{{Name: "Gripe", Probability: 0.4}},
			Recommendations:    []string{"Evite contato com outras pessoas"},
			AnalyzedSymptoms:   []string{"febre"},
		},
		Source: diagnosis.SourceInfermedica,
	}}
	svc := NewService(newMemRepo(), scorer, live, Deps{Cases: stubCases{cases: 5000}}, nil)

	resp, err := svc.Diagnose(context.Background(), DiagnoseInput{Symptoms: []string{"febre"}, UF: "SP"})
	require.NoError(t, err)

	assert.Equal(t, "COVID-19", resp.PossibleConditions[0].Name)
	assert.Equal(t, []string{"Evite contato com outras pessoas"}, resp.Recommendations)
}

func TestService_DiagnoseIgnoresCaseCountFailure(t *testing.T) {
	svc := newTestService(newMemRepo(), Deps{Cases: stubCases{err: diagnosis.ErrUnavailable}})

	resp, err := svc.Diagnose(context.Background(), DiagnoseInput{
		Symptoms: []string{"febre", "tosse"},
		UF:       "RJ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Gripe", resp.PossibleConditions[0].Name)
}

func TestService_DiagnoseAndSave(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, Deps{})
	pid := uuid.New()

	resp, err := svc.Diagnose(context.Background(), DiagnoseInput{
		Symptoms:  []string{"azia"},
		PatientID: pid,
		Save:      true,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.AssessmentID)

	saved, err := svc.Get(context.Background(), *resp.AssessmentID)
	require.NoError(t, err)
	assert.Equal(t, pid, saved.PatientID)
	assert.Equal(t, "Gastrite", saved.Conditions[0].Name)
	assert.Equal(t, []string{"azia"}, saved.Symptoms)

	history, err := svc.History(context.Background(), pid)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestService_SaveRecordsFHIRCondition(t *testing.T) {
	repo := newMemRepo()
	records := &stubRecords{id: "cond-7"}
	svc := newTestService(repo, Deps{Records: records})

	a := &Assessment{
		PatientID:  uuid.New(),
		Conditions: []diagnosis.ScoredCondition{{Name: "Asma", Probability: 0.3}},
		Symptoms:   []string{"chiado no peito"},
	}
	require.NoError(t, svc.Save(context.Background(), a))

	require.Len(t, records.sent, 1)
	assert.Equal(t, "Asma", records.sent[0].Code.Text)
	assert.Equal(t, "cond-7", a.FHIRConditionID)
	assert.Equal(t, diagnosis.SourceCatalog, a.Source)

	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "cond-7", stored.FHIRConditionID)
}

func TestService_SaveSurvivesFHIRFailure(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, Deps{Records: &stubRecords{err: errors.New("boom")}})

	a := &Assessment{
		PatientID:  uuid.New(),
		Conditions: []diagnosis.ScoredCondition{{Name: "Gripe", Probability: 0.3}},
	}
	require.NoError(t, svc.Save(context.Background(), a))
	assert.Empty(t, a.FHIRConditionID)
	assert.Equal(t, 1, repo.saves)
}

func TestService_SaveRepositoryError(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("db down")
	svc := newTestService(repo, Deps{})

	err := svc.Save(context.Background(), &Assessment{PatientID: uuid.New()})
	assert.ErrorIs(t, err, repo.err)
}

func TestService_Treatment(t *testing.T) {
	drugs := &stubDrugs{label: &provider.DrugLabel{Name: "Omeprazol"}}
	svc := newTestService(newMemRepo(), Deps{Drugs: drugs})

	tr, err := svc.Treatment(context.Background(), "Gastrite")
	require.NoError(t, err)
	assert.Equal(t, "Omeprazol", tr.Drug)
	assert.Equal(t, "Omeprazol", drugs.asked)

	_, err = svc.Treatment(context.Background(), "Sarampo")
	assert.ErrorIs(t, err, ErrUnknownCondition)

	_, err = newTestService(newMemRepo(), Deps{}).Treatment(context.Background(), "Gastrite")
	assert.ErrorIs(t, err, diagnosis.ErrUnavailable)
}

func TestService_SendReport(t *testing.T) {
	repo := newMemRepo()
	reports := &stubReports{}
	svc := newTestService(repo, Deps{Reports: reports})

	a := &Assessment{ID: uuid.New(), PatientID: uuid.New()}
	require.NoError(t, repo.Save(context.Background(), a))

	require.NoError(t, svc.SendReport(context.Background(), a.ID))
	require.Len(t, reports.sent, 1)
	assert.Equal(t, a.ID, reports.sent[0].ID)

	assert.ErrorIs(t, svc.SendReport(context.Background(), uuid.New()), ErrNotFound)
	assert.ErrorIs(t, newTestService(repo, Deps{}).SendReport(context.Background(), a.ID), diagnosis.ErrUnavailable)
}

func TestService_Catalog(t *testing.T) {
	svc := newTestService(newMemRepo(), Deps{})
	assert.Len(t, svc.Conditions(), 6)
	assert.Contains(t, svc.Symptoms(), "febre")
}
