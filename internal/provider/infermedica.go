package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediassist/internal/diagnosis"
)

// Evidence ids for catalog symptoms. Symptoms without an id are not sent.
var defaultEvidenceIDs = map[string]string{
	"febre":                    "s_98",
	"tosse":                    "s_102",
	"dor de cabeça":            "s_21",
	"dificuldade respiratória": "s_88",
	"dor de garganta":          "s_20",
	"náusea":                   "s_156",
	"dor abdominal":            "s_13",
	"cansaço":                  "s_2100",
	"coriza":                   "s_107",
	"vômito":                   "s_305",
}

const (
	defaultAge = 30
	defaultSex = "male"
)

type InfermedicaClient struct {
	appID       string
	appKey      string
	baseURL     string
	evidenceIDs map[string]string
	httpClient  *http.Client
}

func NewInfermedicaClient(appID, appKey, baseURL string) *InfermedicaClient {
	return &InfermedicaClient{
		appID:       appID,
		appKey:      appKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		evidenceIDs: defaultEvidenceIDs,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type infermedicaEvidence struct {
	ID       string `json:"id"`
	ChoiceID string `json:"choice_id"`
	Source   string `json:"source,omitempty"`
}

type infermedicaRequest struct {
	Sex string `json:"sex"`
	Age struct {
		Value int `json:"value"`
	} `json:"age"`
	Evidence []infermedicaEvidence `json:"evidence"`
}

type infermedicaResponse struct {
	Conditions []struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		CommonName  string  `json:"common_name"`
		Probability float64 `json:"probability"`
		Hint        string  `json:"hint"`
	} `json:"conditions"`
	ShouldStop  bool   `json:"should_stop"`
	TriageLevel string `json:"triage_level"`
}

func (c *InfermedicaClient) Source() diagnosis.Source {
	return diagnosis.SourceInfermedica
}

// Diagnose posts the reported symptoms as initial evidence. It returns
// diagnosis.ErrUnavailable when credentials are missing or no symptom maps
// to an evidence id.
func (c *InfermedicaClient) Diagnose(ctx context.Context, req diagnosis.Request) (*diagnosis.Result, error) {
	if c.appID == "" || c.appKey == "" {
		return nil, fmt.Errorf("%w: infermedica credentials not configured", diagnosis.ErrUnavailable)
	}

	var body infermedicaRequest
	body.Sex = req.Sex
	if body.Sex == "" {
		body.Sex = defaultSex
	}
	body.Age.Value = req.Age
	if body.Age.Value <= 0 {
		body.Age.Value = defaultAge
	}

	var mapped []string
	seen := make(map[string]bool)
	for _, s := range req.Symptoms {
		id, ok := c.evidenceIDs[s]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		mapped = append(mapped, s)
		body.Evidence = append(body.Evidence, infermedicaEvidence{ID: id, ChoiceID: "present", Source: "initial"})
	}
	if len(body.Evidence) == 0 {
		return nil, fmt.Errorf("%w: no symptom has an infermedica evidence id", diagnosis.ErrUnavailable)
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/diagnosis", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("App-Id", c.appID)
	httpReq.Header.Set("App-Key", c.appKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("infermedica request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("infermedica API error: %s - %s", resp.Status, string(respBody))
	}

	var out infermedicaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode infermedica response: %w", err)
	}

	result := diagnosis.Result{
		PossibleConditions: make([]diagnosis.ScoredCondition, 0, len(out.Conditions)),
		Recommendations:    triageRecommendations(out.ShouldStop, out.TriageLevel),
		AnalyzedSymptoms:   append([]string{}, req.Symptoms...),
	}
	for _, cond := range out.Conditions {
		name := cond.CommonName
		if name == "" {
			name = cond.Name
		}
		desc := cond.Hint
		if desc == "" {
			desc = "Descrição não disponível"
		}
		result.PossibleConditions = append(result.PossibleConditions, diagnosis.ScoredCondition{
			Name:             name,
			Probability:      cond.Probability,
			Description:      desc,
			MatchingSymptoms: append([]string(nil), mapped...),
		})
	}
	return &result, nil
}

func triageRecommendations(shouldStop bool, level string) []string {
	recs := []string{}
	if shouldStop {
		recs = append(recs, "Pare de adicionar sintomas e veja as recomendações")
	}
	switch level {
	case "emergency", "emergency_ambulance":
		recs = append(recs, "Procure atendimento de emergência imediatamente")
	case "consultation_24", "acute":
		recs = append(recs, "Marque uma consulta médica o mais rápido possível")
	case "consultation":
		recs = append(recs, "Agende uma consulta médica")
	case "self_care":
		recs = append(recs, "Os sintomas podem ser tratados com autocuidado")
	}
	return recs
}
