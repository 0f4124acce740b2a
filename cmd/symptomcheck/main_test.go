package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

type scoreOutput struct {
	PossibleConditions []struct {
		Name        string  `json:"name"`
		Probability float64 `json:"probability"`
	} `json:"possible_conditions"`
	Recommendations  []string `json:"recommendations"`
	AnalyzedSymptoms []string `json:"analyzed_symptoms"`
	Source           string   `json:"source"`
}

func TestScoreLocalJSON(t *testing.T) {
	out, err := execute(t, "score", "febre", "tosse", "-o", "json")
	require.NoError(t, err)

	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got.PossibleConditions)
	assert.Equal(t, "Gripe", got.PossibleConditions[0].Name)
	assert.Equal(t, "catalog", got.Source)
	assert.Equal(t, []string{"febre", "tosse"}, got.AnalyzedSymptoms)
}

func TestScoreNormalizesInput(t *testing.T) {
	out, err := execute(t, "score", "  vômito ", "-o", "json")
	require.NoError(t, err)

	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.PossibleConditions, 1)
	assert.Equal(t, "Gastrite", got.PossibleConditions[0].Name)
	assert.Equal(t, []string{"  vômito "}, got.AnalyzedSymptoms)
}

func TestScoreWithRegionalCases(t *testing.T) {
	out, err := execute(t, "score", "febre", "--cases", "5000", "-o", "json")
	require.NoError(t, err)

	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "COVID-19", got.PossibleConditions[0].Name)
	assert.InDelta(t, 0.8, got.PossibleConditions[0].Probability, 1e-9)
}

func TestScoreRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "score", "febre", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestScoreRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/diagnosis", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SP", body["uf"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"possible_conditions": [
				{"name": "Asma", "probability": 0.2, "description": "", "matching_symptoms": []},
				{"name": "COVID-19", "probability": 0.6, "description": "", "matching_symptoms": []}
			],
			"recommendations": ["Descanse o suficiente"],
			"analyzed_symptoms": ["febre"],
			"source": "infermedica"
		}`))
	}))
	defer srv.Close()

	out, err := execute(t, "score", "febre", "--server", srv.URL, "--uf", "SP", "-o", "json")
	require.NoError(t, err)

	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "infermedica", got.Source)
	assert.Equal(t, "COVID-19", got.PossibleConditions[0].Name)
}

func TestScoreRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := execute(t, "score", "febre", "--server", srv.URL, "-o", "json")
	assert.ErrorContains(t, err, "server error")
}

func TestSymptomsCommand(t *testing.T) {
	out, err := execute(t, "symptoms", "-o", "json")
	require.NoError(t, err)

	var got map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got["symptoms"], "chiado no peito")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "symptomcheck version")
}
