package fhir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type CodeableConcept struct {
	Text string `json:"text"`
}

type Reference struct {
	Reference string `json:"reference"`
}

type Evidence struct {
	Code []CodeableConcept `json:"code"`
}

// Condition is the subset of the FHIR R4 Condition resource we record.
type Condition struct {
	ResourceType string          `json:"resourceType"`
	ID           string          `json:"id,omitempty"`
	Code         CodeableConcept `json:"code"`
	Subject      Reference       `json:"subject"`
	Evidence     []Evidence      `json:"evidence,omitempty"`
	Note         []Annotation    `json:"note,omitempty"`
	RecordedDate string          `json:"recordedDate"`
}

type Annotation struct {
	Text string `json:"text"`
}

// NewCondition builds a Condition for a patient with one evidence entry
// per reported symptom.
func NewCondition(patientID, name string, symptoms []string, recordedAt time.Time) Condition {
	c := Condition{
		ResourceType: "Condition",
		Code:         CodeableConcept{Text: name},
		Subject:      Reference{Reference: "Patient/" + patientID},
		RecordedDate: recordedAt.UTC().Format(time.RFC3339),
	}
	for _, s := range symptoms {
		c.Evidence = append(c.Evidence, Evidence{Code: []CodeableConcept{{Text: s}}})
	}
	return c
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// CreateCondition posts the resource and returns the server-assigned id.
func (c *Client) CreateCondition(ctx context.Context, cond Condition) (string, error) {
	jsonBody, err := json.Marshal(cond)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Condition", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/fhir+json")
	req.Header.Set("Accept", "application/fhir+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fhir request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("fhir server error: %s - %s", resp.Status, string(body))
	}

	var created Condition
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode fhir response: %w", err)
	}
	return created.ID, nil
}
