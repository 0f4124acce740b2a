package assessment

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"mediassist/internal/diagnosis"
	"mediassist/internal/platform/httpx"
	"mediassist/internal/provider"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req DiagnoseRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	symptoms, err := diagnosis.ParseSymptoms(req.Symptoms)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeInvalidInput, err.Error(), nil)
		return
	}

	pid, err := uuid.Parse(req.PatientID)
	if err != nil {
		// Anonymous checks get a fresh patient id
		pid = uuid.New()
	}

	resp, err := h.svc.Diagnose(r.Context(), DiagnoseInput{
		Symptoms:  symptoms,
		PatientID: pid,
		Age:       req.Age,
		Sex:       req.Sex,
		UF:        req.UF,
		Save:      req.Save,
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "Diagnosis failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Symptoms(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string][]string{"symptoms": h.svc.Symptoms()})
}

func (h *Handler) Conditions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string][]diagnosis.Condition{"conditions": h.svc.Conditions()})
}

func (h *Handler) Treatment(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeInvalidInput, "Invalid condition name", nil)
		return
	}
	name = norm.NFC.String(name)

	t, err := h.svc.Treatment(r.Context(), name)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, t)
	case errors.Is(err, ErrUnknownCondition), errors.Is(err, provider.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound, "No treatment information for condition", name)
	case errors.Is(err, diagnosis.ErrUnavailable):
		httpx.Error(w, http.StatusServiceUnavailable, httpx.CodeUnavailable, "Drug information unavailable", nil)
	default:
		httpx.Error(w, http.StatusBadGateway, httpx.CodeUnavailable, "Drug lookup failed", err.Error())
	}
}

func (h *Handler) SaveAssessment(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	// Client supplied results get the same clamping and ordering as scored ones
	result := diagnosis.Normalize(diagnosis.Result{
		PossibleConditions: req.PossibleConditions,
		Recommendations:    req.Recommendations,
		AnalyzedSymptoms:   req.AnalyzedSymptoms,
	})
	a := &Assessment{
		PatientID:       uuid.MustParse(req.PatientID),
		Conditions:      result.PossibleConditions,
		Recommendations: result.Recommendations,
		Symptoms:        result.AnalyzedSymptoms,
		Source:          req.Source,
		UF:              strings.ToUpper(req.UF),
	}
	if err := h.svc.Save(r.Context(), a); err != nil {
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "Failed to save assessment", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound, "Assessment not found", nil)
			return
		}
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "Failed to load assessment", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) PatientHistory(w http.ResponseWriter, r *http.Request) {
	pid, ok := parseID(w, r, "patient_id")
	if !ok {
		return
	}

	list, err := h.svc.History(r.Context(), pid)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "Failed to load history", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assessments": list})
}

func (h *Handler) SendReport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	err := h.svc.SendReport(r.Context(), id)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound, "Assessment not found", nil)
	case errors.Is(err, diagnosis.ErrUnavailable):
		httpx.Error(w, http.StatusServiceUnavailable, httpx.CodeUnavailable, "Report delivery is not configured", nil)
	default:
		httpx.Error(w, http.StatusBadGateway, httpx.CodeUnavailable, "Report delivery failed", err.Error())
	}
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeInvalidInput, "Invalid "+param, nil)
		return uuid.Nil, false
	}
	return id, true
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/diagnosis", h.Diagnose)
	r.Get("/symptoms", h.Symptoms)
	r.Get("/conditions", h.Conditions)
	r.Get("/conditions/{name}/treatment", h.Treatment)
	r.Post("/assessments", h.SaveAssessment)
	r.Get("/assessments/{id}", h.GetAssessment)
	r.Post("/assessments/{id}/report", h.SendReport)
	r.Get("/patients/{patient_id}/assessments", h.PatientHistory)
}
