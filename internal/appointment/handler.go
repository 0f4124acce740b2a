package appointment

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mediassist/internal/platform/httpx"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"doctors": h.svc.Doctors(q.Get("specialty"), q.Get("type")),
		"slots":   SlotTimes,
	})
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !httpx.Decode(w, r, &req) {
		return
	}

	a, err := h.svc.Book(r.Context(), req)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusCreated, a)
	case errors.Is(err, ErrDoctorNotFound):
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound, "Doctor not found", nil)
	case errors.Is(err, ErrSlotTaken):
		httpx.Error(w, http.StatusConflict, httpx.CodeConflict, "Slot already booked", map[string]string{
			"date": req.Date,
			"time": req.Time,
		})
	case errors.Is(err, ErrInvalidSlot):
		httpx.Error(w, http.StatusBadRequest, httpx.CodeInvalidInput, err.Error(), SlotTimes)
	case errors.Is(err, ErrPastDate):
		httpx.Error(w, http.StatusBadRequest, httpx.CodeInvalidInput, err.Error(), nil)
	default:
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "Failed to book appointment", nil)
	}
}

func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	pid, err := uuid.Parse(chi.URLParam(r, "patient_id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeInvalidInput, "Invalid patient_id", nil)
		return
	}

	list, err := h.svc.ListByPatient(r.Context(), pid)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, "Failed to load appointments", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"appointments": list})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/doctors", h.ListDoctors)
	r.Post("/appointments", h.Book)
	r.Get("/patients/{patient_id}/appointments", h.ListByPatient)
}
