package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/clock"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/scheduling"
)

type slotsResponse struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Date           string    `json:"date"`
	AvailableSlots []string  `json:"available_slots"`
}

type bookAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID    uuid.UUID `json:"doctor_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Reason      string    `json:"reason"`
}

type changeStatusRequest struct {
	Status appointment.Status `json:"status" binding:"required"`
}

type appointmentResponse struct {
	ID          uuid.UUID          `json:"id"`
	PatientID   uuid.UUID          `json:"patient_id"`
	DoctorID    uuid.UUID          `json:"doctor_id"`
	ScheduledAt time.Time          `json:"scheduled_at"`
	Status      appointment.Status `json:"status"`
	Reason      string             `json:"reason,omitempty"`
	Version     int                `json:"version"`
	ConfirmedAt *time.Time         `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
	CancelledBy *uuid.UUID         `json:"cancelled_by,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toAppointmentResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    a.DoctorID,
		ScheduledAt: a.ScheduledAt,
		Status:      a.Status,
		Reason:      a.Reason,
		Version:     a.Version,
		ConfirmedAt: a.ConfirmedAt,
		CompletedAt: a.CompletedAt,
		CancelledAt: a.CancelledAt,
		CancelledBy: a.CancelledBy,
		CreatedAt:   a.CreatedAt,
	}
}

// GetAvailableSlots answers GET /doctors/:id/slots?date=YYYY-MM-DD. The
// body is unwrapped so clients read available_slots at the top level.
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	raw := c.Query("date")
	if raw == "" {
		respondError(c, http.StatusBadRequest, "date query parameter is required (YYYY-MM-DD)")
		return
	}
	date, err := clock.ParseDate(raw, h.d.Clock.Location())
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date: must be YYYY-MM-DD")
		return
	}

	slots, err := h.d.Scheduling.GetAvailableSlots(c.Request.Context(), actor(c), doctorID, date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, slotsResponse{
		DoctorID:       doctorID,
		Date:           date.Format(clock.DateLayout),
		AvailableSlots: scheduling.Labels(slots),
	})
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.d.Scheduling.BookAppointment(c.Request.Context(), actor(c), &appointment.CreateAppointmentCommand{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCreated(c, toAppointmentResponse(a))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.d.Scheduling.GetAppointment(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	var ok bool
	if q.PatientID, ok = parseOptionalUUID(c, "patient_id"); !ok {
		return
	}
	if q.DoctorID, ok = parseOptionalUUID(c, "doctor_id"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.Status(raw)
		if !st.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid status")
			return
		}
		q.Status = &st
	}
	for key, dst := range map[string]**time.Time{"from": &q.DateFrom, "to": &q.DateTo} {
		if raw := c.Query(key); raw != "" {
			d, err := clock.ParseDate(raw, h.d.Clock.Location())
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid "+key+": must be YYYY-MM-DD")
				return
			}
			*dst = &d
		}
	}

	page, err := h.d.Scheduling.ListAppointments(c.Request.Context(), actor(c), q)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	items := make([]appointmentResponse, len(page.Appointments))
	for i, a := range page.Appointments {
		items[i] = toAppointmentResponse(a)
	}
	c.JSON(http.StatusOK, PagedResponse[appointmentResponse]{
		Data:       items,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
	})
}

func (h *Handler) ChangeAppointmentStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req changeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.d.Scheduling.ChangeAppointmentStatus(c.Request.Context(), actor(c), id, req.Status)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.d.Scheduling.DeleteAppointment(c.Request.Context(), actor(c), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
