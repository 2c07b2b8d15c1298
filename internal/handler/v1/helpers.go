package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type PagedResponse[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// hiddenNotFound is the one body served for denials and misses alike when
// HideForbidden is set.
var hiddenNotFound = ErrorResponse{Error: "not found", Code: "NOT_FOUND"}

func isNotFound(err error) bool {
	return errors.Is(err, appointment.ErrAppointmentNotFound) ||
		errors.Is(err, doctor.ErrDoctorNotFound) ||
		errors.Is(err, patient.ErrPatientNotFound) ||
		errors.Is(err, schedule.ErrBlockNotFound) ||
		errors.Is(err, domain.ErrUserNotFound) ||
		errors.Is(err, access.ErrResourceNotFound)
}

// respondServiceError maps service errors to HTTP. With HideForbidden a
// denial is byte-for-byte indistinguishable from a missing resource.
func (h *Handler) respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case h.d.HideForbidden && (errors.Is(err, domain.ErrForbidden) || isNotFound(err)):
		c.JSON(http.StatusNotFound, hiddenNotFound)

	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied", Code: "FORBIDDEN"})

	case isNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})

	case errors.Is(err, appointment.ErrSlotTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:     err.Error(),
			Code:      "SLOT_TAKEN",
			Retryable: true,
		})

	case errors.Is(err, appointment.ErrStatusConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "STATUS_CONFLICT", Retryable: true})

	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "EMAIL_TAKEN"})

	case errors.Is(err, appointment.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_TRANSITION"})

	case errors.Is(err, appointment.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_DATE"})

	case errors.Is(err, appointment.ErrOutsideAvailability),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, schedule.ErrInvalidBlock),
		errors.Is(err, schedule.ErrInvalidTimeOfDay),
		errors.Is(err, schedule.ErrInvalidWeekday),
		errors.Is(err, patient.ErrPatientInactive):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})

	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalUUID reads a query parameter. ok is false when it is present
// but malformed, in which case a 400 has been written.
func parseOptionalUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + key + ": must be a valid UUID"})
		return nil, false
	}
	return &id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// actor is the caller set by the auth middleware; anonymous if none.
func actor(c *gin.Context) domain.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}
