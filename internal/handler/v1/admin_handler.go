package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
)

type setRolesRequest struct {
	Roles []domain.Role `json:"roles" binding:"required"`
}

type createAdminRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type userResponse struct {
	ID        uuid.UUID     `json:"id"`
	Email     string        `json:"email"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Roles     []domain.Role `json:"roles"`
	DoctorID  *uuid.UUID    `json:"doctor_id,omitempty"`
	PatientID *uuid.UUID    `json:"patient_id,omitempty"`
	IsActive  bool          `json:"is_active"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     u.Roles,
		DoctorID:  u.DoctorID,
		PatientID: u.PatientID,
		IsActive:  u.IsActive,
	}
}

type auditLogResponse struct {
	ID           uuid.UUID          `json:"id"`
	OccurredAt   time.Time          `json:"occurred_at"`
	UserID       uuid.UUID          `json:"user_id"`
	UserRoles    string             `json:"user_roles"`
	IPAddress    string             `json:"ip_address,omitempty"`
	Action       domain.AuditAction `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   string             `json:"resource_id,omitempty"`
	RequestID    string             `json:"request_id,omitempty"`
	Changes      string             `json:"changes,omitempty"`
}

type accessResponse struct {
	Allowed bool   `json:"allowed"`
	Rule    string `json:"rule"`
	Reason  string `json:"reason"`
}

func (h *Handler) SetRoles(c *gin.Context) {
	userID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req setRolesRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.d.Admin.SetRoles(c.Request.Context(), actor(c), userID, req.Roles)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toUserResponse(u))
}

func (h *Handler) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.d.Admin.CreateAdmin(c.Request.Context(), actor(c), &service.CreateAdminCommand{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCreated(c, toUserResponse(u))
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	q := &domain.ListAuditLogsQuery{
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Page:         parseQueryInt(c, "page", 1),
		PageSize:     parseQueryInt(c, "page_size", 50),
	}
	var ok bool
	if q.UserID, ok = parseOptionalUUID(c, "user_id"); !ok {
		return
	}

	page, err := h.d.Admin.ListAuditLogs(c.Request.Context(), actor(c), q)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	items := make([]auditLogResponse, len(page.Entries))
	for i, e := range page.Entries {
		items[i] = auditLogResponse{
			ID:           e.ID,
			OccurredAt:   e.OccurredAt,
			UserID:       e.UserID,
			UserRoles:    e.UserRoles,
			IPAddress:    e.IPAddress,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			RequestID:    e.RequestID,
			Changes:      e.Changes,
		}
	}
	c.JSON(http.StatusOK, PagedResponse[auditLogResponse]{
		Data:       items,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
	})
}

// CheckAccess answers GET /resources/:type/:id/access?operation=read with
// the policy decision. A deny is a 200 with allowed=false.
func (h *Handler) CheckAccess(c *gin.Context) {
	t, err := access.ParseResourceType(c.Param("type"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	op := access.Operation(c.DefaultQuery("operation", string(access.OpRead)))

	d, err := h.d.Resources.Authorize(c.Request.Context(), actor(c), t, id, op)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, accessResponse{Allowed: d.Allowed, Rule: d.Rule, Reason: d.Reason})
}

type doctorResponse struct {
	ID          uuid.UUID  `json:"id"`
	FullName    string     `json:"full_name"`
	SpecialtyID *uuid.UUID `json:"specialty_id,omitempty"`
}

func (h *Handler) ListDoctors(c *gin.Context) {
	q := &doctor.ListDoctorsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	var ok bool
	if q.SpecialtyID, ok = parseOptionalUUID(c, "specialty_id"); !ok {
		return
	}

	doctors, total, err := h.d.Directory.ListDoctors(c.Request.Context(), actor(c), q)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	items := make([]doctorResponse, len(doctors))
	for i, d := range doctors {
		items[i] = doctorResponse{ID: d.ID, FullName: d.FullName(), SpecialtyID: d.SpecialtyID}
	}
	c.JSON(http.StatusOK, PagedResponse[doctorResponse]{
		Data:       items,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
}

func (h *Handler) ListSpecialties(c *gin.Context) {
	specialties, err := h.d.Directory.ListSpecialties(c.Request.Context(), actor(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, specialties)
}
