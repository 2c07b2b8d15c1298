package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
)

type addBlockRequest struct {
	Weekday string `json:"weekday" binding:"required"`
	Start   string `json:"start" binding:"required"`
	End     string `json:"end" binding:"required"`
}

type blockResponse struct {
	ID       uuid.UUID          `json:"id"`
	DoctorID uuid.UUID          `json:"doctor_id"`
	Weekday  string             `json:"weekday"`
	Start    schedule.TimeOfDay `json:"start"`
	End      schedule.TimeOfDay `json:"end"`
}

func toBlockResponse(b *schedule.Block) blockResponse {
	return blockResponse{
		ID:       b.ID,
		DoctorID: b.DoctorID,
		Weekday:  weekdayName(b.Weekday),
		Start:    b.Start,
		End:      b.End,
	}
}

func weekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

func (h *Handler) ListBlocks(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	blocks, err := h.d.Schedules.ListBlocks(c.Request.Context(), actor(c), doctorID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	out := make([]blockResponse, len(blocks))
	for i, b := range blocks {
		out[i] = toBlockResponse(b)
	}
	respondOK(c, out)
}

func (h *Handler) AddBlock(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req addBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	weekday, err := schedule.ParseWeekday(req.Weekday)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	start, err := schedule.ParseTimeOfDay(req.Start)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	end, err := schedule.ParseTimeOfDay(req.End)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	b, err := h.d.Schedules.AddBlock(c.Request.Context(), actor(c), &schedule.CreateBlockCommand{
		DoctorID: doctorID,
		Weekday:  weekday,
		Start:    start,
		End:      end,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCreated(c, toBlockResponse(b))
}

func (h *Handler) RemoveBlock(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.d.Schedules.RemoveBlock(c.Request.Context(), actor(c), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
