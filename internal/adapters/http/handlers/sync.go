package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/app"
)

// SyncHandler exposes the sync engine.
type SyncHandler struct {
	engine *app.SyncEngine
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(engine *app.SyncEngine) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// Trigger handles POST /api/v1/sync. It runs one cycle and returns its
// result: 409 while another cycle is in flight, 503 when the quote server
// cannot be reached. The cycle is detached from the client's cancellation
// so a dropped connection does not turn into a failed sync for everyone.
func (h *SyncHandler) Trigger(c *gin.Context) {
	result, err := h.engine.SyncNow(context.WithoutCancel(c.Request.Context()))
	if _, failed := app.StageOf(err); failed {
		dto.Respond(c, dto.ErrorCodeUnavailable, result.Message)
		return
	}

	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status handles GET /api/v1/sync/status.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

type conflictsResponse struct {
	Conflicts []conflictResponse `json:"conflicts"`
}

type conflictResponse struct {
	Local  dto.QuoteResponse `json:"local"`
	Remote dto.QuoteResponse `json:"remote"`
}

// Conflicts handles GET /api/v1/sync/conflicts.
func (h *SyncHandler) Conflicts(c *gin.Context) {
	conflicts := h.engine.Conflicts()

	resp := conflictsResponse{Conflicts: make([]conflictResponse, len(conflicts))}
	for i, conflict := range conflicts {
		resp.Conflicts[i] = conflictResponse{
			Local:  dto.NewQuoteResponse(conflict.Local),
			Remote: dto.NewQuoteResponse(conflict.Remote),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterSyncRoutes registers sync routes on the given router group.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.POST("", h.Trigger)
	sync.GET("/status", h.Status)
	sync.GET("/conflicts", h.Conflicts)
}
