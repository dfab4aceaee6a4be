package audit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rr015/namaste-icd11-service/internal/platform/auth"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	store *Store
}

// NewHandler creates a new audit handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers audit routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/audit/logs", h.List, auth.RequirePermission(auth.PermAdminSystem))
}

// List handles GET /api/v1/audit/logs?user_id=&action=&limit=.
func (h *Handler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries := h.store.List(c.QueryParam("user_id"), c.QueryParam("action"), limit)
	return c.JSON(http.StatusOK, map[string]any{
		"total":   h.store.Len(),
		"entries": entries,
	})
}
