package consent

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rr015/namaste-icd11-service/internal/domain/audit"
	"github.com/rr015/namaste-icd11-service/internal/platform/auth"
)

// Handler exposes the consent registry.
type Handler struct {
	store *Store
	audit *audit.Store
}

// NewHandler creates a new consent handler.
func NewHandler(store *Store, auditStore *audit.Store) *Handler {
	return &Handler{store: store, audit: auditStore}
}

// RegisterRoutes registers consent routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/consent", h.Create)
	api.GET("/consent/:id", h.Get)
}

// Create handles POST /api/v1/consent.
func (h *Handler) Create(c echo.Context) error {
	var req Consent
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.store.Create(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.audit.Record(auth.UserIDFromContext(c.Request().Context()),
		audit.ActionConsent, "consent", map[string]any{
			"consent_id": created.ConsentID,
			"patient_id": created.PatientID,
			"purpose":    created.Purpose,
		})
	return c.JSON(http.StatusCreated, map[string]string{
		"status":     "created",
		"consent_id": created.ConsentID,
	})
}

// Get handles GET /api/v1/consent/:id.
func (h *Handler) Get(c echo.Context) error {
	consent, err := h.store.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, consent)
}
