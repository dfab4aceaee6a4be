package terminology

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rr015/namaste-icd11-service/internal/domain/audit"
	"github.com/rr015/namaste-icd11-service/internal/domain/consent"
	"github.com/rr015/namaste-icd11-service/internal/platform/auth"
	"github.com/rr015/namaste-icd11-service/internal/platform/fhir"
)

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query          string          `json:"query"`
	System         string          `json:"system,omitempty"`
	Limit          int             `json:"limit"`
	PatientID      string          `json:"patient_id,omitempty"`
	ConsentID      string          `json:"consent_id,omitempty"`
	PatientContext *PatientContext `json:"patient_context,omitempty"`
}

// TranslateRequest is the POST /translate body.
type TranslateRequest struct {
	Code         string `json:"code"`
	SourceSystem string `json:"source_system"`
	TargetSystem string `json:"target_system"`
	ConsentID    string `json:"consent_id,omitempty"`
}

// ImportRequest is the POST /admin/import/csv body.
type ImportRequest struct {
	CSVContent  string `json:"csv_content"`
	Description string `json:"description,omitempty"`
}

// CSVParser turns an uploaded CSV document into term records. The concrete
// parser lives in the platform layer and is injected at wiring time.
type CSVParser func(r io.Reader) ([]TermRecord, error)

// Handler provides REST and FHIR endpoints for the terminology engine.
type Handler struct {
	svc      *Service
	audit    *audit.Store
	consents *consent.Store
	parseCSV CSVParser
}

// NewHandler creates a new terminology handler. parseCSV may be nil; the CSV
// import endpoint then reports itself unavailable.
func NewHandler(svc *Service, auditStore *audit.Store, consents *consent.Store, parseCSV CSVParser) *Handler {
	return &Handler{svc: svc, audit: auditStore, consents: consents, parseCSV: parseCSV}
}

// RegisterRoutes registers terminology routes on the API and FHIR groups.
func (h *Handler) RegisterRoutes(api *echo.Group, fhirGroup *echo.Group) {
	read := auth.RequirePermission(auth.PermReadTerminology)
	api.POST("/search", h.Search, read)
	api.GET("/autocomplete", h.Autocomplete, read)
	api.POST("/translate", h.Translate, read)
	api.GET("/code/:system/:code", h.GetCode, read)
	api.GET("/export/:system", h.Export, read)

	admin := api.Group("/admin")
	admin.POST("/import/csv", h.ImportCSV, auth.RequirePermission(auth.PermAdminSystem))
	admin.POST("/sync/who", h.SyncWHO, auth.RequirePermission(auth.PermSyncWHO))
	admin.GET("/versions", h.Versions, auth.RequirePermission(auth.PermAdminSystem))

	fhirGroup.GET("/CodeSystem/:system", h.FHIRCodeSystem, read)
	fhirGroup.GET("/ConceptMap/:source/to/:target", h.FHIRConceptMap, read)
}

// Search handles POST /api/v1/search.
func (h *Handler) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if err := h.verifyConsent(req.ConsentID); err != nil {
		return err
	}

	results, err := h.svc.Search(c.Request().Context(), req.Query, req.System, req.PatientContext, req.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.record(c, audit.ActionSearch, "terminology", map[string]any{
		"query":        req.Query,
		"system":       req.System,
		"patient_id":   req.PatientID,
		"consent_id":   req.ConsentID,
		"result_count": len(results),
	})
	return c.JSON(http.StatusOK, results)
}

// Autocomplete handles GET /api/v1/autocomplete?prefix=...&system=...&limit=...
func (h *Handler) Autocomplete(c echo.Context) error {
	prefix := c.QueryParam("prefix")
	if prefix == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'prefix' is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	results, err := h.svc.Autocomplete(c.Request().Context(), prefix, c.QueryParam("system"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, results)
}

// Translate handles POST /api/v1/translate.
func (h *Handler) Translate(c echo.Context) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.verifyConsent(req.ConsentID); err != nil {
		return err
	}

	result, err := h.svc.Translate(req.Code, req.SourceSystem, req.TargetSystem)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "translation not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.record(c, audit.ActionTranslate, "terminology", map[string]any{
		"code":       req.Code,
		"direction":  req.SourceSystem + "->" + req.TargetSystem,
		"confidence": result.Confidence,
		"consent_id": req.ConsentID,
	})
	return c.JSON(http.StatusOK, result)
}

// GetCode handles GET /api/v1/code/:system/:code.
func (h *Handler) GetCode(c echo.Context) error {
	rec, err := h.svc.GetCode(c.Param("system"), c.Param("code"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.record(c, audit.ActionLookup, "terminology", map[string]any{
		"system": c.Param("system"),
		"code":   c.Param("code"),
	})
	return c.JSON(http.StatusOK, rec)
}

// Export handles GET /api/v1/export/:system.
func (h *Handler) Export(c echo.Context) error {
	records, version, err := h.svc.Export(c.Param("system"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"system":  c.Param("system"),
		"version": version,
		"count":   len(records),
		"records": records,
	})
}

// ImportCSV handles POST /api/v1/admin/import/csv.
func (h *Handler) ImportCSV(c echo.Context) error {
	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CSVContent == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "csv_content is required")
	}
	if h.parseCSV == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "csv import is not configured")
	}

	records, err := h.parseCSV(strings.NewReader(req.CSVContent))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	version, err := h.svc.ImportRecords(records, req.Description)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.record(c, audit.ActionImport, "terminology", map[string]any{
		"record_count": len(records),
		"new_version":  version.Version,
		"description":  req.Description,
	})
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "imported",
		"imported_count": len(records),
		"new_version":    version.Version,
	})
}

// SyncWHO handles POST /api/v1/admin/sync/who. An unreachable upstream is a
// normal outcome reported in the body, not a gateway error.
func (h *Handler) SyncWHO(c echo.Context) error {
	result, err := h.svc.SyncExternal(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	details := map[string]any{
		"synced":    result.Synced,
		"tm2_count": result.TM2Count,
		"bio_count": result.BIOCount,
	}
	if result.Version != nil {
		details["new_version"] = result.Version.Version
	}
	h.record(c, audit.ActionSync, "terminology", details)
	return c.JSON(http.StatusOK, result)
}

// Versions handles GET /api/v1/admin/versions.
func (h *Handler) Versions(c echo.Context) error {
	versions := h.svc.Versions()
	return c.JSON(http.StatusOK, map[string]any{
		"total":    len(versions),
		"versions": versions,
	})
}

// FHIRCodeSystem handles GET /fhir/CodeSystem/:system.
func (h *Handler) FHIRCodeSystem(c echo.Context) error {
	systemParam := c.Param("system")
	records, version, err := h.svc.Export(systemParam)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}

	versionFilter := c.QueryParam("version")
	concepts := make([]fhir.Concept, 0, len(records))
	for _, rec := range records {
		if versionFilter != "" && rec.Version != versionFilter {
			continue
		}
		concept := fhir.Concept{
			Code:       rec.Code,
			Display:    rec.Display,
			Definition: rec.Definition,
		}
		for _, syn := range rec.Synonyms {
			concept.Designation = append(concept.Designation, fhir.SynonymDesignation(syn))
		}
		concepts = append(concepts, concept)
	}

	name, url := codeSystemIdentity(System(systemParam))
	resourceVersion := versionFilter
	if resourceVersion == "" {
		resourceVersion = version.Version
	}
	return c.JSON(http.StatusOK, fhir.CodeSystem(systemParam, name, url, resourceVersion, concepts))
}

// FHIRConceptMap handles GET /fhir/ConceptMap/:source/to/:target.
func (h *Handler) FHIRConceptMap(c echo.Context) error {
	source := c.Param("source")
	target := c.Param("target")

	mappings, err := h.svc.Mappings(source, target)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}

	elements := make([]fhir.MapElement, 0, len(mappings))
	for _, m := range mappings {
		elements = append(elements, fhir.MapElement{
			Code:   m.SourceCode,
			Target: []fhir.MapTarget{fhir.EquivalentTarget(m.TargetCode, m.Confidence)},
		})
	}

	_, sourceURL := codeSystemIdentity(System(source))
	_, targetURL := codeSystemIdentity(System(target))
	return c.JSON(http.StatusOK, fhir.ConceptMap(source, target, sourceURL, targetURL, elements))
}

// codeSystemIdentity returns the display name and canonical URL of a system.
func codeSystemIdentity(system System) (name, url string) {
	switch system {
	case SystemNAMASTE:
		return "NAMASTE", fhir.NAMASTESystemURL
	case SystemTM2:
		return "ICD-11 TM2", fhir.TM2SystemURL
	default:
		return "ICD-11", fhir.BIOSystemURL
	}
}

// verifyConsent rejects the request when a consent id is supplied but is
// unknown or inactive. Requests without a consent id pass through.
func (h *Handler) verifyConsent(consentID string) error {
	if consentID == "" {
		return nil
	}
	if h.consents == nil || !h.consents.Verify(consentID) {
		return echo.NewHTTPError(http.StatusForbidden, "valid consent required")
	}
	return nil
}

func (h *Handler) record(c echo.Context, action, resource string, details map[string]any) {
	h.audit.Record(auth.UserIDFromContext(c.Request().Context()), action, resource, details)
}
