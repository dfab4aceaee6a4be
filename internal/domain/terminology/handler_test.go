package terminology

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rr015/namaste-icd11-service/internal/domain/audit"
	"github.com/rr015/namaste-icd11-service/internal/domain/consent"
)

// testCSVParser stands in for the platform CSV parser: code, display_name,
// definition, synonyms, icd11_tm2_code, mapping_confidence columns in order.
func testCSVParser(r io.Reader) ([]TermRecord, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	var records []TermRecord
	for _, row := range rows[1:] {
		confidence, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, err
		}
		records = append(records, TermRecord{
			ID:                "NAMASTE_" + row[0],
			Code:              row[0],
			Display:           row[1],
			Definition:        row[2],
			Synonyms:          strings.Split(row[3], ";"),
			System:            SystemNAMASTE,
			MappedTM2Code:     row[4],
			MappingConfidence: confidence,
			MappingSource:     MappingSourceManual,
		})
	}
	return records, nil
}

func newTestHandler(t *testing.T) (*Handler, *audit.Store, *consent.Store) {
	t.Helper()
	store := newSeededStore(t)
	auditStore := audit.NewStore()
	consentStore := consent.NewStore()
	svc := NewService(store, nil, nil)
	return NewHandler(svc, auditStore, consentStore, testCSVParser), auditStore, consentStore
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, path, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	err := handler(c)
	if err != nil {
		var httpErr *echo.HTTPError
		if ok := errorAs(err, &httpErr); ok {
			rec.Code = httpErr.Code
		} else {
			t.Fatalf("handler error: %v", err)
		}
	}
	return rec
}

func errorAs(err error, target **echo.HTTPError) bool {
	he, ok := err.(*echo.HTTPError)
	if ok {
		*target = he
	}
	return ok
}

func TestHandlerSearch_ReturnsRankedResults(t *testing.T) {
	h, auditStore, _ := newTestHandler(t)

	rec := doJSON(t, h.Search, http.MethodPost, "/api/v1/search",
		`{"query":"jwara","limit":5}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var results []SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) == 0 || results[0].Code != "AY001" {
		t.Errorf("unexpected results: %+v", results)
	}
	if auditStore.Len() != 1 {
		t.Errorf("expected one audit entry, got %d", auditStore.Len())
	}
}

func TestHandlerSearch_SystemFilter(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := doJSON(t, h.Search, http.MethodPost, "/api/v1/search",
		`{"query":"fever","system":"icd11_bio"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var results []SearchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected biomedicine hits for 'fever'")
	}
	for _, res := range results {
		if res.System != SystemBIO {
			t.Errorf("filtered search leaked %q result %s", res.System, res.Code)
		}
	}

	rec = doJSON(t, h.Search, http.MethodPost, "/api/v1/search",
		`{"query":"fever","system":"icd10"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid filter: status = %d, want 400", rec.Code)
	}
}

func TestHandlerSearch_RequiresQuery(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rec := doJSON(t, h.Search, http.MethodPost, "/api/v1/search", `{"query":"  "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerSearch_RejectsInactiveConsent(t *testing.T) {
	h, _, consents := newTestHandler(t)

	rec := doJSON(t, h.Search, http.MethodPost, "/api/v1/search",
		`{"query":"fever","consent_id":"missing"}`, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("unknown consent: status = %d, want 403", rec.Code)
	}

	created, err := consents.Create(consent.Consent{
		PatientID: "patient-1",
		Purpose:   "treatment",
		ValidFrom: time.Now().Add(-time.Hour),
		ValidTo:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create consent: %v", err)
	}

	rec = doJSON(t, h.Search, http.MethodPost, "/api/v1/search",
		`{"query":"fever","consent_id":"`+created.ConsentID+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("active consent: status = %d, want 200", rec.Code)
	}
}

func TestHandlerTranslate_NotFoundMapsTo404(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := doJSON(t, h.Translate, http.MethodPost, "/api/v1/translate",
		`{"code":"AY003","source_system":"namaste","target_system":"icd11_tm2"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	// same-system translation is a lookup miss, not a bad request
	rec = doJSON(t, h.Translate, http.MethodPost, "/api/v1/translate",
		`{"code":"AY001","source_system":"namaste","target_system":"namaste"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("same-system: status = %d, want 404", rec.Code)
	}
}

func TestHandlerTranslate_Success(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := doJSON(t, h.Translate, http.MethodPost, "/api/v1/translate",
		`{"code":"AY001","source_system":"namaste","target_system":"icd11_tm2"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result TranslateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.TargetCode != "TM26.0" || !approx(result.Confidence, 0.9) {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestHandlerGetCode(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := doJSON(t, h.GetCode, http.MethodGet, "/api/v1/code/namaste/AY001", "",
		map[string]string{"system": "namaste", "code": "AY001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h.GetCode, http.MethodGet, "/api/v1/code/namaste/NOPE", "",
		map[string]string{"system": "namaste", "code": "NOPE"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h.GetCode, http.MethodGet, "/api/v1/code/icd10/AY001", "",
		map[string]string{"system": "icd10", "code": "AY001"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid system: status = %d, want 400", rec.Code)
	}
}

func TestHandlerImportCSV_CreatesVersion(t *testing.T) {
	h, auditStore, _ := newTestHandler(t)

	csv := "code,display_name,definition,synonyms,icd11_tm2_code,mapping_confidence\n" +
		"AY200,Kasa,Cough disorder,kasa;cough,TM26.2,0.85\n"
	body, _ := json.Marshal(ImportRequest{CSVContent: csv, Description: "cough batch"})

	rec := doJSON(t, h.ImportCSV, http.MethodPost, "/api/v1/admin/import/csv", string(body), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["new_version"] != "1.0.1" {
		t.Errorf("new_version = %v, want 1.0.1", resp["new_version"])
	}
	if resp["imported_count"] != float64(1) {
		t.Errorf("imported_count = %v, want 1", resp["imported_count"])
	}
	if auditStore.Len() != 1 {
		t.Errorf("expected audit entry for import")
	}

	// imported record is now searchable
	lookup := doJSON(t, h.GetCode, http.MethodGet, "/api/v1/code/namaste/AY200", "",
		map[string]string{"system": "namaste", "code": "AY200"})
	if lookup.Code != http.StatusOK {
		t.Errorf("imported code not found: %d", lookup.Code)
	}
}

func TestHandlerImportCSV_NotConfigured(t *testing.T) {
	svc := NewService(newSeededStore(t), nil, nil)
	h := NewHandler(svc, audit.NewStore(), consent.NewStore(), nil)

	rec := doJSON(t, h.ImportCSV, http.MethodPost, "/api/v1/admin/import/csv",
		`{"csv_content":"code,display_name\nAY200,Kasa\n"}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandlerVersions(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := doJSON(t, h.Versions, http.MethodGet, "/api/v1/admin/versions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Total    int              `json:"total"`
		Versions []DatasetVersion `json:"versions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Versions[0].Version != "1.0.0" {
		t.Errorf("unexpected versions: %+v", resp)
	}
}

func TestHandlerSyncWHO_ReportsOutcome(t *testing.T) {
	store := newSeededStore(t)
	external := &fakeExternal{
		tm2: []RawEntity{{ID: "e1", Code: "TM26.A", Title: "Synced disorder", Chapter: "26"}},
	}
	svc := NewService(store, external, nil)
	h := NewHandler(svc, audit.NewStore(), consent.NewStore(), nil)

	rec := doJSON(t, h.SyncWHO, http.MethodPost, "/api/v1/admin/sync/who", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result SyncResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Synced || result.TM2Count != 1 {
		t.Errorf("unexpected sync result: %+v", result)
	}

	// an unreachable upstream still answers 200, with synced=false
	h = NewHandler(NewService(store, &fakeExternal{err: errUpstream}, nil),
		audit.NewStore(), consent.NewStore(), nil)
	rec = doJSON(t, h.SyncWHO, http.MethodPost, "/api/v1/admin/sync/who", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Synced {
		t.Errorf("expected synced=false, got %+v", result)
	}
}

func TestHandlerFHIRCodeSystem(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := doJSON(t, h.FHIRCodeSystem, http.MethodGet, "/fhir/CodeSystem/namaste", "",
		map[string]string{"system": "namaste"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resource map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resource); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resource["resourceType"] != "CodeSystem" {
		t.Errorf("resourceType = %v", resource["resourceType"])
	}
	if resource["name"] != "NAMASTE" {
		t.Errorf("name = %v", resource["name"])
	}
	concepts, _ := resource["concept"].([]any)
	if len(concepts) == 0 {
		t.Error("expected concepts in CodeSystem")
	}
}

func TestHandlerFHIRConceptMap(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := doJSON(t, h.FHIRConceptMap, http.MethodGet, "/fhir/ConceptMap/namaste/to/icd11_tm2", "",
		map[string]string{"source": "namaste", "target": "icd11_tm2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resource map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resource); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resource["resourceType"] != "ConceptMap" {
		t.Errorf("resourceType = %v", resource["resourceType"])
	}
	groups, _ := resource["group"].([]any)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %v", resource["group"])
	}
	elements, _ := groups[0].(map[string]any)["element"].([]any)
	if len(elements) != 2 {
		t.Errorf("expected 2 mapped elements, got %d", len(elements))
	}
}
