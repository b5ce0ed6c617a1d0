package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/ccdaextract/internal/platform/auth"
	"github.com/ehr/ccdaextract/internal/platform/ccda"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func TestHandler_CreateExtraction(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions?source=patient-1.xml", strings.NewReader(problemDocument))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationXML)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateExtraction(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var run Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if run.SourceName != "patient-1.xml" || run.Status != ccda.StatusParsed {
		t.Errorf("unexpected run: %+v", run)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/v1/extractions/"+run.ID.String() {
		t.Errorf("unexpected Location %q", loc)
	}
}

func TestHandler_CreateExtraction_Rejected(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", strings.NewReader(wrongRootDocument))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateExtraction(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var run Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if run.Status != ccda.StatusRejected || run.Reason != ccda.ReasonRootMismatch {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.ID == uuid.Nil {
		t.Error("expected rejected run to carry an ID")
	}
}

func TestHandler_GetExtraction(t *testing.T) {
	svc, _ := newTestService()
	h, e := NewHandler(svc), echo.New()

	created, _, err := svc.Extract(context.Background(), "a.xml", problemDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())

	if err := h.GetExtraction(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		ID     uuid.UUID                      `json:"id"`
		Tables map[string][]map[string]string `json:"tables"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ID != created.ID {
		t.Errorf("expected %s, got %s", created.ID, body.ID)
	}
	if len(body.Tables[ccda.DomainProblems]) != 1 {
		t.Errorf("expected one problem row, got %v", body.Tables)
	}
}

func TestHandler_GetExtraction_Errors(t *testing.T) {
	tests := []struct {
		name string
		id   string
		code int
	}{
		{"invalid id", "not-a-uuid", http.StatusBadRequest},
		{"unknown id", uuid.New().String(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e := newTestHandler()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			err := h.GetExtraction(c)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
			}
			if httpErr.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, httpErr.Code)
			}
		})
	}
}

func TestHandler_ListExtractions(t *testing.T) {
	svc, _ := newTestService()
	h, e := NewHandler(svc), echo.New()
	for i := 0; i < 3; i++ {
		if _, _, err := svc.Extract(context.Background(), "doc.xml", problemDocument); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions?limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListExtractions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Data    []Run `json:"data"`
		Total   int   `json:"total"`
		HasMore bool  `json:"has_more"`
		Links   struct {
			Next string `json:"next"`
		} `json:"links"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Total != 3 || len(body.Data) != 2 || !body.HasMore {
		t.Errorf("unexpected page: total=%d len=%d has_more=%v", body.Total, len(body.Data), body.HasMore)
	}
	if body.Links.Next != "/api/v1/extractions?limit=2&offset=2" {
		t.Errorf("unexpected next link %q", body.Links.Next)
	}
}

func TestHandler_ListExtractions_Empty(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListExtractions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected empty data array, got %s", rec.Body.String())
	}
}

func TestHandler_RoutesRequireRole(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserRolesKey, []string{"billing"}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/extractions", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserRolesKey, []string{auth.RoleReader}))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for reader, got %d", rec.Code)
	}
}
