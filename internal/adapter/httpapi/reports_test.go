package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/report-generator/internal/adapter/httpapi"
	"github.com/bkyoung/report-generator/internal/domain"
	"github.com/bkyoung/report-generator/internal/usecase/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	report domain.Report
	err    error
	last   report.Request
	calls  int
}

func (s *fakeService) GenerateReport(_ context.Context, req report.Request) (domain.Report, error) {
	s.calls++
	s.last = req
	return s.report, s.err
}

type fakeReader struct {
	report  domain.Report
	reports []domain.Report
	err     error
	limit   int
	offset  int
}

func (r *fakeReader) GetReport(_ context.Context, _ uuid.UUID) (domain.Report, error) {
	return r.report, r.err
}

func (r *fakeReader) ListReports(_ context.Context, limit, offset int) ([]domain.Report, error) {
	r.limit = limit
	r.offset = offset
	return r.reports, r.err
}

func newTestRouter(service *fakeService, reader *fakeReader) *gin.Engine {
	return httpapi.NewRouter(httpapi.Dependencies{
		Service:  service,
		Reader:   reader,
		Registry: prometheus.NewRegistry(),
	})
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReader{})
	rec := doRequest(router, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReader{})
	rec := doRequest(router, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateReport(t *testing.T) {
	service := &fakeService{report: domain.Report{
		ID:     uuid.New(),
		Title:  "Economic Review",
		Status: "completed",
	}}
	router := newTestRouter(service, &fakeReader{})

	rec := doRequest(router, http.MethodPost, "/api/reports",
		`{"indicators": ["GDP", "UNRATE"], "start_date": "2024-01-01", "end_date": "2024-12-31"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, service.calls)
	assert.Equal(t, []string{"GDP", "UNRATE"}, service.last.Indicators)
	assert.Equal(t, "2024-01-01", service.last.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2024-12-31", service.last.EndDate.Format("2006-01-02"))
	assert.NotEmpty(t, service.last.TraceID)

	var body domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Economic Review", body.Title)
}

func TestCreateReportValidation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			"malformed json",
			`{"indicators": [`,
			"invalid request body",
		},
		{
			"empty indicators",
			`{"indicators": [], "start_date": "2024-01-01", "end_date": "2024-12-31"}`,
			"indicators must not be empty",
		},
		{
			"missing indicators",
			`{"start_date": "2024-01-01", "end_date": "2024-12-31"}`,
			"indicators must not be empty",
		},
		{
			"bad start date",
			`{"indicators": ["GDP"], "start_date": "01/01/2024", "end_date": "2024-12-31"}`,
			"invalid start_date format, use YYYY-MM-DD",
		},
		{
			"bad end date",
			`{"indicators": ["GDP"], "start_date": "2024-01-01", "end_date": "December"}`,
			"invalid end_date format, use YYYY-MM-DD",
		},
		{
			"start after end",
			`{"indicators": ["GDP"], "start_date": "2024-12-31", "end_date": "2024-01-01"}`,
			"start_date must be before end_date",
		},
		{
			"start equals end",
			`{"indicators": ["GDP"], "start_date": "2024-01-01", "end_date": "2024-01-01"}`,
			"start_date must be before end_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &fakeService{}
			router := newTestRouter(service, &fakeReader{})

			rec := doRequest(router, http.MethodPost, "/api/reports", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, service.calls)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
			assert.NotEmpty(t, body["trace_id"])
		})
	}
}

func TestCreateReportPipelineFailure(t *testing.T) {
	service := &fakeService{err: errors.New("anthropic: server_error: overloaded (status: 529)")}
	router := newTestRouter(service, &fakeReader{})

	rec := doRequest(router, http.MethodPost, "/api/reports",
		`{"indicators": ["GDP"], "start_date": "2024-01-01", "end_date": "2024-12-31"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Provider error text never reaches the caller.
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	assert.NotEmpty(t, body["trace_id"])
	assert.NotContains(t, rec.Body.String(), "overloaded")
}

func TestGetReport(t *testing.T) {
	id := uuid.New()
	reader := &fakeReader{report: domain.Report{ID: id, Title: "Found"}}
	router := newTestRouter(&fakeService{}, reader)

	rec := doRequest(router, http.MethodGet, "/api/reports/"+id.String(), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id, body.ID)
}

func TestGetReportInvalidID(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReader{})
	rec := doRequest(router, http.MethodGet, "/api/reports/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid report id")
}

func TestGetReportNotFound(t *testing.T) {
	reader := &fakeReader{err: report.ErrNotFound}
	router := newTestRouter(&fakeService{}, reader)

	rec := doRequest(router, http.MethodGet, "/api/reports/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "report not found")
}

func TestListReports(t *testing.T) {
	reader := &fakeReader{reports: []domain.Report{{Title: "A"}, {Title: "B"}}}
	router := newTestRouter(&fakeService{}, reader)

	rec := doRequest(router, http.MethodGet, "/api/reports?limit=5&offset=10", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, reader.limit)
	assert.Equal(t, 10, reader.offset)

	var body []domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)
}

func TestListReportsClampsQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"limit too large", "?limit=500", 20, 0},
		{"limit zero", "?limit=0", 20, 0},
		{"negative offset", "?offset=-5", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{}
			router := newTestRouter(&fakeService{}, reader)

			rec := doRequest(router, http.MethodGet, "/api/reports"+tt.query, "")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantLimit, reader.limit)
			assert.Equal(t, tt.wantOffset, reader.offset)
		})
	}
}

func TestTraceIDPropagation(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-trace-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "caller-trace-7", rec.Header().Get("X-Request-ID"))
}

func TestTraceIDGenerated(t *testing.T) {
	router := newTestRouter(&fakeService{}, &fakeReader{})
	rec := doRequest(router, http.MethodGet, "/healthz", "")

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
