package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldwatch/internal/ports"
	"fieldwatch/internal/usecase/query"
	syncusecase "fieldwatch/internal/usecase/sync"
)

type stubQueryService struct {
	listInput    query.ListIssuesInput
	listCalled   bool
	issues       []query.IssueView
	issuesErr    error
	responsesFor string
	responses    []query.ResponseView
	responsesErr error
}

func (s *stubQueryService) ListIssues(_ context.Context, input query.ListIssuesInput) ([]query.IssueView, error) {
	s.listCalled = true
	s.listInput = input
	return s.issues, s.issuesErr
}

func (s *stubQueryService) ListResponses(_ context.Context, issueID string) ([]query.ResponseView, error) {
	s.responsesFor = issueID
	return s.responses, s.responsesErr
}

type stubSyncRunner struct {
	called bool
	result syncusecase.Result
	err    error
}

func (s *stubSyncRunner) Run(context.Context) (syncusecase.Result, error) {
	s.called = true
	return s.result, s.err
}

type stubSyncState struct {
	values map[string]string
	err    error
}

func (s *stubSyncState) Get(_ context.Context, key string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	value, found := s.values[key]
	return value, found, nil
}

func (s *stubSyncState) Set(_ context.Context, key string, value string) error {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

func TestAPIListIssuesPassesFilters(t *testing.T) {
	t.Parallel()

	svc := &stubQueryService{
		issues: []query.IssueView{{ID: "E1", Label: "Pothole", Status: "open"}},
	}
	handler := newAPIHandler(svc, &stubSyncRunner{}, &stubSyncState{}, nil)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/issues?search=pot&state=open&severity=High&timeframe=Soon&start_date=2025-01-01&end_date=2025-02-01",
		nil,
	)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusOK, resp.Body.String())
	}
	want := query.ListIssuesInput{
		Search:    "pot",
		Status:    "open",
		Severity:  "High",
		Timeframe: "Soon",
		StartDate: "2025-01-01",
		EndDate:   "2025-02-01",
	}
	if svc.listInput != want {
		t.Fatalf("list input = %+v, want %+v", svc.listInput, want)
	}

	var body []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v; body=%q", err, resp.Body.String())
	}
	if len(body) != 1 {
		t.Fatalf("issues = %d, want 1", len(body))
	}
	if body[0]["id"] != "E1" {
		t.Fatalf("issue id = %#v, want E1", body[0]["id"])
	}
	if _, ok := body[0]["image"]; !ok {
		t.Fatal("issue view should always carry the image key")
	}
	if body[0]["image"] != nil {
		t.Fatalf("image = %#v, want null", body[0]["image"])
	}
}

func TestAPIListIssuesEmptyStoreYieldsEmptyArray(t *testing.T) {
	t.Parallel()

	handler := newAPIHandler(&stubQueryService{}, &stubSyncRunner{}, &stubSyncState{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusOK)
	}
	var body []query.IssueView
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v; body=%q", err, resp.Body.String())
	}
	if body == nil || len(body) != 0 {
		t.Fatalf("body = %#v, want empty array", body)
	}
}

func TestAPIListIssuesError(t *testing.T) {
	t.Parallel()

	svc := &stubQueryService{issuesErr: errors.New("store broken")}
	handler := newAPIHandler(svc, &stubSyncRunner{}, &stubSyncState{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusInternalServerError)
	}
}

func TestAPIListResponsesByIssue(t *testing.T) {
	t.Parallel()

	entity := "E1"
	svc := &stubQueryService{
		responses: []query.ResponseView{
			{Key: "R1", SubmissionDate: "2025-03-01 10:00:00", EntityProblem: &entity},
		},
	}
	handler := newAPIHandler(svc, &stubSyncRunner{}, &stubSyncState{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/responses/E1", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusOK, resp.Body.String())
	}
	if svc.responsesFor != "E1" {
		t.Fatalf("issue id = %q, want E1", svc.responsesFor)
	}

	var body []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v; body=%q", err, resp.Body.String())
	}
	if len(body) != 1 {
		t.Fatalf("responses = %d, want 1", len(body))
	}
	if body[0]["KEY"] != "R1" {
		t.Fatalf("response KEY = %#v, want R1", body[0]["KEY"])
	}
	if body[0]["entity_problem"] != "E1" {
		t.Fatalf("entity_problem = %#v, want E1", body[0]["entity_problem"])
	}
}

func TestAPISyncReturnsCounts(t *testing.T) {
	t.Parallel()

	runner := &stubSyncRunner{result: syncusecase.Result{Issues: 3, Images: 1, Responses: 2}}
	handler := newAPIHandler(&stubQueryService{}, runner, &stubSyncState{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusOK, resp.Body.String())
	}
	if !runner.called {
		t.Fatal("sync runner called = false, want true")
	}

	var body apiSyncResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v; body=%q", err, resp.Body.String())
	}
	if body.Issues != 3 || body.Images != 1 || body.Responses != 2 {
		t.Fatalf("counts = %+v, want issues=3 images=1 responses=2", body)
	}
}

func TestAPISyncFailure(t *testing.T) {
	t.Parallel()

	runner := &stubSyncRunner{err: errors.New("login to central: unauthorized")}
	handler := newAPIHandler(&stubQueryService{}, runner, &stubSyncState{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", resp.Code, http.StatusBadGateway)
	}
}

func TestAPIStatusReportsRecordedState(t *testing.T) {
	t.Parallel()

	state := &stubSyncState{values: map[string]string{
		ports.StateLastSyncAt:     "2025-03-01 10:00:00",
		ports.StateLastSyncIssues: "5",
	}}
	handler := newAPIHandler(&stubQueryService{}, &stubSyncRunner{}, state, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", resp.Code, http.StatusOK, resp.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v; body=%q", err, resp.Body.String())
	}
	if body["last_sync_at"] != "2025-03-01 10:00:00" {
		t.Fatalf("last_sync_at = %#v, want 2025-03-01 10:00:00", body["last_sync_at"])
	}
	if body["issues"] != "5" {
		t.Fatalf("issues = %#v, want 5", body["issues"])
	}
	if body["images"] != nil {
		t.Fatalf("images = %#v, want null before first cycle", body["images"])
	}
	if body["responses"] != nil {
		t.Fatalf("responses = %#v, want null before first cycle", body["responses"])
	}
}
