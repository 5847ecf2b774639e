package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	caseaccess "lexcase/contexts/case-management/case-access-service"
	httptransport "lexcase/contexts/case-management/case-access-service/transport/http"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	module := caseaccess.NewInMemoryModule(nil)
	server := New(module, nil, ":0", true)
	ts := httptest.NewServer(server.mux)
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method string, path string, identity map[string]string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for key, value := range identity {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	payload, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, payload
}

func identityHeaders(id string, role string) map[string]string {
	return map[string]string{
		"X-User-Id":    id,
		"X-User-Email": id + "@example.com",
		"X-User-Role":  role,
	}
}

func createCase(t *testing.T, ts *httptest.Server, owner map[string]string) string {
	t.Helper()
	resp, payload := doRequest(t, ts, http.MethodPost, "/api/v1/cases", owner, httptransport.CreateCaseRequest{
		Title:    "Contract dispute",
		Category: "contract",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create case status = %d, body %s", resp.StatusCode, payload)
	}
	var created httptransport.CreateCaseResponse
	if err := json.Unmarshal(payload, &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return created.Case.CaseID
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	resp, payload := doRequest(t, ts, http.MethodGet, "/api/v1/cases", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body httptransport.ErrorResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "unauthenticated" {
		t.Fatalf("code = %s, want unauthenticated", body.Code)
	}
}

func TestNotFoundMaskIsByteIdentical(t *testing.T) {
	ts := newTestServer(t)
	owner := identityHeaders("client-1", "client")
	lawyer := identityHeaders("lawyer-1", "lawyer")
	caseID := createCase(t, ts, owner)

	missingResp, missingBody := doRequest(t, ts, http.MethodGet, "/api/v1/cases/case-missing", lawyer, nil)
	deniedResp, deniedBody := doRequest(t, ts, http.MethodGet, "/api/v1/cases/"+caseID, lawyer, nil)

	if missingResp.StatusCode != http.StatusNotFound || deniedResp.StatusCode != http.StatusNotFound {
		t.Fatalf("statuses = %d and %d, want 404 for both", missingResp.StatusCode, deniedResp.StatusCode)
	}
	if !bytes.Equal(missingBody, deniedBody) {
		t.Fatalf("mask bodies differ: %s vs %s", missingBody, deniedBody)
	}
	if !strings.Contains(string(missingBody), "case_not_found") {
		t.Fatalf("unexpected mask body: %s", missingBody)
	}
}

func TestAccessRequestLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	owner := identityHeaders("client-1", "client")
	lawyer := identityHeaders("lawyer-1", "lawyer")
	caseID := createCase(t, ts, owner)

	resp, payload := doRequest(t, ts, http.MethodPost, "/api/v1/cases/"+caseID+"/access-requests", lawyer, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("request access status = %d, body %s", resp.StatusCode, payload)
	}

	resp, payload = doRequest(t, ts, http.MethodPost, "/api/v1/cases/"+caseID+"/access-requests", lawyer, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate request status = %d, body %s", resp.StatusCode, payload)
	}
	var conflict httptransport.ErrorResponse
	if err := json.Unmarshal(payload, &conflict); err != nil {
		t.Fatalf("decode conflict: %v", err)
	}
	if conflict.Code != "duplicate_request" {
		t.Fatalf("code = %s, want duplicate_request", conflict.Code)
	}

	resp, payload = doRequest(
		t, ts, http.MethodPost,
		"/api/v1/cases/"+caseID+"/access-requests/lawyer-1/decision",
		owner,
		httptransport.DecideAccessRequest{Decision: "approve"},
	)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("decision status = %d, body %s", resp.StatusCode, payload)
	}
	var decided httptransport.DecideAccessResponse
	if err := json.Unmarshal(payload, &decided); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decided.Grant.Status != "approved" {
		t.Fatalf("grant status = %s, want approved", decided.Grant.Status)
	}

	resp, payload = doRequest(t, ts, http.MethodGet, "/api/v1/cases/"+caseID, lawyer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approved lawyer read status = %d, body %s", resp.StatusCode, payload)
	}
}

func TestReaderCannotMutateCase(t *testing.T) {
	ts := newTestServer(t)
	owner := identityHeaders("client-1", "client")
	lawyer := identityHeaders("lawyer-1", "lawyer")
	caseID := createCase(t, ts, owner)

	if resp, body := doRequest(t, ts, http.MethodPost, "/api/v1/cases/"+caseID+"/access-requests", lawyer, nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("request access status = %d, body %s", resp.StatusCode, body)
	}
	if resp, body := doRequest(
		t, ts, http.MethodPost,
		"/api/v1/cases/"+caseID+"/access-requests/lawyer-1/decision",
		owner,
		httptransport.DecideAccessRequest{Decision: "approve"},
	); resp.StatusCode != http.StatusOK {
		t.Fatalf("decision status = %d, body %s", resp.StatusCode, body)
	}

	title := "Amended"
	resp, payload := doRequest(t, ts, http.MethodPatch, "/api/v1/cases/"+caseID, lawyer, httptransport.UpdateCaseRequest{Title: &title})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("reader update status = %d, body %s", resp.StatusCode, payload)
	}
	var body httptransport.ErrorResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "forbidden" {
		t.Fatalf("code = %s, want forbidden", body.Code)
	}
}

func TestInvalidJSONBodyRejected(t *testing.T) {
	ts := newTestServer(t)
	owner := identityHeaders("client-1", "client")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/cases", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for key, value := range owner {
		req.Header.Set(key, value)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body httptransport.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "invalid_json" {
		t.Fatalf("code = %s, want invalid_json", body.Code)
	}
}

func TestBrowseRouteHonorsFeatureFlag(t *testing.T) {
	module := caseaccess.NewInMemoryModule(nil)
	disabled := New(module, nil, ":0", false)
	ts := httptest.NewServer(disabled.mux)
	defer ts.Close()

	lawyer := identityHeaders("lawyer-1", "lawyer")
	resp, _ := doRequest(t, ts, http.MethodGet, "/api/v1/cases/browse", lawyer, nil)
	// Without the route, the path falls through to the case lookup and the
	// not-found mask.
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("disabled browse status = %d, want 404", resp.StatusCode)
	}
}
