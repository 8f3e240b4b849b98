package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ssp-platform/ssp/internal/middleware"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewRouter(NewMemoryStore()).Register(mux)
	srv := httptest.NewServer(middleware.WithAuth(mux))
	t.Cleanup(srv.Close)
	return srv
}

func tokenFor(t *testing.T, uid, role string) string {
	t.Helper()
	tok, err := middleware.SignToken(uid, role, uid+"@uni.edu", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func draftPayload() map[string]any {
	return map[string]any{
		"title":       "Wellbeing Check",
		"description": "Start-of-term wellbeing questionnaire",
		"questions": []map[string]any{
			{"id": "q1", "type": "open_text", "text": "How has the term started?", "required": true, "order": 1,
				"config": map[string]any{"character_limit": 500}},
			{"id": "q2", "type": "likert_scale", "text": "I feel supported", "order": 2,
				"config": map[string]any{"scale_points": 5}},
		},
		"assigned_user_types": []string{"student"},
	}
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]any{
		"email": "ana@uni.edu", "password": "secret123", "name": "Ana", "role": "student",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d, body %v", resp.StatusCode, body)
	}
	if body["token"] == "" || body["user_id"] == "" {
		t.Fatalf("register body = %v", body)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]any{
		"email": "boss@uni.edu", "password": "pw", "role": "admin",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("admin self-register status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
		"email": "ana@uni.edu", "password": "secret123",
	})
	if resp.StatusCode != http.StatusOK || body["role"] != "student" {
		t.Fatalf("login status = %d body %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
		"email": "ana@uni.edu", "password": "nope",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", resp.StatusCode)
	}
}

func TestQuestionnaireLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	admin := tokenFor(t, "admin1", "admin")
	student := tokenFor(t, "stu1", "student")

	// creation is admin-only
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/questionnaires", student, draftPayload())
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student create status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/questionnaires", "", draftPayload())
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous create status = %d", resp.StatusCode)
	}

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/questionnaires", admin, draftPayload())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d body %v", resp.StatusCode, created)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("created id missing: %v", created)
	}
	if created["status"] != "draft" {
		t.Fatalf("created status = %v", created["status"])
	}

	// invalid drafts come back as structured validation results
	bad := draftPayload()
	bad["title"] = ""
	resp, verr := doJSON(t, http.MethodPost, srv.URL+"/api/questionnaires", admin, bad)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid create status = %d", resp.StatusCode)
	}
	if valid, _ := verr["valid"].(bool); valid {
		t.Fatalf("validation body = %v", verr)
	}
	if _, ok := verr["general_errors"].([]any); !ok {
		t.Fatalf("general_errors missing: %v", verr)
	}

	// list shows it to admins
	resp, list := doJSON(t, http.MethodGet, srv.URL+"/api/questionnaires?status=draft", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if total, _ := list["total"].(float64); total != 1 {
		t.Fatalf("list total = %v", list["total"])
	}

	// not visible to students until activated
	resp, assigned := doJSON(t, http.MethodGet, srv.URL+"/api/questionnaires/assigned", student, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assigned status = %d", resp.StatusCode)
	}
	if total, _ := assigned["total"].(float64); total != 0 {
		t.Fatalf("assigned before activation = %v", assigned)
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/questionnaires/"+id+"/status", admin, map[string]any{"status": "active"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status change = %d", resp.StatusCode)
	}

	resp, assigned = doJSON(t, http.MethodGet, srv.URL+"/api/questionnaires/assigned", student, nil)
	if total, _ := assigned["total"].(float64); total != 1 {
		t.Fatalf("assigned after activation = %v", assigned)
	}

	// respond as the student
	resp, submitted := doJSON(t, http.MethodPost, srv.URL+"/api/questionnaires/"+id+"/responses", student, map[string]any{
		"answers": []map[string]any{
			{"question_id": "q1", "value": "Going well so far"},
			{"question_id": "q2", "value": 4},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d body %v", resp.StatusCode, submitted)
	}
	if submitted["status"] != "completed" {
		t.Fatalf("response status = %v", submitted["status"])
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/questionnaires/"+id+"/responses", student, map[string]any{
		"answers": []map[string]any{{"question_id": "q1", "value": "again"}, {"question_id": "q2", "value": 2}},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double submit status = %d", resp.StatusCode)
	}

	// the admin view now carries the response count
	resp, got := doJSON(t, http.MethodGet, srv.URL+"/api/questionnaires/"+id, admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if n, _ := got["total_responses"].(float64); n != 1 {
		t.Fatalf("total_responses = %v", got["total_responses"])
	}

	// duplicate under a new title
	resp, dup := doJSON(t, http.MethodPost, srv.URL+"/api/questionnaires/"+id+"/duplicate", admin, map[string]any{"title": "Wellbeing Check (term 2)"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("duplicate status = %d body %v", resp.StatusCode, dup)
	}
	if dup["id"] == id || dup["status"] != "draft" {
		t.Fatalf("duplicate body = %v", dup)
	}

	// delete
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/questionnaires/"+id, admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/questionnaires/"+id, admin, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", resp.StatusCode)
	}

	// every mutation above left an audit entry
	resp, audit := doJSON(t, http.MethodGet, srv.URL+"/api/audit", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit status = %d", resp.StatusCode)
	}
	if total, _ := audit["total"].(float64); total < 4 {
		t.Fatalf("audit total = %v, want at least 4", audit["total"])
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/audit", student, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student audit status = %d", resp.StatusCode)
	}
}

func TestQuestionTypesCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/question-types", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("catalog status = %d", resp.StatusCode)
	}
	types, ok := body["question_types"].([]any)
	if !ok || len(types) != 7 {
		t.Fatalf("catalog = %v", body)
	}
	first, _ := types[0].(map[string]any)
	if first["type"] != "open_text" || first["label"] == "" {
		t.Fatalf("first entry = %v", first)
	}
}

func TestAppointmentEndpoints(t *testing.T) {
	srv := newTestServer(t)
	student := tokenFor(t, "stu1", "student")
	staff := tokenFor(t, "staff1", "staff")

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/appointments", student, map[string]any{
		"kind": "psychological", "motive": "exam anxiety", "notes": "prefer mornings",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("request status = %d body %v", resp.StatusCode, created)
	}
	id, _ := created["id"].(string)
	if id == "" || created["status"] != "pending" {
		t.Fatalf("created appointment = %v", created)
	}

	// students cannot confirm
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/appointments/"+id+"/confirm", student, map[string]any{
		"scheduled_at": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339), "location": "Office 12",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student confirm status = %d", resp.StatusCode)
	}

	resp, confirmed := doJSON(t, http.MethodPut, srv.URL+"/api/appointments/"+id+"/confirm", staff, map[string]any{
		"scheduled_at": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339), "location": "Office 12",
	})
	if resp.StatusCode != http.StatusOK || confirmed["status"] != "confirmed" {
		t.Fatalf("confirm status = %d body %v", resp.StatusCode, confirmed)
	}

	resp, list := doJSON(t, http.MethodGet, srv.URL+"/api/appointments?view=upcoming", student, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if total, _ := list["total"].(float64); total != 1 {
		t.Fatalf("upcoming total = %v", list["total"])
	}

	resp, completed := doJSON(t, http.MethodPut, srv.URL+"/api/appointments/"+id+"/complete", staff, map[string]any{
		"notes": "went well",
	})
	if resp.StatusCode != http.StatusOK || completed["status"] != "completed" {
		t.Fatalf("complete status = %d body %v", resp.StatusCode, completed)
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/appointments/"+id+"/cancel", student, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("cancel completed status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/appointments", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous list status = %d", resp.StatusCode)
	}
}
