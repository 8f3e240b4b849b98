//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("SSP_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestStudentJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	email := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	password := "Secret123!"

	var registerResp struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	doPost(t, client, base+"/api/auth/register", "", map[string]any{
		"email":    email,
		"password": password,
		"name":     "Integration Student",
		"role":     "student",
	}, &registerResp)
	if registerResp.Token == "" || registerResp.UserID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &loginResp)
	token := loginResp.Token
	if token == "" {
		t.Fatalf("login did not return token")
	}

	var catalog struct {
		QuestionTypes []struct {
			Type  string `json:"type"`
			Label string `json:"label"`
		} `json:"question_types"`
	}
	doGet(t, client, base+"/api/question-types", "", &catalog)
	if len(catalog.QuestionTypes) != 7 {
		t.Fatalf("expected 7 question types, got %d", len(catalog.QuestionTypes))
	}

	var assigned struct {
		Total float64 `json:"total"`
	}
	doGet(t, client, base+"/api/questionnaires/assigned", token, &assigned)

	var appointment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	doPost(t, client, base+"/api/appointments", token, map[string]any{
		"kind":   "general",
		"motive": "integration checkup",
	}, &appointment)
	if appointment.ID == "" || appointment.Status != "pending" {
		t.Fatalf("unexpected appointment response: %+v", appointment)
	}

	var list struct {
		Total float64 `json:"total"`
	}
	doGet(t, client, base+"/api/appointments?view=unscheduled", token, &list)
	if list.Total < 1 {
		t.Fatalf("expected the new appointment in the unscheduled view, got %v", list.Total)
	}
}

func doPost(t *testing.T, client *http.Client, url, token string, body any, out any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	doRequest(t, client, req, url, out)
}

func doGet(t *testing.T, client *http.Client, url, token string, out any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	doRequest(t, client, req, url, out)
}

func doRequest(t *testing.T, client *http.Client, req *http.Request, url string, out any) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", req.Method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
