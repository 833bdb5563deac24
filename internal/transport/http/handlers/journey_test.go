package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"timesheet/internal/app/server"
	"timesheet/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		SeedAdminUsername:  "admin",
		SeedAdminPassword:  "ChangeMe123!",
		SeedAdminFullName:  "Seed Admin",
		CompanyName:        "Test Co",
		InternalClientName: "Internal",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func TestTimesheetApprovalJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminUsername, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	managerUsername := fmt.Sprintf("manager-%d", suffix)
	managerID := createUser(t, client, ts.URL, adminToken, managerUsername, "manager")
	employeeUsername := fmt.Sprintf("employee-%d", suffix)
	employeeID := createUser(t, client, ts.URL, adminToken, employeeUsername, "employee")

	clientID := createRecord(t, client, ts.URL, adminToken, "/api/v1/clients", map[string]any{
		"name": fmt.Sprintf("Acme-%d", suffix),
	})
	projectID := createRecord(t, client, ts.URL, adminToken, "/api/v1/projects", map[string]any{
		"clientId":  clientID,
		"name":      "Platform Rebuild",
		"managerId": managerID,
	})
	postJSON(t, client, ts.URL+"/api/v1/projects/"+projectID+"/assignments", adminToken, map[string]any{
		"employeeId": employeeID,
	})

	employeeToken := login(t, client, ts.URL, employeeUsername, "Password123!")

	// Submit, then recall inside the window.
	recalledID := createRecord(t, client, ts.URL, employeeToken, "/api/v1/entries", map[string]any{
		"kind":        "project_work",
		"projectId":   projectID,
		"taskType":    "Development",
		"startDate":   "2026-02-02",
		"hours":       8,
		"minutes":     0,
		"description": "api scaffolding",
		"billable":    true,
		"submit":      true,
	})
	recalled := postJSON(t, client, ts.URL+"/api/v1/entries/"+recalledID+"/recall", employeeToken, nil)
	if status := entryStatus(t, recalled); status != "recalled" {
		t.Fatalf("expected recalled, got %s", status)
	}

	// A recalled entry cannot be recalled again.
	postJSONStatus(t, client, ts.URL+"/api/v1/entries/"+recalledID+"/recall", employeeToken, nil, http.StatusConflict)

	entryID := createRecord(t, client, ts.URL, employeeToken, "/api/v1/entries", map[string]any{
		"kind":        "project_work",
		"projectId":   projectID,
		"taskType":    "Development",
		"startDate":   "2026-02-03",
		"hours":       7,
		"minutes":     30,
		"description": "handler wiring",
		"billable":    true,
		"submit":      true,
	})

	managerToken := login(t, client, ts.URL, managerUsername, "Password123!")

	pending := getJSON(t, client, ts.URL+"/api/v1/entries/pending", managerToken)
	var pendingEntries []map[string]any
	if err := json.Unmarshal(pending.Data, &pendingEntries); err != nil {
		t.Fatalf("failed to decode pending response: %v", err)
	}
	if len(pendingEntries) == 0 {
		t.Fatal("expected pending entries for the manager")
	}

	// Rejecting without a comment is refused.
	postJSONStatus(t, client, ts.URL+"/api/v1/entries/"+entryID+"/reject", managerToken,
		map[string]any{}, http.StatusBadRequest)

	approved := postJSON(t, client, ts.URL+"/api/v1/entries/"+entryID+"/approve", managerToken, nil)
	if status := entryStatus(t, approved); status != "approved" {
		t.Fatalf("expected approved, got %s", status)
	}

	// A second review of the same entry loses the race.
	postJSONStatus(t, client, ts.URL+"/api/v1/entries/"+entryID+"/approve", adminToken, nil, http.StatusConflict)

	// Approved entries are outside the recall window rules entirely.
	postJSONStatus(t, client, ts.URL+"/api/v1/entries/"+entryID+"/recall", employeeToken, nil, http.StatusConflict)

	// A still-submitted non-billable entry must not dilute utilization:
	// the ratio only counts approved hours.
	createRecord(t, client, ts.URL, employeeToken, "/api/v1/entries", map[string]any{
		"kind":        "project_work",
		"projectId":   projectID,
		"taskType":    "Development",
		"startDate":   "2026-02-04",
		"hours":       5,
		"minutes":     0,
		"description": "internal tooling spike",
		"billable":    false,
		"submit":      true,
	})

	// Managers see the dashboard counters, not just admins.
	getJSONStatus(t, client, ts.URL+"/api/v1/reports/dashboard", managerToken, http.StatusOK)

	report := getJSON(t, client, ts.URL+"/api/v1/reports/employees?from=2026-02-01&to=2026-02-28", managerToken)
	var summaries []map[string]any
	if err := json.Unmarshal(report.Data, &summaries); err != nil {
		t.Fatalf("failed to decode employee report: %v", err)
	}
	var mine map[string]any
	for _, s := range summaries {
		if s["employeeId"] == employeeID {
			mine = s
			break
		}
	}
	if mine == nil {
		t.Fatal("expected the employee in the report")
	}
	if hours, _ := mine["approvedHours"].(float64); hours != 7.5 {
		t.Fatalf("expected 7.5 approved hours, got %v", mine["approvedHours"])
	}
	// 7.5 approved billable over 7.5 approved; the 5h submitted entry
	// stays out of the ratio.
	if util, _ := mine["utilization"].(float64); util != 100 {
		t.Fatalf("expected utilization 100, got %v", mine["utilization"])
	}
}

func TestInternalEntryAggregation(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminUsername, cfg.SeedAdminPassword)
	username := fmt.Sprintf("leave-%d", time.Now().UnixNano())
	createUser(t, client, ts.URL, adminToken, username, "employee")
	employeeToken := login(t, client, ts.URL, username, "Password123!")

	resp := postJSON(t, client, ts.URL+"/api/v1/entries", employeeToken, map[string]any{
		"kind":        "internal",
		"category":    "Leave",
		"taskType":    "Annual Leave",
		"startDate":   "2026-03-02",
		"endDate":     "2026-03-04",
		"hours":       8,
		"minutes":     0,
		"description": "spring break",
		"billable":    true,
		"submit":      true,
	})
	var entry map[string]any
	if err := json.Unmarshal(resp.Data, &entry); err != nil {
		t.Fatalf("failed to decode entry response: %v", err)
	}
	if hours, _ := entry["hours"].(float64); hours != 24 {
		t.Fatalf("expected 24 aggregate hours for 3 days x 8h, got %v", entry["hours"])
	}
	if billable, _ := entry["billable"].(bool); billable {
		t.Fatal("internal entries must never be billable")
	}
}

func TestEmployeeCannotReachAdminSurfaces(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminUsername, cfg.SeedAdminPassword)
	username := fmt.Sprintf("plain-%d", time.Now().UnixNano())
	createUser(t, client, ts.URL, adminToken, username, "employee")
	employeeToken := login(t, client, ts.URL, username, "Password123!")

	getJSONStatus(t, client, ts.URL+"/api/v1/users", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/settings", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/audit/events", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/entries/pending", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/reports/dashboard", employeeToken, http.StatusForbidden)
}

func login(t *testing.T, client *http.Client, baseURL, username, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func createUser(t *testing.T, client *http.Client, baseURL, token, username, role string) string {
	t.Helper()
	return createRecord(t, client, baseURL, token, "/api/v1/users", map[string]any{
		"username": username,
		"password": "Password123!",
		"fullName": "Journey Tester",
		"role":     role,
	})
}

func createRecord(t *testing.T, client *http.Client, baseURL, token, path string, body map[string]any) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+path, token, body)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode response for %s: %v", path, err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("expected id in response for %s", path)
	}
	return id
}

func entryStatus(t *testing.T, env envelope) string {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode entry response: %v", err)
	}
	status, _ := payload["status"].(string)
	return status
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodPost, url, token, body)
	if status >= 400 {
		t.Fatalf("unexpected status %d for POST %s", status, url)
	}
	return env
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) {
	t.Helper()
	_, status := doJSON(t, client, http.MethodPost, url, token, body)
	if status != want {
		t.Fatalf("expected status %d for POST %s, got %d", want, url, status)
	}
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodGet, url, token, nil)
	if status >= 400 {
		t.Fatalf("unexpected status %d for GET %s", status, url)
	}
	return env
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) {
	t.Helper()
	_, status := doJSON(t, client, http.MethodGet, url, token, nil)
	if status != want {
		t.Fatalf("expected status %d for GET %s, got %d", want, url, status)
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (envelope, int) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("failed to decode response from %s: %v", url, err)
		}
	}
	return env, resp.StatusCode
}
