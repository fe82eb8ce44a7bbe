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
	if v := os.Getenv("DEVLEVEL_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestUserJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	userEmail := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	password := "Secret123!"

	var registerResp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
		"name":     "Integration",
		"email":    userEmail,
		"password": password,
	}, &registerResp)
	if registerResp.Token == "" || registerResp.User.ID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
		"email":    userEmail,
		"password": password,
	}, &loginResp)
	token := loginResp.Token
	if token == "" {
		t.Fatalf("login did not return token")
	}

	today := time.Now().UTC().Format("2006-01-02")
	var entryResp struct {
		Entry struct {
			ID     string `json:"id"`
			Points int    `json:"points"`
		} `json:"entry"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/entries", token, map[string]any{
		"date":                      today,
		"entry_type":                "project",
		"project_name":              "integration",
		"difficulty":                5,
		"autonomy_score":            8,
		"deep_work_block_completed": true,
	}, &entryResp)
	entryID := entryResp.Entry.ID
	if entryID == "" || entryResp.Entry.Points != 7 {
		t.Fatalf("unexpected entry response: %+v", entryResp)
	}

	var dash struct {
		LevelProgress struct {
			TotalXP int `json:"total_xp"`
			Level   int `json:"level"`
		} `json:"level_progress"`
		Streak struct {
			Current int `json:"current"`
		} `json:"streak"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/dashboard", token, nil, &dash)
	if dash.LevelProgress.TotalXP != 7 || dash.LevelProgress.Level != 1 {
		t.Fatalf("unexpected dashboard level: %+v", dash.LevelProgress)
	}
	if dash.Streak.Current != 1 {
		t.Fatalf("expected a one-day streak, got %+v", dash.Streak)
	}

	var expResp struct {
		Experiment struct {
			ID string `json:"id"`
		} `json:"experiment"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/experiments", token, map[string]any{
		"name":          "no notifications before noon",
		"start_date":    today,
		"end_date":      today,
		"target_metric": "autonomy",
	}, &expResp)
	expID := expResp.Experiment.ID
	if expID == "" {
		t.Fatalf("experiment id missing")
	}

	doJSON(t, client, http.MethodPost, base+"/api/experiments/"+expID+"/compliance", token, map[string]any{
		"date":      today,
		"completed": true,
	}, nil)

	var corr struct {
		ComplianceByWeek []struct {
			Pct float64 `json:"pct"`
		} `json:"compliance_by_week"`
		WeeklyXP []struct {
			Points int `json:"points"`
		} `json:"weekly_xp"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/experiments/"+expID+"/correlation", token, nil, &corr)
	if len(corr.ComplianceByWeek) != 1 || corr.ComplianceByWeek[0].Pct != 100 {
		t.Fatalf("unexpected compliance series: %+v", corr.ComplianceByWeek)
	}
	if len(corr.WeeklyXP) != 1 || corr.WeeklyXP[0].Points != 7 {
		t.Fatalf("unexpected xp series: %+v", corr.WeeklyXP)
	}

	doJSON(t, client, http.MethodDelete, base+"/api/experiments/"+expID, token, nil, nil)
	doJSON(t, client, http.MethodDelete, base+"/api/entries/"+entryID, token, nil, nil)
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, out any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s %s: %s", resp.StatusCode, method, url, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
