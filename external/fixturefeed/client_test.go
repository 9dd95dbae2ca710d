package fixturefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const fixturesPayload = `{
	"data": [
		{
			"id": "fx-ars-liv",
			"season": "2025/2026",
			"home_team": "Arsenal",
			"away_team": "Liverpool",
			"kickoff_at": "2026-03-07T15:00:00Z",
			"status": "FT",
			"home_score": 2,
			"away_score": 0
		},
		{
			"id": "fx-bad-kickoff",
			"season": "2025/2026",
			"home_team": "Everton",
			"away_team": "Fulham",
			"kickoff_at": "not-a-timestamp",
			"status": "NS"
		}
	]
}`

func feedWindow() (time.Time, time.Time) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 7)
}

func TestFixturesBetween_MapsPayload(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fixturesPayload))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "secret-token"})
	from, to := feedWindow()
	fixtures, err := client.FixturesBetween(context.Background(), "GB", "premier-league", from, to)
	if err != nil {
		t.Fatalf("FixturesBetween: %v", err)
	}

	if gotPath != "/competitions/GB/premier-league/fixtures" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "from=2026-03-02") || !strings.Contains(gotQuery, "to=2026-03-09") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "api_token=secret-token") {
		t.Fatalf("expected api token in query, got %q", gotQuery)
	}

	// The malformed kickoff row is dropped rather than failing the sync.
	if len(fixtures) != 1 {
		t.Fatalf("expected 1 fixture, got %d", len(fixtures))
	}
	fx := fixtures[0]
	if fx.ID != "fx-ars-liv" || fx.HomeTeam != "Arsenal" || fx.AwayTeam != "Liverpool" {
		t.Fatalf("unexpected fixture mapping: %+v", fx)
	}
	if fx.CountryCode != "GB" || fx.CompetitionID != "premier-league" {
		t.Fatalf("expected competition carried from arguments, got %+v", fx)
	}
	if fx.Status != "FT" {
		t.Fatalf("expected raw provider status, got %q", fx.Status)
	}
	if fx.HomeScore == nil || *fx.HomeScore != 2 || fx.AwayScore == nil || *fx.AwayScore != 0 {
		t.Fatalf("unexpected scores: %+v", fx)
	}
}

func TestFixturesBetween_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "t", MaxRetries: 2})
	from, to := feedWindow()
	fixtures, err := client.FixturesBetween(context.Background(), "GB", "premier-league", from, to)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(fixtures) != 0 {
		t.Fatalf("expected empty fixture list, got %d", len(fixtures))
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestFixturesBetween_NonRetryableStatusFailsFast(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "t", MaxRetries: 3})
	from, to := feedWindow()
	if _, err := client.FixturesBetween(context.Background(), "GB", "premier-league", from, to); err == nil {
		t.Fatalf("expected error for forbidden status")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected single call for non-retryable status, got %d", got)
	}
}

func TestFixturesBetween_ValidatesWindow(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://feed.invalid", Token: "t"})
	from, _ := feedWindow()
	if _, err := client.FixturesBetween(context.Background(), "GB", "premier-league", from, from); err == nil {
		t.Fatalf("expected error for empty window")
	}
	if _, err := client.FixturesBetween(context.Background(), "", "premier-league", from, from.AddDate(0, 0, 7)); err == nil {
		t.Fatalf("expected error for missing country code")
	}
}
