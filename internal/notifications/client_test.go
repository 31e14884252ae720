package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"top_rank_ledger/internal/retry"
)

func testPolicy() retry.Config {
	return retry.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Timeout:    time.Second,
	}
}

func TestSendNotificationPostsToTopic(t *testing.T) {
	var gotPath, gotBody, gotPriority string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPriority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "ranks", true, "high", testPolicy())
	if err := c.SendNotification(context.Background(), "hello"); err != nil {
		t.Fatalf("SendNotification: %v", err)
	}
	if gotPath != "/ranks" || gotBody != "hello" || gotPriority != "high" {
		t.Errorf("Unexpected request path=%q body=%q priority=%q", gotPath, gotBody, gotPriority)
	}
}

func TestSendNotificationRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ranks", true, "", testPolicy())
	if err := c.SendNotification(context.Background(), "hello"); err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestSendNotificationStopsOnAuthError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ranks", true, "", testPolicy())
	err := c.SendNotification(context.Background(), "hello")
	var notifErr *NotificationError
	if !errors.As(err, &notifErr) || notifErr.Type != "auth" {
		t.Fatalf("Expected auth error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no retries, got %d calls", calls)
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "ranks", false, "", testPolicy())
	if err := c.SendNotification(context.Background(), "hello"); err != nil {
		t.Errorf("Expected nil for disabled client, got %v", err)
	}
	c.NotifyRunSummary(context.Background(), RunReport{})
}

func TestFormatRunSummary(t *testing.T) {
	msg := FormatRunSummary(RunReport{
		Targets:      []string{"2026-01-01", "2026-01-02", "2026-01-03", "2026-01-04", "2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08"},
		Units:        2,
		Observations: 5,
		Written:      4,
		Failed:       1,
		Unmatched:    1,
		Saved:        false,
	})
	for _, want := range []string{"Filled 4 cells for 8 dates", "... and 1 more", "Failed cells: 1", "NOT saved"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in message:\n%s", want, msg)
		}
	}

	if msg := FormatRunSummary(RunReport{}); msg != "Nothing to update" {
		t.Errorf("Expected nothing-to-update message, got %q", msg)
	}
	if msg := FormatRunSummary(RunReport{Err: errors.New("login failed")}); !strings.HasPrefix(msg, "Run failed: login failed") {
		t.Errorf("Unexpected failure message %q", msg)
	}
}

func TestSendNotificationGivesUpAfterPolicyRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ranks", true, "", testPolicy())
	err := c.SendNotification(context.Background(), "hello")
	var notifErr *NotificationError
	if !errors.As(err, &notifErr) || notifErr.Type != "server" {
		t.Fatalf("Expected server error, got %v", err)
	}
	if notifErr.Attempt != 3 {
		t.Errorf("Expected last attempt 3, got %d", notifErr.Attempt)
	}
	if calls != 3 {
		t.Errorf("Expected MaxRetries+1 = 3 calls, got %d", calls)
	}
}
