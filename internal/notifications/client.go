package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"top_rank_ledger/internal/retry"

	"github.com/rs/zerolog/log"
)

// Client posts plain-text messages to an ntfy topic.
type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	priority   string
	policy     retry.Config
}

// RunReport is what a finished run tells the operator.
type RunReport struct {
	Targets      []string
	Units        int
	Observations int
	Written      int
	Failed       int
	Unmatched    int
	Saved        bool
	Err          error
}

type NotificationError struct {
	Type       string
	StatusCode int
	Attempt    int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s] attempt %d: %v", e.Type, e.Attempt, e.Underlying)
}

func (e *NotificationError) Unwrap() error { return e.Underlying }

func (e *NotificationError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "rate_limit":
		return true
	case "auth", "client":
		return false
	default:
		return e.StatusCode >= 500
	}
}

func NewClient(baseURL, topic string, enabled bool, priority string, policy retry.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: policy.Timeout,
		},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		topic:    topic,
		enabled:  enabled,
		priority: priority,
		policy:   policy,
	}
}

func (c *Client) SendNotification(ctx context.Context, message string) error {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	attempt := 0
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		attempt++
		err := c.sendSingleNotification(ctx, message, attempt)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", c.policy.MaxRetries).
				Msg("Notification attempt failed")
		}
		return err
	})
}

func (c *Client) sendSingleNotification(ctx context.Context, message string, attempt int) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Type: "client", Attempt: attempt, Underlying: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "TOP rank ledger")
	if c.priority != "" {
		req.Header.Set("Priority", c.priority)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Type: "network", Attempt: attempt, Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Attempt:    attempt,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	log.Debug().
		Int("status_code", resp.StatusCode).
		Int("attempt", attempt).
		Msg("Notification sent successfully")
	return nil
}

// NotifyRunSummary reports a finished run. Failures are logged, never returned:
// a lost notification must not fail the run.
func (c *Client) NotifyRunSummary(ctx context.Context, report RunReport) {
	if !c.enabled {
		return
	}
	if err := c.SendNotification(ctx, FormatRunSummary(report)); err != nil {
		log.Warn().Err(err).Msg("Failed to send run summary")
	}
}

// FormatRunSummary renders the run report as a short message.
func FormatRunSummary(r RunReport) string {
	var sb strings.Builder

	switch {
	case r.Err != nil:
		sb.WriteString(fmt.Sprintf("Run failed: %v\n", r.Err))
	case len(r.Targets) == 0:
		sb.WriteString("Nothing to update\n")
	default:
		sb.WriteString(fmt.Sprintf("Filled %d cells for %d dates\n", r.Written, len(r.Targets)))
	}

	if len(r.Targets) > 0 {
		const maxDatesToShow = 7
		shown := r.Targets
		if len(shown) > maxDatesToShow {
			shown = shown[:maxDatesToShow]
		}
		sb.WriteString("Dates: " + strings.Join(shown, ", "))
		if len(r.Targets) > maxDatesToShow {
			sb.WriteString(fmt.Sprintf(" ... and %d more", len(r.Targets)-maxDatesToShow))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Searches: %d, matches: %d, unmatched: %d\n", r.Units, r.Observations, r.Unmatched))
	}
	if r.Failed > 0 {
		sb.WriteString(fmt.Sprintf("Failed cells: %d\n", r.Failed))
	}
	if len(r.Targets) > 0 && !r.Saved {
		sb.WriteString("Workbook NOT saved\n")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}
