package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/ignite/quality-monitor/internal/pkg/httpretry"
)

// SlackNotifier posts alerts to a Slack incoming webhook. Transient
// webhook failures are retried by the underlying httpretry client.
type SlackNotifier struct {
	webhookURL string
	client     httpretry.HTTPDoer
}

// slackPayload is the incoming-webhook message body.
type slackPayload struct {
	Text string `json:"text"`
}

// NewSlackNotifier creates a Slack webhook notifier. If client is nil a
// retrying client with default backoff is used.
func NewSlackNotifier(webhookURL string, client httpretry.HTTPDoer) *SlackNotifier {
	if client == nil {
		client = httpretry.NewRetryClient(nil, 3)
	}
	return &SlackNotifier{webhookURL: webhookURL, client: client}
}

// Send posts the alert message to the webhook. A non-2xx response after
// retries is reported as an error for the dispatcher's audit log.
func (s *SlackNotifier) Send(ctx context.Context, a domain.Alert) error {
	body, err := json.Marshal(slackPayload{Text: a.Message})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}
