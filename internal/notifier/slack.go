package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/shortlist/internal/model"
	"github.com/amishk599/shortlist/internal/ratelimit"
)

// minMessageInterval spaces consecutive posts to one webhook.
const minMessageInterval = 500 * time.Millisecond

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts pipeline additions to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each event to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		limiter:    ratelimit.New(minMessageInterval),
		logger:     logger,
	}
}

// Notify sends each event as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are logged.
// Posts are spaced by the notifier's limiter, including across concurrent
// Notify calls from the HTTP server. A cancelled ctx stops the remaining
// posts and is returned.
func (s *SlackNotifier) Notify(ctx context.Context, events []model.LinkEvent) error {
	if len(events) == 0 {
		return nil
	}

	failures := 0
	for _, e := range events {
		if err := s.limiter.Wait(ctx, s.webhookURL); err != nil {
			return err
		}
		if err := s.sendMessage(ctx, e); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("slack notification cancelled: %w", ctx.Err())
			}
			s.logger.Error("slack notification failed", "position", e.Position.ID, "candidate", e.Candidate.ID, "error", err)
			failures++
		}
	}

	sent := len(events) - failures
	if failures == len(events) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", sent, "failed", failures)
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.httpClient.Do(req)
}

func (s *SlackNotifier) sendMessage(ctx context.Context, e model.LinkEvent) error {
	body, err := json.Marshal(buildPayload(e))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.post(ctx, body)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(secs) * time.Second):
		}

		resp2, err := s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack message sent", "position", e.Position.ID, "candidate", e.Candidate.ID, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack message sent", "position", e.Position.ID, "candidate", e.Candidate.ID)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a dummy pipeline event to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	event := model.LinkEvent{
		Submission: model.Submission{
			ID:          "test-001",
			PositionID:  "test-position",
			CandidateID: "test-candidate",
			Stage:       model.StageSubmitted,
			CreatedAt:   time.Now(),
		},
		Position: model.Position{
			ID:       "test-position",
			Title:    "Integration Check",
			Client:   "Shortlist",
			Location: "Everywhere",
		},
		Candidate: model.Candidate{
			ID:   "test-candidate",
			Name: "Test Candidate",
			Role: "Notification Tester",
		},
	}
	return n.Notify(ctx, []model.LinkEvent{event})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func buildPayload(e model.LinkEvent) slackPayload {
	name := e.Candidate.Name
	if name == "" {
		name = e.Candidate.ID
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: name + " added to " + e.Position.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Client:*\n" + orDash(e.Position.Client)},
				{Type: "mrkdwn", Text: "*Stage:*\n" + orDash(e.Submission.Stage)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Match score:*\n%d/100", e.Match.Score)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Current role:*\n" + orDash(e.Candidate.Role)},
				{Type: "mrkdwn", Text: "*Location:*\n" + orDash(e.Candidate.Location)},
			},
		},
	}

	if len(e.Candidate.Skills) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Skills:* " + strings.Join(e.Candidate.Skills, ", ")},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("position `%s` · candidate `%s`", e.Position.ID, e.Candidate.ID)},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
