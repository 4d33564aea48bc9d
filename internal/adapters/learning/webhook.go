package learning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/domain/entities"
)

// WebhookHook posts each correction as JSON to an external learner.
// Any 2xx response counts as incorporated.
type WebhookHook struct {
	url     string
	client  *http.Client
	retries retry.Config
	logger  *zap.Logger
}

func NewWebhookHook(url string, timeout time.Duration, retries retry.Config, log *zap.Logger) *WebhookHook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookHook{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		logger:  log.With(zap.String("hook", "webhook")),
	}
}

type webhookPayload struct {
	Event    string            `json:"event"`
	Feedback entities.Feedback `json:"feedback"`
}

func (h *WebhookHook) Learn(ctx context.Context, fb entities.Feedback) error {
	body, err := json.Marshal(webhookPayload{Event: "feedback.created", Feedback: fb})
	if err != nil {
		return fmt.Errorf("marshaling feedback: %w", err)
	}

	_, err = retry.Do(ctx, h.retries, h.logger, func() (struct{}, error) {
		return struct{}{}, h.post(ctx, body)
	})
	if err != nil {
		return err
	}
	h.logger.Debug("feedback delivered", zap.String("feedback_id", fb.ID))
	return nil
}

func (h *WebhookHook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling learning webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &retry.StatusError{Service: "learning webhook", Code: resp.StatusCode}
	}
	return nil
}
